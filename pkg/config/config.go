package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	jsonparser "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// EnvConfigPath names the environment variable that points at a config file.
const EnvConfigPath = "TESTXML_CONFIG"

// Output modes.
const (
	ModeMethod = "method"
	ModeFile   = "file"
)

// Config holds all configuration options for testxml.
type Config struct {
	// Test method recognition and smell detection
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis" yaml:"analysis" json:"analysis"`

	// Report output settings
	Output OutputConfig `koanf:"output" toml:"output" yaml:"output" json:"output"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude" yaml:"exclude" json:"exclude"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache" yaml:"cache" json:"cache"`

	// Workers is the number of files processed concurrently; 0 picks a
	// default from the CPU count.
	Workers int `koanf:"workers" toml:"workers" yaml:"workers" json:"workers"`

	// MaxFileSize skips larger sources, in bytes; 0 disables the limit.
	MaxFileSize int64 `koanf:"max_file_size" toml:"max_file_size" yaml:"max_file_size" json:"max_file_size"`
}

// AnalysisConfig controls how test methods are found and analyzed.
type AnalysisConfig struct {
	TestAnnotations []string `koanf:"test_annotations" toml:"test_annotations" yaml:"test_annotations" json:"test_annotations"`
	// Strict fails files with syntax errors instead of reporting the
	// recovered tree.
	Strict       bool `koanf:"strict" toml:"strict" yaml:"strict" json:"strict"`
	MessageArity int  `koanf:"message_arity" toml:"message_arity" yaml:"message_arity" json:"message_arity"`
}

// OutputConfig controls where and how reports are written.
type OutputConfig struct {
	// Dir is the report root; empty writes next to the sources.
	Dir         string `koanf:"dir" toml:"dir" yaml:"dir" json:"dir"`
	Mode        string `koanf:"mode" toml:"mode" yaml:"mode" json:"mode"` // method, file
	Indent      bool   `koanf:"indent" toml:"indent" yaml:"indent" json:"indent"`
	IncludePath bool   `koanf:"include_path" toml:"include_path" yaml:"include_path" json:"include_path"`
	Smells      string `koanf:"smells" toml:"smells" yaml:"smells" json:"smells"` // before, after, inline
	Format      string `koanf:"format" toml:"format" yaml:"format" json:"format"` // text, json, markdown, toon
	Color       bool   `koanf:"color" toml:"color" yaml:"color" json:"color"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns" yaml:"patterns" json:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs" yaml:"dirs" json:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore" yaml:"gitignore" json:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled" yaml:"enabled" json:"enabled"`
	Dir     string `koanf:"dir" toml:"dir" yaml:"dir" json:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl" yaml:"ttl" json:"ttl"` // TTL in hours
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			TestAnnotations: []string{"Test"},
			MessageArity:    3,
		},
		Output: OutputConfig{
			Mode:   ModeMethod,
			Indent: true,
			Smells: "before",
			Format: "text",
			Color:  true,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{},
			Dirs: []string{
				".git",
				".gradle",
				".idea",
				".testxml",
				"build",
				"node_modules",
				"out",
				"target",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".testxml/cache",
			TTL:     168,
		},
	}
}

// parserFor picks the koanf parser from the file extension.
func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return jsonparser.Parser()
	default:
		return toml.Parser()
	}
}

func loadKoanf(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, err
	}
	return k, nil
}

// Load loads configuration from a file on top of the defaults.
func Load(path string) (*Config, error) {
	k, err := loadKoanf(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configNames are searched in order in each search directory.
var configNames = []string{
	"testxml.toml",
	"testxml.yaml",
	"testxml.yml",
	"testxml.json",
	".testxml.toml",
	".testxml.yaml",
	".testxml.yml",
	".testxml.json",
}

// Find returns the first config file in the standard locations under dir.
func Find(dir string) (string, bool) {
	for _, sub := range []string{".", ".testxml"} {
		for _, name := range configNames {
			path := filepath.Join(dir, sub, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, true
			}
		}
	}
	return "", false
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	result, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return result.Config
}

// LoadResult is a loaded configuration and the file it came from.
type LoadResult struct {
	Config *Config
	// Source is empty when no file was found and defaults are in use.
	Source string
}

type loadOptions struct {
	path string
	dir  string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads the given file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithDir searches dir instead of the working directory.
func WithDir(dir string) LoadOption {
	return func(o *loadOptions) {
		o.dir = dir
	}
}

// LoadConfig loads and validates configuration. An explicit path wins over
// TESTXML_CONFIG, which wins over the standard locations.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{dir: "."}
	for _, opt := range opts {
		opt(&o)
	}

	path := o.path
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		found, ok := Find(o.dir)
		if !ok {
			return &LoadResult{Config: DefaultConfig()}, nil
		}
		path = found
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &LoadResult{Config: cfg, Source: path}, nil
}

// Validate checks the config values.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Analysis.TestAnnotations) == 0 {
		errs = append(errs, errors.New("analysis.test_annotations must not be empty"))
	}
	if c.Analysis.MessageArity < 1 {
		errs = append(errs, fmt.Errorf("analysis.message_arity must be at least 1, got %d", c.Analysis.MessageArity))
	}
	if !slices.Contains([]string{ModeMethod, ModeFile}, c.Output.Mode) {
		errs = append(errs, fmt.Errorf("output.mode must be method or file, got %q", c.Output.Mode))
	}
	if !slices.Contains([]string{"before", "after", "inline"}, c.Output.Smells) {
		errs = append(errs, fmt.Errorf("output.smells must be before, after or inline, got %q", c.Output.Smells))
	}
	if !slices.Contains([]string{"text", "json", "markdown", "toon"}, c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format must be text, json, markdown or toon, got %q", c.Output.Format))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.MaxFileSize < 0 {
		errs = append(errs, fmt.Errorf("max_file_size must not be negative, got %d", c.MaxFileSize))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must not be negative, got %d", c.Cache.TTL))
	}
	return errors.Join(errs...)
}

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/panbanda/testxml/schema.json"

// ValidateFile checks the raw keys of a config file against the JSON schema,
// catching unknown keys and wrong types that Load would silently ignore.
func ValidateFile(path string) error {
	k, err := loadKoanf(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	raw, err := json.Marshal(k.Raw())
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	schema, err := compileSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to decode config schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add config schema: %w", err)
	}
	return c.Compile(schemaURL)
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	sep := string(filepath.Separator)
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, sep+dir+sep) || strings.HasPrefix(path, dir+sep) {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
