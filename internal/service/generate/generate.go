// Package generate drives batch report generation. It scans inputs for Java
// sources, builds the report of every test method and writes the rendered
// documents either next to the sources or under an output directory.
package generate

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/panbanda/testxml/internal/cache"
	"github.com/panbanda/testxml/internal/fileproc"
	scansvc "github.com/panbanda/testxml/internal/service/scanner"
	"github.com/panbanda/testxml/pkg/analyzer"
	"github.com/panbanda/testxml/pkg/analyzer/testxml"
	"github.com/panbanda/testxml/pkg/config"
	"github.com/panbanda/testxml/pkg/markup"
	"github.com/panbanda/testxml/pkg/parser"
)

// Service generates report files.
type Service struct {
	config   *config.Config
	analyzer *testxml.Analyzer
	scanner  *scansvc.Service
	cache    *cache.Cache
	logger   *slog.Logger
	style    markup.Style
	settings []string
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithCache reuses reports of unchanged sources from c.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithLogger sets the logger for per-file diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a generate service. It fails when the configured smell
// placement is unknown.
func New(opts ...Option) (*Service, error) {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.cache == nil {
		s.cache, _ = cache.New("", 0, false)
	}

	cfg := s.config
	placement, err := testxml.ParsePlacement(cfg.Output.Smells)
	if err != nil {
		return nil, err
	}
	s.analyzer = testxml.New(
		testxml.WithTestAnnotations(cfg.Analysis.TestAnnotations...),
		testxml.WithStrict(cfg.Analysis.Strict),
		testxml.WithPlacement(placement),
		testxml.WithIncludePath(cfg.Output.IncludePath),
		testxml.WithMessageArity(cfg.Analysis.MessageArity),
	)
	s.scanner = scansvc.New(scansvc.WithConfig(cfg))

	s.style = markup.Compact
	if cfg.Output.Indent {
		s.style = markup.Indented
	}
	// Everything that changes the rendered documents.
	s.settings = []string{
		"annotations=" + strings.Join(cfg.Analysis.TestAnnotations, ","),
		"strict=" + strconv.FormatBool(cfg.Analysis.Strict),
		"arity=" + strconv.Itoa(cfg.Analysis.MessageArity),
		"smells=" + string(placement),
		"include_path=" + strconv.FormatBool(cfg.Output.IncludePath),
		"indent=" + strconv.FormatBool(cfg.Output.Indent),
	}
	return s, nil
}

// MethodDoc is the rendered report of one test method.
type MethodDoc struct {
	Name       string `json:"name"`
	Key        string `json:"key"`
	Line       int    `json:"line"`
	Assertions int    `json:"assertions"`
	Roulette   int    `json:"assertion_roulette"`
	Duplicated int    `json:"duplicated_asserts"`
	XML        string `json:"xml"`
}

// Conversion is the rendered report of one source file.
type Conversion struct {
	Path    string      `json:"path"`
	Broken  bool        `json:"broken,omitempty"`
	Methods []MethodDoc `json:"methods"`
}

func newConversion(report *testxml.FileReport, style markup.Style) *Conversion {
	conv := &Conversion{
		Path:    report.Path,
		Broken:  report.Broken,
		Methods: make([]MethodDoc, 0, len(report.Methods)),
	}
	docs := report.Render(style)
	for i, m := range report.Methods {
		conv.Methods = append(conv.Methods, MethodDoc{
			Name:       m.Name,
			Key:        m.Key,
			Line:       m.Line,
			Assertions: m.Smells.Summary.Assertions,
			Roulette:   m.Smells.Summary.RouletteCount,
			Duplicated: m.Smells.Summary.DuplicatedCount,
			XML:        docs[i],
		})
	}
	return conv
}

// Document joins the method documents into one, separated by blank lines.
func (c *Conversion) Document() string {
	var b strings.Builder
	for i, m := range c.Methods {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.TrimRight(m.XML, "\n"))
		b.WriteByte('\n')
	}
	return b.String()
}

// ConvertFile builds the reports of one file without writing anything.
func (s *Service) ConvertFile(ctx context.Context, path string) (*Conversion, error) {
	psr := parser.New()
	defer psr.Close()

	conv, _, err := s.convert(ctx, psr, path)
	return conv, err
}

// convert returns the reports of the file at path, from the cache when the
// source and settings are unchanged.
func (s *Service) convert(ctx context.Context, psr *parser.Parser, path string) (*Conversion, bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, notFound(path, err)
		}
		return nil, false, &ParseError{Path: path, Err: err}
	}

	fingerprint := cache.Fingerprint(content, s.settings...)
	var cached Conversion
	if s.cache.Get(path, fingerprint, &cached) {
		return &cached, true, nil
	}

	// A started file is finished even if the run is cancelled meanwhile.
	report, err := s.analyzer.AnalyzeSourceWithParser(context.WithoutCancel(ctx), psr, content, path)
	if err != nil {
		return nil, false, &ParseError{Path: path, Err: err}
	}

	conv := newConversion(report, s.style)
	if err := s.cache.Set(path, fingerprint, conv); err != nil {
		s.logger.Warn("cache write failed", "source", path, "err", err)
	}
	return conv, false, nil
}

// Scan resolves paths to the Java sources Generate would process. Inputs
// that cannot be scanned are kept in the result and reported by
// GenerateScanned.
func (s *Service) Scan(paths []string) *scansvc.ScanResult {
	return s.scanner.ScanPaths(paths)
}

// Generate scans paths and writes the reports of every Java source found.
// Failures are isolated: a missing input path or a file that cannot be
// parsed or written is logged, counted in the summary and collected, and
// every other input is still processed. The error, if any, is a
// *fileproc.ProcessingErrors.
func (s *Service) Generate(ctx context.Context, paths []string) (*Summary, error) {
	return s.GenerateScanned(ctx, s.Scan(paths))
}

// GenerateScanned writes the reports of the files of an earlier Scan.
func (s *Service) GenerateScanned(ctx context.Context, res *scansvc.ScanResult) (*Summary, error) {
	return s.run(ctx, res)
}

// Regenerate writes the reports of files discovered under root, laying out
// output paths as Generate would for a scan of root.
func (s *Service) Regenerate(ctx context.Context, root string, files []string) (*Summary, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	res := &scansvc.ScanResult{Roots: make(map[string]string, len(files))}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}
		res.Files = append(res.Files, abs)
		res.Roots[abs] = absRoot
	}
	return s.run(ctx, res)
}

func (s *Service) run(ctx context.Context, res *scansvc.ScanResult) (*Summary, error) {
	files, skipped := s.scanner.FilterBySize(res.Files, s.config.MaxFileSize)
	if skipped > 0 {
		s.logger.Warn("skipped large files", "count", skipped, "max_file_size", s.config.MaxFileSize)
	}
	if tracker := analyzer.TrackerFromContext(ctx); tracker != nil {
		tracker.Expect(len(files))
	}

	results, errs := fileproc.MapFilesN(ctx, files, s.config.Workers, func(psr *parser.Parser, path string) (FileResult, error) {
		conv, cached, err := s.convert(ctx, psr, path)
		if err != nil {
			return FileResult{}, err
		}
		outputs, err := s.write(res.Root(path), conv)
		if err != nil {
			return FileResult{}, err
		}

		s.logger.Debug("generated reports", "source", path, "methods", len(conv.Methods), "cached", cached)
		if conv.Broken {
			s.logger.Warn("source has syntax errors, reported from the recovered tree", "source", path)
		}
		return newFileResult(conv, outputs, cached), nil
	})

	summary := &Summary{Files: len(files) + len(res.Errors), Skipped: skipped}
	for _, r := range results {
		summary.add(r)
	}
	for _, err := range res.Errors {
		if errs == nil {
			errs = &fileproc.ProcessingErrors{}
		}
		errs.Add(inputError(err))
	}
	if errs == nil {
		summary.sort()
		return summary, nil
	}

	for _, e := range errs.Errors {
		s.logger.Error("report generation failed", "source", e.Path, "err", e.Err)
		summary.add(FileResult{Source: e.Path, Error: e.Err.Error()})
	}
	summary.sort()
	return summary, errs
}

// inputError maps a scan failure to the path it concerns and the error
// reported for it.
func inputError(err error) (string, error) {
	var pathErr *scansvc.PathError
	if errors.As(err, &pathErr) {
		if errors.Is(pathErr.Err, fs.ErrNotExist) {
			return pathErr.Path, notFound(pathErr.Path, pathErr.Err)
		}
		return pathErr.Path, err
	}
	var scanErr *scansvc.ScanError
	if errors.As(err, &scanErr) {
		return scanErr.Path, err
	}
	return "", err
}

// write writes the documents of conv and returns the written paths. Files
// without test methods produce no output.
func (s *Service) write(root string, conv *Conversion) ([]string, error) {
	if len(conv.Methods) == 0 {
		return nil, nil
	}

	dir := s.outputDir(root, conv.Path)
	base := strings.TrimSuffix(filepath.Base(conv.Path), filepath.Ext(conv.Path))

	if s.config.Output.Mode == config.ModeFile {
		path := filepath.Join(dir, base+".xml")
		if err := writeFile(path, conv.Document()); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	dir = filepath.Join(dir, base)
	outputs := make([]string, 0, len(conv.Methods))
	for _, m := range conv.Methods {
		path := filepath.Join(dir, m.Key+".xml")
		if err := writeFile(path, strings.TrimRight(m.XML, "\n")+"\n"); err != nil {
			return outputs, err
		}
		outputs = append(outputs, path)
	}
	return outputs, nil
}

// outputDir mirrors the source's directory relative to root under the
// output directory, or returns the source's own directory when no output
// directory is configured.
func (s *Service) outputDir(root, source string) string {
	srcDir := filepath.Dir(source)
	if s.config.Output.Dir == "" {
		return srcDir
	}
	rel, err := filepath.Rel(root, srcDir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = "."
	}
	return filepath.Join(s.config.Output.Dir, rel)
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// sortResults orders results by source path.
func sortResults(results []FileResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Source < results[j].Source
	})
}
