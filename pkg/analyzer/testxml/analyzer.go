// Package testxml builds XML reports of Java test methods.
//
// Each test method becomes one test_method record describing its control
// flow, assertions, comments and prints, together with the assertion smells
// found in it. The package works on the node model from pkg/ast and never
// sees parser types other than through treesitter.Convert.
package testxml

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/panbanda/testxml/internal/fileproc"
	"github.com/panbanda/testxml/pkg/analyzer"
	"github.com/panbanda/testxml/pkg/analyzer/assertions"
	"github.com/panbanda/testxml/pkg/ast"
	"github.com/panbanda/testxml/pkg/ast/treesitter"
	"github.com/panbanda/testxml/pkg/markup"
	"github.com/panbanda/testxml/pkg/parser"
)

// ErrSyntax is returned in strict mode for sources with syntax errors.
var ErrSyntax = errors.New("source has syntax errors")

// Ensure Analyzer implements analyzer.FileAnalyzer.
var _ analyzer.FileAnalyzer[*Analysis] = (*Analyzer)(nil)

// Analyzer builds test method reports for Java files.
// This analyzer is safe for concurrent use.
type Analyzer struct {
	annotations []string
	strict      bool
	placement   Placement
	includePath bool
	arity       int
	maxFileSize int64
	workers     int
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithTestAnnotations sets the annotation names that mark a test method.
func WithTestAnnotations(names ...string) Option {
	return func(a *Analyzer) {
		if len(names) > 0 {
			a.annotations = names
		}
	}
}

// WithStrict makes sources with syntax errors fail with ErrSyntax instead
// of being reported from the recovered tree.
func WithStrict(strict bool) Option {
	return func(a *Analyzer) {
		a.strict = strict
	}
}

// WithPlacement sets where smell findings are placed.
func WithPlacement(p Placement) Option {
	return func(a *Analyzer) {
		a.placement = p
	}
}

// WithIncludePath adds a file_path record to every report.
func WithIncludePath(include bool) Option {
	return func(a *Analyzer) {
		a.includePath = include
	}
}

// WithMessageArity sets the assertion message arity used for smells.
func WithMessageArity(arity int) Option {
	return func(a *Analyzer) {
		a.arity = arity
	}
}

// WithMaxFileSize skips files larger than size bytes in Analyze.
func WithMaxFileSize(size int64) Option {
	return func(a *Analyzer) {
		a.maxFileSize = size
	}
}

// WithWorkers sets the number of files analyzed concurrently.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.workers = n
	}
}

// New creates a new test report analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		annotations: []string{"Test"},
		placement:   PlaceBefore,
		arity:       assertions.DefaultThresholds().MessageArity,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Close releases analyzer resources.
func (a *Analyzer) Close() {}

// MethodReport is the report of one test method.
type MethodReport struct {
	Name string `json:"name"`
	// Key is unique within the file; overloads get _2, _3 and so on.
	Key    string               `json:"key"`
	Line   int                  `json:"line"`
	Record *markup.Record       `json:"-"`
	Smells *assertions.Analysis `json:"smells"`
}

// FileReport holds the reports of every test method in one file.
type FileReport struct {
	Path    string         `json:"path"`
	Broken  bool           `json:"broken,omitempty"`
	Methods []MethodReport `json:"methods"`
}

// Render renders every method report in order.
func (f *FileReport) Render(style markup.Style) []string {
	docs := make([]string, len(f.Methods))
	for i, m := range f.Methods {
		docs[i] = markup.Render(m.Record, style)
	}
	return docs
}

// Summary provides aggregate statistics.
type Summary struct {
	Files      int `json:"files"`
	Broken     int `json:"broken"`
	Methods    int `json:"methods"`
	Assertions int `json:"assertions"`
	Roulette   int `json:"assertion_roulette"`
	Duplicated int `json:"duplicated_asserts"`
}

// Add folds a file report into the summary.
func (s *Summary) Add(f *FileReport) {
	s.Files++
	if f.Broken {
		s.Broken++
	}
	s.Methods += len(f.Methods)
	for _, m := range f.Methods {
		s.Assertions += m.Smells.Summary.Assertions
		s.Roulette += m.Smells.Summary.RouletteCount
		s.Duplicated += m.Smells.Summary.DuplicatedCount
	}
}

// Analysis is the result of analyzing a set of files.
type Analysis struct {
	Files   []*FileReport `json:"files"`
	Summary Summary       `json:"summary"`
}

// Analyze reports on files concurrently. Files that fail are left out; their
// errors are returned together once every file has been tried.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Analysis, error) {
	reports, errs := fileproc.MapFilesN(ctx, files, a.workers, fileproc.LimitSize(a.maxFileSize, a.AnalyzeWithParser))

	analysis := &Analysis{Files: reports}
	for _, f := range reports {
		analysis.Summary.Add(f)
	}
	if errs != nil {
		return analysis, errs
	}
	return analysis, nil
}

// AnalyzeFile parses and reports on the file at path.
func (a *Analyzer) AnalyzeFile(path string) (*FileReport, error) {
	psr := parser.New()
	defer psr.Close()
	return a.AnalyzeWithParser(psr, path)
}

// AnalyzeWithParser reports on the file at path using psr.
func (a *Analyzer) AnalyzeWithParser(psr *parser.Parser, path string) (*FileReport, error) {
	result, err := psr.ParseFile(path)
	if err != nil {
		return nil, err
	}
	defer result.Close()
	return a.analyzeResult(result)
}

// AnalyzeSource reports on Java source held in memory.
func (a *Analyzer) AnalyzeSource(ctx context.Context, source []byte, path string) (*FileReport, error) {
	psr := parser.New()
	defer psr.Close()
	return a.AnalyzeSourceWithParser(ctx, psr, source, path)
}

// AnalyzeSourceWithParser reports on in-memory source using psr.
func (a *Analyzer) AnalyzeSourceWithParser(ctx context.Context, psr *parser.Parser, source []byte, path string) (*FileReport, error) {
	result, err := psr.Parse(ctx, source, parser.LangJava, path)
	if err != nil {
		return nil, err
	}
	defer result.Close()
	return a.analyzeResult(result)
}

func (a *Analyzer) analyzeResult(result *parser.ParseResult) (*FileReport, error) {
	file := treesitter.Convert(result)
	if file.Broken && a.strict {
		return nil, fmt.Errorf("%s: %w", result.Path, ErrSyntax)
	}
	return a.AnalyzeAST(file), nil
}

// AnalyzeAST reports on an already converted file.
func (a *Analyzer) AnalyzeAST(file *ast.File) *FileReport {
	opts := ReportOptions{
		Placement: a.placement,
		Smells:    assertions.New(assertions.WithMessageArity(a.arity)),
	}
	if a.includePath {
		opts.FilePath = file.Path
	}

	report := &FileReport{Path: file.Path, Broken: file.Broken}
	methods := file.TestMethods(a.annotations...)
	keys := newKeySet(methods)
	for _, m := range methods {
		record, smells := buildReport(m, opts)
		report.Methods = append(report.Methods, MethodReport{
			Name:   m.Name,
			Key:    keys.next(m.Name),
			Line:   m.Line,
			Record: record,
			Smells: smells,
		})
	}
	return report
}

// keySet issues method keys that are unique within a file. Overloads get a
// numeric suffix that skips keys already issued and names of other test
// methods in the file, so foo(), foo(int) and foo_2() map to foo, foo_3
// and foo_2.
type keySet struct {
	declared map[string]bool
	issued   map[string]bool
}

func newKeySet(methods []*ast.Method) *keySet {
	k := &keySet{
		declared: make(map[string]bool, len(methods)),
		issued:   make(map[string]bool, len(methods)),
	}
	for _, m := range methods {
		k.declared[m.Name] = true
	}
	return k
}

func (k *keySet) next(name string) string {
	key := name
	for n := 2; k.issued[key] || (key != name && k.declared[key]); n++ {
		key = name + "_" + strconv.Itoa(n)
	}
	k.issued[key] = true
	return key
}
