package scanner

import (
	"os"
	"path/filepath"

	"github.com/panbanda/testxml/internal/scanner"
	"github.com/panbanda/testxml/pkg/config"
)

// ScanResult contains the result of a file scan.
type ScanResult struct {
	Files []string
	// Roots maps each file to the input path it was found under. A file
	// given directly is rooted at its own directory.
	Roots map[string]string
	// Errors holds a *PathError or *ScanError for every input that could
	// not be scanned. The other inputs are scanned regardless.
	Errors []error
}

// Root returns the root directory a file was discovered from.
func (r *ScanResult) Root(file string) string {
	if root, ok := r.Roots[file]; ok {
		return root
	}
	return filepath.Dir(file)
}

// Service provides file scanning functionality.
type Service struct {
	config *config.Config
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// New creates a new scanner service.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}
	return s
}

// ScanPaths scans files and directories and returns every Java source found.
// Files listed explicitly are kept when they are Java sources, even if a
// directory scan would have excluded them. Duplicates are dropped. An input
// that cannot be scanned is recorded in ScanResult.Errors.
func (s *Service) ScanPaths(paths []string) *ScanResult {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	scan := scanner.NewScanner(s.config)
	result := &ScanResult{Roots: make(map[string]string)}
	add := func(file, root string) {
		if _, ok := result.Roots[file]; ok {
			return
		}
		result.Roots[file] = root
		result.Files = append(result.Files, file)
	}

	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			result.Errors = append(result.Errors, &PathError{Path: path, Err: err})
			continue
		}
		info, err := os.Stat(absPath)
		if err != nil {
			result.Errors = append(result.Errors, &PathError{Path: path, Err: err})
			continue
		}

		if !info.IsDir() {
			ok, err := scan.ScanFile(absPath)
			if err != nil {
				result.Errors = append(result.Errors, &ScanError{Path: path, Err: err})
				continue
			}
			if ok {
				add(absPath, filepath.Dir(absPath))
			}
			continue
		}

		found, err := scan.ScanDir(absPath)
		if err != nil {
			result.Errors = append(result.Errors, &ScanError{Path: path, Err: err})
			continue
		}
		for _, f := range found {
			add(f, absPath)
		}
	}

	return result
}

// FilterBySize filters files by maximum size.
func (s *Service) FilterBySize(files []string, maxSize int64) ([]string, int) {
	return scanner.FilterBySize(files, maxSize)
}

// PathError indicates an invalid or missing path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ScanError indicates a scanning failure.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return "failed to scan " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
