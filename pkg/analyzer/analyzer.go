// Package analyzer holds what the report analyzers share: the FileAnalyzer
// contract and progress tracking.
package analyzer

import "context"

// FileAnalyzer is implemented by analyzers that process a set of source
// files. T is the aggregate result type.
type FileAnalyzer[T any] interface {
	// Analyze processes files and returns the aggregate result. A tracker
	// carried by ctx (see WithTracker) records each finished file.
	Analyze(ctx context.Context, files []string) (T, error)

	// Close releases any resources held by the analyzer.
	Close()
}
