package analyzer

import (
	"context"
	"sync"
)

// Progress is a snapshot of a batch run taken after a source finished.
type Progress struct {
	Done   int
	Failed int
	Total  int
	// Source is the file that just finished and Err its failure, if any.
	Source string
	Err    error
}

// ProgressFunc observes a batch run.
type ProgressFunc func(Progress)

// Tracker records the outcome of every source of a batch run. It is safe
// for concurrent use; snapshots reach the callback in completion order.
type Tracker struct {
	mu       sync.Mutex
	progress Progress
	callback ProgressFunc
}

// NewTracker creates a tracker reporting to callback, which may be nil.
func NewTracker(callback ProgressFunc) *Tracker {
	return &Tracker{callback: callback}
}

// Expect grows the number of sources the run will process by n.
func (t *Tracker) Expect(n int) {
	t.mu.Lock()
	t.progress.Total += n
	t.mu.Unlock()
}

// Finish records that source is done; a non-nil err counts it as failed.
func (t *Tracker) Finish(source string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.progress.Done++
	if err != nil {
		t.progress.Failed++
	}
	t.progress.Source = source
	t.progress.Err = err
	if t.callback != nil {
		t.callback(t.progress)
	}
}

// Snapshot returns the progress recorded so far.
func (t *Tracker) Snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

type trackerKey struct{}

// WithTracker returns a context carrying t.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext returns the tracker carried by ctx, or nil.
func TrackerFromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(trackerKey{}).(*Tracker)
	return t
}
