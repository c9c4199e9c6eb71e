// Package assertions detects assertion smells in test methods.
//
// Two heuristics are applied to the assertion calls of one method, split by
// argument count. Calls below the message arity are terse: any repeat among
// them marks the whole method with a single assertion roulette finding.
// Calls at or above it carry a failure message: every repeated signature is
// reported as a duplicated assertion with its occurrence count.
package assertions

import "github.com/panbanda/testxml/pkg/ast"

var assertionNames = map[string]struct{}{
	"assertEquals":      {},
	"assertNotEquals":   {},
	"assertTrue":        {},
	"assertFalse":       {},
	"assertNull":        {},
	"assertNotNull":     {},
	"assertSame":        {},
	"assertNotSame":     {},
	"assertArrayEquals": {},
	"assertThrows":      {},
}

// IsAssertion reports whether name is a recognized assertion method.
func IsAssertion(name string) bool {
	_, ok := assertionNames[name]
	return ok
}

// Analyzer detects assertion smells.
// This analyzer is safe for concurrent use.
type Analyzer struct {
	thresholds Thresholds
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithThresholds sets custom detection thresholds.
func WithThresholds(thresholds Thresholds) Option {
	return func(a *Analyzer) {
		a.thresholds = thresholds
	}
}

// WithMessageArity sets the argument count from which an assertion is
// assumed to carry a message.
func WithMessageArity(arity int) Option {
	return func(a *Analyzer) {
		a.thresholds.MessageArity = arity
	}
}

// New creates a new assertion smell analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.thresholds.MessageArity <= 0 {
		a.thresholds.MessageArity = DefaultThresholds().MessageArity
	}
	return a
}

// Detect runs a default-configured analyzer over calls.
func Detect(calls []*ast.MethodCall, opts ...Option) *Analysis {
	return New(opts...).Detect(calls)
}

// bucket tracks the raw texts seen among one arity class of calls.
type bucket struct {
	counts  map[string]int
	repeats []*ast.MethodCall
}

func newBucket() *bucket {
	return &bucket{counts: make(map[string]int)}
}

// add records call and reports whether it is the first repeat of its text.
func (b *bucket) add(call *ast.MethodCall) bool {
	b.counts[call.Raw]++
	if b.counts[call.Raw] == 2 {
		b.repeats = append(b.repeats, call)
		return true
	}
	return false
}

// Detect analyzes the calls of one method. Calls that are not assertions are
// ignored, so Method.Calls can be passed as is.
func (a *Analyzer) Detect(calls []*ast.MethodCall) *Analysis {
	analysis := &Analysis{
		Findings:   make([]Finding, 0),
		Thresholds: a.thresholds,
	}

	terse := newBucket()
	messaged := newBucket()
	for _, call := range calls {
		if call == nil || !IsAssertion(call.Name) {
			continue
		}
		analysis.Summary.Assertions++
		if len(call.Args) < a.thresholds.MessageArity {
			terse.add(call)
		} else {
			messaged.add(call)
		}
	}

	if len(terse.repeats) > 0 {
		analysis.Findings = append(analysis.Findings, newFinding(TypeAssertionRoulette, terse.repeats[0], terse))
	}
	for _, call := range messaged.repeats {
		analysis.Findings = append(analysis.Findings, newFinding(TypeDuplicatedAssertion, call, messaged))
	}

	analysis.CalculateSummary()
	return analysis
}

func newFinding(t Type, trigger *ast.MethodCall, b *bucket) Finding {
	line := trigger.Line
	if line <= 0 {
		line = ast.NoLine
	}
	return Finding{
		Type:      t,
		Signature: trigger.Raw,
		Count:     b.counts[trigger.Raw],
		Line:      line,
		Trigger:   trigger,
	}
}
