package assertions

import "github.com/panbanda/testxml/pkg/ast"

// Type represents the kind of assertion smell.
type Type string

const (
	// TypeAssertionRoulette flags a method that repeats an assertion which
	// carries no failure message.
	TypeAssertionRoulette Type = "assertion_roulette"
	// TypeDuplicatedAssertion flags a repeated assertion that carries a
	// failure message.
	TypeDuplicatedAssertion Type = "duplicated_assert"
)

// Finding is one detected smell.
type Finding struct {
	Type Type `json:"type"`
	// Signature is the raw text of the repeated call.
	Signature string `json:"signature"`
	// Count is the number of times Signature occurs in its bucket.
	Count int `json:"count"`
	// Line is the line of the first repeat, ast.NoLine when unknown.
	Line int `json:"line"`
	// Trigger is the call that first repeated Signature.
	Trigger *ast.MethodCall `json:"-"`
}

// Thresholds configures detection.
type Thresholds struct {
	// MessageArity is the argument count from which an assertion is assumed
	// to carry a failure message.
	MessageArity int `json:"message_arity"`
}

// DefaultThresholds returns the default thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{MessageArity: 3}
}

// Summary provides aggregate statistics for one method.
type Summary struct {
	Assertions      int `json:"assertions"`
	TotalFindings   int `json:"total_findings"`
	RouletteCount   int `json:"roulette_count"`
	DuplicatedCount int `json:"duplicated_count"`
}

// Analysis is the smell analysis of one method.
type Analysis struct {
	Findings   []Finding  `json:"findings"`
	Summary    Summary    `json:"summary"`
	Thresholds Thresholds `json:"thresholds"`
}

// Roulette returns the assertion roulette finding, if any.
func (a *Analysis) Roulette() *Finding {
	for i := range a.Findings {
		if a.Findings[i].Type == TypeAssertionRoulette {
			return &a.Findings[i]
		}
	}
	return nil
}

// Duplicated returns the duplicated assertion findings in first-repeat order.
func (a *Analysis) Duplicated() []Finding {
	var out []Finding
	for _, f := range a.Findings {
		if f.Type == TypeDuplicatedAssertion {
			out = append(out, f)
		}
	}
	return out
}

// CalculateSummary recomputes the summary counts from the findings.
func (a *Analysis) CalculateSummary() {
	a.Summary.TotalFindings = len(a.Findings)
	a.Summary.RouletteCount = 0
	a.Summary.DuplicatedCount = 0
	for _, f := range a.Findings {
		switch f.Type {
		case TypeAssertionRoulette:
			a.Summary.RouletteCount++
		case TypeDuplicatedAssertion:
			a.Summary.DuplicatedCount++
		}
	}
}
