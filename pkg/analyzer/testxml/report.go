package testxml

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/panbanda/testxml/pkg/analyzer/assertions"
	"github.com/panbanda/testxml/pkg/ast"
	"github.com/panbanda/testxml/pkg/markup"
)

// Placement controls where smell findings go relative to body records.
type Placement string

const (
	// PlaceBefore puts all findings ahead of the body records.
	PlaceBefore Placement = "before"
	// PlaceAfter puts all findings after the body records.
	PlaceAfter Placement = "after"
	// PlaceInline puts the roulette finding right after the statement that
	// triggered it and duplicated assertions at the end.
	PlaceInline Placement = "inline"
)

// ParsePlacement validates a placement name. The empty string selects
// PlaceBefore.
func ParsePlacement(s string) (Placement, error) {
	switch p := Placement(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PlaceBefore, nil
	case PlaceBefore, PlaceAfter, PlaceInline:
		return p, nil
	default:
		return "", fmt.Errorf("unknown smell placement %q (want before, after or inline)", s)
	}
}

// ReportOptions configures BuildReport.
type ReportOptions struct {
	// FilePath, when set, is emitted as the first child.
	FilePath  string
	Placement Placement
	// Smells runs the detection; nil uses the default analyzer.
	Smells *assertions.Analyzer
}

// BuildReport assembles the test_method record of m.
func BuildReport(m *ast.Method, opts ReportOptions) *markup.Record {
	r, _ := buildReport(m, opts)
	return r
}

func buildReport(m *ast.Method, opts ReportOptions) (*markup.Record, *assertions.Analysis) {
	root := markup.New(TagTestMethod).WithAttr("name", m.Name)
	if opts.FilePath != "" {
		root.Append(markup.NewText(TagFilePath, opts.FilePath))
	}

	if m.IsEmpty() {
		return root.Append(markup.New(TagEmpty)), &assertions.Analysis{Findings: []assertions.Finding{}}
	}

	for _, c := range m.Orphans {
		root.Append(markup.NewText(TagComment, c.Text))
	}

	detector := opts.Smells
	if detector == nil {
		detector = assertions.New()
	}
	analysis := detector.Detect(m.Calls)
	roulette := rouletteRecord(analysis.Roulette())
	duplicated := duplicatedRecord(analysis.Duplicated())

	switch opts.Placement {
	case PlaceAfter:
		root.Append(SerializeStatements(m.Body)...)
		root.Append(roulette, duplicated)

	case PlaceInline:
		var s Serializer
		placed := roulette == nil
		if !placed {
			trigger := analysis.Roulette().Trigger
			s.AfterCall = func(call *ast.MethodCall) []*markup.Record {
				if placed || call != trigger {
					return nil
				}
				placed = true
				return []*markup.Record{roulette}
			}
		}
		root.Append(s.Serialize(m.Body)...)
		if !placed {
			root.Append(roulette)
		}
		root.Append(duplicated)

	default:
		root.Append(roulette, duplicated)
		root.Append(SerializeStatements(m.Body)...)
	}
	return root, analysis
}

func rouletteRecord(f *assertions.Finding) *markup.Record {
	if f == nil {
		return nil
	}
	r := markup.NewText(TagAssertionRoulette, f.Signature)
	if f.Line != ast.NoLine {
		r.WithAttr("line", strconv.Itoa(f.Line))
	}
	return r
}

func duplicatedRecord(findings []assertions.Finding) *markup.Record {
	if len(findings) == 0 {
		return nil
	}
	group := markup.New(TagDuplicatedAsserts)
	for _, f := range findings {
		group.Append(markup.NewText(TagDuplicatedAssert, f.Signature).WithAttr("count", strconv.Itoa(f.Count)))
	}
	return group
}
