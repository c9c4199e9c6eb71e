package generate

import (
	"fmt"
	"io"
	"strconv"

	"github.com/panbanda/testxml/internal/output"
)

// FileResult is the outcome for one source file.
type FileResult struct {
	Source     string   `json:"source"`
	Outputs    []string `json:"outputs,omitempty"`
	Methods    int      `json:"methods"`
	Assertions int      `json:"assertions"`
	Roulette   int      `json:"assertion_roulette"`
	Duplicated int      `json:"duplicated_asserts"`
	Broken     bool     `json:"broken,omitempty"`
	Cached     bool     `json:"cached,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func newFileResult(conv *Conversion, outputs []string, cached bool) FileResult {
	r := FileResult{
		Source:  conv.Path,
		Outputs: outputs,
		Methods: len(conv.Methods),
		Broken:  conv.Broken,
		Cached:  cached,
	}
	for _, m := range conv.Methods {
		r.Assertions += m.Assertions
		r.Roulette += m.Roulette
		r.Duplicated += m.Duplicated
	}
	return r
}

// Summary reports the outcome of a run.
type Summary struct {
	Files      int          `json:"files"`
	Succeeded  int          `json:"succeeded"`
	Failed     int          `json:"failed"`
	Skipped    int          `json:"skipped"`
	Cached     int          `json:"cached"`
	Methods    int          `json:"methods"`
	Written    int          `json:"written"`
	Assertions int          `json:"assertions"`
	Roulette   int          `json:"assertion_roulette"`
	Duplicated int          `json:"duplicated_asserts"`
	Results    []FileResult `json:"results"`
}

func (s *Summary) add(r FileResult) {
	s.Results = append(s.Results, r)
	if r.Error != "" {
		s.Failed++
		return
	}
	s.Succeeded++
	if r.Cached {
		s.Cached++
	}
	s.Methods += r.Methods
	s.Written += len(r.Outputs)
	s.Assertions += r.Assertions
	s.Roulette += r.Roulette
	s.Duplicated += r.Duplicated
}

func (s *Summary) sort() {
	sortResults(s.Results)
}

// Renderable returns the summary as an output.Renderable: a totals section
// followed by a per-file table.
func (s *Summary) Renderable() output.Renderable {
	return &summaryView{s}
}

type summaryView struct {
	s *Summary
}

func (v *summaryView) report() *output.Report {
	s := v.s
	totals := &output.Section{
		Title: "Summary",
		Content: fmt.Sprintf(
			"%d files (%d succeeded, %d failed, %d skipped, %d cached)\n%d test methods, %d reports written\n%d assertions, %d assertion roulette, %d duplicated asserts",
			s.Files, s.Succeeded, s.Failed, s.Skipped, s.Cached,
			s.Methods, s.Written,
			s.Assertions, s.Roulette, s.Duplicated,
		),
	}

	rows := make([][]string, 0, len(s.Results))
	for _, r := range s.Results {
		status := "ok"
		switch {
		case r.Error != "":
			status = r.Error
		case r.Cached:
			status = "cached"
		case r.Broken:
			status = "recovered"
		}
		rows = append(rows, []string{
			r.Source,
			strconv.Itoa(r.Methods),
			strconv.Itoa(r.Roulette),
			strconv.Itoa(r.Duplicated),
			status,
		})
	}
	table := output.NewTable(
		"Files",
		[]string{"Source", "Methods", "Roulette", "Duplicated", "Status"},
		rows,
		[]string{"Total", strconv.Itoa(s.Methods), strconv.Itoa(s.Roulette), strconv.Itoa(s.Duplicated), ""},
		nil,
	)

	return &output.Report{
		Title:    "testxml",
		Sections: []output.Renderable{totals, table},
	}
}

func (v *summaryView) RenderText(w io.Writer, colored bool) error {
	return v.report().RenderText(w, colored)
}

func (v *summaryView) RenderMarkdown(w io.Writer) error {
	return v.report().RenderMarkdown(w)
}

func (v *summaryView) RenderData() any {
	return v.s
}
