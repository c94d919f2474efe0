package submission

import (
	"hcg/utils/debug"
)

// String returns readable dump of submission as it will be graded. It exists
// solely for debug reports.
func (s *Submission) String() string {
	if s == nil {
		return "<nil Submission>"
	}
	tw := debug.NewTreeWriter()
	tw.Line(0, "Submission[%q] kind[%s]", s.Name, s.Kind)
	tw.Text(1, "Page", s.HTMLFile)
	for i, name := range s.CSSFiles {
		tw.Line(1, "Stylesheet[%d]: %q", i, name)
	}
	for _, p := range s.Problems {
		tw.Text(1, "Problem", p)
	}
	tw.Lines(1, "HTML", s.HTML)
	tw.Lines(1, "CSS", s.CSS)
	return tw.String()
}
