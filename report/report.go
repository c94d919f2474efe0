// Package report renders grading results as text, json or junit xml.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"hcg/common"
	"hcg/grader"
)

// Submission holds results of a single graded page.
type Submission struct {
	Name        string               `json:"name"`
	Source      string               `json:"source,omitempty"`
	Results     []grader.CheckResult `json:"results"`
	Passed      int                  `json:"passed"`
	Total       int                  `json:"total"`
	Diagnostics []string             `json:"diagnostics,omitempty"`
}

// Failed returns number of checks which did not pass.
func (s *Submission) Failed() int {
	return s.Total - s.Passed
}

// Errors returns number of checks which could not be evaluated.
func (s *Submission) Errors() int {
	var n int
	for _, r := range s.Results {
		if r.IsError() {
			n++
		}
	}
	return n
}

// Report is the outcome of grading one or more submissions against a single
// exercise.
type Report struct {
	ID          uuid.UUID    `json:"id"`
	Exercise    string       `json:"exercise"`
	Description string       `json:"description,omitempty"`
	GeneratedAt time.Time    `json:"generatedAt"`
	Submissions []Submission `json:"submissions"`
}

// New creates empty report.
func New(exercise, description string) (*Report, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("unable to generate report id: %w", err)
	}
	return &Report{
		ID:          id,
		Exercise:    exercise,
		Description: description,
		GeneratedAt: time.Now(),
		Submissions: []Submission{},
	}, nil
}

// Add appends submission results.
func (r *Report) Add(name, source string, results []grader.CheckResult, diagnostics []string) {
	passed, total := grader.Tally(results)
	r.Submissions = append(r.Submissions, Submission{
		Name:        name,
		Source:      source,
		Results:     results,
		Passed:      passed,
		Total:       total,
		Diagnostics: diagnostics,
	})
}

// Failed reports whether any check of any submission did not pass.
func (r *Report) Failed() bool {
	for i := range r.Submissions {
		if r.Submissions[i].Failed() > 0 {
			return true
		}
	}
	return false
}

// Totals sums passed and total checks over all submissions.
func (r *Report) Totals() (passed, total int) {
	for _, s := range r.Submissions {
		passed += s.Passed
		total += s.Total
	}
	return passed, total
}

// Write renders report in requested format.
func (r *Report) Write(w io.Writer, format common.ReportFormat, opts ...Option) error {
	o := options{showPassed: true}
	for _, opt := range opts {
		opt(&o)
	}

	switch format {
	case common.ReportFormatText:
		return r.writeText(w, o)
	case common.ReportFormatJson:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case common.ReportFormatJunit:
		return r.writeJUnit(w)
	}
	return fmt.Errorf("unsupported report format %s", format)
}

type options struct {
	showPassed   bool
	textTemplate string
}

// Option configures rendering.
type Option func(*options)

// WithShowPassed controls whether text report lists passed checks.
func WithShowPassed(show bool) Option {
	return func(o *options) {
		o.showPassed = show
	}
}

// WithTextTemplate replaces built-in text template, empty value keeps it.
func WithTextTemplate(tmpl string) Option {
	return func(o *options) {
		o.textTemplate = tmpl
	}
}
