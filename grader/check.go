package grader

import "strings"

// Check types.
const (
	TypeHTML = "html"
	TypeCSS  = "css"
)

// Check is a single declarative pass/fail condition. Several checks may share
// the same ID.
type Check struct {
	ID   string `yaml:"id" json:"id" validate:"required"`
	Type string `yaml:"type" json:"type" validate:"required,oneof=html css HTML CSS"`
	Rule string `yaml:"rule" json:"rule" validate:"required"`
	Hint string `yaml:"hint,omitempty" json:"hint,omitempty"`
}

// CheckResult is the outcome of one check. Message carries "✓ " or "✗ "
// prefix.
type CheckResult struct {
	CheckID string `json:"checkId"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// Verdict is what evaluator decides about a check, message is not prefixed.
type Verdict struct {
	Passed  bool
	Message string
}

const (
	passMark    = "✓ "
	failMark    = "✗ "
	errorPrefix = "Error: "
)

func result(c Check, v Verdict) CheckResult {
	msg := v.Message
	if msg == "" {
		msg = c.Hint
	}
	mark := failMark
	if v.Passed {
		mark = passMark
	}
	return CheckResult{CheckID: c.ID, Passed: v.Passed, Message: mark + msg}
}

// Reason returns result message without pass/fail mark.
func (r CheckResult) Reason() string {
	return strings.TrimPrefix(strings.TrimPrefix(r.Message, passMark), failMark)
}

// IsError tells failures caused by bad rules or inputs apart from checks
// which simply did not hold.
func (r CheckResult) IsError() bool {
	return !r.Passed && strings.HasPrefix(r.Reason(), errorPrefix)
}

// Tally counts passed results.
func Tally(results []CheckResult) (passed, total int) {
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	return passed, len(results)
}
