package state

import (
	"time"

	"hcg/grader"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}

// NewGrader creates grader configured from grading section of the
// configuration. Without configuration grader has no limits.
func (e *LocalEnv) NewGrader() *grader.Grader {
	if e.Cfg == nil {
		return grader.New(e.Log)
	}
	return grader.New(e.Log,
		grader.WithLimits(e.Cfg.Grading.Limits()),
		grader.WithMaxCSSDepth(e.Cfg.Grading.MaxCSSDepth),
	)
}
