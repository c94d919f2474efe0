// Package grader evaluates declarative checks against learner HTML and CSS.
//
// Every call is independent: the HTML is repaired and parsed, the stylesheet
// turned into a rule table, and each check is decided against those. Results
// come back one per check, in input order, and never as an error.
package grader

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"hcg/css"
	"hcg/dom"
	"hcg/markup"
)

// Limits bounds grader inputs. Zero value means unlimited.
type Limits struct {
	MaxHTMLBytes int
	MaxCSSBytes  int
	MaxChecks    int
}

// Grader evaluates checks. It holds no per-call state and is safe for
// concurrent use.
type Grader struct {
	log    *zap.Logger
	parser *css.Parser
	limits Limits
	depth  int
}

// Option configures Grader.
type Option func(*Grader)

// WithLimits sets input limits.
func WithLimits(l Limits) Option {
	return func(g *Grader) {
		g.limits = l
	}
}

// WithMaxCSSDepth limits brace nesting of stylesheets.
func WithMaxCSSDepth(depth int) Option {
	return func(g *Grader) {
		g.depth = depth
	}
}

// New creates grader.
func New(log *zap.Logger, opts ...Option) *Grader {
	if log == nil {
		log = zap.NewNop()
	}
	g := &Grader{log: log.Named("grader")}
	for _, opt := range opts {
		opt(g)
	}
	g.parser = css.NewParser(log, css.WithMaxDepth(g.depth))
	return g
}

// Diagnose returns stylesheet warnings, see css.Parser.Diagnose.
func (g *Grader) Diagnose(cssSrc string) []string {
	return g.parser.Diagnose(cssSrc)
}

// Rules returns rule table checks would see for cssSrc.
func (g *Grader) Rules(cssSrc string) css.RuleTable {
	return g.parser.Parse(cssSrc)
}

// Grade evaluates checks against html and css sources. Length and order of the
// result match checks. When ctx is done remaining checks fail.
func (g *Grader) Grade(ctx context.Context, html, cssSrc string, checks []Check) []CheckResult {
	results := make([]CheckResult, 0, len(checks))

	failAll := func(msg string) []CheckResult {
		for _, c := range checks {
			results = append(results, result(c, Verdict{Message: msg}))
		}
		return results
	}

	switch {
	case g.limits.MaxHTMLBytes > 0 && len(html) > g.limits.MaxHTMLBytes:
		g.log.Warn("HTML input is too large", zap.Int("bytes", len(html)), zap.Int("limit", g.limits.MaxHTMLBytes))
		return failAll(fmt.Sprintf("Error: html input exceeds %d bytes", g.limits.MaxHTMLBytes))
	case g.limits.MaxCSSBytes > 0 && len(cssSrc) > g.limits.MaxCSSBytes:
		g.log.Warn("CSS input is too large", zap.Int("bytes", len(cssSrc)), zap.Int("limit", g.limits.MaxCSSBytes))
		return failAll(fmt.Sprintf("Error: css input exceeds %d bytes", g.limits.MaxCSSBytes))
	}

	norm := markup.Normalize(html)
	doc, err := dom.Parse(norm.Repaired)
	if err != nil {
		g.log.Warn("Unable to parse HTML", zap.Error(err))
		return failAll("Error: " + err.Error())
	}
	table := g.parser.Parse(cssSrc)

	for i, c := range checks {
		var v Verdict
		switch {
		case ctx.Err() != nil:
			v = Verdict{Message: "Error: " + ctx.Err().Error()}
		case g.limits.MaxChecks > 0 && i >= g.limits.MaxChecks:
			v = Verdict{Message: "Error: too many checks"}
		default:
			v = Evaluate(c, doc, table, norm.Original)
		}
		if !v.Passed && strings.HasPrefix(v.Message, errorPrefix) {
			g.log.Warn("Check failed internally", zap.String("id", c.ID), zap.String("rule", c.Rule), zap.String("error", v.Message))
		}
		res := result(c, v)
		g.log.Debug("Check evaluated", zap.String("id", c.ID), zap.String("type", c.Type), zap.String("rule", c.Rule), zap.Bool("passed", res.Passed))
		results = append(results, res)
	}
	return results
}

var std = New(nil)

// EvaluateHTMLCSS grades html and css against checks with default settings.
func EvaluateHTMLCSS(html, cssSrc string, checks []Check) []CheckResult {
	return std.Grade(context.Background(), html, cssSrc, checks)
}
