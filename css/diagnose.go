package css

import (
	"errors"
	"fmt"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Diagnose walks stylesheet with a standards following grammar parser and
// reports problems a learner may want to know about. Results never affect
// grading: rule table is built by Parse regardless of what is reported here.
func (p *Parser) Diagnose(src string) []string {
	var warnings []string
	if strings.TrimSpace(src) == "" {
		return warnings
	}

	parser := css.NewParser(parse.NewInputString(src), false)
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if !parser.HasParseError() {
				// io.EOF or read error - we are done either way
				return warnings
			}
			warnings = append(warnings, describe(parser.Err()))

		case css.AtRuleGrammar:
			if strings.EqualFold(string(data), "@import") {
				warnings = append(warnings, fmt.Sprintf("@import %s is not followed, only submitted stylesheets are graded", tokensText(parser.Values())))
			}

		case css.CustomPropertyGrammar:
			warnings = append(warnings, fmt.Sprintf("custom property %s is not resolved, checks compare declared values only", string(data)))
		}
	}
}

func describe(err error) string {
	var perr *parse.Error
	if errors.As(err, &perr) {
		return fmt.Sprintf("line %d, column %d: %s", perr.Line, perr.Column, perr.Message)
	}
	return err.Error()
}

func tokensText(tokens []css.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.Write(t.Data)
	}
	return strings.TrimSpace(sb.String())
}

