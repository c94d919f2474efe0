package grader

import (
	"fmt"
	"strings"

	"hcg/css"
	"hcg/dom"
	"hcg/markup"
)

// Evaluate decides a single check against parsed document, rule table and
// original (not repaired) HTML text. It never panics, any internal failure
// becomes a failed verdict with "Error: " message.
func Evaluate(c Check, doc *dom.Document, table css.RuleTable, original string) (v Verdict) {
	defer func() {
		if r := recover(); r != nil {
			v = Verdict{Message: fmt.Sprintf("Error: %v", r)}
		}
	}()

	rule, err := ParseRule(c.Type, c.Rule)
	if err != nil {
		return Verdict{Message: message(err)}
	}
	return evaluateRule(rule, doc, table, original)
}

func evaluateRule(rule Rule, doc *dom.Document, table css.RuleTable, original string) Verdict {
	switch r := rule.(type) {
	case DoctypeRule:
		if markup.HasDoctype(original) {
			return Verdict{Passed: true, Message: "DOCTYPE declaration found"}
		}
		return Verdict{Message: "DOCTYPE declaration missing"}

	case ExistsRule:
		ok, err := doc.Exists(dom.Equivalents(r.Selector)...)
		if err != nil {
			return failure(err)
		}
		if ok {
			return Verdict{Passed: true, Message: fmt.Sprintf("Element %q found", r.Selector)}
		}
		return Verdict{Message: fmt.Sprintf("Element %q not found", r.Selector)}

	case HasRule:
		ok, err := doc.FindWithin(r.Parent, r.Child)
		if err != nil {
			return failure(err)
		}
		if ok {
			return Verdict{Passed: true, Message: fmt.Sprintf("%q found inside %q", r.Child, r.Parent)}
		}
		return Verdict{Message: fmt.Sprintf("%q not found inside %q", r.Child, r.Parent)}

	case AttrRule:
		found, present, err := doc.Attribute(r.Selector, r.Attr)
		switch {
		case err != nil:
			return failure(err)
		case !found:
			return Verdict{Message: fmt.Sprintf("%q not found", r.Selector)}
		case !present:
			return Verdict{Message: fmt.Sprintf("Attribute %q missing on %q", r.Attr, r.Selector)}
		}
		return Verdict{Passed: true, Message: fmt.Sprintf("Attribute %q present on %q", r.Attr, r.Selector)}

	case TextRule:
		return evaluateText(r, doc)

	case CountRule:
		n, err := doc.Count(dom.Equivalents(r.Selector)...)
		if err != nil {
			return failure(err)
		}
		return Verdict{
			Passed:  compare(n, r.Op, r.N),
			Message: fmt.Sprintf("Found %d %q (expected %s %d)", n, r.Selector, r.Op, r.N),
		}

	case DeclRule:
		return evaluateDecl(r, table)

	case SelectorRule:
		if table.Has(r.Selector) {
			return Verdict{Passed: true, Message: fmt.Sprintf("Selector %q found in CSS", r.Selector)}
		}
		return Verdict{Message: "Selector not found in CSS"}
	}
	return Verdict{Message: fmt.Sprintf("Unknown command: %s", rule.Command())}
}

func evaluateText(r TextRule, doc *dom.Document) Verdict {
	text, found, err := doc.Text(r.Selector)
	switch {
	case err != nil:
		return failure(err)
	case !found:
		return Verdict{Message: fmt.Sprintf("%q not found", r.Selector)}
	}

	if !r.HasExpected {
		if text == "" {
			return Verdict{Message: fmt.Sprintf("%q is empty", r.Selector)}
		}
		return Verdict{Passed: true, Message: fmt.Sprintf("%q has text", r.Selector)}
	}

	if foldText(text) == foldText(r.Expected) {
		return Verdict{Passed: true, Message: fmt.Sprintf("Text of %q matches", r.Selector)}
	}
	return Verdict{Message: fmt.Sprintf("Text of %q is %q, expected %q", r.Selector, text, r.Expected)}
}

func evaluateDecl(r DeclRule, table css.RuleTable) Verdict {
	decls, ok := table.Lookup(r.Selector)
	if !ok {
		return Verdict{Message: "Selector not found in CSS"}
	}
	value, ok := decls.Get(r.Property)
	if !ok {
		return Verdict{Message: "Property not found"}
	}
	if !r.HasValue {
		return Verdict{Passed: true, Message: fmt.Sprintf("%q declared for %q", r.Property, r.Selector)}
	}
	if css.ValuesEqual(value, r.Value) {
		return Verdict{Passed: true, Message: fmt.Sprintf("%q is %q", r.Property, value)}
	}
	return Verdict{Message: fmt.Sprintf("%q is %q, expected %q", r.Property, value, r.Value)}
}

func compare(n int, op string, want int) bool {
	switch op {
	case ">=":
		return n >= want
	case "<=":
		return n <= want
	case ">":
		return n > want
	case "<":
		return n < want
	default:
		return n == want
	}
}

// foldText lowercases and collapses whitespace.
func foldText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func failure(err error) Verdict {
	return Verdict{Message: "Error: " + err.Error()}
}
