package grader

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Rule format errors. Evaluator turns them into failed verdicts.
var (
	ErrInvalidRule      = errors.New("invalid rule format")
	ErrInvalidHasRule   = errors.New("invalid has rule format")
	ErrInvalidAttrRule  = errors.New("invalid attr rule format")
	ErrInvalidCountRule = errors.New("invalid count rule format")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrUnknownType      = errors.New("unknown check type")
)

// Rule is parsed form of a check rule string.
type Rule interface {
	// Command returns rule command as it was recognized.
	Command() string
}

// ExistsRule - "exists:SEL" for html checks.
type ExistsRule struct {
	Selector string
}

// DoctypeRule - "exists:!DOCTYPE", looks at the original text.
type DoctypeRule struct{}

// HasRule - "has:PARENT CHILD".
type HasRule struct {
	Parent string
	Child  string
}

// AttrRule - "attr:SEL.ATTR".
type AttrRule struct {
	Selector string
	Attr     string
}

// TextRule - "text:SEL" or "text:SEL=EXPECTED".
type TextRule struct {
	Selector    string
	Expected    string
	HasExpected bool
}

// CountRule - "count:SEL>=N" with one of >=, <=, >, <, =.
type CountRule struct {
	Selector string
	Op       string
	N        int
}

// DeclRule - "rule:SELECTOR PROP=VALUE" or "class:..." for css checks.
type DeclRule struct {
	Selector string
	Property string
	Value    string
	HasValue bool
}

// SelectorRule - "exists:SELECTOR" for css checks.
type SelectorRule struct {
	Selector string
}

func (ExistsRule) Command() string   { return "exists" }
func (DoctypeRule) Command() string  { return "exists" }
func (HasRule) Command() string      { return "has" }
func (AttrRule) Command() string     { return "attr" }
func (TextRule) Command() string     { return "text" }
func (CountRule) Command() string    { return "count" }
func (DeclRule) Command() string     { return "rule" }
func (SelectorRule) Command() string { return "exists" }

var reCount = regexp.MustCompile(`^(.+?)\s*(>=|<=|>|<|=)\s*(\d+)$`)

// ParseRule parses rule string of a check of the given type.
func ParseRule(checkType, rule string) (Rule, error) {
	cmd, rest, ok := strings.Cut(rule, ":")
	if !ok {
		return nil, ErrInvalidRule
	}
	cmd, rest = strings.ToLower(strings.TrimSpace(cmd)), strings.TrimSpace(rest)

	switch t := strings.ToLower(strings.TrimSpace(checkType)); t {
	case TypeHTML:
		return parseHTMLRule(cmd, rest)
	case TypeCSS:
		return parseCSSRule(cmd, rest)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, checkType)
	}
}

func parseHTMLRule(cmd, rest string) (Rule, error) {
	switch cmd {
	case "exists":
		if rest == "" {
			return nil, ErrInvalidRule
		}
		if strings.EqualFold(rest, "!DOCTYPE") || strings.EqualFold(rest, "DOCTYPE") {
			return DoctypeRule{}, nil
		}
		return ExistsRule{Selector: rest}, nil

	case "has":
		parent, child, _ := strings.Cut(rest, " ")
		child = strings.TrimSpace(child)
		if parent == "" || child == "" {
			return nil, ErrInvalidHasRule
		}
		return HasRule{Parent: parent, Child: child}, nil

	case "attr":
		i := strings.LastIndexByte(rest, '.')
		if i <= 0 || i == len(rest)-1 {
			return nil, ErrInvalidAttrRule
		}
		return AttrRule{Selector: strings.TrimSpace(rest[:i]), Attr: strings.TrimSpace(rest[i+1:])}, nil

	case "text":
		sel, expected, found := strings.Cut(rest, "=")
		if sel = strings.TrimSpace(sel); sel == "" {
			return nil, ErrInvalidRule
		}
		return TextRule{Selector: sel, Expected: strings.TrimSpace(expected), HasExpected: found}, nil

	case "count":
		return parseCount(rest)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
}

func parseCount(rest string) (Rule, error) {
	if m := reCount.FindStringSubmatch(rest); m != nil {
		if n, err := strconv.Atoi(m[3]); err == nil {
			return CountRule{Selector: strings.TrimSpace(m[1]), Op: m[2], N: n}, nil
		}
	}
	// legacy form, exact count after the last '='
	i := strings.LastIndexByte(rest, '=')
	if i <= 0 {
		return nil, ErrInvalidCountRule
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest[i+1:]))
	sel := strings.TrimSpace(rest[:i])
	if err != nil || sel == "" {
		return nil, ErrInvalidCountRule
	}
	return CountRule{Selector: sel, Op: "=", N: n}, nil
}

func parseCSSRule(cmd, rest string) (Rule, error) {
	switch cmd {
	case "rule", "class":
		return parseDecl(rest)

	case "exists":
		if rest == "" {
			return nil, ErrInvalidRule
		}
		return SelectorRule{Selector: rest}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
}

// parseDecl splits "SELECTOR PROP=VALUE". Selector may contain spaces and
// value may too ("font-family=Arial, sans-serif"), so PROP=VALUE starts at the
// last word holding '='. Without '=' the last word is the property.
func parseDecl(rest string) (Rule, error) {
	words := strings.Fields(rest)
	if len(words) < 2 {
		return nil, ErrInvalidRule
	}

	at := len(words) - 1
	for i := len(words) - 1; i > 0; i-- {
		if strings.Contains(words[i], "=") {
			at = i
			break
		}
	}

	rule := DeclRule{Selector: strings.Join(words[:at], " ")}
	prop, value, found := strings.Cut(strings.Join(words[at:], " "), "=")
	rule.Property = strings.ToLower(strings.TrimSpace(prop))
	rule.Value = strings.TrimSpace(value)
	rule.HasValue = found && rule.Value != ""

	if rule.Property == "" {
		return nil, ErrInvalidRule
	}
	return rule, nil
}

// message turns error into verdict text: "invalid rule format" becomes
// "Invalid rule format".
func message(err error) string {
	s := err.Error()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
