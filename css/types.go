package css

import (
	"maps"
	"regexp"
	"slices"
	"strings"
)

// Declarations maps lowercase property names to raw (trimmed) values.
type Declarations map[string]string

// Get returns the value for a property, or empty string if not found.
func (d Declarations) Get(name string) (string, bool) {
	v, ok := d[strings.ToLower(strings.TrimSpace(name))]
	return v, ok
}

// RuleTable maps normalized selectors to declarations merged from every
// block that named the selector. Later declarations win.
type RuleTable map[string]Declarations

// merge adds declarations to the selector entry, creating it if absent.
func (t RuleTable) merge(selector string, decls Declarations) {
	if len(decls) == 0 {
		return
	}
	existing, ok := t[selector]
	if !ok {
		existing = make(Declarations, len(decls))
		t[selector] = existing
	}
	maps.Copy(existing, decls)
}

// Lookup finds declarations for selector. Exact key match is tried first,
// then every key is compared after normalization of both sides.
func (t RuleTable) Lookup(selector string) (Declarations, bool) {
	if d, ok := t[strings.TrimSpace(selector)]; ok {
		return d, true
	}
	want := NormalizeSelector(selector)
	if d, ok := t[want]; ok {
		return d, true
	}
	for key, d := range t {
		if NormalizeSelector(key) == want {
			return d, true
		}
	}
	return nil, false
}

// Has reports whether selector is present in the table.
func (t RuleTable) Has(selector string) bool {
	_, ok := t.Lookup(selector)
	return ok
}

// Selectors returns table keys in lexical order.
func (t RuleTable) Selectors() []string {
	return slices.Sorted(maps.Keys(t))
}

var (
	reWhitespace  = regexp.MustCompile(`\s+`)
	reCombinator  = regexp.MustCompile(`\s*([>+~])\s*`)
	reImportant   = regexp.MustCompile(`(?i)!\s*important`)
	valueStripper = strings.NewReplacer(`'`, "", `"`, "", ";", "")
)

// NormalizeSelector collapses whitespace runs and pads ">", "+" and "~"
// combinators with single spaces, so "div>p" and "div  >  p" compare equal.
func NormalizeSelector(s string) string {
	s = reCombinator.ReplaceAllString(s, " $1 ")
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

// NormalizeValue prepares a property value for comparison: lowercase,
// single spaces, no quotes, no semicolons and no !important marker.
func NormalizeValue(s string) string {
	s = strings.ToLower(s)
	s = reImportant.ReplaceAllString(s, "")
	s = valueStripper.Replace(s)
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

// ValuesEqual compares two property values after normalization.
func ValuesEqual(a, b string) bool {
	return NormalizeValue(a) == NormalizeValue(b)
}
