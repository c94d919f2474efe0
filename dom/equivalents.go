package dom

import "strings"

// Presentational and semantic tags graded as interchangeable.
var equivalents = map[string][]string{
	"b":      {"strong"},
	"strong": {"b"},
	"i":      {"em"},
	"em":     {"i"},
}

// Equivalents returns selector followed by every tag considered equivalent
// to it. Selectors which are not plain tag names come back unchanged.
func Equivalents(selector string) []string {
	out := []string{selector}
	return append(out, equivalents[strings.ToLower(strings.TrimSpace(selector))]...)
}
