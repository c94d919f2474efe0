// Package markup repairs learner HTML so it can be handed to a tree parser.
//
// Learners routinely submit fragments without any wrapper structure, or
// documents with misspelled structural tags. Repair never fails: the worst
// case is that the whole input ends up as body content.
package markup

import (
	"regexp"
	"strings"
)

// Result holds repaired markup together with the untouched (trimmed) input.
// Original is kept because tree parsers drop the DOCTYPE node, so the
// declaration can only be checked on the source text.
type Result struct {
	Repaired string
	Original string
}

type tagTypo struct {
	re  *regexp.Regexp
	tag string
}

// Single character typos in structural tags, both open and close forms.
// Order matters: "htlm" must be handled before "htl".
var tagTypos = []tagTypo{
	{regexp.MustCompile(`(?i)<(/?)nead\b`), "head"},
	{regexp.MustCompile(`(?i)<(/?)hed\b`), "head"},
	{regexp.MustCompile(`(?i)<(/?)bod\b`), "body"},
	{regexp.MustCompile(`(?i)<(/?)htlm\b`), "html"},
	{regexp.MustCompile(`(?i)<(/?)htl\b`), "html"},
}

var (
	reDoctypeHTML = regexp.MustCompile(`(?i)<!DOCTYPE\s+html`)
	reHTMLOpen    = regexp.MustCompile(`(?i)<html\b[^>]*>`)
	reHTMLClose   = regexp.MustCompile(`(?i)</html\s*>`)
	reHeadOpen    = regexp.MustCompile(`(?i)<head\b[^>]*>`)
	reHeadFull    = regexp.MustCompile(`(?is)<head\b[^>]*>(.*?)</head\s*>`)
	reHeadClose   = regexp.MustCompile(`(?i)</(?:head|nead|hed)\s*>`)
	reBodyOpen    = regexp.MustCompile(`(?i)<body\b`)
	reBodyFull    = regexp.MustCompile(`(?is)<body\b[^>]*>(.*?)</body\s*>`)
)

// FixTypos applies the structural tag typo table.
func FixTypos(s string) string {
	for _, t := range tagTypos {
		s = t.re.ReplaceAllString(s, "<${1}"+t.tag)
	}
	return s
}

// span is a half open byte range into the typo-fixed text.
type span struct {
	start, end int
}

func (s span) of(text string) string {
	return text[s.start:s.end]
}

// Normalize repairs raw learner HTML. It is a pure function of its input.
func Normalize(raw string) Result {
	original := strings.TrimSpace(raw)
	fixed := FixTypos(original)

	hasHTML := reHTMLOpen.MatchString(fixed)
	hasHead := reHeadOpen.MatchString(fixed)
	hasBody := reBodyOpen.MatchString(fixed)

	head := extractHead(fixed, hasHead)
	body := extractBody(fixed, hasHTML)

	var repaired string
	switch {
	case !hasHTML:
		var sb strings.Builder
		sb.Grow(len(fixed) + 80)
		sb.WriteString("<!DOCTYPE html><html><head>")
		sb.WriteString(head)
		sb.WriteString("</head><body>")
		sb.WriteString(body.of(fixed))
		sb.WriteString("</body></html>")
		repaired = sb.String()
	case !hasBody:
		// body content is wrapped in place so it is not duplicated
		repaired = fixed[:body.start] + "<body>" + body.of(fixed) + "</body>" + fixed[body.end:]
		if !reHTMLClose.MatchString(repaired) {
			repaired += "</html>"
		}
		if !hasHead {
			repaired = injectHead(repaired)
		}
	case !hasHead:
		repaired = injectHead(fixed)
	default:
		repaired = fixed
	}

	return Result{Repaired: repaired, Original: original}
}

// HasDoctype reports whether text carries an HTML5 DOCTYPE declaration.
func HasDoctype(text string) bool {
	return reDoctypeHTML.MatchString(text)
}

// extractHead returns head content: a well formed <head>...</head> wins,
// otherwise everything after the opening tag up to the nearest head closing
// variant or, failing that, up to <body.
func extractHead(text string, hasHead bool) string {
	if !hasHead {
		return ""
	}
	if m := reHeadFull.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	loc := reHeadOpen.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	rest := text[loc[1]:]
	if c := reHeadClose.FindStringIndex(rest); c != nil {
		return rest[:c[0]]
	}
	if b := reBodyOpen.FindStringIndex(rest); b != nil {
		return rest[:b[0]]
	}
	return ""
}

// extractBody locates body content in text. It prefers a well formed
// <body>...</body>, then whatever follows the head up to </html>, then the
// inside of <html>, and finally the entire text.
func extractBody(text string, hasHTML bool) span {
	if m := reBodyFull.FindStringSubmatchIndex(text); m != nil {
		return span{m[2], m[3]}
	}
	if c := reHeadClose.FindStringIndex(text); c != nil {
		end := len(text)
		if h := reHTMLClose.FindStringIndex(text[c[1]:]); h != nil {
			end = c[1] + h[0]
		}
		return span{c[1], end}
	}
	if hasHTML {
		open := reHTMLOpen.FindStringIndex(text)
		end := len(text)
		if h := reHTMLClose.FindStringIndex(text[open[1]:]); h != nil {
			end = open[1] + h[0]
		}
		return span{open[1], end}
	}
	return span{0, len(text)}
}

// injectHead inserts an empty head right before the body tag.
func injectHead(text string) string {
	loc := reBodyOpen.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[:loc[0]] + "<head></head>" + text[loc[0]:]
}
