// Package debug renders indented text dumps for troubleshooting reports.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

const indent = "  "

// TreeWriter accumulates indented lines.
type TreeWriter struct {
	w strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{}
}

func (tw *TreeWriter) String() string {
	return tw.w.String()
}

// Line writes formatted line at depth.
func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.w.WriteString(strings.Repeat(indent, depth))
	fmt.Fprintf(&tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// Text writes label and quoted value, so whitespace and control characters
// are visible.
func (tw *TreeWriter) Text(depth int, label, value string) {
	tw.Line(depth, "%s: %s", label, quote(value))
}

// Lines writes label followed by every line of value one level deeper.
func (tw *TreeWriter) Lines(depth int, label, value string) {
	tw.Line(depth, "%s:", label)
	if len(value) == 0 {
		return
	}
	for l := range strings.Lines(value) {
		tw.Line(depth+1, "%s", strings.TrimRight(l, "\r\n"))
	}
}

func quote(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
