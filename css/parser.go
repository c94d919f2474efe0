// Package css builds selector to declarations tables out of learner
// stylesheets. The builder is lenient: it never fails, skips whatever it does
// not understand and keeps going.
package css

import (
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser turns CSS text into a RuleTable.
type Parser struct {
	log      *zap.Logger
	maxDepth int
}

// Option configures Parser.
type Option func(*Parser)

// WithMaxDepth limits brace nesting the scanner descends into. Blocks nested
// deeper are treated as unterminated. Zero means no limit.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		p.maxDepth = max(depth, 0)
	}
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger, opts ...Option) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Parser{log: log.Named("css-parser")}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse builds rule table from CSS text. Empty input yields empty table.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(src string, source ...string) RuleTable {
	table := make(RuleTable)
	if strings.TrimSpace(src) == "" {
		return table
	}
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(src)))
	}
	p.parseBlock(table, src, 0)
	return table
}

// parseBlock handles sequence of "prelude { body }" items at one nesting level.
func (p *Parser) parseBlock(table RuleTable, src string, level int) {
	cursor := 0
	for cursor < len(src) {
		open := findOpen(src, cursor)
		if open < 0 {
			return
		}

		limit := 0
		if p.maxDepth > 0 {
			limit = p.maxDepth - level
		}

		prelude := preludeText(src[cursor:open])
		end := matchClose(src, open, limit)
		var body string
		if end < 0 {
			p.log.Debug("Unterminated CSS block", zap.String("prelude", prelude), zap.Int("offset", open))
			body, cursor = src[open+1:], len(src)
		} else {
			body, cursor = src[open+1:end], end+1
		}

		if strings.HasPrefix(prelude, "@") {
			p.parseAtRule(table, prelude, body, level)
			continue
		}

		decls := parseDeclarations(body)
		if len(decls) == 0 {
			continue
		}
		for _, sel := range splitTopLevel(prelude, ',') {
			if sel = NormalizeSelector(sel); sel != "" {
				table.merge(sel, decls)
			}
		}
	}
}

// parseAtRule descends into grouping at-rules (@media, @supports, ...) and
// keeps declarations of leaf at-rules (@font-face, @page) under the prelude.
func (p *Parser) parseAtRule(table RuleTable, prelude, body string, level int) {
	if findOpen(body, 0) >= 0 {
		if p.maxDepth > 0 && level+1 >= p.maxDepth {
			p.log.Debug("CSS nesting too deep, block skipped", zap.String("rule", prelude))
			return
		}
		p.log.Debug("Descending into at-rule", zap.String("rule", prelude))
		p.parseBlock(table, body, level+1)
		return
	}
	table.merge(NormalizeSelector(prelude), parseDeclarations(body))
}

func parseDeclarations(body string) Declarations {
	decls := make(Declarations)
	for _, d := range splitTopLevel(stripComments(body), ';') {
		name, value, ok := strings.Cut(d, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		decls[name] = strings.TrimSpace(value)
	}
	return decls
}

// preludeText returns selector text in front of a block: comments removed,
// anything up to the last statement terminator (e.g. "@charset ...;") dropped.
func preludeText(s string) string {
	s = stripComments(s)
	if i := strings.LastIndexByte(s, '}'); i >= 0 {
		s = s[i+1:]
	}
	parts := splitTopLevel(s, ';')
	if len(parts) == 0 {
		return ""
	}
	return strings.TrimSpace(parts[len(parts)-1])
}

// stripComments removes /* ... */ comments using CSS lexer, so comment markers
// inside strings are left alone. Unterminated comment runs to the end of input.
func stripComments(s string) string {
	if !strings.Contains(s, "/*") {
		return s
	}
	l := css.NewLexer(parse.NewInputString(s))
	var sb strings.Builder
	sb.Grow(len(s))
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			break
		}
		if tt == css.CommentToken {
			continue
		}
		sb.Write(data)
	}
	return sb.String()
}

// skipLiteral returns index right after comment or quoted string starting at
// i, or -1 if there is none at i.
func skipLiteral(s string, i int) int {
	switch c := s[i]; {
	case c == '/' && i+1 < len(s) && s[i+1] == '*':
		if j := strings.Index(s[i+2:], "*/"); j >= 0 {
			return i + 2 + j + 2
		}
		return len(s)
	case c == '"' || c == '\'':
		for j := i + 1; j < len(s); j++ {
			switch s[j] {
			case '\\':
				j++
			case c, '\n':
				return j + 1
			}
		}
		return len(s)
	}
	return -1
}

func findOpen(s string, from int) int {
	for i := from; i < len(s); {
		if j := skipLiteral(s, i); j >= 0 {
			i = j
			continue
		}
		if s[i] == '{' {
			return i
		}
		i++
	}
	return -1
}

// matchClose returns index of '}' matching '{' at open, or -1 when block is
// not terminated or nests deeper than limit (0 - unlimited).
func matchClose(s string, open, limit int) int {
	depth := 0
	for i := open; i < len(s); {
		if j := skipLiteral(s, i); j >= 0 {
			i = j
			continue
		}
		switch s[i] {
		case '{':
			depth++
			if limit > 0 && depth > limit {
				return -1
			}
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return -1
}

// splitTopLevel splits s on sep occurring outside of quotes, parentheses and
// brackets. Empty (whitespace only) parts are dropped.
func splitTopLevel(s string, sep byte) []string {
	var (
		parts []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			if depth > 0 {
				depth--
			}
		case c == sep && depth == 0:
			if part := strings.TrimSpace(s[start:i]); part != "" {
				parts = append(parts, part)
			}
			start = i + 1
		}
	}
	if part := strings.TrimSpace(s[start:]); part != "" {
		parts = append(parts, part)
	}
	return parts
}
