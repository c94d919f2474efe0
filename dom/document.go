// Package dom answers bounded structural questions about a parsed HTML
// document: does an element matching a selector exist, how many are there,
// what attributes and text do they carry.
//
// Parsing is done by golang.org/x/net/html, which builds a tree for any
// input, and selectors are matched with cascadia. Only a small selector
// subset is relied upon: tag names, .class, #id and comma separated groups.
package dom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed, queryable HTML tree. It is immutable after Parse and
// may be queried from several goroutines.
type Document struct {
	root *html.Node
	body *html.Node
}

// Parse builds a Document from (repaired) HTML text.
func Parse(text string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("unable to parse html: %w", err)
	}
	return &Document{root: root, body: findElement(atom.Body, root)}, nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// structural elements are never looked up again inside body
var structural = map[string]bool{"html": true, "head": true, "body": true}

// Find returns nodes matching any of the selectors. When the whole document
// yields nothing the search is retried inside <body> and finally by comparing
// tag names of every element, so artifacts of markup repair do not turn into
// false negatives.
func (d *Document) Find(selectors ...string) ([]*html.Node, error) {
	group, err := compile(selectors)
	if err != nil {
		return nil, err
	}

	if nodes := cascadia.QueryAll(d.root, group); len(nodes) > 0 {
		return nodes, nil
	}

	if d.body != nil && !anyStructural(selectors) {
		if nodes := cascadia.QueryAll(d.body, group); len(nodes) > 0 {
			return nodes, nil
		}
	}

	return d.scanTags(selectors), nil
}

// Exists reports whether at least one node matches any of the selectors.
func (d *Document) Exists(selectors ...string) (bool, error) {
	nodes, err := d.Find(selectors...)
	if err != nil {
		return false, err
	}
	return len(nodes) > 0, nil
}

// Count returns number of distinct nodes matching any of the selectors.
func (d *Document) Count(selectors ...string) (int, error) {
	nodes, err := d.Find(selectors...)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// FindWithin reports whether a child match exists somewhere below any parent
// match.
func (d *Document) FindWithin(parent, child string) (bool, error) {
	parents, err := d.Find(parent)
	if err != nil {
		return false, err
	}
	group, err := compile([]string{child})
	if err != nil {
		return false, err
	}
	for _, p := range parents {
		if cascadia.Query(p, group) != nil {
			return true, nil
		}
	}
	return false, nil
}

// Attribute looks at the first element matching selector. found is false
// when nothing matches; present tells whether the element carries the named
// attribute, empty values included.
func (d *Document) Attribute(selector, name string) (found, present bool, err error) {
	nodes, err := d.Find(selector)
	if err != nil || len(nodes) == 0 {
		return false, false, err
	}
	_, present = attr(nodes[0], name)
	return true, present, nil
}

// Text returns concatenated text content of all matches, trimmed. found is
// false when nothing matches.
func (d *Document) Text(selector string) (text string, found bool, err error) {
	nodes, err := d.Find(selector)
	if err != nil || len(nodes) == 0 {
		return "", false, err
	}
	var sb strings.Builder
	for _, n := range nodes {
		collectText(n, &sb)
	}
	return strings.TrimSpace(sb.String()), true, nil
}

func compile(selectors []string) (cascadia.SelectorGroup, error) {
	parts := make([]string, 0, len(selectors))
	for _, s := range selectors {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return nil, errors.New("empty selector")
	}
	group, err := cascadia.ParseGroup(strings.Join(parts, ", "))
	if err != nil {
		return nil, fmt.Errorf("bad selector %q: %w", strings.Join(parts, ", "), err)
	}
	return group, nil
}

func anyStructural(selectors []string) bool {
	for _, s := range selectors {
		if structural[strings.ToLower(strings.TrimSpace(s))] {
			return true
		}
	}
	return false
}

// scanTags walks every element comparing tag names case-insensitively.
func (d *Document) scanTags(selectors []string) []*html.Node {
	var nodes []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, s := range selectors {
				if strings.EqualFold(n.Data, strings.TrimSpace(s)) {
					nodes = append(nodes, n)
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return nodes
}

func findElement(a atom.Atom, n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(a, c); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
