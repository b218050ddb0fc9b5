package analyzer

import (
	"strings"

	"golang.org/x/net/html"
)

// Document wraps one parsed HTML page for the checks.
// It carries the source URL so findings can be attributed to the page.
type Document struct {
	// URL is the page the content was fetched from.
	URL string

	// root is the parsed DOM root node.
	root *html.Node
}

// ParseDocument parses raw HTML into a Document.
//
// Design decision: We use golang.org/x/net/html because it implements
// the WHATWG parsing algorithm: malformed markup yields a best-effort
// tree rather than an error, which is exactly the tolerance the
// analyzer contract requires.
func ParseDocument(pageURL, content string) *Document {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		// html.Parse only fails on reader errors, which cannot happen
		// with a strings.Reader. Keep a usable empty document anyway.
		root = &html.Node{Type: html.DocumentNode}
	}
	return &Document{URL: pageURL, root: root}
}

// Find returns all elements matching any of the given tag names, in
// document order.
func (d *Document) Find(tags ...string) []*html.Node {
	match := make(map[string]bool, len(tags))
	for _, t := range tags {
		match[t] = true
	}

	var nodes []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match[n.Data] {
			nodes = append(nodes, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return nodes
}

// First returns the first element with the given tag name in document
// order, or nil if the document has none.
func (d *Document) First(tag string) *html.Node {
	nodes := d.Find(tag)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// attr returns the value of an attribute and whether it is present.
// Presence matters: an absent alt and an empty alt mean different
// things to assistive technology.
func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// attrVal returns the value of an attribute, empty if absent.
func attrVal(n *html.Node, key string) string {
	v, _ := attr(n, key)
	return v
}

// innerText collects the concatenated text content of a node.
func innerText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// outerHTML renders a node back to markup for inclusion in findings.
// Render errors are ignored; an empty snippet is acceptable in a
// finding while a failed check is not.
func outerHTML(n *html.Node) string {
	var sb strings.Builder
	_ = html.Render(&sb, n)
	return sb.String()
}
