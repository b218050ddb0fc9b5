package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// extractLinks parses HTML content and returns the normalized, in-scope,
// deduplicated hyperlinks it contains, in document order.
//
// Design decision: We use golang.org/x/net/html rather than regex because:
//  1. It tolerates the malformed HTML common on the web
//  2. Relative URLs resolve correctly against the base
//  3. It is the same parser the analyzer uses, so both see one DOM
func extractLinks(content io.Reader, root *url.URL, includeSubdomains bool) []string {
	doc, err := html.Parse(content)
	if err != nil {
		// html.Parse only fails on reader errors; treat as no links.
		return nil
	}

	seen := make(map[string]bool)
	links := make([]string, 0)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if link, ok := resolveLink(getAttr(n, "href"), root, includeSubdomains); ok && !seen[link] {
				seen[link] = true
				links = append(links, link)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links
}

// resolveLink resolves one href against the crawl root and applies the
// scope rules. Malformed and out-of-scope URLs are silently skipped.
func resolveLink(href string, root *url.URL, includeSubdomains bool) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return "", false
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	resolved := root.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if !inScope(resolved, root, includeSubdomains) {
		return "", false
	}
	if hasExcludedExtension(resolved.Path) {
		return "", false
	}

	return normalizeLink(resolved), true
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
