// Package crawler discovers in-scope pages of a website and fetches
// their content for analysis.
//
// Discovery is a breadth-first traversal of extracted hyperlinks,
// bounded by a depth limit, a hard URL ceiling, and a per-page link
// budget. Scope is same-host by default, optionally widened to
// subdomains of the crawl root. The crawl frontier (queue plus
// visited-set) is local to one Crawl invocation so that concurrent
// crawls never share state.
package crawler
