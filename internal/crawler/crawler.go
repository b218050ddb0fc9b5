package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/rgaatools/rgaascan/internal/config"
)

// excludedExtensions lists path extensions that are never worth
// analyzing for accessibility: binary assets and non-document formats.
var excludedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".css":  true,
	".js":   true,
	".xml":  true,
}

// FetchError reports a failed page fetch with its HTTP status, when one
// was received. Callers distinguish fetch failures from parse failures
// with errors.As.
type FetchError struct {
	// URL is the page that failed to fetch.
	URL string

	// StatusCode is the HTTP status, zero if the request never completed.
	StatusCode int

	// Err is the underlying transport error, nil for status failures.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// Unwrap returns the underlying transport error.
func (e *FetchError) Unwrap() error { return e.Err }

// Crawler discovers pages of a website by breadth-first traversal.
//
// A Crawler is safe for concurrent use: all per-crawl state (frontier,
// visited-set, discovery count) lives inside the Crawl call.
type Crawler struct {
	// client is the HTTP client used for all requests.
	client *http.Client

	// maxURLs is the hard ceiling on discovered URLs per crawl.
	maxURLs int

	// maxLinksPerPage limits links enqueued from a single page.
	maxLinksPerPage int

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// userAgent is the User-Agent header to use.
	userAgent string

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithMaxURLs sets the hard ceiling on URLs discovered per crawl.
func WithMaxURLs(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.maxURLs = n
		}
	}
}

// WithMaxLinksPerPage sets how many new links are enqueued per page.
func WithMaxLinksPerPage(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.maxLinksPerPage = n
		}
	}
}

// WithMaxBodySize sets the maximum response body size in bytes.
func WithMaxBodySize(size int64) Option {
	return func(c *Crawler) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Crawler) {
		c.userAgent = ua
	}
}

// WithLogger sets a custom logger for the crawler.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New creates a Crawler with the given HTTP client.
//
// Design decision: We require an external client because:
//  1. Timeout configuration belongs to the caller
//  2. Tests can inject httptest clients
//  3. One client is shared across crawls for connection reuse
func New(client *http.Client, opts ...Option) *Crawler {
	c := &Crawler{
		client:          client,
		maxURLs:         config.DefaultMaxURLsPerCrawl,
		maxLinksPerPage: config.DefaultMaxLinksPerPage,
		maxBodySize:     config.DefaultMaxBodySize,
		userAgent:       config.DefaultUserAgent,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// queueItem represents an item in the crawl frontier.
type queueItem struct {
	url   string
	depth int
}

// Crawl discovers in-scope pages starting at rootURL, breadth-first,
// and returns them in discovery order.
//
// A URL is accepted when its depth is within maxDepth, it has not been
// visited, and a HEAD request succeeds. Accepted pages within the depth
// limit are fetched to extract up to the per-page link budget of new
// same-scope links. Individual page failures are logged and skipped;
// only an unreachable root yields an empty result.
func (c *Crawler) Crawl(ctx context.Context, rootURL string, maxDepth int, includeSubdomains bool) ([]string, error) {
	root, err := url.Parse(rootURL)
	if err != nil {
		return nil, fmt.Errorf("invalid root URL: %w", err)
	}
	if root.Scheme != "http" && root.Scheme != "https" {
		root.Scheme = "https"
	}

	discovered := make([]string, 0)
	visited := make(map[string]bool)
	queue := []queueItem{{url: root.String(), depth: 0}}

	for len(queue) > 0 && len(discovered) < c.maxURLs {
		select {
		case <-ctx.Done():
			return discovered, ctx.Err()
		default:
		}

		item := queue[0]
		queue = queue[1:]

		if item.depth > maxDepth || visited[item.url] {
			continue
		}
		visited[item.url] = true

		if !c.IsReachable(ctx, item.url) {
			c.logger.Debug("page not reachable, skipping", "url", item.url)
			continue
		}

		discovered = append(discovered, item.url)

		// Only expand links while below the depth limit.
		if item.depth >= maxDepth {
			continue
		}

		content, err := c.FetchContent(ctx, item.url)
		if err != nil {
			c.logger.Warn("failed to fetch page during crawl", "url", item.url, "error", err)
			continue
		}

		links := extractLinks(strings.NewReader(content), root, includeSubdomains)
		enqueued := 0
		for _, link := range links {
			if enqueued >= c.maxLinksPerPage {
				break
			}
			if visited[link] {
				continue
			}
			queue = append(queue, queueItem{url: link, depth: item.depth + 1})
			enqueued++
		}
	}

	c.logger.Info("crawl finished", "root", rootURL, "pages", len(discovered))
	return discovered, nil
}

// FetchContent fetches a page and returns its body as text.
// Non-2xx responses and transport errors yield a *FetchError.
func (c *Crawler) FetchContent(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}

	return string(body), nil
}

// IsReachable checks a URL with a HEAD request.
// It never returns an error: any failure means unreachable.
func (c *Crawler) IsReachable(ctx context.Context, pageURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, pageURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

// normalizeLink reduces a resolved URL to scheme://host/path, dropping
// query and fragment so that variants of the same document deduplicate
// to one frontier entry.
func normalizeLink(u *url.URL) string {
	normalized := url.URL{
		Scheme: strings.ToLower(u.Scheme),
		Host:   strings.ToLower(u.Host),
		Path:   u.Path,
	}
	return normalized.String()
}

// inScope reports whether a link host belongs to the crawl.
// Exact host match by default; with includeSubdomains the host may be
// any suffix-match of the root host (www prefix on the root ignored).
func inScope(u *url.URL, root *url.URL, includeSubdomains bool) bool {
	host := strings.ToLower(u.Hostname())
	rootHost := strings.ToLower(root.Hostname())

	if includeSubdomains {
		bare := strings.TrimPrefix(rootHost, "www.")
		return host == bare || strings.HasSuffix(host, "."+bare) || host == rootHost
	}
	return host == rootHost
}

// hasExcludedExtension reports whether the path points at an asset type
// the analyzer cannot process.
func hasExcludedExtension(p string) bool {
	return excludedExtensions[strings.ToLower(path.Ext(p))]
}
