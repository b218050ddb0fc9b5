package model

import "time"

// Site is a registered crawl target owned by a user.
// The scan pipeline reads its crawl policy (URL, depth, subdomain flag)
// and records the last-scanned timestamp as its only mutation.
type Site struct {
	// ID is the database identifier.
	ID int64 `json:"id"`

	// URL is the crawl root URL.
	URL string `json:"url"`

	// Name is a display name for the site.
	Name string `json:"name"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// UserID is the owning user.
	UserID string `json:"user_id"`

	// MaxDepth limits crawl recursion from the root URL.
	MaxDepth int `json:"max_depth"`

	// IncludeSubdomains widens the crawl scope from exact-host matching
	// to suffix matching against the root host.
	IncludeSubdomains bool `json:"include_subdomains"`

	// IsActive gates scanning; inactive sites cannot be scanned.
	IsActive bool `json:"is_active"`

	// CreatedAt is when the site was registered.
	CreatedAt time.Time `json:"created_at"`

	// LastScanAt is when the site was last scanned, nil if never.
	LastScanAt *time.Time `json:"last_scan_at,omitempty"`
}

// DefaultMaxDepth is the crawl depth used when a site doesn't specify one.
const DefaultMaxDepth = 3

// NewSite creates an active site with the default crawl depth.
func NewSite(url, name, userID string) *Site {
	return &Site{
		URL:       url,
		Name:      name,
		UserID:    userID,
		MaxDepth:  DefaultMaxDepth,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
}
