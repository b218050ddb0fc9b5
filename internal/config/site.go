package config

// SiteConfig holds per-site overrides for a single crawl target.
// This allows customizing crawl behavior per site without touching the
// site registry in the database.
type SiteConfig struct {
	// MaxDepth overrides the site's crawl depth. Zero means no override.
	MaxDepth int `yaml:"maxDepth,omitempty"`

	// IncludeSubdomains widens the crawl scope to subdomains of the
	// root host. Pointer so that "not set" and "false" are distinct.
	IncludeSubdomains *bool `yaml:"includeSubdomains,omitempty"`

	// Name overrides the display name used when registering the site.
	Name string `yaml:"name,omitempty"`
}

// File represents the structure of the .rgaascan configuration file.
type File struct {
	// Sites maps site URLs to their overrides.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains overrides applied to all sites unless a
	// site-specific entry overrides them.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the merged configuration for a site URL:
// defaults first, then site-specific values on top.
func (cf *File) GetSiteConfig(siteURL string) SiteConfig {
	result := cf.Defaults

	if sc, ok := cf.Sites[siteURL]; ok {
		if sc.MaxDepth != 0 {
			result.MaxDepth = sc.MaxDepth
		}
		if sc.IncludeSubdomains != nil {
			result.IncludeSubdomains = sc.IncludeSubdomains
		}
		if sc.Name != "" {
			result.Name = sc.Name
		}
	}

	return result
}
