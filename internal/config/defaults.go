package config

import "strings"

// Defaults applied after normalization. Kept in one place so the
// effective-config snapshot is reproducible.
const (
	DefaultDocsDir         = "docs"
	DefaultSiteDir         = "site"
	DefaultConcurrency     = 4
	DefaultListen          = "127.0.0.1:8000"
	DefaultRebuildDebounce = "300ms"
	DefaultCheckTimeout    = "10s"
	DefaultMaxConcurrent   = 8
	DefaultCacheTTL        = "24h"
	DefaultCacheTTLFailure = "1h"
	DefaultDeployBranch    = "gh-pages"
	DefaultDeployRemote    = "origin"
	DefaultDeployMessage   = "Deploy site from {sha}"
)

// applyDefaults fills zero values with defaults. Runs after Normalize so
// canonical values are what get defaulted.
func applyDefaults(cfg *Config) {
	if cfg.DocsDir == "" {
		cfg.DocsDir = DefaultDocsDir
	}
	if cfg.SiteDir == "" {
		cfg.SiteDir = DefaultSiteDir
	}
	if cfg.Theme.Name == "" {
		cfg.Theme.Name = ThemeSlate
	}
	if cfg.Theme.Palette.Primary == "" {
		cfg.Theme.Palette.Primary = DefaultPaletteColor
	}
	if cfg.Theme.Palette.Accent == "" {
		cfg.Theme.Palette.Accent = DefaultPaletteColor
	}
	if cfg.EditURI == "" {
		cfg.EditURI = deriveEditURI(cfg.RepoURL)
	}

	if cfg.Build.Concurrency == 0 {
		cfg.Build.Concurrency = DefaultConcurrency
	}
	if cfg.Serve.Listen == "" {
		cfg.Serve.Listen = DefaultListen
	}
	if cfg.Serve.RebuildDebounce == "" {
		cfg.Serve.RebuildDebounce = DefaultRebuildDebounce
	}
	if cfg.Validation.Timeout == "" {
		cfg.Validation.Timeout = DefaultCheckTimeout
	}
	if cfg.Validation.MaxConcurrent == 0 {
		cfg.Validation.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.Validation.CacheTTL == "" {
		cfg.Validation.CacheTTL = DefaultCacheTTL
	}
	if cfg.Validation.CacheTTLFailures == "" {
		cfg.Validation.CacheTTLFailures = DefaultCacheTTLFailure
	}
	if cfg.Deploy.Branch == "" {
		cfg.Deploy.Branch = DefaultDeployBranch
	}
	if cfg.Deploy.Remote == "" {
		cfg.Deploy.Remote = DefaultDeployRemote
	}
	if cfg.Deploy.Message == "" {
		cfg.Deploy.Message = DefaultDeployMessage
	}
}

// deriveEditURI guesses the "edit this page" URI prefix for known forge URL
// shapes. Unknown hosts get no edit links.
func deriveEditURI(repoURL string) string {
	if repoURL == "" {
		return ""
	}
	for _, host := range []string{"github.com", "gitlab.com"} {
		if strings.Contains(repoURL, host) {
			return "edit/main/docs/"
		}
	}
	return ""
}
