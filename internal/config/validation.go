package config

import (
	"fmt"
	"strings"
	"time"

	serrors "github.com/mkpages/mkpages/internal/errors"
)

// Validate checks a normalized, defaulted config for structural problems.
// The first problem found is returned; its context names the failing key.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.SiteName) == "" {
		return serrors.ConfigRequired("site_name")
	}

	if !isKnownTheme(cfg.Theme.Name) {
		return serrors.ValidationFailed("theme.name",
			fmt.Sprintf("unknown theme %q (registered: %s)", cfg.Theme.Name, themeNames()))
	}

	for _, e := range cfg.MarkdownExtensions {
		if _, ok := knownExtensions[e.Name]; !ok {
			return serrors.ValidationFailed("markdown_extensions",
				fmt.Sprintf("unknown extension %q", e.Name))
		}
	}

	seenPlugins := map[string]struct{}{}
	for _, e := range cfg.Plugins {
		if _, ok := knownPlugins[e.Name]; !ok {
			return serrors.ValidationFailed("plugins",
				fmt.Sprintf("unknown plugin %q", e.Name))
		}
		if _, dup := seenPlugins[e.Name]; dup {
			return serrors.ValidationFailed("plugins",
				fmt.Sprintf("plugin %q listed more than once", e.Name))
		}
		seenPlugins[e.Name] = struct{}{}
	}

	if err := validateNav(cfg.Nav); err != nil {
		return err
	}

	for _, field := range []struct {
		key   string
		value string
	}{
		{"serve.rebuild_debounce", cfg.Serve.RebuildDebounce},
		{"validation.timeout", cfg.Validation.Timeout},
		{"validation.cache_ttl", cfg.Validation.CacheTTL},
		{"validation.cache_ttl_failures", cfg.Validation.CacheTTLFailures},
	} {
		if _, err := time.ParseDuration(field.value); err != nil {
			return serrors.ValidationFailed(field.key,
				fmt.Sprintf("invalid duration %q", field.value))
		}
	}

	if cfg.DocsDir == cfg.SiteDir {
		return serrors.ValidationFailed("site_dir", "docs_dir and site_dir must differ")
	}

	return nil
}

// validateNav rejects page entries whose path escapes the docs dir or does
// not look like a markdown source.
func validateNav(nav Nav) error {
	var failure error
	nav.Walk(func(item NavItem, _ int) bool {
		if item.IsSection() {
			return true
		}
		path := item.Path
		if strings.HasPrefix(path, "/") || strings.HasPrefix(path, "..") || strings.Contains(path, "/../") {
			failure = serrors.ValidationFailed("nav",
				fmt.Sprintf("page path %q must be relative to docs_dir", path))
			return false
		}
		if !isMarkdownPath(path) {
			failure = serrors.ValidationFailed("nav",
				fmt.Sprintf("page path %q is not a markdown file", path))
			return false
		}
		return true
	})
	return failure
}

func isMarkdownPath(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range []string{".md", ".markdown", ".mdown", ".mkd"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func isKnownTheme(name ThemeName) bool {
	for _, t := range KnownThemes {
		if t == name {
			return true
		}
	}
	return false
}

func themeNames() string {
	names := make([]string, 0, len(KnownThemes))
	for _, t := range KnownThemes {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}
