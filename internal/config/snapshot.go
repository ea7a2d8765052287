package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Snapshot serializes the effective (normalized + defaulted) config to
// canonical JSON. Struct field order fixes the key order, so two configs
// with the same effective values always produce identical bytes regardless
// of how the YAML was written.
func (c *Config) Snapshot() ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("nil config")
	}
	snap := struct {
		SiteName         string         `json:"site_name"`
		SiteURL          string         `json:"site_url"`
		RepoName         string         `json:"repo_name"`
		RepoURL          string         `json:"repo_url"`
		EditURI          string         `json:"edit_uri"`
		DocsDir          string         `json:"docs_dir"`
		SiteDir          string         `json:"site_dir"`
		UseDirectoryURLs bool           `json:"use_directory_urls"`
		Strict           bool           `json:"strict"`
		Nav              Nav            `json:"nav"`
		Theme            ThemeConfig    `json:"theme"`
		Extensions       []Entry        `json:"markdown_extensions"`
		Plugins          []Entry        `json:"plugins"`
		Extra            map[string]any `json:"extra"`
	}{
		SiteName:         c.SiteName,
		SiteURL:          c.SiteURL,
		RepoName:         c.RepoName,
		RepoURL:          c.RepoURL,
		EditURI:          c.EditURI,
		DocsDir:          c.DocsDir,
		SiteDir:          c.SiteDir,
		UseDirectoryURLs: c.DirectoryURLs(),
		Strict:           c.Strict,
		Nav:              c.Nav,
		Theme:            c.Theme,
		Extensions:       c.MarkdownExtensions,
		Plugins:          c.ActivePlugins(),
		Extra:            c.Extra,
	}
	return json.Marshal(snap)
}

// Hash returns the sha256 of the snapshot, recorded in the build manifest.
// Same effective config, same hash.
func (c *Config) Hash() (string, error) {
	snap, err := c.Snapshot()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(snap)
	return hex.EncodeToString(sum[:]), nil
}

// DirectoryURLs reports whether pages are written as dir/index.html
// (default) instead of flat .html files.
func (c *Config) DirectoryURLs() bool {
	return c.UseDirectoryURLs == nil || *c.UseDirectoryURLs
}
