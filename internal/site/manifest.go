package site

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestDir is the metadata directory mkpages maintains inside the site
// output. Its presence marks a directory as build output that clean may
// safely remove.
const ManifestDir = ".mkpages"

// manifestFile is the manifest path relative to the site directory.
const manifestFile = ".mkpages/manifest.json"

// PluginVersion records one active plugin and its version.
type PluginVersion struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Manifest records what a build produced and from which inputs. It doubles
// as the fingerprint cache consulted by incremental builds.
type Manifest struct {
	ID         string           `json:"id"`
	Generator  string           `json:"generator"`
	Timestamp  time.Time        `json:"timestamp"`
	ConfigHash string           `json:"config_hash"`
	SiteHash   string           `json:"site_hash"`
	Theme      string           `json:"theme"`
	PageCount  int              `json:"page_count"`
	Plugins    []PluginVersion  `json:"plugins,omitempty"`
	Stages     map[string]int64 `json:"stage_durations_ms,omitempty"`
	// Fingerprints maps source-relative markdown paths to content
	// fingerprints of the page as collected.
	Fingerprints map[string]string `json:"fingerprints,omitempty"`
	DurationMS   int64             `json:"duration_ms"`
}

// ToJSON serializes the manifest with stable indentation.
func (m *Manifest) ToJSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// LoadManifest reads the manifest left by a previous build in siteDir.
func LoadManifest(siteDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(siteDir, filepath.FromSlash(manifestFile)))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// writeManifest persists the manifest atomically into siteDir.
func writeManifest(siteDir string, m *Manifest) error {
	data, err := m.ToJSON()
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return writeFileAtomic(filepath.Join(siteDir, filepath.FromSlash(manifestFile)), data)
}
