// Package config defines the mkpages.yml schema and its load, normalize,
// default, and validate passes. The loaded Config is the single source of
// truth for every other package; nothing here touches the filesystem after
// Load returns.
package config

// ThemeName identifies a registered theme.
type ThemeName string

const (
	ThemeSlate ThemeName = "slate"
	ThemePlain ThemeName = "plain"
)

// KnownThemes lists the themes shipped with mkpages.
var KnownThemes = []ThemeName{ThemeSlate, ThemePlain}

// Config is the root of the mkpages.yml schema.
type Config struct {
	SiteName        string `yaml:"site_name"`
	SiteURL         string `yaml:"site_url,omitempty"`
	SiteDescription string `yaml:"site_description,omitempty"`
	SiteAuthor      string `yaml:"site_author,omitempty"`
	Copyright       string `yaml:"copyright,omitempty"`
	RepoName        string `yaml:"repo_name,omitempty"`
	RepoURL         string `yaml:"repo_url,omitempty"`
	EditURI         string `yaml:"edit_uri,omitempty"`

	DocsDir          string `yaml:"docs_dir,omitempty"`
	SiteDir          string `yaml:"site_dir,omitempty"`
	UseDirectoryURLs *bool  `yaml:"use_directory_urls,omitempty"`
	Strict           bool   `yaml:"strict,omitempty"`

	Nav                Nav         `yaml:"nav,omitempty"`
	Theme              ThemeConfig `yaml:"theme,omitempty"`
	MarkdownExtensions []Entry     `yaml:"markdown_extensions,omitempty"`

	// Plugins distinguishes "absent" (nil, meaning the default plugin set)
	// from an explicit empty list (all plugins disabled).
	Plugins []Entry `yaml:"plugins,omitempty"`

	Extra map[string]any `yaml:"extra,omitempty"`

	Build      BuildConfig      `yaml:"build,omitempty"`
	Serve      ServeConfig      `yaml:"serve,omitempty"`
	Validation ValidationConfig `yaml:"validation,omitempty"`
	Deploy     DeployConfig     `yaml:"deploy,omitempty"`

	// path the config was loaded from; not part of the schema.
	sourcePath string
}

// SourcePath returns the file the config was loaded from ("" for in-memory configs).
func (c *Config) SourcePath() string { return c.sourcePath }

// ThemeConfig is the visual presentation configuration.
type ThemeConfig struct {
	Name     ThemeName     `yaml:"name,omitempty"`
	Logo     string        `yaml:"logo,omitempty"`
	Favicon  string        `yaml:"favicon,omitempty"`
	Palette  PaletteConfig `yaml:"palette,omitempty"`
	Features []string      `yaml:"features,omitempty"`
}

// PaletteConfig selects named colors from the fixed palette table.
type PaletteConfig struct {
	Primary string `yaml:"primary,omitempty"`
	Accent  string `yaml:"accent,omitempty"`
}

// BuildConfig controls the build pipeline.
type BuildConfig struct {
	Concurrency int    `yaml:"concurrency,omitempty"`
	Clean       *bool  `yaml:"clean,omitempty"`
	MinifyJSON  bool   `yaml:"minify_json,omitempty"`
	Incremental bool   `yaml:"incremental,omitempty"`
	CacheDir    string `yaml:"cache_dir,omitempty"`
}

// CleanEnabled reports whether the site dir is removed before building (default true).
func (b *BuildConfig) CleanEnabled() bool {
	return b.Clean == nil || *b.Clean
}

// ServeConfig controls the dev server and watch daemon.
type ServeConfig struct {
	Listen          string   `yaml:"listen,omitempty"`
	AdminListen     string   `yaml:"admin_listen,omitempty"`
	LiveReload      *bool    `yaml:"live_reload,omitempty"`
	RebuildDebounce string   `yaml:"rebuild_debounce,omitempty"`
	RebuildSchedule string   `yaml:"rebuild_schedule,omitempty"`
	Watch           []string `yaml:"watch,omitempty"`
}

// LiveReloadEnabled reports whether the SSE livereload hub is active (default true).
func (s *ServeConfig) LiveReloadEnabled() bool {
	return s.LiveReload == nil || *s.LiveReload
}

// ValidationConfig controls link checking and build history.
type ValidationConfig struct {
	Enabled          bool   `yaml:"enabled,omitempty"`
	External         bool   `yaml:"external,omitempty"`
	Timeout          string `yaml:"timeout,omitempty"`
	MaxConcurrent    int    `yaml:"max_concurrent,omitempty"`
	NATSURL          string `yaml:"nats_url,omitempty"`
	Subject          string `yaml:"subject,omitempty"`
	KVBucket         string `yaml:"kv_bucket,omitempty"`
	CacheTTL         string `yaml:"cache_ttl,omitempty"`
	CacheTTLFailures string `yaml:"cache_ttl_failures,omitempty"`
	HistoryDB        string `yaml:"history_db,omitempty"`
}

// DeployConfig controls publishing the built site to a pages branch.
type DeployConfig struct {
	Branch  string `yaml:"branch,omitempty"`
	Remote  string `yaml:"remote,omitempty"`
	Message string `yaml:"message,omitempty"`
	CName   string `yaml:"cname,omitempty"`
}

// ActivePlugins returns the effective plugin entries: the configured list, or
// the default set when the plugins key was absent.
func (c *Config) ActivePlugins() []Entry {
	if c.Plugins == nil {
		return []Entry{{Name: PluginSearch}}
	}
	return c.Plugins
}
