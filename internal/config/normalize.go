package config

import (
	"fmt"
	"strings"
)

// Warning is a non-fatal finding from the normalization pass. In strict
// builds the caller escalates accumulated warnings to an error.
type Warning struct {
	Field   string
	Message string
}

func (w Warning) String() string {
	if w.Field == "" {
		return w.Message
	}
	return w.Field + ": " + w.Message
}

// Normalize canonicalizes a decoded config in place and reports what it
// changed. It runs before defaulting so that defaults apply to canonical
// values. Normalization never fails; structural problems are left for
// Validate.
func Normalize(cfg *Config) []Warning {
	var warnings []Warning

	cfg.Theme.Name = ThemeName(strings.ToLower(strings.TrimSpace(string(cfg.Theme.Name))))
	warnings = append(warnings, normalizePalette(&cfg.Theme.Palette)...)

	// Extensions dedupe with a warning (first wins); duplicate plugins are
	// left in place for Validate to reject.
	cfg.MarkdownExtensions, warnings = normalizeEntries(
		cfg.MarkdownExtensions, "markdown_extensions", extensionAliases, extensionOptionKeys, true, warnings)

	if cfg.Plugins != nil {
		cfg.Plugins, warnings = normalizeEntries(
			cfg.Plugins, "plugins", nil, pluginOptionKeys, false, warnings)
	}

	warnings = append(warnings, normalizeNav(cfg.Nav)...)
	warnings = append(warnings, clampBuild(&cfg.Build)...)

	cfg.DocsDir = strings.TrimSuffix(cfg.DocsDir, "/")
	cfg.SiteDir = strings.TrimSuffix(cfg.SiteDir, "/")

	return warnings
}

// normalizePalette lower-cases color names and replaces unknown names with
// the theme default.
func normalizePalette(p *PaletteConfig) []Warning {
	var warnings []Warning
	for _, field := range []struct {
		name  string
		value *string
	}{
		{"theme.palette.primary", &p.Primary},
		{"theme.palette.accent", &p.Accent},
	} {
		*field.value = strings.ToLower(strings.TrimSpace(*field.value))
		if *field.value != "" && !IsPaletteColor(*field.value) {
			warnings = append(warnings, Warning{
				Field:   field.name,
				Message: fmt.Sprintf("unknown color %q, using %q", *field.value, DefaultPaletteColor),
			})
			*field.value = DefaultPaletteColor
		}
	}
	return warnings
}

// normalizeEntries lower-cases names, expands aliases, optionally drops
// duplicates (first wins), and warns about unrecognized option keys.
func normalizeEntries(entries []Entry, field string, aliases map[string][]string, optionKeys map[string][]string, dedupe bool, warnings []Warning) ([]Entry, []Warning) {
	out := make([]Entry, 0, len(entries))
	seen := map[string]struct{}{}

	add := func(e Entry) {
		if _, dup := seen[e.Name]; dup && dedupe {
			warnings = append(warnings, Warning{
				Field:   field,
				Message: fmt.Sprintf("duplicate entry %q ignored (first occurrence wins)", e.Name),
			})
			return
		}
		seen[e.Name] = struct{}{}
		out = append(out, e)
	}

	for _, e := range entries {
		e.Name = strings.ToLower(strings.TrimSpace(e.Name))
		if expansion, ok := aliases[e.Name]; ok {
			for _, name := range expansion {
				add(Entry{Name: name, Options: e.Options})
			}
			continue
		}
		if known := optionKeys[e.Name]; len(e.Options) > 0 {
			for key := range e.Options {
				if !containsString(known, key) {
					warnings = append(warnings, Warning{
						Field:   field + "." + e.Name,
						Message: fmt.Sprintf("unknown option key %q", key),
					})
				}
			}
		}
		add(e)
	}
	return out, warnings
}

// normalizeNav warns on duplicate page paths. Duplicate titles are allowed;
// the same file listed twice is almost always a copy-paste mistake.
func normalizeNav(nav Nav) []Warning {
	var warnings []Warning
	seen := map[string]struct{}{}
	for _, path := range nav.Paths() {
		if _, dup := seen[path]; dup {
			warnings = append(warnings, Warning{
				Field:   "nav",
				Message: fmt.Sprintf("page %q appears more than once", path),
			})
			continue
		}
		seen[path] = struct{}{}
	}
	return warnings
}

// clampBuild bounds numeric build settings.
func clampBuild(b *BuildConfig) []Warning {
	var warnings []Warning
	if b.Concurrency < 0 {
		warnings = append(warnings, Warning{
			Field:   "build.concurrency",
			Message: fmt.Sprintf("negative value %d clamped to 1", b.Concurrency),
		})
		b.Concurrency = 1
	}
	return warnings
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
