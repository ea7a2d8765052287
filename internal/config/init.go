package config

import (
	"fmt"
	"os"
	"path/filepath"

	serrors "github.com/mkpages/mkpages/internal/errors"
)

// scaffoldConfig is the commented starter configuration written by Init.
// It is shaped like documentation for an API client library, with an API
// Reference section ready for the apiref plugin.
const scaffoldConfig = `# mkpages configuration
site_name: My Project
# site_url: https://example.com/my-project/
# repo_name: example/my-project
# repo_url: https://github.com/example/my-project

nav:
  - Home: index.md
  - Quickstart: quickstart.md
  - API Reference:
      - api/overview.md

theme:
  name: slate
  palette:
    primary: indigo
    accent: blue

markdown_extensions:
  - admonition
  - toc:
      permalink: true
  - highlight:
      anchor_linenums: true
  - superfences

plugins:
  - search
`

var scaffoldDocs = map[string]string{
	"index.md": `# My Project

Welcome to the documentation. Edit files under ` + "`docs/`" + ` and run
` + "`mkpages serve`" + ` to preview changes live.
`,
	"quickstart.md": `# Quickstart

## Install

` + "```bash" + `
pip install my-project
` + "```" + `

## First request

!!! note "Authentication"
    Every call needs an API token. Keep it out of version control.

` + "```python" + `
from my_project import Client

client = Client(url, token)
records = client.export_records()
` + "```" + `
`,
	"api/overview.md": `# API Reference

Generated reference pages live in this section. Point the ` + "`apiref`" + `
plugin at an OpenAPI document to populate it:

` + "```yaml" + `
plugins:
  - search
  - apiref:
      spec: openapi.yml
` + "```" + `
`,
}

// Init writes a scaffold configuration and, unless bare is set, a starter
// docs tree. Existing files are only overwritten with force.
func Init(path string, force, bare bool) error {
	if path == "" {
		path = DefaultConfigFiles[0]
	}
	if _, err := os.Stat(path); err == nil && !force {
		return serrors.New(serrors.CategoryConfig, serrors.SeverityFatal, "configuration file already exists (use --force to overwrite)").
			WithContext("path", path)
	}
	if err := os.WriteFile(path, []byte(scaffoldConfig), 0o644); err != nil {
		return serrors.Wrap(err, serrors.CategoryFileSystem, serrors.SeverityFatal, "cannot write configuration file").
			WithContext("path", path)
	}
	if bare {
		return nil
	}

	docsDir := filepath.Join(filepath.Dir(path), DefaultDocsDir)
	for rel, content := range scaffoldDocs {
		target := filepath.Join(docsDir, filepath.FromSlash(rel))
		if _, err := os.Stat(target); err == nil && !force {
			continue // keep existing docs
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return serrors.Wrap(err, serrors.CategoryFileSystem, serrors.SeverityFatal, "cannot create docs directory").
				WithContext("path", filepath.Dir(target))
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			return serrors.Wrap(err, serrors.CategoryFileSystem, serrors.SeverityFatal, fmt.Sprintf("cannot write %s", rel)).
				WithContext("path", target)
		}
	}
	return nil
}
