// Package apiref generates reference pages from an OpenAPI 3 document: one
// page per tag plus a section overview, injected into the nav and rendered
// through the normal markdown pipeline.
package apiref

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/mkpages/mkpages/internal/config"
	"github.com/mkpages/mkpages/internal/logfields"
	"github.com/mkpages/mkpages/internal/markdown"
	"github.com/mkpages/mkpages/internal/pages"
	"github.com/mkpages/mkpages/internal/plugin"
)

const version = "v0.4.0"

// untagged operations group under this tag
const defaultTag = "default"

func init() {
	plugin.Register(func() plugin.Plugin { return &APIRef{} })
}

// APIRef loads and validates the configured spec at OnConfig and injects
// the generated pages at OnPagesResolved.
type APIRef struct {
	plugin.Hooks

	specPath string
	section  string
	doc      *openapi3.T
}

func (a *APIRef) Name() string    { return config.PluginAPIRef }
func (a *APIRef) Version() string { return version }

func (a *APIRef) OnConfig(cfg *config.Config, entry config.Entry) error {
	a.specPath = entry.StringOption("spec", "openapi.yml")
	a.section = entry.StringOption("section", "api")

	path := a.specPath
	if !filepath.IsAbs(path) && cfg.SourcePath() != "" {
		path = filepath.Join(filepath.Dir(cfg.SourcePath()), path)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("openapi spec %s: %w", a.specPath, err)
	}

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return fmt.Errorf("loading openapi spec %s: %w", a.specPath, err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return fmt.Errorf("invalid openapi spec %s: %w", a.specPath, err)
	}
	a.doc = doc
	return nil
}

func (a *APIRef) OnPagesResolved(ctx *plugin.Context, site *pages.Site) error {
	byTag := a.operationsByTag()

	tags := make([]string, 0, len(byTag))
	for tag := range byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	sectionTitle := pages.TitleFromFilename(a.section)

	overview := pages.Generated(ctx.Config,
		a.section+"/index.md",
		a.overviewTitle(),
		a.overviewMarkdown(tags, byTag))
	generated := []*pages.Page{overview}

	for _, tag := range tags {
		file := a.section + "/" + markdown.Slugify(tag) + ".md"
		generated = append(generated, pages.Generated(ctx.Config,
			file,
			pages.TitleFromFilename(tag),
			tagMarkdown(tag, byTag[tag])))
	}

	site.Append(sectionTitle, generated...)
	ctx.Logger.Info("api reference pages generated",
		logfields.Plugin(a.Name()),
		logfields.Section(a.section),
		logfields.Count(len(generated)))
	return nil
}

type operation struct {
	Method string
	Path   string
	Op     *openapi3.Operation
}

func (a *APIRef) operationsByTag() map[string][]operation {
	byTag := make(map[string][]operation)
	for path, item := range a.doc.Paths.Map() {
		for method, op := range item.Operations() {
			tags := op.Tags
			if len(tags) == 0 {
				tags = []string{defaultTag}
			}
			for _, tag := range tags {
				byTag[tag] = append(byTag[tag], operation{Method: method, Path: path, Op: op})
			}
		}
	}
	for _, ops := range byTag {
		sort.Slice(ops, func(i, j int) bool {
			if ops[i].Path != ops[j].Path {
				return ops[i].Path < ops[j].Path
			}
			return ops[i].Method < ops[j].Method
		})
	}
	return byTag
}

func (a *APIRef) overviewTitle() string {
	if a.doc.Info != nil && a.doc.Info.Title != "" {
		return a.doc.Info.Title
	}
	return "API Reference"
}

func (a *APIRef) overviewMarkdown(tags []string, byTag map[string][]operation) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", a.overviewTitle())
	if a.doc.Info != nil {
		if a.doc.Info.Version != "" {
			fmt.Fprintf(&b, "Version `%s`\n\n", a.doc.Info.Version)
		}
		if a.doc.Info.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(a.doc.Info.Description))
		}
	}
	b.WriteString("## Endpoints\n\n")
	for _, tag := range tags {
		fmt.Fprintf(&b, "- [%s](%s.md): %d operations\n",
			pages.TitleFromFilename(tag), markdown.Slugify(tag), len(byTag[tag]))
	}
	return []byte(b.String())
}

func tagMarkdown(tag string, ops []operation) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", pages.TitleFromFilename(tag))

	for _, op := range ops {
		fmt.Fprintf(&b, "\n## %s %s\n\n", op.Method, op.Path)
		if op.Op.Summary != "" {
			fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(op.Op.Summary))
		}
		if op.Op.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(op.Op.Description))
		}
		writeParameters(&b, op.Op.Parameters)
		writeRequestBody(&b, op.Op.RequestBody)
		writeResponses(&b, op.Op.Responses)
	}
	return []byte(b.String())
}

// writeParameters emits a definition list, one term per parameter.
func writeParameters(b *strings.Builder, params openapi3.Parameters) {
	if len(params) == 0 {
		return
	}
	b.WriteString("### Parameters\n\n")
	for _, ref := range params {
		p := ref.Value
		if p == nil {
			continue
		}
		required := ""
		if p.Required {
			required = ", required"
		}
		fmt.Fprintf(b, "`%s` (%s%s)\n", p.Name, p.In, required)
		desc := strings.TrimSpace(p.Description)
		if desc == "" {
			desc = "No description."
		}
		fmt.Fprintf(b, ":   %s\n\n", desc)
	}
}

func writeRequestBody(b *strings.Builder, ref *openapi3.RequestBodyRef) {
	if ref == nil || ref.Value == nil {
		return
	}
	b.WriteString("### Request body\n\n")
	if desc := strings.TrimSpace(ref.Value.Description); desc != "" {
		fmt.Fprintf(b, "%s\n\n", desc)
	}
	writeContentExample(b, ref.Value.Content)
}

func writeResponses(b *strings.Builder, responses *openapi3.Responses) {
	if responses == nil || responses.Len() == 0 {
		return
	}
	b.WriteString("### Responses\n\n")

	codes := make([]string, 0, responses.Len())
	for code := range responses.Map() {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		ref := responses.Map()[code]
		if ref == nil || ref.Value == nil {
			continue
		}
		desc := ""
		if ref.Value.Description != nil {
			desc = strings.TrimSpace(*ref.Value.Description)
		}
		fmt.Fprintf(b, "`%s`\n:   %s\n\n", code, desc)
		writeContentExample(b, ref.Value.Content)
	}
}

// writeContentExample renders the first JSON media type as a fenced
// example synthesized from the schema.
func writeContentExample(b *strings.Builder, content openapi3.Content) {
	media := content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return
	}
	example := renderExample(media.Schema.Value)
	if example == "" {
		return
	}
	fmt.Fprintf(b, "```json\n%s\n```\n\n", example)
}
