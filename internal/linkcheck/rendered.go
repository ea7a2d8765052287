package linkcheck

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/mkpages/mkpages/internal/logfields"
)

// RenderedChecker verifies href/src references in built pages against the
// contents of the site directory.
type RenderedChecker struct {
	siteDir string
	logger  *slog.Logger
}

// NewRenderedChecker checks the built site rooted at siteDir.
func NewRenderedChecker(siteDir string, logger *slog.Logger) *RenderedChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RenderedChecker{siteDir: siteDir, logger: logger}
}

// Check parses every .html file under the site dir and resolves internal
// references against the directory contents. External references are
// returned for the external checker.
func (c *RenderedChecker) Check() (*Result, []ExternalRef, error) {
	start := time.Now()
	res := &Result{}
	var external []ExternalRef

	err := filepath.WalkDir(c.siteDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}
		rel, err := filepath.Rel(c.siteDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		f, err := os.Open(p)
		if err != nil {
			return err
		}
		links, parseErr := ExtractHTMLLinks(f)
		_ = f.Close()
		if parseErr != nil {
			return fmt.Errorf("parse %s: %w", rel, parseErr)
		}

		for _, link := range links {
			res.LinksChecked++
			if IsExternal(link.URL) {
				external = append(external, ExternalRef{Page: rel, URL: link.URL})
				continue
			}
			if f := c.resolve(rel, link); f != nil {
				res.Findings = append(res.Findings, *f)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	res.Duration = time.Since(start)
	res.Sort()
	c.logger.Debug("rendered link check done",
		logfields.Count(res.LinksChecked),
		slog.Int("broken", len(res.Findings)))
	return res, external, nil
}

func (c *RenderedChecker) resolve(page string, link HTMLLink) *Finding {
	u, err := url.Parse(link.URL)
	if err != nil {
		return &Finding{
			Page: page, URL: link.URL, Kind: KindRendered,
			Reason: fmt.Sprintf("unparseable reference: %v", err),
		}
	}
	if u.Scheme != "" || u.Host != "" {
		// mailto:, tel: and cross-host references are out of scope here
		return nil
	}
	if u.Path == "" {
		// fragment-only, anchors are a source-level concern
		return nil
	}

	target := u.Path
	if !strings.HasPrefix(target, "/") {
		target = path.Join(path.Dir(page), target)
	}
	target = strings.TrimPrefix(path.Clean(target), "/")
	if target == "" || strings.HasSuffix(u.Path, "/") {
		target = path.Join(target, "index.html")
	}

	full := filepath.Join(c.siteDir, filepath.FromSlash(target))
	if st, err := os.Stat(full); err == nil {
		if st.IsDir() {
			if _, err := os.Stat(filepath.Join(full, "index.html")); err == nil {
				return nil
			}
			return &Finding{
				Page: page, URL: link.URL, Kind: KindRendered,
				Reason: fmt.Sprintf("%s is a directory without index.html", target),
			}
		}
		return nil
	}
	return &Finding{
		Page: page, URL: link.URL, Kind: KindRendered,
		Reason: fmt.Sprintf("no file %s in site dir", target),
	}
}
