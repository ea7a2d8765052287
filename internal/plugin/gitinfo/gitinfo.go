// Package gitinfo annotates pages with a "last updated" date taken from
// git history, falling back to file modification times outside a work tree.
package gitinfo

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/mkpages/mkpages/internal/config"
	"github.com/mkpages/mkpages/internal/logfields"
	"github.com/mkpages/mkpages/internal/pages"
	"github.com/mkpages/mkpages/internal/plugin"
)

const version = "v0.3.1"

func init() {
	plugin.Register(func() plugin.Plugin { return &GitInfo{} })
}

// GitInfo resolves per-page history lazily during rendering; the repository
// is opened once when pages are resolved.
type GitInfo struct {
	plugin.Hooks

	fallbackToMtime bool
	dateFormat      string

	repo     *git.Repository
	workRoot string
	revision string
}

func (g *GitInfo) Name() string    { return config.PluginGitInfo }
func (g *GitInfo) Version() string { return version }

// Revision is the short HEAD hash, empty outside a work tree.
func (g *GitInfo) Revision() string { return g.revision }

func (g *GitInfo) OnConfig(cfg *config.Config, entry config.Entry) error {
	g.fallbackToMtime = entry.BoolOption("fallback_to_mtime", true)
	g.dateFormat = entry.StringOption("date_format", "2006-01-02")
	return nil
}

func (g *GitInfo) OnPagesResolved(ctx *plugin.Context, site *pages.Site) error {
	repo, err := git.PlainOpenWithOptions(ctx.DocsDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			if !g.fallbackToMtime {
				return errors.New("docs dir is not inside a git work tree and fallback_to_mtime is off")
			}
			ctx.Logger.Debug("no git work tree, using file modification times",
				logfields.Plugin(g.Name()))
			return nil
		}
		return err
	}
	g.repo = repo

	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	g.workRoot = wt.Filesystem.Root()

	if head, err := repo.Head(); err == nil {
		g.revision = head.Hash().String()[:8]
	}
	return nil
}

func (g *GitInfo) OnPageRendered(ctx *plugin.Context, page *pages.Page) error {
	if page.Generated || page.AbsPath == "" {
		return nil
	}
	when, ok := g.lastCommitTime(page.AbsPath)
	if !ok && g.fallbackToMtime {
		if info, err := os.Stat(page.AbsPath); err == nil {
			when, ok = info.ModTime(), true
		}
	}
	if ok {
		page.LastUpdated = when.Format(g.dateFormat)
	}
	return nil
}

// lastCommitTime returns the committer time of the newest commit touching
// the file, or false when the file has no history.
func (g *GitInfo) lastCommitTime(absPath string) (time.Time, bool) {
	if g.repo == nil {
		return time.Time{}, false
	}
	rel, err := filepath.Rel(g.workRoot, absPath)
	if err != nil {
		return time.Time{}, false
	}
	rel = filepath.ToSlash(rel)

	iter, err := g.repo.Log(&git.LogOptions{FileName: &rel})
	if err != nil {
		return time.Time{}, false
	}
	defer iter.Close()

	commit, err := iter.Next()
	if err != nil || commit == nil {
		return time.Time{}, false
	}
	return commitTime(commit), true
}

func commitTime(c *object.Commit) time.Time {
	if !c.Committer.When.IsZero() {
		return c.Committer.When
	}
	return c.Author.When
}
