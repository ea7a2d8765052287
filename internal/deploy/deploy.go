// Package deploy publishes the built site to a pages branch. Each deploy is
// one commit whose tree is the site directory itself, parented on the
// previous deploy commit when the branch already exists.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/mkpages/mkpages/internal/config"
	serrors "github.com/mkpages/mkpages/internal/errors"
	"github.com/mkpages/mkpages/internal/version"
)

const (
	fallbackAuthorName  = "mkpages"
	fallbackAuthorEmail = "mkpages@localhost"
)

// Options controls a single deploy run.
type Options struct {
	Push    bool
	Message string // overrides deploy.message from the config
}

// Result describes the commit a deploy produced.
type Result struct {
	Branch string
	Commit string
	Files  int
	Pushed bool
}

// Deployer publishes site builds into the repository that contains the
// working directory.
type Deployer struct {
	cfg      *config.Config
	logger   *slog.Logger
	startDir string
	siteDir  string
}

// Option adjusts a Deployer.
type Option func(*Deployer)

// WithStartDir sets the directory the repository search starts from.
// Defaults to the directory holding the config file.
func WithStartDir(dir string) Option {
	return func(d *Deployer) {
		if dir != "" {
			d.startDir = dir
		}
	}
}

// WithSiteDir overrides the resolved site directory.
func WithSiteDir(dir string) Option {
	return func(d *Deployer) {
		if dir != "" {
			d.siteDir = dir
		}
	}
}

// New creates a Deployer for the given loaded configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Deployer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	base := "."
	if cfg.SourcePath() != "" {
		base = filepath.Dir(cfg.SourcePath())
	}
	siteDir, err := filepath.Abs(filepath.Join(base, cfg.SiteDir))
	if err != nil {
		return nil, fmt.Errorf("resolve site dir: %w", err)
	}
	d := &Deployer{
		cfg:      cfg,
		logger:   logger,
		startDir: base,
		siteDir:  siteDir,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Deploy commits the site directory onto the deploy branch and optionally
// pushes it to the configured remote.
func (d *Deployer) Deploy(ctx context.Context, opts Options) (*Result, error) {
	if err := d.checkSiteDir(); err != nil {
		return nil, err
	}

	repo, err := git.PlainOpenWithOptions(d.startDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, serrors.GitError("open repository",
				fmt.Errorf("%s is not inside a git repository", d.startDir))
		}
		return nil, serrors.GitError("open repository", err)
	}

	branch := d.cfg.Deploy.Branch
	refName := plumbing.NewBranchReferenceName(branch)

	extras := map[string][]byte{".nojekyll": nil}
	if cname := strings.TrimSpace(d.cfg.Deploy.CName); cname != "" {
		extras["CNAME"] = []byte(cname + "\n")
	}

	builder := &treeBuilder{storer: repo.Storer}
	treeHash, err := builder.writeDir(d.siteDir, extras)
	if err != nil {
		return nil, serrors.GitError("write site tree", err)
	}

	var parents []plumbing.Hash
	if ref, err := repo.Reference(refName, true); err == nil {
		parents = append(parents, ref.Hash())
	}

	message := d.commitMessage(repo, opts.Message)
	sig := d.signature(repo)
	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: parents,
	}
	obj := repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return nil, serrors.GitError("encode commit", err)
	}
	commitHash, err := repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return nil, serrors.GitError("store commit", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(refName, commitHash)); err != nil {
		return nil, serrors.GitError("update branch", err)
	}

	result := &Result{
		Branch: branch,
		Commit: commitHash.String(),
		Files:  builder.files,
	}
	d.logger.Info("site committed",
		slog.String("branch", branch),
		slog.String("commit", shortHash(commitHash)),
		slog.Int("files", builder.files))

	if opts.Push {
		if err := d.push(ctx, repo, branch); err != nil {
			return result, err
		}
		result.Pushed = true
	}
	return result, nil
}

// checkSiteDir refuses to deploy a missing or empty site directory.
func (d *Deployer) checkSiteDir() error {
	entries, err := os.ReadDir(d.siteDir)
	if err != nil {
		return serrors.SiteDirError("read site directory", err)
	}
	for _, e := range entries {
		if e.Name() != ".mkpages" {
			return nil
		}
	}
	return serrors.SiteDirError("deploy",
		fmt.Errorf("site directory %s is empty, run a build first", d.siteDir))
}

// commitMessage expands {sha} with the source HEAD commit and {version}
// with the tool version.
func (d *Deployer) commitMessage(repo *git.Repository, override string) string {
	template := d.cfg.Deploy.Message
	if override != "" {
		template = override
	}
	sha := "unknown"
	if head, err := repo.Head(); err == nil {
		sha = shortHash(head.Hash())
	}
	msg := strings.ReplaceAll(template, "{sha}", sha)
	return strings.ReplaceAll(msg, "{version}", version.Version)
}

// signature reads user.name and user.email from the merged git config,
// falling back to a tool identity.
func (d *Deployer) signature(repo *git.Repository) object.Signature {
	name, email := fallbackAuthorName, fallbackAuthorEmail
	if cfg, err := repo.ConfigScoped(gitconfig.SystemScope); err == nil {
		if cfg.User.Name != "" {
			name = cfg.User.Name
		}
		if cfg.User.Email != "" {
			email = cfg.User.Email
		}
	}
	return object.Signature{Name: name, Email: email, When: time.Now()}
}

func (d *Deployer) push(ctx context.Context, repo *git.Repository, branch string) error {
	remote := d.cfg.Deploy.Remote
	auth, err := authForRemote(repo, remote)
	if err != nil {
		return serrors.GitError("resolve push auth", err)
	}
	// forced refspec: the deploy branch is owned by this tool
	spec := gitconfig.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/heads/%s", branch, branch))
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remote,
		RefSpecs:   []gitconfig.RefSpec{spec},
		Auth:       auth,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		d.logger.Info("remote already up to date", slog.String("remote", remote))
		return nil
	}
	if err != nil {
		return serrors.GitError("push", err)
	}
	d.logger.Info("branch pushed",
		slog.String("remote", remote), slog.String("branch", branch))
	return nil
}

func shortHash(h plumbing.Hash) string {
	return h.String()[:8]
}
