package deploy

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// Environment variables consulted for push credentials.
const (
	envToken    = "MKPAGES_GIT_TOKEN"
	envUsername = "MKPAGES_GIT_USERNAME"
	envPassword = "MKPAGES_GIT_PASSWORD"
)

// authForRemote picks an auth method for the remote's first URL: a token or
// basic credentials from the environment for HTTP remotes, the ssh agent for
// SSH remotes. Returns nil auth for HTTP remotes without credentials so
// anonymous pushes to open remotes still work.
func authForRemote(repo *git.Repository, remoteName string) (transport.AuthMethod, error) {
	remote, err := repo.Remote(remoteName)
	if err != nil {
		return nil, fmt.Errorf("remote %q: %w", remoteName, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return nil, fmt.Errorf("remote %q has no URL", remoteName)
	}
	url := urls[0]

	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		if token := os.Getenv(envToken); token != "" {
			// most forges accept the token as a basic password
			return &githttp.BasicAuth{Username: "token", Password: token}, nil
		}
		if user := os.Getenv(envUsername); user != "" {
			return &githttp.BasicAuth{Username: user, Password: os.Getenv(envPassword)}, nil
		}
		return nil, nil
	}

	return gitssh.NewSSHAgentAuth(sshUser(url))
}

// sshUser extracts the user from an scp-style or ssh:// URL, defaulting to
// "git".
func sshUser(url string) string {
	rest := strings.TrimPrefix(url, "ssh://")
	if at := strings.Index(rest, "@"); at > 0 {
		return rest[:at]
	}
	return "git"
}
