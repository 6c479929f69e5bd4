package gitctx

import (
	"context"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultRemote is the remote whose URL identifies the repository.
const DefaultRemote = "origin"

// RepoContext describes the repository a diff was taken from.
type RepoContext struct {
	RemoteURL string `json:"remote_url"`
	Org       string `json:"org"`
	Repo      string `json:"repo"`
	Branch    string `json:"branch"`
	CommitSHA string `json:"commit_sha"`
}

// remoteRe matches host[:/]<org>/<repo>[.git] in scp-style and URL-style
// remotes. The org is the second-to-last path segment.
var remoteRe = regexp.MustCompile(`^(?:[A-Za-z][A-Za-z0-9+.-]*://)?(?:[^@/]+@)?[^/:]+(?::\d+)?[:/](?:.*/)?([^/:]+)/([^/]+?)(?:\.git)?/?$`)

// ParseRemoteURL extracts org/repo from a git remote URL.
func ParseRemoteURL(url string) (org, repo string, err error) {
	url = strings.TrimSpace(url)
	m := remoteRe.FindStringSubmatch(url)
	if len(m) != 3 || m[1] == "" || m[2] == "" {
		return "", "", goerr.New("cannot parse org/repo from remote URL", goerr.V("url", url))
	}
	return m[1], m[2], nil
}

// Collect reads the remote URL, branch and HEAD commit through c.
func Collect(ctx context.Context, c Client, remote string) (RepoContext, error) {
	if remote == "" {
		remote = DefaultRemote
	}

	url, err := c.RemoteURL(ctx, remote)
	if err != nil {
		return RepoContext{}, goerr.Wrap(err, "no remote configured", goerr.V("remote", remote))
	}
	if url == "" {
		return RepoContext{}, goerr.New("remote has an empty URL", goerr.V("remote", remote))
	}

	org, repo, err := ParseRemoteURL(url)
	if err != nil {
		return RepoContext{}, err
	}

	branch, err := c.CurrentBranch(ctx)
	if err != nil {
		return RepoContext{}, goerr.Wrap(err, "cannot read current branch")
	}

	sha, err := c.HeadCommit(ctx)
	if err != nil {
		return RepoContext{}, goerr.Wrap(err, "cannot read HEAD commit")
	}

	return RepoContext{
		RemoteURL: url,
		Org:       org,
		Repo:      repo,
		Branch:    branch,
		CommitSHA: sha,
	}, nil
}
