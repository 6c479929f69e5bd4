package gitctx

import (
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultContextLines is the unified diff context window used for
// submissions. Reviewers see whole functions rather than three-line hunks.
const DefaultContextLines = 50

// Client is the set of version-control capabilities the submitter needs.
// Git is the production implementation; tests supply fakes.
type Client interface {
	IsInsideWorkTree(ctx context.Context) (bool, error)
	StageAll(ctx context.Context) error
	DiffCached(ctx context.Context, contextLines int) (string, error)
	RemoteURL(ctx context.Context, name string) (string, error)
	CurrentBranch(ctx context.Context) (string, error)
	HeadCommit(ctx context.Context) (string, error)
}

// Git runs the git executable. Dir is the working directory for every
// command; empty means the process working directory.
type Git struct {
	Dir string
	Bin string
}

// New returns a Git client rooted at dir.
func New(dir string) *Git {
	return &Git{Dir: dir, Bin: "git"}
}

// IsInsideWorkTree reports whether Dir is inside a git work tree. A git
// refusal (exit status) means "no"; a missing git binary is an error.
func (g *Git) IsInsideWorkTree(ctx context.Context) (bool, error) {
	out, err := g.output(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, err
	}
	return strings.TrimSpace(out) == "true", nil
}

// StageAll stages every tracked and untracked change in the work tree.
func (g *Git) StageAll(ctx context.Context) error {
	_, err := g.output(ctx, "add", "-A")
	return err
}

// DiffCached returns the unified diff of the index against HEAD.
func (g *Git) DiffCached(ctx context.Context, contextLines int) (string, error) {
	args := []string{"diff", "--cached", "--no-color", "--no-ext-diff"}
	if contextLines >= 0 {
		args = append(args, "-U"+strconv.Itoa(contextLines))
	}
	return g.output(ctx, args...)
}

// RemoteURL returns the fetch URL of the named remote.
func (g *Git) RemoteURL(ctx context.Context, name string) (string, error) {
	out, err := g.output(ctx, "remote", "get-url", name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// CurrentBranch returns the short symbolic ref of HEAD. It fails on a
// detached HEAD.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.output(ctx, "symbolic-ref", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// HeadCommit returns the full object name of HEAD.
func (g *Git) HeadCommit(ctx context.Context) (string, error) {
	out, err := g.output(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (g *Git) output(ctx context.Context, args ...string) (string, error) {
	bin := g.Bin
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = g.Dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), goerr.Wrap(err, "git command failed",
				goerr.V("args", strings.Join(args, " ")),
				goerr.V("stderr", strings.TrimSpace(string(exitErr.Stderr))))
		}
		return "", goerr.Wrap(err, "cannot run git", goerr.V("args", strings.Join(args, " ")))
	}
	return string(out), nil
}

// ExtractFiles lists the post-image paths named by the "diff --git"
// headers of a unified diff, in order of first appearance.
func ExtractFiles(diff string) []string {
	var files []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(diff, "\n") {
		if !strings.HasPrefix(line, "diff --git ") {
			continue
		}
		idx := strings.LastIndex(line, " b/")
		if idx == -1 {
			continue
		}
		f := line[idx+len(" b/"):]
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	return files
}
