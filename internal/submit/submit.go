// Package submit runs the diff submission pipeline: verify the work tree,
// stage everything, capture the staged diff, collect repository context,
// build the payload, send it, and report the outcome. Each step runs only
// if every earlier step succeeded.
package submit

import (
	"context"

	"github.com/iterate-binary-hack/submitdiff/internal/api"
	"github.com/iterate-binary-hack/submitdiff/internal/errs"
	"github.com/iterate-binary-hack/submitdiff/internal/gitctx"
	"github.com/iterate-binary-hack/submitdiff/internal/redact"
	"github.com/iterate-binary-hack/submitdiff/internal/report"
	"github.com/m-mizutani/goerr/v2"
	"go.uber.org/zap"
)

// Sender delivers a payload to a review API.
type Sender interface {
	Submit(ctx context.Context, p api.DiffPayload) (api.SubmissionResult, error)
	Endpoint() string
}

// SenderFactory builds a Sender for a base URL.
type SenderFactory func(baseURL string) Sender

// Options tunes a submission.
type Options struct {
	ContextLines    int
	Remote          string
	IncludeMetadata bool
	Redact          bool
	RedactPaths     []string
	DryRun          bool
}

// Submitter wires the pipeline's collaborators.
type Submitter struct {
	git       gitctx.Client
	newSender SenderFactory
	out       *report.Writer
	logger    *zap.Logger
	opts      Options
}

// New creates a Submitter. A nil logger discards logs.
func New(git gitctx.Client, newSender SenderFactory, out *report.Writer, logger *zap.Logger, opts Options) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Remote == "" {
		opts.Remote = gitctx.DefaultRemote
	}
	return &Submitter{
		git:       git,
		newSender: newSender,
		out:       out,
		logger:    logger,
		opts:      opts,
	}
}

// Run submits the working tree's changes for args. It returns nil only
// when the server answered 201 Created (or on a dry run). Staging is never
// undone, whatever fails later.
func (s *Submitter) Run(ctx context.Context, args Args) error {
	baseURL := BaseURL(args.Mode)
	logger := s.logger.With(zap.String("mode", string(args.Mode)), zap.String("event_uid", args.EventUID))

	inside, err := s.git.IsInsideWorkTree(ctx)
	if err != nil {
		return goerr.Wrap(err, "cannot inspect the working directory", goerr.T(errs.TagEnvironment))
	}
	if !inside {
		return goerr.New("not a git repository", goerr.T(errs.TagEnvironment))
	}

	if err := s.git.StageAll(ctx); err != nil {
		return goerr.Wrap(err, "failed to stage changes", goerr.T(errs.TagGit))
	}
	logger.Info("staged all changes")

	diff, err := s.git.DiffCached(ctx, s.opts.ContextLines)
	if err != nil {
		return goerr.Wrap(err, "failed to capture staged diff", goerr.T(errs.TagGit),
			goerr.V("context_lines", s.opts.ContextLines))
	}
	files := gitctx.ExtractFiles(diff)
	logger.Info("captured staged diff", zap.Int("bytes", len(diff)), zap.Strings("files", files))
	if diff == "" {
		logger.Warn("no staged changes; submitting an empty diff")
	}

	rc, err := gitctx.Collect(ctx, s.git, s.opts.Remote)
	if err != nil {
		return goerr.Wrap(err, "failed to read repository context", goerr.T(errs.TagEnvironment),
			goerr.V("remote", s.opts.Remote))
	}
	logger.Info("repository context",
		zap.String("org", rc.Org),
		zap.String("repo", rc.Repo),
		zap.String("branch", rc.Branch),
		zap.String("commit", rc.CommitSHA))

	if s.opts.Redact {
		var n int
		diff, n = redact.Diff(diff, s.opts.RedactPaths)
		if n > 0 {
			s.out.Warn("redacted %d secret(s) from the diff", n)
		}
		logger.Info("redaction applied", zap.Int("redactions", n))
	}

	payload := api.BuildPayload(args.EventUID, diff)
	if s.opts.IncludeMetadata {
		payload = payload.WithMetadata(api.PayloadMetadata{
			Org:       rc.Org,
			Repo:      rc.Repo,
			Branch:    rc.Branch,
			CommitSHA: rc.CommitSHA,
		})
	}

	sender := s.newSender(baseURL)
	if s.opts.DryRun {
		return s.out.DryRun(sender.Endpoint(), payload, files)
	}

	if err := ctx.Err(); err != nil {
		return goerr.Wrap(err, "interrupted before submission; staged changes were kept")
	}

	res, err := sender.Submit(ctx, payload)
	if err != nil {
		return err
	}
	logger.Info("review API responded", zap.Int("status", res.StatusCode), zap.String("request_id", res.RequestID))

	return s.out.Result(res)
}
