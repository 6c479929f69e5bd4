package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/iterate-binary-hack/submitdiff/internal/api"
	"github.com/iterate-binary-hack/submitdiff/internal/config"
	"github.com/iterate-binary-hack/submitdiff/internal/errs"
	"github.com/iterate-binary-hack/submitdiff/internal/gitctx"
	"github.com/iterate-binary-hack/submitdiff/internal/logging"
	"github.com/iterate-binary-hack/submitdiff/internal/report"
	"github.com/iterate-binary-hack/submitdiff/internal/submit"
	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const version = "0.1.0"

// app carries the process streams and collaborators for one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer
	newGit func() gitctx.Client
	// rewriteBaseURL, when set, replaces the mode's base URL.
	rewriteBaseURL func(string) string

	flags rootFlags
}

type rootFlags struct {
	mode            string
	eventUID        string
	configPath      string
	logLevel        string
	logFormat       string
	timeout         int
	retries         int
	contextLines    int
	remote          string
	includeMetadata bool
	redact          bool
	dryRun          bool
}

// overrideKeys maps flags that shadow config keys.
var overrideKeys = []struct {
	flag string
	key  string
}{
	{"context-lines", "contextLines"},
	{"timeout", "timeoutSeconds"},
	{"retries", "retries"},
	{"remote", "remote"},
	{"include-metadata", "includeMetadata"},
	{"redact", "privacy.redactSecrets"},
	{"log-level", "log.level"},
	{"log-format", "log.format"},
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		newGit: func() gitctx.Client { return gitctx.New("") },
	}
}

// Run executes the root command and returns an exit code.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newApp(os.Stdout, os.Stderr).execute(ctx, os.Args[1:])
}

func (a *app) execute(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)

	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return errs.ExitSuccess
	}

	out := report.New(a.stdout, a.stderr)
	switch {
	case errs.Is(err, errs.TagAPI):
		// The response has already been printed.
	case errs.Is(err, errs.TagArgument):
		out.Failure(err)
		if cmd != nil {
			fmt.Fprint(a.stderr, cmd.UsageString())
		}
	default:
		out.Failure(err)
	}
	return errs.ExitCode(err)
}

func (a *app) rootCmd() *cobra.Command {
	f := &a.flags
	root := &cobra.Command{
		Use:   "submitdiff --mode <dev|prod|local> --event-uid <id>",
		Short: "Submit the working tree's changes to the review workbench",
		Long: "submitdiff stages every change in the current git work tree, captures the staged diff " +
			"with wide context, and submits it for the given event to the review API of the selected environment.",
		Args:          rootArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSubmit(cmd)
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(classifyFlagError)

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "Config file path (default: user config directory)")
	pf.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&f.logFormat, "log-format", "", "Log format (console, json)")

	fl := root.Flags()
	fl.StringVarP(&f.mode, "mode", "m", "", "Target environment (dev, prod, local)")
	fl.StringVarP(&f.eventUID, "event-uid", "e", "", "Event identifier the diff belongs to")
	fl.IntVar(&f.timeout, "timeout", 0, "Network timeout in seconds per attempt (default 30)")
	fl.IntVar(&f.retries, "retries", 0, "Retries after a network failure (no response received)")
	fl.IntVar(&f.contextLines, "context-lines", 0, "Context lines around each change (default 50)")
	fl.StringVar(&f.remote, "remote", "", "Remote used to derive org and repo (default origin)")
	fl.BoolVar(&f.includeMetadata, "include-metadata", false, "Send org, repo, branch, and commit with the diff")
	fl.BoolVar(&f.redact, "redact", false, "Scrub detected secrets from the diff before sending")
	fl.BoolVar(&f.dryRun, "dry-run", false, "Stage and capture the diff but do not send it")

	root.AddCommand(a.configCmd())
	root.AddCommand(a.versionCmd())
	return root
}

func (a *app) runSubmit(cmd *cobra.Command) error {
	args, err := submit.NewArgs(a.flags.mode, a.flags.eventUID)
	if err != nil {
		return err
	}

	cfg, err := config.Load(a.flags.configPath, buildOverrides(cmd.Flags()))
	if err != nil {
		return goerr.Wrap(err, "invalid configuration", goerr.T(errs.TagArgument))
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return goerr.Wrap(err, "failed to initialize logger", goerr.T(errs.TagArgument))
	}
	defer func() { _ = logger.Sync() }()

	out := report.New(a.stdout, a.stderr)
	newSender := func(baseURL string) submit.Sender {
		if a.rewriteBaseURL != nil {
			baseURL = a.rewriteBaseURL(baseURL)
		}
		return api.NewClient(baseURL,
			api.WithTimeout(cfg.Timeout()),
			api.WithRetries(cfg.Retries),
			api.WithLogger(logger))
	}

	var redactPaths []string
	if cfg.Privacy.RedactSecrets {
		redactPaths = cfg.Privacy.RedactPaths
	}
	s := submit.New(a.newGit(), newSender, out, logger, submit.Options{
		ContextLines:    cfg.ContextLines,
		Remote:          cfg.Remote,
		IncludeMetadata: cfg.IncludeMetadata,
		Redact:          cfg.Privacy.RedactSecrets,
		RedactPaths:     redactPaths,
		DryRun:          a.flags.dryRun,
	})

	logger.Debug("starting submission",
		zap.String("mode", string(args.Mode)),
		zap.Int("context_lines", cfg.ContextLines),
		zap.Duration("timeout", cfg.Timeout()),
		zap.Int("retries", cfg.Retries))
	return s.Run(cmd.Context(), args)
}

// buildOverrides collects the config-shadowing flags the user actually set.
func buildOverrides(fs *pflag.FlagSet) map[string]string {
	m := make(map[string]string)
	for _, o := range overrideKeys {
		flag := fs.Lookup(o.flag)
		if flag == nil || !flag.Changed {
			continue
		}
		m[o.key] = flag.Value.String()
	}
	return m
}

func noPositionalArgs(_ *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	return errs.Argument(errs.ErrUnexpectedArgument, "unexpected argument "+strconv.Quote(args[0]))
}

// rootArgs rejects a --mode or --event-uid that swallowed the next flag
// (as in "-m -e evt") before looking at positional arguments.
func rootArgs(cmd *cobra.Command, args []string) error {
	for _, name := range []string{"mode", "event-uid"} {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if v := flag.Value.String(); strings.HasPrefix(v, "-") {
			return errs.Argument(errs.ErrMissingValue,
				fmt.Sprintf("flag needs an argument: --%s (got flag %q)", name, v))
		}
	}
	return noPositionalArgs(cmd, args)
}

// classifyFlagError turns pflag parse failures into argument errors.
func classifyFlagError(_ *cobra.Command, err error) error {
	cause := errs.ErrUnexpectedArgument
	if strings.Contains(err.Error(), "needs an argument") {
		cause = errs.ErrMissingValue
	}
	return errs.Argument(cause, err.Error())
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print submitdiff version",
		Args:  noPositionalArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(a.stdout, "submitdiff version %s\n", version)
		},
	}
}
