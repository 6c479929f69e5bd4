// Package errs defines the failure taxonomy shared by every submitdiff
// package. Failures are goerr errors carrying exactly one of the tags below;
// the CLI maps them to a report line and an exit code.
package errs

import (
	"errors"
	"fmt"
	"slices"

	"github.com/m-mizutani/goerr/v2"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitFailure = 1
)

var (
	// TagArgument marks bad or missing command-line input.
	TagArgument = goerr.NewTag("ArgumentError")
	// TagEnvironment marks a working directory that cannot be submitted
	// from: not a work tree, no remote, or an unparseable remote URL.
	TagEnvironment = goerr.NewTag("EnvironmentError")
	// TagGit marks a failed staging or diff command.
	TagGit = goerr.NewTag("GitOperationError")
	// TagNetwork marks a request that produced no HTTP response at all.
	TagNetwork = goerr.NewTag("NetworkError")
	// TagAPI marks a response other than 201 Created.
	TagAPI = goerr.NewTag("ApiError")
)

// Argument error causes. Wrapped with TagArgument by the parser.
var (
	ErrUnexpectedArgument = errors.New("unexpected argument")
	ErrMissingValue       = errors.New("flag needs a value")
	ErrMissingRequired    = errors.New("missing required flag")
	ErrInvalidMode        = errors.New("invalid mode")
)

var kinds = []struct {
	tag  fmt.Stringer
	name string
}{
	{TagArgument, "ArgumentError"},
	{TagEnvironment, "EnvironmentError"},
	{TagGit, "GitOperationError"},
	{TagNetwork, "NetworkError"},
	{TagAPI, "ApiError"},
}

// Kind returns the taxonomy name of the tag carried by err, or "" when err
// carries none of them.
func Kind(err error) string {
	tags := goerr.Tags(err)
	for _, k := range kinds {
		if slices.Contains(tags, k.tag.String()) {
			return k.name
		}
	}
	return ""
}

// Is reports whether err carries tag anywhere in its chain.
func Is(err error, tag fmt.Stringer) bool {
	return slices.Contains(goerr.Tags(err), tag.String())
}

// Argument returns an ArgumentError whose text is msg and which matches
// cause with errors.Is.
func Argument(cause error, msg string, opts ...goerr.Option) error {
	opts = append(opts, goerr.T(TagArgument))
	return goerr.Wrap(&argumentError{msg: msg, cause: cause}, "", opts...)
}

type argumentError struct {
	msg   string
	cause error
}

func (e *argumentError) Error() string { return e.msg }

func (e *argumentError) Unwrap() error { return e.cause }

// ExitCode maps err to the process exit status. Every failure is terminal
// and shares a single non-zero code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return ExitFailure
}
