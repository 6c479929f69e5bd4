package submit

import (
	"fmt"
	"strings"

	"github.com/iterate-binary-hack/submitdiff/internal/errs"
	"github.com/m-mizutani/goerr/v2"
)

// Mode selects the deployment environment that receives a submission.
type Mode string

const (
	ModeDev   Mode = "dev"
	ModeProd  Mode = "prod"
	ModeLocal Mode = "local"
)

// Modes lists the accepted modes in display order.
var Modes = []Mode{ModeDev, ModeProd, ModeLocal}

// ParseMode validates s against the closed set of modes.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", errs.Argument(errs.ErrInvalidMode,
		fmt.Sprintf("mode must be one of %s, got %q", modeList(), s),
		goerr.V("mode", s))
}

// BaseURL maps a validated mode to its review API. The table is fixed; a
// mode outside it is a programming error.
func BaseURL(m Mode) string {
	switch m {
	case ModeProd:
		return "https://review.iterate-ai.com"
	case ModeDev:
		return "https://iterate-review-dev.vercel.app"
	case ModeLocal:
		return "http://localhost:3001"
	}
	panic(fmt.Sprintf("submit: no base URL for mode %q", string(m)))
}

func modeList() string {
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// Args is the validated invocation.
type Args struct {
	Mode     Mode
	EventUID string
}

// NewArgs validates raw flag values. Missing values are reported before an
// invalid mode.
func NewArgs(mode, eventUID string) (Args, error) {
	var missing []string
	if mode == "" {
		missing = append(missing, "--mode")
	}
	if strings.TrimSpace(eventUID) == "" {
		missing = append(missing, "--event-uid")
	}
	if len(missing) > 0 {
		return Args{}, errs.Argument(errs.ErrMissingRequired,
			"required flag not set: "+strings.Join(missing, ", "))
	}

	m, err := ParseMode(mode)
	if err != nil {
		return Args{}, err
	}
	return Args{Mode: m, EventUID: eventUID}, nil
}
