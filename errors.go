package floodprobe

import (
	"github.com/pkg/errors"
)

// Sentinel errors for run-level failures. Individual request failures are
// recorded as outcomes and never surface through these.
var (
	// ErrUnreachableTarget means a phase's initial probe saw zero
	// transport-level successes; the run aborts with partial results.
	ErrUnreachableTarget = errors.New("target unreachable")

	// ErrDependencyUnavailable means an alternate engine's runtime
	// prerequisite is missing; the affected engine is skipped, the run
	// itself is not a failure.
	ErrDependencyUnavailable = errors.New("engine dependency unavailable")

	// ErrConfig marks malformed target or payload definitions. Fatal
	// before any phase executes.
	ErrConfig = errors.New("invalid configuration")
)

func configErrorf(format string, args ...any) error {
	return errors.Wrapf(ErrConfig, format, args...)
}
