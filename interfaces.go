package floodprobe

import (
	"context"
	"time"
)

// Logger is the structured logging surface used across the engine.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// FloodEngine generates benign flood traffic against a target. The
// built-in worker-pool flooder implements it, and third-party load tools
// can be dropped in behind the same contract.
type FloodEngine interface {
	Name() string

	// Available reports whether the engine's runtime prerequisites are
	// met. A failing engine is skipped, not a run failure.
	Available() error

	// Start launches the flood and returns once workers are issuing
	// requests. A target that answers nothing during the initial probe
	// yields ErrUnreachableTarget.
	Start(ctx context.Context, spec FloodSpec) (*ActiveFlood, error)
}

// FloodSpec parametrizes one flood.
type FloodSpec struct {
	URL         string
	Concurrency int
	Duration    time.Duration
	MaxRequests int           // stop after this many outcomes; 0 = duration-bound only
	Rate        int           // requests/sec cap across all workers; 0 = unlimited
	Timeout     time.Duration // per-request bound
}

// FloodReport is the completed flood's outcome stream plus aggregates.
type FloodReport struct {
	Engine    string           `json:"engine"`
	StartedAt time.Time        `json:"startedAt"`
	StoppedAt time.Time        `json:"stoppedAt"`
	Outcomes  []RequestOutcome `json:"outcomes,omitempty"`
	Stats     PhaseStats       `json:"stats"`
}

// ActiveFlood is a handle on a running flood. Cancel is cooperative:
// workers observe it between iterations and in-flight requests always
// complete, so accounting is never skewed by forced aborts.
type ActiveFlood struct {
	StartedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}
	report *FloodReport
}

func newActiveFlood(startedAt time.Time, cancel context.CancelFunc) *ActiveFlood {
	return &ActiveFlood{
		StartedAt: startedAt,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// finish publishes the report and releases waiters. Called exactly once
// by the owning engine.
func (f *ActiveFlood) finish(report *FloodReport) {
	f.report = report
	close(f.done)
}

// Cancel asks the flood to stop after in-flight requests complete.
func (f *ActiveFlood) Cancel() {
	f.cancel()
}

// Done is closed once the flood has fully stopped.
func (f *ActiveFlood) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the flood has stopped and returns its report.
func (f *ActiveFlood) Wait() *FloodReport {
	<-f.done
	return f.report
}

// RunStore persists completed run results.
type RunStore interface {
	SaveRun(result *RunResult) error
	GetRun(id string) (*RunResult, error)
	ListRuns() ([]RunSummary, error)
}

// RunSummary is the store's listing row.
type RunSummary struct {
	ID        string    `json:"id"`
	Target    string    `json:"target"`
	Endpoint  string    `json:"endpoint"`
	State     RunState  `json:"state"`
	Risk      RiskLevel `json:"risk"`
	CreatedAt time.Time `json:"createdAt"`
}
