package floodprobe

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// RunResult is the structured result handed to sinks and renderers: all
// phase results, all attack attempts, and the comparison verdict.
type RunResult struct {
	ID          string             `json:"id"`
	Target      string             `json:"target"`
	Endpoint    string             `json:"endpoint"`
	Engine      string             `json:"engine"`
	State       RunState           `json:"state"`
	AbortReason AbortReason        `json:"abortReason,omitempty"`
	StartedAt   time.Time          `json:"startedAt"`
	FinishedAt  time.Time          `json:"finishedAt"`
	Baseline    *PhaseResult       `json:"baseline,omitempty"`
	Loading     *PhaseResult       `json:"loading,omitempty"`
	UnderLoad   *PhaseResult       `json:"underLoad,omitempty"`
	Verdict     *ComparisonVerdict `json:"verdict,omitempty"`
}

// HybridEngine drives the ordered phase sequence: baseline attack, load
// flood, attacks under load, comparison. The flood engine and the prober
// never call each other; they share only the target and cooperative
// cancellation.
type HybridEngine struct {
	cfg           *Config
	logger        Logger
	flooder       FloodEngine
	prober        *AttackProber
	store         RunStore
	notifications *NotificationRegistry
}

// NewHybridEngine validates the config and assembles an engine. A nil
// flooder selects the builtin worker-pool engine; store and
// notifications are optional.
func NewHybridEngine(cfg *Config, logger Logger, flooder FloodEngine, store RunStore, notifications *NotificationRegistry) (*HybridEngine, error) {
	if logger == nil {
		logger = NopLogger{}
	}
	if err := NewConfigValidator().Validate(cfg); err != nil {
		return nil, err
	}
	if flooder == nil {
		flooder = NewFlooder(logger)
	}
	timeout := time.Duration(cfg.Flood.TimeoutSeconds) * time.Second
	return &HybridEngine{
		cfg:           cfg,
		logger:        logger,
		flooder:       flooder,
		prober:        NewAttackProber(logger, timeout),
		store:         store,
		notifications: notifications,
	}, nil
}

// Run executes the full phase sequence against one endpoint template and
// produces exactly one RunResult. An unreachable target aborts the run
// with partial results; the abort is recorded on the result, not raised
// as an error. ErrDependencyUnavailable is returned when the selected
// flood engine cannot run at all.
func (e *HybridEngine) Run(ctx context.Context, endpoint string) (*RunResult, error) {
	if err := e.flooder.Available(); err != nil {
		return nil, err
	}

	result := &RunResult{
		ID:        uuid.NewString(),
		Target:    e.cfg.Target.BaseURL,
		Endpoint:  endpoint,
		Engine:    e.flooder.Name(),
		State:     StateInit,
		StartedAt: time.Now(),
	}
	endpointURL := joinEndpoint(e.cfg.Target.BaseURL, endpoint)
	payloads := e.cfg.PayloadSequence()

	// BASELINE: the full payload sequence against the quiescent target.
	result.State = StateBaseline
	e.logger.Info("baseline attack starting", map[string]any{"run": result.ID, "endpoint": endpointURL})
	result.Baseline = e.probePhase(ctx, PhaseBaseline, endpointURL, payloads)

	if allUnanswered(result.Baseline.Attempts) {
		return e.abort(result), nil
	}

	// LOADING: flood alone, to measure how the target degrades.
	result.State = StateLoading
	loading, err := e.loadPhase(ctx, endpointURL, result.Baseline.Stats.AvgLatency)
	if err != nil {
		if errors.Is(err, ErrUnreachableTarget) {
			return e.abort(result), nil
		}
		return result, err
	}
	result.Loading = loading

	// UNDER_LOAD: a second flood, with the attack sequence issued while
	// it is active. Every attempt timestamp must fall strictly inside
	// the flood's window, so the flood runs until the sequence is
	// exhausted and is then cancelled cooperatively.
	result.State = StateUnderLoad
	underLoad, err := e.underLoadPhase(ctx, endpointURL, payloads)
	if err != nil {
		if errors.Is(err, ErrUnreachableTarget) {
			return e.abort(result), nil
		}
		return result, err
	}
	result.UnderLoad = underLoad

	// COMPARED: one verdict per run.
	result.State = StateCompared
	verdict := CompareAttempts(result.Baseline.Attempts, underLoad.Attempts, e.cfg.Attack.Margin)
	verdict.SystemStressed = loading.Stressed
	result.Verdict = &verdict
	RunsByRisk.WithLabelValues(string(verdict.Risk)).Inc()

	result.State = StateDone
	result.FinishedAt = time.Now()
	e.logger.Info("run compared", map[string]any{
		"run":   result.ID,
		"risk":  string(verdict.Risk),
		"delta": verdict.Delta,
	})

	e.notifications.NotifyVerdict(ctx, result)
	e.persist(result)
	return result, nil
}

// probePhase runs the attack sequence and wraps it as a phase result.
func (e *HybridEngine) probePhase(ctx context.Context, kind PhaseKind, endpointURL string, payloads []Payload) *PhaseResult {
	started := time.Now()
	attempts := e.prober.Probe(ctx, ProbeSpec{
		Endpoint:  endpointURL,
		Parameter: e.cfg.Target.Parameter,
		Payloads:  payloads,
		Delay:     e.cfg.AttackDelay(),
		Phase:     kind,
	})
	stopped := time.Now()
	return &PhaseResult{
		Kind:      kind,
		StartedAt: started,
		StoppedAt: stopped,
		Attempts:  attempts,
		Stats:     Aggregate(attemptOutcomes(attempts), stopped.Sub(started)),
	}
}

// loadPhase floods the endpoint for the configured duration and grades
// the result.
func (e *HybridEngine) loadPhase(ctx context.Context, endpointURL string, baselineAvg time.Duration) (*PhaseResult, error) {
	spec := e.cfg.FloodSpecFor(benignURL(endpointURL, e.cfg.Target.Parameter))
	flood, err := e.flooder.Start(ctx, spec)
	if err != nil {
		return nil, err
	}
	report := flood.Wait()

	phase := floodPhase(PhaseLoading, report)
	phase.Stressed = classifyStress(report.Stats, baselineAvg, e.cfg.Flood.StressErrorRate, e.cfg.Flood.StressLatencyRatio)
	phase.Grade = Evaluate(report.Stats, e.cfg.EvalThresholds())
	if phase.Stressed {
		e.logger.Warn("target stressed under load", map[string]any{
			"errorRate":  report.Stats.ErrorRate(),
			"avgLatency": report.Stats.AvgLatency.String(),
		})
	}
	return phase, nil
}

// underLoadPhase overlaps the two streams: flood workers plus the attack
// sequence. The flood carries no nominal duration here; it stops when the
// engine cancels it after the last attempt, which keeps every attempt
// strictly inside [flood start, flood stop].
func (e *HybridEngine) underLoadPhase(ctx context.Context, endpointURL string, payloads []Payload) (*PhaseResult, error) {
	spec := e.cfg.FloodSpecFor(benignURL(endpointURL, e.cfg.Target.Parameter))
	spec.Duration = 0
	spec.MaxRequests = 0

	flood, err := e.flooder.Start(ctx, spec)
	if err != nil {
		return nil, err
	}

	attempts := e.prober.Probe(ctx, ProbeSpec{
		Endpoint:  endpointURL,
		Parameter: e.cfg.Target.Parameter,
		Payloads:  payloads,
		Delay:     e.cfg.AttackDelay(),
		Phase:     PhaseUnderLoad,
	})

	flood.Cancel()
	report := flood.Wait()

	if n := attemptsOutsideWindow(attempts, report.StartedAt, report.StoppedAt); n > 0 {
		e.logger.Warn("attack attempts outside flood window", map[string]any{"count": n})
	}

	phase := floodPhase(PhaseUnderLoad, report)
	phase.Attempts = attempts
	phase.Grade = Evaluate(report.Stats, e.cfg.EvalThresholds())
	return phase, nil
}

func (e *HybridEngine) abort(result *RunResult) *RunResult {
	result.State = StateAborted
	result.AbortReason = AbortUnreachable
	result.FinishedAt = time.Now()
	e.logger.Error("run aborted", map[string]any{
		"run":    result.ID,
		"reason": string(result.AbortReason),
	})
	e.persist(result)
	return result
}

func (e *HybridEngine) persist(result *RunResult) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveRun(result); err != nil {
		e.logger.Error("failed to persist run", map[string]any{"run": result.ID, "error": err.Error()})
	}
}

func floodPhase(kind PhaseKind, report *FloodReport) *PhaseResult {
	return &PhaseResult{
		Kind:      kind,
		StartedAt: report.StartedAt,
		StoppedAt: report.StoppedAt,
		Outcomes:  report.Outcomes,
		Stats:     report.Stats,
	}
}

func attemptOutcomes(attempts []AttackAttempt) []RequestOutcome {
	outcomes := make([]RequestOutcome, 0, len(attempts))
	for _, a := range attempts {
		outcomes = append(outcomes, a.Outcome)
	}
	return outcomes
}

// allUnanswered reports whether no attempt got any HTTP response at all.
// Error statuses still count as answers; only transport-level silence
// marks the target unreachable.
func allUnanswered(attempts []AttackAttempt) bool {
	if len(attempts) == 0 {
		return true
	}
	for _, a := range attempts {
		if a.Outcome.StatusCode != 0 {
			return false
		}
	}
	return true
}

func attemptsOutsideWindow(attempts []AttackAttempt, start, stop time.Time) int {
	outside := 0
	for _, a := range attempts {
		t := a.Outcome.StartedAt
		if !t.After(start) || !t.Before(stop) {
			outside++
		}
	}
	return outside
}
