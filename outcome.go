package floodprobe

import (
	"time"
)

// ErrorKind classifies why a request attempt failed.
type ErrorKind string

const (
	ErrorKindNone        ErrorKind = ""
	ErrorKindNetwork     ErrorKind = "network_error"
	ErrorKindTimeout     ErrorKind = "timeout"
	ErrorKindServerError ErrorKind = "http_server_error"
	ErrorKindClientError ErrorKind = "http_client_error"
)

// PhaseKind identifies one bounded execution window of a run.
type PhaseKind string

const (
	PhaseBaseline  PhaseKind = "baseline"
	PhaseLoading   PhaseKind = "loading"
	PhaseUnderLoad PhaseKind = "under_load"
)

// RunState is the engine's state machine position.
type RunState string

const (
	StateInit      RunState = "init"
	StateBaseline  RunState = "baseline"
	StateLoading   RunState = "loading"
	StateUnderLoad RunState = "under_load"
	StateCompared  RunState = "compared"
	StateDone      RunState = "done"
	StateAborted   RunState = "aborted"
)

// AbortReason explains an ABORTED run.
type AbortReason string

const (
	AbortNone        AbortReason = ""
	AbortUnreachable AbortReason = "unreachable_target"
)

// RiskLevel is the final classification of the comparison.
type RiskLevel string

const (
	RiskNone     RiskLevel = "none"
	RiskElevated RiskLevel = "elevated"
	RiskCritical RiskLevel = "critical"
)

// RequestOutcome records the result of a single request attempt. Outcomes
// are immutable once recorded; a phase owns every outcome initiated while
// it was active.
type RequestOutcome struct {
	StartedAt  time.Time     `json:"startedAt"`
	Latency    time.Duration `json:"latency"`
	Success    bool          `json:"success"`
	ErrorKind  ErrorKind     `json:"errorKind,omitempty"`
	StatusCode int           `json:"statusCode,omitempty"`
	BytesIn    int           `json:"bytesIn"`
}

// AttackAttempt is one payload delivery and its classified result.
type AttackAttempt struct {
	Payload  Payload        `json:"payload"`
	Endpoint string         `json:"endpoint"`
	Outcome  RequestOutcome `json:"outcome"`
	Matched  bool           `json:"matched"`
	Evidence string         `json:"evidence,omitempty"`
}

// EvidenceCategory identifies what kind of exploitation signal an attempt
// produced, independent of the exact payload literal. Used to detect
// signals that appear only under load.
func (a AttackAttempt) EvidenceCategory() string {
	if !a.Matched {
		return ""
	}
	return string(a.Payload.Kind) + ":" + a.Evidence
}

// PhaseResult bundles everything observed during one phase.
type PhaseResult struct {
	Kind      PhaseKind        `json:"kind"`
	StartedAt time.Time        `json:"startedAt"`
	StoppedAt time.Time        `json:"stoppedAt"`
	Outcomes  []RequestOutcome `json:"outcomes,omitempty"`
	Attempts  []AttackAttempt  `json:"attempts,omitempty"`
	Stats     PhaseStats       `json:"stats"`
	Stressed  bool             `json:"stressed,omitempty"`
	Grade     Grade            `json:"grade,omitempty"`
}

// WallDuration is the phase's bounded execution window.
func (p PhaseResult) WallDuration() time.Duration {
	return p.StoppedAt.Sub(p.StartedAt)
}

// AttackSuccessRate is the fraction of attempts with matched evidence.
// Returns 0 for an empty attempt set.
func AttackSuccessRate(attempts []AttackAttempt) float64 {
	if len(attempts) == 0 {
		return 0
	}
	matched := 0
	for _, a := range attempts {
		if a.Matched {
			matched++
		}
	}
	return float64(matched) / float64(len(attempts))
}

// avgAttemptLatency averages the derived outcome latencies of a set of
// attempts; zero when the set is empty.
func avgAttemptLatency(attempts []AttackAttempt) time.Duration {
	if len(attempts) == 0 {
		return 0
	}
	var total time.Duration
	for _, a := range attempts {
		total += a.Outcome.Latency
	}
	return total / time.Duration(len(attempts))
}
