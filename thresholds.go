package floodprobe

import "time"

// Grade classifies a load-style phase against configured thresholds.
type Grade string

const (
	GradePassed  Grade = "passed"
	GradeWarning Grade = "warning"
	GradeFailed  Grade = "failed"
)

// Thresholds is the single threshold set consumed by Evaluate. The same
// values apply uniformly across all load-style phases so results are
// comparable.
type Thresholds struct {
	PassRate       float64       `json:"passRate"`
	FailRate       float64       `json:"failRate"`
	MaxAvgLatency  time.Duration `json:"maxAvgLatency"`
	FailAvgLatency time.Duration `json:"failAvgLatency"`
}

// DefaultThresholds returns the stock pass/fail boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PassRate:       0.8,
		FailRate:       0.5,
		MaxAvgLatency:  1000 * time.Millisecond,
		FailAvgLatency: 2000 * time.Millisecond,
	}
}

// Evaluate maps phase statistics to PASSED, WARNING, or FAILED. A pure
// function: same stats and thresholds always yield the same grade.
// Undefined stats (empty phase) grade as FAILED.
func Evaluate(stats PhaseStats, t Thresholds) Grade {
	if !stats.Defined {
		return GradeFailed
	}
	if stats.SuccessRate < t.FailRate || stats.AvgLatency > t.FailAvgLatency {
		return GradeFailed
	}
	if stats.SuccessRate >= t.PassRate && stats.AvgLatency <= t.MaxAvgLatency {
		return GradePassed
	}
	return GradeWarning
}
