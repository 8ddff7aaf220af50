package floodprobe

import (
	"sort"
	"time"
)

// ComparisonVerdict is the run's final classification: did load make the
// attacks more successful?
type ComparisonVerdict struct {
	BaselineSuccessRate  float64       `json:"baselineSuccessRate"`
	UnderLoadSuccessRate float64       `json:"underLoadSuccessRate"`
	Delta                float64       `json:"delta"`
	Margin               float64       `json:"margin"`
	Risk                 RiskLevel     `json:"risk"`
	BaselineAvgLatency   time.Duration `json:"baselineAvgLatency"`
	UnderLoadAvgLatency  time.Duration `json:"underLoadAvgLatency"`
	AttackLatencyDelta   time.Duration `json:"attackLatencyDelta"`
	NewEvidence          []string      `json:"newEvidence,omitempty"`
	SystemStressed       bool          `json:"systemStressed"`
}

// CompareAttempts computes the verdict from the baseline and under-load
// attempt sets. margin is the delta at or above which the risk is
// CRITICAL. A delta below the margin with evidence categories that only
// appear under load classifies as ELEVATED.
func CompareAttempts(baseline, underLoad []AttackAttempt, margin float64) ComparisonVerdict {
	verdict := ComparisonVerdict{
		BaselineSuccessRate:  AttackSuccessRate(baseline),
		UnderLoadSuccessRate: AttackSuccessRate(underLoad),
		Margin:               margin,
		BaselineAvgLatency:   avgAttemptLatency(baseline),
		UnderLoadAvgLatency:  avgAttemptLatency(underLoad),
	}
	verdict.Delta = verdict.UnderLoadSuccessRate - verdict.BaselineSuccessRate
	verdict.AttackLatencyDelta = verdict.UnderLoadAvgLatency - verdict.BaselineAvgLatency
	verdict.NewEvidence = newEvidenceCategories(baseline, underLoad)

	switch {
	case verdict.Delta >= margin && margin > 0:
		verdict.Risk = RiskCritical
	case len(verdict.NewEvidence) > 0:
		verdict.Risk = RiskElevated
	default:
		verdict.Risk = RiskNone
	}
	return verdict
}

// newEvidenceCategories lists evidence categories matched under load that
// never appeared at baseline, sorted for stable output.
func newEvidenceCategories(baseline, underLoad []AttackAttempt) []string {
	seen := make(map[string]struct{})
	for _, a := range baseline {
		if cat := a.EvidenceCategory(); cat != "" {
			seen[cat] = struct{}{}
		}
	}
	fresh := make(map[string]struct{})
	for _, a := range underLoad {
		cat := a.EvidenceCategory()
		if cat == "" {
			continue
		}
		if _, ok := seen[cat]; !ok {
			fresh[cat] = struct{}{}
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	out := make([]string, 0, len(fresh))
	for cat := range fresh {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// classifyStress decides whether the target degraded under flood: error
// rate above the configured ceiling, or average latency beyond the
// configured multiple of the baseline average.
func classifyStress(flood PhaseStats, baselineAvg time.Duration, maxErrorRate, latencyRatio float64) bool {
	if !flood.Defined {
		return false
	}
	if flood.ErrorRate() > maxErrorRate {
		return true
	}
	if baselineAvg > 0 && float64(flood.AvgLatency) > latencyRatio*float64(baselineAvg) {
		return true
	}
	return false
}
