package floodprobe

import (
	"math"
	"sort"
	"time"
)

// PhaseStats summarizes an outcome set. When Defined is false the set was
// empty and every rate/latency field is meaningless, not zero-by-accident.
type PhaseStats struct {
	Defined      bool              `json:"defined"`
	Count        int               `json:"count"`
	SuccessCount int               `json:"successCount"`
	SuccessRate  float64           `json:"successRate"`
	AvgLatency   time.Duration     `json:"avgLatency"`
	MinLatency   time.Duration     `json:"minLatency"`
	MaxLatency   time.Duration     `json:"maxLatency"`
	P95Latency   time.Duration     `json:"p95Latency"`
	Throughput   float64           `json:"throughput"`
	ErrorKinds   map[ErrorKind]int `json:"errorKinds,omitempty"`
}

// ErrorRate is the fraction of outcomes that failed.
func (s PhaseStats) ErrorRate() float64 {
	if !s.Defined || s.Count == 0 {
		return 0
	}
	return float64(s.Count-s.SuccessCount) / float64(s.Count)
}

// Aggregate reduces an outcome set to summary statistics. It is a pure
// function of its inputs: deterministic, idempotent, and independent of
// the arrival order of outcomes. wall is the phase's bounded execution
// window, used for throughput.
func Aggregate(outcomes []RequestOutcome, wall time.Duration) PhaseStats {
	if len(outcomes) == 0 {
		return PhaseStats{}
	}

	stats := PhaseStats{
		Defined:    true,
		Count:      len(outcomes),
		ErrorKinds: make(map[ErrorKind]int),
	}

	latencies := make([]time.Duration, 0, len(outcomes))
	var total time.Duration
	for _, o := range outcomes {
		if o.Success {
			stats.SuccessCount++
		} else if o.ErrorKind != ErrorKindNone {
			stats.ErrorKinds[o.ErrorKind]++
		}
		latencies = append(latencies, o.Latency)
		total += o.Latency
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	stats.SuccessRate = float64(stats.SuccessCount) / float64(stats.Count)
	stats.AvgLatency = total / time.Duration(stats.Count)
	stats.MinLatency = latencies[0]
	stats.MaxLatency = latencies[len(latencies)-1]
	stats.P95Latency = latencies[percentileIndex(len(latencies), 0.95)]
	if wall > 0 {
		stats.Throughput = float64(stats.Count) / wall.Seconds()
	}
	return stats
}

// percentileIndex selects ceil(q*N)-1 clamped into [0, N).
func percentileIndex(n int, q float64) int {
	idx := int(math.Ceil(q*float64(n))) - 1
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}
