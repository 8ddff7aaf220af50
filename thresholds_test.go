package floodprobe

import (
	"testing"
	"time"
)

func TestEvaluate(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		name    string
		rate    float64
		latency time.Duration
		want    Grade
	}{
		{"healthy", 0.9, 300 * time.Millisecond, GradePassed},
		{"boundary pass", 0.8, 1000 * time.Millisecond, GradePassed},
		{"degraded rate", 0.6, 300 * time.Millisecond, GradeWarning},
		{"degraded latency", 0.9, 1500 * time.Millisecond, GradeWarning},
		{"collapsed rate", 0.3, 300 * time.Millisecond, GradeFailed},
		{"collapsed latency", 0.9, 2500 * time.Millisecond, GradeFailed},
		{"both collapsed", 0.1, 5 * time.Second, GradeFailed},
	}
	for _, c := range cases {
		stats := PhaseStats{Defined: true, Count: 100, SuccessRate: c.rate, AvgLatency: c.latency}
		if got := Evaluate(stats, th); got != c.want {
			t.Errorf("%s: Evaluate(rate=%v, avg=%v) = %v, want %v", c.name, c.rate, c.latency, got, c.want)
		}
	}
}

func TestEvaluateUndefinedFails(t *testing.T) {
	if got := Evaluate(PhaseStats{}, DefaultThresholds()); got != GradeFailed {
		t.Fatalf("undefined stats graded %v, want %v", got, GradeFailed)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	stats := PhaseStats{Defined: true, Count: 50, SuccessRate: 0.75, AvgLatency: 800 * time.Millisecond}
	th := DefaultThresholds()
	first := Evaluate(stats, th)
	for i := 0; i < 10; i++ {
		if got := Evaluate(stats, th); got != first {
			t.Fatalf("evaluation not deterministic: %v then %v", first, got)
		}
	}
}
