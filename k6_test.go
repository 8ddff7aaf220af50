package floodprobe

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestK6AvailableWithoutBinary(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	engine := NewK6Engine(NopLogger{})
	err := engine.Available()
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("err = %v, want ErrDependencyUnavailable", err)
	}
}

func TestParseK6Summary(t *testing.T) {
	summary := `{
		"metrics": {
			"http_reqs": {"count": 200, "rate": 40.0},
			"http_req_duration": {"avg": 12.5, "min": 1.0, "max": 310.0, "p(95)": 80.0},
			"http_req_failed": {"value": 0.1}
		}
	}`
	path := filepath.Join(t.TempDir(), "summary.json")
	if err := os.WriteFile(path, []byte(summary), 0644); err != nil {
		t.Fatalf("write summary: %v", err)
	}

	stats, err := parseK6Summary(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !stats.Defined || stats.Count != 200 {
		t.Fatalf("count = %d, defined = %v", stats.Count, stats.Defined)
	}
	if stats.SuccessCount != 180 {
		t.Fatalf("success count = %d, want 180", stats.SuccessCount)
	}
	if stats.SuccessRate != 0.9 {
		t.Fatalf("success rate = %v, want 0.9", stats.SuccessRate)
	}
	if stats.P95Latency != 80*time.Millisecond {
		t.Fatalf("p95 = %v, want 80ms", stats.P95Latency)
	}
	if stats.Throughput != 40.0 {
		t.Fatalf("throughput = %v", stats.Throughput)
	}
}

func TestParseK6SummaryEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	if err := os.WriteFile(path, []byte(`{"metrics":{}}`), 0644); err != nil {
		t.Fatalf("write summary: %v", err)
	}
	stats, err := parseK6Summary(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if stats.Defined {
		t.Fatal("empty summary must yield undefined stats")
	}
}
