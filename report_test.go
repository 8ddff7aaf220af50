package floodprobe

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestWriteJSONRoundTrip(t *testing.T) {
	run := sampleRun("run-json", RiskCritical, time.Now().UTC())
	var buf bytes.Buffer
	if err := WriteJSON(&buf, run); err != nil {
		t.Fatalf("write: %v", err)
	}

	var decoded RunResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ID != "run-json" || decoded.Verdict.Risk != RiskCritical {
		t.Fatalf("round trip lost data: %+v", decoded)
	}
}

func TestRenderHTML(t *testing.T) {
	run := sampleRun("run-html", RiskCritical, time.Now())
	run.Loading = &PhaseResult{
		Kind: PhaseLoading,
		Stats: PhaseStats{
			Defined:     true,
			Count:       500,
			SuccessRate: 0.95,
			AvgLatency:  42 * time.Millisecond,
			P95Latency:  120 * time.Millisecond,
		},
		Grade:    GradePassed,
		Stressed: true,
	}
	run.UnderLoad = &PhaseResult{
		Kind: PhaseUnderLoad,
		Attempts: []AttackAttempt{
			{
				Payload:  Payload{Kind: VulnXSS, Literal: "<script>alert(1)</script>"},
				Outcome:  RequestOutcome{StatusCode: 200, Latency: 15 * time.Millisecond},
				Matched:  true,
				Evidence: "substring:<script>alert(1)</script>",
			},
		},
	}

	var buf bytes.Buffer
	if err := RenderHTML(&buf, []*RunResult{run}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"run-html",
		"CRITICAL: attacks were more successful under load",
		"95.0%",
		"42ms",
		"Target stressed under load",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
	// The payload literal must be escaped, never emitted as live markup.
	if strings.Contains(out, "<script>alert(1)</script>") {
		t.Fatal("payload rendered unescaped into the report")
	}
}

func TestRenderHTMLAbortedRun(t *testing.T) {
	run := &RunResult{
		ID:          "run-aborted",
		Target:      "http://localhost:8080",
		Endpoint:    "/search",
		State:       StateAborted,
		AbortReason: AbortUnreachable,
		StartedAt:   time.Now(),
	}
	var buf bytes.Buffer
	if err := RenderHTML(&buf, []*RunResult{run}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "unreachable_target") {
		t.Fatal("abort reason missing from report")
	}
}
