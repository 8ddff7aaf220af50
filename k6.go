package floodprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
)

// K6Engine shells out to a locally installed k6 binary. It satisfies the
// FloodEngine contract at summary granularity: k6 does not stream
// per-request outcomes, so the report carries aggregates only.
type K6Engine struct {
	logger Logger
	binary string
}

func NewK6Engine(logger Logger) *K6Engine {
	if logger == nil {
		logger = NopLogger{}
	}
	return &K6Engine{logger: logger, binary: "k6"}
}

func (e *K6Engine) Name() string { return "k6" }

// Available reports DEPENDENCY_UNAVAILABLE when the k6 binary is not on
// PATH; callers mark this engine's tests SKIPPED rather than failed.
func (e *K6Engine) Available() error {
	if _, err := exec.LookPath(e.binary); err != nil {
		return errors.Wrapf(ErrDependencyUnavailable, "%s not found in PATH", e.binary)
	}
	return nil
}

const k6Script = `import http from 'k6/http';

export default function () {
  http.get(__ENV.FLOODPROBE_URL);
}
`

func (e *K6Engine) Start(ctx context.Context, spec FloodSpec) (*ActiveFlood, error) {
	if err := e.Available(); err != nil {
		return nil, err
	}
	probeClient := &fasthttp.Client{Name: "floodprobe/probe"}
	if err := probeTarget(probeClient, spec.URL, spec.Timeout); err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp("", "floodprobe-k6-")
	if err != nil {
		return nil, errors.Wrap(err, "create k6 work dir")
	}
	scriptPath := filepath.Join(workDir, "flood.js")
	summaryPath := filepath.Join(workDir, "summary.json")
	if err := os.WriteFile(scriptPath, []byte(k6Script), 0644); err != nil {
		os.RemoveAll(workDir)
		return nil, errors.Wrap(err, "write k6 script")
	}

	// Zero duration means cancel-driven: give k6 a far ceiling and stop
	// it with an interrupt, which k6 treats as a graceful stop.
	duration := spec.Duration
	if duration <= 0 {
		duration = time.Hour
	}

	floodCtx, cancel := context.WithCancel(ctx)
	cmd := exec.Command(e.binary, "run", "--quiet",
		"--vus", fmt.Sprintf("%d", spec.Concurrency),
		"--duration", duration.String(),
		"--summary-export", summaryPath,
		scriptPath,
	)
	cmd.Env = append(os.Environ(), "FLOODPROBE_URL="+spec.URL)

	startedAt := time.Now()
	if err := cmd.Start(); err != nil {
		cancel()
		os.RemoveAll(workDir)
		return nil, errors.Wrap(err, "start k6")
	}
	flood := newActiveFlood(startedAt, cancel)

	go func() {
		<-floodCtx.Done()
		if cmd.Process != nil {
			cmd.Process.Signal(os.Interrupt)
		}
	}()

	go func() {
		defer os.RemoveAll(workDir)
		if err := cmd.Wait(); err != nil {
			e.logger.Warn("k6 exited with error", map[string]any{"error": err.Error()})
		}
		stoppedAt := time.Now()
		cancel()
		stats, err := parseK6Summary(summaryPath)
		if err != nil {
			e.logger.Error("failed to parse k6 summary", map[string]any{"error": err.Error()})
		}
		flood.finish(&FloodReport{
			Engine:    e.Name(),
			StartedAt: startedAt,
			StoppedAt: stoppedAt,
			Stats:     stats,
		})
	}()

	return flood, nil
}

// parseK6Summary maps k6's --summary-export JSON onto PhaseStats.
func parseK6Summary(path string) (PhaseStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PhaseStats{}, errors.Wrap(err, "read k6 summary")
	}
	var summary struct {
		Metrics map[string]map[string]float64 `json:"metrics"`
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		return PhaseStats{}, errors.Wrap(err, "decode k6 summary")
	}

	reqs := summary.Metrics["http_reqs"]
	duration := summary.Metrics["http_req_duration"]
	failed := summary.Metrics["http_req_failed"]

	count := int(reqs["count"])
	if count == 0 {
		return PhaseStats{}, nil
	}
	failRate := failed["value"]
	stats := PhaseStats{
		Defined:      true,
		Count:        count,
		SuccessCount: count - int(failRate*float64(count)+0.5),
		AvgLatency:   msToDuration(duration["avg"]),
		MinLatency:   msToDuration(duration["min"]),
		MaxLatency:   msToDuration(duration["max"]),
		P95Latency:   msToDuration(duration["p(95)"]),
		Throughput:   reqs["rate"],
	}
	stats.SuccessRate = float64(stats.SuccessCount) / float64(stats.Count)
	return stats, nil
}

func msToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
