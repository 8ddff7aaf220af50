package floodprobe

import (
	"context"
	"strings"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
	"github.com/valyala/fasthttp"
)

// VegetaEngine adapts tsenart/vegeta to the FloodEngine contract as a
// drop-in alternate for the builtin worker pool.
type VegetaEngine struct {
	logger Logger
}

func NewVegetaEngine(logger Logger) *VegetaEngine {
	if logger == nil {
		logger = NopLogger{}
	}
	return &VegetaEngine{logger: logger}
}

func (e *VegetaEngine) Name() string { return "vegeta" }

// Available always succeeds; vegeta runs in-process.
func (e *VegetaEngine) Available() error { return nil }

func (e *VegetaEngine) Start(ctx context.Context, spec FloodSpec) (*ActiveFlood, error) {
	probeClient := &fasthttp.Client{Name: "floodprobe/probe"}
	if err := probeTarget(probeClient, spec.URL, spec.Timeout); err != nil {
		return nil, err
	}

	// vegeta paces by rate, not by free-running workers; an uncapped
	// spec gets a rate proportional to the requested concurrency.
	freq := spec.Rate
	if freq <= 0 {
		freq = spec.Concurrency * 10
	}
	pacer := vegeta.Rate{Freq: freq, Per: time.Second}
	targeter := vegeta.NewStaticTargeter(vegeta.Target{
		Method: "GET",
		URL:    spec.URL,
	})
	attacker := vegeta.NewAttacker(
		vegeta.Timeout(spec.Timeout),
		vegeta.Workers(uint64(spec.Concurrency)),
		vegeta.MaxWorkers(uint64(spec.Concurrency)),
	)

	floodCtx, cancel := context.WithCancel(ctx)
	startedAt := time.Now()
	flood := newActiveFlood(startedAt, cancel)
	ledger := NewOutcomeLedger()

	// Zero duration keeps the attack running until Stop.
	results := attacker.Attack(targeter, pacer, spec.Duration, "floodprobe")

	go func() {
		<-floodCtx.Done()
		attacker.Stop()
	}()

	go func() {
		for res := range results {
			outcome := outcomeFromVegeta(res)
			ledger.Record(outcome)
			FloodRequests.WithLabelValues(e.Name(), outcomeResultLabel(outcome)).Inc()
			RequestLatency.WithLabelValues("flood").Observe(outcome.Latency.Seconds())
			if spec.MaxRequests > 0 && ledger.Len() >= spec.MaxRequests {
				attacker.Stop()
			}
		}
		stoppedAt := time.Now()
		cancel()
		outcomes := ledger.Snapshot()
		flood.finish(&FloodReport{
			Engine:    e.Name(),
			StartedAt: startedAt,
			StoppedAt: stoppedAt,
			Outcomes:  outcomes,
			Stats:     Aggregate(outcomes, stoppedAt.Sub(startedAt)),
		})
	}()

	return flood, nil
}

func outcomeFromVegeta(res *vegeta.Result) RequestOutcome {
	outcome := RequestOutcome{
		StartedAt:  res.Timestamp,
		Latency:    res.Latency,
		StatusCode: int(res.Code),
		BytesIn:    int(res.BytesIn),
	}
	switch {
	case res.Code >= 200 && res.Code < 300:
		outcome.Success = true
	case res.Code == 0:
		if strings.Contains(strings.ToLower(res.Error), "timeout") {
			outcome.ErrorKind = ErrorKindTimeout
		} else {
			outcome.ErrorKind = ErrorKindNetwork
		}
	default:
		outcome.ErrorKind = statusErrorKind(int(res.Code))
	}
	return outcome
}
