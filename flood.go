package floodprobe

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

// Flooder is the built-in FloodEngine: a pool of workers issuing benign
// GET requests until the stop condition or cancellation fires.
type Flooder struct {
	logger Logger
}

func NewFlooder(logger Logger) *Flooder {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Flooder{logger: logger}
}

func (f *Flooder) Name() string { return "builtin" }

// Available always succeeds; the builtin engine has no external
// prerequisites.
func (f *Flooder) Available() error { return nil }

// Start probes the target, then launches spec.Concurrency workers. Each
// worker loops request/response cycles, checking cancellation only
// between iterations so in-flight requests always finish. Every issued
// request lands in the shared ledger exactly once.
func (f *Flooder) Start(ctx context.Context, spec FloodSpec) (*ActiveFlood, error) {
	client := &fasthttp.Client{
		Name:            "floodprobe/flood",
		MaxConnsPerHost: spec.Concurrency * 2,
		ReadTimeout:     spec.Timeout,
		WriteTimeout:    spec.Timeout,
	}

	if err := probeTarget(client, spec.URL, spec.Timeout); err != nil {
		return nil, err
	}

	floodCtx, cancel := context.WithCancel(ctx)
	if spec.Duration > 0 {
		time.AfterFunc(spec.Duration, cancel)
	}

	var limiter *rate.Limiter
	if spec.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(spec.Rate), spec.Concurrency)
	}

	ledger := NewOutcomeLedger()
	var issued int64
	startedAt := time.Now()
	flood := newActiveFlood(startedAt, cancel)

	f.logger.Info("flood started", map[string]any{
		"url":         spec.URL,
		"concurrency": spec.Concurrency,
		"duration":    spec.Duration.String(),
	})

	var wg sync.WaitGroup
	for i := 0; i < spec.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-floodCtx.Done():
					return
				default:
				}
				if spec.MaxRequests > 0 && atomic.AddInt64(&issued, 1) > int64(spec.MaxRequests) {
					cancel()
					return
				}
				if limiter != nil {
					if err := limiter.Wait(floodCtx); err != nil {
						if spec.MaxRequests > 0 {
							atomic.AddInt64(&issued, -1)
						}
						return
					}
				}
				outcome := issueFloodRequest(client, spec.URL, spec.Timeout)
				ledger.Record(outcome)
				FloodRequests.WithLabelValues(f.Name(), outcomeResultLabel(outcome)).Inc()
				RequestLatency.WithLabelValues("flood").Observe(outcome.Latency.Seconds())
			}
		}()
	}

	go func() {
		wg.Wait()
		stoppedAt := time.Now()
		cancel()
		outcomes := ledger.Snapshot()
		report := &FloodReport{
			Engine:    f.Name(),
			StartedAt: startedAt,
			StoppedAt: stoppedAt,
			Outcomes:  outcomes,
			Stats:     Aggregate(outcomes, stoppedAt.Sub(startedAt)),
		}
		f.logger.Info("flood stopped", map[string]any{
			"requests":    report.Stats.Count,
			"successRate": report.Stats.SuccessRate,
		})
		flood.finish(report)
	}()

	return flood, nil
}

// issueFloodRequest runs one request/response cycle. Failures are data,
// never errors: the worker keeps running regardless of what the network
// does.
func issueFloodRequest(client *fasthttp.Client, url string, timeout time.Duration) RequestOutcome {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	started := time.Now()
	err := client.DoTimeout(req, resp, timeout)
	outcome := RequestOutcome{
		StartedAt: started,
		Latency:   time.Since(started),
	}
	if err != nil {
		outcome.ErrorKind = classifyTransportError(err)
		return outcome
	}
	outcome.StatusCode = resp.StatusCode()
	outcome.BytesIn = len(resp.Body())
	if outcome.StatusCode >= 200 && outcome.StatusCode < 300 {
		outcome.Success = true
	} else {
		outcome.ErrorKind = statusErrorKind(outcome.StatusCode)
	}
	return outcome
}

func classifyTransportError(err error) ErrorKind {
	if errors.Is(err, fasthttp.ErrTimeout) || errors.Is(err, fasthttp.ErrDialTimeout) {
		return ErrorKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorKindTimeout
	}
	return ErrorKindNetwork
}

func statusErrorKind(status int) ErrorKind {
	if status >= 500 {
		return ErrorKindServerError
	}
	return ErrorKindClientError
}

// probeTarget issues a handful of requests before the flood starts. Any
// HTTP response at all counts as reachable; zero responses is
// UNREACHABLE_TARGET.
func probeTarget(client *fasthttp.Client, url string, timeout time.Duration) error {
	const probes = 3
	var lastErr error
	for i := 0; i < probes; i++ {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		req.SetRequestURI(url)
		req.Header.SetMethod(fasthttp.MethodGet)
		err := client.DoTimeout(req, resp, timeout)
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return pkgerrors.Wrapf(ErrUnreachableTarget, "probe %s: %v", url, lastErr)
}
