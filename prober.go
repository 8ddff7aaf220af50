package floodprobe

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxProbeBodyBytes bounds how much of a response the prober inspects
// for evidence.
const maxProbeBodyBytes = 1 << 20

// AttackProber delivers an ordered payload sequence against an endpoint
// and classifies each response for evidence of exploitation.
type AttackProber struct {
	logger Logger
	client *http.Client
}

func NewAttackProber(logger Logger, timeout time.Duration) *AttackProber {
	if logger == nil {
		logger = NopLogger{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AttackProber{
		logger: logger,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
				MaxIdleConns:    8,
			},
		},
	}
}

// ProbeSpec parametrizes one attack sequence.
type ProbeSpec struct {
	Endpoint  string // absolute URL of the endpoint under test
	Parameter string // injectable query parameter name
	Payloads  []Payload
	Delay     time.Duration // optional pause between attempts
	Phase     PhaseKind
}

// Probe issues one request per payload, in payload order, and returns one
// AttackAttempt per payload delivered. An unreachable target records a
// failed attempt and moves on; the sequence only stops early when the
// context is cancelled.
func (p *AttackProber) Probe(ctx context.Context, spec ProbeSpec) []AttackAttempt {
	attempts := make([]AttackAttempt, 0, len(spec.Payloads))
	for i, payload := range spec.Payloads {
		if ctx.Err() != nil {
			break
		}
		attempt := p.deliver(ctx, spec, payload)
		attempts = append(attempts, attempt)
		AttackAttempts.WithLabelValues(string(spec.Phase), strconv.FormatBool(attempt.Matched)).Inc()
		RequestLatency.WithLabelValues("attack").Observe(attempt.Outcome.Latency.Seconds())

		if spec.Delay > 0 && i < len(spec.Payloads)-1 {
			if !sleepCtx(ctx, spec.Delay) {
				break
			}
		}
	}
	return attempts
}

func (p *AttackProber) deliver(ctx context.Context, spec ProbeSpec, payload Payload) AttackAttempt {
	attempt := AttackAttempt{
		Payload:  payload,
		Endpoint: spec.Endpoint,
	}

	target, err := injectParam(spec.Endpoint, spec.Parameter, payload.Literal)
	if err != nil {
		attempt.Outcome = RequestOutcome{StartedAt: time.Now(), ErrorKind: ErrorKindNetwork}
		return attempt
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		attempt.Outcome = RequestOutcome{StartedAt: time.Now(), ErrorKind: ErrorKindNetwork}
		return attempt
	}
	req.Header.Set("User-Agent", "floodprobe/attack")

	started := time.Now()
	resp, err := p.client.Do(req)
	latency := time.Since(started)
	attempt.Outcome = RequestOutcome{StartedAt: started, Latency: latency}

	if err != nil {
		attempt.Outcome.ErrorKind = classifyProbeError(err)
		p.logger.Debug("attack request failed", map[string]any{
			"payload": payload.Literal,
			"error":   err.Error(),
		})
		return attempt
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxProbeBodyBytes))
	attempt.Outcome.StatusCode = resp.StatusCode
	attempt.Outcome.BytesIn = len(body)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		attempt.Outcome.Success = true
	} else {
		attempt.Outcome.ErrorKind = statusErrorKind(resp.StatusCode)
	}

	headers := flattenHeaders(resp.Header)
	if matched, what := payload.MatchEvidence(string(body), headers); matched {
		attempt.Matched = true
		attempt.Evidence = what
		return attempt
	}

	// A server error exposing diagnostic content is an anomalous signal
	// even when no payload-specific pattern hits.
	if resp.StatusCode >= 500 {
		for i := range diagnosticLeakPatterns {
			if ok, what := diagnosticLeakPatterns[i].Match(string(body)); ok {
				attempt.Matched = true
				attempt.Evidence = "diagnostic:" + what
				return attempt
			}
		}
	}
	return attempt
}

func classifyProbeError(err error) ErrorKind {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorKindTimeout
	}
	return ErrorKindNetwork
}

func flattenHeaders(h http.Header) string {
	var b strings.Builder
	for name, values := range h {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(strings.Join(values, ","))
		b.WriteString("\n")
	}
	return b.String()
}

// sleepCtx waits for d or until the context is cancelled. Returns false
// on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
