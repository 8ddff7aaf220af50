package floodprobe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFlooderStopsOnMaxRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	flooder := NewFlooder(NopLogger{})
	flood, err := flooder.Start(context.Background(), FloodSpec{
		URL:         srv.URL,
		Concurrency: 4,
		MaxRequests: 25,
		Timeout:     2 * time.Second,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	report := flood.Wait()

	if report.Stats.Count != 25 {
		t.Fatalf("recorded %d outcomes, want exactly 25", report.Stats.Count)
	}
	if len(report.Outcomes) != 25 {
		t.Fatalf("outcome stream has %d entries, want 25", len(report.Outcomes))
	}
	if report.Stats.SuccessRate != 1.0 {
		t.Fatalf("success rate = %v against a healthy target", report.Stats.SuccessRate)
	}
}

func TestFlooderCooperativeCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	flooder := NewFlooder(NopLogger{})
	flood, err := flooder.Start(context.Background(), FloodSpec{
		URL:         srv.URL,
		Concurrency: 4,
		Timeout:     2 * time.Second,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	flood.Cancel()

	select {
	case <-flood.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("flood did not stop after cancellation")
	}

	report := flood.Wait()
	if report.Stats.Count == 0 {
		t.Fatal("no outcomes recorded before cancellation")
	}
}

func TestFlooderOutcomesFallInsideWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	flooder := NewFlooder(NopLogger{})
	flood, err := flooder.Start(context.Background(), FloodSpec{
		URL:         srv.URL,
		Concurrency: 3,
		Duration:    200 * time.Millisecond,
		Timeout:     2 * time.Second,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	report := flood.Wait()

	if report.StoppedAt.Before(report.StartedAt) {
		t.Fatalf("window inverted: %v .. %v", report.StartedAt, report.StoppedAt)
	}
	for i, o := range report.Outcomes {
		if o.StartedAt.Before(report.StartedAt) || o.StartedAt.After(report.StoppedAt) {
			t.Fatalf("outcome %d started at %v, outside [%v, %v]",
				i, o.StartedAt, report.StartedAt, report.StoppedAt)
		}
	}
}

func TestFlooderErrorsAreDataNotAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	flooder := NewFlooder(NopLogger{})
	flood, err := flooder.Start(context.Background(), FloodSpec{
		URL:         srv.URL,
		Concurrency: 2,
		MaxRequests: 10,
		Timeout:     2 * time.Second,
	})
	if err != nil {
		t.Fatalf("a target answering 500s is reachable, got %v", err)
	}
	report := flood.Wait()

	if report.Stats.Count != 10 {
		t.Fatalf("recorded %d outcomes, want 10", report.Stats.Count)
	}
	if report.Stats.SuccessRate != 0 {
		t.Fatalf("success rate = %v against a 500-only target", report.Stats.SuccessRate)
	}
	if report.Stats.ErrorKinds[ErrorKindServerError] != 10 {
		t.Fatalf("error kinds = %v, want 10 server errors", report.Stats.ErrorKinds)
	}
}

func TestFlooderUnreachableTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	flooder := NewFlooder(NopLogger{})
	_, err := flooder.Start(context.Background(), FloodSpec{
		URL:         url,
		Concurrency: 2,
		Duration:    time.Second,
		Timeout:     500 * time.Millisecond,
	})
	if !errors.Is(err, ErrUnreachableTarget) {
		t.Fatalf("err = %v, want ErrUnreachableTarget", err)
	}
}

func TestFlooderRateCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	flooder := NewFlooder(NopLogger{})
	flood, err := flooder.Start(context.Background(), FloodSpec{
		URL:         srv.URL,
		Concurrency: 8,
		Duration:    500 * time.Millisecond,
		Rate:        20,
		Timeout:     2 * time.Second,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	report := flood.Wait()

	// 20 req/s over half a second plus the initial burst allowance.
	if report.Stats.Count > 40 {
		t.Fatalf("rate cap ignored: %d requests in 500ms at 20 req/s", report.Stats.Count)
	}
}
