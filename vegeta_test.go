package floodprobe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestVegetaEngineShortFlood(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	engine := NewVegetaEngine(NopLogger{})
	if err := engine.Available(); err != nil {
		t.Fatalf("in-process engine reported unavailable: %v", err)
	}

	flood, err := engine.Start(context.Background(), FloodSpec{
		URL:         srv.URL,
		Concurrency: 4,
		Duration:    300 * time.Millisecond,
		Rate:        50,
		Timeout:     2 * time.Second,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	report := flood.Wait()

	if report.Engine != "vegeta" {
		t.Fatalf("engine = %q", report.Engine)
	}
	if report.Stats.Count == 0 {
		t.Fatal("no outcomes recorded")
	}
	if report.Stats.SuccessRate != 1.0 {
		t.Fatalf("success rate = %v against a healthy target", report.Stats.SuccessRate)
	}
}

func TestVegetaEngineCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	engine := NewVegetaEngine(NopLogger{})
	flood, err := engine.Start(context.Background(), FloodSpec{
		URL:         srv.URL,
		Concurrency: 2,
		Rate:        50,
		Timeout:     2 * time.Second,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	flood.Cancel()

	select {
	case <-flood.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("vegeta flood did not stop after cancellation")
	}
}

func TestVegetaEngineUnreachableTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	engine := NewVegetaEngine(NopLogger{})
	_, err := engine.Start(context.Background(), FloodSpec{
		URL:         url,
		Concurrency: 2,
		Duration:    time.Second,
		Timeout:     500 * time.Millisecond,
	})
	if !errors.Is(err, ErrUnreachableTarget) {
		t.Fatalf("err = %v, want ErrUnreachableTarget", err)
	}
}
