package floodprobe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWebhookSenderDeliversPayload(t *testing.T) {
	var mu sync.Mutex
	var received []NotificationPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var p NotificationPayload
		if err := json.Unmarshal(body, &p); err != nil {
			t.Errorf("bad webhook body: %v", err)
		}
		mu.Lock()
		received = append(received, p)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	registry := NewNotificationRegistry(NopLogger{})
	registry.Register(&WebhookNotificationSender{URL: srv.URL})

	result := sampleRun("run-hook", RiskCritical, time.Now())
	registry.NotifyVerdict(context.Background(), result)

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("webhook received %d payloads, want 1", len(received))
	}
	if received[0].RunID != "run-hook" || received[0].Risk != RiskCritical {
		t.Fatalf("payload = %+v", received[0])
	}
}

func TestNotifySkipsQuietVerdicts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	registry := NewNotificationRegistry(NopLogger{})
	registry.Register(&WebhookNotificationSender{URL: srv.URL})

	registry.NotifyVerdict(context.Background(), sampleRun("run-quiet", RiskNone, time.Now()))
	registry.NotifyVerdict(context.Background(), &RunResult{ID: "run-aborted", State: StateAborted})
	registry.NotifyVerdict(context.Background(), nil)

	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Fatalf("webhook called %d times for quiet verdicts", n)
	}
}

func TestNotifyFailuresAreLoggedNotRaised(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	registry := NewNotificationRegistry(NopLogger{})
	registry.Register(&WebhookNotificationSender{URL: srv.URL})

	// Must not panic or surface the delivery failure.
	registry.NotifyVerdict(context.Background(), sampleRun("run-fail", RiskElevated, time.Now()))
}

func TestNilRegistryIsSafe(t *testing.T) {
	var registry *NotificationRegistry
	registry.NotifyVerdict(context.Background(), sampleRun("run-nil", RiskCritical, time.Now()))
}
