package floodprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// NotificationSender delivers a verdict alert over one channel.
type NotificationSender interface {
	Send(ctx context.Context, payload *NotificationPayload) error
	Name() string
}

// NotificationPayload carries the alert data shared by all channels.
type NotificationPayload struct {
	RunID     string    `json:"runId"`
	Target    string    `json:"target"`
	Endpoint  string    `json:"endpoint"`
	Risk      RiskLevel `json:"risk"`
	Delta     float64   `json:"delta"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationRegistry fans a verdict out to its registered senders.
// A nil registry is valid and sends nothing.
type NotificationRegistry struct {
	logger  Logger
	senders []NotificationSender
}

func NewNotificationRegistry(logger Logger) *NotificationRegistry {
	if logger == nil {
		logger = NopLogger{}
	}
	return &NotificationRegistry{logger: logger}
}

// Register adds a sender.
func (nr *NotificationRegistry) Register(sender NotificationSender) {
	nr.senders = append(nr.senders, sender)
}

// NotifyVerdict alerts on risky runs. Only CRITICAL and ELEVATED
// verdicts produce notifications; delivery failures are logged, never
// raised.
func (nr *NotificationRegistry) NotifyVerdict(ctx context.Context, result *RunResult) {
	if nr == nil || result == nil || result.Verdict == nil {
		return
	}
	if result.Verdict.Risk == RiskNone {
		return
	}
	payload := &NotificationPayload{
		RunID:    result.ID,
		Target:   result.Target,
		Endpoint: result.Endpoint,
		Risk:     result.Verdict.Risk,
		Delta:    result.Verdict.Delta,
		Message: fmt.Sprintf("attack success rate moved from %.0f%% to %.0f%% under load",
			result.Verdict.BaselineSuccessRate*100, result.Verdict.UnderLoadSuccessRate*100),
		Timestamp: time.Now(),
	}
	for _, sender := range nr.senders {
		sendCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		if err := sender.Send(sendCtx, payload); err != nil {
			nr.logger.Error("notification failed", map[string]any{
				"channel": sender.Name(),
				"error":   err.Error(),
			})
		}
		cancel()
	}
}

// LogNotificationSender writes the alert to the engine log.
type LogNotificationSender struct {
	Logger Logger
}

func (s *LogNotificationSender) Name() string { return "log" }

func (s *LogNotificationSender) Send(_ context.Context, payload *NotificationPayload) error {
	logger := s.Logger
	if logger == nil {
		logger = NopLogger{}
	}
	logger.Warn("risk verdict", map[string]any{
		"run":      payload.RunID,
		"endpoint": payload.Endpoint,
		"risk":     string(payload.Risk),
		"delta":    payload.Delta,
		"message":  payload.Message,
	})
	return nil
}

// WebhookNotificationSender POSTs the payload as JSON to a generic
// webhook URL.
type WebhookNotificationSender struct {
	URL    string
	Client *http.Client
}

func (s *WebhookNotificationSender) Name() string { return "webhook" }

func (s *WebhookNotificationSender) Send(ctx context.Context, payload *NotificationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.post(ctx, s.URL, body)
}

func (s *WebhookNotificationSender) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// SlackNotificationSender posts a formatted message to a Slack incoming
// webhook.
type SlackNotificationSender struct {
	WebhookURL string
	Client     *http.Client
}

func (s *SlackNotificationSender) Name() string { return "slack" }

func (s *SlackNotificationSender) Send(ctx context.Context, payload *NotificationPayload) error {
	text := fmt.Sprintf("[%s] %s%s: %s (delta %.2f, run %s)",
		payload.Risk, payload.Target, payload.Endpoint, payload.Message, payload.Delta, payload.RunID)
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}
	w := &WebhookNotificationSender{URL: s.WebhookURL, Client: s.Client}
	return w.post(ctx, s.WebhookURL, body)
}
