package floodprobe

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// TargetConfig names what gets tested: a base URL, endpoint templates
// under it, and the query parameter both streams inject into.
type TargetConfig struct {
	BaseURL   string   `yaml:"base_url" json:"baseURL"`
	Endpoints []string `yaml:"endpoints" json:"endpoints"`
	Parameter string   `yaml:"parameter" json:"parameter"`
}

// AttackConfig selects payloads and paces the probe sequence.
type AttackConfig struct {
	// Kinds picks built-in payload sets; empty means all of them.
	Kinds []string `yaml:"kinds" json:"kinds"`
	// Payloads adds target-specific payloads on top of the built-ins.
	Payloads []Payload `yaml:"payloads" json:"payloads,omitempty"`
	// DelayMs is an optional pause between attempts. Pacing only, never
	// a correctness requirement.
	DelayMs int `yaml:"delay_ms" json:"delayMs"`
	// Margin is the success-rate delta at or above which the verdict is
	// CRITICAL.
	Margin float64 `yaml:"margin" json:"margin"`
}

// FloodConfig paces the benign flood.
type FloodConfig struct {
	Engine             string  `yaml:"engine" json:"engine"`
	Concurrency        int     `yaml:"concurrency" json:"concurrency"`
	DurationSeconds    int     `yaml:"duration_seconds" json:"durationSeconds"`
	RatePerSecond      int     `yaml:"rate_per_second" json:"ratePerSecond"`
	MaxRequests        int     `yaml:"max_requests" json:"maxRequests"`
	TimeoutSeconds     int     `yaml:"timeout_seconds" json:"timeoutSeconds"`
	StressErrorRate    float64 `yaml:"stress_error_rate" json:"stressErrorRate"`
	StressLatencyRatio float64 `yaml:"stress_latency_factor" json:"stressLatencyFactor"`
}

// ThresholdConfig is the file form of Thresholds.
type ThresholdConfig struct {
	PassRate         float64 `yaml:"pass_rate" json:"passRate"`
	FailRate         float64 `yaml:"fail_rate" json:"failRate"`
	MaxAvgLatencyMs  int     `yaml:"max_avg_latency_ms" json:"maxAvgLatencyMs"`
	FailAvgLatencyMs int     `yaml:"fail_avg_latency_ms" json:"failAvgLatencyMs"`
}

// NotifyConfig wires verdict notifications.
type NotifyConfig struct {
	WebhookURL      string `yaml:"webhook_url" json:"webhookURL,omitempty"`
	SlackWebhookURL string `yaml:"slack_webhook_url" json:"slackWebhookURL,omitempty"`
}

type Config struct {
	Target     TargetConfig    `yaml:"target" json:"target"`
	Attack     AttackConfig    `yaml:"attack" json:"attack"`
	Flood      FloodConfig     `yaml:"flood" json:"flood"`
	Thresholds ThresholdConfig `yaml:"thresholds" json:"thresholds"`
	Notify     NotifyConfig    `yaml:"notify" json:"notify"`
	LogLevel   string          `yaml:"log_level" json:"logLevel"`
}

// LoadConfig reads a YAML config file, applies defaults and environment
// overrides, and validates the result. Any defect is CONFIG_ERROR and
// fatal before a phase runs.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrConfig, "read %s: %v", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(ErrConfig, "parse %s: %v", path, err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := NewConfigValidator().Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Flood.Engine == "" {
		c.Flood.Engine = "builtin"
	}
	if c.Flood.Concurrency == 0 {
		c.Flood.Concurrency = 50
	}
	if c.Flood.DurationSeconds == 0 {
		c.Flood.DurationSeconds = 30
	}
	if c.Flood.TimeoutSeconds == 0 {
		c.Flood.TimeoutSeconds = 5
	}
	if c.Flood.StressErrorRate == 0 {
		c.Flood.StressErrorRate = 0.2
	}
	if c.Flood.StressLatencyRatio == 0 {
		c.Flood.StressLatencyRatio = 2.0
	}
	if c.Attack.Margin == 0 {
		c.Attack.Margin = 0.2
	}
	if c.Attack.DelayMs == 0 {
		c.Attack.DelayMs = 100
	}
	if c.Thresholds.PassRate == 0 {
		c.Thresholds.PassRate = 0.8
	}
	if c.Thresholds.FailRate == 0 {
		c.Thresholds.FailRate = 0.5
	}
	if c.Thresholds.MaxAvgLatencyMs == 0 {
		c.Thresholds.MaxAvgLatencyMs = 1000
	}
	if c.Thresholds.FailAvgLatencyMs == 0 {
		c.Thresholds.FailAvgLatencyMs = 2000
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) applyEnv() {
	if val := os.Getenv("FLOODPROBE_TARGET"); val != "" {
		c.Target.BaseURL = val
	}
	if val := os.Getenv("FLOODPROBE_CONCURRENCY"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Flood.Concurrency = n
		}
	}
	if val := os.Getenv("FLOODPROBE_DURATION_SECONDS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Flood.DurationSeconds = n
		}
	}
	if val := os.Getenv("FLOODPROBE_ENGINE"); val != "" {
		c.Flood.Engine = val
	}
}

// FloodSpecFor builds the flood parameters for one endpoint URL.
func (c *Config) FloodSpecFor(url string) FloodSpec {
	return FloodSpec{
		URL:         url,
		Concurrency: c.Flood.Concurrency,
		Duration:    time.Duration(c.Flood.DurationSeconds) * time.Second,
		MaxRequests: c.Flood.MaxRequests,
		Rate:        c.Flood.RatePerSecond,
		Timeout:     time.Duration(c.Flood.TimeoutSeconds) * time.Second,
	}
}

// EvalThresholds converts the file form into evaluator thresholds.
func (c *Config) EvalThresholds() Thresholds {
	return Thresholds{
		PassRate:       c.Thresholds.PassRate,
		FailRate:       c.Thresholds.FailRate,
		MaxAvgLatency:  time.Duration(c.Thresholds.MaxAvgLatencyMs) * time.Millisecond,
		FailAvgLatency: time.Duration(c.Thresholds.FailAvgLatencyMs) * time.Millisecond,
	}
}

// AttackDelay is the configured pause between probe attempts.
func (c *Config) AttackDelay() time.Duration {
	return time.Duration(c.Attack.DelayMs) * time.Millisecond
}

// PayloadSequence resolves the ordered payload list: the selected
// built-in sets followed by any target-specific extras.
func (c *Config) PayloadSequence() []Payload {
	kinds := make([]VulnKind, 0, len(c.Attack.Kinds))
	for _, k := range c.Attack.Kinds {
		kinds = append(kinds, VulnKind(k))
	}
	if len(kinds) == 0 {
		kinds = AllVulnKinds()
	}
	payloads := BuiltinPayloads(kinds...)
	payloads = append(payloads, c.Attack.Payloads...)
	return payloads
}
