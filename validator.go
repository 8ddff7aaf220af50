package floodprobe

import (
	"net/url"
)

// ConfigValidator checks a Config before any phase may execute.
type ConfigValidator struct{}

func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

func (v *ConfigValidator) Validate(cfg *Config) error {
	if cfg == nil {
		return configErrorf("config is nil")
	}
	if err := v.validateTarget(&cfg.Target); err != nil {
		return err
	}
	if err := v.validateAttack(&cfg.Attack); err != nil {
		return err
	}
	if err := v.validateFlood(&cfg.Flood); err != nil {
		return err
	}
	return v.validateThresholds(&cfg.Thresholds)
}

func (v *ConfigValidator) validateTarget(t *TargetConfig) error {
	if t.BaseURL == "" {
		return configErrorf("target base_url is empty")
	}
	parsed, err := url.Parse(t.BaseURL)
	if err != nil || parsed.Host == "" {
		return configErrorf("target base_url %q is not a valid URL", t.BaseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return configErrorf("target base_url %q has unsupported scheme %q", t.BaseURL, parsed.Scheme)
	}
	if len(t.Endpoints) == 0 {
		return configErrorf("target has no endpoints")
	}
	if t.Parameter == "" {
		return configErrorf("target parameter is empty")
	}
	return nil
}

func (v *ConfigValidator) validateAttack(a *AttackConfig) error {
	for _, kind := range a.Kinds {
		if _, known := payloadCatalog[VulnKind(kind)]; !known {
			return configErrorf("unknown vulnerability kind %q", kind)
		}
	}
	for i := range a.Payloads {
		p := &a.Payloads[i]
		if p.Kind == "" {
			return configErrorf("payload %d has empty kind", i)
		}
		if p.Literal == "" {
			return configErrorf("payload %d has empty literal", i)
		}
		for j := range p.Evidence {
			ev := &p.Evidence[j]
			if ev.Substring == "" && ev.Regex == "" {
				return configErrorf("payload %d evidence %d is empty", i, j)
			}
			if err := ev.Compile(); err != nil {
				return configErrorf("payload %d evidence %d: bad regex: %v", i, j, err)
			}
		}
	}
	if a.Margin < 0 || a.Margin > 1 {
		return configErrorf("attack margin %v outside [0,1]", a.Margin)
	}
	if a.DelayMs < 0 {
		return configErrorf("attack delay_ms must not be negative")
	}
	return nil
}

func (v *ConfigValidator) validateFlood(f *FloodConfig) error {
	switch f.Engine {
	case "builtin", "vegeta", "k6":
	default:
		return configErrorf("unknown flood engine %q", f.Engine)
	}
	if f.Concurrency <= 0 {
		return configErrorf("flood concurrency must be positive, got %d", f.Concurrency)
	}
	if f.DurationSeconds <= 0 && f.MaxRequests <= 0 {
		return configErrorf("flood needs a stop condition: duration_seconds or max_requests")
	}
	if f.RatePerSecond < 0 || f.MaxRequests < 0 {
		return configErrorf("flood rate_per_second and max_requests must not be negative")
	}
	if f.TimeoutSeconds <= 0 {
		return configErrorf("flood timeout_seconds must be positive, got %d", f.TimeoutSeconds)
	}
	if f.StressErrorRate < 0 || f.StressErrorRate > 1 {
		return configErrorf("stress_error_rate %v outside [0,1]", f.StressErrorRate)
	}
	if f.StressLatencyRatio < 1 {
		return configErrorf("stress_latency_factor must be at least 1, got %v", f.StressLatencyRatio)
	}
	return nil
}

func (v *ConfigValidator) validateThresholds(t *ThresholdConfig) error {
	if t.PassRate < 0 || t.PassRate > 1 || t.FailRate < 0 || t.FailRate > 1 {
		return configErrorf("threshold rates must lie in [0,1]")
	}
	if t.FailRate > t.PassRate {
		return configErrorf("fail_rate %v exceeds pass_rate %v", t.FailRate, t.PassRate)
	}
	if t.MaxAvgLatencyMs <= 0 || t.FailAvgLatencyMs <= 0 {
		return configErrorf("latency thresholds must be positive")
	}
	if t.MaxAvgLatencyMs > t.FailAvgLatencyMs {
		return configErrorf("max_avg_latency_ms %d exceeds fail_avg_latency_ms %d", t.MaxAvgLatencyMs, t.FailAvgLatencyMs)
	}
	return nil
}
