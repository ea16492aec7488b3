package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sekolahku/siswa-api/internal/pattern"
	"github.com/sekolahku/siswa-api/internal/ratelimit"
)

// Policy is the optional YAML override for rate-limit windows and pattern
// thresholds. Absent sections keep the built-in defaults.
type Policy struct {
	RateLimit map[string]windowPolicy `yaml:"rate_limit,omitempty"`
	Pattern   *patternPolicy          `yaml:"pattern,omitempty"`
}

type windowPolicy struct {
	WindowSeconds int `yaml:"window_seconds"`
	Limit         int `yaml:"limit"`
}

type patternPolicy struct {
	BurstThreshold      int     `yaml:"burst_threshold"`
	BurstWindowMs       int     `yaml:"burst_window_ms"`
	IntervalThreshold   int     `yaml:"interval_threshold"`
	IntervalToleranceMs int     `yaml:"interval_tolerance_ms"`
	EndpointThreshold   int     `yaml:"endpoint_threshold"`
	EndpointWindowMs    int     `yaml:"endpoint_window_ms"`
	CleanupAgeMs        int     `yaml:"cleanup_age_ms"`
	SuspiciousScore     float64 `yaml:"suspicious_score"`
}

// LoadPolicyFile parses a policy YAML file.
func LoadPolicyFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}

	for name, w := range p.RateLimit {
		if w.WindowSeconds <= 0 || w.Limit <= 0 {
			return nil, fmt.Errorf("invalid rate limit window %q: window and limit must be positive", name)
		}
	}

	return &p, nil
}

// RateLimitConfig resolves the named window, falling back to the built-in
// configuration when the policy does not override it.
func (p *Policy) RateLimitConfig(name string) ratelimit.Config {
	builtin := map[string]ratelimit.Config{
		"minute":       ratelimit.PerMinute,
		"five_minutes": ratelimit.PerFiveMinutes,
		"hour":         ratelimit.PerHour,
	}

	base, ok := builtin[name]
	if !ok {
		base = ratelimit.PerMinute
	}
	if p == nil {
		return base
	}
	if w, ok := p.RateLimit[name]; ok {
		return ratelimit.Config{
			Window: time.Duration(w.WindowSeconds) * time.Second,
			Limit:  w.Limit,
		}
	}
	return base
}

// PatternConfig resolves the detector thresholds with policy overrides
// applied on top of the defaults.
func (p *Policy) PatternConfig() pattern.Config {
	cfg := pattern.DefaultConfig()
	if p == nil || p.Pattern == nil {
		return cfg
	}

	o := p.Pattern
	if o.BurstThreshold > 0 {
		cfg.BurstThreshold = o.BurstThreshold
	}
	if o.BurstWindowMs > 0 {
		cfg.BurstWindow = time.Duration(o.BurstWindowMs) * time.Millisecond
	}
	if o.IntervalThreshold > 0 {
		cfg.IntervalThreshold = o.IntervalThreshold
	}
	if o.IntervalToleranceMs > 0 {
		cfg.IntervalTolerance = time.Duration(o.IntervalToleranceMs) * time.Millisecond
	}
	if o.EndpointThreshold > 0 {
		cfg.EndpointThreshold = o.EndpointThreshold
	}
	if o.EndpointWindowMs > 0 {
		cfg.EndpointWindow = time.Duration(o.EndpointWindowMs) * time.Millisecond
	}
	if o.CleanupAgeMs > 0 {
		cfg.CleanupAge = time.Duration(o.CleanupAgeMs) * time.Millisecond
	}
	if o.SuspiciousScore > 0 {
		cfg.SuspiciousScore = o.SuspiciousScore
	}
	return cfg
}
