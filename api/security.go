package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/sekolahku/siswa-api/internal/config"
	"github.com/sekolahku/siswa-api/internal/pattern"
	"github.com/sekolahku/siswa-api/internal/ratelimit"
	"github.com/sekolahku/siswa-api/internal/security"
)

// SecurityStatusHandler exposes the read-only diagnostic view of the
// admission layer: active configuration, the caller's computed identity and
// their live rate-limit and pattern state. It is an introspection surface,
// not a control surface; it never adds a request record or consumes a rate
// limit slot.
type SecurityStatusHandler struct {
	cfg      config.SecurityConfig
	limiter  ratelimit.Limiter
	rateCfg  ratelimit.Config
	detector *pattern.Detector
	env      string
	hasRedis bool
	log      zerolog.Logger
}

func NewSecurityStatusHandler(cfg config.SecurityConfig, limiter ratelimit.Limiter, rateCfg ratelimit.Config, detector *pattern.Detector, env string, hasRedis bool, log zerolog.Logger) *SecurityStatusHandler {
	return &SecurityStatusHandler{
		cfg:      cfg,
		limiter:  limiter,
		rateCfg:  rateCfg,
		detector: detector,
		env:      env,
		hasRedis: hasRedis,
		log:      log.With().Str("component", "security-status").Logger(),
	}
}

type rateLimitStatus struct {
	Success    bool   `json:"success"`
	Limit      int    `json:"limit"`
	Remaining  int    `json:"remaining"`
	Reset      string `json:"reset"`
	RetryAfter int    `json:"retryAfter,omitempty"`
	Degraded   bool   `json:"degraded,omitempty"`
}

// Status handles GET /api/security/status.
func (h *SecurityStatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	ip := security.ClientIP(r)
	identifier := ratelimit.Identifier(ip)

	var rl *rateLimitStatus
	if h.cfg.RateLimitEnabled {
		res, err := h.limiter.Status(r.Context(), identifier, h.rateCfg)
		if err != nil {
			h.log.Error().Err(err).Msg("rate limit status failed")
			respondError(w, http.StatusInternalServerError, "Failed to get security status")
			return
		}
		rl = &rateLimitStatus{
			Success:   res.Success,
			Limit:     res.Limit,
			Remaining: res.Remaining,
			Reset:     res.Reset.UTC().Format(time.RFC3339),
			Degraded:  res.Degraded,
		}
		if !res.Success {
			rl.RetryAfter = int(res.RetryAfter.Seconds())
		}
	}

	score := h.detector.Detect(ip)

	respondData(w, http.StatusOK, map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"ip":        ip,
		"validIP":   security.IsValidIP(ip),
		"features": map[string]bool{
			"securityEnabled":  h.cfg.Enabled,
			"rateLimiting":     h.cfg.RateLimitEnabled,
			"patternDetection": h.cfg.PatternEnabled,
			"userAgentBlock":   h.cfg.UserAgentEnabled,
		},
		"rateLimitConfig": map[string]interface{}{
			"windowSeconds": int(h.rateCfg.Window.Seconds()),
			"limit":         h.rateCfg.Limit,
		},
		"yourRateLimitStatus": rl,
		"yourPatternStatus": map[string]interface{}{
			"stats":      h.detector.Stats(ip),
			"score":      score.Score,
			"suspicious": score.Suspicious,
		},
		"environment": map[string]interface{}{
			"env":      h.env,
			"hasRedis": h.hasRedis,
		},
	})
}
