// Package security composes the request-admission checks: identity
// extraction, User-Agent classification, rate limiting and behavioral
// pattern detection, evaluated in fixed precedence order in front of every
// request.
package security

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/sekolahku/siswa-api/internal/metrics"
	"github.com/sekolahku/siswa-api/internal/pattern"
	"github.com/sekolahku/siswa-api/internal/ratelimit"
)

// Outcome tags which path produced a decision, making the fail-open
// degradation visible to callers and tests instead of an implicit default.
type Outcome int

const (
	// OutcomeOK means every enabled check passed normally.
	OutcomeOK Outcome = iota
	// OutcomeDegradedOpen means the request was allowed because a check
	// failed internally, not because it passed.
	OutcomeDegradedOpen
	// OutcomeRejected means an enabled check rejected the request.
	OutcomeRejected
)

// Decision is the per-request admission verdict, produced once and consumed
// immediately by the request gate.
type Decision struct {
	Allowed    bool
	Outcome    Outcome
	StatusCode int
	Headers    map[string]string
	Error      string
	Reason     string
}

// Options control which checks run and the bypass lists.
type Options struct {
	Enabled          bool
	RateLimitEnabled bool
	PatternEnabled   bool
	UserAgentEnabled bool
	SkipLocalhost    bool
	Development      bool
	WhitelistedIPs   []string
	BlacklistedIPs   []string
}

// Checker runs all admission checks for one request. Sub-component state
// (rate windows, request records) stays owned by the injected components;
// the checker itself is stateless.
type Checker struct {
	opts      Options
	limiter   ratelimit.Limiter
	rateCfg   ratelimit.Config
	detector  *pattern.Detector
	whitelist map[string]struct{}
	blacklist map[string]struct{}
	log       zerolog.Logger
}

// NewChecker wires the admission pipeline. The limiter is expected to carry
// its own fail-open policy (see ratelimit.Failover).
func NewChecker(opts Options, limiter ratelimit.Limiter, rateCfg ratelimit.Config, detector *pattern.Detector, log zerolog.Logger) *Checker {
	whitelist := make(map[string]struct{}, len(opts.WhitelistedIPs))
	for _, ip := range opts.WhitelistedIPs {
		whitelist[ip] = struct{}{}
	}
	blacklist := make(map[string]struct{}, len(opts.BlacklistedIPs))
	for _, ip := range opts.BlacklistedIPs {
		blacklist[ip] = struct{}{}
	}

	return &Checker{
		opts:      opts,
		limiter:   limiter,
		rateCfg:   rateCfg,
		detector:  detector,
		whitelist: whitelist,
		blacklist: blacklist,
		log:       log.With().Str("component", "security").Logger(),
	}
}

// SecurityHeaders returns the response headers attached to every response,
// accepted or rejected.
func SecurityHeaders() map[string]string {
	return map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"X-XSS-Protection":       "1; mode=block",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
		"Permissions-Policy":     "geolocation=(), microphone=(), camera=()",
	}
}

// Check runs the admission pipeline for one request. The first rejecting
// check wins; later checks are skipped entirely. A panic inside any check is
// recovered and converted to a fail-open allowance so an internal fault never
// takes down request handling.
func (c *Checker) Check(r *http.Request, endpoint string) (decision Decision) {
	ip := ClientIP(r)
	userAgent := r.Header.Get("User-Agent")
	method := r.Method

	defer func() {
		if rec := recover(); rec != nil {
			c.audit("security-check-failed", ip, userAgent, endpoint, method,
				fmt.Sprintf("internal error: %v", rec))
			metrics.SecurityChecks.WithLabelValues("degraded").Inc()
			decision = Decision{Allowed: true, Outcome: OutcomeDegradedOpen}
		}
	}()

	if !c.opts.Enabled {
		return Decision{Allowed: true, Outcome: OutcomeOK}
	}

	// Bypass: explicit whitelist, or loopback traffic in development mode.
	if _, ok := c.whitelist[ip]; ok {
		return Decision{Allowed: true, Outcome: OutcomeOK}
	}
	if c.opts.SkipLocalhost && c.opts.Development && IsLocalhost(ip) {
		return Decision{Allowed: true, Outcome: OutcomeOK}
	}

	if _, ok := c.blacklist[ip]; ok {
		c.audit("ip-blacklisted", ip, userAgent, endpoint, method, "IP address blacklisted")
		metrics.SecurityBlocks.WithLabelValues("ip_blacklist").Inc()
		metrics.SecurityChecks.WithLabelValues("rejected").Inc()
		return Decision{
			Allowed:    false,
			Outcome:    OutcomeRejected,
			StatusCode: http.StatusForbidden,
			Error:      "Forbidden",
			Reason:     "IP address blacklisted",
		}
	}

	if c.opts.UserAgentEnabled {
		ua := CheckUserAgent(userAgent)
		if ua.Blocked {
			c.audit("user-agent-blocked", ip, userAgent, endpoint, method, ua.Reason)
			metrics.SecurityBlocks.WithLabelValues("user_agent").Inc()
			metrics.SecurityChecks.WithLabelValues("rejected").Inc()
			return Decision{
				Allowed:    false,
				Outcome:    OutcomeRejected,
				StatusCode: http.StatusForbidden,
				Error:      "Forbidden",
				Reason:     ua.Reason,
			}
		}
	}

	degraded := false

	if c.opts.RateLimitEnabled {
		identifier := ratelimit.Identifier(ip)
		res, err := c.limiter.Check(r.Context(), identifier, c.rateCfg)
		if err != nil {
			// Limiters carrying the fail-open policy never error; treat a
			// bare backend error the same way.
			c.log.Error().Err(err).Str("ip", ip).Msg("rate limit check errored, allowing request")
			degraded = true
		} else {
			if res.Degraded {
				degraded = true
			}
			if !res.Success {
				reason := fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.",
					int(res.RetryAfter.Seconds()))
				c.audit("rate-limit-exceeded", ip, userAgent, endpoint, method, reason)
				metrics.SecurityBlocks.WithLabelValues("rate_limit").Inc()
				metrics.SecurityChecks.WithLabelValues("rejected").Inc()
				return Decision{
					Allowed:    false,
					Outcome:    OutcomeRejected,
					StatusCode: http.StatusTooManyRequests,
					Headers:    ratelimit.Headers(res),
					Error:      "Too Many Requests",
					Reason:     reason,
				}
			}
			decision.Headers = ratelimit.Headers(res)
		}
	}

	if c.opts.PatternEnabled {
		// The record is added even when the request is ultimately allowed so
		// future requests have history to evaluate against.
		c.detector.Add(ip, endpoint, method)

		score := c.detector.Detect(ip)
		if score.Suspicious {
			reason := "Suspicious request pattern detected: " + score.Reason
			c.audit("suspicious-pattern", ip, userAgent, endpoint, method, reason)
			metrics.SecurityBlocks.WithLabelValues("suspicious_pattern").Inc()
			metrics.SecurityChecks.WithLabelValues("rejected").Inc()
			return Decision{
				Allowed:    false,
				Outcome:    OutcomeRejected,
				StatusCode: http.StatusForbidden,
				Error:      "Forbidden",
				Reason:     reason,
			}
		}
	}

	decision.Allowed = true
	if degraded {
		decision.Outcome = OutcomeDegradedOpen
		metrics.SecurityChecks.WithLabelValues("degraded").Inc()
	} else {
		decision.Outcome = OutcomeOK
		metrics.SecurityChecks.WithLabelValues("ok").Inc()
	}
	return decision
}

// audit emits the structured security event required on every rejection.
func (c *Checker) audit(event, ip, userAgent, endpoint, method, reason string) {
	c.log.Warn().
		Str("event", event).
		Str("ip", ip).
		Str("user_agent", userAgent).
		Str("endpoint", endpoint).
		Str("method", method).
		Str("reason", reason).
		Msg("security event")
}
