// Package ratelimit tracks request counts per client identifier within
// configurable time windows. Two interchangeable backends are provided: a
// Redis-backed sliding window for shared enforcement across instances, and an
// in-process fixed window used as the development/fallback store.
package ratelimit

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidIdentifier is returned when the rate limit identifier is empty.
	ErrInvalidIdentifier = errors.New("rate limit identifier cannot be empty")

	// ErrBackendUnavailable is returned when the backing store cannot be reached.
	ErrBackendUnavailable = errors.New("rate limit backend unavailable")
)

// Config defines a single counting window.
type Config struct {
	Window time.Duration
	Limit  int
}

// Named window configurations. PerMinute is the default check; the wider
// windows exist for callers that want coarser budgets on specific routes.
var (
	PerMinute      = Config{Window: time.Minute, Limit: 100}
	PerFiveMinutes = Config{Window: 5 * time.Minute, Limit: 500}
	PerHour        = Config{Window: time.Hour, Limit: 1000}
)

// Result is the outcome of a single rate limit check.
type Result struct {
	Success    bool
	Limit      int
	Remaining  int
	Reset      time.Time
	RetryAfter time.Duration

	// Degraded marks a fail-open result produced because the backend errored
	// or timed out. The request was allowed without being counted.
	Degraded bool
}

// Limiter is the interface both backends implement.
type Limiter interface {
	// Check records one request for the identifier and reports whether it is
	// within the configured window budget.
	Check(ctx context.Context, identifier string, cfg Config) (Result, error)

	// Status reports the identifier's current window state without counting
	// a request. Used by the diagnostic endpoint.
	Status(ctx context.Context, identifier string, cfg Config) (Result, error)

	// Reset clears all window state for the identifier. Used by tests and
	// admin tooling.
	Reset(ctx context.Context, identifier string) error
}

// Identifier sanitizes an IP address into a store-safe key.
func Identifier(ip string) string {
	r := strings.NewReplacer(".", "_", ":", "_")
	return r.Replace(ip)
}

// Headers renders a check result as HTTP response headers. Retry-After is
// only present on rejection.
func Headers(res Result) map[string]string {
	h := map[string]string{
		"X-RateLimit-Limit":     strconv.Itoa(res.Limit),
		"X-RateLimit-Remaining": strconv.Itoa(res.Remaining),
		"X-RateLimit-Reset":     res.Reset.UTC().Format(time.RFC3339),
	}
	if !res.Success && res.RetryAfter > 0 {
		h["Retry-After"] = strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds())))
	}
	return h
}

func windowKey(identifier string, cfg Config) string {
	return identifier + ":" + strconv.Itoa(int(cfg.Window.Seconds()))
}
