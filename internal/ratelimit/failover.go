package ratelimit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/sekolahku/siswa-api/internal/metrics"
)

// DefaultBackendTimeout bounds a single durable-backend call. On timeout the
// check fails open, consistent with the fail-open-on-error policy.
const DefaultBackendTimeout = 2 * time.Second

// Failover wraps a Limiter and converts backend failures into fail-open
// results. Availability is deliberately favored over strict enforcement: an
// unreachable store must never block legitimate traffic. The degraded path is
// visible on the Result rather than silently swallowed, so callers and tests
// can assert which path was taken.
type Failover struct {
	primary Limiter
	timeout time.Duration
	log     zerolog.Logger
}

var _ Limiter = (*Failover)(nil)

// NewFailover wraps primary with the fail-open policy. A timeout of 0 uses
// DefaultBackendTimeout.
func NewFailover(primary Limiter, timeout time.Duration, log zerolog.Logger) *Failover {
	if timeout <= 0 {
		timeout = DefaultBackendTimeout
	}
	return &Failover{
		primary: primary,
		timeout: timeout,
		log:     log.With().Str("component", "ratelimit").Logger(),
	}
}

// Check implements Limiter. Errors from the primary are never propagated;
// the request is allowed with a degraded result instead.
func (f *Failover) Check(ctx context.Context, identifier string, cfg Config) (Result, error) {
	if identifier == "" {
		return Result{}, ErrInvalidIdentifier
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	res, err := f.primary.Check(ctx, identifier, cfg)
	if err != nil {
		f.log.Error().Err(err).Str("identifier", identifier).
			Msg("rate limit check failed, allowing request")
		metrics.RateLimitDegraded.Inc()
		return Result{
			Success:   true,
			Limit:     cfg.Limit,
			Remaining: cfg.Limit,
			Reset:     time.Now().Add(cfg.Window),
			Degraded:  true,
		}, nil
	}
	return res, nil
}

// Status delegates to the primary, failing open on backend errors the same
// way Check does.
func (f *Failover) Status(ctx context.Context, identifier string, cfg Config) (Result, error) {
	if identifier == "" {
		return Result{}, ErrInvalidIdentifier
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	res, err := f.primary.Status(ctx, identifier, cfg)
	if err != nil {
		f.log.Error().Err(err).Str("identifier", identifier).
			Msg("rate limit status failed, reporting open window")
		return Result{
			Success:   true,
			Limit:     cfg.Limit,
			Remaining: cfg.Limit,
			Reset:     time.Now().Add(cfg.Window),
			Degraded:  true,
		}, nil
	}
	return res, nil
}

// Reset delegates to the primary. Reset failures are reported; they only
// affect tests and admin tooling, never request admission.
func (f *Failover) Reset(ctx context.Context, identifier string) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	return f.primary.Reset(ctx, identifier)
}
