package ratelimit

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"
)

// windowEntry tracks one (identifier, window) pair. Expired entries are
// discarded lazily on the next check.
type windowEntry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a fixed-window counter keyed by identifier and window
// duration. It is thread-safe and suitable for single-instance deployments
// and as the fallback when Redis is not configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*windowEntry
	now     func() time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter creates an in-process fixed-window limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

// Check implements Limiter. Within a live window the count is compared
// against cfg.Limit; at the limit the request is rejected with remaining 0,
// otherwise the count is incremented and the request accepted.
func (m *MemoryLimiter) Check(_ context.Context, identifier string, cfg Config) (Result, error) {
	if identifier == "" {
		return Result{}, ErrInvalidIdentifier
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	key := windowKey(identifier, cfg)

	entry, ok := m.windows[key]
	if ok && entry.resetAt.Before(now) {
		delete(m.windows, key)
		ok = false
	}
	if !ok {
		entry = &windowEntry{resetAt: now.Add(cfg.Window)}
		m.windows[key] = entry
	}

	if entry.count >= cfg.Limit {
		retry := time.Duration(math.Ceil(entry.resetAt.Sub(now).Seconds())) * time.Second
		return Result{
			Success:    false,
			Limit:      cfg.Limit,
			Remaining:  0,
			Reset:      entry.resetAt,
			RetryAfter: retry,
		}, nil
	}

	entry.count++
	remaining := cfg.Limit - entry.count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Success:   true,
		Limit:     cfg.Limit,
		Remaining: remaining,
		Reset:     entry.resetAt,
	}, nil
}

// Status implements Limiter without consuming a slot.
func (m *MemoryLimiter) Status(_ context.Context, identifier string, cfg Config) (Result, error) {
	if identifier == "" {
		return Result{}, ErrInvalidIdentifier
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.windows[windowKey(identifier, cfg)]
	if !ok || entry.resetAt.Before(now) {
		return Result{
			Success:   true,
			Limit:     cfg.Limit,
			Remaining: cfg.Limit,
			Reset:     now.Add(cfg.Window),
		}, nil
	}

	remaining := cfg.Limit - entry.count
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Success:   entry.count < cfg.Limit,
		Limit:     cfg.Limit,
		Remaining: remaining,
		Reset:     entry.resetAt,
	}
	if !res.Success {
		res.RetryAfter = time.Duration(math.Ceil(entry.resetAt.Sub(now).Seconds())) * time.Second
	}
	return res, nil
}

// Reset clears every window belonging to the identifier.
func (m *MemoryLimiter) Reset(_ context.Context, identifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.windows {
		if strings.HasPrefix(key, identifier+":") {
			delete(m.windows, key)
		}
	}
	return nil
}

// Sweep removes all expired windows. Called periodically from the server so
// idle identifiers do not accumulate.
func (m *MemoryLimiter) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, entry := range m.windows {
		if entry.resetAt.Before(now) {
			delete(m.windows, key)
			removed++
		}
	}
	return removed
}

// Count returns the number of live windows. Used by tests.
func (m *MemoryLimiter) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}
