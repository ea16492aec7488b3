package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_RemainingMonotonic(t *testing.T) {
	m := NewMemoryLimiter()
	cfg := Config{Window: time.Minute, Limit: 5}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res, err := m.Check(ctx, "client-1", cfg)
		if err != nil {
			t.Fatalf("Check() failed: %v", err)
		}
		if !res.Success {
			t.Fatalf("request %d rejected, want accepted", i+1)
		}
		want := 5 - (i + 1)
		if res.Remaining != want {
			t.Errorf("request %d: remaining = %d, want %d", i+1, res.Remaining, want)
		}
	}

	res, err := m.Check(ctx, "client-1", cfg)
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if res.Success {
		t.Error("request over limit accepted, want rejected")
	}
	if res.Remaining != 0 {
		t.Errorf("rejected remaining = %d, want 0", res.Remaining)
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Minute {
		t.Errorf("RetryAfter = %v, want within (0, 1m]", res.RetryAfter)
	}
}

func TestMemoryLimiter_HundredAndOneRequests(t *testing.T) {
	m := NewMemoryLimiter()
	cfg := Config{Window: time.Minute, Limit: 100}
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		res, err := m.Check(ctx, "1_2_3_4", cfg)
		if err != nil {
			t.Fatalf("Check() failed: %v", err)
		}
		if !res.Success {
			t.Fatalf("request %d rejected, want accepted", i+1)
		}
		if want := 99 - i; res.Remaining != want {
			t.Fatalf("request %d: remaining = %d, want %d", i+1, res.Remaining, want)
		}
	}

	res, err := m.Check(ctx, "1_2_3_4", cfg)
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if res.Success {
		t.Error("request 101 accepted, want rejected")
	}
	if res.Remaining != 0 {
		t.Errorf("request 101 remaining = %d, want 0", res.Remaining)
	}
	if res.RetryAfter > time.Minute {
		t.Errorf("RetryAfter = %v, want <= 60s", res.RetryAfter)
	}
}

func TestMemoryLimiter_WindowReset(t *testing.T) {
	now := time.Now()
	m := NewMemoryLimiter()
	m.now = func() time.Time { return now }

	cfg := Config{Window: time.Minute, Limit: 2}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if res, _ := m.Check(ctx, "c", cfg); !res.Success {
			t.Fatalf("request %d rejected", i+1)
		}
	}
	if res, _ := m.Check(ctx, "c", cfg); res.Success {
		t.Fatal("request over limit accepted")
	}

	// Advance past the window boundary; the next check starts fresh.
	now = now.Add(61 * time.Second)
	res, err := m.Check(ctx, "c", cfg)
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if !res.Success {
		t.Error("post-expiry request rejected, want accepted")
	}
	if res.Remaining != cfg.Limit-1 {
		t.Errorf("post-expiry remaining = %d, want %d", res.Remaining, cfg.Limit-1)
	}
}

func TestMemoryLimiter_IndependentWindows(t *testing.T) {
	m := NewMemoryLimiter()
	ctx := context.Background()
	short := Config{Window: time.Minute, Limit: 1}
	long := Config{Window: time.Hour, Limit: 10}

	if res, _ := m.Check(ctx, "c", short); !res.Success {
		t.Fatal("first short-window request rejected")
	}
	if res, _ := m.Check(ctx, "c", short); res.Success {
		t.Fatal("second short-window request accepted, want rejected")
	}

	// The hour window counts separately from the minute window.
	res, err := m.Check(ctx, "c", long)
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if !res.Success {
		t.Error("long-window request rejected, want accepted")
	}
	if res.Remaining != 9 {
		t.Errorf("long-window remaining = %d, want 9", res.Remaining)
	}
}

func TestMemoryLimiter_StatusDoesNotConsume(t *testing.T) {
	m := NewMemoryLimiter()
	cfg := Config{Window: time.Minute, Limit: 3}
	ctx := context.Background()

	if _, err := m.Check(ctx, "c", cfg); err != nil {
		t.Fatalf("Check() failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		res, err := m.Status(ctx, "c", cfg)
		if err != nil {
			t.Fatalf("Status() failed: %v", err)
		}
		if res.Remaining != 2 {
			t.Fatalf("Status remaining = %d, want 2 (must not consume)", res.Remaining)
		}
	}
}

func TestMemoryLimiter_StatusUnknownIdentifier(t *testing.T) {
	m := NewMemoryLimiter()
	cfg := Config{Window: time.Minute, Limit: 10}

	res, err := m.Status(context.Background(), "never-seen", cfg)
	if err != nil {
		t.Fatalf("Status() failed: %v", err)
	}
	if !res.Success || res.Remaining != 10 {
		t.Errorf("Status = %+v, want open window with full budget", res)
	}
}

func TestMemoryLimiter_Reset(t *testing.T) {
	m := NewMemoryLimiter()
	cfg := Config{Window: time.Minute, Limit: 1}
	ctx := context.Background()

	m.Check(ctx, "c", cfg)
	if res, _ := m.Check(ctx, "c", cfg); res.Success {
		t.Fatal("second request accepted, want rejected")
	}

	if err := m.Reset(ctx, "c"); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	if res, _ := m.Check(ctx, "c", cfg); !res.Success {
		t.Error("post-reset request rejected, want accepted")
	}
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	now := time.Now()
	m := NewMemoryLimiter()
	m.now = func() time.Time { return now }
	cfg := Config{Window: time.Minute, Limit: 10}
	ctx := context.Background()

	m.Check(ctx, "a", cfg)
	m.Check(ctx, "b", cfg)
	if m.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", m.Count())
	}

	now = now.Add(2 * time.Minute)
	if removed := m.Sweep(); removed != 2 {
		t.Errorf("Sweep() removed %d, want 2", removed)
	}
	if m.Count() != 0 {
		t.Errorf("Count() after sweep = %d, want 0", m.Count())
	}
}

func TestMemoryLimiter_EmptyIdentifier(t *testing.T) {
	m := NewMemoryLimiter()
	if _, err := m.Check(context.Background(), "", Config{Window: time.Minute, Limit: 1}); err != ErrInvalidIdentifier {
		t.Errorf("Check(\"\") error = %v, want ErrInvalidIdentifier", err)
	}
}

func TestHeaders(t *testing.T) {
	reset := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	t.Run("accepted", func(t *testing.T) {
		h := Headers(Result{Success: true, Limit: 100, Remaining: 42, Reset: reset})
		if h["X-RateLimit-Limit"] != "100" {
			t.Errorf("limit header = %s, want 100", h["X-RateLimit-Limit"])
		}
		if h["X-RateLimit-Remaining"] != "42" {
			t.Errorf("remaining header = %s, want 42", h["X-RateLimit-Remaining"])
		}
		if h["X-RateLimit-Reset"] != "2026-08-29T12:00:00Z" {
			t.Errorf("reset header = %s, want RFC3339", h["X-RateLimit-Reset"])
		}
		if _, ok := h["Retry-After"]; ok {
			t.Error("Retry-After present on accepted result")
		}
	})

	t.Run("rejected", func(t *testing.T) {
		h := Headers(Result{Success: false, Limit: 100, Remaining: 0, Reset: reset, RetryAfter: 30 * time.Second})
		if h["Retry-After"] != "30" {
			t.Errorf("Retry-After = %s, want 30", h["Retry-After"])
		}
	})
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		ip   string
		want string
	}{
		{"1.2.3.4", "1_2_3_4"},
		{"::1", "__1"},
		{"2001:db8::1", "2001_db8__1"},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		if got := Identifier(tt.ip); got != tt.want {
			t.Errorf("Identifier(%q) = %q, want %q", tt.ip, got, tt.want)
		}
	}
}
