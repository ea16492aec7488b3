package pattern

import (
	"strings"
	"testing"
	"time"
)

// fakeClock drives the detector's injected clock so timing-sensitive
// heuristics can be tested deterministically.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestDetector(clock *fakeClock) *Detector {
	d := New(DefaultConfig())
	d.now = clock.now
	return d
}

func TestDetect_NeverSeenIP(t *testing.T) {
	d := newTestDetector(newFakeClock())

	score := d.Detect("203.0.113.9")
	if score.Suspicious {
		t.Error("never-seen IP flagged suspicious")
	}
	if score.Score != 0 {
		t.Errorf("score = %v, want 0", score.Score)
	}
}

func TestDetect_InsufficientHistory(t *testing.T) {
	clock := newFakeClock()
	d := newTestDetector(clock)

	// Two records in the same millisecond would max out every heuristic if
	// the evidence gate did not hold.
	d.Add("ip", "/api/siswa", "GET")
	d.Add("ip", "/api/siswa", "GET")

	score := d.Detect("ip")
	if score.Suspicious || score.Score != 0 {
		t.Errorf("Detect with 2 records = %+v, want not suspicious, score 0", score)
	}
}

func TestDetect_ExactInterval(t *testing.T) {
	clock := newFakeClock()
	d := newTestDetector(clock)

	// Six requests spaced exactly 200ms apart: machine-perfect periodicity.
	for i := 0; i < 6; i++ {
		if i > 0 {
			clock.advance(200 * time.Millisecond)
		}
		d.Add("ip", "/api/siswa", "GET")
	}

	score := d.Detect("ip")
	if !score.Suspicious {
		t.Fatalf("exact 200ms spacing not flagged, score = %v", score.Score)
	}
	if score.Score < 80 {
		t.Errorf("score = %v, want >= 80", score.Score)
	}
	if !strings.Contains(score.Reason, "automated pattern") {
		t.Errorf("reason = %q, want it to mention automated pattern", score.Reason)
	}
}

func TestDetect_JitteredIntervalsNotFlagged(t *testing.T) {
	clock := newFakeClock()
	d := newTestDetector(clock)

	// Human-like jitter: consecutive gaps differ by more than the 50ms
	// tolerance.
	gaps := []time.Duration{
		180 * time.Millisecond,
		260 * time.Millisecond,
		150 * time.Millisecond,
		300 * time.Millisecond,
		210 * time.Millisecond,
	}
	d.Add("ip", "/api/siswa", "GET")
	for _, g := range gaps {
		clock.advance(g)
		d.Add("ip", "/api/siswa", "GET")
	}

	score := d.Detect("ip")
	if score.Suspicious {
		t.Errorf("jittered intervals flagged suspicious: %+v", score)
	}
	if score.Score != 0 {
		t.Errorf("score = %v, want 0", score.Score)
	}
}

func TestDetect_Burst(t *testing.T) {
	clock := newFakeClock()
	d := newTestDetector(clock)

	// 16 requests inside one second. Gaps alternate 20ms/110ms so the
	// periodicity heuristic stays quiet and only burst volume fires.
	d.Add("ip", "/api/siswa", "GET")
	for i := 0; i < 15; i++ {
		if i%2 == 0 {
			clock.advance(20 * time.Millisecond)
		} else {
			clock.advance(110 * time.Millisecond)
		}
		d.Add("ip", "/api/siswa", "GET")
	}

	score := d.Detect("ip")
	if !score.Suspicious {
		t.Fatalf("burst of 16 requests in under 1s not flagged, score = %v", score.Score)
	}
	if score.Score < 50 {
		t.Errorf("score = %v, want >= 50", score.Score)
	}
	if !strings.Contains(score.Reason, "burst requests") {
		t.Errorf("reason = %q, want it to mention burst requests", score.Reason)
	}
}

func TestDetect_BurstAtThresholdBelowVerdict(t *testing.T) {
	clock := newFakeClock()
	d := newTestDetector(clock)

	// Exactly 10 requests in the window scores 50: detected but below the
	// suspicion threshold on its own.
	gaps := []time.Duration{30, 140, 25, 150, 35, 130, 20, 145, 40}
	d.Add("ip", "/a", "GET")
	for _, g := range gaps {
		clock.advance(g * time.Millisecond)
		d.Add("ip", "/a", "GET")
	}

	score := d.Detect("ip")
	if score.Suspicious {
		t.Errorf("threshold burst flagged suspicious, score = %v", score.Score)
	}
	if score.Score != 50 {
		t.Errorf("score = %v, want 50", score.Score)
	}
}

func TestDetect_RepeatedEndpoint(t *testing.T) {
	clock := newFakeClock()
	d := newTestDetector(clock)

	// 31 hits on the same endpoint inside 5s. Alternating 120ms/200ms gaps
	// keep both the burst and periodicity heuristics out of play.
	d.Add("ip", "/api/siswa", "GET")
	for i := 0; i < 30; i++ {
		if i%2 == 0 {
			clock.advance(120 * time.Millisecond)
		} else {
			clock.advance(200 * time.Millisecond)
		}
		d.Add("ip", "/api/siswa", "GET")
	}

	score := d.Detect("ip")
	if !score.Suspicious {
		t.Fatalf("endpoint hammering not flagged, score = %v", score.Score)
	}
	if !strings.Contains(score.Reason, "repeated endpoint: /api/siswa") {
		t.Errorf("reason = %q, want it to name the endpoint", score.Reason)
	}
}

func TestDetect_MultiSignalBonus(t *testing.T) {
	clock := newFakeClock()
	d := newTestDetector(clock)

	// 16 requests at a fixed 50ms cadence trip both burst and periodicity.
	d.Add("ip", "/api/siswa", "GET")
	for i := 0; i < 15; i++ {
		clock.advance(50 * time.Millisecond)
		d.Add("ip", "/api/siswa", "GET")
	}

	score := d.Detect("ip")
	if !score.Suspicious {
		t.Fatal("combined burst and periodicity not flagged")
	}
	if score.Score != 100 {
		t.Errorf("score = %v, want capped at 100", score.Score)
	}
	if !strings.Contains(score.Reason, "burst requests") || !strings.Contains(score.Reason, "automated pattern") {
		t.Errorf("reason = %q, want both signals named", score.Reason)
	}
}

func TestDetect_IsolatedPerIP(t *testing.T) {
	clock := newFakeClock()
	d := newTestDetector(clock)

	for i := 0; i < 6; i++ {
		if i > 0 {
			clock.advance(200 * time.Millisecond)
		}
		d.Add("10.0.0.1", "/api/siswa", "GET")
	}

	if score := d.Detect("10.0.0.2"); score.Suspicious || score.Score != 0 {
		t.Errorf("unrelated IP inherited history: %+v", score)
	}
}

func TestAdd_PrunesStaleRecords(t *testing.T) {
	clock := newFakeClock()
	d := newTestDetector(clock)

	d.Add("ip", "/a", "GET")
	d.Add("ip", "/b", "GET")
	d.Add("ip", "/c", "GET")

	clock.advance(61 * time.Second)
	d.Add("ip", "/d", "GET")

	stats := d.Stats("ip")
	if stats.TotalRequests != 1 {
		t.Errorf("TotalRequests = %d, want 1 after pruning", stats.TotalRequests)
	}
}

func TestReset(t *testing.T) {
	clock := newFakeClock()
	d := newTestDetector(clock)

	for i := 0; i < 5; i++ {
		d.Add("ip", "/a", "GET")
		clock.advance(100 * time.Millisecond)
	}
	d.Reset("ip")

	if stats := d.Stats("ip"); stats.TotalRequests != 0 {
		t.Errorf("TotalRequests after reset = %d, want 0", stats.TotalRequests)
	}
	if score := d.Detect("ip"); score.Score != 0 {
		t.Errorf("score after reset = %v, want 0", score.Score)
	}
}

func TestStats(t *testing.T) {
	clock := newFakeClock()
	d := newTestDetector(clock)

	start := clock.now()
	d.Add("ip", "/a", "GET")
	clock.advance(time.Second)
	d.Add("ip", "/b", "POST")
	clock.advance(time.Second)
	d.Add("ip", "/a", "GET")
	end := clock.now()

	stats := d.Stats("ip")
	if stats.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", stats.TotalRequests)
	}
	if stats.UniqueEndpoints != 2 {
		t.Errorf("UniqueEndpoints = %d, want 2", stats.UniqueEndpoints)
	}
	if stats.OldestRequest == nil || !stats.OldestRequest.Equal(start) {
		t.Errorf("OldestRequest = %v, want %v", stats.OldestRequest, start)
	}
	if stats.NewestRequest == nil || !stats.NewestRequest.Equal(end) {
		t.Errorf("NewestRequest = %v, want %v", stats.NewestRequest, end)
	}
}
