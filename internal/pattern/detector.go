// Package pattern detects suspicious request behavior per client IP. Three
// independent heuristics (burst volume, exactly-periodic timing, repeated
// endpoint hammering) each produce a 0-100 score; the fused score decides the
// verdict. Scores and thresholds are tuned constants carried over from
// production traffic observations; they interact multiplicatively and should
// not be rebalanced casually.
package pattern

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

// Record is one observed request for an IP. Insertion order is the recency
// ordering used by the windowed queries.
type Record struct {
	Timestamp time.Time
	Endpoint  string
	Method    string
}

// Score is the ephemeral verdict for one Detect call; it is never stored.
type Score struct {
	Suspicious bool
	Score      float64
	Reason     string
}

// Stats is a read-only summary of an IP's live records, exposed on the
// diagnostic endpoint.
type Stats struct {
	TotalRequests   int        `json:"totalRequests"`
	UniqueEndpoints int        `json:"uniqueEndpoints"`
	OldestRequest   *time.Time `json:"oldestRequest"`
	NewestRequest   *time.Time `json:"newestRequest"`
}

// Config holds the detection thresholds.
type Config struct {
	BurstThreshold    int
	BurstWindow       time.Duration
	IntervalThreshold int
	IntervalTolerance time.Duration
	EndpointThreshold int
	EndpointWindow    time.Duration
	CleanupAge        time.Duration
	SuspiciousScore   float64
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		BurstThreshold:    10,
		BurstWindow:       time.Second,
		IntervalThreshold: 5,
		IntervalTolerance: 50 * time.Millisecond,
		EndpointThreshold: 20,
		EndpointWindow:    5 * time.Second,
		CleanupAge:        time.Minute,
		SuspiciousScore:   70,
	}
}

// Detector owns the per-IP request history. All methods are safe for
// concurrent use.
type Detector struct {
	mu      sync.Mutex
	records map[string][]Record
	cfg     Config
	now     func() time.Time
}

// New creates a detector with the given thresholds.
func New(cfg Config) *Detector {
	return &Detector{
		records: make(map[string][]Record),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Add records one request for the IP. Records older than the cleanup age are
// pruned before appending, so no list ever retains stale history.
func (d *Detector) Add(ip, endpoint, method string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	cutoff := now.Add(-d.cfg.CleanupAge)

	records := d.records[ip]
	kept := records[:0]
	for _, r := range records {
		if !r.Timestamp.Before(cutoff) {
			kept = append(kept, r)
		}
	}

	d.records[ip] = append(kept, Record{
		Timestamp: now,
		Endpoint:  endpoint,
		Method:    method,
	})
}

// Detect evaluates the IP's current history. It is a pure read: no record is
// added or pruned. Fewer than 3 records is never suspicious regardless of the
// sub-detector math; it is insufficient evidence.
func (d *Detector) Detect(ip string) Score {
	d.mu.Lock()
	records := append([]Record(nil), d.records[ip]...)
	d.mu.Unlock()

	if len(records) < 3 {
		return Score{Suspicious: false, Score: 0}
	}

	now := d.now()
	burst := d.detectBurst(records, now)
	interval := d.detectExactInterval(records)
	endpoint := d.detectSameEndpoint(records, now)

	total := math.Max(burst.score, math.Max(interval.score, endpoint.score))

	detections := 0
	for _, hit := range []bool{burst.detected, interval.detected, endpoint.detected} {
		if hit {
			detections++
		}
	}
	if detections > 1 {
		total = math.Min(100, total+10*float64(detections-1))
	}

	var reason string
	if total >= d.cfg.SuspiciousScore {
		var reasons []string
		if burst.detected {
			reasons = append(reasons, "burst requests")
		}
		if interval.detected {
			reasons = append(reasons, "automated pattern")
		}
		if endpoint.detected {
			reasons = append(reasons, fmt.Sprintf("repeated endpoint: %s", endpoint.endpoint))
		}
		reason = strings.Join(reasons, ", ")
	}

	return Score{
		Suspicious: total >= d.cfg.SuspiciousScore,
		Score:      total,
		Reason:     reason,
	}
}

type detection struct {
	detected bool
	score    float64
	endpoint string
}

// detectBurst counts records inside the trailing burst window.
func (d *Detector) detectBurst(records []Record, now time.Time) detection {
	if len(records) < d.cfg.BurstThreshold {
		return detection{}
	}

	cutoff := now.Add(-d.cfg.BurstWindow)
	recent := 0
	for _, r := range records {
		if !r.Timestamp.Before(cutoff) {
			recent++
		}
	}

	if recent >= d.cfg.BurstThreshold {
		excess := float64(recent - d.cfg.BurstThreshold)
		return detection{detected: true, score: math.Min(100, 50+excess*5)}
	}
	return detection{}
}

// detectExactInterval judges the last N records machine-generated when every
// consecutive delta falls within the tolerance of the first delta. Tighter
// timing scores higher: near-perfect periodicity is characteristic of
// scripted clients, not humans.
func (d *Detector) detectExactInterval(records []Record) detection {
	n := d.cfg.IntervalThreshold
	if len(records) < n {
		return detection{}
	}

	recent := records[len(records)-n:]
	intervals := make([]time.Duration, 0, n-1)
	for i := 1; i < len(recent); i++ {
		intervals = append(intervals, recent[i].Timestamp.Sub(recent[i-1].Timestamp))
	}
	if len(intervals) == 0 {
		return detection{}
	}

	first := intervals[0]
	for _, iv := range intervals {
		if absDuration(iv-first) > d.cfg.IntervalTolerance {
			return detection{}
		}
	}

	var devSum float64
	for _, iv := range intervals {
		devSum += math.Abs(float64((iv - first).Milliseconds()))
	}
	meanDev := devSum / float64(len(intervals))
	toleranceMs := float64(d.cfg.IntervalTolerance.Milliseconds())

	return detection{detected: true, score: math.Min(100, 80+(toleranceMs-meanDev)*2)}
}

// detectSameEndpoint finds the most-hit endpoint inside the trailing window.
func (d *Detector) detectSameEndpoint(records []Record, now time.Time) detection {
	if len(records) < d.cfg.EndpointThreshold {
		return detection{}
	}

	cutoff := now.Add(-d.cfg.EndpointWindow)
	counts := make(map[string]int)
	for _, r := range records {
		if !r.Timestamp.Before(cutoff) {
			counts[r.Endpoint]++
		}
	}

	maxCount, maxEndpoint := 0, ""
	for ep, c := range counts {
		if c > maxCount {
			maxCount, maxEndpoint = c, ep
		}
	}

	if maxCount >= d.cfg.EndpointThreshold {
		excess := float64(maxCount - d.cfg.EndpointThreshold)
		return detection{detected: true, score: math.Min(100, 40+excess*3), endpoint: maxEndpoint}
	}
	return detection{}
}

// Reset discards all records for the IP.
func (d *Detector) Reset(ip string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.records, ip)
}

// Stats summarizes the IP's live records without mutating them.
func (d *Detector) Stats(ip string) Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	records := d.records[ip]
	if len(records) == 0 {
		return Stats{}
	}

	endpoints := make(map[string]struct{})
	oldest, newest := records[0].Timestamp, records[0].Timestamp
	for _, r := range records {
		endpoints[r.Endpoint] = struct{}{}
		if r.Timestamp.Before(oldest) {
			oldest = r.Timestamp
		}
		if r.Timestamp.After(newest) {
			newest = r.Timestamp
		}
	}

	return Stats{
		TotalRequests:   len(records),
		UniqueEndpoints: len(endpoints),
		OldestRequest:   &oldest,
		NewestRequest:   &newest,
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
