// Package metrics implements the Metrics Aggregator: running RPS over a
// rolling window, monotonic totals, a rolling average flow duration, and
// an active-user gauge, per spec.md §4.10.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	rpsWindow          = 10 * time.Second
	flowDurationWindow = 100
)

// Snapshot is a consistent, point-in-time read of the aggregator, handed
// back by Engine.Snapshot().
type Snapshot struct {
	Running              bool          `json:"running"`
	ActiveSimulatedUsers int           `json:"active_simulated_users"`
	TotalRequests        int64         `json:"total_requests"`
	RequestsPerSecond    float64       `json:"rps"`
	FlowCount            int64         `json:"flow_count"`
	AvgFlowDurationMs    float64       `json:"avg_flow_duration_ms"`
	LatencyP50Ms         float64       `json:"latency_p50_ms"`
	LatencyP95Ms         float64       `json:"latency_p95_ms"`
	LatencyP99Ms         float64       `json:"latency_p99_ms"`
	StatusBreakdown      []StatusCount `json:"status_breakdown,omitempty"`
}

// Aggregator is the process-wide, concurrently-mutated metrics store.
// Monotonic counters use atomics; the rolling-window structures (request
// timestamps for RPS, the flow-duration ring buffer) are mutex-protected,
// following the teacher's internal/metrics.Collector split between
// atomics and a mutex-guarded histogram.
type Aggregator struct {
	running       atomic.Bool
	activeUsers   atomic.Int64
	totalRequests atomic.Int64
	flowCount     atomic.Int64

	mu            sync.Mutex
	requestTimes  []time.Time // timestamps within the rolling RPS window
	durations     [flowDurationWindow]time.Duration
	durationsFill int
	durationsNext int
	durationSum   time.Duration
	latencyHist   *hdrhistogram.Histogram
	statusCounts  map[string]int // status code (or friendly error name) -> count
}

// New creates an idle Aggregator.
func New() *Aggregator {
	return &Aggregator{
		latencyHist:  hdrhistogram.New(1, 60_000_000, 3),
		statusCounts: make(map[string]int),
	}
}

// SetRunning flips the running gauge (mirrors Engine's own status but is
// tracked here too since Snapshot must report it without taking the
// engine's own state lock).
func (a *Aggregator) SetRunning(running bool) { a.running.Store(running) }

func (a *Aggregator) IncActiveUsers() { a.activeUsers.Add(1) }
func (a *Aggregator) DecActiveUsers() { a.activeUsers.Add(-1) }

// RecordRequest increments the monotonic request counter and folds
// latency into the percentile histogram and rolling RPS window. Called
// once per completed request (success or final non-2xx), never for
// pre-dispatch failures, per spec.md §4.6 item 5. statusLabel is a status
// code ("200", "503") or, for a failed request with no status code, a
// FriendlyErrorName-derived label.
func (a *Aggregator) RecordRequest(latency time.Duration, now time.Time, statusLabel string) {
	a.totalRequests.Add(1)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.requestTimes = append(a.requestTimes, now)
	a.pruneRequestTimesLocked(now)
	if statusLabel != "" {
		a.statusCounts[statusLabel]++
	}
	if latency > 0 {
		us := latency.Microseconds()
		if us < a.latencyHist.LowestTrackableValue() {
			us = a.latencyHist.LowestTrackableValue()
		}
		if us > a.latencyHist.HighestTrackableValue() {
			us = a.latencyHist.HighestTrackableValue()
		}
		_ = a.latencyHist.RecordValue(us)
	}
}

// StatusBreakdown returns completed-request counts bucketed by status
// label, sorted by descending count (see status.go). Snapshot folds this
// same data into its StatusBreakdown field; exposed standalone for
// callers that only need this observable.
func (a *Aggregator) StatusBreakdown() []StatusCount {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.statusBreakdownLocked()
}

func (a *Aggregator) statusBreakdownLocked() []StatusCount {
	if len(a.statusCounts) == 0 {
		return nil
	}
	counts := make(map[string]int, len(a.statusCounts))
	for k, v := range a.statusCounts {
		counts[k] = v
	}
	return FlattenStatusCounts(counts)
}

func (a *Aggregator) pruneRequestTimesLocked(now time.Time) {
	cutoff := now.Add(-rpsWindow)
	idx := 0
	for idx < len(a.requestTimes) && a.requestTimes[idx].Before(cutoff) {
		idx++
	}
	if idx > 0 {
		a.requestTimes = append([]time.Time(nil), a.requestTimes[idx:]...)
	}
}

// RecordFlowCompletion is called once per successfully completed
// iteration (never on an iteration that ended via _flow_error), folding
// its duration into a bounded ring-buffer rolling average per DESIGN.md's
// resolution of spec.md §4.10's "rolling mean... or EMA" choice.
func (a *Aggregator) RecordFlowCompletion(duration time.Duration) {
	a.flowCount.Add(1)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.durationsFill < flowDurationWindow {
		a.durations[a.durationsNext] = duration
		a.durationSum += duration
		a.durationsFill++
	} else {
		old := a.durations[a.durationsNext]
		a.durationSum += duration - old
		a.durations[a.durationsNext] = duration
	}
	a.durationsNext = (a.durationsNext + 1) % flowDurationWindow
}

// Snapshot returns a consistent read of all observables.
func (a *Aggregator) Snapshot(now time.Time) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pruneRequestTimesLocked(now)
	rps := 0.0
	if len(a.requestTimes) > 0 {
		rps = float64(len(a.requestTimes)) / rpsWindow.Seconds()
	}

	avgMs := 0.0
	if a.durationsFill > 0 {
		avgMs = float64(a.durationSum) / float64(a.durationsFill) / float64(time.Millisecond)
	}

	return Snapshot{
		Running:              a.running.Load(),
		ActiveSimulatedUsers: int(a.activeUsers.Load()),
		TotalRequests:        a.totalRequests.Load(),
		RequestsPerSecond:    rps,
		FlowCount:            a.flowCount.Load(),
		AvgFlowDurationMs:    avgMs,
		LatencyP50Ms:         a.latencyPercentileMsLocked(50),
		LatencyP95Ms:         a.latencyPercentileMsLocked(95),
		LatencyP99Ms:         a.latencyPercentileMsLocked(99),
		StatusBreakdown:      a.statusBreakdownLocked(),
	}
}

// LatencyPercentile reports a request-latency percentile (0 if no samples
// yet). Grounded on the teacher's hdrhistogram-backed collector; folded
// into Snapshot's p50/p95/p99 fields so CLI output surfaces it.
func (a *Aggregator) LatencyPercentile(p float64) time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latencyPercentileLocked(p)
}

func (a *Aggregator) latencyPercentileLocked(p float64) time.Duration {
	if a.latencyHist.TotalCount() == 0 {
		return 0
	}
	return time.Duration(a.latencyHist.ValueAtQuantile(p)) * time.Microsecond
}

func (a *Aggregator) latencyPercentileMsLocked(p float64) float64 {
	return float64(a.latencyPercentileLocked(p)) / float64(time.Millisecond)
}

// Reset zeroes every observable. Used by Engine.Start when restarting
// after a prior run (an implicit Stop per spec.md §4.9).
func (a *Aggregator) Reset() {
	a.running.Store(false)
	a.activeUsers.Store(0)
	a.totalRequests.Store(0)
	a.flowCount.Store(0)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.requestTimes = nil
	a.durations = [flowDurationWindow]time.Duration{}
	a.durationsFill = 0
	a.durationsNext = 0
	a.durationSum = 0
	a.latencyHist = hdrhistogram.New(1, 60_000_000, 3)
	a.statusCounts = make(map[string]int)
}
