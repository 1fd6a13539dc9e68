package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics aggregates per-action counters for the assistant.
type Metrics struct {
	mu sync.Mutex

	requestTotal  atomic.Int64
	requestFailed atomic.Int64

	actions map[string]*ActionMetrics

	// durations is a bounded FIFO used for latency percentiles.
	durations    []time.Duration
	maxDurations int
}

// ActionMetrics represents metrics for one dispatched action.
type ActionMetrics struct {
	count         atomic.Int64
	totalDuration atomic.Int64 // milliseconds
}

// NewMetrics creates a new metrics collector.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		actions:      make(map[string]*ActionMetrics),
		durations:    make([]time.Duration, 0, maxDurations),
		maxDurations: maxDurations,
	}
}

// RecordAction records one handled utterance and the action it produced.
func (m *Metrics) RecordAction(action string, duration time.Duration) {
	m.requestTotal.Add(1)
	am := m.action(action)
	am.count.Add(1)
	am.totalDuration.Add(duration.Milliseconds())

	m.mu.Lock()
	if len(m.durations) >= m.maxDurations {
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, duration)
	m.mu.Unlock()
}

// RecordFailure records an utterance that ended in an unexpected error.
func (m *Metrics) RecordFailure() {
	m.requestTotal.Add(1)
	m.requestFailed.Add(1)
}

func (m *Metrics) action(name string) *ActionMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	am, ok := m.actions[name]
	if !ok {
		am = &ActionMetrics{}
		m.actions[name] = am
	}
	return am
}

// Snapshot returns a point-in-time copy of the metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	actions := make(map[string]int64, len(m.actions))
	for name, am := range m.actions {
		actions[name] = am.count.Load()
	}

	sorted := make([]time.Duration, len(m.durations))
	copy(sorted, m.durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return &MetricsSnapshot{
		RequestTotal:  m.requestTotal.Load(),
		RequestFailed: m.requestFailed.Load(),
		Actions:       actions,
		P50:           percentile(sorted, 0.50),
		P95:           percentile(sorted, 0.95),
		Average:       average(sorted),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	RequestTotal  int64
	RequestFailed int64
	Actions       map[string]int64
	P50           time.Duration
	P95           time.Duration
	Average       time.Duration
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RequestTotal == 0 {
		return 100.0
	}
	return float64(s.RequestTotal-s.RequestFailed) / float64(s.RequestTotal) * 100.0
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}
