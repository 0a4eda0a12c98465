package metrics

import (
	"sync"
	"time"
)

// RequestMetrics tracks transport activity for a client
type RequestMetrics struct {
	mu sync.RWMutex

	// Request metrics
	TotalRequests  int64
	FailedRequests int64

	// Attempt metrics
	TotalAttempts  int64
	FailedAttempts int64
	Retries        int64
	AttemptLatency time.Duration

	// Poll metrics
	Polls        int64
	PollTimeouts int64
}

// NewRequestMetrics creates a new RequestMetrics instance
func NewRequestMetrics() *RequestMetrics {
	return &RequestMetrics{}
}

// RecordAttempt records a single HTTP attempt and how long it took
func (m *RequestMetrics) RecordAttempt(success bool, duration time.Duration) {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalAttempts++
	if !success {
		m.FailedAttempts++
	}
	m.AttemptLatency += duration
}

// RecordRetry records that another attempt is scheduled
func (m *RequestMetrics) RecordRetry() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Retries++
}

// RecordRequest records the outcome of a logical request
func (m *RequestMetrics) RecordRequest(success bool) {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests++
	if !success {
		m.FailedRequests++
	}
}

// RecordPoll records one status poll, and whether the wait timed out
func (m *RequestMetrics) RecordPoll(timedOut bool) {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Polls++
	if timedOut {
		m.PollTimeouts++
	}
}

// Snapshot returns a copy of the current metrics
func (m *RequestMetrics) Snapshot() map[string]any {
	if m == nil {
		return map[string]any{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	avgLatency := 0.0
	if m.TotalAttempts > 0 {
		avgLatency = m.AttemptLatency.Seconds() / float64(m.TotalAttempts)
	}

	return map[string]any{
		"total_requests":      m.TotalRequests,
		"failed_requests":     m.FailedRequests,
		"total_attempts":      m.TotalAttempts,
		"failed_attempts":     m.FailedAttempts,
		"retries":             m.Retries,
		"avg_attempt_latency": avgLatency,
		"polls":               m.Polls,
		"poll_timeouts":       m.PollTimeouts,
	}
}
