// Package metrics tracks scanner throughput and latency in memory.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Scan states counted separately. They match the decklist completion states.
const (
	StateValidated = "validated"
	StateRepaired  = "repaired"
	StateEmergency = "emergency"
)

// ScanSample describes one finished scan.
type ScanSample struct {
	State      string
	Guaranteed bool
	// Resolved and Unresolved count entries, not card copies.
	Resolved   int
	Unresolved int

	Resolve  time.Duration // name resolution
	Complete time.Duration // aggregation, completion and export
	Total    time.Duration
}

// ScanMetrics collects scan outcomes. It is safe for concurrent use.
type ScanMetrics struct {
	ResolveLatency  *Histogram
	CompleteLatency *Histogram
	ScanLatency     *Histogram

	Scans      atomic.Uint64
	Guaranteed atomic.Uint64
	Validated  atomic.Uint64
	Repaired   atomic.Uint64
	Emergency  atomic.Uint64
	Resolved   atomic.Uint64
	Unresolved atomic.Uint64

	mu        sync.RWMutex
	startTime time.Time
}

// NewScanMetrics creates an empty collector.
func NewScanMetrics() *ScanMetrics {
	return &ScanMetrics{
		ResolveLatency:  NewHistogram(DefaultWindow),
		CompleteLatency: NewHistogram(DefaultWindow),
		ScanLatency:     NewHistogram(DefaultWindow),
		startTime:       time.Now(),
	}
}

// RecordScan adds one scan.
func (m *ScanMetrics) RecordScan(s ScanSample) {
	m.ResolveLatency.Record(s.Resolve)
	m.CompleteLatency.Record(s.Complete)
	m.ScanLatency.Record(s.Total)

	m.Scans.Add(1)
	if s.Guaranteed {
		m.Guaranteed.Add(1)
	}
	switch s.State {
	case StateValidated:
		m.Validated.Add(1)
	case StateRepaired:
		m.Repaired.Add(1)
	case StateEmergency:
		m.Emergency.Add(1)
	}
	m.Resolved.Add(uint64(max(s.Resolved, 0)))
	m.Unresolved.Add(uint64(max(s.Unresolved, 0)))
}

// ScanStats is a point-in-time view of ScanMetrics.
type ScanStats struct {
	ResolveLatency  LatencyStats `json:"resolve_latency"`
	CompleteLatency LatencyStats `json:"complete_latency"`
	ScanLatency     LatencyStats `json:"scan_latency"`

	Scans      uint64 `json:"scans"`
	Guaranteed uint64 `json:"guaranteed"`
	Validated  uint64 `json:"validated"`
	Repaired   uint64 `json:"repaired"`
	Emergency  uint64 `json:"emergency"`
	Resolved   uint64 `json:"resolved_entries"`
	Unresolved uint64 `json:"unresolved_entries"`

	ResolutionRate float64 `json:"resolution_rate"` // percentage of entries resolved
	GuaranteedRate float64 `json:"guaranteed_rate"` // percentage of scans yielding a real deck

	Uptime string `json:"uptime"`
}

// GetStats returns a snapshot of the current statistics.
func (m *ScanMetrics) GetStats() *ScanStats {
	m.mu.RLock()
	start := m.startTime
	m.mu.RUnlock()

	stats := &ScanStats{
		ResolveLatency:  m.ResolveLatency.Snapshot(),
		CompleteLatency: m.CompleteLatency.Snapshot(),
		ScanLatency:     m.ScanLatency.Snapshot(),
		Scans:           m.Scans.Load(),
		Guaranteed:      m.Guaranteed.Load(),
		Validated:       m.Validated.Load(),
		Repaired:        m.Repaired.Load(),
		Emergency:       m.Emergency.Load(),
		Resolved:        m.Resolved.Load(),
		Unresolved:      m.Unresolved.Load(),
		Uptime:          time.Since(start).Round(time.Second).String(),
	}
	if n := stats.Resolved + stats.Unresolved; n > 0 {
		stats.ResolutionRate = float64(stats.Resolved) / float64(n) * 100
	}
	if stats.Scans > 0 {
		stats.GuaranteedRate = float64(stats.Guaranteed) / float64(stats.Scans) * 100
	}
	return stats
}

// Reset clears all metrics.
func (m *ScanMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ResolveLatency.Reset()
	m.CompleteLatency.Reset()
	m.ScanLatency.Reset()

	m.Scans.Store(0)
	m.Guaranteed.Store(0)
	m.Validated.Store(0)
	m.Repaired.Store(0)
	m.Emergency.Store(0)
	m.Resolved.Store(0)
	m.Unresolved.Store(0)

	m.startTime = time.Now()
}
