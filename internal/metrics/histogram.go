package metrics

import (
	"math"
	"slices"
	"sync"
	"time"
)

// DefaultWindow is the number of samples a histogram keeps.
const DefaultWindow = 4096

// Histogram keeps the most recent duration samples and reports percentiles
// over them. Values are in milliseconds.
type Histogram struct {
	mu      sync.RWMutex
	samples []float64 // ring buffer
	next    int
	full    bool
	total   uint64
}

// NewHistogram creates a histogram keeping the last window samples.
func NewHistogram(window int) *Histogram {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Histogram{samples: make([]float64, window)}
}

// Record adds a duration sample, evicting the oldest once the window is full.
func (h *Histogram) Record(d time.Duration) {
	ms := float64(d.Microseconds()) / 1000.0

	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples[h.next] = ms
	h.next++
	if h.next == len(h.samples) {
		h.next = 0
		h.full = true
	}
	h.total++
}

// window returns a copy of the held samples. Callers hold mu.
func (h *Histogram) window() []float64 {
	if h.full {
		return slices.Clone(h.samples)
	}
	return slices.Clone(h.samples[:h.next])
}

// Snapshot summarizes the held samples.
func (h *Histogram) Snapshot() LatencyStats {
	h.mu.RLock()
	values := h.window()
	total := h.total
	h.mu.RUnlock()

	stats := LatencyStats{Count: len(values), Total: total}
	if len(values) == 0 {
		return stats
	}

	slices.Sort(values)
	var sum float64
	for _, v := range values {
		sum += v
	}
	stats.Mean = sum / float64(len(values))
	stats.Min = values[0]
	stats.Max = values[len(values)-1]
	stats.P50 = percentile(values, 50)
	stats.P95 = percentile(values, 95)
	stats.P99 = percentile(values, 99)
	return stats
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, p float64) float64 {
	index := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}
	fraction := index - float64(lower)
	return sorted[lower]*(1-fraction) + sorted[upper]*fraction
}

// Reset drops every sample.
func (h *Histogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next, h.full, h.total = 0, false, 0
}

// LatencyStats summarizes a histogram, in milliseconds.
type LatencyStats struct {
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"` // samples in the window
	Total uint64  `json:"total"` // samples ever recorded
}
