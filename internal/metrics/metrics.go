// Package metrics collects in-process counters and timings for parse runs
// and exports them as JSON or Prometheus text.
package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Metric names recorded by diffparse.
const (
	MetricDiffsParsed    = "diffparse_parses_total"
	MetricParseErrors    = "diffparse_parse_errors_total"
	MetricFilesParsed    = "diffparse_files_total"
	MetricInsertedLines  = "diffparse_lines_inserted_total"
	MetricDeletedLines   = "diffparse_lines_deleted_total"
	MetricBytesRead      = "diffparse_bytes_read_total"
	MetricParseDuration  = "diffparse_parse_duration"
	MetricDiffSize       = "diffparse_diff_size_bytes"
	MetricInflight       = "diffparse_inflight"
	MetricCrosscheckDiff = "diffparse_crosscheck_mismatches_total"
	MetricBinaryFiles    = "diffparse_binary_files_total"
	MetricChanges        = "diffparse_changes_total"
)

const histogramCapacity = 1000

// Collector collects and manages metrics.
type Collector struct {
	mu         sync.RWMutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	timers     map[string]*Timer
	startTime  time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	c := &Collector{}
	c.Reset()
	return c
}

// Counter is a monotonically increasing counter.
type Counter struct {
	value atomic.Int64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.value.Add(1) }

// Add adds n to the counter. Negative values are ignored.
func (c *Counter) Add(n int64) {
	if n > 0 {
		c.value.Add(n)
	}
}

// Value returns the current counter value.
func (c *Counter) Value() int64 { return c.value.Load() }

// Gauge represents a value that can go up or down.
type Gauge struct {
	bits atomic.Uint64
}

// Set sets the gauge value.
func (g *Gauge) Set(v float64) { g.bits.Store(math.Float64bits(v)) }

// Add adds v to the gauge.
func (g *Gauge) Add(v float64) {
	for {
		old := g.bits.Load()
		if g.bits.CompareAndSwap(old, math.Float64bits(math.Float64frombits(old)+v)) {
			return
		}
	}
}

// Inc increments the gauge by 1.
func (g *Gauge) Inc() { g.Add(1) }

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() { g.Add(-1) }

// Value returns the current gauge value.
func (g *Gauge) Value() float64 { return math.Float64frombits(g.bits.Load()) }

// Histogram keeps the most recent observations in a ring.
type Histogram struct {
	mu     sync.Mutex
	values []float64
	next   int
	full   bool
	total  int64
}

// NewHistogram creates a histogram keeping up to capacity values.
func NewHistogram(capacity int) *Histogram {
	if capacity <= 0 {
		capacity = histogramCapacity
	}
	return &Histogram{values: make([]float64, capacity)}
}

// Observe records a value in the histogram.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.values[h.next] = v
	h.next++
	h.total++
	if h.next == len(h.values) {
		h.next = 0
		h.full = true
	}
}

func (h *Histogram) snapshot() []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := h.next
	if h.full {
		n = len(h.values)
	}
	out := make([]float64, n)
	copy(out, h.values[:n])
	sort.Float64s(out)
	return out
}

// Percentile returns the p-th percentile (0-100) of retained values.
func (h *Histogram) Percentile(p float64) float64 {
	sorted := h.snapshot()
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p/100)]
}

// Stats returns histogram statistics. Count covers every observation,
// including ones rotated out of the ring.
func (h *Histogram) Stats() HistogramStats {
	sorted := h.snapshot()
	if len(sorted) == 0 {
		return HistogramStats{}
	}

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	h.mu.Lock()
	total := h.total
	h.mu.Unlock()

	n := len(sorted)
	at := func(p int) float64 { return sorted[(n-1)*p/100] }
	return HistogramStats{
		Count: total,
		Min:   sorted[0],
		Max:   sorted[n-1],
		Avg:   sum / float64(n),
		P50:   at(50),
		P90:   at(90),
		P99:   at(99),
	}
}

// HistogramStats contains histogram statistics.
type HistogramStats struct {
	Count int64   `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	P50   float64 `json:"p50"`
	P90   float64 `json:"p90"`
	P99   float64 `json:"p99"`
}

// Timer measures durations in seconds.
type Timer struct {
	histogram *Histogram
}

// Start starts a new timer context.
func (t *Timer) Start() *TimerContext {
	return &TimerContext{timer: t, start: time.Now()}
}

// Record adds an already measured duration.
func (t *Timer) Record(d time.Duration) {
	t.histogram.Observe(d.Seconds())
}

// Stats returns the timer's statistics in seconds.
func (t *Timer) Stats() HistogramStats {
	return t.histogram.Stats()
}

// TimerContext represents an active timer.
type TimerContext struct {
	timer *Timer
	start time.Time
}

// Stop stops the timer and records the duration.
func (tc *TimerContext) Stop() time.Duration {
	d := time.Since(tc.start)
	tc.timer.Record(d)
	return d
}

// getOrCreate looks name up under the read lock and falls back to creating
// it under the write lock.
func getOrCreate[T any](c *Collector, m func() map[string]*T, name string, create func() *T) *T {
	c.mu.RLock()
	v, ok := m()[name]
	c.mu.RUnlock()
	if ok {
		return v
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := m()[name]; ok {
		return v
	}
	v = create()
	m()[name] = v
	return v
}

// Counter returns or creates a counter.
func (c *Collector) Counter(name string) *Counter {
	return getOrCreate(c, func() map[string]*Counter { return c.counters }, name, func() *Counter { return &Counter{} })
}

// Gauge returns or creates a gauge.
func (c *Collector) Gauge(name string) *Gauge {
	return getOrCreate(c, func() map[string]*Gauge { return c.gauges }, name, func() *Gauge { return &Gauge{} })
}

// Histogram returns or creates a histogram.
func (c *Collector) Histogram(name string) *Histogram {
	return getOrCreate(c, func() map[string]*Histogram { return c.histograms }, name, func() *Histogram {
		return NewHistogram(histogramCapacity)
	})
}

// Timer returns or creates a timer.
func (c *Collector) Timer(name string) *Timer {
	return getOrCreate(c, func() map[string]*Timer { return c.timers }, name, func() *Timer {
		return &Timer{histogram: NewHistogram(histogramCapacity)}
	})
}

// Uptime returns the duration since the collector was created or reset.
func (c *Collector) Uptime() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Since(c.startTime)
}

// Snapshot is a point-in-time copy of every metric.
type Snapshot struct {
	Uptime     string                    `json:"uptime" yaml:"uptime"`
	Counters   map[string]int64          `json:"counters" yaml:"counters"`
	Gauges     map[string]float64        `json:"gauges" yaml:"gauges"`
	Histograms map[string]HistogramStats `json:"histograms" yaml:"histograms"`
	Timers     map[string]HistogramStats `json:"timers" yaml:"timers"`
}

// Snapshot copies the current values.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:     time.Since(c.startTime).String(),
		Counters:   make(map[string]int64, len(c.counters)),
		Gauges:     make(map[string]float64, len(c.gauges)),
		Histograms: make(map[string]HistogramStats, len(c.histograms)),
		Timers:     make(map[string]HistogramStats, len(c.timers)),
	}
	for name, v := range c.counters {
		s.Counters[name] = v.Value()
	}
	for name, v := range c.gauges {
		s.Gauges[name] = v.Value()
	}
	for name, v := range c.histograms {
		s.Histograms[name] = v.Stats()
	}
	for name, v := range c.timers {
		s.Timers[name] = v.Stats()
	}
	return s
}

// Export exports metrics to JSON.
func (c *Collector) Export() ([]byte, error) {
	return json.MarshalIndent(c.Snapshot(), "", "  ")
}

// ExportPrometheus exports metrics in Prometheus text format, sorted by name.
func (c *Collector) ExportPrometheus() string {
	s := c.Snapshot()
	var sb strings.Builder

	for _, name := range sortedKeys(s.Counters) {
		fmt.Fprintf(&sb, "# TYPE %s counter\n%s %d\n", name, name, s.Counters[name])
	}
	for _, name := range sortedKeys(s.Gauges) {
		fmt.Fprintf(&sb, "# TYPE %s gauge\n%s %g\n", name, name, s.Gauges[name])
	}
	for _, name := range sortedKeys(s.Histograms) {
		writeSummary(&sb, name, s.Histograms[name])
	}
	for _, name := range sortedKeys(s.Timers) {
		writeSummary(&sb, name+"_seconds", s.Timers[name])
	}

	return sb.String()
}

func writeSummary(sb *strings.Builder, name string, stats HistogramStats) {
	fmt.Fprintf(sb, "# TYPE %s summary\n", name)
	fmt.Fprintf(sb, "%s{quantile=\"0.5\"} %g\n", name, stats.P50)
	fmt.Fprintf(sb, "%s{quantile=\"0.9\"} %g\n", name, stats.P90)
	fmt.Fprintf(sb, "%s{quantile=\"0.99\"} %g\n", name, stats.P99)
	fmt.Fprintf(sb, "%s_count %d\n", name, stats.Count)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reset resets all metrics.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counters = make(map[string]*Counter)
	c.gauges = make(map[string]*Gauge)
	c.histograms = make(map[string]*Histogram)
	c.timers = make(map[string]*Timer)
	c.startTime = time.Now()
}
