// Package metrics collects review counters and durations and exports them
// in the Prometheus text format.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultBuckets are the upper bounds, in seconds, of timer histograms.
// Reviewing one file normally takes between a millisecond and a second.
var DefaultBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// Labels qualifies a series, e.g. {"severity": "high"}.
type Labels map[string]string

// String renders labels in Prometheus syntax with sorted keys. Empty
// labels render as "".
func (l Labels) String() string {
	if len(l) == 0 {
		return ""
	}
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + strconv.Quote(l[k])
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Collector holds named counters and timers. It is safe for concurrent
// use.
type Collector struct {
	mu     sync.RWMutex
	series map[string]*Counter // keyed by name + labels
	names  map[string]string   // series key -> metric name
	timers map[string]*Timer
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	c := &Collector{}
	c.Reset()
	return c
}

// Counter only goes up.
type Counter struct {
	value atomic.Int64
}

func (c *Counter) Inc() {
	c.value.Add(1)
}

// Add adds n. Negative values are ignored.
func (c *Counter) Add(n int64) {
	if n > 0 {
		c.value.Add(n)
	}
}

func (c *Counter) Value() int64 {
	return c.value.Load()
}

// Timer is a histogram of durations over fixed buckets.
type Timer struct {
	bounds []float64

	mu     sync.Mutex
	counts []int64 // per bucket, not cumulative; last is +Inf
	count  int64
	sum    float64
}

func newTimer(bounds []float64) *Timer {
	return &Timer{bounds: bounds, counts: make([]int64, len(bounds)+1)}
}

// Observe records d.
func (t *Timer) Observe(d time.Duration) {
	s := d.Seconds()
	i := sort.SearchFloat64s(t.bounds, s)

	t.mu.Lock()
	t.counts[i]++
	t.count++
	t.sum += s
	t.mu.Unlock()
}

// Start begins timing; call Stop on the result.
func (t *Timer) Start() *Stopwatch {
	return &Stopwatch{timer: t, start: time.Now()}
}

// TimerStats is a copy of a timer's state.
type TimerStats struct {
	Count int64
	Sum   float64
	// Buckets maps each upper bound to the cumulative count of
	// observations at or below it. The +Inf bucket equals Count.
	Buckets []Bucket
}

// Bucket is one cumulative histogram bucket.
type Bucket struct {
	UpperBound float64
	Count      int64
}

func (t *Timer) Stats() TimerStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := TimerStats{Count: t.count, Sum: t.sum, Buckets: make([]Bucket, 0, len(t.counts))}
	var cum int64
	for i, n := range t.counts {
		cum += n
		bound := math.Inf(1)
		if i < len(t.bounds) {
			bound = t.bounds[i]
		}
		st.Buckets = append(st.Buckets, Bucket{UpperBound: bound, Count: cum})
	}
	return st
}

// Stopwatch is a running measurement.
type Stopwatch struct {
	timer *Timer
	start time.Time
}

// Stop records and returns the elapsed time.
func (s *Stopwatch) Stop() time.Duration {
	d := time.Since(s.start)
	s.timer.Observe(d)
	return d
}

// Counter returns the unlabeled counter called name, creating it on first
// use.
func (c *Collector) Counter(name string) *Counter {
	return c.CounterWith(name, nil)
}

// CounterWith returns the counter for name and labels.
func (c *Collector) CounterWith(name string, labels Labels) *Counter {
	key := name + labels.String()

	c.mu.RLock()
	counter, ok := c.series[key]
	c.mu.RUnlock()
	if ok {
		return counter
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if counter, ok := c.series[key]; ok {
		return counter
	}
	counter = &Counter{}
	c.series[key] = counter
	c.names[key] = name
	return counter
}

// Timer returns the timer called name, using DefaultBuckets.
func (c *Collector) Timer(name string) *Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[name]; ok {
		return t
	}
	t := newTimer(DefaultBuckets)
	c.timers[name] = t
	return t
}

// Snapshot returns every counter value keyed by name plus labels, e.g.
// `codesentry_issues_by_severity_total{severity="high"}`.
func (c *Collector) Snapshot() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]int64, len(c.series))
	for key, counter := range c.series {
		out[key] = counter.Value()
	}
	return out
}

// ExportPrometheus renders counters then timers, both sorted by name.
// Each metric family gets one HELP and TYPE header.
func (c *Collector) ExportPrometheus() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var sb strings.Builder

	family := ""
	for _, key := range sortedKeys(c.series) {
		if name := c.names[key]; name != family {
			family = name
			writeHeader(&sb, name, "counter")
		}
		fmt.Fprintf(&sb, "%s %d\n", key, c.series[key].Value())
	}

	for _, name := range sortedKeys(c.timers) {
		st := c.timers[name].Stats()
		metric := name + "_seconds"
		writeHeader(&sb, metric, "histogram")
		for _, b := range st.Buckets {
			le := "+Inf"
			if !math.IsInf(b.UpperBound, 1) {
				le = strconv.FormatFloat(b.UpperBound, 'g', -1, 64)
			}
			fmt.Fprintf(&sb, "%s_bucket{le=%q} %d\n", metric, le, b.Count)
		}
		fmt.Fprintf(&sb, "%s_sum %g\n", metric, st.Sum)
		fmt.Fprintf(&sb, "%s_count %d\n", metric, st.Count)
	}

	return sb.String()
}

func writeHeader(sb *strings.Builder, name, kind string) {
	if help, ok := descriptions[name]; ok {
		fmt.Fprintf(sb, "# HELP %s %s\n", name, help)
	}
	fmt.Fprintf(sb, "# TYPE %s %s\n", name, kind)
}

// Reset drops every metric.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.series = make(map[string]*Counter)
	c.names = make(map[string]string)
	c.timers = make(map[string]*Timer)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
