// Package perf provides named timers with a running average, used to
// instrument tile rendering phases.
package perf

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/tiles"
)

// Monitor times named phases.
//
// Each tag keeps a running average updated on Stop as
//
//	avg = avg == 0 ? sample : (avg + sample) / 2
//
// which weights recent samples heavily. Monitor is safe for concurrent use,
// although a renderer normally drives it from a single goroutine.
type Monitor struct {
	mu     sync.Mutex
	now    func() time.Time
	logger *slog.Logger
	tags   map[string]*entry
}

type entry struct {
	start   time.Time
	running bool
	avgMs   float64
	samples int
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// WithLogger sets the logger used by Display. By default the module
// logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = l
	}
}

// NewMonitor creates an empty monitor.
func NewMonitor(opts ...Option) *Monitor {
	m := &Monitor{
		now:  time.Now,
		tags: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins timing tag. An empty tag is ignored. Starting a running tag
// restarts it.
func (m *Monitor) Start(tag string) {
	if tag == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.tags[tag]
	if !ok {
		e = &entry{}
		m.tags[tag] = e
	}
	e.start = m.now()
	e.running = true
}

// Stop ends timing tag and folds the sample into its average. Stopping a
// tag that is not running is ignored.
func (m *Monitor) Stop(tag string) {
	if tag == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.tags[tag]
	if !ok || !e.running {
		return
	}
	e.running = false
	sample := float64(m.now().Sub(e.start)) / float64(time.Millisecond)
	if e.avgMs != 0 {
		e.avgMs = (e.avgMs + sample) / 2
	} else {
		e.avgMs = sample
	}
	e.samples++
}

// AverageDuration returns the running average of tag in milliseconds, or 0
// for an unknown tag.
func (m *Monitor) AverageDuration(tag string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.tags[tag]; ok {
		return e.avgMs
	}
	return 0
}

// Samples returns how many samples tag has recorded.
func (m *Monitor) Samples(tag string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.tags[tag]; ok {
		return e.samples
	}
	return 0
}

// Tags returns the known tags in sorted order.
func (m *Monitor) Tags() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.tags))
	for tag := range m.tags {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Clear forgets every tag.
func (m *Monitor) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.tags)
}

// Display logs every tag whose average exceeds thresholdMs at info level
// and returns how many were logged. Nothing is logged when no tag is slow.
func (m *Monitor) Display(thresholdMs float64) int {
	type slow struct {
		tag string
		avg float64
	}
	var found []slow
	for _, tag := range m.Tags() {
		if avg := m.AverageDuration(tag); avg > thresholdMs {
			found = append(found, slow{tag, avg})
		}
	}
	if len(found) == 0 {
		return 0
	}

	logger := m.logger
	if logger == nil {
		logger = tiles.Logger()
	}
	p := message.NewPrinter(language.English)
	logger.Info("performance result", "threshold", p.Sprintf("%.2f ms", thresholdMs))
	for _, s := range found {
		logger.Info("slow phase", "tag", s.tag, "average", p.Sprintf("%.2f ms", s.avg))
	}
	logger.Info("performance result end", "slow", len(found))
	return len(found)
}
