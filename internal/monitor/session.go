// Package monitor keeps per-session counters: request timings, template
// cache activity and surfaced errors.
package monitor

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// OperationType represents different operation types being monitored
type OperationType string

const (
	OperationFetchPosts    OperationType = "fetch_posts"
	OperationFirstPaint    OperationType = "first_paint"
	OperationCreateComment OperationType = "create_comment"
	OperationNavigate      OperationType = "navigate"
)

// OperationMetrics holds metrics for specific operations
type OperationMetrics struct {
	Operation    OperationType `json:"operation"`
	Count        int64         `json:"count"`
	ErrorCount   int64         `json:"error_count"`
	SuccessCount int64         `json:"success_count"`
	MinTime      int64         `json:"min_time_ns"`
	MaxTime      int64         `json:"max_time_ns"`
	AvgTime      int64         `json:"avg_time_ns"`
}

// Snapshot is a point-in-time copy of the session counters
type Snapshot struct {
	StartedAt      time.Time          `json:"started_at"`
	Uptime         time.Duration      `json:"uptime_ns"`
	TemplateHits   int64              `json:"template_hits"`
	TemplateMisses int64              `json:"template_misses"`
	PartialFetches int64              `json:"partial_fetches"`
	Errors         int64              `json:"errors"`
	Operations     []OperationMetrics `json:"operations"`
}

// Session collects counters for one run. It is safe for concurrent use and
// implements the template cache's Stats interface.
type Session struct {
	startedAt time.Time
	now       func() time.Time

	hits     *Counter
	misses   *Counter
	partials *Counter
	errors   *Counter

	mu     sync.RWMutex
	timers map[OperationType]*Timer
}

// NewSession starts a session now
func NewSession() *Session {
	return newSession(time.Now)
}

func newSession(now func() time.Time) *Session {
	return &Session{
		startedAt: now(),
		now:       now,
		hits:      NewCounter("template_hits"),
		misses:    NewCounter("template_misses"),
		partials:  NewCounter("partial_fetches"),
		errors:    NewCounter("errors"),
		timers:    make(map[OperationType]*Timer),
	}
}

// Track times fn as an operation and records whether it failed
func (s *Session) Track(op OperationType, fn func() error) error {
	start := s.now()
	err := fn()
	s.timer(op).Record(s.now().Sub(start), err != nil)
	return err
}

func (s *Session) timer(op OperationType) *Timer {
	s.mu.RLock()
	t, ok := s.timers[op]
	s.mu.RUnlock()
	if ok {
		return t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[op]; ok {
		return t
	}
	t = NewTimer(string(op))
	s.timers[op] = t
	return t
}

// Error counts an error surfaced to the user
func (s *Session) Error() {
	s.errors.Inc()
}

// TemplateHit counts a template cache hit
func (s *Session) TemplateHit(string) {
	s.hits.Inc()
}

// TemplateMiss counts a template cache miss
func (s *Session) TemplateMiss(string) {
	s.misses.Inc()
}

// PartialFetched counts an uncached partial fetch
func (s *Session) PartialFetched(string) {
	s.partials.Inc()
}

// Snapshot returns the current counters, operations sorted by name
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		StartedAt:      s.startedAt,
		Uptime:         s.now().Sub(s.startedAt),
		TemplateHits:   s.hits.Get(),
		TemplateMisses: s.misses.Get(),
		PartialFetches: s.partials.Get(),
		Errors:         s.errors.Get(),
	}

	s.mu.RLock()
	for op, t := range s.timers {
		count, failed := t.Count(), t.Errors()
		snap.Operations = append(snap.Operations, OperationMetrics{
			Operation:    op,
			Count:        count,
			ErrorCount:   failed,
			SuccessCount: count - failed,
			MinTime:      t.MinTime().Nanoseconds(),
			MaxTime:      t.MaxTime().Nanoseconds(),
			AvgTime:      t.AvgTime().Nanoseconds(),
		})
	}
	s.mu.RUnlock()

	sort.Slice(snap.Operations, func(i, j int) bool {
		return snap.Operations[i].Operation < snap.Operations[j].Operation
	})
	return snap
}

// Summary renders a snapshot as a short text block
func (snap Snapshot) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", snap.Uptime.Round(time.Millisecond))
	fmt.Fprintf(&b, "Templates: %d hits, %d misses, %d partial fetches\n",
		snap.TemplateHits, snap.TemplateMisses, snap.PartialFetches)
	fmt.Fprintf(&b, "Errors: %d\n", snap.Errors)
	for _, op := range snap.Operations {
		fmt.Fprintf(&b, "  %-15s %3d ok %3d failed  avg %s\n",
			op.Operation, op.SuccessCount, op.ErrorCount, time.Duration(op.AvgTime).Round(time.Microsecond))
	}
	return b.String()
}
