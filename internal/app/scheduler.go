package app

import (
	"sort"
	"time"
)

// Scheduler moves blocking work off the event loop and back.
//
// Go runs work somewhere that may block and applies the continuation it
// returns on the event loop. After runs fn on the event loop once d has
// elapsed. The runtime never touches its state from anywhere but the loop.
type Scheduler interface {
	Go(work func() func())
	After(d time.Duration, fn func())
}

// SyncScheduler runs work inline and keeps timers on a virtual clock that
// only moves when Advance is called. Headless rendering uses it to settle
// the runtime without waiting on real timers.
type SyncScheduler struct {
	now    time.Duration
	seq    int
	timers []timer
}

type timer struct {
	due time.Duration
	seq int
	fn  func()
}

// NewSyncScheduler creates a scheduler at virtual time zero.
func NewSyncScheduler() *SyncScheduler {
	return &SyncScheduler{}
}

// Go runs work and its continuation immediately.
func (s *SyncScheduler) Go(work func() func()) {
	if apply := work(); apply != nil {
		apply()
	}
}

// After queues fn at now+d on the virtual clock.
func (s *SyncScheduler) After(d time.Duration, fn func()) {
	s.seq++
	s.timers = append(s.timers, timer{due: s.now + d, seq: s.seq, fn: fn})
}

// Pending returns the number of timers not yet fired.
func (s *SyncScheduler) Pending() int {
	return len(s.timers)
}

// Advance moves the virtual clock forward by d, firing due timers in
// deadline order. Timers queued while advancing fire too if they fall due.
func (s *SyncScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		sort.SliceStable(s.timers, func(i, j int) bool {
			if s.timers[i].due == s.timers[j].due {
				return s.timers[i].seq < s.timers[j].seq
			}
			return s.timers[i].due < s.timers[j].due
		})
		if len(s.timers) == 0 || s.timers[0].due > target {
			break
		}
		next := s.timers[0]
		s.timers = s.timers[1:]
		s.now = next.due
		next.fn()
	}
	s.now = target
}

// Elapsed returns the virtual time.
func (s *SyncScheduler) Elapsed() time.Duration {
	return s.now
}
