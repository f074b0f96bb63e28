package service

import (
	"sync"
	"time"

	"github.com/hushcampus-dev/hushcampus/internal/domain"
	"github.com/hushcampus-dev/hushcampus/internal/logger"
)

// BoostKind is a temporary visibility enhancement that auto-reverts on expiry.
type BoostKind string

const (
	BoostPin         BoostKind = "pin"
	BoostHighlight   BoostKind = "highlight"
	BoostCrossCampus BoostKind = "crossCampus"
)

// SchedulerTarget receives timer-fired transitions. Fire-and-forget: the
// target only emits informational events on failure.
type SchedulerTarget interface {
	ExpirePost(id domain.PostId)
	ExpireBoost(id domain.PostId, kind BoostKind)
}

// TimerHandle is a cancellable scheduled task.
type TimerHandle interface {
	Stop() bool
}

// AfterFunc arms a deferred callback; injected so tests can fire timers
// deterministically without wall-clock waits.
type AfterFunc func(d time.Duration, fn func()) TimerHandle

func systemAfterFunc(d time.Duration, fn func()) TimerHandle {
	return time.AfterFunc(d, fn)
}

// Scheduler owns the arena of cancellable timers driving post expiry and
// boost TTLs. Keys are derived from the entity id, and arming a key always
// cancels the previous handle first.
type Scheduler struct {
	mu        sync.Mutex
	now       Clock
	afterFunc AfterFunc
	timers    map[string]TimerHandle
	target    SchedulerTarget
}

func NewScheduler(now Clock, afterFunc AfterFunc) *Scheduler {
	if now == nil {
		now = SystemClock
	}
	if afterFunc == nil {
		afterFunc = systemAfterFunc
	}
	return &Scheduler{
		now:       now,
		afterFunc: afterFunc,
		timers:    make(map[string]TimerHandle),
	}
}

// SetTarget wires the store callbacks. Must be called before any scheduling.
func (s *Scheduler) SetTarget(target SchedulerTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = target
}

// ScheduleExpiry arms the deletion timer for a post. A deadline already in
// the past triggers deletion synchronously instead of arming.
func (s *Scheduler) ScheduleExpiry(post *domain.Post) {
	if post.ExpiresAt == nil {
		return
	}
	s.schedule(expiryKey(post.Id), *post.ExpiresAt, func() {
		s.target.ExpirePost(post.Id)
	})
}

// ClearExpiry cancels the expiry timer. Must be called before any mutation
// that changes the deadline so a stale timer cannot fire after an extension.
func (s *Scheduler) ClearExpiry(id domain.PostId) {
	s.clear(expiryKey(id))
}

// ScheduleBoost arms the revert timer for a boost flag. Past deadlines fire
// synchronously.
func (s *Scheduler) ScheduleBoost(id domain.PostId, kind BoostKind, expiresAt time.Time) {
	s.schedule(boostKey(id, kind), expiresAt, func() {
		s.target.ExpireBoost(id, kind)
	})
}

// ClearBoost cancels one boost timer.
func (s *Scheduler) ClearBoost(id domain.PostId, kind BoostKind) {
	s.clear(boostKey(id, kind))
}

// ClearAllForPost drops every timer belonging to a post (on deletion).
func (s *Scheduler) ClearAllForPost(id domain.PostId) {
	s.clear(expiryKey(id))
	for _, kind := range []BoostKind{BoostPin, BoostHighlight, BoostCrossCampus} {
		s.clear(boostKey(id, kind))
	}
}

// Resume re-arms timers from persisted deadlines after process start.
// Deadlines that elapsed while the process was down fire synchronously, so
// the store is consistent before its first read.
func (s *Scheduler) Resume(posts []*domain.Post) {
	for _, post := range posts {
		s.ScheduleExpiry(post)
		if post.Pinned && post.PinnedUntil != nil {
			s.ScheduleBoost(post.Id, BoostPin, *post.PinnedUntil)
		}
		if post.Highlighted && post.HighlightedUntil != nil {
			s.ScheduleBoost(post.Id, BoostHighlight, *post.HighlightedUntil)
		}
		if post.CrossCampus && post.CrossCampusUntil != nil {
			s.ScheduleBoost(post.Id, BoostCrossCampus, *post.CrossCampusUntil)
		}
	}
	logger.Log.Info("scheduler resumed", "component", "scheduler", "timers", s.ActiveTimers())
}

// ActiveTimers returns the number of live handles.
func (s *Scheduler) ActiveTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Shutdown cancels every live timer so nothing fires against a torn-down store.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, handle := range s.timers {
		handle.Stop()
		delete(s.timers, key)
	}
}

func (s *Scheduler) schedule(key string, deadline time.Time, fire func()) {
	s.mu.Lock()
	if existing, ok := s.timers[key]; ok {
		existing.Stop()
		delete(s.timers, key)
	}

	delay := deadline.Sub(s.now())
	if delay <= 0 {
		s.mu.Unlock()
		fire()
		return
	}

	s.timers[key] = s.afterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, key)
		s.mu.Unlock()
		fire()
	})
	s.mu.Unlock()
}

func (s *Scheduler) clear(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if handle, ok := s.timers[key]; ok {
		handle.Stop()
		delete(s.timers, key)
	}
}

func expiryKey(id domain.PostId) string {
	return "expiry:" + id
}

func boostKey(id domain.PostId, kind BoostKind) string {
	return "boost:" + string(kind) + ":" + id
}
