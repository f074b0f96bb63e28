package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushcampus-dev/hushcampus/internal/domain"
)

// recordingTarget records which transitions the scheduler fired.
type recordingTarget struct {
	mu      sync.Mutex
	expired []domain.PostId
	boosts  []string
}

func (r *recordingTarget) ExpirePost(id domain.PostId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expired = append(r.expired, id)
}

func (r *recordingTarget) ExpireBoost(id domain.PostId, kind BoostKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boosts = append(r.boosts, string(kind)+":"+id)
}

func newTestScheduler() (*Scheduler, *mockClock, *manualTimers, *recordingTarget) {
	clock := newMockClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	timers := &manualTimers{}
	target := &recordingTarget{}
	sched := NewScheduler(clock.Now, timers.afterFunc)
	sched.SetTarget(target)
	return sched, clock, timers, target
}

func postExpiringAt(id domain.PostId, at time.Time) *domain.Post {
	return &domain.Post{Id: id, Lifetime: domain.Lifetime24h, ExpiresAt: &at}
}

func TestSchedulerExpiry(t *testing.T) {
	t.Run("future deadline arms a timer that fires into the target", func(t *testing.T) {
		sched, clock, timers, target := newTestScheduler()

		sched.ScheduleExpiry(postExpiringAt("p1", clock.Now().Add(time.Hour)))
		require.Equal(t, 1, sched.ActiveTimers())
		assert.Empty(t, target.expired)

		timers.fire()
		assert.Equal(t, []domain.PostId{"p1"}, target.expired)
		assert.Equal(t, 0, sched.ActiveTimers())
	})

	t.Run("past deadline fires synchronously without arming", func(t *testing.T) {
		sched, clock, timers, target := newTestScheduler()

		sched.ScheduleExpiry(postExpiringAt("p1", clock.Now().Add(-time.Minute)))
		assert.Equal(t, []domain.PostId{"p1"}, target.expired)
		assert.Equal(t, 0, sched.ActiveTimers())
		assert.Equal(t, 0, timers.armedCount())
	})

	t.Run("never lifetime has no deadline and arms nothing", func(t *testing.T) {
		sched, _, timers, _ := newTestScheduler()

		sched.ScheduleExpiry(&domain.Post{Id: "p1", Lifetime: domain.LifetimeNever})
		assert.Equal(t, 0, sched.ActiveTimers())
		assert.Equal(t, 0, timers.armedCount())
	})

	t.Run("rescheduling the same post cancels the old handle first", func(t *testing.T) {
		sched, clock, timers, target := newTestScheduler()

		sched.ScheduleExpiry(postExpiringAt("p1", clock.Now().Add(time.Hour)))
		sched.ScheduleExpiry(postExpiringAt("p1", clock.Now().Add(2*time.Hour)))
		assert.Equal(t, 1, sched.ActiveTimers())
		assert.Equal(t, 1, timers.armedCount())

		timers.fire()
		// only the replacement handle fires
		assert.Equal(t, []domain.PostId{"p1"}, target.expired)
	})

	t.Run("cleared timer never fires", func(t *testing.T) {
		sched, clock, timers, target := newTestScheduler()

		sched.ScheduleExpiry(postExpiringAt("p1", clock.Now().Add(time.Hour)))
		sched.ClearExpiry("p1")
		assert.Equal(t, 0, sched.ActiveTimers())

		timers.fire()
		assert.Empty(t, target.expired)
	})
}

func TestSchedulerBoosts(t *testing.T) {
	t.Run("each boost kind has its own timer slot", func(t *testing.T) {
		sched, clock, _, _ := newTestScheduler()
		deadline := clock.Now().Add(time.Hour)

		sched.ScheduleBoost("p1", BoostPin, deadline)
		sched.ScheduleBoost("p1", BoostHighlight, deadline)
		sched.ScheduleBoost("p1", BoostCrossCampus, deadline)
		assert.Equal(t, 3, sched.ActiveTimers())

		sched.ClearBoost("p1", BoostHighlight)
		assert.Equal(t, 2, sched.ActiveTimers())
	})

	t.Run("boost fires with its kind", func(t *testing.T) {
		sched, clock, timers, target := newTestScheduler()

		sched.ScheduleBoost("p1", BoostPin, clock.Now().Add(time.Hour))
		timers.fire()
		assert.Equal(t, []string{"pin:p1"}, target.boosts)
	})

	t.Run("clearing all timers for a post leaves others alone", func(t *testing.T) {
		sched, clock, _, _ := newTestScheduler()
		deadline := clock.Now().Add(time.Hour)

		sched.ScheduleExpiry(postExpiringAt("p1", deadline))
		sched.ScheduleBoost("p1", BoostPin, deadline)
		sched.ScheduleExpiry(postExpiringAt("p2", deadline))

		sched.ClearAllForPost("p1")
		assert.Equal(t, 1, sched.ActiveTimers())
	})
}

func TestSchedulerResume(t *testing.T) {
	t.Run("re-arms expiry and active boosts from persisted deadlines", func(t *testing.T) {
		sched, clock, _, _ := newTestScheduler()
		future := clock.Now().Add(time.Hour)

		p1 := postExpiringAt("p1", future)
		p1.Pinned = true
		p1.PinnedUntil = &future
		p2 := postExpiringAt("p2", future)

		sched.Resume([]*domain.Post{p1, p2})
		assert.Equal(t, 3, sched.ActiveTimers())
	})

	t.Run("deadlines elapsed while down fire synchronously", func(t *testing.T) {
		sched, clock, _, target := newTestScheduler()
		past := clock.Now().Add(-time.Hour)
		future := clock.Now().Add(time.Hour)

		p1 := postExpiringAt("p1", past)
		p2 := postExpiringAt("p2", future)
		p2.Highlighted = true
		p2.HighlightedUntil = &past

		sched.Resume([]*domain.Post{p1, p2})
		assert.Equal(t, []domain.PostId{"p1"}, target.expired)
		assert.Equal(t, []string{"highlight:p2"}, target.boosts)
		assert.Equal(t, 1, sched.ActiveTimers())
	})
}

func TestSchedulerShutdown(t *testing.T) {
	sched, clock, timers, target := newTestScheduler()

	sched.ScheduleExpiry(postExpiringAt("p1", clock.Now().Add(time.Hour)))
	sched.ScheduleBoost("p2", BoostPin, clock.Now().Add(time.Hour))
	require.Equal(t, 2, sched.ActiveTimers())

	sched.Shutdown()
	assert.Equal(t, 0, sched.ActiveTimers())

	timers.fire()
	assert.Empty(t, target.expired)
	assert.Empty(t, target.boosts)
}
