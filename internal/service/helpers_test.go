package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// --- Shared test doubles ---

// memSnapshots is an in-memory Snapshots implementation tracking save counts.
type memSnapshots struct {
	mu    sync.Mutex
	data  map[string][]byte
	saves map[string]int
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{
		data:  make(map[string][]byte),
		saves: make(map[string]int),
	}
}

func (m *memSnapshots) Save(namespace string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[namespace] = data
	m.saves[namespace]++
	return nil
}

func (m *memSnapshots) Load(namespace string, out any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[namespace]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *memSnapshots) Delete(namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, namespace)
	return nil
}

// mockClock is a settable time source.
type mockClock struct {
	mu sync.Mutex
	t  time.Time
}

func newMockClock(t time.Time) *mockClock {
	return &mockClock{t: t}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func (c *mockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// manualTimers captures armed timers so tests can fire them deterministically.
type manualTimers struct {
	mu    sync.Mutex
	armed []*manualTimer
}

type manualTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.stopped = true
	return true
}

func (m *manualTimers) afterFunc(d time.Duration, fn func()) TimerHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	timer := &manualTimer{delay: d, fn: fn}
	m.armed = append(m.armed, timer)
	return timer
}

// fire runs every armed, unstopped timer callback once.
func (m *manualTimers) fire() {
	m.mu.Lock()
	armed := m.armed
	m.armed = nil
	m.mu.Unlock()
	for _, t := range armed {
		if !t.stopped {
			t.fn()
		}
	}
}

func (m *manualTimers) armedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.armed {
		if !t.stopped {
			n++
		}
	}
	return n
}

// failingSettler always fails settlement.
type failingSettler struct{}

func (failingSettler) Settle(ctx context.Context, amount int64) error {
	return errors.New("settlement unavailable")
}
