package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock implements Clock with manually advanced time.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	deadline time.Duration
	fn       func()
	stopped  bool
	fired    bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return !t.fired
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	timer := &fakeTimer{deadline: c.now + d, fn: f}
	c.timers = append(c.timers, timer)
	return timer
}

// Advance moves the clock forward, firing due timers in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, timer := range c.timers {
		if !timer.stopped && !timer.fired && timer.deadline <= c.now {
			timer.fired = true
			due = append(due, timer)
		}
	}
	c.mu.Unlock()

	for _, timer := range due {
		timer.fn()
	}
}

func TestDebouncerCoalescesBurst(t *testing.T) {
	clock := &fakeClock{}
	d := New(300*time.Millisecond, clock)

	var mu sync.Mutex
	var got []string
	record := func(s string) func() {
		return func() {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, s)
		}
	}

	// Three keystrokes inside the quiet window: only the last fires.
	d.Call(record("a"))
	clock.Advance(100 * time.Millisecond)
	d.Call(record("ab"))
	clock.Advance(100 * time.Millisecond)
	d.Call(record("abc"))
	clock.Advance(300 * time.Millisecond)

	assert.Equal(t, []string{"abc"}, got)
}

func TestDebouncerFiresAfterQuietPeriod(t *testing.T) {
	clock := &fakeClock{}
	d := New(300*time.Millisecond, clock)

	fired := false
	d.Call(func() { fired = true })

	clock.Advance(299 * time.Millisecond)
	assert.False(t, fired)

	clock.Advance(1 * time.Millisecond)
	assert.True(t, fired)
}

func TestDebouncerSeparateBurstsFireSeparately(t *testing.T) {
	clock := &fakeClock{}
	d := New(300*time.Millisecond, clock)

	count := 0
	d.Call(func() { count++ })
	clock.Advance(300 * time.Millisecond)
	d.Call(func() { count++ })
	clock.Advance(300 * time.Millisecond)

	assert.Equal(t, 2, count)
}

func TestDebouncerCancel(t *testing.T) {
	clock := &fakeClock{}
	d := New(300*time.Millisecond, clock)

	fired := false
	d.Call(func() { fired = true })
	d.Cancel()
	clock.Advance(time.Second)

	assert.False(t, fired)
}

func TestSystemClockFires(t *testing.T) {
	d := New(time.Millisecond, nil)

	done := make(chan struct{})
	d.Call(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced function never fired")
	}
}
