package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests advance time manually.
type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(d)
}

func newTestWindow(limit int, span time.Duration) (*Window, *fakeClock) {
	clock := &fakeClock{cur: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	w := NewWindow(limit, span)
	w.now = clock.now
	return w, clock
}

func TestWindowAdmitsUpToLimit(t *testing.T) {
	w, _ := newTestWindow(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !w.Allow() {
			t.Fatalf("attempt %d should be admitted", i+1)
		}
	}
	if w.Allow() {
		t.Error("4th attempt within window should be denied")
	}
	if got := w.Remaining(); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
}

func TestWindowAgesOutOldAttempts(t *testing.T) {
	w, clock := newTestWindow(3, time.Minute)

	if !w.Allow() {
		t.Fatal("first attempt should be admitted")
	}
	clock.advance(30 * time.Second)
	if !w.Allow() || !w.Allow() {
		t.Fatal("second and third attempts should be admitted")
	}
	if w.Allow() {
		t.Fatal("window at capacity, attempt should be denied")
	}

	// Oldest entry ages out after another 31s; one slot frees up.
	clock.advance(31 * time.Second)
	if !w.Allow() {
		t.Error("attempt should be admitted after oldest entry aged out")
	}
	if w.Allow() {
		t.Error("window should be full again")
	}
}

func TestWindowReset(t *testing.T) {
	w, _ := newTestWindow(2, time.Minute)

	w.Allow()
	w.Allow()
	if w.Allow() {
		t.Fatal("window should be full")
	}

	w.Reset()
	if got := w.Remaining(); got != 2 {
		t.Errorf("Remaining after Reset = %d, want 2", got)
	}
	if !w.Allow() {
		t.Error("attempt after Reset should be admitted")
	}
}

func TestWindowConcurrentAllow(t *testing.T) {
	w, _ := newTestWindow(5, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if w.Allow() {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 5 {
		t.Errorf("admitted %d concurrent attempts, want exactly 5", admitted)
	}
}
