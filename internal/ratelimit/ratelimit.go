package ratelimit

import (
	"sync"
	"time"
)

// Window admits at most `limit` attempts per trailing `span`.
// Timestamps older than the span are purged before every check, and the
// check and the timestamp append happen under a single lock hold so two
// callers can never race past the limit.
type Window struct {
	mu     sync.Mutex
	limit  int
	span   time.Duration
	stamps []time.Time
	now    func() time.Time
}

func NewWindow(limit int, span time.Duration) *Window {
	return &Window{
		limit: limit,
		span:  span,
		now:   time.Now,
	}
}

// Allow reports whether a new attempt is admitted, recording it if so.
func (w *Window) Allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.purgeLocked(now)

	if len(w.stamps) >= w.limit {
		return false
	}
	w.stamps = append(w.stamps, now)
	return true
}

// Remaining returns how many attempts the current window still admits.
func (w *Window) Remaining() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.purgeLocked(w.now())
	if n := w.limit - len(w.stamps); n > 0 {
		return n
	}
	return 0
}

// Reset discards all recorded attempts.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stamps = w.stamps[:0]
}

func (w *Window) purgeLocked(now time.Time) {
	cutoff := now.Add(-w.span)
	keep := w.stamps[:0]
	for _, ts := range w.stamps {
		if ts.After(cutoff) {
			keep = append(keep, ts)
		}
	}
	w.stamps = keep
}
