package route

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/buelmanager/enpeak-voice/internal/capture"
)

// ErrResolved is returned when an outcome has already fired for a
// confirmation; exactly one of auto-accept, confirm, edit or dismiss wins.
var ErrResolved = errors.New("confirmation already resolved")

type Outcome string

const (
	OutcomeAutoAccepted Outcome = "auto-accepted"
	OutcomeConfirmed    Outcome = "confirmed"
	OutcomeEdited       Outcome = "edited"
	OutcomeDismissed    Outcome = "dismissed"
)

// Confirmation holds a pending transcript for a bounded time. Unless the
// user confirms early, edits, or dismisses it, the countdown elapses and
// the transcript is accepted as-is. At most one confirmation exists at a
// time (enforced by the cycle controller).
type Confirmation struct {
	result   capture.TranscriptResult
	deadline time.Time

	mu       sync.Mutex
	timer    *time.Timer
	resolved bool
	onDone   func(outcome Outcome, text string)
}

// NewConfirmation starts the auto-accept countdown immediately. onDone is
// invoked exactly once with the winning outcome; for OutcomeDismissed the
// text is empty and nothing should be sent.
func NewConfirmation(result capture.TranscriptResult, timeout time.Duration, onDone func(Outcome, string)) *Confirmation {
	c := &Confirmation{
		result:   result,
		deadline: time.Now().Add(timeout),
		onDone:   onDone,
	}
	c.timer = time.AfterFunc(timeout, func() {
		if c.settle() {
			log.Printf("route: confirmation auto-accepted %q", c.result.Text)
			c.onDone(OutcomeAutoAccepted, c.result.Text)
		}
	})
	return c
}

// Text returns the transcript awaiting confirmation.
func (c *Confirmation) Text() string { return c.result.Text }

// Result returns the full pending transcript.
func (c *Confirmation) Result() capture.TranscriptResult { return c.result }

// Deadline reports when the countdown auto-accepts, for UI rendering.
func (c *Confirmation) Deadline() time.Time { return c.deadline }

// Resolved reports whether an outcome has already fired.
func (c *Confirmation) Resolved() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolved
}

// Confirm accepts the transcript as-is before the countdown elapses.
func (c *Confirmation) Confirm() error {
	if !c.settle() {
		return ErrResolved
	}
	c.onDone(OutcomeConfirmed, c.result.Text)
	return nil
}

// Edit cancels the countdown and submits the corrected text.
func (c *Confirmation) Edit(text string) error {
	if !c.settle() {
		return ErrResolved
	}
	log.Printf("route: confirmation edited %q -> %q", c.result.Text, text)
	c.onDone(OutcomeEdited, text)
	return nil
}

// Dismiss discards the transcript; no text is sent.
func (c *Confirmation) Dismiss() error {
	if !c.settle() {
		return ErrResolved
	}
	c.onDone(OutcomeDismissed, "")
	return nil
}

// settle claims the single outcome slot and cancels the countdown.
func (c *Confirmation) settle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resolved {
		return false
	}
	c.resolved = true
	if c.timer != nil {
		c.timer.Stop()
	}
	return true
}
