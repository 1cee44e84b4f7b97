// Package cycle drives the hands-free conversation loop: listen for an
// utterance, resolve it to accepted text, send it to the conversation
// partner, speak the reply, then listen again. The controller owns all
// cross-phase state and is safe to drive from the bus server's
// goroutines.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/buelmanager/enpeak-voice/internal/capture"
	"github.com/buelmanager/enpeak-voice/internal/route"
	"github.com/buelmanager/enpeak-voice/internal/speech"
	"github.com/buelmanager/enpeak-voice/internal/turn"
	"github.com/google/uuid"
)

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseListening Phase = "listening"
	PhaseResolving Phase = "resolving"
	PhaseSending   Phase = "sending"
	PhasePlaying   Phase = "playing"
	PhaseCancelled Phase = "cancelled"
)

// CaptureEngine is what the controller needs from the speech capture
// layer.
type CaptureEngine interface {
	Start(ctx context.Context) error
	Stop()
	Abort()
	Active() bool
}

// EngineFactory builds the capture engine with the controller's
// handlers bound in.
type EngineFactory func(capture.Handlers) CaptureEngine

// Resolver turns a finalized transcript into a routing decision.
type Resolver interface {
	Resolve(ctx context.Context, res capture.TranscriptResult, audio []byte) route.Decision
}

// Announcer surfaces user-facing messages outside the audio path.
type Announcer interface {
	Announce(message string)
}

type Config struct {
	ConfirmTimeout time.Duration // auto-accept countdown for confirmations
	SettleDelay    time.Duration // pause before re-arming after playback
	Session        turn.Session
}

func DefaultConfig() Config {
	return Config{
		ConfirmTimeout: 5 * time.Second,
		SettleDelay:    500 * time.Millisecond,
		Session:        turn.Session{Mode: "chat"},
	}
}

var (
	ErrBusy       = errors.New("cycle already active")
	ErrNotPending = errors.New("no pending confirmation")
	ErrVoiceOff   = errors.New("voice mode is off")
)

// Controller is the voice cycle state machine. All async resumptions
// (routing, turn requests, playback completion, confirmation outcomes,
// settle timers) check the generation they were spawned under and
// discard themselves when a cancel or restart superseded them.
type Controller struct {
	cfg      Config
	engine   CaptureEngine
	resolver Resolver
	turn     turn.Client
	speaker  speech.Speaker
	announce Announcer

	mu          sync.Mutex
	ctx         context.Context
	phase       Phase
	voiceMode   bool
	cycleActive bool
	playing     bool
	generation  string
	pending     *route.Confirmation

	feed *Feed
}

func NewController(cfg Config, newEngine EngineFactory, resolver Resolver, turnClient turn.Client, speaker speech.Speaker, announce Announcer) *Controller {
	c := &Controller{
		cfg:       cfg,
		resolver:  resolver,
		turn:      turnClient,
		speaker:   speaker,
		announce:  announce,
		phase:     PhaseIdle,
		voiceMode: true,
		feed:      NewFeed(),
	}
	c.engine = newEngine(capture.Handlers{
		Interim: c.onInterim,
		Final:   c.onFinal,
		Error:   c.onCaptureError,
	})
	return c
}

// State is a point-in-time snapshot for the host UI.
type State struct {
	Phase       Phase
	VoiceMode   bool
	CycleActive bool
	Recording   bool
	Playing     bool
	Pending     *route.Confirmation
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Phase:       c.phase,
		VoiceMode:   c.voiceMode,
		CycleActive: c.cycleActive,
		Recording:   c.engine.Active(),
		Playing:     c.playing,
		Pending:     c.pending,
	}
}

// Feed returns the host event feed.
func (c *Controller) Feed() *Feed {
	return c.feed
}

// UseFeed swaps in an existing event feed so subscribers survive a
// controller rebuild. Call before Start.
func (c *Controller) UseFeed(f *Feed) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feed = f
}

// Start begins a conversation cycle: arms capture and keeps looping
// until an error, a dismiss, a failed turn request or Cancel breaks it.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if !c.voiceMode {
		c.mu.Unlock()
		return ErrVoiceOff
	}
	if c.cycleActive {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.pending != nil {
		c.mu.Unlock()
		return fmt.Errorf("confirmation pending, resolve it first")
	}
	c.ctx = ctx
	c.cycleActive = true
	gen := c.newGenerationLocked()
	c.mu.Unlock()

	if err := c.arm(gen); err != nil {
		c.mu.Lock()
		c.cycleActive = false
		c.setPhaseLocked(PhaseIdle)
		c.mu.Unlock()
		return err
	}
	return nil
}

// Finish ends the current utterance early instead of waiting for the
// silence timeout.
func (c *Controller) Finish() {
	c.engine.Stop()
}

// Cancel tears the whole cycle down. Idempotent; all in-flight async
// work detects the generation change and discards itself.
func (c *Controller) Cancel() {
	c.mu.Lock()
	wasIdle := c.phase == PhaseIdle || c.phase == PhaseCancelled
	c.newGenerationLocked()
	c.cycleActive = false
	c.playing = false
	pending := c.pending
	c.pending = nil
	c.setPhaseLocked(PhaseCancelled)
	c.mu.Unlock()

	c.engine.Abort()
	c.speaker.Stop()
	if pending != nil {
		// resolve the banner; the stale generation makes the outcome a no-op
		if err := pending.Dismiss(); err != nil && !errors.Is(err, route.ErrResolved) {
			log.Printf("cycle: dismiss pending on cancel: %v", err)
		}
	}
	if !wasIdle {
		log.Printf("cycle: cancelled")
		c.feed.Emit(Event{Type: EventPhase, Phase: PhaseCancelled})
	}
}

// ToggleVoiceMode flips voice mode. Turning it off cancels any active
// cycle. Returns the new value.
func (c *Controller) ToggleVoiceMode() bool {
	c.mu.Lock()
	c.voiceMode = !c.voiceMode
	on := c.voiceMode
	c.mu.Unlock()

	if !on {
		c.Cancel()
	}
	log.Printf("cycle: voice mode %v", on)
	return on
}

// ConfirmPending accepts the pending transcript as-is.
func (c *Controller) ConfirmPending() error {
	p := c.currentPending()
	if p == nil {
		return ErrNotPending
	}
	return p.Confirm()
}

// EditPending replaces the pending transcript and submits it.
func (c *Controller) EditPending(text string) error {
	p := c.currentPending()
	if p == nil {
		return ErrNotPending
	}
	return p.Edit(text)
}

// DismissPending discards the pending transcript; nothing is sent and
// the cycle returns to idle.
func (c *Controller) DismissPending() error {
	p := c.currentPending()
	if p == nil {
		return ErrNotPending
	}
	return p.Dismiss()
}

func (c *Controller) currentPending() *route.Confirmation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// newGenerationLocked invalidates every in-flight async resumption.
func (c *Controller) newGenerationLocked() string {
	c.generation = uuid.New().String()[:8]
	return c.generation
}

func (c *Controller) current(gen string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation == gen
}

func (c *Controller) setPhaseLocked(p Phase) {
	if c.phase == p {
		return
	}
	c.phase = p
	c.feed.Emit(Event{Type: EventPhase, Phase: p})
}

func (c *Controller) arm(gen string) error {
	c.mu.Lock()
	if c.generation != gen || !c.cycleActive {
		c.mu.Unlock()
		return nil
	}
	ctx := c.ctx
	c.setPhaseLocked(PhaseListening)
	c.mu.Unlock()

	if err := c.engine.Start(ctx); err != nil {
		return fmt.Errorf("arm capture: %w", err)
	}
	log.Printf("cycle: listening")
	return nil
}

func (c *Controller) onInterim(text string) {
	c.feed.Emit(Event{Type: EventInterim, Text: text})
}

func (c *Controller) onFinal(res capture.TranscriptResult, audio []byte) {
	c.mu.Lock()
	gen := c.generation
	if !c.cycleActive {
		c.mu.Unlock()
		return
	}
	ctx := c.ctx
	c.setPhaseLocked(PhaseResolving)
	c.mu.Unlock()

	c.feed.Emit(Event{Type: EventFinal, Text: res.Text, Confidence: res.Confidence})

	// routing may call the fallback service; run it off the capture
	// engine's callback goroutine
	go c.resolve(ctx, gen, res, audio)
}

func (c *Controller) resolve(ctx context.Context, gen string, res capture.TranscriptResult, audio []byte) {
	decision := c.resolver.Resolve(ctx, res, audio)
	if !c.current(gen) {
		return
	}

	switch decision.Action {
	case route.ActionDrop:
		log.Printf("cycle: transcript dropped, re-arming")
		if err := c.arm(gen); err != nil {
			c.failCycle(gen, capture.KindOther, err)
		}
	case route.ActionAccept:
		c.feed.Emit(Event{Type: EventAccepted, Text: decision.Text})
		c.send(ctx, gen, decision.Text)
	case route.ActionConfirm:
		c.raiseConfirmation(ctx, gen, decision.Result)
	}
}

func (c *Controller) raiseConfirmation(ctx context.Context, gen string, res capture.TranscriptResult) {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return
	}
	pending := route.NewConfirmation(res, c.cfg.ConfirmTimeout, func(outcome route.Outcome, text string) {
		c.onConfirmationDone(ctx, gen, outcome, text)
	})
	c.pending = pending
	c.mu.Unlock()

	log.Printf("cycle: confirmation pending (%.0fms countdown): %q",
		float64(c.cfg.ConfirmTimeout.Milliseconds()), res.Text)
	c.feed.Emit(Event{Type: EventPending, Text: res.Text, Deadline: pending.Deadline()})
}

func (c *Controller) onConfirmationDone(ctx context.Context, gen string, outcome route.Outcome, text string) {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.mu.Unlock()

	c.feed.Emit(Event{Type: EventResolved, Text: text, Outcome: string(outcome)})

	if outcome == route.OutcomeDismissed {
		log.Printf("cycle: confirmation dismissed, cycle idle")
		c.mu.Lock()
		c.cycleActive = false
		c.setPhaseLocked(PhaseIdle)
		c.mu.Unlock()
		return
	}
	c.send(ctx, gen, text)
}

func (c *Controller) send(ctx context.Context, gen string, text string) {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return
	}
	sess := c.cfg.Session
	c.setPhaseLocked(PhaseSending)
	c.mu.Unlock()

	reply, err := c.turn.Send(ctx, text, sess)
	if !c.current(gen) {
		return
	}
	if err != nil {
		// speak the static reply, then break the loop instead of
		// auto-retrying a failing backend
		log.Printf("cycle: turn request failed: %v", err)
		c.feed.Emit(Event{Type: EventError, Kind: string(capture.KindNetwork), Text: err.Error()})
		c.speakReply(ctx, gen, turn.StaticReply, false)
		return
	}

	c.feed.Emit(Event{Type: EventReply, Text: reply.Text})
	c.speakReply(ctx, gen, reply.Text, true)
}

func (c *Controller) speakReply(ctx context.Context, gen string, text string, continueLoop bool) {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return
	}
	c.playing = true
	c.setPhaseLocked(PhasePlaying)
	c.mu.Unlock()

	c.speaker.Speak(ctx, text, func(err error) {
		c.onPlaybackDone(gen, text, continueLoop, err)
	})
}

func (c *Controller) onPlaybackDone(gen string, text string, continueLoop bool, err error) {
	c.mu.Lock()
	if c.generation != gen {
		// a later generation owns c.playing now; just discard
		c.mu.Unlock()
		return
	}
	c.playing = false
	active := c.cycleActive && c.voiceMode
	c.mu.Unlock()

	if err != nil {
		// playback failed but completion still fired; announce the text
		// through the notifier so the reply is not lost
		log.Printf("cycle: playback failed: %v", err)
		if c.announce != nil {
			c.announce.Announce(text)
		}
	}

	if !continueLoop || !active {
		c.mu.Lock()
		if c.generation == gen {
			c.cycleActive = false
			c.setPhaseLocked(PhaseIdle)
		}
		c.mu.Unlock()
		return
	}

	// settle before re-arming so the mic doesn't pick up our own tail
	time.AfterFunc(c.cfg.SettleDelay, func() {
		if !c.current(gen) {
			return
		}
		if err := c.arm(gen); err != nil {
			c.failCycle(gen, capture.KindOther, err)
		}
	})
}

func (c *Controller) onCaptureError(cerr *capture.Error) {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()
	c.failCycle(gen, cerr.Kind, cerr)
}

// failCycle surfaces an error to the host and parks the cycle in idle.
// No error path may leave the controller in listening or playing limbo.
func (c *Controller) failCycle(gen string, kind capture.Kind, err error) {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return
	}
	c.cycleActive = false
	c.setPhaseLocked(PhaseIdle)
	c.mu.Unlock()

	log.Printf("cycle: error (%s): %v", kind, err)
	c.feed.Emit(Event{Type: EventError, Kind: string(kind), Text: err.Error()})
	if c.announce != nil {
		c.announce.Announce(errorMessage(kind))
	}
}

func errorMessage(kind capture.Kind) string {
	switch kind {
	case capture.KindNoSpeech:
		return "I didn't hear anything. Tap the mic to try again."
	case capture.KindNotAllowed:
		return "Microphone access is blocked. Allow it and try again."
	case capture.KindAudioCapture:
		return "The microphone isn't available right now."
	case capture.KindNetwork:
		return "Connection trouble. Check your network and try again."
	default:
		return "Something went wrong with voice mode."
	}
}
