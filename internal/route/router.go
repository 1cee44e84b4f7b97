// Package route decides what to do with a finalized transcript: act on it
// immediately, ask the user to confirm it, or re-transcribe the raw audio
// through the rate-limited fallback service first.
package route

import (
	"context"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/buelmanager/enpeak-voice/internal/capture"
	"github.com/buelmanager/enpeak-voice/internal/fallback"
)

type Config struct {
	AcceptThreshold  float64       // at or above: accept immediately
	ConfirmThreshold float64       // at or above (but below accept): ask the user
	ShortTextLimit   int           // sentinel-confidence text this short is distrusted
	ConfirmTimeout   time.Duration // confirmation auto-accept countdown
}

func DefaultConfig() Config {
	return Config{
		AcceptThreshold:  0.8,
		ConfirmThreshold: 0.4,
		ShortTextLimit:   3,
		ConfirmTimeout:   5 * time.Second,
	}
}

type Action int

const (
	ActionDrop Action = iota
	ActionAccept
	ActionConfirm
)

// Decision is the router's verdict for one utterance.
type Decision struct {
	Action      Action
	Text        string                   // accepted text (ActionAccept)
	Result      capture.TranscriptResult // transcript to confirm (ActionConfirm)
	ViaFallback bool                     // accepted text came from the fallback service
}

// Limiter admits or denies a fallback transcription attempt.
type Limiter interface {
	Allow() bool
}

type Router struct {
	cfg         Config
	limiter     Limiter
	transcriber fallback.Transcriber // nil disables the fallback path
}

func NewRouter(cfg Config, limiter Limiter, transcriber fallback.Transcriber) *Router {
	return &Router{cfg: cfg, limiter: limiter, transcriber: transcriber}
}

// Resolve applies the confidence tiers in order. A confidence of exactly 0
// is the "recognizer did not report" sentinel: only short sentinel text is
// distrusted, since some recognizers never report confidence yet are
// accurate on longer utterances.
func (r *Router) Resolve(ctx context.Context, res capture.TranscriptResult, audio []byte) Decision {
	text := strings.TrimSpace(res.Text)
	if text == "" {
		return Decision{Action: ActionDrop}
	}

	if res.Confidence == 0 {
		if normalizedLen(text) <= r.cfg.ShortTextLimit {
			if better := r.tryFallback(ctx, audio); better != "" {
				return Decision{Action: ActionAccept, Text: better, ViaFallback: true}
			}
			// last resort: the original short text
			return Decision{Action: ActionAccept, Text: text}
		}
		return Decision{Action: ActionAccept, Text: text}
	}

	switch {
	case res.Confidence >= r.cfg.AcceptThreshold:
		return Decision{Action: ActionAccept, Text: text}

	case res.Confidence >= r.cfg.ConfirmThreshold:
		return Decision{Action: ActionConfirm, Result: res}

	default:
		if better := r.tryFallback(ctx, audio); better != "" {
			return Decision{Action: ActionAccept, Text: better, ViaFallback: true}
		}
		// let the user correct the low-confidence transcript manually
		return Decision{Action: ActionConfirm, Result: res}
	}
}

// tryFallback re-transcribes the raw audio through the secondary service,
// subject to rate-limit admission. Never blocks waiting for window room;
// denial or failure simply means no second opinion for this utterance.
func (r *Router) tryFallback(ctx context.Context, audio []byte) string {
	if r.transcriber == nil || len(audio) == 0 {
		return ""
	}
	if r.limiter != nil && !r.limiter.Allow() {
		log.Printf("route: fallback denied by rate limiter")
		return ""
	}

	text, err := r.transcriber.Transcribe(ctx, audio)
	if err != nil {
		log.Printf("route: fallback failed: %v", err)
		return ""
	}
	return strings.TrimSpace(text)
}

// normalizedLen counts the characters that carry meaning: whitespace and
// punctuation are ignored so "OK." and "ok" measure the same.
func normalizedLen(text string) int {
	n := 0
	for _, r := range text {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			continue
		}
		n++
	}
	return n
}
