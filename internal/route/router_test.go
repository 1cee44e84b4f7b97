package route

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/buelmanager/enpeak-voice/internal/capture"
)

type fakeLimiter struct {
	mu      sync.Mutex
	allow   bool
	queries int
}

func (l *fakeLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queries++
	return l.allow
}

type fakeTranscriber struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.text, f.err
}

func (f *fakeTranscriber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var testAudio = []byte("RIFFfakewav")

func newTestRouter(allow bool, fbText string, fbErr error) (*Router, *fakeLimiter, *fakeTranscriber) {
	limiter := &fakeLimiter{allow: allow}
	tr := &fakeTranscriber{text: fbText, err: fbErr}
	return NewRouter(DefaultConfig(), limiter, tr), limiter, tr
}

func TestHighConfidenceAcceptsImmediately(t *testing.T) {
	r, _, tr := newTestRouter(true, "should not be used", nil)

	for _, conf := range []float64{0.8, 0.9, 1.0} {
		d := r.Resolve(t.Context(), capture.TranscriptResult{Text: "I would like a coffee", Confidence: conf}, testAudio)
		if d.Action != ActionAccept {
			t.Errorf("confidence %v: action = %v, want accept", conf, d.Action)
		}
		if d.Text != "I would like a coffee" {
			t.Errorf("confidence %v: text = %q", conf, d.Text)
		}
	}
	if tr.callCount() != 0 {
		t.Error("high confidence must not consult the fallback service")
	}
}

func TestMediumConfidenceAsksForConfirmation(t *testing.T) {
	r, _, tr := newTestRouter(true, "unused", nil)

	for _, conf := range []float64{0.4, 0.5, 0.79} {
		d := r.Resolve(t.Context(), capture.TranscriptResult{Text: "I wood like a coffee", Confidence: conf}, testAudio)
		if d.Action != ActionConfirm {
			t.Errorf("confidence %v: action = %v, want confirm", conf, d.Action)
		}
		if d.Result.Text != "I wood like a coffee" {
			t.Errorf("confidence %v: pending text = %q", conf, d.Result.Text)
		}
	}
	if tr.callCount() != 0 {
		t.Error("medium confidence must not consult the fallback service")
	}
}

func TestLowConfidenceFallbackAccepted(t *testing.T) {
	r, _, tr := newTestRouter(true, "I would like a coffee", nil)

	d := r.Resolve(t.Context(), capture.TranscriptResult{Text: "eye wood like", Confidence: 0.2}, testAudio)
	if d.Action != ActionAccept {
		t.Fatalf("action = %v, want accept", d.Action)
	}
	if d.Text != "I would like a coffee" || !d.ViaFallback {
		t.Errorf("decision = %+v, want fallback text accepted", d)
	}
	if tr.callCount() != 1 {
		t.Errorf("fallback calls = %d, want 1", tr.callCount())
	}
}

func TestLowConfidenceRateLimitedFallsThroughToConfirmation(t *testing.T) {
	r, limiter, tr := newTestRouter(false, "unused", nil)

	d := r.Resolve(t.Context(), capture.TranscriptResult{Text: "eye wood like", Confidence: 0.2}, testAudio)
	if d.Action != ActionConfirm {
		t.Fatalf("action = %v, want confirm with original text", d.Action)
	}
	if d.Result.Text != "eye wood like" {
		t.Errorf("pending text = %q, want original", d.Result.Text)
	}
	if limiter.queries != 1 {
		t.Errorf("limiter queries = %d, want 1", limiter.queries)
	}
	if tr.callCount() != 0 {
		t.Error("denied admission must not call the fallback service")
	}
}

func TestLowConfidenceFallbackErrorFallsThroughToConfirmation(t *testing.T) {
	r, _, _ := newTestRouter(true, "", errors.New("service down"))

	d := r.Resolve(t.Context(), capture.TranscriptResult{Text: "noisy text", Confidence: 0.1}, testAudio)
	if d.Action != ActionConfirm {
		t.Errorf("action = %v, want confirm when fallback errors", d.Action)
	}
}

func TestSentinelShortTextPrefersFallback(t *testing.T) {
	r, _, tr := newTestRouter(true, "okay", nil)

	d := r.Resolve(t.Context(), capture.TranscriptResult{Text: "ok", Confidence: 0}, testAudio)
	if d.Action != ActionAccept || d.Text != "okay" || !d.ViaFallback {
		t.Errorf("decision = %+v, want fallback accepted", d)
	}
	if tr.callCount() != 1 {
		t.Errorf("fallback calls = %d, want 1", tr.callCount())
	}
}

func TestSentinelShortTextLastResortOriginal(t *testing.T) {
	r, _, _ := newTestRouter(false, "unused", nil)

	d := r.Resolve(t.Context(), capture.TranscriptResult{Text: "ok", Confidence: 0}, testAudio)
	if d.Action != ActionAccept || d.Text != "ok" {
		t.Errorf("decision = %+v, want original accepted as last resort", d)
	}
}

func TestSentinelLongTextAcceptedWithoutFallback(t *testing.T) {
	r, _, tr := newTestRouter(true, "unused", nil)

	d := r.Resolve(t.Context(), capture.TranscriptResult{Text: "tell me about your day", Confidence: 0}, testAudio)
	if d.Action != ActionAccept || d.Text != "tell me about your day" {
		t.Errorf("decision = %+v, want immediate accept", d)
	}
	if tr.callCount() != 0 {
		t.Error("long sentinel text must not consult the fallback service")
	}
}

func TestEmptyTranscriptDropped(t *testing.T) {
	r, _, _ := newTestRouter(true, "unused", nil)

	for _, text := range []string{"", "   "} {
		d := r.Resolve(t.Context(), capture.TranscriptResult{Text: text, Confidence: 0}, testAudio)
		if d.Action != ActionDrop {
			t.Errorf("text %q: action = %v, want drop", text, d.Action)
		}
	}
}

func TestNoAudioSkipsFallback(t *testing.T) {
	r, limiter, _ := newTestRouter(true, "better", nil)

	d := r.Resolve(t.Context(), capture.TranscriptResult{Text: "hm", Confidence: 0}, nil)
	if d.Action != ActionAccept || d.Text != "hm" {
		t.Errorf("decision = %+v, want original accepted", d)
	}
	if limiter.queries != 0 {
		t.Error("no audio blob: the rate window must not be consumed")
	}
}

func TestNormalizedLen(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"ok", 2},
		{"OK.", 2},
		{"u h ", 2},
		{"yes!", 3},
		{"what?", 4},
	}
	for _, tt := range tests {
		if got := normalizedLen(tt.in); got != tt.want {
			t.Errorf("normalizedLen(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
