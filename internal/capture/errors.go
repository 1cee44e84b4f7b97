package capture

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the closed set of error kinds surfaced to the host UI.
type Kind string

const (
	KindNoSpeech     Kind = "no-speech"
	KindNetwork      Kind = "network"
	KindAudioCapture Kind = "audio-capture"
	KindNotAllowed   Kind = "not-allowed"
	KindOther        Kind = "other"
)

// Error tags an underlying failure with its kind so the host can decide
// between transient display and persistent, retry-required display.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e == nil || e.Err == nil {
		return fmt.Sprintf("capture error (%s)", e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the capture error kind, defaulting to KindOther.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindOther
}

// classifyMicErr maps microphone stream failures. Denied device access is
// permanent and must not be auto-retried; everything else is a capture
// hardware problem.
func classifyMicErr(err error) Kind {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "denied") || strings.Contains(msg, "not allowed") || strings.Contains(msg, "permission") {
		return KindNotAllowed
	}
	return KindAudioCapture
}
