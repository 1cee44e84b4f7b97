// Package capture turns the continuous microphone stream into trusted
// utterances. It wraps a streaming recognizer adapter, detects the end of
// an utterance by silence, and emits one TranscriptResult per utterance
// together with the raw audio recorded alongside recognition.
package capture

import "context"

// Alternative is a candidate transcript with its reported confidence.
type Alternative struct {
	Text       string
	Confidence float64
}

// TranscriptResult is the single trusted output of a capture session.
// A Confidence of exactly 0 is a sentinel meaning the recognizer did not
// report confidence on this path, not "zero confidence".
type TranscriptResult struct {
	Text         string
	Confidence   float64
	Alternatives []Alternative
}

// Result is a single incremental result from a streaming adapter.
// Interim results are full replacements of the utterance so far, not
// appends.
type Result struct {
	Text         string
	Confidence   float64
	Alternatives []Alternative
	IsFinal      bool
	Err          error
}

// StreamingAdapter is the continuous incremental recognizer behind the
// engine (send audio in real time, receive interim and final results).
type StreamingAdapter interface {
	// Start initiates the streaming connection with the given language setting
	Start(ctx context.Context, language string) error

	// SendChunk sends a chunk of audio data to the recognition service
	SendChunk(audio []byte) error

	// Results returns a channel that receives recognition results
	// (interim and final). The channel is closed when the adapter ends.
	Results() <-chan Result

	// Close gracefully closes the streaming connection
	Close() error
}
