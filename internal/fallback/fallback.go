// Package fallback provides the secondary, higher-accuracy transcription
// path used when the streaming recognizer's confidence is too low to trust.
// It is best-effort: callers must clear the rate-limit window first and
// treat any failure as "unavailable for this utterance".
package fallback

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// Transcriber turns a raw WAV blob into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

// Config for the fallback transcription path.
type Config struct {
	Provider  string
	APIKey    string
	Model     string
	Language  string
	Timeout   time.Duration
	RateCount int
	RateSpan  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Model:     "whisper-1",
		Language:  "en",
		Timeout:   15 * time.Second,
		RateCount: 3,
		RateSpan:  time.Minute,
	}
}

// New creates a transcriber for the configured provider.
func New(cfg Config) (Transcriber, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		return NewOpenAITranscriber(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported fallback provider: %s", cfg.Provider)
	}
}

// normalize trims whitespace around a fallback result so empty responses
// are recognizable as "nothing usable".
func normalize(text string) string {
	return strings.TrimSpace(text)
}

func logResult(provider string, start time.Time, text string) {
	if text == "" {
		log.Printf("fallback: %s returned empty result after %v", provider, time.Since(start))
		return
	}
	log.Printf("fallback: %s returned %q after %v", provider, text, time.Since(start))
}
