package fallback

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAITranscriber calls the Whisper transcription endpoint once per blob.
type OpenAITranscriber struct {
	client *openai.Client
	config Config
}

func NewOpenAITranscriber(cfg Config) *OpenAITranscriber {
	return &OpenAITranscriber{
		client: openai.NewClient(cfg.APIKey),
		config: cfg,
	}
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if len(wav) == 0 {
		return "", nil
	}

	if t.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.Timeout)
		defer cancel()
	}

	req := openai.AudioRequest{
		Model:    t.config.Model,
		Reader:   bytes.NewReader(wav),
		FilePath: "utterance.wav",
		Language: t.config.Language,
	}

	start := time.Now()
	resp, err := t.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", fmt.Errorf("fallback transcription: %w", err)
	}

	text := normalize(resp.Text)
	logResult("openai", start, text)
	return text, nil
}
