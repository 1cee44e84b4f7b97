package speech

import (
	"context"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAISynthesizer uses the OpenAI speech endpoint.
type OpenAISynthesizer struct {
	client  *openai.Client
	model   string
	voice   string
	timeout time.Duration
}

func NewOpenAISynthesizer(cfg Config) *OpenAISynthesizer {
	return &OpenAISynthesizer{
		client:  openai.NewClient(cfg.APIKey),
		model:   cfg.Model,
		voice:   cfg.Voice,
		timeout: cfg.Timeout,
	}
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	if text == "" {
		return nil, "wav", nil
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.voice),
		ResponseFormat: openai.SpeechResponseFormatWav,
	})
	if err != nil {
		return nil, "", fmt.Errorf("OpenAI speech request failed: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, "", fmt.Errorf("read OpenAI speech response: %w", err)
	}
	return audio, "wav", nil
}
