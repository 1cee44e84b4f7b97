package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	elevenLabsBaseURL      = "https://api.elevenlabs.io/v1"
	elevenLabsDefaultVoice = "21m00Tcm4TlvDq8ikWAM"
)

// ElevenLabsSynthesizer uses the ElevenLabs text-to-speech endpoint.
type ElevenLabsSynthesizer struct {
	apiKey  string
	model   string
	voice   string
	baseURL string
	client  *http.Client
}

func NewElevenLabsSynthesizer(cfg Config) *ElevenLabsSynthesizer {
	voice := cfg.Voice
	if voice == "" || voice == "alloy" {
		voice = elevenLabsDefaultVoice
	}
	model := cfg.Model
	if model == "" || model == "tts-1" {
		model = "eleven_turbo_v2_5"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &ElevenLabsSynthesizer{
		apiKey:  cfg.APIKey,
		model:   model,
		voice:   voice,
		baseURL: elevenLabsBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type elevenLabsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

func (s *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	if text == "" {
		return nil, "mp3", nil
	}

	body, err := json.Marshal(elevenLabsRequest{Text: text, ModelID: s.model})
	if err != nil {
		return nil, "", fmt.Errorf("marshal ElevenLabs request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", s.baseURL, s.voice)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("create ElevenLabs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("ElevenLabs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", fmt.Errorf("ElevenLabs returned status %d: %s", resp.StatusCode, string(excerpt))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read ElevenLabs response: %w", err)
	}
	return audio, "mp3", nil
}
