package provider

import "strings"

// OpenAIProvider offers fallback transcription, chat and speech models.
type OpenAIProvider struct{}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) RequiresAPIKey() bool {
	return true
}

func (p *OpenAIProvider) ValidateAPIKey(key string) bool {
	return strings.HasPrefix(key, "sk-")
}

func (p *OpenAIProvider) Models() []Model {
	return []Model{
		{
			ID:          "whisper-1",
			Name:        "Whisper 1",
			Description: "OpenAI's production speech-to-text model",
			Type:        Transcription,
			AdapterType: "openai",
			Endpoint:    &EndpointConfig{BaseURL: "https://api.openai.com", Path: "/v1/audio/transcriptions"},
		},
		{
			ID:          "gpt-4o-mini",
			Name:        "GPT-4o Mini",
			Description: "Fast and affordable conversation partner",
			Type:        Chat,
			AdapterType: "openai",
			Endpoint:    &EndpointConfig{BaseURL: "https://api.openai.com", Path: "/v1/chat/completions"},
		},
		{
			ID:          "gpt-4o",
			Name:        "GPT-4o",
			Description: "Most capable conversation partner",
			Type:        Chat,
			AdapterType: "openai",
			Endpoint:    &EndpointConfig{BaseURL: "https://api.openai.com", Path: "/v1/chat/completions"},
		},
		{
			ID:          "tts-1",
			Name:        "TTS 1",
			Description: "Low-latency speech synthesis",
			Type:        Speech,
			AdapterType: "openai",
			Endpoint:    &EndpointConfig{BaseURL: "https://api.openai.com", Path: "/v1/audio/speech"},
		},
		{
			ID:          "tts-1-hd",
			Name:        "TTS 1 HD",
			Description: "Higher quality speech synthesis",
			Type:        Speech,
			AdapterType: "openai",
			Endpoint:    &EndpointConfig{BaseURL: "https://api.openai.com", Path: "/v1/audio/speech"},
		},
	}
}

func (p *OpenAIProvider) DefaultModel(t ModelType) string {
	switch t {
	case Transcription:
		return "whisper-1"
	case Chat:
		return "gpt-4o-mini"
	case Speech:
		return "tts-1"
	}
	return ""
}
