package provider

// ElevenLabsProvider offers speech synthesis models.
type ElevenLabsProvider struct{}

func (p *ElevenLabsProvider) Name() string {
	return "elevenlabs"
}

func (p *ElevenLabsProvider) RequiresAPIKey() bool {
	return true
}

func (p *ElevenLabsProvider) ValidateAPIKey(key string) bool {
	// ElevenLabs keys don't have a consistent prefix, just check non-empty
	return len(key) > 0
}

func (p *ElevenLabsProvider) Models() []Model {
	return []Model{
		{
			ID:          "eleven_turbo_v2_5",
			Name:        "Eleven Turbo v2.5",
			Description: "Low-latency multilingual speech synthesis",
			Type:        Speech,
			AdapterType: "elevenlabs",
			Endpoint:    &EndpointConfig{BaseURL: "https://api.elevenlabs.io", Path: "/v1/text-to-speech"},
		},
		{
			ID:          "eleven_multilingual_v2",
			Name:        "Eleven Multilingual v2",
			Description: "Highest quality, 29 languages",
			Type:        Speech,
			AdapterType: "elevenlabs",
			Endpoint:    &EndpointConfig{BaseURL: "https://api.elevenlabs.io", Path: "/v1/text-to-speech"},
		},
	}
}

func (p *ElevenLabsProvider) DefaultModel(t ModelType) string {
	switch t {
	case Speech:
		return "eleven_turbo_v2_5"
	}
	return ""
}
