package provider

// DeepgramProvider offers streaming speech recognition.
type DeepgramProvider struct{}

func (p *DeepgramProvider) Name() string {
	return "deepgram"
}

func (p *DeepgramProvider) RequiresAPIKey() bool {
	return true
}

func (p *DeepgramProvider) ValidateAPIKey(key string) bool {
	// Deepgram keys are plain alphanumeric, just check non-empty
	return len(key) > 0
}

func (p *DeepgramProvider) Models() []Model {
	// https://developers.deepgram.com/docs/models-languages-overview
	nova3Langs := []string{
		"ar", "be", "bs", "bg", "ca", "hr", "cs", "da", "nl", "en", "et", "fi",
		"fr", "de", "el", "hi", "hu", "id", "it", "ja", "kn", "ko", "lv", "lt",
		"mk", "ms", "mr", "no", "pl", "pt", "ro", "ru", "sr", "sk", "sl", "es",
		"sv", "tl", "ta", "tr", "uk", "vi",
	}
	nova2Langs := []string{
		"bg", "ca", "zh", "cs", "da", "nl", "en", "et", "fi", "fr", "de", "el",
		"hi", "hu", "id", "it", "ja", "ko", "lv", "lt", "ms", "no", "pl", "pt",
		"ro", "ru", "sk", "es", "sv", "th", "tr", "uk", "vi",
	}

	return []Model{
		{
			ID:                 "nova-3",
			Name:               "Nova-3",
			Description:        "Best accuracy, 40+ languages, real-time",
			Type:               Recognition,
			Streaming:          true,
			AdapterType:        "deepgram",
			SupportedLanguages: nova3Langs,
			Endpoint:           &EndpointConfig{BaseURL: "wss://api.deepgram.com", Path: "/v1/listen"},
		},
		{
			ID:                 "nova-2",
			Name:               "Nova-2",
			Description:        "Fast, 30+ languages",
			Type:               Recognition,
			Streaming:          true,
			AdapterType:        "deepgram",
			SupportedLanguages: nova2Langs,
			Endpoint:           &EndpointConfig{BaseURL: "wss://api.deepgram.com", Path: "/v1/listen"},
		},
	}
}

func (p *DeepgramProvider) DefaultModel(t ModelType) string {
	switch t {
	case Recognition:
		return "nova-3"
	}
	return ""
}
