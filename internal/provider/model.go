package provider

// ModelType distinguishes what a model does.
type ModelType int

const (
	// Recognition models transcribe live audio over a streaming socket.
	Recognition ModelType = iota
	// Transcription models transcribe a recorded clip in one request.
	Transcription
	// Chat models generate conversation replies.
	Chat
	// Speech models turn text into audio.
	Speech
)

// Model holds the metadata needed to wire up a provider model.
type Model struct {
	ID                 string
	Name               string
	Description        string
	Type               ModelType
	Streaming          bool
	AdapterType        string
	SupportedLanguages []string
	Endpoint           *EndpointConfig
}

// EndpointConfig holds HTTP/WebSocket endpoint configuration.
type EndpointConfig struct {
	BaseURL string // e.g. "https://api.openai.com" or "wss://api.deepgram.com"
	Path    string // e.g. "/v1/audio/transcriptions"
}

// SupportsLanguage reports whether the model supports the given
// language code. Auto-detect (empty string) is always supported.
func (m *Model) SupportsLanguage(code string) bool {
	if code == "" {
		return true
	}
	for _, supported := range m.SupportedLanguages {
		if supported == code {
			return true
		}
	}
	return false
}
