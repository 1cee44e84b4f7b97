package provider

import (
	"slices"
	"testing"
)

func TestProviderRegistry(t *testing.T) {
	providers := []struct {
		name           string
		hasRecognition bool
		hasChat        bool
		hasSpeech      bool
	}{
		{"deepgram", true, false, false},
		{"openai", false, true, true},
		{"elevenlabs", false, false, true},
	}

	for _, tc := range providers {
		t.Run(tc.name, func(t *testing.T) {
			p := Get(tc.name)
			if p == nil {
				t.Fatalf("Get(%q) returned nil", tc.name)
			}
			if p.Name() != tc.name {
				t.Errorf("Name() = %q, want %q", p.Name(), tc.name)
			}
			if !p.RequiresAPIKey() {
				t.Error("RequiresAPIKey() should be true for all cloud providers")
			}

			hasType := func(want ModelType) bool {
				for _, m := range p.Models() {
					if m.Type == want {
						return true
					}
				}
				return false
			}
			if hasType(Recognition) != tc.hasRecognition {
				t.Errorf("hasRecognition = %v, want %v", hasType(Recognition), tc.hasRecognition)
			}
			if hasType(Chat) != tc.hasChat {
				t.Errorf("hasChat = %v, want %v", hasType(Chat), tc.hasChat)
			}
			if hasType(Speech) != tc.hasSpeech {
				t.Errorf("hasSpeech = %v, want %v", hasType(Speech), tc.hasSpeech)
			}
		})
	}
}

func TestGetNotFound(t *testing.T) {
	if p := Get("nonexistent"); p != nil {
		t.Errorf("Get(nonexistent) should return nil, got %v", p)
	}
}

func TestListWithType(t *testing.T) {
	speech := ListWithType(Speech)
	for _, name := range []string{"openai", "elevenlabs"} {
		if !slices.Contains(speech, name) {
			t.Errorf("ListWithType(Speech) missing %q", name)
		}
	}
	if slices.Contains(speech, "deepgram") {
		t.Error("ListWithType(Speech) should not include deepgram")
	}

	recognition := ListWithType(Recognition)
	if !slices.Contains(recognition, "deepgram") {
		t.Error("ListWithType(Recognition) missing deepgram")
	}
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		provider string
		key      string
		valid    bool
	}{
		{"openai", "sk-abc123", true},
		{"openai", "invalid", false},
		{"openai", "", false},
		{"deepgram", "any-non-empty", true},
		{"deepgram", "", false},
		{"elevenlabs", "any-non-empty", true},
		{"elevenlabs", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.provider+"_"+tc.key, func(t *testing.T) {
			p := Get(tc.provider)
			if p.ValidateAPIKey(tc.key) != tc.valid {
				t.Errorf("ValidateAPIKey(%q) = %v, want %v", tc.key, !tc.valid, tc.valid)
			}
		})
	}
}

func TestFindModel(t *testing.T) {
	m := FindModel("deepgram", "nova-3")
	if m == nil {
		t.Fatal("FindModel('deepgram', 'nova-3') returned nil")
	}
	if m.ID != "nova-3" {
		t.Errorf("FindModel returned model %q, want 'nova-3'", m.ID)
	}
	if m.Endpoint == nil || m.Endpoint.BaseURL != "wss://api.deepgram.com" {
		t.Errorf("nova-3 endpoint = %+v, want wss://api.deepgram.com", m.Endpoint)
	}
	if !m.Streaming {
		t.Error("nova-3 should be a streaming model")
	}

	if FindModel("nonexistent", "nova-3") != nil {
		t.Error("FindModel with unknown provider should return nil")
	}
	if FindModel("deepgram", "nonexistent") != nil {
		t.Error("FindModel with unknown model should return nil")
	}
}

func TestDefaultModels(t *testing.T) {
	tests := []struct {
		provider string
		typ      ModelType
		want     string
	}{
		{"deepgram", Recognition, "nova-3"},
		{"openai", Transcription, "whisper-1"},
		{"openai", Chat, "gpt-4o-mini"},
		{"openai", Speech, "tts-1"},
		{"elevenlabs", Speech, "eleven_turbo_v2_5"},
		{"deepgram", Speech, ""},
	}

	for _, tc := range tests {
		if got := Get(tc.provider).DefaultModel(tc.typ); got != tc.want {
			t.Errorf("%s DefaultModel(%d) = %q, want %q", tc.provider, tc.typ, got, tc.want)
		}
	}
}

func TestSupportsLanguage(t *testing.T) {
	m := FindModel("deepgram", "nova-3")
	if m == nil {
		t.Fatal("nova-3 not found")
	}
	if !m.SupportsLanguage("en") {
		t.Error("nova-3 should support en")
	}
	if !m.SupportsLanguage("") {
		t.Error("auto-detect should always be supported")
	}
	if m.SupportsLanguage("xx") {
		t.Error("nova-3 should not support xx")
	}
}

func TestResolveAPIKey(t *testing.T) {
	if got := ResolveAPIKey("openai", "sk-configured"); got != "sk-configured" {
		t.Errorf("configured key should win, got %q", got)
	}

	t.Setenv("DEEPGRAM_API_KEY", "from-env")
	if got := ResolveAPIKey("deepgram", ""); got != "from-env" {
		t.Errorf("expected env fallback, got %q", got)
	}

	if got := ResolveAPIKey("unknown", ""); got != "" {
		t.Errorf("unknown provider should resolve to empty, got %q", got)
	}
}
