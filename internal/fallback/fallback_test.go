package fallback

import (
	"testing"
	"time"
)

func TestNewRequiresAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = ""
	if _, err := New(cfg); err == nil {
		t.Error("New should fail without an API key")
	}
}

func TestNewUnsupportedProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "sk-test"
	cfg.Provider = "nope"
	if _, err := New(cfg); err == nil {
		t.Error("New should fail for an unknown provider")
	}
}

func TestNewOpenAI(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "sk-test"
	tr, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := tr.(*OpenAITranscriber); !ok {
		t.Errorf("New returned %T, want *OpenAITranscriber", tr)
	}
}

func TestTranscribeEmptyBlobIsNoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "sk-test"
	tr := NewOpenAITranscriber(cfg)

	text, err := tr.Transcribe(t.Context(), nil)
	if err != nil {
		t.Fatalf("Transcribe(nil) error: %v", err)
	}
	if text != "" {
		t.Errorf("Transcribe(nil) = %q, want empty", text)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello  ", "hello"},
		{"\n\t", ""},
		{"ok", "ok"},
	}
	for _, tt := range tests {
		if got := normalize(tt.in); got != tt.want {
			t.Errorf("normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.RateCount != 3 || cfg.RateSpan != time.Minute {
		t.Errorf("default rate window = %d/%v, want 3/1m", cfg.RateCount, cfg.RateSpan)
	}
	if cfg.Model != "whisper-1" {
		t.Errorf("default model = %q", cfg.Model)
	}
}
