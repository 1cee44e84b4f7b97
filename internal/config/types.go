package config

import (
	"time"
)

type Config struct {
	Capture       CaptureConfig             `toml:"capture"`
	Routing       RoutingConfig             `toml:"routing"`
	Fallback      FallbackConfig            `toml:"fallback"`
	Turn          TurnConfig                `toml:"turn"`
	Speech        SpeechConfig              `toml:"speech"`
	Notifications NotificationsConfig       `toml:"notifications"`
	Providers     map[string]ProviderConfig `toml:"providers"`
}

// ProviderConfig holds the API key for one provider.
type ProviderConfig struct {
	APIKey string `toml:"api_key"`
}

// CaptureConfig covers the microphone and the streaming recognizer.
type CaptureConfig struct {
	SampleRate        int           `toml:"sample_rate"`
	Channels          int           `toml:"channels"`
	Format            string        `toml:"format"`
	BufferSize        int           `toml:"buffer_size"`
	Device            string        `toml:"device"`
	ChannelBufferSize int           `toml:"channel_buffer_size"`
	Provider          string        `toml:"provider"`
	Model             string        `toml:"model"`
	Language          string        `toml:"language"`
	SilenceTimeout    time.Duration `toml:"silence_timeout"`
	NoSpeechRetries   int           `toml:"no_speech_retries"`
	RetryDelay        time.Duration `toml:"retry_delay"`
}

// RoutingConfig holds the confidence tiers and the confirmation banner
// countdown.
type RoutingConfig struct {
	AcceptThreshold  float64       `toml:"accept_threshold"`
	ConfirmThreshold float64       `toml:"confirm_threshold"`
	ShortTextLimit   int           `toml:"short_text_limit"`
	ConfirmTimeout   time.Duration `toml:"confirm_timeout"`
}

// FallbackConfig covers the rate-limited secondary transcription.
type FallbackConfig struct {
	Enabled   bool          `toml:"enabled"`
	Provider  string        `toml:"provider"`
	Model     string        `toml:"model"`
	Timeout   time.Duration `toml:"timeout"`
	RateCount int           `toml:"rate_count"`
	RateSpan  time.Duration `toml:"rate_span"`
}

// TurnConfig selects the conversation partner backend.
type TurnConfig struct {
	Mode     string `toml:"mode"` // "backend" or "partner"
	Endpoint string `toml:"endpoint"`
	Model    string `toml:"model"`
}

// SpeechConfig covers reply synthesis and playback.
type SpeechConfig struct {
	Provider    string        `toml:"provider"`
	Model       string        `toml:"model"`
	Voice       string        `toml:"voice"`
	Timeout     time.Duration `toml:"timeout"`
	SettleDelay time.Duration `toml:"settle_delay"`
}

type NotificationsConfig struct {
	Enabled bool   `toml:"enabled"`
	Type    string `toml:"type"` // "desktop", "log", "none"
}
