package config

import "time"

// DefaultConfig returns the initial configuration used for onboarding.
func DefaultConfig() *Config {
	return &Config{
		Capture: CaptureConfig{
			SampleRate:        16000,
			Channels:          1,
			Format:            "s16le",
			BufferSize:        4096,
			Device:            "",
			ChannelBufferSize: 20,
			Provider:          "deepgram",
			Model:             "nova-3",
			Language:          "en",
			SilenceTimeout:    2 * time.Second,
			NoSpeechRetries:   2,
			RetryDelay:        300 * time.Millisecond,
		},
		Routing: RoutingConfig{
			AcceptThreshold:  0.8,
			ConfirmThreshold: 0.4,
			ShortTextLimit:   3,
			ConfirmTimeout:   5 * time.Second,
		},
		Fallback: FallbackConfig{
			Enabled:   true,
			Provider:  "openai",
			Model:     "whisper-1",
			Timeout:   15 * time.Second,
			RateCount: 3,
			RateSpan:  time.Minute,
		},
		Turn: TurnConfig{
			Mode:  "partner",
			Model: "gpt-4o-mini",
		},
		Speech: SpeechConfig{
			Provider:    "openai",
			Model:       "tts-1",
			Voice:       "alloy",
			Timeout:     20 * time.Second,
			SettleDelay: 500 * time.Millisecond,
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Type:    "desktop",
		},
		Providers: make(map[string]ProviderConfig),
	}
}
