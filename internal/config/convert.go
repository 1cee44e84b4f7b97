package config

import (
	"github.com/buelmanager/enpeak-voice/internal/capture"
	"github.com/buelmanager/enpeak-voice/internal/cycle"
	"github.com/buelmanager/enpeak-voice/internal/fallback"
	"github.com/buelmanager/enpeak-voice/internal/recording"
	"github.com/buelmanager/enpeak-voice/internal/route"
	"github.com/buelmanager/enpeak-voice/internal/speech"
	"github.com/buelmanager/enpeak-voice/internal/turn"
)

// The To* helpers map the file sections onto the component configs so
// the daemon wiring stays declarative.

func (c *Config) ToRecordingConfig() recording.Config {
	return recording.Config{
		SampleRate:        c.Capture.SampleRate,
		Channels:          c.Capture.Channels,
		Format:            c.Capture.Format,
		BufferSize:        c.Capture.BufferSize,
		Device:            c.Capture.Device,
		ChannelBufferSize: c.Capture.ChannelBufferSize,
	}
}

func (c *Config) ToCaptureConfig() capture.Config {
	return capture.Config{
		Recording:       c.ToRecordingConfig(),
		Language:        c.Capture.Language,
		SilenceTimeout:  c.Capture.SilenceTimeout,
		NoSpeechRetries: c.Capture.NoSpeechRetries,
		RetryDelay:      c.Capture.RetryDelay,
		SideRecording:   c.Fallback.Enabled,
	}
}

func (c *Config) ToRouteConfig() route.Config {
	return route.Config{
		AcceptThreshold:  c.Routing.AcceptThreshold,
		ConfirmThreshold: c.Routing.ConfirmThreshold,
		ShortTextLimit:   c.Routing.ShortTextLimit,
		ConfirmTimeout:   c.Routing.ConfirmTimeout,
	}
}

func (c *Config) ToFallbackConfig() fallback.Config {
	return fallback.Config{
		Provider:  c.Fallback.Provider,
		APIKey:    c.APIKeyFor(c.Fallback.Provider),
		Model:     c.Fallback.Model,
		Language:  c.Capture.Language,
		Timeout:   c.Fallback.Timeout,
		RateCount: c.Fallback.RateCount,
		RateSpan:  c.Fallback.RateSpan,
	}
}

func (c *Config) ToTurnConfig() turn.Config {
	key := c.APIKeyFor("openai")
	if c.Turn.Mode == "backend" {
		// the backend speaks its own key, kept under providers.enpeak
		key = c.APIKeyFor("enpeak")
	}
	return turn.Config{
		Mode:     c.Turn.Mode,
		Endpoint: c.Turn.Endpoint,
		APIKey:   key,
		Model:    c.Turn.Model,
	}
}

func (c *Config) ToSpeechConfig() speech.Config {
	return speech.Config{
		Provider: c.Speech.Provider,
		APIKey:   c.APIKeyFor(c.Speech.Provider),
		Model:    c.Speech.Model,
		Voice:    c.Speech.Voice,
		Timeout:  c.Speech.Timeout,
	}
}

func (c *Config) ToCycleConfig() cycle.Config {
	cfg := cycle.DefaultConfig()
	cfg.ConfirmTimeout = c.Routing.ConfirmTimeout
	cfg.SettleDelay = c.Speech.SettleDelay
	return cfg
}
