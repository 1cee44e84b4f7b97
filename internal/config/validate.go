package config

import (
	"fmt"

	"github.com/buelmanager/enpeak-voice/internal/language"
	"github.com/buelmanager/enpeak-voice/internal/provider"
)

func (c *Config) Validate() error {
	if c.Capture.SampleRate <= 0 {
		return fmt.Errorf("invalid capture.sample_rate: %d", c.Capture.SampleRate)
	}
	if c.Capture.Channels <= 0 {
		return fmt.Errorf("invalid capture.channels: %d", c.Capture.Channels)
	}
	if c.Capture.BufferSize <= 0 {
		return fmt.Errorf("invalid capture.buffer_size: %d", c.Capture.BufferSize)
	}
	if c.Capture.ChannelBufferSize <= 0 {
		return fmt.Errorf("invalid capture.channel_buffer_size: %d", c.Capture.ChannelBufferSize)
	}
	if c.Capture.Format == "" {
		return fmt.Errorf("invalid capture.format: empty")
	}
	if c.Capture.SilenceTimeout <= 0 {
		return fmt.Errorf("invalid capture.silence_timeout: %v", c.Capture.SilenceTimeout)
	}
	if c.Capture.NoSpeechRetries < 0 {
		return fmt.Errorf("invalid capture.no_speech_retries: %d", c.Capture.NoSpeechRetries)
	}
	if err := language.Validate(c.Capture.Language); err != nil {
		return fmt.Errorf("invalid capture.language: %w", err)
	}

	if err := c.validateProviderModel("capture", c.Capture.Provider, c.Capture.Model, provider.Recognition); err != nil {
		return err
	}
	model := provider.FindModel(c.Capture.Provider, c.Capture.Model)
	if !model.SupportsLanguage(c.Capture.Language) {
		return fmt.Errorf("capture.model %s does not support language %q", c.Capture.Model, c.Capture.Language)
	}

	r := c.Routing
	if r.ConfirmThreshold < 0 || r.AcceptThreshold > 1 || r.ConfirmThreshold >= r.AcceptThreshold {
		return fmt.Errorf("invalid routing thresholds: need 0 <= confirm_threshold < accept_threshold <= 1, got %.2f / %.2f",
			r.ConfirmThreshold, r.AcceptThreshold)
	}
	if r.ShortTextLimit <= 0 {
		return fmt.Errorf("invalid routing.short_text_limit: %d", r.ShortTextLimit)
	}
	if r.ConfirmTimeout <= 0 {
		return fmt.Errorf("invalid routing.confirm_timeout: %v", r.ConfirmTimeout)
	}

	if c.Fallback.Enabled {
		if err := c.validateProviderModel("fallback", c.Fallback.Provider, c.Fallback.Model, provider.Transcription); err != nil {
			return err
		}
		if c.Fallback.RateCount <= 0 {
			return fmt.Errorf("invalid fallback.rate_count: %d", c.Fallback.RateCount)
		}
		if c.Fallback.RateSpan <= 0 {
			return fmt.Errorf("invalid fallback.rate_span: %v", c.Fallback.RateSpan)
		}
	}

	switch c.Turn.Mode {
	case "backend":
		if c.Turn.Endpoint == "" {
			return fmt.Errorf("turn.endpoint required when turn.mode = backend")
		}
	case "partner":
		if err := c.validateProviderModel("turn", "openai", c.Turn.Model, provider.Chat); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid turn.mode: %s (must be backend or partner)", c.Turn.Mode)
	}

	if err := c.validateProviderModel("speech", c.Speech.Provider, c.Speech.Model, provider.Speech); err != nil {
		return err
	}
	if c.Speech.SettleDelay < 0 {
		return fmt.Errorf("invalid speech.settle_delay: %v", c.Speech.SettleDelay)
	}

	validTypes := map[string]bool{"desktop": true, "log": true, "none": true}
	if !validTypes[c.Notifications.Type] {
		return fmt.Errorf("invalid notifications.type: %s (must be desktop, log, or none)", c.Notifications.Type)
	}

	return nil
}

func (c *Config) validateProviderModel(section, providerName, modelID string, typ provider.ModelType) error {
	p := provider.Get(providerName)
	if p == nil {
		return fmt.Errorf("unsupported %s.provider: %s (must be one of %v)", section, providerName, provider.ListWithType(typ))
	}
	if modelID == "" {
		return fmt.Errorf("invalid %s.model: empty", section)
	}
	m := provider.FindModel(providerName, modelID)
	if m == nil || m.Type != typ {
		return fmt.Errorf("invalid %s.model: %s is not a known %s model", section, modelID, providerName)
	}
	if p.RequiresAPIKey() && c.APIKeyFor(providerName) == "" {
		return fmt.Errorf("%s API key required: not found in config (providers.%s.api_key) or environment", providerName, providerName)
	}
	return nil
}

// APIKeyFor resolves a provider key from config or environment.
func (c *Config) APIKeyFor(providerName string) string {
	configured := ""
	if pc, ok := c.Providers[providerName]; ok {
		configured = pc.APIKey
	}
	return provider.ResolveAPIKey(providerName, configured)
}
