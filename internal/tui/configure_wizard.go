package tui

import (
	"fmt"

	"github.com/buelmanager/enpeak-voice/internal/config"
	"github.com/charmbracelet/huh"
)

// runFreshInstall runs the full configuration wizard for fresh installs
func runFreshInstall(cfg *config.Config) (*ConfigureResult, error) {
	fmt.Println(Logo())
	fmt.Println()
	fmt.Println(StyleMuted.Render("Conversation practice that listens, checks, and talks back"))
	fmt.Println()

	selectedProviders, err := selectProviders()
	if err != nil {
		return &ConfigureResult{Cancelled: true}, nil
	}
	if len(selectedProviders) == 0 {
		return &ConfigureResult{Cancelled: true}, fmt.Errorf("no providers selected")
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]config.ProviderConfig)
	}

	for _, providerName := range selectedProviders {
		apiKey, err := inputAPIKey(providerName)
		if err != nil {
			return &ConfigureResult{Cancelled: true}, nil
		}
		cfg.Providers[providerName] = config.ProviderConfig{APIKey: apiKey}
	}

	if err := editLanguage(cfg); err != nil {
		return &ConfigureResult{Cancelled: true}, nil
	}

	if err := editRouting(cfg); err != nil {
		return &ConfigureResult{Cancelled: true}, nil
	}

	if err := editSpeech(cfg); err != nil {
		return &ConfigureResult{Cancelled: true}, nil
	}

	if err := editNotifications(cfg); err != nil {
		return &ConfigureResult{Cancelled: true}, nil
	}

	confirmed, err := showSummary(cfg)
	if err != nil || !confirmed {
		return &ConfigureResult{Cancelled: true}, nil
	}

	return &ConfigureResult{Config: cfg, Cancelled: false}, nil
}

func selectProviders() ([]string, error) {
	options := []huh.Option[string]{
		huh.NewOption("Deepgram - Nova streaming recognition", "deepgram"),
		huh.NewOption("OpenAI - Whisper fallback + GPT partner + TTS", "openai"),
		huh.NewOption("ElevenLabs - Speech synthesis", "elevenlabs"),
	}

	var selected []string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Which providers do you want to configure?").
				Description("Select all providers you have API keys for").
				Options(options...).
				Value(&selected),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return nil, err
	}

	valid := make([]string, 0)
	for _, s := range selected {
		for _, p := range AllProviders {
			if s == p {
				valid = append(valid, s)
				break
			}
		}
	}

	return valid, nil
}
