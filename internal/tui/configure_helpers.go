package tui

import (
	"fmt"
	"strings"

	"github.com/buelmanager/enpeak-voice/internal/config"
	"github.com/buelmanager/enpeak-voice/internal/language"
	"github.com/charmbracelet/huh"
)

// formatLanguageLabel formats the language menu option showing current setting
func formatLanguageLabel(cfg *config.Config) string {
	lang, ok := language.Lookup(cfg.Capture.Language)
	if !ok {
		return "Language"
	}
	return fmt.Sprintf("Language (%s)", lang.Name)
}

// formatRoutingLabel formats the routing menu option showing current thresholds
func formatRoutingLabel(cfg *config.Config) string {
	return fmt.Sprintf("Confidence Routing (accept ≥ %.2f, confirm ≥ %.2f)",
		cfg.Routing.AcceptThreshold, cfg.Routing.ConfirmThreshold)
}

// formatSpeechLabel formats the speech menu option showing current voice
func formatSpeechLabel(cfg *config.Config) string {
	return fmt.Sprintf("Speech (%s, voice %s)", cfg.Speech.Provider, cfg.Speech.Voice)
}

// formatNotificationsLabel formats the notifications menu option
func formatNotificationsLabel(cfg *config.Config) string {
	if !cfg.Notifications.Enabled {
		return "Notifications (disabled)"
	}
	return fmt.Sprintf("Notifications (%s)", cfg.Notifications.Type)
}

func showSummary(cfg *config.Config) (bool, error) {
	fmt.Println()
	fmt.Println(StyleHeader.Render("Configuration Summary"))
	fmt.Println()

	providers := getConfiguredProviders(cfg)
	fmt.Printf("  %s %s\n", StyleLabel.Render("Providers:"), strings.Join(providers, ", "))

	fmt.Printf("  %s %s (%s)\n", StyleLabel.Render("Recognition:"), cfg.Capture.Provider, cfg.Capture.Model)
	if lang, ok := language.Lookup(cfg.Capture.Language); ok {
		fmt.Printf("  %s %s\n", StyleLabel.Render("Language:"), lang.Name)
	}

	fmt.Printf("  %s accept ≥ %.2f, confirm ≥ %.2f\n",
		StyleLabel.Render("Routing:"), cfg.Routing.AcceptThreshold, cfg.Routing.ConfirmThreshold)

	if cfg.Fallback.Enabled {
		fmt.Printf("  %s %s (%s)\n", StyleLabel.Render("Fallback:"), cfg.Fallback.Provider, cfg.Fallback.Model)
	} else {
		fmt.Printf("  %s disabled\n", StyleLabel.Render("Fallback:"))
	}

	fmt.Printf("  %s %s (%s, voice %s)\n",
		StyleLabel.Render("Speech:"), cfg.Speech.Provider, cfg.Speech.Model, cfg.Speech.Voice)

	if cfg.Notifications.Enabled {
		fmt.Printf("  %s %s\n", StyleLabel.Render("Notifications:"), cfg.Notifications.Type)
	} else {
		fmt.Printf("  %s disabled\n", StyleLabel.Render("Notifications:"))
	}

	fmt.Println()

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Affirmative("Save").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return false, err
	}

	return confirmed, nil
}
