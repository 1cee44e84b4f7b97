package tui

import (
	"fmt"

	"github.com/buelmanager/enpeak-voice/internal/config"
	"github.com/buelmanager/enpeak-voice/internal/language"
	"github.com/buelmanager/enpeak-voice/internal/provider"
	"github.com/charmbracelet/huh"
)

// getLanguageOptions returns the practice languages the configured
// recognition model actually supports
func getLanguageOptions(cfg *config.Config) []huh.Option[string] {
	model := provider.FindModel(cfg.Capture.Provider, cfg.Capture.Model)

	var options []huh.Option[string]
	for _, lang := range language.All() {
		if model != nil && !model.SupportsLanguage(lang.Code) {
			continue
		}
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", lang.Name, lang.NativeName), lang.Code))
	}
	return options
}

// editLanguage handles the practice language section edit
func editLanguage(cfg *config.Config) error {
	selected := cfg.Capture.Language

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Practice Language").
				Description("The language you are practicing speaking").
				Options(getLanguageOptions(cfg)...).
				Value(&selected),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Capture.Language = selected
	return nil
}
