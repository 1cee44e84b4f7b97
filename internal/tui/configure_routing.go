package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/buelmanager/enpeak-voice/internal/config"
	"github.com/charmbracelet/huh"
)

// parseThreshold parses a confidence threshold from user input
func parseThreshold(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("enter a number between 0 and 1")
	}
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("threshold must be between 0 and 1")
	}
	return v, nil
}

// editRouting handles the confidence routing section edit
func editRouting(cfg *config.Config) error {
	accept := strconv.FormatFloat(cfg.Routing.AcceptThreshold, 'f', -1, 64)
	confirm := strconv.FormatFloat(cfg.Routing.ConfirmThreshold, 'f', -1, 64)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Accept threshold").
				Description("Transcripts at or above this confidence are sent directly").
				Value(&accept).
				Validate(func(s string) error {
					_, err := parseThreshold(s)
					return err
				}),
			huh.NewInput().
				Title("Confirm threshold").
				Description("Transcripts at or above this confidence show a confirmation banner").
				Value(&confirm).
				Validate(func(s string) error {
					v, err := parseThreshold(s)
					if err != nil {
						return err
					}
					a, aerr := parseThreshold(accept)
					if aerr == nil && v >= a {
						return fmt.Errorf("confirm threshold must be below the accept threshold")
					}
					return nil
				}),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	acceptV, err := parseThreshold(accept)
	if err != nil {
		return err
	}
	confirmV, err := parseThreshold(confirm)
	if err != nil {
		return err
	}

	cfg.Routing.AcceptThreshold = acceptV
	cfg.Routing.ConfirmThreshold = confirmV
	return nil
}
