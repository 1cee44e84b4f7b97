package tui

import (
	"fmt"
	"sort"

	"github.com/buelmanager/enpeak-voice/internal/config"
	"github.com/buelmanager/enpeak-voice/internal/provider"
	"github.com/charmbracelet/huh"
)

// openAIVoices are the voices offered by the OpenAI speech API.
var openAIVoices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

// getSpeechModelOptions returns the speech models a provider offers
func getSpeechModelOptions(providerName string) []huh.Option[string] {
	p := provider.Get(providerName)
	if p == nil {
		return nil
	}

	var options []huh.Option[string]
	for _, m := range p.Models() {
		if m.Type != provider.Speech {
			continue
		}
		options = append(options, huh.NewOption(fmt.Sprintf("%s - %s", m.Name, m.Description), m.ID))
	}
	return options
}

// editSpeech handles the reply speech section edit
func editSpeech(cfg *config.Config) error {
	providers := provider.ListWithType(provider.Speech)
	sort.Strings(providers)

	providerOptions := make([]huh.Option[string], 0, len(providers))
	for _, name := range providers {
		providerOptions = append(providerOptions, huh.NewOption(getProviderDisplayName(name), name))
	}

	selectedProvider := cfg.Speech.Provider
	providerForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Speech Provider").
				Description("Who should synthesize spoken replies?").
				Options(providerOptions...).
				Value(&selectedProvider),
		),
	).WithTheme(getTheme())

	if err := providerForm.Run(); err != nil {
		return err
	}

	selectedModel := cfg.Speech.Model
	if selectedProvider != cfg.Speech.Provider {
		if p := provider.Get(selectedProvider); p != nil {
			selectedModel = p.DefaultModel(provider.Speech)
		}
	}

	modelForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Speech Model").
				Options(getSpeechModelOptions(selectedProvider)...).
				Value(&selectedModel),
		),
	).WithTheme(getTheme())

	if err := modelForm.Run(); err != nil {
		return err
	}

	voiceSeed := cfg.Speech.Voice
	if selectedProvider != cfg.Speech.Provider {
		voiceSeed = ""
	}

	voice, err := selectVoice(selectedProvider, voiceSeed)
	if err != nil {
		return err
	}

	cfg.Speech.Provider = selectedProvider
	cfg.Speech.Model = selectedModel
	cfg.Speech.Voice = voice
	return nil
}

// selectVoice picks a voice for the given speech provider. OpenAI has a
// fixed roster, ElevenLabs takes a voice ID from the user's library.
func selectVoice(providerName, current string) (string, error) {
	if providerName == "openai" {
		options := make([]huh.Option[string], 0, len(openAIVoices))
		for _, v := range openAIVoices {
			options = append(options, huh.NewOption(v, v))
		}

		voice := current
		if !isOpenAIVoice(voice) {
			voice = "alloy"
		}

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Voice").
					Options(options...).
					Value(&voice),
			),
		).WithTheme(getTheme())

		if err := form.Run(); err != nil {
			return "", err
		}
		return voice, nil
	}

	voice := current
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Voice ID").
				Description("ElevenLabs voice ID (leave empty for the default voice)").
				Value(&voice),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return "", err
	}
	return voice, nil
}

func isOpenAIVoice(voice string) bool {
	for _, v := range openAIVoices {
		if v == voice {
			return true
		}
	}
	return false
}
