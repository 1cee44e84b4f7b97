package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/buelmanager/enpeak-voice/internal/bus"
	"github.com/buelmanager/enpeak-voice/internal/config"
	"github.com/buelmanager/enpeak-voice/internal/daemon"
	"github.com/buelmanager/enpeak-voice/internal/deps"
	"github.com/buelmanager/enpeak-voice/internal/provider"
	"github.com/buelmanager/enpeak-voice/internal/tui"
	"github.com/spf13/cobra"
)

func main() {
	_ = rootCmd.Execute()
}

var rootCmd = &cobra.Command{
	Use:   "enpeak-voice",
	Short: "Spoken conversation practice with confidence-checked transcription",
}

func init() {
	rootCmd.AddCommand(
		serveCmd(),
		startCmd(),
		finishCmd(),
		cancelCmd(),
		modeCmd(),
		confirmCmd(),
		editCmd(),
		dismissCmd(),
		statusCmd(),
		watchCmd(),
		versionCmd(),
		stopCmd(),
		configureCmd(),
		modelCmd(),
		doctorCmd(),
	)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.Verify(); err != nil {
				return err
			}
			manager, err := config.NewManager()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return daemon.New(manager).Run()
		},
	}
}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a conversation cycle",
		RunE:  sendVerb('r', "failed to start cycle"),
	}
}

func finishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "finish",
		Short: "Finish listening and resolve the utterance now",
		RunE:  sendVerb('f', "failed to finish capture"),
	}
}

func cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the current cycle",
		RunE:  sendVerb('c', "failed to cancel cycle"),
	}
}

func modeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mode",
		Short: "Toggle voice mode on/off",
		RunE:  sendVerb('m', "failed to toggle voice mode"),
	}
}

func confirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm",
		Short: "Accept the pending transcript",
		RunE:  sendVerb('y', "failed to confirm transcript"),
	}
}

func dismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss",
		Short: "Dismiss the pending transcript",
		RunE:  sendVerb('d', "failed to dismiss transcript"),
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get current cycle status",
		RunE:  sendVerb('s', "failed to get status"),
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Get protocol version",
		RunE:  sendVerb('v', "failed to get version"),
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE:  sendVerb('q', "failed to stop daemon"),
	}
}

func sendVerb(verb byte, errMsg string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		resp, err := bus.SendCommand(verb)
		if err != nil {
			return fmt.Errorf("%s: %w", errMsg, err)
		}
		fmt.Print(resp)
		return nil
	}
}

func editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <text>",
		Short: "Replace the pending transcript and send it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommandWithPayload('e', strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("failed to edit transcript: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream cycle events until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := bus.Watch(func(line string) bool {
				fmt.Println(line)
				return true
			})
			if err != nil {
				return fmt.Errorf("failed to watch events: %w", err)
			}
			return nil
		},
	}
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration wizard for enpeak-voice.
This will guide you through setting up:
- Provider API keys (Deepgram, OpenAI, ElevenLabs)
- Practice language and confidence routing
- Reply speech and notification preferences`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func runConfigure() error {
	cfg, err := config.Load()
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = config.DefaultConfig()
	}

	result, err := tui.Run(cfg)
	if err != nil {
		return fmt.Errorf("configuration wizard error: %w", err)
	}

	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := result.Config.Validate(); err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return err
	}

	if err := config.Save(result.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("Configuration saved successfully!")
	fmt.Println()

	fmt.Println("Next Steps:")
	fmt.Println("1. Start the daemon: enpeak-voice serve")
	fmt.Println("2. Begin a cycle: enpeak-voice start")
	fmt.Println()

	configPath, _ := config.GetConfigPath()
	fmt.Printf("Config file location: %s\n", configPath)
	return nil
}

func modelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Inspect provider models",
	}

	cmd.AddCommand(modelListCmd())

	return cmd
}

func modelListCmd() *cobra.Command {
	var providerFilter string
	var typeFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available recognition, chat, and speech models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelList(providerFilter, typeFilter)
		},
	}

	cmd.Flags().StringVar(&providerFilter, "provider", "", "filter by provider name")
	cmd.Flags().StringVar(&typeFilter, "type", "", "filter by type: recognition, transcription, chat, speech")

	return cmd
}

func runModelList(providerFilter, typeFilter string) error {
	var filterType *provider.ModelType
	if typeFilter != "" {
		t, err := parseModelType(typeFilter)
		if err != nil {
			return err
		}
		filterType = &t
	}

	providerNames := provider.List()
	sort.Strings(providerNames)

	if providerFilter != "" {
		found := false
		for _, name := range providerNames {
			if name == providerFilter {
				providerNames = []string{name}
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown provider: %s", providerFilter)
		}
	}

	for _, providerName := range providerNames {
		p := provider.Get(providerName)
		if p == nil {
			continue
		}

		var models []provider.Model
		for _, m := range p.Models() {
			if filterType != nil && m.Type != *filterType {
				continue
			}
			models = append(models, m)
		}

		if len(models) == 0 {
			continue
		}

		fmt.Printf("\n%s:\n", providerName)
		for _, m := range models {
			printModelLine(m)
		}
	}

	fmt.Println()
	return nil
}

func parseModelType(s string) (provider.ModelType, error) {
	switch strings.ToLower(s) {
	case "recognition":
		return provider.Recognition, nil
	case "transcription":
		return provider.Transcription, nil
	case "chat":
		return provider.Chat, nil
	case "speech":
		return provider.Speech, nil
	default:
		return 0, fmt.Errorf("invalid type: %s (use 'recognition', 'transcription', 'chat', or 'speech')", s)
	}
}

func printModelLine(m provider.Model) {
	var parts []string

	switch m.Type {
	case provider.Recognition:
		parts = append(parts, "recognition")
	case provider.Transcription:
		parts = append(parts, "transcription")
	case provider.Chat:
		parts = append(parts, "chat")
	case provider.Speech:
		parts = append(parts, "speech")
	}

	if m.Streaming {
		parts = append(parts, "streaming")
	}

	line := fmt.Sprintf("  %s", m.ID)
	if m.Description != "" {
		line += fmt.Sprintf(" - %s", m.Description)
	}
	if len(parts) > 0 {
		line += fmt.Sprintf(" [%s]", strings.Join(parts, ", "))
	}

	fmt.Println(line)
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check system dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			report := []struct {
				name   string
				status deps.Status
			}{
				{"pw-record", deps.CheckPwRecord()},
				{"pw-play", deps.CheckPwPlay()},
				{"notify-send", deps.CheckNotifySend()},
			}

			for _, r := range report {
				if r.status.Installed {
					fmt.Printf("  [x] %s (%s)\n", r.name, r.status.Path)
				} else {
					fmt.Printf("  [ ] %s\n", r.name)
				}
			}

			return deps.Verify()
		},
	}
}
