// Package speech plays the partner's reply out loud. The completion
// callback is invoked exactly once per Speak, including on synthesis or
// playback failure, so the conversation cycle is never stuck waiting.
package speech

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

// Synthesizer turns text into an audio blob.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (audio []byte, format string, err error)
}

// Speaker is the playback contract the cycle controller consumes.
type Speaker interface {
	// Speak synthesizes and plays text. done fires exactly once, with a
	// nil error on clean completion.
	Speak(ctx context.Context, text string, done func(err error))
	// Stop interrupts in-flight playback; the pending done still fires.
	Stop()
}

type Config struct {
	Provider string
	APIKey   string
	Model    string
	Voice    string
	Timeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Provider: "openai",
		Model:    "tts-1",
		Voice:    "alloy",
		Timeout:  20 * time.Second,
	}
}

// NewSynthesizer creates a synthesizer for the configured provider.
func NewSynthesizer(cfg Config) (Synthesizer, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		return NewOpenAISynthesizer(cfg), nil
	case "elevenlabs":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("ElevenLabs API key required")
		}
		return NewElevenLabsSynthesizer(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported speech provider: %s", cfg.Provider)
	}
}

// Service wires a synthesizer to the local audio player.
type Service struct {
	synth  Synthesizer
	player Player

	mu      sync.Mutex
	cancel  context.CancelFunc
	playing bool
	gen     uint64
}

// Player plays an audio file until it ends or ctx is cancelled.
type Player interface {
	Play(ctx context.Context, path string, format string) error
}

func NewService(synth Synthesizer, player Player) *Service {
	if player == nil {
		player = &CommandPlayer{}
	}
	return &Service{synth: synth, player: player}
}

func (s *Service) Speak(ctx context.Context, text string, done func(err error)) {
	playCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.cancel != nil {
		// superseding an in-flight utterance; stop it first
		s.cancel()
	}
	s.cancel = cancel
	s.playing = true
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	var once sync.Once
	complete := func(err error) {
		once.Do(func() {
			s.mu.Lock()
			// a superseded utterance's completion must not clobber
			// the current one's state
			if s.gen == gen {
				s.playing = false
				s.cancel = nil
			}
			s.mu.Unlock()
			done(err)
		})
	}

	go func() {
		audio, format, err := s.synth.Synthesize(playCtx, text)
		if err != nil {
			complete(fmt.Errorf("synthesize: %w", err))
			return
		}

		path, err := writeTempAudio(audio, format)
		if err != nil {
			complete(err)
			return
		}
		defer os.Remove(path)

		start := time.Now()
		if err := s.player.Play(playCtx, path, format); err != nil {
			complete(fmt.Errorf("playback: %w", err))
			return
		}
		log.Printf("speech: played %d bytes in %v", len(audio), time.Since(start))
		complete(nil)
	}()
}

// Stop interrupts playback. The in-flight Speak's done callback still
// fires (with the cancellation error).
func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Playing reports whether an utterance is being spoken.
func (s *Service) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func writeTempAudio(audio []byte, format string) (string, error) {
	f, err := os.CreateTemp("", "enpeak-voice-*."+format)
	if err != nil {
		return "", fmt.Errorf("create temp audio file: %w", err)
	}
	if _, err := f.Write(audio); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp audio file: %w", err)
	}
	return f.Name(), nil
}

// CommandPlayer shells out to the system audio player.
type CommandPlayer struct{}

func (CommandPlayer) Play(ctx context.Context, path string, format string) error {
	name, args := playerCommand(path, format)
	if name == "" {
		return fmt.Errorf("no audio player found for format %q (install pipewire-tools or mpv)", format)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s %s: %w", name, filepath.Base(path), err)
	}
	return nil
}

// playerCommand picks the first available player that handles the format.
func playerCommand(path string, format string) (string, []string) {
	if format == "wav" {
		for _, candidate := range []string{"pw-play", "paplay"} {
			if _, err := exec.LookPath(candidate); err == nil {
				return candidate, []string{path}
			}
		}
	}
	for _, candidate := range []string{"mpv", "ffplay"} {
		if _, err := exec.LookPath(candidate); err != nil {
			continue
		}
		if candidate == "mpv" {
			return candidate, []string{"--no-video", "--really-quiet", path}
		}
		return candidate, []string{"-nodisp", "-autoexit", "-loglevel", "quiet", path}
	}
	return "", nil
}
