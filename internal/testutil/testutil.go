// Package testutil holds shared fixtures and mocks for tests across
// the module.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/buelmanager/enpeak-voice/internal/capture"
	"github.com/buelmanager/enpeak-voice/internal/config"
	"github.com/buelmanager/enpeak-voice/internal/turn"
)

// TestConfig returns a valid configuration for testing.
func TestConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Providers = map[string]config.ProviderConfig{
		"deepgram":   {APIKey: "dg-test-key"},
		"openai":     {APIKey: "sk-test-key"},
		"elevenlabs": {APIKey: "el-test-key"},
	}
	cfg.Notifications.Type = "log"
	return cfg
}

// CreateTempConfigFile writes configContent to a temp config.toml.
func CreateTempConfigFile(t *testing.T, configContent string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to create temp config file: %v", err)
	}
	return configPath
}

// MockCaptureEngine is a controllable stand-in for the capture engine.
type MockCaptureEngine struct {
	mu       sync.Mutex
	Handlers capture.Handlers
	StartErr error
	starts   int
	stops    int
	aborts   int
	active   bool
}

func (m *MockCaptureEngine) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StartErr != nil {
		return m.StartErr
	}
	m.starts++
	m.active = true
	return nil
}

func (m *MockCaptureEngine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	m.active = false
}

func (m *MockCaptureEngine) Abort() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aborts++
	m.active = false
}

func (m *MockCaptureEngine) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *MockCaptureEngine) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

// EmitFinal simulates the end-pointed utterance reaching the handlers.
func (m *MockCaptureEngine) EmitFinal(res capture.TranscriptResult, audio []byte) {
	m.mu.Lock()
	m.active = false
	m.mu.Unlock()
	m.Handlers.Final(res, audio)
}

// MockTurnClient records sent texts and returns a scripted reply.
type MockTurnClient struct {
	mu    sync.Mutex
	Reply string
	Err   error
	sent  []string
}

func (m *MockTurnClient) Send(ctx context.Context, text string, sess turn.Session) (turn.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, text)
	if m.Err != nil {
		return turn.Reply{}, m.Err
	}
	return turn.Reply{Text: m.Reply}, nil
}

func (m *MockTurnClient) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

// MockSpeaker completes playback asynchronously with a scripted error.
type MockSpeaker struct {
	mu     sync.Mutex
	Err    error
	spoken []string
	stops  int
}

func (m *MockSpeaker) Speak(ctx context.Context, text string, done func(err error)) {
	m.mu.Lock()
	m.spoken = append(m.spoken, text)
	err := m.Err
	m.mu.Unlock()
	go done(err)
}

func (m *MockSpeaker) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
}

func (m *MockSpeaker) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.spoken...)
}

// MockTranscriber is a scripted fallback transcriber.
type MockTranscriber struct {
	mu    sync.Mutex
	Text  string
	Err   error
	calls int
}

func (m *MockTranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.Text, m.Err
}

func (m *MockTranscriber) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// WaitFor polls cond until it holds or the timeout elapses.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
