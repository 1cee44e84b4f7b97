// Package turn sends an accepted utterance to the conversation partner and
// returns its reply. The partner is either the enpeak backend (HTTP) or a
// local OpenAI-backed practice partner when no backend is configured.
package turn

import (
	"context"
	"fmt"
)

// Session identifies the conversation a turn belongs to.
type Session struct {
	ConversationID string
	Mode           string // "chat", "roleplay", ...
	Metadata       map[string]string
}

// Reply is the partner's answer to one utterance.
type Reply struct {
	Text     string
	Metadata map[string]string
}

// Client is the narrow turn-API contract the cycle controller consumes.
type Client interface {
	Send(ctx context.Context, text string, sess Session) (Reply, error)
}

// StaticReply is spoken when a turn request fails; the cycle breaks rather
// than retrying blindly.
const StaticReply = "Sorry, I didn't catch that. Could you say it again?"

// Config selects and configures the turn backend.
type Config struct {
	Mode     string // "backend" or "partner"
	Endpoint string // enpeak backend URL (backend mode)
	APIKey   string
	Model    string // chat model (partner mode)
}

func DefaultConfig() Config {
	return Config{
		Mode:  "partner",
		Model: "gpt-4o-mini",
	}
}

// New creates the configured client.
func New(cfg Config) (Client, error) {
	switch cfg.Mode {
	case "backend":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("turn backend endpoint required")
		}
		return NewHTTPClient(cfg), nil
	case "partner":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required for partner mode")
		}
		return NewPartnerAdapter(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported turn mode: %s", cfg.Mode)
	}
}
