// Package provider is the registry of speech and language service
// providers: which models each one offers, where their endpoints live,
// and how API keys are validated and resolved.
package provider

import "os"

// Provider describes a single service provider.
type Provider interface {
	Name() string
	RequiresAPIKey() bool
	ValidateAPIKey(key string) bool
	Models() []Model
	DefaultModel(t ModelType) string
}

// Config holds per-provider configuration.
type Config struct {
	APIKey string `toml:"api_key"`
}

var registry = make(map[string]Provider)

func init() {
	Register(&DeepgramProvider{})
	Register(&OpenAIProvider{})
	Register(&ElevenLabsProvider{})
}

// Register adds a provider to the registry.
func Register(p Provider) {
	registry[p.Name()] = p
}

// Get returns a provider by name, or nil if not found.
func Get(name string) Provider {
	return registry[name]
}

// List returns all registered provider names.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// ListWithType returns providers offering at least one model of type t.
func ListWithType(t ModelType) []string {
	var names []string
	for name, p := range registry {
		for _, m := range p.Models() {
			if m.Type == t {
				names = append(names, name)
				break
			}
		}
	}
	return names
}

// FindModel looks up a model by provider and ID.
func FindModel(providerName, modelID string) *Model {
	p := Get(providerName)
	if p == nil {
		return nil
	}
	for _, m := range p.Models() {
		if m.ID == modelID {
			model := m
			return &model
		}
	}
	return nil
}

var envKeys = map[string]string{
	"openai":     "OPENAI_API_KEY",
	"deepgram":   "DEEPGRAM_API_KEY",
	"elevenlabs": "ELEVENLABS_API_KEY",
}

// ResolveAPIKey returns the configured key, falling back to the
// provider's conventional environment variable when it is empty.
func ResolveAPIKey(providerName, configured string) string {
	if configured != "" {
		return configured
	}
	if env, ok := envKeys[providerName]; ok {
		return os.Getenv(env)
	}
	return ""
}
