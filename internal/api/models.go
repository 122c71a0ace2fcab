package api

import (
	"fmt"

	"github.com/ShayCichocki/o1/pkg/models"
)

// Default model identifiers per backend.
const (
	AnthropicFast    = "claude-haiku-4-5-20251001"
	AnthropicCapable = "claude-sonnet-4-5-20250929"
	OllamaFast       = "llama3.2:3b"
	OllamaCapable    = "qwen2.5-coder:32b"
)

// Models names the fast and capable model variants for one backend.
type Models struct {
	Fast    string
	Capable string
}

// DefaultModels returns the model pair for a provider name.
func DefaultModels(provider string) Models {
	if provider == "ollama" {
		return Models{Fast: OllamaFast, Capable: OllamaCapable}
	}
	return Models{Fast: AnthropicFast, Capable: AnthropicCapable}
}

// Resolve returns the model identifier for a tier.
func (m Models) Resolve(tier models.ModelTier) (string, error) {
	switch tier {
	case models.TierFast:
		if m.Fast == "" {
			return "", fmt.Errorf("no fast model configured")
		}
		return m.Fast, nil
	case models.TierCapable:
		if m.Capable == "" {
			return "", fmt.Errorf("no capable model configured")
		}
		return m.Capable, nil
	default:
		return "", fmt.Errorf("unknown model tier %q", tier)
	}
}
