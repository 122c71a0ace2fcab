package main

import (
	"fmt"

	"github.com/ShayCichocki/o1/internal/api"
	"github.com/ShayCichocki/o1/internal/config"
)

// newCompleter creates the model backend named by cfg.Provider together
// with the model pair agents resolve against.
func newCompleter(cfg *config.Config) (api.Completer, api.Models, error) {
	mdl := modelsFor(cfg)

	switch cfg.Provider {
	case config.ProviderOllama:
		return api.NewOllamaClient(api.OllamaConfig{
			BaseURL:   cfg.Ollama.BaseURL,
			APIKey:    cfg.Ollama.APIKey,
			MaxTokens: cfg.Pipeline.MaxTokens,
		}), mdl, nil

	case config.ProviderAnthropic, config.ProviderBedrock:
		clientCfg := api.ClientConfig{
			BaseURL:       cfg.Anthropic.BaseURL,
			MaxTokens:     int64(cfg.Pipeline.MaxTokens),
			UseAWSBedrock: cfg.Provider == config.ProviderBedrock,
			AWSRegion:     cfg.Anthropic.AWSRegion,
			AWSProfile:    cfg.Anthropic.AWSProfile,
		}
		if cfg.NeedsAPIKey() {
			key, err := config.GetAPIKey(cfg)
			if err != nil {
				return nil, api.Models{}, fmt.Errorf("%w: set ANTHROPIC_API_KEY or run 'o1 config anthropic.api_key <key>'", err)
			}
			clientCfg.APIKey = key
		}
		client, err := api.NewClient(clientCfg)
		if err != nil {
			return nil, api.Models{}, fmt.Errorf("create API client: %w", err)
		}
		return client, mdl, nil

	default:
		return nil, api.Models{}, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// modelsFor fills unset model names with the provider's defaults.
func modelsFor(cfg *config.Config) api.Models {
	mdl := api.DefaultModels(cfg.Provider)
	if cfg.Models.Fast != "" {
		mdl.Fast = cfg.Models.Fast
	}
	if cfg.Models.Capable != "" {
		mdl.Capable = cfg.Models.Capable
	}
	return mdl
}
