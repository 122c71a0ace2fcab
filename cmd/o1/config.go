package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ShayCichocki/o1/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify o1 configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/o1/config.yaml
Project-specific overrides can be placed in .o1.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		out := cmd.OutOrStdout()
		switch len(args) {
		case 0:
			displayAllConfig(out, cfg)
			return nil
		case 1:
			value, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, value)
			return nil
		default:
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			fmt.Fprintf(out, "Set %s = %s\n", args[0], args[1])
			return nil
		}
	},
}

// configKeys lists every key the config command understands, in display order.
var configKeys = []string{
	"provider",
	"anthropic.api_key",
	"anthropic.base_url",
	"anthropic.aws_region",
	"anthropic.aws_profile",
	"ollama.base_url",
	"ollama.api_key",
	"models.fast",
	"models.capable",
	"pipeline.workers",
	"pipeline.parallel",
	"pipeline.refine",
	"pipeline.call_timeout",
	"pipeline.max_tokens",
	"output.dir",
	"output.summary_words",
	"output.naming",
	"output.pace",
	"progress.nats_url",
}

// displayAllConfig prints all configuration values.
func displayAllConfig(w io.Writer, cfg *config.Config) {
	for _, key := range configKeys {
		value, _ := getConfigValue(cfg, key)
		fmt.Fprintf(w, "%s: %s\n", key, value)
	}
	fmt.Fprintf(w, "\n# api key source: %s\n", config.GetAPIKeySource(cfg))
	fmt.Fprintf(w, "# user config: %s\n", config.GetUserConfigPath())
	if project := config.GetProjectConfigPath(); project != "" {
		fmt.Fprintf(w, "# project config: %s\n", project)
	}
}

// getConfigValue retrieves a configuration value by dot-notation key.
// Secrets are masked.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "provider":
		return cfg.Provider, nil
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.base_url":
		return cfg.Anthropic.BaseURL, nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "ollama.base_url":
		return cfg.Ollama.BaseURL, nil
	case "ollama.api_key":
		return config.MaskAPIKey(cfg.Ollama.APIKey), nil
	case "models.fast":
		return cfg.Models.Fast, nil
	case "models.capable":
		return cfg.Models.Capable, nil
	case "pipeline.workers":
		return strconv.Itoa(cfg.Pipeline.Workers), nil
	case "pipeline.parallel":
		return strconv.FormatBool(cfg.Pipeline.Parallel), nil
	case "pipeline.refine":
		return strconv.FormatBool(cfg.Pipeline.Refine), nil
	case "pipeline.call_timeout":
		return cfg.Pipeline.CallTimeout.String(), nil
	case "pipeline.max_tokens":
		return strconv.Itoa(cfg.Pipeline.MaxTokens), nil
	case "output.dir":
		return cfg.Output.Dir, nil
	case "output.summary_words":
		return strconv.Itoa(cfg.Output.SummaryWords), nil
	case "output.naming":
		return cfg.Output.Naming, nil
	case "output.pace":
		return cfg.Output.Pace.String(), nil
	case "progress.nats_url":
		return cfg.Progress.NATSURL, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "provider":
		cfg.Provider = strings.ToLower(value)
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.base_url":
		cfg.Anthropic.BaseURL = value
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "ollama.base_url":
		cfg.Ollama.BaseURL = value
	case "ollama.api_key":
		cfg.Ollama.APIKey = value
	case "models.fast":
		cfg.Models.Fast = value
	case "models.capable":
		cfg.Models.Capable = value
	case "pipeline.workers":
		cfg.Pipeline.Workers, err = parseInt(key, value)
	case "pipeline.parallel":
		cfg.Pipeline.Parallel, err = parseBool(key, value)
	case "pipeline.refine":
		cfg.Pipeline.Refine, err = parseBool(key, value)
	case "pipeline.call_timeout":
		cfg.Pipeline.CallTimeout, err = parseDuration(key, value)
	case "pipeline.max_tokens":
		cfg.Pipeline.MaxTokens, err = parseInt(key, value)
	case "output.dir":
		cfg.Output.Dir = value
	case "output.summary_words":
		cfg.Output.SummaryWords, err = parseInt(key, value)
	case "output.naming":
		cfg.Output.Naming = strings.ToLower(value)
	case "output.pace":
		cfg.Output.Pace, err = parseDuration(key, value)
	case "progress.nats_url":
		cfg.Progress.NATSURL = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return err
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return n, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for %s: %w", key, err)
	}
	return b, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}
