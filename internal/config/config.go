// Package config handles configuration loading and management for o1.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Provider names.
const (
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Summary naming schemes.
const (
	NamingWords = "words"
	NamingHash  = "hash"
)

// ProjectConfigFile is looked up in the working directory and its parents.
const ProjectConfigFile = ".o1.yaml"

// Config holds all configuration for o1.
type Config struct {
	Provider  string          `mapstructure:"provider"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Ollama    OllamaConfig    `mapstructure:"ollama"`
	Models    ModelsConfig    `mapstructure:"models"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Output    OutputConfig    `mapstructure:"output"`
	Progress  ProgressConfig  `mapstructure:"progress"`
}

// AnthropicConfig holds Anthropic API settings. Bedrock reuses it.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// OllamaConfig holds settings for an Ollama (or other OpenAI-compatible) server.
type OllamaConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// ModelsConfig names the fast and capable models. Empty values fall back
// to the provider's defaults.
type ModelsConfig struct {
	Fast    string `mapstructure:"fast"`
	Capable string `mapstructure:"capable"`
}

// PipelineConfig controls a run.
type PipelineConfig struct {
	// Workers is the number of step workers per pass.
	Workers int `mapstructure:"workers"`
	// Parallel runs the workers of a pass concurrently.
	Parallel bool `mapstructure:"parallel"`
	// Refine runs the second pass over the first pass's output.
	Refine bool `mapstructure:"refine"`
	// CallTimeout bounds each model call. Zero disables the bound.
	CallTimeout time.Duration `mapstructure:"call_timeout"`
	// MaxTokens caps each completion.
	MaxTokens int `mapstructure:"max_tokens"`
}

// OutputConfig controls where and how artifacts are written.
type OutputConfig struct {
	Dir          string        `mapstructure:"dir"`
	SummaryWords int           `mapstructure:"summary_words"`
	Naming       string        `mapstructure:"naming"`
	Pace         time.Duration `mapstructure:"pace"`
}

// ProgressConfig holds optional progress publishing settings.
type ProgressConfig struct {
	// NATSURL publishes progress lines to a NATS server when set.
	NATSURL string `mapstructure:"nats_url"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, O1_PROVIDER, OLLAMA_HOST, ...)
// 2. Project config (.o1.yaml in current directory or parent)
// 3. User config (~/.config/o1/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	bindEnv(v)

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Ollama.APIKey = expandEnv(cfg.Ollama.APIKey)
	cfg.Ollama.BaseURL = expandEnv(cfg.Ollama.BaseURL)
	cfg.Progress.NATSURL = expandEnv(cfg.Progress.NATSURL)
	cfg.Output.Dir = expandEnv(cfg.Output.Dir)

	return cfg, nil
}

func bindEnv(v *viper.Viper) {
	v.BindEnv("provider", "O1_PROVIDER")
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.base_url", "ANTHROPIC_BASE_URL")
	v.BindEnv("anthropic.aws_region", "AWS_REGION")
	v.BindEnv("anthropic.aws_profile", "AWS_PROFILE")
	v.BindEnv("ollama.base_url", "OLLAMA_HOST")
	v.BindEnv("output.dir", "O1_OUTPUT_DIR")
	v.BindEnv("progress.nats_url", "O1_NATS_URL")
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	return SaveTo(cfg, GetUserConfigPath())
}

// SaveTo writes the configuration to path.
func SaveTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)

	v.Set("provider", cfg.Provider)
	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.base_url", cfg.Anthropic.BaseURL)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("ollama.base_url", cfg.Ollama.BaseURL)
	v.Set("ollama.api_key", cfg.Ollama.APIKey)
	v.Set("models.fast", cfg.Models.Fast)
	v.Set("models.capable", cfg.Models.Capable)
	v.Set("pipeline.workers", cfg.Pipeline.Workers)
	v.Set("pipeline.parallel", cfg.Pipeline.Parallel)
	v.Set("pipeline.refine", cfg.Pipeline.Refine)
	v.Set("pipeline.call_timeout", cfg.Pipeline.CallTimeout.String())
	v.Set("pipeline.max_tokens", cfg.Pipeline.MaxTokens)
	v.Set("output.dir", cfg.Output.Dir)
	v.Set("output.summary_words", cfg.Output.SummaryWords)
	v.Set("output.naming", cfg.Output.Naming)
	v.Set("output.pace", cfg.Output.Pace.String())
	v.Set("progress.nats_url", cfg.Progress.NATSURL)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("provider", d.Provider)

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("ollama.base_url", d.Ollama.BaseURL)
	v.SetDefault("ollama.api_key", "")

	v.SetDefault("models.fast", "")
	v.SetDefault("models.capable", "")

	v.SetDefault("pipeline.workers", d.Pipeline.Workers)
	v.SetDefault("pipeline.parallel", d.Pipeline.Parallel)
	v.SetDefault("pipeline.refine", d.Pipeline.Refine)
	v.SetDefault("pipeline.call_timeout", d.Pipeline.CallTimeout.String())
	v.SetDefault("pipeline.max_tokens", d.Pipeline.MaxTokens)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.summary_words", d.Output.SummaryWords)
	v.SetDefault("output.naming", d.Output.Naming)
	v.SetDefault("output.pace", d.Output.Pace.String())

	v.SetDefault("progress.nats_url", "")
}

// getUserConfigDir returns the XDG config directory for o1.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "o1")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "o1")
	}
	return filepath.Join(home, ".config", "o1")
}

// findProjectConfig searches for .o1.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Provider: ProviderOllama,
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
		},
		Pipeline: PipelineConfig{
			Workers:     4,
			Parallel:    false,
			Refine:      true,
			CallTimeout: 10 * time.Minute,
			MaxTokens:   4096,
		},
		Output: OutputConfig{
			Dir:          "output",
			SummaryWords: 5,
			Naming:       NamingWords,
			Pace:         90 * time.Millisecond,
		},
	}
}

// Validate reports the first setting that cannot drive a run.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOllama, ProviderAnthropic, ProviderBedrock:
	default:
		return fmt.Errorf("unknown provider %q (want %s, %s or %s)", c.Provider, ProviderOllama, ProviderAnthropic, ProviderBedrock)
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be at least 1, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.CallTimeout < 0 {
		return fmt.Errorf("pipeline.call_timeout must not be negative")
	}
	if c.Pipeline.MaxTokens < 0 {
		return fmt.Errorf("pipeline.max_tokens must not be negative")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	if c.Output.SummaryWords < 1 {
		return fmt.Errorf("output.summary_words must be at least 1, got %d", c.Output.SummaryWords)
	}
	if c.Output.Naming != NamingWords && c.Output.Naming != NamingHash {
		return fmt.Errorf("unknown output.naming %q (want %s or %s)", c.Output.Naming, NamingWords, NamingHash)
	}
	if c.Output.Pace < 0 {
		return fmt.Errorf("output.pace must not be negative")
	}
	return nil
}
