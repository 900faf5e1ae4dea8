// Package config loads the bootstrap binary's YAML configuration, applying
// defaults and environment-variable expansion before validation.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the cmd/agentcore bootstrap
// binary: which model to run, how much memory budget to reserve for the
// reply, the upstream API key, the history substrate, and logging.
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Memory  MemoryConfig  `yaml:"memory"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig selects the model and sampling parameters used for every run.
type LLMConfig struct {
	Model            string  `yaml:"model"`
	APIKey           string  `yaml:"api_key"`
	Temperature      float64 `yaml:"temperature"`
	PresencePenalty  float64 `yaml:"presence_penalty"`
	FrequencyPenalty float64 `yaml:"frequency_penalty"`
	MaxTokens        int     `yaml:"max_tokens"`
	ForcedTool       string  `yaml:"forced_tool"`
	SystemPrompt     string  `yaml:"system_prompt"`
}

// MemoryConfig tunes the Chat Memory component.
type MemoryConfig struct {
	// ReplyReservation is tokens reserved for the model's own reply
	// when computing the prompt budget.
	ReplyReservation int `yaml:"reply_reservation"`
}

// HistoryConfig selects the History Store substrate.
type HistoryConfig struct {
	// Driver is "memory", "postgres", or "sqlite".
	Driver string `yaml:"driver"`

	// DSN is the postgres/sqlite connection string; unused for the memory
	// driver. For sqlite, a bare file path (or ":memory:") is also accepted.
	DSN string `yaml:"dsn"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses path, expanding environment variables the way the
// teacher's config.Load does, then applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("failed to parse config: expected single document")
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-3.5-turbo-0613"
	}
	if cfg.Memory.ReplyReservation == 0 {
		cfg.Memory.ReplyReservation = 500
	}
	if cfg.History.Driver == "" {
		cfg.History.Driver = "memory"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}
