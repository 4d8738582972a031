// Package config loads the YAML configuration used by the tabular CLI.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Model       string   `yaml:"model"`
	BaseURL     string   `yaml:"base_url"`
	APIKeyEnv   string   `yaml:"api_key_env"`
	Python      string   `yaml:"python"`
	Temperature *float64 `yaml:"temperature"`
	TraceDir    string   `yaml:"trace_dir"`
}

// Default returns the configuration used when no config file is present.
func Default() Config {
	return Config{
		Model:     "gpt-4o",
		APIKeyEnv: "OPENAI_API_KEY",
		Python:    "python3",
	}
}

// Load reads a YAML config file. Unknown keys are rejected so typos surface
// early.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads the config file when it exists and falls back to
// defaults when it does not.
func LoadOrDefault(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// APIKey resolves the API key from the configured environment variable.
func (c Config) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}
