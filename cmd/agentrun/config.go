package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is agentrun's layered configuration (spec's host-application
// concern; the runtime core has no opinion on config format). Layers are
// loaded low-to-high priority: built-in defaults, then
// ~/.agentrun/config.yaml, then ./config.yaml, then AGENTRUN_*
// environment variables, matching the global-then-local-then-env layering
// used for agent runtimes elsewhere in the pack.
type Config struct {
	Provider      string        `mapstructure:"provider" yaml:"provider"`
	Model         ModelConfig   `mapstructure:"model" yaml:"model"`
	MaxAttempts   int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	MaxIterations int           `mapstructure:"max_iterations" yaml:"max_iterations"`
	Telemetry     TelemetryConf `mapstructure:"telemetry" yaml:"telemetry"`
}

// ModelConfig carries the per-request model parameters and the provider
// credential used to reach it.
type ModelConfig struct {
	Name        string  `mapstructure:"name" yaml:"name"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key,omitempty"`
}

// TelemetryConf toggles the telemetry.Observer wiring.
type TelemetryConf struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// defaultConfig mirrors setConfigDefaults, expressed as a value so
// writeDefaultConfig can marshal it directly with yaml.v3 (viper's own YAML
// support only reads config files; it has no "dump a Config back to YAML"
// path, so a default-config scaffold needs the library wired directly).
func defaultConfig() Config {
	return Config{
		Provider: "anthropic",
		Model: ModelConfig{
			Name:        "claude-opus-4",
			MaxTokens:   4096,
			Temperature: 0.0,
		},
		MaxAttempts:   3,
		MaxIterations: 10,
	}
}

// writeDefaultConfig renders defaultConfig as YAML and writes it to path,
// for the `agentrun config init` scaffold command.
func writeDefaultConfig(path string) error {
	b, err := yaml.Marshal(defaultConfig())
	if err != nil {
		return fmt.Errorf("marshalling default config: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// loadConfig builds a Config from defaults, config files, and environment
// variables.
func loadConfig() (*Config, error) {
	v := viper.New()
	setConfigDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	globalDir := filepath.Join(os.Getenv("HOME"), ".agentrun")
	v.AddConfigPath(globalDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	if _, err := os.Stat("./config.yaml"); err == nil {
		local := viper.New()
		local.SetConfigFile("./config.yaml")
		if err := local.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(local.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging local config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("AGENTRUN")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("provider", "anthropic")
	v.SetDefault("model.name", "claude-opus-4")
	v.SetDefault("model.max_tokens", 4096)
	v.SetDefault("model.temperature", 0.0)
	v.SetDefault("max_attempts", 3)
	v.SetDefault("max_iterations", 10)
	v.SetDefault("telemetry.enabled", false)
}
