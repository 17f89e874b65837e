// Package config provides configuration management for the Leaf Logic relay.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Assistant backend selectors
const (
	BackendAssistants = "assistants"
	BackendAnthropic  = "anthropic"
)

// DefaultAssistantID is the persona the relay binds runs to when no assistant
// ID is configured
const DefaultAssistantID = "asst_CYcOKzQcQZWclLJuUH7l0V9O"

// Config holds the configuration for the relay server and CLI
type Config struct {
	// Credentials come from the environment only, never from a config file
	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`

	Backend     string `yaml:"backend"`
	AssistantID string `yaml:"assistant_id"`
	ListenAddr  string `yaml:"listen_addr"`
	PlantDBPath string `yaml:"plant_db"`

	PollInterval time.Duration `yaml:"poll_interval"`
	PollTimeout  time.Duration `yaml:"poll_timeout"`

	TelemetryEnabled bool   `yaml:"telemetry_enabled"`
	OTLPEndpoint     string `yaml:"otlp_endpoint"`
}

// Load builds a Config from defaults, an optional YAML file, and environment
// variables, in increasing order of precedence. An empty path skips the file.
func Load(path string) (Config, error) {
	config := Config{
		Backend:      BackendAssistants,
		AssistantID:  DefaultAssistantID,
		ListenAddr:   ":3000",
		PlantDBPath:  "leaflogic.db",
		PollInterval: time.Second,
		PollTimeout:  2 * time.Minute,
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &config); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	config.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")

	overrideFromEnv(&config.Backend, "ASSISTANT_BACKEND")
	overrideFromEnv(&config.AssistantID, "OPENAI_ASSISTANT_ID")
	overrideFromEnv(&config.ListenAddr, "LISTEN_ADDR")
	overrideFromEnv(&config.PlantDBPath, "PLANT_DB_PATH")
	overrideFromEnv(&config.OTLPEndpoint, "OTLP_ENDPOINT")

	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse POLL_INTERVAL '%s': %w", v, err)
		}
		config.PollInterval = d
	}
	if v := os.Getenv("POLL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse POLL_TIMEOUT '%s': %w", v, err)
		}
		config.PollTimeout = d
	}
	if os.Getenv("TELEMETRY_ENABLED") == "true" {
		config.TelemetryEnabled = true
	}

	return config, nil
}

// Validate checks if the required configuration is present. The upstream
// credential for the selected backend is a fatal startup condition.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendAssistants:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("missing required environment variable: OPENAI_API_KEY")
		}
	case BackendAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("missing required environment variable: ANTHROPIC_API_KEY")
		}
	default:
		return fmt.Errorf("unknown assistant backend '%s'", c.Backend)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("poll timeout must be positive")
	}
	return nil
}

func overrideFromEnv(dest *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dest = v
	}
}
