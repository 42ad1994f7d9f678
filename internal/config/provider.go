package config

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted in provider configuration.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ProviderConfig selects and configures the generation service.
type ProviderConfig struct {
	Provider       string `yaml:"provider"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LoadProviderConfig reads provider settings, applies environment
// overrides, and validates. An empty provider argument keeps the file's
// choice; a non-empty one (from the CLI flag) overrides it.
func LoadProviderConfig(path, provider string) (ProviderConfig, error) {
	var cfg ProviderConfig
	if err := loadYAML(path, &cfg); err != nil {
		return cfg, err
	}
	if provider != "" {
		cfg.Provider = provider
	}
	cfg.applyEnvOverrides()
	switch cfg.Provider {
	case ProviderGemini, ProviderOpenAI:
	case "":
		return cfg, fmt.Errorf("%s: provider is required (one of %s, %s)", path, ProviderGemini, ProviderOpenAI)
	default:
		return cfg, fmt.Errorf("%s: unknown provider %q (one of %s, %s)", path, cfg.Provider, ProviderGemini, ProviderOpenAI)
	}
	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("%s: api_key is required for provider %s", path, cfg.Provider)
	}
	return cfg, nil
}

// Timeout returns the request timeout, zero meaning provider default.
func (c ProviderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// applyEnvOverrides takes API keys from the environment. A key only wins
// when it matches the selected provider, or selects the provider when none
// is configured.
func (c *ProviderConfig) applyEnvOverrides() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && (c.Provider == "" || c.Provider == ProviderGemini) {
		c.APIKey = v
		c.Provider = ProviderGemini
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && (c.Provider == "" || c.Provider == ProviderOpenAI) {
		c.APIKey = v
		c.Provider = ProviderOpenAI
	}
}
