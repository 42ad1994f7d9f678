package config

import (
	"fmt"
	"os"
)

// RedditConfig holds the Reddit app credentials.
type RedditConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	UserAgent    string `yaml:"user_agent"`
}

// LoadRedditConfig reads credentials from path, applies environment
// overrides, and validates the result. requireToken is false for the auth
// flow, which exists to obtain the token in the first place.
func LoadRedditConfig(path string, requireToken bool) (RedditConfig, error) {
	var cfg RedditConfig
	if err := loadYAML(path, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnvOverrides()
	if cfg.UserAgent == "" {
		cfg.UserAgent = "regent"
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return cfg, fmt.Errorf("%s: client_id and client_secret are required", path)
	}
	if requireToken && cfg.RefreshToken == "" {
		return cfg, fmt.Errorf("no Reddit refresh token found in %s. Run 'regent auth' to generate one", path)
	}
	return cfg, nil
}

func (c *RedditConfig) applyEnvOverrides() {
	if v := os.Getenv("REDDIT_CLIENT_ID"); v != "" {
		c.ClientID = v
	}
	if v := os.Getenv("REDDIT_CLIENT_SECRET"); v != "" {
		c.ClientSecret = v
	}
	if v := os.Getenv("REDDIT_REFRESH_TOKEN"); v != "" {
		c.RefreshToken = v
	}
	if v := os.Getenv("REDDIT_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
}
