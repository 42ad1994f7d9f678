// Package config loads the three configuration documents the agent needs:
// the agent schema (who the agent is and how it behaves), the Reddit app
// credentials, and the generation provider settings. All are YAML files;
// credentials can also come from the environment. Invalid configuration is
// fatal and reported before the orchestration loop starts.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AgentConfig is the agent schema document.
type AgentConfig struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"agent_description"`
	Instructions string `yaml:"agent_instructions"`

	// ActiveSubreddits is the allow-list of subreddits the agent
	// monitors and may post to.
	ActiveSubreddits []string `yaml:"active_on_subreddits"`

	// MaxPostAgeForReplyingHours bounds how old a streamed post may be
	// and still receive a reply.
	MaxPostAgeForReplyingHours int `yaml:"max_post_age_for_replying_hours"`

	// MinimumTimeBetweenPostsHours rate-gates self-initiated posts.
	MinimumTimeBetweenPostsHours int `yaml:"minimum_time_between_posts_hours"`

	// MaxHistoryLength bounds the retained action history.
	MaxHistoryLength int `yaml:"max_history_length"`

	// IterationIntervalSeconds is the unattended-mode sleep between
	// cycles.
	IterationIntervalSeconds int `yaml:"iteration_interval_seconds"`

	// EnableScheduledPosts turns on the self-initiated posting phase.
	EnableScheduledPosts bool `yaml:"enable_scheduled_posts"`
}

// DefaultAgentConfig returns the schema defaults.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		MaxPostAgeForReplyingHours:   24,
		MinimumTimeBetweenPostsHours: 1,
		MaxHistoryLength:             10,
		IterationIntervalSeconds:     10,
	}
}

// LoadAgentConfig reads and validates an agent schema file.
func LoadAgentConfig(path string) (AgentConfig, error) {
	cfg := DefaultAgentConfig()
	if err := loadYAML(path, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("agent schema %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the schema invariants.
func (c AgentConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(c.ActiveSubreddits) == 0 {
		return fmt.Errorf("active_on_subreddits must list at least one subreddit")
	}
	if c.MaxPostAgeForReplyingHours <= 0 {
		return fmt.Errorf("max_post_age_for_replying_hours must be positive")
	}
	if c.MinimumTimeBetweenPostsHours < 0 {
		return fmt.Errorf("minimum_time_between_posts_hours must not be negative")
	}
	if c.MaxHistoryLength <= 0 {
		return fmt.Errorf("max_history_length must be positive")
	}
	if c.IterationIntervalSeconds <= 0 {
		return fmt.Errorf("iteration_interval_seconds must be positive")
	}
	return nil
}

// MaxPostAge returns the reply-eligibility window as a duration.
func (c AgentConfig) MaxPostAge() time.Duration {
	return time.Duration(c.MaxPostAgeForReplyingHours) * time.Hour
}

// MinPostInterval returns the post rate gate as a duration.
func (c AgentConfig) MinPostInterval() time.Duration {
	return time.Duration(c.MinimumTimeBetweenPostsHours) * time.Hour
}

// IterationInterval returns the unattended-mode cycle sleep.
func (c AgentConfig) IterationInterval() time.Duration {
	return time.Duration(c.IterationIntervalSeconds) * time.Second
}

// loadYAML reads a YAML document into out, with the copy-the-example hint
// when the file does not exist.
func loadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file %s not found. Create it by copying %s.example and filling in the values", path, path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
