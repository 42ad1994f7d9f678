// Package provider abstracts the generation service that turns an
// assembled prompt into a structured decision: a command name, its ordered
// string parameters, and the agent's notes on strategy.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Decision is the structured action returned by a provider.
type Decision struct {
	Command          string   `json:"command"`
	Parameters       []string `json:"parameters"`
	NotesAndStrategy string   `json:"notes_and_strategy"`
}

// Provider generates a decision from a composed prompt.
type Provider interface {
	Decide(ctx context.Context, systemPrompt, prompt string) (*Decision, error)
}

// ParseDecision decodes a model response into a Decision. Models
// occasionally wrap JSON in a markdown fence even when asked not to, so
// fences are stripped first.
func ParseDecision(raw string) (*Decision, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
	}
	var d Decision
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return nil, fmt.Errorf("parse decision: %w", err)
	}
	if d.Command == "" {
		return nil, fmt.Errorf("parse decision: missing command")
	}
	if d.Parameters == nil {
		d.Parameters = []string{}
	}
	return &d, nil
}
