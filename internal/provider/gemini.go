package provider

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiClient implements Provider on the Gemini API, using a response
// schema so the model returns the decision as JSON directly.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed provider.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

var decisionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"command": {
			Type:        genai.TypeString,
			Description: "Name of the command to execute",
		},
		"parameters": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "Ordered command parameters",
		},
		"notes_and_strategy": {
			Type:        genai.TypeString,
			Description: "Summary of the event, the response, and the goal behind it",
		},
	},
	Required: []string{"command", "parameters", "notes_and_strategy"},
}

// Decide asks the model for a structured decision.
func (c *GeminiClient) Decide(ctx context.Context, systemPrompt, prompt string) (*Decision, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    decisionSchema,
	}
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}
	text := result.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini: empty response")
	}
	return ParseDecision(text)
}
