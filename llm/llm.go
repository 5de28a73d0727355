// Package llm wraps the text-generation collaborator used by the idea,
// scene, and prompt-enhancement stages.
package llm

import (
	"context"
	"strings"

	"github.com/aktagon/llmkit/anthropic/agents"

	"pov-pipeline/fault"
)

// Client generates free text from a prompt via a chat agent.
type Client struct {
	agent       *agents.ChatAgent
	maxTokens   int
	temperature float64
}

// New creates a text-generation client. The API key is required.
func New(apiKey string, maxTokens int, temperature float64) (*Client, error) {
	if apiKey == "" {
		return nil, fault.Newf(fault.Unexpected, "llm.new", "ANTHROPIC_API_KEY not set")
	}
	agent, err := agents.New(apiKey)
	if err != nil {
		return nil, fault.New(fault.Unexpected, "llm.new", err)
	}
	return &Client{agent: agent, maxTokens: maxTokens, temperature: temperature}, nil
}

// Generate returns the model's text for prompt. An empty response is an
// InvalidResponse fault, not a silent success.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.agent.Chat(prompt, &agents.ChatOptions{
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fault.New(fault.Unexpected, "llm.generate", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fault.Newf(fault.InvalidResponse, "llm.generate", "empty response")
	}
	return text, nil
}
