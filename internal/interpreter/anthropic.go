package interpreter

import (
	"context"
	"errors"
)

const anthropicVersion = "2023-06-01"

// AnthropicProvider calls the Anthropic Messages API.
type AnthropicProvider struct {
	backend
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// newAnthropicProvider wraps b as an Anthropic client.
func newAnthropicProvider(b backend) *AnthropicProvider {
	if b.baseURL == "" {
		b.baseURL = "https://api.anthropic.com"
	}
	return &AnthropicProvider{backend: b}
}

func (p *AnthropicProvider) Configured() bool { return p.apiKey != "" }

// Interpret sends text with the system prompt and returns the first text block.
func (p *AnthropicProvider) Interpret(ctx context.Context, text string) (string, error) {
	if !p.Configured() {
		return "", p.unavailable("ANTHROPIC_API_KEY not set")
	}

	req := anthropicRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		System:    SystemPrompt,
		Messages:  []anthropicMessage{{Role: "user", Content: text}},
	}
	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := p.postJSON(ctx, p.baseURL+"/v1/messages", headers, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", p.transport(errors.New("response contained no content"))
	}
	return resp.Content[0].Text, nil
}
