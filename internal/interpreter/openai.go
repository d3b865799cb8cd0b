package interpreter

import (
	"context"
	"errors"
	"strings"
)

// OpenAIProvider calls an OpenAI-compatible chat completions endpoint. Groq
// is served by the same client with a different base URL.
type OpenAIProvider struct {
	backend
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// newOpenAIProvider wraps b as a chat completions client.
func newOpenAIProvider(b backend) *OpenAIProvider {
	if b.baseURL == "" {
		b.baseURL = "https://api.openai.com"
	}
	return &OpenAIProvider{backend: b}
}

func (p *OpenAIProvider) Configured() bool { return p.apiKey != "" }

// Interpret returns the content of the first choice.
func (p *OpenAIProvider) Interpret(ctx context.Context, text string) (string, error) {
	if !p.Configured() {
		return "", p.unavailable(strings.ToUpper(p.name) + "_API_KEY not set")
	}

	req := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0.3,
		MaxTokens:   p.maxTokens,
	}
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}

	var resp chatResponse
	if err := p.postJSON(ctx, p.baseURL+"/v1/chat/completions", headers, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", p.transport(errors.New("response contained no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}
