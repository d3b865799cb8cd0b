package interpreter

import (
	"context"
)

// OllamaProvider calls a local Ollama server. It needs no credential.
type OllamaProvider struct {
	backend
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// newOllamaProvider wraps b as an Ollama client.
func newOllamaProvider(b backend) *OllamaProvider {
	if b.baseURL == "" {
		b.baseURL = "http://localhost:11434"
	}
	return &OllamaProvider{backend: b}
}

func (p *OllamaProvider) Configured() bool { return p.baseURL != "" && p.model != "" }

// Interpret posts a non-streaming generate request.
func (p *OllamaProvider) Interpret(ctx context.Context, text string) (string, error) {
	if !p.Configured() {
		return "", p.unavailable("ollama model not set")
	}

	req := ollamaRequest{Model: p.model, Prompt: BuildPrompt(text), Stream: false}

	var resp ollamaResponse
	if err := p.postJSON(ctx, p.baseURL+"/api/generate", nil, req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}
