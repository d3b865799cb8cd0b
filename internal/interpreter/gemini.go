package interpreter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// GeminiProvider calls the Gemini generateContent API.
type GeminiProvider struct {
	backend
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// newGeminiProvider wraps b as a Gemini client.
func newGeminiProvider(b backend) *GeminiProvider {
	if b.baseURL == "" {
		b.baseURL = "https://generativelanguage.googleapis.com"
	}
	return &GeminiProvider{backend: b}
}

func (p *GeminiProvider) Configured() bool { return p.apiKey != "" }

// Interpret sends the combined prompt and returns the first candidate part.
func (p *GeminiProvider) Interpret(ctx context.Context, text string) (string, error) {
	if !p.Configured() {
		return "", p.unavailable("GEMINI_API_KEY not set")
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		p.baseURL, url.PathEscape(p.model), url.QueryEscape(p.apiKey))
	req := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: BuildPrompt(text)}}}},
	}

	var resp geminiResponse
	if err := p.postJSON(ctx, endpoint, nil, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", p.transport(errors.New("response contained no candidates"))
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
