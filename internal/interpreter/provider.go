package interpreter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cbioportal-query-assistant/internal/domain"
)

const userAgent = "cbioportal-query-assistant/1.0"

// NewProvider builds the single backend named by cfg.Provider. A provider
// without credentials is still returned; it reports Configured() == false and
// every call fails with a ProviderError of kind unavailable.
func NewProvider(cfg domain.InterpreterConfig) (domain.InterpreterProvider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch name {
	case domain.ProviderAnthropic:
		return newAnthropicProvider(newBackend(name, cfg, cfg.Anthropic)), nil
	case domain.ProviderOpenAI:
		return newOpenAIProvider(newBackend(name, cfg, cfg.OpenAI)), nil
	case domain.ProviderGroq:
		return newOpenAIProvider(newBackend(name, cfg, cfg.Groq)), nil
	case domain.ProviderGemini:
		return newGeminiProvider(newBackend(name, cfg, cfg.Gemini)), nil
	case domain.ProviderOllama:
		return newOllamaProvider(newBackend(name, cfg, cfg.Ollama)), nil
	case domain.ProviderNone, "":
		return DisabledProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown interpreter provider: %s", cfg.Provider)
	}
}

// backend carries the HTTP plumbing shared by all providers.
type backend struct {
	name       string
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

func newBackend(name string, cfg domain.InterpreterConfig, pc domain.ProviderConfig) backend {
	model := cfg.Model
	if model == "" {
		model = pc.Model
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	limit := cfg.RateLimit
	if limit == 0 {
		limit = 5
	}
	maxTokens := pc.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}
	return backend{
		name:       name,
		baseURL:    strings.TrimRight(pc.BaseURL, "/"),
		apiKey:     pc.APIKey,
		model:      model,
		maxTokens:  maxTokens,
		httpClient: &http.Client{Timeout: timeout},
		rateLimit:  rate.NewLimiter(rate.Limit(limit), 1),
	}
}

func (b backend) Name() string { return b.name }

func (b backend) unavailable(reason string) error {
	return domain.NewProviderError(b.name, domain.ProviderNotConfigured, errors.New(reason))
}

func (b backend) transport(err error) error {
	return domain.NewProviderError(b.name, domain.ProviderTransport, err)
}

// postJSON sends payload and decodes a 2xx JSON reply into out. Every error
// it returns is already a ProviderError.
func (b backend) postJSON(ctx context.Context, url string, headers map[string]string, payload, out interface{}) error {
	if err := b.rateLimit.Wait(ctx); err != nil {
		return b.transport(fmt.Errorf("rate limit wait failed: %w", err))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return b.transport(fmt.Errorf("failed to encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return b.transport(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return b.transport(fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return b.transport(fmt.Errorf("failed to read response body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return b.transport(fmt.Errorf("%s API returned status %d: %s", b.name, resp.StatusCode, truncate(string(data), 200)))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return b.transport(fmt.Errorf("failed to parse JSON response: %w", err))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// DisabledProvider stands in when no backend is selected.
type DisabledProvider struct{}

func (DisabledProvider) Name() string     { return domain.ProviderNone }
func (DisabledProvider) Configured() bool { return false }

func (DisabledProvider) Interpret(context.Context, string) (string, error) {
	return "", domain.NewProviderError(domain.ProviderNone, domain.ProviderNotConfigured, errors.New("no interpreter provider selected"))
}
