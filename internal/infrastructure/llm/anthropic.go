package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"articleforge/internal/config"
)

// AnthropicClient talks to the Anthropic messages endpoint.
type AnthropicClient struct {
	endpoint     string
	model        string
	apiKey       string
	version      string
	systemPrompt string
	maxTokens    int
	temperature  float64
	httpClient   *http.Client
}

var _ Provider = (*AnthropicClient)(nil)

// NewAnthropicClient builds a client from configuration.
func NewAnthropicClient(cfg config.ProvidersConfig, client *http.Client) *AnthropicClient {
	return &AnthropicClient{
		endpoint:     cfg.Anthropic.Endpoint,
		model:        cfg.Anthropic.Model,
		apiKey:       cfg.Anthropic.APIKey,
		version:      cfg.Anthropic.Version,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		httpClient:   client,
	}
}

func (c *AnthropicClient) Name() string { return "anthropic" }

// Generate posts a single user turn with a top-level system string and
// returns the first content block.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", &AuthError{Provider: c.Name()}
	}

	body, err := json.Marshal(map[string]any{
		"model":       c.model,
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
		"system":      c.systemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal anthropic payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", c.version)
	req.Header.Set("Content-Type", "application/json")

	raw, err := send(c.httpClient, req, c.Name())
	if err != nil {
		return "", err
	}

	var parsed struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &MalformedError{Provider: c.Name(), Detail: err.Error()}
	}
	if len(parsed.Content) == 0 {
		return "", &MalformedError{Provider: c.Name(), Detail: "no content blocks in response"}
	}

	return parsed.Content[0].Text, nil
}
