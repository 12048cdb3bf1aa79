package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"articleforge/internal/config"
	"articleforge/internal/textutil"
)

// OpenAIClient talks to OpenAI-compatible chat-completion endpoints.
type OpenAIClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	maxTokens    int
	temperature  float64
	httpClient   *http.Client
}

var _ Provider = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg config.ProvidersConfig, client *http.Client) *OpenAIClient {
	return &OpenAIClient{
		endpoint:     cfg.OpenAI.Endpoint,
		model:        cfg.OpenAI.Model,
		apiKey:       cfg.OpenAI.APIKey,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		httpClient:   client,
	}
}

func (c *OpenAIClient) Name() string { return "openai" }

// Generate posts a system+user chat completion and returns the first choice.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", &AuthError{Provider: c.Name()}
	}

	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": c.systemPrompt},
			{"role": "user", "content": prompt},
		},
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		// Prompts scraped from the web can still smuggle in byte sequences
		// the encoder rejects; scrub everything and try once more.
		body, err = json.Marshal(textutil.SanitizeDeep(payload))
		if err != nil {
			return "", fmt.Errorf("marshal openai payload: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	raw, err := send(c.httpClient, req, c.Name())
	if err != nil {
		return "", err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &MalformedError{Provider: c.Name(), Detail: err.Error()}
	}
	if len(parsed.Choices) == 0 {
		return "", &MalformedError{Provider: c.Name(), Detail: "no choices in response"}
	}

	return parsed.Choices[0].Message.Content, nil
}
