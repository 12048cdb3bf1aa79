package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"articleforge/internal/config"
)

// GeminiClient talks to the Gemini generateContent endpoint.
type GeminiClient struct {
	endpoint     string
	apiKey       string
	systemPrompt string
	maxTokens    int
	temperature  float64
	httpClient   *http.Client
}

var _ Provider = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration. The model is part of
// the endpoint path, so only the endpoint is taken from config.
func NewGeminiClient(cfg config.ProvidersConfig, client *http.Client) *GeminiClient {
	return &GeminiClient{
		endpoint:     cfg.Gemini.Endpoint,
		apiKey:       cfg.Gemini.APIKey,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		httpClient:   client,
	}
}

func (c *GeminiClient) Name() string { return "gemini" }

// Generate folds the system instruction into the single user part, since the
// endpoint has no separate system slot, and returns the first candidate.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", &AuthError{Provider: c.Name()}
	}

	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{
				{"text": c.systemPrompt + "\n\n" + prompt},
			}},
		},
		"generationConfig": map[string]any{
			"maxOutputTokens": c.maxTokens,
			"temperature":     c.temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal gemini payload: %w", err)
	}

	endpoint, err := c.keyedEndpoint()
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := send(c.httpClient, req, c.Name())
	if err != nil {
		return "", err
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &MalformedError{Provider: c.Name(), Detail: err.Error()}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", &MalformedError{Provider: c.Name(), Detail: "no candidate parts in response"}
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// keyedEndpoint appends the API key as the key query parameter.
func (c *GeminiClient) keyedEndpoint() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse gemini endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
