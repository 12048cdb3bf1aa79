// Package llm routes text-generation requests to AI providers by model key.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"articleforge/internal/config"
	"articleforge/internal/ports"
	"articleforge/internal/textutil"
)

// Model keys accepted by the gateway. Wire-level model names come from
// configuration and may trail these.
const (
	ModelKeyOpenAI    = "gpt-4o"
	ModelKeyAnthropic = "claude-4-sonnet"
	ModelKeyGemini    = "gemini-2.0-flash"
)

// Provider captures a single backend implementation.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gateway keeps a mapping from model keys to provider implementations.
type Gateway struct {
	providers map[string]Provider
}

var _ ports.TextGenerator = (*Gateway)(nil)

// NewGateway builds an empty gateway.
func NewGateway() *Gateway {
	return &Gateway{providers: map[string]Provider{}}
}

// Register binds a model key to a provider, replacing any previous binding.
func (g *Gateway) Register(modelKey string, provider Provider) {
	if g.providers == nil {
		g.providers = map[string]Provider{}
	}
	g.providers[modelKey] = provider
}

// NewDefaultGateway wires the three stock providers against one shared HTTP
// client so they all observe the same request timeout.
func NewDefaultGateway(cfg config.ProvidersConfig) *Gateway {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	client := &http.Client{Timeout: timeout}

	g := NewGateway()
	g.Register(ModelKeyOpenAI, NewOpenAIClient(cfg, client))
	g.Register(ModelKeyAnthropic, NewAnthropicClient(cfg, client))
	g.Register(ModelKeyGemini, NewGeminiClient(cfg, client))
	return g
}

// GenerateText sanitizes the prompt and dispatches it to the provider bound
// to modelKey.
func (g *Gateway) GenerateText(ctx context.Context, prompt, modelKey string) (string, error) {
	provider, ok := g.providers[modelKey]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedModel, modelKey)
	}

	return provider.Generate(ctx, textutil.CleanPromptText(prompt))
}

// send executes req and returns the body of a 2xx response, mapping the
// failure modes onto the package error types.
func send(client *http.Client, req *http.Request, provider string) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Provider: provider, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{Provider: provider}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw, resp.Status),
			HTMLBody:   looksLikeHTML(string(raw)),
		}
	}

	return raw, nil
}

// errorMessage extracts the provider's own message from an error body when
// the body is the usual {"error": {"message": ...}} envelope.
func errorMessage(raw []byte, fallback string) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return fallback
}
