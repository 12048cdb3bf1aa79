package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"articleforge/internal/config"
)

func providersConfig(endpoint string) config.ProvidersConfig {
	return config.ProvidersConfig{
		RequestTimeout: 10 * time.Second,
		SystemPrompt:   "あなたは占いサイトの専門ライターです。",
		MaxTokens:      4000,
		Temperature:    0.7,
		OpenAI: config.OpenAIConfig{
			Endpoint: endpoint,
			Model:    "gpt-4o",
			APIKey:   "test-openai-key",
		},
		Anthropic: config.AnthropicConfig{
			Endpoint: endpoint,
			Model:    "claude-3-5-sonnet-20241022",
			APIKey:   "test-anthropic-key",
			Version:  "2023-06-01",
		},
		Gemini: config.GeminiConfig{
			Endpoint: endpoint,
			APIKey:   "test-gemini-key",
		},
	}
}

func TestGatewayRejectsUnknownModelKey(t *testing.T) {
	t.Parallel()

	g := NewDefaultGateway(providersConfig("http://127.0.0.1:0"))
	_, err := g.GenerateText(context.Background(), "prompt", "gpt-99")
	if !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("err = %v, want ErrUnsupportedModel", err)
	}
}

func TestOpenAIGenerate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-openai-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"生成された本文"}}]}`)
	}))
	defer srv.Close()

	cfg := providersConfig(srv.URL)
	c := NewOpenAIClient(cfg, srv.Client())

	text, err := c.Generate(context.Background(), "プロンプト")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "生成された本文" {
		t.Errorf("text = %q", text)
	}
}

func TestOpenAIStatusErrorCarriesProviderMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limit reached"}}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient(providersConfig(srv.URL), srv.Client())
	_, err := c.Generate(context.Background(), "p")

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d", se.StatusCode)
	}
	if se.Message != "rate limit reached" {
		t.Errorf("Message = %q", se.Message)
	}
	if se.HTMLBody {
		t.Error("HTMLBody = true for a JSON body")
	}
}

func TestOpenAIFlagsHTMLErrorPages(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "<html><body><h1>502 Bad Gateway</h1></body></html>")
	}))
	defer srv.Close()

	c := NewOpenAIClient(providersConfig(srv.URL), srv.Client())
	_, err := c.Generate(context.Background(), "p")
	if !IsHTMLErrorPage(err) {
		t.Fatalf("IsHTMLErrorPage(%v) = false", err)
	}
}

func TestOpenAIAuthFailures(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var ae *AuthError

	cfg := providersConfig(srv.URL)
	c := NewOpenAIClient(cfg, srv.Client())
	if _, err := c.Generate(context.Background(), "p"); !errors.As(err, &ae) {
		t.Fatalf("rejected key: err = %v, want *AuthError", err)
	}

	cfg.OpenAI.APIKey = ""
	c = NewOpenAIClient(cfg, srv.Client())
	if _, err := c.Generate(context.Background(), "p"); !errors.As(err, &ae) {
		t.Fatalf("missing key: err = %v, want *AuthError", err)
	}
}

func TestOpenAIMalformedResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient(providersConfig(srv.URL), srv.Client())
	_, err := c.Generate(context.Background(), "p")

	var me *MalformedError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v, want *MalformedError", err)
	}
}

func TestAnthropicGenerate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-anthropic-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != "2023-06-01" {
			t.Errorf("anthropic-version = %q", got)
		}
		fmt.Fprint(w, `{"content":[{"type":"text","text":"鑑定結果"}]}`)
	}))
	defer srv.Close()

	c := NewAnthropicClient(providersConfig(srv.URL), srv.Client())
	text, err := c.Generate(context.Background(), "プロンプト")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "鑑定結果" {
		t.Errorf("text = %q", text)
	}
}

func TestGeminiGenerate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "test-gemini-key" {
			t.Errorf("key = %q", got)
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"運勢コラム"}]}}]}`)
	}))
	defer srv.Close()

	c := NewGeminiClient(providersConfig(srv.URL), srv.Client())
	text, err := c.Generate(context.Background(), "プロンプト")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "運勢コラム" {
		t.Errorf("text = %q", text)
	}
}

func TestGatewaySanitizesPromptBeforeDispatch(t *testing.T) {
	t.Parallel()

	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		gotBody = string(raw)
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer srv.Close()

	g := NewGateway()
	g.Register(ModelKeyOpenAI, NewOpenAIClient(providersConfig(srv.URL), srv.Client()))

	if _, err := g.GenerateText(context.Background(), "before\x07after", ModelKeyOpenAI); err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if strings.Contains(gotBody, "\\u0007") {
		t.Errorf("control character survived sanitization: %s", gotBody)
	}
	if !strings.Contains(gotBody, "beforeafter") {
		t.Errorf("sanitized prompt missing from body: %s", gotBody)
	}
}
