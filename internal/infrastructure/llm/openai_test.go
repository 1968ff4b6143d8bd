package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"NewsBalancer/internal/config"
	"NewsBalancer/internal/ports"
)

func TestOpenAIGenerate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		var body struct {
			Model       string              `json:"model"`
			MaxTokens   int                 `json:"max_tokens"`
			Temperature float64             `json:"temperature"`
			Messages    []map[string]string `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Model != "gpt-4o-mini" || body.MaxTokens != 1500 || body.Temperature != 0.3 {
			t.Errorf("unexpected body %+v", body)
		}
		if len(body.Messages) != 1 || body.Messages[0]["role"] != "user" {
			t.Errorf("unexpected messages %+v", body.Messages)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  findings  "}}]}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient(config.GenerationConfig{Endpoint: server.URL, Model: "gpt-4o-mini", APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}

	text, err := client.Generate(context.Background(), ports.GenerationRequest{Prompt: "research", MaxTokens: 1500, Temperature: 0.3})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "findings" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestOpenAIGenerateNoChoices(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient(config.GenerationConfig{Endpoint: server.URL, Model: "m", APIKey: "k"})
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}
	if _, err := client.Generate(context.Background(), ports.GenerationRequest{Prompt: "x", MaxTokens: 1}); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	gen, err := NewFromConfig(config.GenerationConfig{Provider: config.ProviderOpenAI, APIKey: "k", Model: "gpt"}, nil)
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if _, ok := gen.(*OpenAIClient); !ok {
		t.Fatalf("expected *OpenAIClient, got %T", gen)
	}

	gen, err = NewFromConfig(config.GenerationConfig{Provider: config.ProviderAnthropic, APIKey: "k", Model: "claude"}, nil)
	if err != nil {
		t.Fatalf("anthropic: %v", err)
	}
	if _, ok := gen.(*AnthropicClient); !ok {
		t.Fatalf("expected *AnthropicClient, got %T", gen)
	}

	if _, err := NewFromConfig(config.GenerationConfig{Provider: config.ProviderAnthropic}, nil); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if _, err := NewFromConfig(config.GenerationConfig{Provider: "cohere", APIKey: "k"}, nil); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
