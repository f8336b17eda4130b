package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"

	"visaHedgeBot/internal/advisor"
)

func TestGenerateWithoutKey(t *testing.T) {
	_, err := NewClient("", "").Generate(context.Background(), "sys", "hi")
	if !errors.Is(err, advisor.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestGenerateSendsSystemAndUser(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Risk Multiplier: 1.1"}}]}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", "gpt-4o-mini", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	out, err := c.Generate(context.Background(), "be brief", "plan please")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Risk Multiplier: 1.1" {
		t.Errorf("expected content, got %q", out)
	}
	if got.Model != "gpt-4o-mini" || len(got.Messages) != 2 {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != "be brief" {
		t.Errorf("expected system message first, got %+v", got.Messages[0])
	}
	if got.Messages[1].Role != "user" || got.Messages[1].Content != "plan please" {
		t.Errorf("expected user message second, got %+v", got.Messages[1])
	}
}
