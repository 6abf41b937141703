package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/llm"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/observability"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/resilience"
)

const messageResponse = `{
	"id": "msg_01",
	"type": "message",
	"role": "assistant",
	"model": "claude-3-5-haiku-latest",
	"content": [{"type": "text", "text": "Your balance is "}, {"type": "text", "text": "Rs. 1500."}],
	"stop_reason": "end_turn",
	"stop_sequence": null,
	"usage": {"input_tokens": 42, "output_tokens": 7}
}`

func newAnthropic(t *testing.T, url string, metrics *observability.Metrics) *llm.AnthropicClient {
	t.Helper()
	opts := llm.AnthropicOptions{APIKey: "test-key", BaseURL: url + "/"}
	if metrics != nil {
		opts.Tokens = metrics
	}
	return llm.NewAnthropicClient(
		opts,
		resilience.NewCircuitBreaker("anthropic-test"),
		resilience.Config{MaxRetries: 0},
	)
}

func TestAnthropicChatComplete_Success(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("expected api key header, got %q", r.Header.Get("X-Api-Key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(messageResponse))
	}))
	defer srv.Close()

	metrics := observability.NewMetrics()
	client := newAnthropic(t, srv.URL, metrics)

	got, err := client.ChatComplete(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "be brief"},
		{Role: domain.RoleUser, Content: "what is my balance?"},
	}, "claude-3-5-haiku-latest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Your balance is Rs. 1500." {
		t.Errorf("unexpected text: %q", got)
	}

	if body["model"] != "claude-3-5-haiku-latest" {
		t.Errorf("unexpected model: %v", body["model"])
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 1 {
		t.Errorf("system message must not be sent as a turn, got %d messages", len(msgs))
	}
	if _, ok := body["system"]; !ok {
		t.Error("expected system prompt in request")
	}

	snap := metrics.Snapshot()
	if snap.PromptTokens != 42 || snap.CompletionTokens != 7 {
		t.Errorf("unexpected token usage: %+v", snap)
	}
}

func TestAnthropicChatComplete_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`))
	}))
	defer srv.Close()

	client := newAnthropic(t, srv.URL, nil)
	_, err := client.ChatComplete(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hi"},
	}, "claude-3-5-haiku-latest")

	var extErr *domain.ErrExternalService
	if !errors.As(err, &extErr) || extErr.Service != "anthropic" {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestAnthropicChatComplete_RequiresUserMessage(t *testing.T) {
	client := newAnthropic(t, "http://127.0.0.1:0", nil)

	_, err := client.ChatComplete(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "only a system prompt"},
	}, "claude-3-5-haiku-latest")

	var valErr *domain.ErrValidation
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
