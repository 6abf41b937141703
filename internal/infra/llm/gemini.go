package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/port"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

var _ port.ChatCompleter = (*GeminiClient)(nil)

// GeminiClient completes chats with the Gemini API.
type GeminiClient struct {
	client    *genai.Client
	maxTokens int32
	cb        *gobreaker.CircuitBreaker
	cfg       resilience.Config
	tokens    TokenRecorder
}

// GeminiOptions configures NewGeminiClient.
type GeminiOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	MaxTokens  int64
	Tokens     TokenRecorder
}

// NewGeminiClient creates the Gemini adapter.
func NewGeminiClient(ctx context.Context, opts GeminiOptions, cb *gobreaker.CircuitBreaker, cfg resilience.Config) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      opts.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	var tokens TokenRecorder = nopRecorder{}
	if opts.Tokens != nil {
		tokens = opts.Tokens
	}

	return &GeminiClient{
		client:    client,
		maxTokens: int32(maxTokens),
		cb:        cb,
		cfg:       cfg,
		tokens:    tokens,
	}, nil
}

// ChatComplete sends the conversation and returns the response text.
func (c *GeminiClient) ChatComplete(ctx context.Context, messages []domain.ChatMessage, model string) (string, error) {
	ctx, span := tracer.Start(ctx, "GeminiClient.ChatComplete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", model),
		attribute.Int("llm.messages", len(messages)),
	)

	system, convo := splitSystem(messages)
	if len(convo) == 0 {
		return "", &domain.ErrValidation{Field: "messages", Message: "at least one user message is required"}
	}

	contents := make([]*genai.Content, 0, len(convo))
	for _, m := range convo {
		role := "user"
		if m.Role == domain.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	genCfg := &genai.GenerateContentConfig{MaxOutputTokens: c.maxTokens}
	if system != "" {
		genCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	resp, err := resilience.Call(ctx, c.cb, c.cfg, true, func() (*genai.GenerateContentResponse, error) {
		return c.client.Models.GenerateContent(ctx, model, contents, genCfg)
	})
	if err != nil {
		span.RecordError(err)
		return "", &domain.ErrExternalService{Service: "gemini", Err: err}
	}

	if u := resp.UsageMetadata; u != nil {
		c.tokens.RecordTokens(int64(u.PromptTokenCount), int64(u.CandidatesTokenCount))
	}

	text := resp.Text()
	if text == "" {
		return "", &domain.ErrExternalService{Service: "gemini", Err: errors.New("empty response from model")}
	}
	return text, nil
}
