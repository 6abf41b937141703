package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/port"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

var _ port.ChatCompleter = (*AnthropicClient)(nil)

// AnthropicClient completes chats with the Anthropic Messages API.
type AnthropicClient struct {
	client    anthropic.Client
	maxTokens int64
	cb        *gobreaker.CircuitBreaker
	cfg       resilience.Config
	tokens    TokenRecorder
}

// AnthropicOptions configures NewAnthropicClient.
type AnthropicOptions struct {
	APIKey     string
	BaseURL    string // empty uses the SDK default
	HTTPClient *http.Client
	MaxTokens  int64
	Tokens     TokenRecorder
}

// NewAnthropicClient creates the Anthropic adapter. SDK-level retries are
// disabled; retries come from the resilience policy.
func NewAnthropicClient(opts AnthropicOptions, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *AnthropicClient {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	var tokens TokenRecorder = nopRecorder{}
	if opts.Tokens != nil {
		tokens = opts.Tokens
	}

	return &AnthropicClient{
		client:    anthropic.NewClient(reqOpts...),
		maxTokens: maxTokens,
		cb:        cb,
		cfg:       cfg,
		tokens:    tokens,
	}
}

// ChatComplete sends the conversation and returns the concatenated text blocks.
func (c *AnthropicClient) ChatComplete(ctx context.Context, messages []domain.ChatMessage, model string) (string, error) {
	ctx, span := tracer.Start(ctx, "AnthropicClient.ChatComplete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", model),
		attribute.Int("llm.messages", len(messages)),
	)

	system, convo := splitSystem(messages)
	if len(convo) == 0 {
		return "", &domain.ErrValidation{Field: "messages", Message: "at least one user message is required"}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: c.maxTokens,
		Messages:  make([]anthropic.MessageParam, 0, len(convo)),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	for _, m := range convo {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == domain.RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}

	msg, err := resilience.Call(ctx, c.cb, c.cfg, true, func() (*anthropic.Message, error) {
		return c.client.Messages.New(ctx, params)
	})
	if err != nil {
		span.RecordError(err)
		return "", &domain.ErrExternalService{Service: "anthropic", Err: err}
	}

	c.tokens.RecordTokens(msg.Usage.InputTokens, msg.Usage.OutputTokens)

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", &domain.ErrExternalService{Service: "anthropic", Err: errors.New("response contained no text")}
	}
	return sb.String(), nil
}
