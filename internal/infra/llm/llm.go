// Package llm holds the generative-language adapters. Each one implements
// port.ChatCompleter over a vendor SDK, wrapped in the shared circuit
// breaker and retry policy.
package llm

import (
	"strings"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("llm")

// TokenRecorder receives token usage after each completion.
type TokenRecorder interface {
	RecordTokens(prompt, completion int64)
}

type nopRecorder struct{}

func (nopRecorder) RecordTokens(int64, int64) {}

// splitSystem pulls system messages out of the conversation; both vendors
// take the system prompt as a separate parameter.
func splitSystem(messages []domain.ChatMessage) (string, []domain.ChatMessage) {
	var system []string
	rest := make([]domain.ChatMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}
