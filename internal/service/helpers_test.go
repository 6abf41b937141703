package service_test

import (
	"context"
	"sync"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"
)

// --- Mocks ---

type mockLLM struct {
	mu       sync.Mutex
	response string
	err      error
	calls    [][]domain.ChatMessage
}

func (m *mockLLM) ChatComplete(_ context.Context, messages []domain.ChatMessage, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, messages)
	return m.response, m.err
}

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockLLM) lastSystemPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	for _, msg := range m.calls[len(m.calls)-1] {
		if msg.Role == domain.RoleSystem {
			return msg.Content
		}
	}
	return ""
}
