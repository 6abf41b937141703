package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/memledger"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/observability"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/service"

	"go.uber.org/zap"
)

func newEngine(store *memledger.Store, llm *mockLLM) (*service.CommandEngine, *observability.Metrics) {
	metrics := observability.NewMetrics()
	return service.NewCommandEngine(store, llm, "test-model", metrics, zap.NewNop()), metrics
}

func TestProcessMessage_RulePath(t *testing.T) {
	store := memledger.NewSeeded()
	llm := &mockLLM{}
	engine, metrics := newEngine(store, llm)

	reply := engine.ProcessMessage(context.Background(), "spent 350 on momo")

	if !reply.Success || reply.Source != domain.SourceRule || reply.Intent != domain.IntentAddExpense {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.ID == "" || reply.Timestamp == "" {
		t.Error("reply must carry id and timestamp")
	}
	if reply.RichContent == nil {
		t.Error("expected rich content")
	}
	if llm.callCount() != 0 {
		t.Error("the rule path must not call the generative backend")
	}

	snap := metrics.Snapshot()
	if snap.TotalMessages != 1 || snap.RuleHitRate != 1 || snap.ActionSuccessRate != 1 {
		t.Errorf("unexpected metrics: %+v", snap)
	}
}

func TestProcessMessage_PartyDirections(t *testing.T) {
	store := memledger.NewSeeded()
	engine, _ := newEngine(store, &mockLLM{})

	engine.ProcessMessage(context.Background(), "lent 3000 to Ram")
	engine.ProcessMessage(context.Background(), "borrowed 500 from Sita")

	txs := store.Transactions()
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[0].Type != domain.TransactionDebit || txs[0].Amount != 3000 {
		t.Errorf("lend should be a 3000 debit, got %+v", txs[0])
	}
	if txs[1].Type != domain.TransactionCredit || txs[1].Amount != 500 {
		t.Errorf("borrow should be a 500 credit, got %+v", txs[1])
	}

	names := map[string]bool{}
	for _, p := range store.Parties() {
		names[p.Name] = true
	}
	if !names["Ram"] || !names["Sita"] {
		t.Errorf("expected parties Ram and Sita, got %+v", store.Parties())
	}
}

func TestProcessMessage_NoAmount(t *testing.T) {
	store := memledger.NewSeeded()
	engine, _ := newEngine(store, &mockLLM{})

	reply := engine.ProcessMessage(context.Background(), "spent some money on momo")
	if reply.Success || reply.Message != service.MsgNoAmount {
		t.Errorf("unexpected reply: %+v", reply)
	}
	if len(store.Expenses()) != 0 {
		t.Error("nothing may be written without an amount")
	}
}

func TestProcessMessage_Navigation(t *testing.T) {
	engine, _ := newEngine(memledger.NewSeeded(), &mockLLM{})

	reply := engine.ProcessMessage(context.Background(), "show my transactions")
	if !reply.Success || reply.Navigate != "navigate_transactions" || reply.Message != "navigate_transactions" {
		t.Errorf("unexpected reply: %+v", reply)
	}
}

func TestProcessMessage_StoryPath(t *testing.T) {
	store := memledger.NewSeeded()
	llm := &mockLLM{response: `[{"type":"expense","amount":150,"title":"Momo","category":"Food & Dining"},{"type":"income","amount":2000,"title":"Tuition","category":"Freelance"}] done`}
	engine, metrics := newEngine(store, llm)

	reply := engine.ProcessMessage(context.Background(), "today I had momo with friends and later got 2000 for tuition classes in the evening")

	if reply.Source != domain.SourceStory {
		t.Fatalf("expected story source, got %s", reply.Source)
	}
	if !reply.Success || len(reply.Transactions) != 2 {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if len(store.Expenses()) != 1 || len(store.Incomes()) != 1 {
		t.Error("expected one expense and one income")
	}

	snap := metrics.Snapshot()
	if snap.StoryItemsSucceeded != 2 || snap.StoryRate != 1 {
		t.Errorf("unexpected metrics: %+v", snap)
	}
}

func TestProcessMessage_AssistantFallback(t *testing.T) {
	store := memledger.NewSeeded()
	llm := &mockLLM{response: "  Keep it up!  "}
	engine, _ := newEngine(store, llm)

	reply := engine.ProcessMessage(context.Background(), "any tips for me?")

	if reply.Source != domain.SourceAssistant || !reply.Success {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.Message != "Keep it up!" {
		t.Errorf("expected trimmed answer, got %q", reply.Message)
	}
	if !strings.Contains(llm.lastSystemPrompt(), `"periodDays": 30`) {
		t.Error("system prompt must carry the financial context")
	}
}

func TestProcessMessage_AssistantFailure(t *testing.T) {
	engine, _ := newEngine(memledger.NewSeeded(), &mockLLM{err: errors.New("boom")})

	reply := engine.ProcessMessage(context.Background(), "hello")
	if reply.Success || reply.Message != service.MsgAssistantUnavailable {
		t.Errorf("unexpected reply: %+v", reply)
	}
}

func TestProcessMessage_Empty(t *testing.T) {
	engine, _ := newEngine(memledger.NewSeeded(), &mockLLM{})

	reply := engine.ProcessMessage(context.Background(), "   ")
	if reply.Success || reply.Message != service.MsgEmptyMessage {
		t.Errorf("unexpected reply: %+v", reply)
	}
}

func TestInterpret_DoesNotWrite(t *testing.T) {
	store := memledger.NewSeeded()
	engine, _ := newEngine(store, &mockLLM{})

	got := engine.Interpret("spent 350 on momo")
	if got.Type != domain.IntentAddExpense || got.Data == nil {
		t.Fatalf("unexpected interpretation: %+v", got)
	}
	if got.Data.Title != "Momo" || got.Data.Amount != 350 || got.Data.Category != service.CategoryFood {
		t.Errorf("unexpected data: %+v", got.Data)
	}
	if store.Calls("ListCategories") != 0 || len(store.Expenses()) != 0 {
		t.Error("Interpret must not touch the ledger")
	}
}
