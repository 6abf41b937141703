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

const storyText = "this morning I had momo for breakfast and then I took a taxi to the office"

func newStory(store *memledger.Store, llm *mockLLM) *service.StoryExtractor {
	return service.NewStoryExtractor(llm, "test-model", newExecutor(store), observability.NewMetrics(), zap.NewNop())
}

func TestParseStory_TrailingProse(t *testing.T) {
	store := memledger.NewSeeded()
	llm := &mockLLM{response: `Sure! Here are the transactions:
[{"type":"expense","amount":150,"title":"Momo","category":"Food & Dining"},
 {"type":"expense","amount":300,"title":"Taxi","category":"Transportation"}]
Let me know if you need anything else [really].`}

	res := newStory(store, llm).ParseStory(context.Background(), storyText)

	if !res.Success {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if len(res.Transactions) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(res.Transactions))
	}
	if n := len(store.Expenses()); n != 2 {
		t.Errorf("expected 2 expenses executed, got %d", n)
	}
	if !strings.HasPrefix(res.Message, "Processed 2 transactions: 2 succeeded, 0 failed") {
		t.Errorf("unexpected summary: %q", res.Message)
	}
	if strings.Count(res.Message, "✅") != 2 {
		t.Errorf("expected two success markers: %q", res.Message)
	}
}

func TestParseStory_PartialFailureContinues(t *testing.T) {
	store := memledger.NewSeeded()
	store.Reject("CreateIncome", "income rejected")
	llm := &mockLLM{response: `[
		{"type":"income","amount":5000,"title":"Salary","category":"Salary"},
		{"type":"party","amount":1000,"title":"Loan","partyName":"Ram","partyType":"give"},
		{"type":"gift","amount":10,"title":"Mystery"}
	]`}

	res := newStory(store, llm).ParseStory(context.Background(), storyText)

	if len(res.Transactions) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(res.Transactions))
	}
	if res.Transactions[0].Success || res.Transactions[0].Message != "income rejected" {
		t.Errorf("unexpected first outcome: %+v", res.Transactions[0])
	}
	if !res.Transactions[1].Success {
		t.Errorf("party item should succeed: %+v", res.Transactions[1])
	}
	if res.Transactions[2].Success {
		t.Error("unknown type should fail")
	}
	if !res.Success {
		t.Error("a batch with any success is a success")
	}
	if !strings.Contains(res.Message, "1 succeeded, 2 failed") {
		t.Errorf("unexpected summary: %q", res.Message)
	}
	if txs := store.Transactions(); len(txs) != 1 || txs[0].Type != domain.TransactionDebit {
		t.Errorf("expected one debit for the party item, got %+v", txs)
	}
}

func TestParseStory_MalformedArray(t *testing.T) {
	store := memledger.NewSeeded()
	llm := &mockLLM{response: `[{"type":"expense","amount":150,]`}

	res := newStory(store, llm).ParseStory(context.Background(), storyText)

	if res.Success || res.Message != service.MsgStoryUnparseable {
		t.Errorf("expected hard failure, got %+v", res)
	}
	if len(store.Expenses()) != 0 {
		t.Error("nothing may be executed from a malformed response")
	}
}

func TestParseStory_NoArray(t *testing.T) {
	llm := &mockLLM{response: "I could not find anything."}

	res := newStory(memledger.NewSeeded(), llm).ParseStory(context.Background(), storyText)
	if res.Success || res.Message != service.MsgStoryUnparseable {
		t.Errorf("expected hard failure, got %+v", res)
	}
}

func TestParseStory_LLMError(t *testing.T) {
	llm := &mockLLM{err: errors.New("rate limited")}
	metrics := observability.NewMetrics()
	story := service.NewStoryExtractor(llm, "test-model", newExecutor(memledger.NewSeeded()), metrics, zap.NewNop())

	res := story.ParseStory(context.Background(), storyText)
	if res.Success || res.Message != service.MsgStoryUnavailable {
		t.Errorf("unexpected result: %+v", res)
	}
	if n := metrics.ExternalErrorCount("llm"); n != 1 {
		t.Errorf("expected 1 llm error counted, got %d", n)
	}
}

func TestParseStory_EmptyArray(t *testing.T) {
	llm := &mockLLM{response: "[]"}

	res := newStory(memledger.NewSeeded(), llm).ParseStory(context.Background(), storyText)
	if res.Success || res.Message != service.MsgStoryEmpty {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`[1,2]`, `[1,2]`, true},
		{`prefix [[1],[2]] suffix [3]`, `[[1],[2]]`, true},
		{`x ["a]b", "c"] y`, `["a]b", "c"]`, true},
		{`["esc\"]"]`, `["esc\"]"]`, true},
		{`no array here`, ``, false},
		{`[unclosed`, ``, false},
	}

	for _, tt := range tests {
		got, ok := service.ExtractJSONArray(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ExtractJSONArray(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsStory(t *testing.T) {
	none := domain.Classification{Type: domain.IntentNone}

	if service.IsStory("one two three four five six seven eight nine ten", none) {
		t.Error("exactly 10 words is not a story")
	}
	if !service.IsStory("one two three four five six seven eight nine ten eleven", none) {
		t.Error("11 words should be a story")
	}
	matched := domain.Classification{Type: domain.IntentAddExpense, Confidence: 0.9}
	if service.IsStory(storyText, matched) {
		t.Error("a classified message is never a story")
	}
}
