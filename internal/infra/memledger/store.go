// Package memledger is an in-process implementation of port.LedgerBackend.
// It backs LEDGER_BACKEND=memory for local runs and serves as the ledger
// double in engine tests. Data lives only as long as the Store.
package memledger

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/port"

	"github.com/google/uuid"
)

var _ port.LedgerBackend = (*Store)(nil)

// Store is a thread-safe in-memory ledger.
type Store struct {
	mu           sync.Mutex
	categories   []domain.Category
	accounts     []domain.Account
	incomes      []domain.IncomeRecord
	expenses     []domain.ExpenseRecord
	parties      []domain.Party
	transactions []domain.Transaction
	budgets      []domain.Budget

	calls    map[string]int
	rejected map[string]string
	failures map[string]error
}

// New creates an empty store.
func New() *Store {
	return &Store{
		calls:    make(map[string]int),
		rejected: make(map[string]string),
		failures: make(map[string]error),
	}
}

// NewSeeded creates a store holding one empty cash account, the minimum
// the engine needs to record anything.
func NewSeeded() *Store {
	s := New()
	s.AddAccount(domain.Account{Name: "Cash", Type: "cash", Icon: "wallet", Color: "#4CAF50"})
	return s
}

// ============================================================
// Seeding and inspection
// ============================================================

// AddAccount appends an account and returns it with its id.
func (s *Store) AddAccount(a domain.Account) domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.accounts = append(s.accounts, a)
	return a
}

// AddCategory appends a category and returns it with its id.
func (s *Store) AddCategory(c domain.Category) domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.categories = append(s.categories, c)
	return c
}

// AddParty appends a party and returns it with its id.
func (s *Store) AddParty(p domain.Party) domain.Party {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.parties = append(s.parties, p)
	return p
}

// AddBudget appends a budget.
func (s *Store) AddBudget(b domain.Budget) domain.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	s.budgets = append(s.budgets, b)
	return b
}

// AddExpense appends an expense record without touching balances.
func (s *Store) AddExpense(e domain.ExpenseRecord) domain.ExpenseRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.expenses = append(s.expenses, e)
	return e
}

// AddIncome appends an income record without touching balances.
func (s *Store) AddIncome(i domain.IncomeRecord) domain.IncomeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	s.incomes = append(s.incomes, i)
	return i
}

// Reject makes every later call of op return Success=false with message
// as the envelope error, until cleared with Reject(op, "").
func (s *Store) Reject(op, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if message == "" {
		delete(s.rejected, op)
		return
	}
	s.rejected[op] = message
}

// Fail makes every later call of op return err (a transport failure),
// until cleared with Fail(op, nil).
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Calls returns how many times op was invoked.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Categories returns a copy of the stored categories.
func (s *Store) Categories() []domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Category(nil), s.categories...)
}

// Parties returns a copy of the stored parties.
func (s *Store) Parties() []domain.Party {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Party(nil), s.parties...)
}

// Expenses returns a copy of the stored expense records.
func (s *Store) Expenses() []domain.ExpenseRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ExpenseRecord(nil), s.expenses...)
}

// Incomes returns a copy of the stored income records.
func (s *Store) Incomes() []domain.IncomeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.IncomeRecord(nil), s.incomes...)
}

// Transactions returns a copy of the posted transactions.
func (s *Store) Transactions() []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Transaction(nil), s.transactions...)
}

// begin records a call and reports an injected failure or rejection.
// Callers hold s.mu.
func (s *Store) begin(op string) (rejection string, err error) {
	s.calls[op]++
	if err := s.failures[op]; err != nil {
		return "", err
	}
	return s.rejected[op], nil
}

func reject[T any](message string) *domain.Envelope[T] {
	return &domain.Envelope[T]{Success: false, Message: "Request failed", Error: message}
}

func ok[T any](message string, data T) *domain.Envelope[T] {
	return &domain.Envelope[T]{Success: true, Message: message, Data: data}
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func (s *Store) accountIndex(id string) int {
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) partyIndex(id string) int {
	for i := range s.parties {
		if s.parties[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) categoryIndex(id string) int {
	for i := range s.categories {
		if s.categories[i].ID == id {
			return i
		}
	}
	return -1
}

func blank(v string) bool {
	return strings.TrimSpace(v) == ""
}

// ctxErr mirrors a real client: a cancelled context fails the call.
func ctxErr(ctx context.Context) error {
	return ctx.Err()
}
