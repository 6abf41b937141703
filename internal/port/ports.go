// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the command
// engine from the concrete ledger API and generative-language clients.
package port

import (
	"context"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"
)

// LedgerBackend is the persistence/query boundary of the engine.
//
// Every method returns the backend envelope. A non-nil error means the
// call never produced an envelope (network failure, open circuit,
// undecodable body); a rejected call comes back as Success=false.
type LedgerBackend interface {
	// Categories
	ListCategories(ctx context.Context, categoryType domain.CategoryType) (*domain.ListCategoriesResult, error)
	CreateCategory(ctx context.Context, req *domain.CreateCategoryRequest) (*domain.CreateCategoryResult, error)

	// Accounts
	ListAccounts(ctx context.Context) (*domain.ListAccountsResult, error)

	// Income / expense records
	CreateExpense(ctx context.Context, req *domain.CreateEntryRequest) (*domain.CreateExpenseResult, error)
	CreateIncome(ctx context.Context, req *domain.CreateEntryRequest) (*domain.CreateIncomeResult, error)
	ListExpenses(ctx context.Context) (*domain.ListExpensesResult, error)
	ListIncomes(ctx context.Context) (*domain.ListIncomesResult, error)

	// Parties
	ListParties(ctx context.Context) (*domain.ListPartiesResult, error)
	GetParty(ctx context.Context, id string) (*domain.GetPartyResult, error)
	CreateParty(ctx context.Context, req *domain.CreatePartyRequest) (*domain.CreatePartyResult, error)

	// Transactions
	CreateTransaction(ctx context.Context, req *domain.CreateTransactionRequest) (*domain.CreateTransactionResult, error)

	// Budgets
	ListBudgets(ctx context.Context) (*domain.ListBudgetsResult, error)
}

// ChatCompleter is the generative-language boundary: one chat-completion
// call returning the assistant's text.
type ChatCompleter interface {
	ChatComplete(ctx context.Context, messages []domain.ChatMessage, model string) (string, error)
}
