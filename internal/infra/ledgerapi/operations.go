package ledgerapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/port"
)

var _ port.LedgerBackend = (*Client)(nil)

// ============================================================
// Categories
// ============================================================

// ListCategories lists categories of one type, or all when categoryType is empty.
func (c *Client) ListCategories(ctx context.Context, categoryType domain.CategoryType) (*domain.ListCategoriesResult, error) {
	path := "categories"
	if categoryType != "" {
		path += "?type=" + url.QueryEscape(string(categoryType))
	}
	return call[[]domain.Category](ctx, c, "ListCategories", http.MethodGet, path, nil)
}

// CreateCategory creates a category.
func (c *Client) CreateCategory(ctx context.Context, req *domain.CreateCategoryRequest) (*domain.CreateCategoryResult, error) {
	return call[*domain.Category](ctx, c, "CreateCategory", http.MethodPost, "categories", req)
}

// ============================================================
// Accounts
// ============================================================

// ListAccounts lists the user's accounts in backend order.
func (c *Client) ListAccounts(ctx context.Context) (*domain.ListAccountsResult, error) {
	return call[[]domain.Account](ctx, c, "ListAccounts", http.MethodGet, "accounts", nil)
}

// ============================================================
// Incomes / Expenses
// ============================================================

// CreateExpense records an expense.
func (c *Client) CreateExpense(ctx context.Context, req *domain.CreateEntryRequest) (*domain.CreateExpenseResult, error) {
	return call[*domain.ExpenseRecord](ctx, c, "CreateExpense", http.MethodPost, "expenses", req)
}

// CreateIncome records an income.
func (c *Client) CreateIncome(ctx context.Context, req *domain.CreateEntryRequest) (*domain.CreateIncomeResult, error) {
	return call[*domain.IncomeRecord](ctx, c, "CreateIncome", http.MethodPost, "incomes", req)
}

// ListExpenses lists expense records.
func (c *Client) ListExpenses(ctx context.Context) (*domain.ListExpensesResult, error) {
	return call[[]domain.ExpenseRecord](ctx, c, "ListExpenses", http.MethodGet, "expenses", nil)
}

// ListIncomes lists income records.
func (c *Client) ListIncomes(ctx context.Context) (*domain.ListIncomesResult, error) {
	return call[[]domain.IncomeRecord](ctx, c, "ListIncomes", http.MethodGet, "incomes", nil)
}

// ============================================================
// Parties
// ============================================================

// ListParties lists all parties.
func (c *Client) ListParties(ctx context.Context) (*domain.ListPartiesResult, error) {
	return call[[]domain.Party](ctx, c, "ListParties", http.MethodGet, "parties", nil)
}

// GetParty fetches one party with its current balance.
func (c *Client) GetParty(ctx context.Context, id string) (*domain.GetPartyResult, error) {
	return call[*domain.Party](ctx, c, "GetParty", http.MethodGet, "parties/"+url.PathEscape(id), nil)
}

// CreateParty creates a party.
func (c *Client) CreateParty(ctx context.Context, req *domain.CreatePartyRequest) (*domain.CreatePartyResult, error) {
	return call[*domain.Party](ctx, c, "CreateParty", http.MethodPost, "parties", req)
}

// ============================================================
// Transactions / Budgets
// ============================================================

// CreateTransaction posts a ledger movement.
func (c *Client) CreateTransaction(ctx context.Context, req *domain.CreateTransactionRequest) (*domain.CreateTransactionResult, error) {
	return call[*domain.Transaction](ctx, c, "CreateTransaction", http.MethodPost, "transactions", req)
}

// ListBudgets lists budgets.
func (c *Client) ListBudgets(ctx context.Context) (*domain.ListBudgetsResult, error) {
	return call[[]domain.Budget](ctx, c, "ListBudgets", http.MethodGet, "budgets", nil)
}
