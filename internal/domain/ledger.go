// Package domain defines the entities the command engine reads from and
// writes to the ledger API, plus the engine's own ephemeral types.
// The ledger service owns every persisted entity; the engine only holds
// transient in-memory views of them.
package domain

// ============================================================
// Categories
// ============================================================

// CategoryType separates income categories from expense categories.
type CategoryType string

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
)

// Category is a user-defined income or expense bucket.
type Category struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Icon string       `json:"icon"`
	Type CategoryType `json:"type"`
}

// CreateCategoryRequest is the body of createCategory.
type CreateCategoryRequest struct {
	Name string       `json:"name"`
	Icon string       `json:"icon"`
	Type CategoryType `json:"type"`
}

// ============================================================
// Accounts
// ============================================================

// Account is a cash box, bank account or wallet holding a balance.
type Account struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Type    string  `json:"type"` // cash, bank, wallet
	Balance float64 `json:"balance"`
	Icon    string  `json:"icon,omitempty"`
	Color   string  `json:"color,omitempty"`
}

// ============================================================
// Parties (people the user lends to / borrows from)
// ============================================================

// PartyType says which way money flows between the user and a party.
// For a stored party it is the running classification; for a single
// event it is the direction of that event.
type PartyType string

const (
	// PartyReceive: money is owed to the user.
	PartyReceive PartyType = "receive"
	// PartyGive: the user owes the party.
	PartyGive PartyType = "give"
)

// Party is an external person or business with a running balance.
type Party struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Type           PartyType `json:"type"`
	Balance        float64   `json:"balance"`
	OpeningBalance float64   `json:"openingBalance"`
}

// CreatePartyRequest is the body of createParty.
type CreatePartyRequest struct {
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Type           PartyType `json:"type"`
	Balance        float64   `json:"balance"`
	OpeningBalance float64   `json:"openingBalance"`
	AsOfDate       string    `json:"asOfDate"`
}

// ============================================================
// Generic ledger transactions
// ============================================================

// TransactionType is the wire-level direction of a ledger movement.
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// Transaction is a generic ledger movement, optionally against a party.
type Transaction struct {
	ID          string          `json:"id"`
	PartyID     string          `json:"partyId,omitempty"`
	AccountID   string          `json:"accountId"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Notes       string          `json:"notes,omitempty"`
}

// CreateTransactionRequest is the body of createTransaction.
type CreateTransactionRequest struct {
	PartyID     string          `json:"partyId,omitempty"`
	AccountID   string          `json:"accountId"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Notes       string          `json:"notes,omitempty"`
}

// ============================================================
// Income / Expense records
// ============================================================

// EntryRecord is the shape shared by income and expense records.
type EntryRecord struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Amount      float64 `json:"amount"`
	CategoryID  string  `json:"categoryId"`
	AccountID   string  `json:"accountId"`
	Date        string  `json:"date"`
	Description string  `json:"description,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

// ExpenseRecord is money that left one of the user's accounts.
type ExpenseRecord = EntryRecord

// IncomeRecord is money that arrived in one of the user's accounts.
type IncomeRecord = EntryRecord

// CreateEntryRequest is the body of createExpense and createIncome.
type CreateEntryRequest struct {
	Title       string  `json:"title"`
	Amount      float64 `json:"amount"`
	CategoryID  string  `json:"categoryId"`
	AccountID   string  `json:"accountId"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
}

// ============================================================
// Budgets
// ============================================================

// Budget caps spending for one category over a period. Spent and
// percentage are derived, never stored.
type Budget struct {
	ID         string  `json:"id,omitempty"`
	CategoryID string  `json:"categoryId"`
	Amount     float64 `json:"amount"`
	Period     string  `json:"period"`
	StartDate  string  `json:"startDate"`
	EndDate    string  `json:"endDate"`
}
