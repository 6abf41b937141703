package domain

// RawFinancialData is the set of already-fetched lists the context
// builder aggregates. Any list whose fetch failed is empty, never nil-panicking.
type RawFinancialData struct {
	Incomes    []IncomeRecord
	Expenses   []ExpenseRecord
	Budgets    []Budget
	Categories []Category
	Accounts   []Account
	Parties    []Party
}

// FinancialContext is the aggregated snapshot used for balance, budget
// and spending answers and as grounding for the generative fallback.
// It is rebuilt on every request and never cached.
type FinancialContext struct {
	PeriodDays         int              `json:"periodDays"`
	GeneratedAt        string           `json:"generatedAt"`
	TotalIncome        float64          `json:"totalIncome"`
	TotalExpenses      float64          `json:"totalExpenses"`
	NetSavings         float64          `json:"netSavings"`
	TotalBalance       float64          `json:"totalBalance"`
	Accounts           []AccountSummary `json:"accounts"`
	CategoryBreakdown  []CategorySpend  `json:"categoryBreakdown"`
	Budgets            []BudgetStatus   `json:"budgets"`
	RecentTransactions []RecentEntry    `json:"recentTransactions"`
	TotalReceivable    float64          `json:"totalReceivable"`
	TotalPayable       float64          `json:"totalPayable"`
	PartyCount         int              `json:"partyCount"`
}

// AccountSummary is one account line of the context.
type AccountSummary struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Balance float64 `json:"balance"`
}

// CategorySpend is one row of the per-category spend breakdown.
// Percentage is relative to total category spend in the window.
type CategorySpend struct {
	CategoryID string  `json:"categoryId"`
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// BudgetStatus is a budget with its derived spend over the context window.
type BudgetStatus struct {
	CategoryID string  `json:"categoryId"`
	Name       string  `json:"name"`
	Spent      float64 `json:"spent"`
	Limit      float64 `json:"limit"`
	Percentage float64 `json:"percentage"`
}

// RecentEntry is a compact line for the most recent incomes/expenses.
type RecentEntry struct {
	Kind     string  `json:"kind"` // income, expense
	Title    string  `json:"title"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category,omitempty"`
	Date     string  `json:"date"`
}
