package domain

// Envelope is the uniform response of every ledger API call.
// Success must be checked explicitly: a non-2xx HTTP status arrives here
// as Success=false with Message/Error populated, never as a Go error.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Failure returns the most specific text the backend gave for a failed
// call, preferring Error over Message.
func (e *Envelope[T]) Failure() string {
	if e.Error != "" {
		return e.Error
	}
	if e.Message != "" {
		return e.Message
	}
	return "request failed"
}

// Result types for each ledger operation the engine uses.
type (
	ListCategoriesResult    = Envelope[[]Category]
	CreateCategoryResult    = Envelope[*Category]
	ListAccountsResult      = Envelope[[]Account]
	CreateExpenseResult     = Envelope[*ExpenseRecord]
	CreateIncomeResult      = Envelope[*IncomeRecord]
	ListExpensesResult      = Envelope[[]ExpenseRecord]
	ListIncomesResult       = Envelope[[]IncomeRecord]
	ListPartiesResult       = Envelope[[]Party]
	GetPartyResult          = Envelope[*Party]
	CreatePartyResult       = Envelope[*Party]
	CreateTransactionResult = Envelope[*Transaction]
	ListBudgetsResult       = Envelope[[]Budget]
)
