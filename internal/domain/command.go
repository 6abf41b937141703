package domain

// ============================================================
// Intents
// ============================================================

// Intent is the classified action type of a user message.
type Intent string

const (
	IntentShowBalance         Intent = "show_balance"
	IntentShowBudgetStatus    Intent = "show_budget_status"
	IntentAddPartyTransaction Intent = "add_party_transaction"
	IntentAddExpense          Intent = "add_expense"
	IntentAddIncome           Intent = "add_income"
	IntentViewTransactions    Intent = "view_transactions"
	IntentViewBudget          Intent = "view_budget"
	IntentViewStatistics      Intent = "view_statistics"
	IntentViewAccounts        Intent = "view_accounts"
	IntentViewParties         Intent = "view_parties"
	IntentSetBudget           Intent = "set_budget"
	IntentAnalyzeSpending     Intent = "analyze_spending"
	IntentNone                Intent = "none"
)

// IsWrite reports whether executing the intent creates ledger records.
func (i Intent) IsWrite() bool {
	switch i {
	case IntentAddExpense, IntentAddIncome, IntentAddPartyTransaction:
		return true
	}
	return false
}

// Classification is the classifier output before extraction.
type Classification struct {
	Type       Intent  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// ActionData holds the fields extracted from a message. Which fields are
// set depends on the intent: Title/Category for expense and income,
// PartyName/Phone/Direction for party transactions.
type ActionData struct {
	Title       string    `json:"title,omitempty"`
	Amount      float64   `json:"amount,omitempty"`
	Category    string    `json:"category,omitempty"`
	PartyName   string    `json:"partyName,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Direction   PartyType `json:"type,omitempty"`
	Description string    `json:"description,omitempty"`
}

// ParsedAction is the classified and extracted form of a message.
// It is never persisted.
type ParsedAction struct {
	Type       Intent      `json:"type"`
	Data       *ActionData `json:"data,omitempty"`
	Confidence float64     `json:"confidence"`
}

// ============================================================
// Execution results
// ============================================================

// RichContentType names the card a UI should render for a result.
type RichContentType string

const (
	RichTransaction RichContentType = "transaction"
	RichBalance     RichContentType = "balance"
	RichBudget      RichContentType = "budget"
	RichSpending    RichContentType = "spending"
)

// RichContent is a structured payload rendered as a card instead of text.
type RichContent struct {
	Type RichContentType `json:"type"`
	Data any             `json:"data"`
}

// ActionResult is what the executor returns for one parsed action.
type ActionResult struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Data        any          `json:"data,omitempty"`
	RichContent *RichContent `json:"richContent,omitempty"`
}

// TransactionCard is the rich content for a freshly recorded entry.
type TransactionCard struct {
	Kind      Intent   `json:"kind"`
	Title     string   `json:"title"`
	Amount    float64  `json:"amount"`
	Category  string   `json:"category,omitempty"`
	Account   string   `json:"account"`
	Date      string   `json:"date"`
	PartyName string   `json:"partyName,omitempty"`
	Balance   *float64 `json:"partyBalance,omitempty"`
	Record    any      `json:"record"`
}

// BalanceCard is the rich content for show_balance.
type BalanceCard struct {
	TotalBalance float64          `json:"totalBalance"`
	Accounts     []AccountSummary `json:"accounts"`
}

// BudgetCard is the rich content for show_budget_status.
type BudgetCard struct {
	Budgets []BudgetStatus `json:"budgets"`
}

// SpendingCard is the rich content for analyze_spending.
type SpendingCard struct {
	PeriodDays    int             `json:"periodDays"`
	TotalIncome   float64         `json:"totalIncome"`
	TotalExpenses float64         `json:"totalExpenses"`
	Breakdown     []CategorySpend `json:"breakdown"`
}

// ============================================================
// Story mode
// ============================================================

// StoryItem is one transaction the generative backend extracted from a
// narrative message.
type StoryItem struct {
	Type      string    `json:"type"` // expense, income, party
	Amount    float64   `json:"amount"`
	Title     string    `json:"title"`
	Category  string    `json:"category,omitempty"`
	PartyName string    `json:"partyName,omitempty"`
	PartyType PartyType `json:"partyType,omitempty"`
}

// StoryOutcome pairs an extracted item with its execution result.
type StoryOutcome struct {
	Item    StoryItem `json:"item"`
	Success bool      `json:"success"`
	Message string    `json:"message"`
}

// StoryResult is the aggregated result of a story parse.
type StoryResult struct {
	Success      bool           `json:"success"`
	Message      string         `json:"message"`
	Transactions []StoryOutcome `json:"transactions"`
}

// ============================================================
// Generative backend
// ============================================================

// ChatRole is the author of a chat message.
type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one message of a chat-completion request.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ============================================================
// Engine reply (HTTP surface)
// ============================================================

// ReplySource tells the caller which path produced a reply.
type ReplySource string

const (
	SourceRule      ReplySource = "rule"
	SourceStory     ReplySource = "story"
	SourceAssistant ReplySource = "assistant"
)

// ChatRequest is the body of POST /v1/chat and POST /v1/interpret.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatReply is the engine's answer to one user message.
type ChatReply struct {
	ID           string         `json:"id"`
	Intent       Intent         `json:"intent"`
	Confidence   float64        `json:"confidence"`
	Source       ReplySource    `json:"source"`
	Success      bool           `json:"success"`
	Message      string         `json:"message"`
	Navigate     string         `json:"navigate,omitempty"`
	Data         any            `json:"data,omitempty"`
	RichContent  *RichContent   `json:"richContent,omitempty"`
	Transactions []StoryOutcome `json:"transactions,omitempty"`
	Timestamp    string         `json:"timestamp"`
}
