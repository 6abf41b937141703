package memledger

import (
	"context"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"

	"github.com/google/uuid"
)

// ============================================================
// Categories
// ============================================================

func (s *Store) ListCategories(ctx context.Context, categoryType domain.CategoryType) (*domain.ListCategoriesResult, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rej, err := s.begin("ListCategories")
	if err != nil {
		return nil, err
	}
	if rej != "" {
		return reject[[]domain.Category](rej), nil
	}

	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if categoryType == "" || c.Type == categoryType {
			out = append(out, c)
		}
	}
	return ok("Categories fetched", out), nil
}

func (s *Store) CreateCategory(ctx context.Context, req *domain.CreateCategoryRequest) (*domain.CreateCategoryResult, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rej, err := s.begin("CreateCategory")
	if err != nil {
		return nil, err
	}
	if rej != "" {
		return reject[*domain.Category](rej), nil
	}
	if blank(req.Name) {
		return reject[*domain.Category]("category name is required"), nil
	}

	c := domain.Category{ID: uuid.NewString(), Name: req.Name, Icon: req.Icon, Type: req.Type}
	s.categories = append(s.categories, c)
	return ok("Category created", &c), nil
}

// ============================================================
// Accounts
// ============================================================

func (s *Store) ListAccounts(ctx context.Context) (*domain.ListAccountsResult, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rej, err := s.begin("ListAccounts")
	if err != nil {
		return nil, err
	}
	if rej != "" {
		return reject[[]domain.Account](rej), nil
	}
	return ok("Accounts fetched", append([]domain.Account{}, s.accounts...)), nil
}

// ============================================================
// Incomes / Expenses
// ============================================================

func (s *Store) CreateExpense(ctx context.Context, req *domain.CreateEntryRequest) (*domain.CreateExpenseResult, error) {
	return s.createEntry(ctx, "CreateExpense", req, domain.CategoryExpense)
}

func (s *Store) CreateIncome(ctx context.Context, req *domain.CreateEntryRequest) (*domain.CreateIncomeResult, error) {
	return s.createEntry(ctx, "CreateIncome", req, domain.CategoryIncome)
}

// createEntry validates references and moves the account balance:
// expenses debit the account, incomes credit it.
func (s *Store) createEntry(ctx context.Context, op string, req *domain.CreateEntryRequest, kind domain.CategoryType) (*domain.Envelope[*domain.EntryRecord], error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rej, err := s.begin(op)
	if err != nil {
		return nil, err
	}
	if rej != "" {
		return reject[*domain.EntryRecord](rej), nil
	}
	if req.Amount <= 0 {
		return reject[*domain.EntryRecord]("amount must be greater than zero"), nil
	}
	if s.categoryIndex(req.CategoryID) < 0 {
		return reject[*domain.EntryRecord]("category not found"), nil
	}
	ai := s.accountIndex(req.AccountID)
	if ai < 0 {
		return reject[*domain.EntryRecord]("account not found"), nil
	}

	date := req.Date
	if date == "" {
		date = today()
	}
	rec := domain.EntryRecord{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Amount:      req.Amount,
		CategoryID:  req.CategoryID,
		AccountID:   req.AccountID,
		Date:        date,
		Description: req.Description,
	}

	if kind == domain.CategoryExpense {
		s.expenses = append(s.expenses, rec)
		s.accounts[ai].Balance -= req.Amount
		return ok("Expense created", &rec), nil
	}
	s.incomes = append(s.incomes, rec)
	s.accounts[ai].Balance += req.Amount
	return ok("Income created", &rec), nil
}

func (s *Store) ListExpenses(ctx context.Context) (*domain.ListExpensesResult, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rej, err := s.begin("ListExpenses")
	if err != nil {
		return nil, err
	}
	if rej != "" {
		return reject[[]domain.ExpenseRecord](rej), nil
	}
	return ok("Expenses fetched", append([]domain.ExpenseRecord{}, s.expenses...)), nil
}

func (s *Store) ListIncomes(ctx context.Context) (*domain.ListIncomesResult, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rej, err := s.begin("ListIncomes")
	if err != nil {
		return nil, err
	}
	if rej != "" {
		return reject[[]domain.IncomeRecord](rej), nil
	}
	return ok("Incomes fetched", append([]domain.IncomeRecord{}, s.incomes...)), nil
}

// ============================================================
// Parties
// ============================================================

func (s *Store) ListParties(ctx context.Context) (*domain.ListPartiesResult, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rej, err := s.begin("ListParties")
	if err != nil {
		return nil, err
	}
	if rej != "" {
		return reject[[]domain.Party](rej), nil
	}
	return ok("Parties fetched", append([]domain.Party{}, s.parties...)), nil
}

func (s *Store) GetParty(ctx context.Context, id string) (*domain.GetPartyResult, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rej, err := s.begin("GetParty")
	if err != nil {
		return nil, err
	}
	if rej != "" {
		return reject[*domain.Party](rej), nil
	}
	i := s.partyIndex(id)
	if i < 0 {
		return reject[*domain.Party]("party not found"), nil
	}
	p := s.parties[i]
	return ok("Party fetched", &p), nil
}

func (s *Store) CreateParty(ctx context.Context, req *domain.CreatePartyRequest) (*domain.CreatePartyResult, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rej, err := s.begin("CreateParty")
	if err != nil {
		return nil, err
	}
	if rej != "" {
		return reject[*domain.Party](rej), nil
	}
	if blank(req.Name) {
		return reject[*domain.Party]("party name is required"), nil
	}

	p := domain.Party{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Phone:          req.Phone,
		Type:           req.Type,
		Balance:        req.Balance,
		OpeningBalance: req.OpeningBalance,
	}
	s.parties = append(s.parties, p)
	return ok("Party created", &p), nil
}

// ============================================================
// Transactions
// ============================================================

// CreateTransaction posts a movement. Against a party it adjusts the
// party's running balance according to the party's stored type:
//
//	receive party (owes the user):  debit +amount, credit -amount
//	give party (user owes them):    credit +amount, debit -amount
//
// The account balance moves with the wire direction: credit adds, debit subtracts.
func (s *Store) CreateTransaction(ctx context.Context, req *domain.CreateTransactionRequest) (*domain.CreateTransactionResult, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rej, err := s.begin("CreateTransaction")
	if err != nil {
		return nil, err
	}
	if rej != "" {
		return reject[*domain.Transaction](rej), nil
	}
	if req.Amount <= 0 {
		return reject[*domain.Transaction]("amount must be greater than zero"), nil
	}
	if req.Type != domain.TransactionCredit && req.Type != domain.TransactionDebit {
		return reject[*domain.Transaction]("type must be credit or debit"), nil
	}
	ai := s.accountIndex(req.AccountID)
	if ai < 0 {
		return reject[*domain.Transaction]("account not found"), nil
	}
	pi := -1
	if req.PartyID != "" {
		if pi = s.partyIndex(req.PartyID); pi < 0 {
			return reject[*domain.Transaction]("party not found"), nil
		}
	}

	date := req.Date
	if date == "" {
		date = today()
	}
	tx := domain.Transaction{
		ID:          uuid.NewString(),
		PartyID:     req.PartyID,
		AccountID:   req.AccountID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        date,
		Notes:       req.Notes,
	}
	s.transactions = append(s.transactions, tx)

	if req.Type == domain.TransactionCredit {
		s.accounts[ai].Balance += req.Amount
	} else {
		s.accounts[ai].Balance -= req.Amount
	}
	if pi >= 0 {
		s.parties[pi].Balance += PartyBalanceDelta(s.parties[pi].Type, req.Type, req.Amount)
	}
	return ok("Transaction created", &tx), nil
}

// PartyBalanceDelta is the change a transaction makes to a party's balance.
func PartyBalanceDelta(partyType domain.PartyType, txType domain.TransactionType, amount float64) float64 {
	increases := (partyType == domain.PartyGive && txType == domain.TransactionCredit) ||
		(partyType != domain.PartyGive && txType == domain.TransactionDebit)
	if increases {
		return amount
	}
	return -amount
}

// ============================================================
// Budgets
// ============================================================

func (s *Store) ListBudgets(ctx context.Context) (*domain.ListBudgetsResult, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rej, err := s.begin("ListBudgets")
	if err != nil {
		return nil, err
	}
	if rej != "" {
		return reject[[]domain.Budget](rej), nil
	}
	return ok("Budgets fetched", append([]domain.Budget{}, s.budgets...)), nil
}
