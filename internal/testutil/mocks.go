package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockTransactionRepository is a mock implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	mu           sync.Mutex
	Transactions map[uuid.UUID]*domain.Transaction

	// CreateErr, when set, is returned by Create
	CreateErr error
	// SumErr, when set, is returned by SumByType and SumByCategory
	SumErr error

	SumCalls int
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[uuid.UUID]*domain.Transaction),
	}
}

// Create creates a new transaction
func (m *MockTransactionRepository) Create(_ context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	stored := *transaction
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.Transactions[stored.ID] = &stored
	out := stored
	return &out, nil
}

// GetByID retrieves a transaction owned by userID
func (m *MockTransactionRepository) GetByID(_ context.Context, userID string, id uuid.UUID) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.Transactions[id]; ok && t.UserID == userID {
		return t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

// ListByUser lists a user's transactions in range, newest first
func (m *MockTransactionRepository) ListByUser(_ context.Context, userID string, filters domain.TransactionFilters) ([]*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Transaction
	for _, t := range m.Transactions {
		if t.UserID != userID || !inRange(t.Date, filters.From, filters.To) {
			continue
		}
		if filters.Type != nil && t.Type != *filters.Type {
			continue
		}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

// Delete removes a transaction owned by userID
func (m *MockTransactionRepository) Delete(_ context.Context, userID string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Transactions[id]
	if !ok || t.UserID != userID {
		return domain.ErrTransactionNotFound
	}
	delete(m.Transactions, id)
	return nil
}

// SumByType totals income and expense in range
func (m *MockTransactionRepository) SumByType(_ context.Context, userID string, from, to time.Time) (*domain.BalanceStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SumCalls++
	if m.SumErr != nil {
		return nil, m.SumErr
	}
	stats := &domain.BalanceStats{Income: decimal.Zero, Expense: decimal.Zero}
	for _, t := range m.Transactions {
		if t.UserID != userID || !inRange(t.Date, from, to) {
			continue
		}
		if t.Type == domain.TransactionTypeIncome {
			stats.Income = stats.Income.Add(t.Amount)
		} else {
			stats.Expense = stats.Expense.Add(t.Amount)
		}
	}
	return stats, nil
}

// SumByCategory totals amounts per (type, category) in range, largest first
func (m *MockTransactionRepository) SumByCategory(_ context.Context, userID string, from, to time.Time) ([]*domain.CategoryStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SumErr != nil {
		return nil, m.SumErr
	}
	byKey := make(map[string]*domain.CategoryStat)
	for _, t := range m.Transactions {
		if t.UserID != userID || !inRange(t.Date, from, to) {
			continue
		}
		key := string(t.Type) + "/" + t.Category
		stat, ok := byKey[key]
		if !ok {
			stat = &domain.CategoryStat{Type: t.Type, Category: t.Category, Icon: t.CategoryIcon, Amount: decimal.Zero}
			byKey[key] = stat
		}
		stat.Amount = stat.Amount.Add(t.Amount)
	}
	result := make([]*domain.CategoryStat, 0, len(byKey))
	for _, s := range byKey {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Amount.GreaterThan(result[j].Amount)
	})
	return result, nil
}

// AddTransaction adds a transaction directly to the mock
func (m *MockTransactionRepository) AddTransaction(transaction *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if transaction.ID == uuid.Nil {
		transaction.ID = uuid.New()
	}
	m.Transactions[transaction.ID] = transaction
}

// Count returns the number of stored transactions
func (m *MockTransactionRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Transactions)
}

func inRange(d, from, to time.Time) bool {
	return !d.Before(from) && !d.After(to)
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	mu         sync.Mutex
	Categories map[string]*domain.Category
	GetErr     error
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[string]*domain.Category),
	}
}

func categoryKey(userID, name string, txType domain.TransactionType) string {
	return userID + "/" + string(txType) + "/" + name
}

// Create creates a new category
func (m *MockCategoryRepository) Create(_ context.Context, category *domain.Category) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := categoryKey(category.UserID, category.Name, category.Type)
	if _, ok := m.Categories[key]; ok {
		return nil, domain.ErrCategoryAlreadyExists
	}
	stored := *category
	stored.CreatedAt = time.Now()
	m.Categories[key] = &stored
	return &stored, nil
}

// Get retrieves a category by name and type
func (m *MockCategoryRepository) Get(_ context.Context, userID string, name string, txType domain.TransactionType) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if c, ok := m.Categories[categoryKey(userID, name, txType)]; ok {
		return c, nil
	}
	return nil, domain.ErrCategoryNotFound
}

// ListByUser lists a user's categories ordered by name
func (m *MockCategoryRepository) ListByUser(_ context.Context, userID string, txType *domain.TransactionType) ([]*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Category
	for _, c := range m.Categories {
		if c.UserID != userID {
			continue
		}
		if txType != nil && c.Type != *txType {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// Delete removes a category
func (m *MockCategoryRepository) Delete(_ context.Context, userID string, name string, txType domain.TransactionType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := categoryKey(userID, name, txType)
	if _, ok := m.Categories[key]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(m.Categories, key)
	return nil
}

// AddCategory adds a category directly to the mock
func (m *MockCategoryRepository) AddCategory(category *domain.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Categories[categoryKey(category.UserID, category.Name, category.Type)] = category
}

// MockUserSettingsRepository is a mock implementation of domain.UserSettingsRepository
type MockUserSettingsRepository struct {
	mu        sync.Mutex
	Settings  map[string]*domain.UserSettings
	UpsertErr error

	UpsertCalls int
}

// NewMockUserSettingsRepository creates a new MockUserSettingsRepository
func NewMockUserSettingsRepository() *MockUserSettingsRepository {
	return &MockUserSettingsRepository{
		Settings: make(map[string]*domain.UserSettings),
	}
}

// Get retrieves settings for a user
func (m *MockUserSettingsRepository) Get(_ context.Context, userID string) (*domain.UserSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.Settings[userID]; ok {
		out := *s
		return &out, nil
	}
	return nil, domain.ErrSettingsNotFound
}

// Upsert creates or replaces the settings row keyed by userID
func (m *MockUserSettingsRepository) Upsert(_ context.Context, userID string, currency string) (*domain.UserSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls++
	if m.UpsertErr != nil {
		return nil, m.UpsertErr
	}
	now := time.Now()
	s, ok := m.Settings[userID]
	if !ok {
		s = &domain.UserSettings{UserID: userID, CreatedAt: now}
		m.Settings[userID] = s
	}
	s.Currency = currency
	s.UpdatedAt = now
	out := *s
	return &out, nil
}

// Count returns the number of stored settings rows
func (m *MockUserSettingsRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Settings)
}

// Invalidation records one call to MockInvalidator.Invalidate
type Invalidation struct {
	UserID string
	Key    string
}

// MockInvalidator records invalidations
type MockInvalidator struct {
	mu    sync.Mutex
	Calls []Invalidation
}

// NewMockInvalidator creates a new MockInvalidator
func NewMockInvalidator() *MockInvalidator {
	return &MockInvalidator{}
}

// Invalidate records the call
func (m *MockInvalidator) Invalidate(_ context.Context, userID, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, Invalidation{UserID: userID, Key: key})
}

// Invalidations returns a copy of the recorded calls
func (m *MockInvalidator) Invalidations() []Invalidation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Invalidation(nil), m.Calls...)
}
