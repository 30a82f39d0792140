package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// IsValid reports whether t is one of the known transaction types
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction is a persisted income or expense record owned by a user
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	UserID       string          `json:"userId"`
	Type         TransactionType `json:"type"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Category     string          `json:"category"`
	CategoryIcon string          `json:"categoryIcon"`
	Date         time.Time       `json:"date"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// CreateTransactionPayload is the payload submitted to create a transaction.
// Amount stays a float64 so non-finite values coming from a form can be rejected by validation.
type CreateTransactionPayload struct {
	Type        TransactionType `json:"type" validate:"required,oneof=income expense"`
	Description string          `json:"description" validate:"max=255"`
	Amount      float64         `json:"amount" validate:"finite,gte=-999999999999.99,lte=999999999999.99"`
	Category    string          `json:"category" validate:"required"`
	Date        time.Time       `json:"date" validate:"required"`
}

// TransactionFilters narrows a history listing to a date range (inclusive)
type TransactionFilters struct {
	From time.Time
	To   time.Time
	Type *TransactionType
}

// Validation constants
const (
	MaxTransactionDescriptionLength = 255
)

type TransactionRepository interface {
	Create(ctx context.Context, transaction *Transaction) (*Transaction, error)
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*Transaction, error)
	ListByUser(ctx context.Context, userID string, filters TransactionFilters) ([]*Transaction, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	SumByType(ctx context.Context, userID string, from, to time.Time) (*BalanceStats, error)
	SumByCategory(ctx context.Context, userID string, from, to time.Time) ([]*CategoryStat, error)
}
