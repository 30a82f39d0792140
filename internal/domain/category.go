package domain

import (
	"context"
	"time"
)

// Category groups transactions of a single type for one user.
// Categories are identified by name within (user, type).
type Category struct {
	UserID    string          `json:"userId"`
	Name      string          `json:"name"`
	Icon      string          `json:"icon"`
	Type      TransactionType `json:"type"`
	CreatedAt time.Time       `json:"createdAt"`
}

// CreateCategoryPayload is the payload for creating a category
type CreateCategoryPayload struct {
	Name string          `json:"name" validate:"required,min=3,max=20"`
	Icon string          `json:"icon" validate:"max=20"`
	Type TransactionType `json:"type" validate:"required,oneof=income expense"`
}

type CategoryRepository interface {
	Create(ctx context.Context, category *Category) (*Category, error)
	Get(ctx context.Context, userID string, name string, txType TransactionType) (*Category, error)
	ListByUser(ctx context.Context, userID string, txType *TransactionType) ([]*Category, error)
	Delete(ctx context.Context, userID string, name string, txType TransactionType) error
}
