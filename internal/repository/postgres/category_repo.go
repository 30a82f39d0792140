package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	db DBTX
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

var _ domain.CategoryRepository = (*CategoryRepository)(nil)

const categoryColumns = `user_id, name, icon, type, created_at`

// Create creates a new category
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
		INSERT INTO categories (user_id, name, icon, type)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + categoryColumns + `;
	`
	created, err := scanCategory(r.db.QueryRow(ctx, query, category.UserID, category.Name, category.Icon, string(category.Type)))
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrCategoryAlreadyExists
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return created, nil
}

// Get retrieves a category by name and type for a user
func (r *CategoryRepository) Get(ctx context.Context, userID string, name string, txType domain.TransactionType) (*domain.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE user_id = $1 AND name = $2 AND type = $3;
	`
	category, err := scanCategory(r.db.QueryRow(ctx, query, userID, name, string(txType)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

// ListByUser retrieves a user's categories, optionally filtered by type
func (r *CategoryRepository) ListByUser(ctx context.Context, userID string, txType *domain.TransactionType) ([]*domain.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE user_id = $1 AND ($2::text IS NULL OR type = $2)
		ORDER BY name ASC;
	`
	var typeArg *string
	if txType != nil {
		s := string(*txType)
		typeArg = &s
	}

	rows, err := r.db.Query(ctx, query, userID, typeArg)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Category, error) {
		return scanCategory(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan categories: %w", err)
	}
	return categories, nil
}

// Delete removes a category. Existing transactions keep their category name.
func (r *CategoryRepository) Delete(ctx context.Context, userID string, name string, txType domain.TransactionType) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE user_id = $1 AND name = $2 AND type = $3;`, userID, name, string(txType))
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	var txType string
	if err := row.Scan(&c.UserID, &c.Name, &c.Icon, &txType, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Type = domain.TransactionType(txType)
	return &c, nil
}
