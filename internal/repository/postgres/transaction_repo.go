package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	db DBTX
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

var _ domain.TransactionRepository = (*TransactionRepository)(nil)

const transactionColumns = `id, user_id, type, description, amount, category, category_icon, date, created_at, updated_at`

// Create inserts a transaction in a single statement
func (r *TransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	id := transaction.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	query := `
		INSERT INTO transactions (id, user_id, type, description, amount, category, category_icon, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + transactionColumns + `;
	`
	created, err := scanTransaction(r.db.QueryRow(ctx, query,
		id,
		transaction.UserID,
		string(transaction.Type),
		transaction.Description,
		amount,
		transaction.Category,
		transaction.CategoryIcon,
		timeToPgDate(transaction.Date),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return created, nil
}

// GetByID retrieves a transaction owned by userID
func (r *TransactionRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 AND id = $2;`
	transaction, err := scanTransaction(r.db.QueryRow(ctx, query, userID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return transaction, nil
}

// ListByUser lists a user's transactions within [From, To], newest first
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, filters domain.TransactionFilters) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND date >= $2 AND date <= $3 AND ($4::text IS NULL OR type = $4)
		ORDER BY date DESC, created_at DESC;
	`
	var typeArg *string
	if filters.Type != nil {
		s := string(*filters.Type)
		typeArg = &s
	}

	rows, err := r.db.Query(ctx, query, userID, timeToPgDate(filters.From), timeToPgDate(filters.To), typeArg)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	transactions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Transaction, error) {
		return scanTransaction(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan transactions: %w", err)
	}
	return transactions, nil
}

// Delete removes a transaction owned by userID
func (r *TransactionRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1 AND id = $2;`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// SumByType totals income and expense within [from, to]
func (r *TransactionRepository) SumByType(ctx context.Context, userID string, from, to time.Time) (*domain.BalanceStats, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'income'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0)
		FROM transactions
		WHERE user_id = $1 AND date >= $2 AND date <= $3;
	`
	var income, expense pgtype.Numeric
	if err := r.db.QueryRow(ctx, query, userID, timeToPgDate(from), timeToPgDate(to)).Scan(&income, &expense); err != nil {
		return nil, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return &domain.BalanceStats{
		Income:  pgNumericToDecimal(income),
		Expense: pgNumericToDecimal(expense),
	}, nil
}

// SumByCategory totals amounts per (type, category) within [from, to], largest first
func (r *TransactionRepository) SumByCategory(ctx context.Context, userID string, from, to time.Time) ([]*domain.CategoryStat, error) {
	query := `
		SELECT type, category, MAX(category_icon), SUM(amount)
		FROM transactions
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		GROUP BY type, category
		ORDER BY SUM(amount) DESC;
	`
	rows, err := r.db.Query(ctx, query, userID, timeToPgDate(from), timeToPgDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query category stats: %w", err)
	}
	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.CategoryStat, error) {
		var s domain.CategoryStat
		var txType string
		var amount pgtype.Numeric
		if err := row.Scan(&txType, &s.Category, &s.Icon, &amount); err != nil {
			return nil, err
		}
		s.Type = domain.TransactionType(txType)
		s.Amount = pgNumericToDecimal(amount)
		return &s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan category stats: %w", err)
	}
	return stats, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var txType string
	var amount pgtype.Numeric
	var date pgtype.Date
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&txType,
		&t.Description,
		&amount,
		&t.Category,
		&t.CategoryIcon,
		&date,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Type = domain.TransactionType(txType)
	t.Amount = pgNumericToDecimal(amount)
	t.Date = pgDateToUTC(date)
	return &t, nil
}

