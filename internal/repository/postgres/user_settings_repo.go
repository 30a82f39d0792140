package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

// UserSettingsRepository implements domain.UserSettingsRepository using PostgreSQL
type UserSettingsRepository struct {
	db DBTX
}

// NewUserSettingsRepository creates a new UserSettingsRepository
func NewUserSettingsRepository(db DBTX) *UserSettingsRepository {
	return &UserSettingsRepository{db: db}
}

var _ domain.UserSettingsRepository = (*UserSettingsRepository)(nil)

// Get retrieves the settings row for a user
func (r *UserSettingsRepository) Get(ctx context.Context, userID string) (*domain.UserSettings, error) {
	query := `
		SELECT user_id, currency, created_at, updated_at
		FROM user_settings
		WHERE user_id = $1;
	`
	var s domain.UserSettings
	err := r.db.QueryRow(ctx, query, userID).Scan(&s.UserID, &s.Currency, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to get user settings: %w", err)
	}
	return &s, nil
}

// Upsert creates the settings row or replaces its currency in place.
// ON CONFLICT keeps the write atomic, so concurrent calls never produce a second row.
func (r *UserSettingsRepository) Upsert(ctx context.Context, userID string, currency string) (*domain.UserSettings, error) {
	query := `
		INSERT INTO user_settings (user_id, currency)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET
			currency = EXCLUDED.currency,
			updated_at = NOW()
		RETURNING user_id, currency, created_at, updated_at;
	`
	var s domain.UserSettings
	err := r.db.QueryRow(ctx, query, userID, currency).Scan(&s.UserID, &s.Currency, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user settings for %s: %w", userID, err)
	}
	return &s, nil
}
