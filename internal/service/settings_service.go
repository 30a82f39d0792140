package service

import (
	"context"
	"errors"

	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
	"github.com/dafibh/budget-tracker/budget-backend/internal/validation"
	"github.com/dafibh/budget-tracker/budget-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// SettingsService handles per-user settings
type SettingsService struct {
	settingsRepo   domain.UserSettingsRepository
	eventPublisher websocket.EventPublisher
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(settingsRepo domain.UserSettingsRepository) *SettingsService {
	return &SettingsService{settingsRepo: settingsRepo}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *SettingsService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// UpdateCurrency validates currency and upserts the user's settings row.
// The returned *domain.ValidationError wraps the raw validator error.
func (s *SettingsService) UpdateCurrency(ctx context.Context, userID string, currency string) (*domain.UserSettings, error) {
	payload := domain.UpdateUserCurrencyPayload{Currency: currency}
	if err := validation.UpdateUserCurrency(payload); err != nil {
		return nil, err
	}

	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}

	settings, err := s.settingsRepo.Upsert(ctx, userID, payload.Currency)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("currency", currency).Msg("Failed to update currency")
		return nil, err
	}

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, websocket.SettingsUpdated(settings))
	}
	return settings, nil
}

// GetSettings returns the user's settings, creating them with the default currency on first access
func (s *SettingsService) GetSettings(ctx context.Context, userID string) (*domain.UserSettings, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}

	settings, err := s.settingsRepo.Get(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, domain.ErrSettingsNotFound) {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get settings")
		return nil, err
	}

	settings, err = s.settingsRepo.Upsert(ctx, userID, domain.DefaultCurrency)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create default settings")
		return nil, err
	}
	log.Info().Str("user_id", userID).Msg("Created default settings")
	return settings, nil
}

// ListCurrencies returns the supported currencies
func (s *SettingsService) ListCurrencies() []domain.Currency {
	out := make([]domain.Currency, len(domain.Currencies))
	copy(out, domain.Currencies)
	return out
}
