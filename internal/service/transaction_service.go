package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
	"github.com/dafibh/budget-tracker/budget-backend/internal/events"
	"github.com/dafibh/budget-tracker/budget-backend/internal/util"
	"github.com/dafibh/budget-tracker/budget-backend/internal/validation"
	"github.com/dafibh/budget-tracker/budget-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// TransactionService handles transaction-related business logic
type TransactionService struct {
	transactionRepo domain.TransactionRepository
	categoryRepo    domain.CategoryRepository
	invalidator     events.Invalidator
	eventPublisher  websocket.EventPublisher
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(transactionRepo domain.TransactionRepository, categoryRepo domain.CategoryRepository, invalidator events.Invalidator) *TransactionService {
	if invalidator == nil {
		invalidator = events.NoOpInvalidator{}
	}
	return &TransactionService{
		transactionRepo: transactionRepo,
		categoryRepo:    categoryRepo,
		invalidator:     invalidator,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *TransactionService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *TransactionService) publishEvent(userID string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// CreateTransaction validates payload and stores it for userID.
// Validation runs before the identity check so malformed input is always reported as such.
func (s *TransactionService) CreateTransaction(ctx context.Context, userID string, payload domain.CreateTransactionPayload) (*domain.Transaction, error) {
	if err := validation.CreateTransaction(payload); err != nil {
		return nil, err
	}

	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}

	category, err := s.categoryRepo.Get(ctx, userID, payload.Category, payload.Type)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return nil, &domain.ValidationError{
				Fields: []domain.FieldError{{Field: "category", Message: "category not found"}},
				Err:    domain.ErrCategoryNotFound,
			}
		}
		log.Error().Err(err).Str("user_id", userID).Str("category", payload.Category).Msg("Failed to look up category")
		return nil, err
	}

	transaction := &domain.Transaction{
		ID:           uuid.New(),
		UserID:       userID,
		Type:         payload.Type,
		Description:  strings.TrimSpace(payload.Description),
		Amount:       decimal.NewFromFloat(payload.Amount).Round(2),
		Category:     category.Name,
		CategoryIcon: category.Icon,
		Date:         util.DateToUTCDate(payload.Date),
	}

	created, err := s.transactionRepo.Create(ctx, transaction)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create transaction")
		return nil, err
	}

	s.invalidator.Invalidate(ctx, userID, domain.OverviewCacheKey)
	s.publishEvent(userID, websocket.TransactionCreated(created))

	log.Info().
		Str("user_id", userID).
		Str("transaction_id", created.ID.String()).
		Str("type", string(created.Type)).
		Msg("Transaction created")

	return created, nil
}

// ListTransactions returns the user's transactions dated within [from, to]
func (s *TransactionService) ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]*domain.Transaction, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if err := util.ValidateDateRange(from, to); err != nil {
		return nil, err
	}

	transactions, err := s.transactionRepo.ListByUser(ctx, userID, domain.TransactionFilters{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if transactions == nil {
		transactions = []*domain.Transaction{}
	}
	return transactions, nil
}

// DeleteTransaction removes a transaction owned by userID
func (s *TransactionService) DeleteTransaction(ctx context.Context, userID string, id uuid.UUID) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}

	if err := s.transactionRepo.Delete(ctx, userID, id); err != nil {
		if !errors.Is(err, domain.ErrTransactionNotFound) {
			log.Error().Err(err).Str("user_id", userID).Str("transaction_id", id.String()).Msg("Failed to delete transaction")
		}
		return err
	}

	s.invalidator.Invalidate(ctx, userID, domain.OverviewCacheKey)
	s.publishEvent(userID, websocket.TransactionDeleted(map[string]string{"id": id.String()}))
	return nil
}
