package service

import (
	"context"
	"errors"
	"strings"

	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
	"github.com/dafibh/budget-tracker/budget-backend/internal/validation"
	"github.com/dafibh/budget-tracker/budget-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// CategoryService handles category-related business logic
type CategoryService struct {
	categoryRepo   domain.CategoryRepository
	eventPublisher websocket.EventPublisher
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *CategoryService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *CategoryService) publishEvent(userID string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// CreateCategory creates a category for userID
func (s *CategoryService) CreateCategory(ctx context.Context, userID string, payload domain.CreateCategoryPayload) (*domain.Category, error) {
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Icon = strings.TrimSpace(payload.Icon)
	if err := validation.CreateCategory(payload); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}

	created, err := s.categoryRepo.Create(ctx, &domain.Category{
		UserID: userID,
		Name:   payload.Name,
		Icon:   payload.Icon,
		Type:   payload.Type,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrCategoryAlreadyExists) {
			log.Error().Err(err).Str("user_id", userID).Str("category", payload.Name).Msg("Failed to create category")
		}
		return nil, err
	}

	s.publishEvent(userID, websocket.CategoryCreated(created))
	return created, nil
}

// ListCategories lists the user's categories, optionally only those of txType
func (s *CategoryService) ListCategories(ctx context.Context, userID string, txType *domain.TransactionType) ([]*domain.Category, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if txType != nil && !txType.IsValid() {
		return nil, domain.NewFieldValidationError("type", "must be one of: income expense")
	}

	categories, err := s.categoryRepo.ListByUser(ctx, userID, txType)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []*domain.Category{}
	}
	return categories, nil
}

// SelectValue returns the identifier of the user's category called name with type txType.
// It is the server-side counterpart of the form's category selector.
func (s *CategoryService) SelectValue(ctx context.Context, userID string, txType domain.TransactionType, name string) (string, error) {
	if userID == "" {
		return "", domain.ErrUnauthenticated
	}
	category, err := s.categoryRepo.Get(ctx, userID, strings.TrimSpace(name), txType)
	if err != nil {
		return "", err
	}
	return category.Name, nil
}

// DeleteCategory deletes a category. Transactions keep the category name they were stored with.
func (s *CategoryService) DeleteCategory(ctx context.Context, userID string, txType domain.TransactionType, name string) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	if !txType.IsValid() {
		return domain.NewFieldValidationError("type", "must be one of: income expense")
	}

	if err := s.categoryRepo.Delete(ctx, userID, name, txType); err != nil {
		return err
	}

	s.publishEvent(userID, websocket.CategoryDeleted(map[string]string{"name": name, "type": string(txType)}))
	return nil
}
