package txdialog

import (
	"context"

	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// TransactionCreator is the server-side operation a Submitter can delegate to
type TransactionCreator interface {
	CreateTransaction(ctx context.Context, userID string, payload domain.CreateTransactionPayload) (*domain.Transaction, error)
}

// ForUser returns a Submitter that creates transactions as userID
func ForUser(creator TransactionCreator, userID string) Submitter {
	return SubmitterFunc(func(ctx context.Context, payload domain.CreateTransactionPayload) (*domain.Transaction, error) {
		return creator.CreateTransaction(ctx, userID, payload)
	})
}

// SelectorFunc adapts a function to CategorySelector
type SelectorFunc func(txType domain.TransactionType) (string, error)

// SelectValue implements CategorySelector
func (f SelectorFunc) SelectValue(txType domain.TransactionType) (string, error) {
	return f(txType)
}

// InvalidatorFunc adapts a function to Invalidator
type InvalidatorFunc func(key string)

// Invalidate implements Invalidator
func (f InvalidatorFunc) Invalidate(key string) {
	f(key)
}

// LogNotifier writes notices to the global zerolog logger
type LogNotifier struct{}

func (LogNotifier) Loading(key, message string) {
	log.Info().Str("key", key).Msg(message)
}

func (LogNotifier) Success(key, message string) {
	log.Info().Str("key", key).Msg(message)
}

func (LogNotifier) Error(key, message string) {
	log.Error().Str("key", key).Msg(message)
}
