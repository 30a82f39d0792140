package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
	"github.com/dafibh/budget-tracker/budget-backend/internal/events"
	"github.com/dafibh/budget-tracker/budget-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	marchStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	marchEnd   = time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
)

func seedOverview(repo *testutil.MockTransactionRepository) {
	repo.AddTransaction(&domain.Transaction{UserID: "U1", Type: domain.TransactionTypeIncome, Category: "salary", Amount: decimal.NewFromInt(3000), Date: marchStart})
	repo.AddTransaction(&domain.Transaction{UserID: "U1", Type: domain.TransactionTypeExpense, Category: "groceries", Amount: decimal.NewFromFloat(42.5), Date: marchStart.AddDate(0, 0, 2)})
	repo.AddTransaction(&domain.Transaction{UserID: "U1", Type: domain.TransactionTypeExpense, Category: "groceries", Amount: decimal.NewFromFloat(7.5), Date: marchStart.AddDate(0, 0, 3)})
	repo.AddTransaction(&domain.Transaction{UserID: "U2", Type: domain.TransactionTypeExpense, Category: "rent", Amount: decimal.NewFromInt(900), Date: marchStart})
}

func TestGetOverview_Aggregates(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	seedOverview(repo)
	svc := NewOverviewService(repo, time.Minute)

	overview, err := svc.GetOverview(context.Background(), "U1", marchStart, marchEnd)

	require.NoError(t, err)
	assert.True(t, overview.Balance.Income.Equal(decimal.NewFromInt(3000)))
	assert.True(t, overview.Balance.Expense.Equal(decimal.NewFromInt(50)))
	require.Len(t, overview.Categories, 2)
	assert.Equal(t, "salary", overview.Categories[0].Category)
	assert.True(t, overview.Categories[1].Amount.Equal(decimal.NewFromInt(50)))
}

func TestGetOverview_CachedUntilInvalidated(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	seedOverview(repo)
	svc := NewOverviewService(repo, time.Minute)
	bus := events.NewBus()
	bus.Subscribe("overview", svc)
	ctx := context.Background()

	_, err := svc.GetOverview(ctx, "U1", marchStart, marchEnd)
	require.NoError(t, err)
	_, err = svc.GetOverview(ctx, "U1", marchStart, marchEnd)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.SumCalls)

	repo.AddTransaction(&domain.Transaction{UserID: "U1", Type: domain.TransactionTypeExpense, Category: "coffee", Amount: decimal.NewFromInt(4), Date: marchStart})
	bus.Invalidate(ctx, "U1", domain.OverviewCacheKey)

	overview, err := svc.GetOverview(ctx, "U1", marchStart, marchEnd)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.SumCalls)
	assert.True(t, overview.Balance.Expense.Equal(decimal.NewFromInt(54)))
}

func TestGetOverview_OtherKeysAndUsersKeepCache(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	seedOverview(repo)
	svc := NewOverviewService(repo, time.Minute)
	ctx := context.Background()

	_, err := svc.GetOverview(ctx, "U1", marchStart, marchEnd)
	require.NoError(t, err)

	require.NoError(t, svc.HandleInvalidation(ctx, events.Invalidation{UserID: "U2", Key: domain.OverviewCacheKey}))
	require.NoError(t, svc.HandleInvalidation(ctx, events.Invalidation{UserID: "U1", Key: "settings"}))

	_, err = svc.GetOverview(ctx, "U1", marchStart, marchEnd)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.SumCalls)
}

func TestGetOverview_TTLExpiry(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	svc := NewOverviewService(repo, time.Minute)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.GetOverview(context.Background(), "U1", marchStart, marchEnd)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = svc.GetOverview(context.Background(), "U1", marchStart, marchEnd)
	require.NoError(t, err)

	assert.Equal(t, 2, repo.SumCalls)
}

func TestGetOverview_RangeTooLong(t *testing.T) {
	svc := NewOverviewService(testutil.NewMockTransactionRepository(), time.Minute)

	_, err := svc.GetOverview(context.Background(), "U1", marchStart, marchStart.AddDate(0, 0, domain.MaxDateRangeDays+1))

	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestGetOverview_RepositoryError(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	repo.SumErr = errors.New("timeout")
	svc := NewOverviewService(repo, time.Minute)

	_, err := svc.GetOverview(context.Background(), "U1", marchStart, marchEnd)

	assert.EqualError(t, err, "timeout")
}

func TestGetOverview_Unauthenticated(t *testing.T) {
	svc := NewOverviewService(testutil.NewMockTransactionRepository(), time.Minute)

	_, err := svc.GetOverview(context.Background(), "", marchStart, marchEnd)

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

// gatedRepo holds the first SumByType call until release is closed
type gatedRepo struct {
	*testutil.MockTransactionRepository
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedRepo) SumByType(ctx context.Context, userID string, from, to time.Time) (*domain.BalanceStats, error) {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.MockTransactionRepository.SumByType(ctx, userID, from, to)
}

func TestGetOverview_InvalidationDuringAggregationIsNotCached(t *testing.T) {
	repo := &gatedRepo{
		MockTransactionRepository: testutil.NewMockTransactionRepository(),
		entered:                   make(chan struct{}),
		release:                   make(chan struct{}),
	}
	svc := NewOverviewService(repo, time.Minute)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.GetOverview(ctx, "U1", marchStart, marchEnd)
		done <- err
	}()

	<-repo.entered
	repo.AddTransaction(&domain.Transaction{UserID: "U1", Type: domain.TransactionTypeIncome, Category: "salary", Amount: decimal.NewFromInt(100), Date: marchStart})
	require.NoError(t, svc.HandleInvalidation(ctx, events.Invalidation{UserID: "U1", Key: domain.OverviewCacheKey}))
	close(repo.release)
	require.NoError(t, <-done)

	overview, err := svc.GetOverview(ctx, "U1", marchStart, marchEnd)
	require.NoError(t, err)
	assert.True(t, overview.Balance.Income.Equal(decimal.NewFromInt(100)), "got income %s", overview.Balance.Income)
	assert.Equal(t, 2, repo.SumCalls)
}
