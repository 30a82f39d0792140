package service

import (
	"context"
	"sync"
	"time"

	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
	"github.com/dafibh/budget-tracker/budget-backend/internal/events"
	"github.com/dafibh/budget-tracker/budget-backend/internal/util"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// OverviewService aggregates transactions into the dashboard overview.
// Results are cached per user and range until an overview invalidation arrives or the TTL passes.
type OverviewService struct {
	transactionRepo domain.TransactionRepository
	ttl             time.Duration
	now             func() time.Time

	mu    sync.Mutex
	cache map[string]map[string]overviewEntry
	gen   map[string]uint64 // bumped per user on every overview invalidation
}

type overviewEntry struct {
	overview  *domain.Overview
	expiresAt time.Time
}

var _ events.Subscriber = (*OverviewService)(nil)

// NewOverviewService creates a new OverviewService. A zero ttl disables caching.
func NewOverviewService(transactionRepo domain.TransactionRepository, ttl time.Duration) *OverviewService {
	return &OverviewService{
		transactionRepo: transactionRepo,
		ttl:             ttl,
		now:             time.Now,
		cache:           make(map[string]map[string]overviewEntry),
		gen:             make(map[string]uint64),
	}
}

// GetOverview returns balance totals and per-category totals for [from, to]
func (s *OverviewService) GetOverview(ctx context.Context, userID string, from, to time.Time) (*domain.Overview, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if err := util.ValidateDateRange(from, to); err != nil {
		return nil, err
	}

	rangeKey := from.Format(util.DateLayout) + ".." + to.Format(util.DateLayout)
	cached, gen, ok := s.lookup(userID, rangeKey)
	if ok {
		return cached, nil
	}

	var (
		balance    *domain.BalanceStats
		categories []*domain.CategoryStat
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balance, err = s.transactionRepo.SumByType(gctx, userID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.transactionRepo.SumByCategory(gctx, userID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to aggregate overview")
		return nil, err
	}

	if categories == nil {
		categories = []*domain.CategoryStat{}
	}
	overview := &domain.Overview{
		From:       from,
		To:         to,
		Balance:    *balance,
		Categories: categories,
	}

	s.store(userID, rangeKey, gen, overview)
	return overview, nil
}

// HandleInvalidation drops the user's cached overviews when the overview key is invalidated
func (s *OverviewService) HandleInvalidation(_ context.Context, inv events.Invalidation) error {
	if inv.Key != domain.OverviewCacheKey {
		return nil
	}
	s.mu.Lock()
	delete(s.cache, inv.UserID)
	s.gen[inv.UserID]++
	s.mu.Unlock()
	return nil
}

// lookup returns the cached overview if fresh, along with the user's current generation
func (s *OverviewService) lookup(userID, rangeKey string) (*domain.Overview, uint64, bool) {
	if s.ttl <= 0 {
		return nil, 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	gen := s.gen[userID]
	entry, ok := s.cache[userID][rangeKey]
	if !ok {
		return nil, gen, false
	}
	if s.now().After(entry.expiresAt) {
		delete(s.cache[userID], rangeKey)
		return nil, gen, false
	}
	return entry.overview, gen, true
}

// store caches overview unless an invalidation arrived since gen was read
func (s *OverviewService) store(userID, rangeKey string, gen uint64, overview *domain.Overview) {
	if s.ttl <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[userID] != gen {
		log.Debug().Str("user_id", userID).Msg("Overview invalidated during aggregation, not caching")
		return
	}
	if s.cache[userID] == nil {
		s.cache[userID] = make(map[string]overviewEntry)
	}
	s.cache[userID][rangeKey] = overviewEntry{overview: overview, expiresAt: s.now().Add(s.ttl)}
}
