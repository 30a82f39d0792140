package txdialog

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notice struct {
	level   string
	key     string
	message string
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *recordingNotifier) add(level, key, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{level, key, message})
}

func (n *recordingNotifier) Loading(key, message string) { n.add("loading", key, message) }
func (n *recordingNotifier) Success(key, message string) { n.add("success", key, message) }
func (n *recordingNotifier) Error(key, message string)   { n.add("error", key, message) }

func (n *recordingNotifier) levels() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.notices))
	for i, nt := range n.notices {
		out[i] = nt.level
	}
	return out
}

type recordingInvalidator struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordingInvalidator) Invalidate(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
}

func (r *recordingInvalidator) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

type countingSubmitter struct {
	mu       sync.Mutex
	calls    int
	payloads []domain.CreateTransactionPayload
	err      error
	release  chan struct{}
	started  chan struct{}
}

func (s *countingSubmitter) CreateTransaction(ctx context.Context, payload domain.CreateTransactionPayload) (*domain.Transaction, error) {
	s.mu.Lock()
	s.calls++
	s.payloads = append(s.payloads, payload)
	s.mu.Unlock()

	if s.started != nil {
		close(s.started)
	}
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Transaction{
		UserID:   "U1",
		Type:     payload.Type,
		Amount:   decimal.NewFromFloat(payload.Amount),
		Category: payload.Category,
		Date:     payload.Date,
	}, nil
}

func (s *countingSubmitter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

var openedAt = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestDialog(txType domain.TransactionType, sub *countingSubmitter) (*Dialog, *recordingInvalidator, *recordingNotifier) {
	inv := &recordingInvalidator{}
	notifier := &recordingNotifier{}
	d := New(txType, sub, inv, notifier, WithClock(func() time.Time { return openedAt }))
	return d, inv, notifier
}

func TestOpen_DefaultDraft(t *testing.T) {
	d, _, _ := newTestDialog(domain.TransactionTypeExpense, &countingSubmitter{})

	d.Open()

	draft := d.Draft()
	assert.True(t, d.IsOpen())
	assert.Equal(t, domain.TransactionTypeExpense, draft.Type)
	assert.Equal(t, openedAt, draft.Date)
	assert.Empty(t, draft.Category)
	assert.Zero(t, draft.Amount)
}

func TestSubmit_Success(t *testing.T) {
	sub := &countingSubmitter{}
	d, inv, notifier := newTestDialog(domain.TransactionTypeExpense, sub)
	d.Open()
	d.SetAmount(42.5)
	d.SetCategory("groceries")
	d.SetDescription("weekly shop")

	created, err := d.Submit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, sub.Calls())
	assert.True(t, created.Amount.Equal(decimal.NewFromFloat(42.5)))
	assert.Equal(t, "2024-03-01", sub.payloads[0].Date.Format("2006-01-02"))
	assert.Equal(t, []string{domain.OverviewCacheKey}, inv.Keys())
	assert.False(t, d.IsOpen())
	assert.Equal(t, []string{"loading", "success"}, notifier.levels())

	draft := d.Draft()
	assert.Equal(t, Draft{Type: domain.TransactionTypeExpense, Date: openedAt}, draft)
}

func TestSubmit_MissingCategory(t *testing.T) {
	sub := &countingSubmitter{}
	d, inv, _ := newTestDialog(domain.TransactionTypeExpense, sub)
	d.Open()
	d.SetAmount(10)

	_, err := d.Submit(context.Background())

	ve, ok := domain.AsValidationError(err)
	require.True(t, ok, "expected ValidationError, got %v", err)
	assert.True(t, ve.HasField("category"))
	assert.Equal(t, 0, sub.Calls())
	assert.Empty(t, inv.Keys())
	assert.True(t, d.IsOpen())
}

func TestSubmit_NaNAmount(t *testing.T) {
	sub := &countingSubmitter{}
	d, _, notifier := newTestDialog(domain.TransactionTypeIncome, sub)
	d.Open()
	d.SetAmount(math.NaN())
	d.SetCategory("salary")

	_, err := d.Submit(context.Background())

	ve, ok := domain.AsValidationError(err)
	require.True(t, ok)
	assert.True(t, ve.HasField("amount"))
	assert.Equal(t, 0, sub.Calls())
	assert.True(t, d.IsOpen())
	assert.Equal(t, "salary", d.Draft().Category)
	assert.Empty(t, notifier.levels())
}

func TestSubmit_RejectsSecondWhilePending(t *testing.T) {
	sub := &countingSubmitter{release: make(chan struct{}), started: make(chan struct{})}
	d, _, _ := newTestDialog(domain.TransactionTypeExpense, sub)
	d.Open()
	d.SetAmount(5)
	d.SetCategory("coffee")

	done := make(chan error, 1)
	go func() {
		_, err := d.Submit(context.Background())
		done <- err
	}()
	<-sub.started

	assert.True(t, d.IsPending())
	_, err := d.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.False(t, d.Cancel())

	close(sub.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, sub.Calls())
	assert.False(t, d.IsPending())
}

func TestSubmit_FailureKeepsDraft(t *testing.T) {
	sub := &countingSubmitter{err: errors.New("boom")}
	d, inv, notifier := newTestDialog(domain.TransactionTypeExpense, sub)
	d.Open()
	d.SetAmount(12)
	d.SetCategory("fuel")

	_, err := d.Submit(context.Background())

	assert.EqualError(t, err, "boom")
	assert.True(t, d.IsOpen())
	assert.False(t, d.IsPending())
	assert.Equal(t, "fuel", d.Draft().Category)
	assert.Equal(t, float64(12), d.Draft().Amount)
	assert.Empty(t, inv.Keys())
	assert.Equal(t, []string{"loading", "error"}, notifier.levels())
	for _, n := range notifier.notices {
		assert.Equal(t, NotificationKey, n.key)
	}

	// retry after failure is allowed
	sub.err = nil
	_, err = d.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Calls())
}

func TestSubmit_ClosedDialog(t *testing.T) {
	sub := &countingSubmitter{}
	d, _, _ := newTestDialog(domain.TransactionTypeExpense, sub)

	_, err := d.Submit(context.Background())

	assert.ErrorIs(t, err, ErrDialogClosed)
	assert.Equal(t, 0, sub.Calls())
}

func TestCancel_ResetsDraft(t *testing.T) {
	d, _, _ := newTestDialog(domain.TransactionTypeExpense, &countingSubmitter{})
	d.Open()
	d.SetAmount(99)
	d.SetCategory("rent")

	assert.True(t, d.Cancel())

	assert.False(t, d.IsOpen())
	assert.Empty(t, d.Draft().Category)
	assert.Zero(t, d.Draft().Amount)
}

func TestSelectCategory(t *testing.T) {
	d, _, _ := newTestDialog(domain.TransactionTypeIncome, &countingSubmitter{})
	d.Open()

	var asked domain.TransactionType
	err := d.SelectCategory(SelectorFunc(func(txType domain.TransactionType) (string, error) {
		asked = txType
		return "salary", nil
	}))

	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeIncome, asked)
	assert.Equal(t, "salary", d.Draft().Category)

	err = d.SelectCategory(SelectorFunc(func(domain.TransactionType) (string, error) {
		return "", domain.ErrCategoryNotFound
	}))
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
	assert.Equal(t, "salary", d.Draft().Category)
}

func TestPayload_KeepsLocalCalendarDate(t *testing.T) {
	d, _, _ := newTestDialog(domain.TransactionTypeExpense, &countingSubmitter{})
	d.Open()

	for _, hours := range []int{-11, -3, 0, 5, 9, 13} {
		loc := time.FixedZone("client", hours*3600)
		d.SetDate(time.Date(2024, 3, 1, 0, 10, 0, 0, loc))

		payload := d.Payload()

		assert.Equal(t, time.UTC, payload.Date.Location())
		assert.Equal(t, "2024-03-01", payload.Date.Format("2006-01-02"), "offset %d", hours)
	}
}

func TestForUser(t *testing.T) {
	creator := &stubCreator{}
	sub := ForUser(creator, "U1")

	_, err := sub.CreateTransaction(context.Background(), domain.CreateTransactionPayload{Category: "x"})

	require.NoError(t, err)
	assert.Equal(t, "U1", creator.userID)
}

type stubCreator struct {
	userID string
}

func (s *stubCreator) CreateTransaction(_ context.Context, userID string, payload domain.CreateTransactionPayload) (*domain.Transaction, error) {
	s.userID = userID
	return &domain.Transaction{UserID: userID, Category: payload.Category}, nil
}
