// Package txdialog holds the state of the "create transaction" form: the draft being edited,
// whether the form is open, and the single in-flight submission it may have.
package txdialog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
	"github.com/dafibh/budget-tracker/budget-backend/internal/util"
	"github.com/dafibh/budget-tracker/budget-backend/internal/validation"
)

// NotificationKey groups the loading, success and error notices of one dialog so they replace each other
const NotificationKey = "create-transaction"

var (
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrDialogClosed       = errors.New("dialog is not open")
)

// Draft is the unsaved transaction held by the form
type Draft struct {
	Type        domain.TransactionType
	Description string
	Amount      float64
	Category    string
	Date        time.Time
}

// Submitter persists a validated payload
type Submitter interface {
	CreateTransaction(ctx context.Context, payload domain.CreateTransactionPayload) (*domain.Transaction, error)
}

// SubmitterFunc adapts a function to Submitter
type SubmitterFunc func(ctx context.Context, payload domain.CreateTransactionPayload) (*domain.Transaction, error)

// CreateTransaction implements Submitter
func (f SubmitterFunc) CreateTransaction(ctx context.Context, payload domain.CreateTransactionPayload) (*domain.Transaction, error) {
	return f(ctx, payload)
}

// CategorySelector supplies a category identifier for a transaction type
type CategorySelector interface {
	SelectValue(txType domain.TransactionType) (string, error)
}

// Invalidator marks a client-side cache key stale
type Invalidator interface {
	Invalidate(key string)
}

// Notifier shows transient status messages. A message replaces any earlier one with the same key.
type Notifier interface {
	Loading(key, message string)
	Success(key, message string)
	Error(key, message string)
}

// Dialog is the controller behind one "create transaction" form. The transaction type is fixed per instance.
// It is safe for concurrent use; at most one submission runs at a time.
type Dialog struct {
	txType      domain.TransactionType
	submitter   Submitter
	invalidator Invalidator
	notifier    Notifier
	now         func() time.Time

	mu      sync.Mutex
	draft   Draft
	open    bool
	pending bool
}

// Option configures a Dialog
type Option func(*Dialog)

// WithClock overrides time.Now for the draft's default date
func WithClock(now func() time.Time) Option {
	return func(d *Dialog) { d.now = now }
}

// New creates a closed dialog for txType
func New(txType domain.TransactionType, submitter Submitter, invalidator Invalidator, notifier Notifier, opts ...Option) *Dialog {
	d := &Dialog{
		txType:      txType,
		submitter:   submitter,
		invalidator: invalidator,
		notifier:    notifier,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.draft = d.defaultDraft()
	return d
}

func (d *Dialog) defaultDraft() Draft {
	return Draft{Type: d.txType, Date: d.now()}
}

// Open shows the dialog with a fresh draft dated now
func (d *Dialog) Open() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open {
		return
	}
	d.draft = d.defaultDraft()
	d.open = true
}

// IsOpen reports whether the dialog is shown
func (d *Dialog) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// IsPending reports whether a submission is in flight. The submit action should be disabled while true.
func (d *Dialog) IsPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Draft returns a copy of the current draft
func (d *Dialog) Draft() Draft {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft
}

// SetCategory assigns the category without validating it
func (d *Dialog) SetCategory(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.draft.Category = id
}

// SelectCategory asks selector for a category of the dialog's type and assigns it
func (d *Dialog) SelectCategory(selector CategorySelector) error {
	id, err := selector.SelectValue(d.txType)
	if err != nil {
		return err
	}
	d.SetCategory(id)
	return nil
}

// SetDescription replaces the draft description
func (d *Dialog) SetDescription(description string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.draft.Description = description
}

// SetAmount replaces the draft amount
func (d *Dialog) SetAmount(amount float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.draft.Amount = amount
}

// SetDate replaces the draft date; it is reduced to a calendar day on submit
func (d *Dialog) SetDate(date time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.draft.Date = date
}

// Payload builds the payload that Submit would send, with the date normalized to UTC midnight
func (d *Dialog) Payload() domain.CreateTransactionPayload {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.payloadLocked()
}

func (d *Dialog) payloadLocked() domain.CreateTransactionPayload {
	return domain.CreateTransactionPayload{
		Type:        d.draft.Type,
		Description: d.draft.Description,
		Amount:      d.draft.Amount,
		Category:    d.draft.Category,
		Date:        util.DateToUTCDate(d.draft.Date),
	}
}

// Submit validates the draft and hands it to the Submitter exactly once.
// Validation failures return a *domain.ValidationError and never reach the Submitter.
// On success the draft is reset, the overview key is invalidated and the dialog closes.
// On failure the draft and the open dialog are left as they were.
func (d *Dialog) Submit(ctx context.Context) (*domain.Transaction, error) {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return nil, ErrDialogClosed
	}
	if d.pending {
		d.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	payload := d.payloadLocked()
	if err := validation.CreateTransaction(payload); err != nil {
		d.mu.Unlock()
		return nil, err
	}
	d.pending = true
	d.mu.Unlock()

	d.notifier.Loading(NotificationKey, "Creating transaction...")

	created, err := d.submitter.CreateTransaction(ctx, payload)

	d.mu.Lock()
	d.pending = false
	if err != nil {
		d.mu.Unlock()
		d.notifier.Error(NotificationKey, "Something went wrong")
		return nil, err
	}
	d.draft = d.defaultDraft()
	d.open = false
	d.mu.Unlock()

	d.notifier.Success(NotificationKey, "Transaction created successfully 🎉")
	d.invalidator.Invalidate(domain.OverviewCacheKey)
	return created, nil
}

// Cancel discards the draft and closes the dialog. It has no effect while a submission is in flight.
func (d *Dialog) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending {
		return false
	}
	d.draft = d.defaultDraft()
	d.open = false
	return true
}
