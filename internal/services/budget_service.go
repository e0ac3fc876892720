package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"minibudget/internal/amqp"
	"minibudget/internal/core"
	"minibudget/internal/exchange"
	"minibudget/internal/ledger"
	applog "minibudget/internal/log"
)

const (
	emptyLedgerText = "No movements yet. Add your first one above."
	emptyMonthText  = "No movements in this month."
)

var ErrInvalidDelta = errors.New("month delta must be -1 or +1")

// EventPublisher is implemented by *amqp.Client.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error
}

// RatesFetcher is implemented by *exchange.Client.
type RatesFetcher interface {
	FetchRates(ctx context.Context, base string) (exchange.Snapshot, error)
}

type Options struct {
	// Clock defaults to time.Now. The local calendar date of Clock() is the
	// date recorded on new movements.
	Clock func() time.Time
	// NewID defaults to uuid.NewString.
	NewID func() string
	// StatementTTL bounds how long a computed statement is memoized.
	StatementTTL time.Duration
	// RatesBase is the currency the rates card quotes from.
	RatesBase string
	Publisher EventPublisher
	Logger    *applog.Logger
}

// LedgerView is what the movement list renders.
type LedgerView struct {
	Items   []core.Movement `json:"items"`
	Loading bool            `json:"loading"`
}

// MonthView is the statement screen for one month.
type MonthView struct {
	Month      string          `json:"month"`
	Label      string          `json:"label"`
	Items      []core.Movement `json:"items"`
	Statement  core.Statement  `json:"statement"`
	CountLabel string          `json:"count_label"`
	EmptyText  string          `json:"empty_text,omitempty"`
	Loading    bool            `json:"loading"`
}

// BudgetService orchestrates the ledger, the month cursor, statements,
// exchange rates and event publishing.
type BudgetService struct {
	store     *ledger.Store
	rates     RatesFetcher
	card      *exchange.Card
	publisher EventPublisher
	logger    *applog.Logger
	clock     func() time.Time
	newID     func() string
	// epoch tags published events; ledger revisions restart with the process
	epoch string

	statements *gocache.Cache

	cursorMu sync.RWMutex
	cursor   core.MonthCursor
}

func NewBudgetService(store *ledger.Store, rates RatesFetcher, opts Options) *BudgetService {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.StatementTTL <= 0 {
		opts.StatementTTL = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = applog.Discard()
	}
	logger := opts.Logger.WithComponent(applog.ComponentService)

	s := &BudgetService{
		store:      store,
		rates:      rates,
		publisher:  opts.Publisher,
		logger:     logger,
		clock:      opts.Clock,
		newID:      opts.NewID,
		epoch:      uuid.NewString(),
		statements: gocache.New(opts.StatementTTL, 2*opts.StatementTTL),
		cursor:     core.NewMonthCursor(opts.Clock()),
	}
	if rates != nil {
		s.card = exchange.NewCard(rates, opts.RatesBase, opts.Logger)
	}
	return s
}

// Start hydrates the ledger. A storage failure is logged by the store and
// the service continues with an empty ledger.
func (s *BudgetService) Start(ctx context.Context) error {
	return s.store.Load(ctx)
}

func (s *BudgetService) Ready() bool {
	return s.store.State() == ledger.Ready
}

// LoadLedger returns the current items, newest first. Loading is true until
// the initial hydration has completed.
func (s *BudgetService) LoadLedger(ctx context.Context) LedgerView {
	if !s.Ready() {
		return LedgerView{Items: []core.Movement{}, Loading: true}
	}
	return LedgerView{Items: s.store.Items()}
}

// AddMovement records a new movement dated today.
func (s *BudgetService) AddMovement(ctx context.Context, d core.MovementDraft) (core.Movement, error) {
	m, err := core.NewMovement(d, s.newID(), core.Today(s.clock()))
	if err != nil {
		return core.Movement{}, err
	}
	if err := s.store.Add(ctx, m); err != nil {
		return m, err
	}
	s.logger.InfoContext(ctx, "Movement added",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldMovementID, m.ID,
		applog.FieldMovementType, string(m.Type),
		applog.FieldAmountCents, m.Amount.Cents)
	s.publish(ctx, amqp.OpCreated, m, "")
	return m, nil
}

// UpdateMovement applies a draft to the movement with id. The id and date
// are kept. It reports false, and changes nothing, when id is unknown.
func (s *BudgetService) UpdateMovement(ctx context.Context, id string, d core.MovementDraft) (core.Movement, bool, error) {
	if !s.Ready() {
		return core.Movement{}, false, ledger.ErrNotReady
	}
	existing, ok := s.store.Get(id)
	if !ok {
		s.logger.DebugContext(ctx, "Update for unknown movement ignored", applog.FieldMovementID, id)
		return core.Movement{}, false, nil
	}
	edited, err := core.Edit(existing, d)
	if err != nil {
		return core.Movement{}, false, err
	}
	ok, err = s.ReplaceMovement(ctx, edited)
	return edited, ok, err
}

// ReplaceMovement stores m in place of the movement with the same id.
func (s *BudgetService) ReplaceMovement(ctx context.Context, m core.Movement) (bool, error) {
	previous, _ := s.store.Get(m.ID)
	ok, err := s.store.Update(ctx, m)
	if err != nil || !ok {
		return ok, err
	}
	s.logger.InfoContext(ctx, "Movement updated",
		applog.FieldOperation, applog.OpUpdate,
		applog.FieldMovementID, m.ID,
		applog.FieldAmountCents, m.Amount.Cents)
	prevMonth := previous.Date.MonthKey()
	if prevMonth == m.Date.MonthKey() {
		prevMonth = ""
	}
	s.publish(ctx, amqp.OpUpdated, m, prevMonth)
	return true, nil
}

// RemoveMovement deletes the movement with id. Unknown ids are a no-op.
func (s *BudgetService) RemoveMovement(ctx context.Context, id string) (bool, error) {
	existing, _ := s.store.Get(id)
	ok, err := s.store.Remove(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	s.logger.InfoContext(ctx, "Movement removed",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldMovementID, id)
	s.publish(ctx, amqp.OpDeleted, existing, "")
	return true, nil
}

// CurrentMonth returns the month the statement view is on.
func (s *BudgetService) CurrentMonth() core.MonthCursor {
	s.cursorMu.RLock()
	defer s.cursorMu.RUnlock()
	return s.cursor
}

// SelectMonth moves the cursor one month back (-1) or forward (+1).
func (s *BudgetService) SelectMonth(delta int) (core.MonthCursor, error) {
	if delta != -1 && delta != 1 {
		return s.CurrentMonth(), ErrInvalidDelta
	}
	s.cursorMu.Lock()
	defer s.cursorMu.Unlock()
	s.cursor = s.cursor.Move(delta)
	return s.cursor, nil
}

// StatementFor aggregates the month named by monthKey. Results are memoized
// per ledger revision.
func (s *BudgetService) StatementFor(monthKey string) core.Statement {
	items, rev := s.store.Snapshot()
	return s.statement(items, rev, monthKey)
}

func (s *BudgetService) statement(items []core.Movement, rev uint64, monthKey string) core.Statement {
	key := fmt.Sprintf("%d:%s", rev, monthKey)
	if v, ok := s.statements.Get(key); ok {
		return v.(core.Statement)
	}
	st := core.BuildStatement(items, monthKey)
	s.statements.SetDefault(key, st)
	return st
}

// MonthView builds the statement screen for monthKey.
func (s *BudgetService) MonthView(monthKey string) (MonthView, error) {
	cursor, err := core.CursorForKey(monthKey)
	if err != nil {
		return MonthView{}, err
	}
	if !s.Ready() {
		return MonthView{
			Month:      cursor.Key(),
			Label:      cursor.Label(),
			Items:      []core.Movement{},
			Statement:  core.Statement{MonthKey: cursor.Key()},
			CountLabel: core.CountLabel(0),
			Loading:    true,
		}, nil
	}

	items, rev := s.store.Snapshot()
	inMonth := core.FilterMonth(items, cursor.Key())
	st := s.statement(items, rev, cursor.Key())

	view := MonthView{
		Month:      cursor.Key(),
		Label:      cursor.Label(),
		Items:      inMonth,
		Statement:  st,
		CountLabel: core.CountLabel(st.Count),
	}
	switch {
	case len(items) == 0:
		view.EmptyText = emptyLedgerText
	case len(inMonth) == 0:
		view.EmptyText = emptyMonthText
	}
	return view, nil
}

// FetchRateSnapshot performs one rates request for base.
func (s *BudgetService) FetchRateSnapshot(ctx context.Context, base string) (exchange.Snapshot, error) {
	if s.rates == nil {
		return exchange.Snapshot{}, fmt.Errorf("%w: rates client not configured", exchange.ErrNetwork)
	}
	snap, err := s.rates.FetchRates(ctx, base)
	if err != nil {
		s.logger.WarnContext(ctx, "Rate snapshot failed",
			applog.FieldOperation, applog.OpFetch,
			applog.FieldBase, base,
			applog.FieldError, err)
		return exchange.Snapshot{}, err
	}
	return snap, nil
}

// RatesCard returns the rates card, or nil when no rates client is set.
func (s *BudgetService) RatesCard() *exchange.Card {
	return s.card
}

func (s *BudgetService) publish(ctx context.Context, op amqp.LedgerOp, m core.Movement, prevMonth string) {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "AMQP publisher not available, skipping ledger event")
		return
	}
	items, rev := s.store.Snapshot()
	msg := amqp.NewLedgerEventMessage(op, m.ID, m.Date.MonthKey(), rev, len(items))
	msg.PreviousMonth = prevMonth
	msg.Epoch = s.epoch
	if err := s.publisher.PublishLedgerEvent(ctx, msg); err != nil {
		// the change is already persisted locally
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			applog.FieldOperation, applog.OpPublish,
			applog.FieldMovementID, m.ID,
			applog.FieldErrorType, applog.ErrorTypeNetwork,
			applog.FieldError, err)
	}
}
