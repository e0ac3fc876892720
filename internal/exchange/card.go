package exchange

import (
	"context"
	"errors"
	"sync"

	applog "minibudget/internal/log"
)

// HighlightCodes are the quotes shown on the rates card.
var HighlightCodes = []string{"USD", "GBP", "BRL"}

// ViewState is the rates card state. Exactly one variant applies at a time.
type ViewState interface {
	Name() string
	viewState()
}

type (
	Idle    struct{}
	Loading struct{}
	Failed  struct{ Reason string }
	Ready   struct{ Snapshot Snapshot }
)

func (Idle) Name() string    { return "idle" }
func (Loading) Name() string { return "loading" }
func (Failed) Name() string  { return "error" }
func (Ready) Name() string   { return "ready" }

func (Idle) viewState()    {}
func (Loading) viewState() {}
func (Failed) viewState()  {}
func (Ready) viewState()   {}

// Fetcher is the subset of Client the card needs.
type Fetcher interface {
	FetchRates(ctx context.Context, base string) (Snapshot, error)
}

// Card drives the rates card through Idle, Loading and then Ready or Failed.
type Card struct {
	fetcher Fetcher
	base    string
	logger  *applog.Logger

	mu    sync.RWMutex
	state ViewState
}

func NewCard(f Fetcher, base string, logger *applog.Logger) *Card {
	if base == "" {
		base = DefaultCurrency
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &Card{
		fetcher: f,
		base:    base,
		logger:  logger.WithComponent(applog.ComponentExchange),
		state:   Idle{},
	}
}

func (c *Card) Base() string { return c.base }

func (c *Card) State() ViewState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Refresh fetches once and returns the resulting state.
func (c *Card) Refresh(ctx context.Context) ViewState {
	c.set(Loading{})

	snap, err := c.fetcher.FetchRates(ctx, c.base)
	if err != nil {
		c.logger.WarnContext(ctx, "Rates refresh failed",
			applog.FieldOperation, applog.OpFetch,
			applog.FieldBase, c.base,
			applog.FieldErrorType, errorType(err),
			applog.FieldError, err)
		return c.set(Failed{Reason: err.Error()})
	}
	c.logger.DebugContext(ctx, "Rates refreshed", applog.FieldBase, snap.Base, "date", snap.Date)
	return c.set(Ready{Snapshot: snap})
}

func (c *Card) set(s ViewState) ViewState {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	return s
}

func errorType(err error) string {
	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr):
		return applog.ErrorTypeUpstream
	case errors.Is(err, ErrDecode):
		return applog.ErrorTypeUpstream
	default:
		return applog.ErrorTypeNetwork
	}
}
