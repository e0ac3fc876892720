package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"minibudget/internal/core"
	"minibudget/internal/exchange"
	"minibudget/internal/ledger"
	applog "minibudget/internal/log"
)

// writeMutationError maps service errors to responses.
func (s *Server) writeMutationError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		ValidationErrorResponse(err).Write(w)
	case errors.Is(err, ErrMalformedBody):
		BadRequestError("malformed request body").Write(w)
	case errors.Is(err, ledger.ErrNotReady):
		ServiceUnavailableError("ledger loading").Write(w)
	case errors.Is(err, ledger.ErrStorageWrite):
		s.errs.LogError(r.Context(), "Movement kept in memory but not saved", err, applog.ErrorTypeStorage, op)
		InternalServerError(ledger.ErrStorageWrite.Error()).Write(w)
	default:
		s.errs.LogError(r.Context(), "Movement request failed", err, applog.ErrorTypeInternal, op)
		InternalServerError("internal error").Write(w)
	}
}

func (s *Server) handleListMovements(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.svc.LoadLedger(r.Context())).Write(w)
}

func (s *Server) handleCreateMovement(w http.ResponseWriter, r *http.Request) {
	draft, err := ParseMovementDraft(w, r)
	if err != nil {
		s.writeMutationError(w, r, applog.OpCreate, err)
		return
	}
	m, err := s.svc.AddMovement(r.Context(), draft)
	if err != nil {
		s.writeMutationError(w, r, applog.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/movements/"+m.ID).
		Body(m).
		Write(w)
}

// handleUpdateMovement answers 204 for an unknown id; nothing is changed.
func (s *Server) handleUpdateMovement(w http.ResponseWriter, r *http.Request) {
	draft, err := ParseMovementDraft(w, r)
	if err != nil {
		s.writeMutationError(w, r, applog.OpUpdate, err)
		return
	}
	m, ok, err := s.svc.UpdateMovement(r.Context(), chi.URLParam(r, "id"), draft)
	if err != nil {
		s.writeMutationError(w, r, applog.OpUpdate, err)
		return
	}
	if !ok {
		NoContent().Write(w)
		return
	}
	NewJSONResponse().Body(m).Write(w)
}

func (s *Server) handleDeleteMovement(w http.ResponseWriter, r *http.Request) {
	if _, err := s.svc.RemoveMovement(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeMutationError(w, r, applog.OpDelete, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleCurrentMonth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(newMonthResponse(s.svc.CurrentMonth())).Write(w)
}

func (s *Server) handleMoveMonth(delta int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := s.svc.SelectMonth(delta)
		if err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		NewJSONResponse().Body(newMonthResponse(c)).Write(w)
	}
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	c, err := ParseMonthQuery(r.URL.Query(), s.svc.CurrentMonth())
	if err != nil {
		BadRequestError("month must be YYYY-MM").Write(w)
		return
	}
	NewJSONResponse().Body(newStatementResponse(s.svc.StatementFor(c.Key()))).Write(w)
}

func (s *Server) handleMonthView(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.MonthView(chi.URLParam(r, "month"))
	if err != nil {
		BadRequestError("month must be YYYY-MM").Write(w)
		return
	}
	NewJSONResponse().Body(struct {
		Month      string          `json:"month"`
		Label      string          `json:"label"`
		Items      []core.Movement `json:"items"`
		Statement  any             `json:"statement"`
		CountLabel string          `json:"count_label"`
		EmptyText  string          `json:"empty_text,omitempty"`
		Loading    bool            `json:"loading"`
	}{
		Month:      view.Month,
		Label:      view.Label,
		Items:      view.Items,
		Statement:  newStatementResponse(view.Statement),
		CountLabel: view.CountLabel,
		EmptyText:  view.EmptyText,
		Loading:    view.Loading,
	}).Write(w)
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.FetchRateSnapshot(r.Context(), r.URL.Query().Get("base"))
	if err != nil {
		BadGatewayError(upstreamMessage(err)).Write(w)
		return
	}
	NewJSONResponse().Body(snap).Write(w)
}

func (s *Server) handleRatesCard(w http.ResponseWriter, r *http.Request) {
	card := s.svc.RatesCard()
	if card == nil {
		ServiceUnavailableError("exchange rates not configured").Write(w)
		return
	}
	NewJSONResponse().Body(newCardResponse(card.State())).Write(w)
}

func (s *Server) handleRefreshRatesCard(w http.ResponseWriter, r *http.Request) {
	card := s.svc.RatesCard()
	if card == nil {
		ServiceUnavailableError("exchange rates not configured").Write(w)
		return
	}
	NewJSONResponse().Body(newCardResponse(card.Refresh(r.Context()))).Write(w)
}

// upstreamMessage is "HTTP <status>" for upstream status failures.
func upstreamMessage(err error) string {
	var httpErr *exchange.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Error()
	case errors.Is(err, exchange.ErrDecode):
		return "invalid response from rates provider"
	default:
		return "rates provider unreachable"
	}
}

type rateLine struct {
	Code string  `json:"code"`
	Rate float64 `json:"rate"`
}

type cardResponse struct {
	State      string             `json:"state"`
	Reason     string             `json:"reason,omitempty"`
	Snapshot   *exchange.Snapshot `json:"snapshot,omitempty"`
	Highlights []rateLine         `json:"highlights,omitempty"`
}

func newCardResponse(st exchange.ViewState) cardResponse {
	resp := cardResponse{State: st.Name()}
	switch v := st.(type) {
	case exchange.Failed:
		resp.Reason = v.Reason
	case exchange.Ready:
		snap := v.Snapshot
		resp.Snapshot = &snap
		for _, code := range exchange.HighlightCodes {
			if rate, ok := snap.Rate(code); ok {
				resp.Highlights = append(resp.Highlights, rateLine{Code: code, Rate: rate})
			}
		}
	}
	return resp
}
