package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"minibudget/internal/core"
)

func TestJSONResponseBuilder(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/movements/1").
		Body(map[string]int{"count": 2}).
		Write(rr)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Fatalf("content type %q", got)
	}
	if rr.Header().Get("Location") != "/api/movements/1" {
		t.Fatalf("location header missing")
	}
	var body map[string]int
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["count"] != 2 {
		t.Fatalf("body %q (err %v)", rr.Body.String(), err)
	}
}

func TestNoContentHasNoBody(t *testing.T) {
	rr := httptest.NewRecorder()
	NoContent().Body("ignored").Write(rr)
	if rr.Code != http.StatusNoContent || rr.Body.Len() != 0 {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Content-Type") != "" {
		t.Fatalf("unexpected content type on 204")
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name   string
		b      *JSONResponseBuilder
		status int
		retry  string
	}{
		{"bad request", BadRequestError("x"), http.StatusBadRequest, ""},
		{"internal", InternalServerError("x"), http.StatusInternalServerError, ""},
		{"unavailable", ServiceUnavailableError("x"), http.StatusServiceUnavailable, "1"},
		{"bad gateway", BadGatewayError("x"), http.StatusBadGateway, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.b.Write(rr)
			if rr.Code != tt.status {
				t.Fatalf("status=%d want %d", rr.Code, tt.status)
			}
			if rr.Header().Get("Retry-After") != tt.retry {
				t.Fatalf("Retry-After=%q", rr.Header().Get("Retry-After"))
			}
			var body errorBody
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body.Error != "x" {
				t.Fatalf("body %q (err %v)", rr.Body.String(), err)
			}
		})
	}
}

func TestValidationErrorResponse(t *testing.T) {
	ve := &core.ValidationError{Field: "amount", Message: "Enter a value greater than 0 (e.g. 12.50).", Err: core.ErrInvalidAmount}

	rr := httptest.NewRecorder()
	ValidationErrorResponse(fmt.Errorf("add: %w", ve)).Write(rr)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d", rr.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Field != "amount" || body.Message != ve.Message {
		t.Fatalf("unexpected body %+v", body)
	}

	rr = httptest.NewRecorder()
	ValidationErrorResponse(errors.New("plain")).Write(rr)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("plain status=%d", rr.Code)
	}
}
