package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"minibudget/internal/core"
)

func newBodyRequest(body, contentType string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return r
}

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		isJSON bool
		note   string
		amount string
	}{
		{"json strings", `{"note":" Rent ","amount":"800"}`, true, "Rent", "800"},
		{"json number", `{"note":"Rent","amount":12.5}`, true, "Rent", "12.5"},
		{"json large number", `{"note":"x","amount":123456789.01}`, true, "x", "123456789.01"},
		{"form", "note=Rent&amount=12%2C50", false, "Rent", "12,50"},
		{"control chars", "{\"note\":\"a\\u0000b\\u0007c\"}", true, "abc", ""},
		{"empty", "", false, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewRequestBodyParser(httptest.NewRecorder(), newBodyRequest(tt.body, ""))
			if err := p.Parse(); err != nil {
				t.Fatalf("parse: %v", err)
			}
			if p.IsJSON() != tt.isJSON {
				t.Fatalf("IsJSON=%v", p.IsJSON())
			}
			if got := p.Get("note"); got != tt.note {
				t.Fatalf("note=%q want %q", got, tt.note)
			}
			if got := p.Get("amount"); got != tt.amount {
				t.Fatalf("amount=%q want %q", got, tt.amount)
			}
			if p.Get("missing") != "" {
				t.Fatalf("missing key should be empty")
			}
		})
	}
}

func TestRequestBodyParserMalformed(t *testing.T) {
	for _, body := range []string{`{"note":`, `{"note":"x"`, "note=%zz"} {
		p := NewRequestBodyParser(httptest.NewRecorder(), newBodyRequest(body, ""))
		if err := p.Parse(); !errors.Is(err, ErrMalformedBody) {
			t.Fatalf("%q: expected ErrMalformedBody, got %v", body, err)
		}
	}
}

func TestRequestBodyParserTooLarge(t *testing.T) {
	body := `{"note":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	p := NewRequestBodyParser(httptest.NewRecorder(), newBodyRequest(body, "application/json"))
	if err := p.Parse(); !errors.Is(err, ErrMalformedBody) {
		t.Fatalf("expected ErrMalformedBody, got %v", err)
	}
}

func TestParseMovementDraft(t *testing.T) {
	r := newBodyRequest(`{"type":"income","amount":"1500","note":"Salary"}`, "application/json")
	d, err := ParseMovementDraft(httptest.NewRecorder(), r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := core.MovementDraft{Type: core.Income, AmountText: "1500", Note: "Salary"}
	if d != want {
		t.Fatalf("draft %+v want %+v", d, want)
	}
}

func TestParseMonthQuery(t *testing.T) {
	fallback := core.NewMonthCursor(time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC))

	c, err := ParseMonthQuery(url.Values{}, fallback)
	if err != nil || c.Key() != "2026-02" {
		t.Fatalf("fallback: %v %v", c.Key(), err)
	}
	c, err = ParseMonthQuery(url.Values{"month": {" 2025-12 "}}, fallback)
	if err != nil || c.Key() != "2025-12" {
		t.Fatalf("explicit: %v %v", c.Key(), err)
	}
	if _, err := ParseMonthQuery(url.Values{"month": {"2025-1"}}, fallback); err == nil {
		t.Fatalf("expected error for short month")
	}
}
