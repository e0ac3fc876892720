package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"minibudget/internal/core"
)

const maxBodyBytes = 64 << 10

var ErrMalformedBody = errors.New("malformed request body")

// RequestBodyParser reads a JSON object or a form-encoded body once and
// exposes its fields as strings.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads at most maxBodyBytes of the request body.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		p.err = fmt.Errorf("%w: %w", ErrMalformedBody, p.err)
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: %w", ErrMalformedBody, err)
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	if p.err != nil {
		p.err = fmt.Errorf("%w: %w", ErrMalformedBody, p.err)
	}
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseMovementDraft reads {type, amount, note} from a JSON or form body.
// The type is matched case-insensitively; all other validation is left to
// core so the user sees the same messages everywhere.
func ParseMovementDraft(w http.ResponseWriter, r *http.Request) (core.MovementDraft, error) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		return core.MovementDraft{}, err
	}
	return core.MovementDraft{
		Type:       core.MovementType(strings.ToUpper(p.Get("type"))),
		AmountText: p.Get("amount"),
		Note:       p.Get("note"),
	}, nil
}

// ParseMonthQuery returns the month named by the "month" query parameter,
// or fallback when it is absent.
func ParseMonthQuery(query url.Values, fallback core.MonthCursor) (core.MonthCursor, error) {
	v := strings.TrimSpace(query.Get("month"))
	if v == "" {
		return fallback, nil
	}
	return core.CursorForKey(v)
}
