package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  MovementType = "INCOME"
	Expense MovementType = "EXPENSE"
)

// DateLayout is the only accepted on-disk and wire date format.
const DateLayout = "2006-01-02"

const maxNoteLength = 200

type (
	MovementType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Movement is a single recorded income or expense.
	Movement struct {
		ID     string       `json:"id"`
		Type   MovementType `json:"type"`
		Amount Money        `json:"amount"`
		Note   string       `json:"note"`
		Date   Date         `json:"date"`
	}

	// MovementDraft is unvalidated user input for creating or editing a movement.
	MovementDraft struct {
		Type       MovementType `json:"type"`
		AmountText string       `json:"amount"`
		Note       string       `json:"note"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyNote     = errors.New("empty note")
	ErrNoteTooLong   = errors.New("note too long")
	ErrInvalidType   = errors.New("invalid movement type")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyID       = errors.New("empty movement id")
)

// ValidationError is returned for user input that cannot become a Movement.
// Message is suitable for showing to the user as-is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (t MovementType) Valid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

func (t *MovementType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	mt := MovementType(s)
	if !mt.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	*t = mt
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// Today returns the calendar date of now in now's own location.
func Today(now time.Time) Date {
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String returns the ISO form, YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM key of the month containing d.
func (d Date) MonthKey() string {
	return d.Format(monthKeyLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Movement) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return ErrEmptyID
	}
	if !m.Type.Valid() {
		return ErrInvalidType
	}
	if err := m.Amount.Validate(); err != nil {
		return err
	}
	if err := validateNote(m.Note); err != nil {
		return err
	}
	return m.Date.Validate()
}

// Signed returns the amount as it contributes to a balance.
func (m Movement) Signed() int64 {
	if m.Type == Income {
		return m.Amount.Cents
	}
	return -m.Amount.Cents
}

// NewMovement validates a draft and builds the movement recorded on date.
func NewMovement(d MovementDraft, id string, date Date) (Movement, error) {
	amount, note, err := d.parse()
	if err != nil {
		return Movement{}, err
	}
	m := Movement{
		ID:     id,
		Type:   d.Type,
		Amount: amount,
		Note:   note,
		Date:   date,
	}
	if err := m.Validate(); err != nil {
		return Movement{}, err
	}
	return m, nil
}

// Edit applies a draft to an existing movement. ID and date are kept.
func Edit(existing Movement, d MovementDraft) (Movement, error) {
	amount, note, err := d.parse()
	if err != nil {
		return Movement{}, err
	}
	existing.Type = d.Type
	existing.Amount = amount
	existing.Note = note
	return existing, nil
}

func (d MovementDraft) parse() (Money, string, error) {
	if !d.Type.Valid() {
		return Money{}, "", &ValidationError{
			Field:   "type",
			Message: "Choose Expense or Income.",
			Err:     ErrInvalidType,
		}
	}
	amount, ok := ParseAmount(d.AmountText)
	if !ok {
		return Money{}, "", &ValidationError{
			Field:   "amount",
			Message: "Enter a value greater than 0 (e.g. 12.50).",
			Err:     ErrInvalidAmount,
		}
	}
	note := strings.TrimSpace(d.Note)
	if err := validateNote(note); err != nil {
		msg := "Add a short description (e.g. Groceries)."
		if errors.Is(err, ErrNoteTooLong) {
			msg = fmt.Sprintf("Keep the note under %d characters.", maxNoteLength)
		}
		return Money{}, "", &ValidationError{Field: "note", Message: msg, Err: err}
	}
	return amount, note, nil
}

func validateNote(note string) error {
	note = strings.TrimSpace(note)
	if note == "" {
		return ErrEmptyNote
	}
	if utf8.RuneCountInString(note) > maxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}
