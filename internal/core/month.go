package core

import "time"

const monthKeyLayout = "2006-01"

// MonthKey returns the YYYY-MM prefix of an ISO date, or "" when dateISO
// is not a well-formed YYYY-MM-DD date.
func MonthKey(dateISO string) string {
	d, err := ParseDate(dateISO)
	if err != nil {
		return ""
	}
	return d.MonthKey()
}

// ParseMonthKey parses a YYYY-MM key into the first day of that month.
func ParseMonthKey(key string) (time.Time, error) {
	t, err := time.Parse(monthKeyLayout, key)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// StartOfMonth returns midnight on the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// AddMonths moves delta months from t's month and returns the first day of
// the result. Pinning the day to 1 avoids Jan 31 + 1 landing in March.
func AddMonths(t time.Time, delta int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(delta), 1, 0, 0, 0, 0, t.Location())
}

// MonthLabel renders a header label such as "February 2026".
func MonthLabel(t time.Time) string {
	return t.Format("January 2006")
}

// MonthCursor is the month selected for the statement view. It always
// points at the first day of a month.
type MonthCursor struct {
	start time.Time
}

// NewMonthCursor returns a cursor on the month containing now.
func NewMonthCursor(now time.Time) MonthCursor {
	return MonthCursor{start: StartOfMonth(now)}
}

// CursorForKey returns a cursor on the month named by a YYYY-MM key.
func CursorForKey(key string) (MonthCursor, error) {
	t, err := ParseMonthKey(key)
	if err != nil {
		return MonthCursor{}, err
	}
	return MonthCursor{start: t}, nil
}

func (c MonthCursor) Start() time.Time { return c.start }

func (c MonthCursor) Key() string { return c.start.Format(monthKeyLayout) }

func (c MonthCursor) Label() string { return MonthLabel(c.start) }

func (c MonthCursor) Move(delta int) MonthCursor {
	return MonthCursor{start: AddMonths(c.start, delta)}
}

func (c MonthCursor) Prev() MonthCursor { return c.Move(-1) }

func (c MonthCursor) Next() MonthCursor { return c.Move(1) }

// Contains reports whether m was recorded in the cursor's month.
func (c MonthCursor) Contains(m Movement) bool {
	return m.Date.MonthKey() == c.Key()
}
