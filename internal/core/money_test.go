package core

import (
	"testing"
	"time"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half away from zero
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"12.50", 1250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1,2,3", 0, false},
		{"", 0, false},
		{"   ", 0, false},
		{"NaN", 0, false},
		{"99999999999999999999999", 0, false},
		{"1e2", 10000, true},
		{"1e10000000", 0, false},
		{"1e-10000000", 0, false},
		{"0e999999999", 0, false},
		{"1.000000000000000000000000000000001", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseAmount(tc.in)
		if ok != tc.ok {
			t.Fatalf("%q expected ok=%v, got %v", tc.in, tc.ok, ok)
		}
		if ok && got.Cents != tc.out {
			t.Fatalf("%q expected %d, got %d", tc.in, tc.out, got.Cents)
		}
	}
}

func TestParseAmountHugeExponentIsCheap(t *testing.T) {
	start := time.Now()
	for _, in := range []string{"1e2147483647", "9e-2147483647", "1e10000000"} {
		if _, ok := ParseAmount(in); ok {
			t.Fatalf("%q should be rejected", in)
		}
		var m Money
		if err := m.UnmarshalJSON([]byte(in)); err == nil {
			t.Fatalf("%q should not decode", in)
		}
	}
	if d := time.Since(start); d > 100*time.Millisecond {
		t.Fatalf("rejecting large exponents took %v", d)
	}
}

func TestParseDecimalToCents(t *testing.T) {
	if c, err := ParseDecimalToCents("3,5"); err != nil || c != 350 {
		t.Fatalf("expected 350, got %d (err=%v)", c, err)
	}
	if _, err := ParseDecimalToCents("x"); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestFormatAmountRoundTrip(t *testing.T) {
	for _, cents := range []int64{1, 5, 10, 99, 100, 1250, 123456, 100000001} {
		s := FormatAmount(Money{Cents: cents})
		back, ok := ParseAmount(s)
		if !ok || back.Cents != cents {
			t.Fatalf("%d -> %q -> %d (ok=%v)", cents, s, back.Cents, ok)
		}
	}
	if got := FormatAmount(Money{Cents: 1250}); got != "12.50" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := map[int64]string{
		0:        "€0.00",
		5:        "€0.05",
		1250:     "€12.50",
		-1250:    "-€12.50",
		123450:   "€1,234.50",
		10000000: "€100,000.00",
	}
	for cents, want := range cases {
		if got := FormatCurrency(Money{Cents: cents}); got != want {
			t.Errorf("FormatCurrency(%d) = %q, want %q", cents, got, want)
		}
	}
}
