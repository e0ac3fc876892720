package core

import "testing"

func mv(id string, typ MovementType, cents int64, date Date) Movement {
	return Movement{ID: id, Type: typ, Amount: Money{Cents: cents}, Note: id, Date: date}
}

func TestBuildStatement(t *testing.T) {
	items := []Movement{
		mv("salary", Income, 250000, NewDate(2026, 2, 1)),
		mv("rent", Expense, 90000, NewDate(2026, 2, 3)),
		mv("coffee", Expense, 1250, NewDate(2026, 2, 2)),
		mv("jan", Income, 999, NewDate(2026, 1, 31)),
		mv("mar", Expense, 10, NewDate(2026, 3, 1)),
	}

	st := BuildStatement(items, "2026-02")
	if st.Count != 3 {
		t.Fatalf("count=%d", st.Count)
	}
	if st.Income.Cents != 250000 || st.Expenses.Cents != 91250 {
		t.Fatalf("income=%d expenses=%d", st.Income.Cents, st.Expenses.Cents)
	}
	if st.Net.Cents != st.Income.Cents-st.Expenses.Cents {
		t.Fatalf("net=%d", st.Net.Cents)
	}
	if st.Balance != st.Net {
		t.Fatalf("balance=%d net=%d", st.Balance.Cents, st.Net.Cents)
	}

	empty := BuildStatement(items, "2024-06")
	if empty.Count != 0 || empty.Income.Cents != 0 || empty.Expenses.Cents != 0 || empty.Net.Cents != 0 {
		t.Fatalf("expected empty statement, got %+v", empty)
	}
}

func TestStatementFloatFreeSums(t *testing.T) {
	// 0.1 + 0.2 style inputs must sum exactly
	var items []Movement
	for i := 0; i < 10; i++ {
		items = append(items, mv("x", Income, 10, NewDate(2026, 2, 1)))
		items = append(items, mv("y", Expense, 20, NewDate(2026, 2, 1)))
	}
	st := BuildStatement(items, "2026-02")
	if st.Income.Cents != 100 || st.Expenses.Cents != 200 || st.Net.Cents != -100 {
		t.Fatalf("unexpected sums %+v", st)
	}
}

func TestFilterMonthKeepsOrder(t *testing.T) {
	items := []Movement{
		mv("a", Income, 1, NewDate(2026, 2, 5)),
		mv("b", Income, 1, NewDate(2026, 1, 5)),
		mv("c", Income, 1, NewDate(2026, 2, 1)),
	}
	got := FilterMonth(items, "2026-02")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("unexpected filter result: %+v", got)
	}
}

func TestCountLabel(t *testing.T) {
	if CountLabel(1) != "1 movement" || CountLabel(0) != "0 movements" || CountLabel(3) != "3 movements" {
		t.Fatalf("unexpected labels")
	}
}
