package core

import "fmt"

// Statement is the aggregated view of one month.
//
// Balance is the signed sum of the same filtered movements, so it always
// equals Net; it is kept as its own field for the balance card.
type Statement struct {
	MonthKey string `json:"month"`
	Income   Money  `json:"income"`
	Expenses Money  `json:"expenses"`
	Net      Money  `json:"net"`
	Balance  Money  `json:"balance"`
	Count    int    `json:"count"`
}

// FilterMonth returns the movements whose date falls in the month key,
// preserving their order.
func FilterMonth(items []Movement, monthKey string) []Movement {
	out := make([]Movement, 0, len(items))
	for _, m := range items {
		if m.Date.MonthKey() == monthKey {
			out = append(out, m)
		}
	}
	return out
}

// BuildStatement aggregates the movements of one month. Amounts are summed
// in cents, which keeps Net == Income - Expenses exact.
func BuildStatement(items []Movement, monthKey string) Statement {
	st := Statement{MonthKey: monthKey}
	var balance int64
	for _, m := range items {
		if m.Date.MonthKey() != monthKey {
			continue
		}
		st.Count++
		balance += m.Signed()
		switch m.Type {
		case Income:
			st.Income.Cents += m.Amount.Cents
		case Expense:
			st.Expenses.Cents += m.Amount.Cents
		}
	}
	st.Net = Money{Cents: st.Income.Cents - st.Expenses.Cents}
	st.Balance = Money{Cents: balance}
	return st
}

// CountLabel renders "1 movement" or "N movements".
func CountLabel(n int) string {
	if n == 1 {
		return "1 movement"
	}
	return fmt.Sprintf("%d movements", n)
}
