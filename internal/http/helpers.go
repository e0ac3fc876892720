package http

import (
	"strings"

	"minibudget/internal/core"
)

// sanitizeInput removes control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// statementDisplay carries the formatted amounts shown on the balance card.
type statementDisplay struct {
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
	Net      string `json:"net"`
	Balance  string `json:"balance"`
	Count    string `json:"count"`
}

type statementResponse struct {
	core.Statement
	Display statementDisplay `json:"display"`
}

func newStatementResponse(st core.Statement) statementResponse {
	return statementResponse{
		Statement: st,
		Display: statementDisplay{
			Income:   core.FormatCurrency(st.Income),
			Expenses: core.FormatCurrency(st.Expenses),
			Net:      core.FormatCurrency(st.Net),
			Balance:  core.FormatCurrency(st.Balance),
			Count:    core.CountLabel(st.Count),
		},
	}
}

type monthResponse struct {
	Month string `json:"month"`
	Label string `json:"label"`
}

func newMonthResponse(c core.MonthCursor) monthResponse {
	return monthResponse{Month: c.Key(), Label: c.Label()}
}
