package domain

import "github.com/shopspring/decimal"

// Summary is a derived rollup over the current snapshot. It is never stored.
type Summary struct {
	NextMonth   NextMonthSummary   `json:"nextMonth"`
	Installment InstallmentSummary `json:"installment"`
	GrandTotal  decimal.Decimal    `json:"grandTotal"`
	Reminders   Reminders          `json:"reminders"`
}

type NextMonthSummary struct {
	Total     decimal.Decimal `json:"total"`
	Paid      decimal.Decimal `json:"paid"`
	Partial   decimal.Decimal `json:"partial"`
	Remaining decimal.Decimal `json:"remaining"`
}

type InstallmentSummary struct {
	Total           decimal.Decimal `json:"total"`
	PaidTerms       int             `json:"paidTerms"`
	RemainingTerms  int             `json:"remainingTerms"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
}

// Reminders counts obligations that are overdue or due within the window.
type Reminders struct {
	Overdue    int `json:"overdue"`
	Upcoming   int `json:"upcoming"`
	WindowDays int `json:"windowDays"`
}

// Composition splits outstanding debt by loan type.
type Composition struct {
	NextMonth   decimal.Decimal `json:"nextMonth"`
	Installment decimal.Decimal `json:"installment"`
}

// MonthlyProjection is the amount falling due in one calendar month.
type MonthlyProjection struct {
	Month       string          `json:"month"` // YYYY-MM
	NextMonth   decimal.Decimal `json:"nextMonth"`
	Installment decimal.Decimal `json:"installment"`
}
