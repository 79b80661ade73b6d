package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	LoanStatusUnpaid  = "unpaid"
	LoanStatusPartial = "partial"
	LoanStatusPaid    = "paid"
)

// NextMonthLoan represents a loan borrowed this cycle and due next cycle
type NextMonthLoan struct {
	ID              string           `json:"id"`
	Platform        string           `json:"platform" validate:"required"`
	Amount          decimal.Decimal  `json:"amount" validate:"gt=0"`
	BorrowDate      Date             `json:"borrowDate"`
	RepayDate       Date             `json:"repayDate"`
	Rate            decimal.Decimal  `json:"rate" validate:"gte=0,lte=100"`
	MinPaymentRate  *decimal.Decimal `json:"minPaymentRate,omitempty" validate:"omitempty,gte=0.05,lte=0.3"`
	Status          string           `json:"status" validate:"oneof=unpaid partial paid"`
	PartialAmount   *decimal.Decimal `json:"partialAmount,omitempty"`
	LastPaymentDate *time.Time       `json:"lastPaymentDate,omitempty"`
	Remarks         string           `json:"remarks"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// IsPaid returns true once the loan reached its terminal state.
func (l *NextMonthLoan) IsPaid() bool {
	return l.Status == LoanStatusPaid
}

// PaidSoFar returns the cumulative partial amount, zero when none was paid.
func (l *NextMonthLoan) PaidSoFar() decimal.Decimal {
	if l.PartialAmount == nil {
		return decimal.Zero
	}
	return *l.PartialAmount
}

// Outstanding returns what is still owed on the loan.
func (l *NextMonthLoan) Outstanding() decimal.Decimal {
	switch l.Status {
	case LoanStatusPaid:
		return decimal.Zero
	case LoanStatusPartial:
		return l.Amount.Sub(l.PaidSoFar())
	default:
		return l.Amount
	}
}

// EffectiveMinPaymentRate returns the loan override or the global fallback.
func (l *NextMonthLoan) EffectiveMinPaymentRate(global decimal.Decimal) decimal.Decimal {
	if l.MinPaymentRate != nil && l.MinPaymentRate.IsPositive() {
		return *l.MinPaymentRate
	}
	return global
}

// Clone returns a deep copy of the loan.
func (l *NextMonthLoan) Clone() *NextMonthLoan {
	c := *l
	if l.MinPaymentRate != nil {
		v := *l.MinPaymentRate
		c.MinPaymentRate = &v
	}
	if l.PartialAmount != nil {
		v := *l.PartialAmount
		c.PartialAmount = &v
	}
	if l.LastPaymentDate != nil {
		v := *l.LastPaymentDate
		c.LastPaymentDate = &v
	}
	return &c
}

// DTOs for requests and responses

// CreateNextMonthLoanRequest carries raw inputs for a new next-month loan.
// MinRate is a percentage (10 for 10%); nil falls back to the global rate.
type CreateNextMonthLoanRequest struct {
	Platform   string           `json:"platform" validate:"required"`
	Amount     decimal.Decimal  `json:"amount"`
	BorrowDate string           `json:"borrowDate" validate:"required"`
	RepayDate  string           `json:"repayDate" validate:"required"`
	Rate       decimal.Decimal  `json:"rate"`
	MinRate    *decimal.Decimal `json:"minRate"`
	Remarks    string           `json:"remarks"`
}

// NextMonthLoanUpdate lists the editable fields of a next-month loan. Nil
// fields are left untouched.
type NextMonthLoanUpdate struct {
	Platform   *string          `json:"platform"`
	Amount     *decimal.Decimal `json:"amount"`
	BorrowDate *string          `json:"borrowDate"`
	RepayDate  *string          `json:"repayDate"`
	Rate       *decimal.Decimal `json:"rate"`
	MinRate    *decimal.Decimal `json:"minRate"`
	Remarks    *string          `json:"remarks"`
}

type MinimumPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

// SettlementKind tells whether a payment closed the loan or rolled it over.
type SettlementKind string

const (
	SettledFull    SettlementKind = "settled_full"
	SettledPartial SettlementKind = "settled_partial"
)

// PaymentOutcome is the result of processing a minimum or custom payment.
type PaymentOutcome struct {
	Kind           SettlementKind  `json:"kind"`
	Loan           *NextMonthLoan  `json:"loan"`
	Successor      *NextMonthLoan  `json:"successor,omitempty"`
	Record         *PaymentRecord  `json:"record"`
	MinimumPayment decimal.Decimal `json:"minimumPayment"`
}

// SuccessorID returns the id of the spawned rollover loan, if any.
func (o *PaymentOutcome) SuccessorID() string {
	if o.Successor == nil {
		return ""
	}
	return o.Successor.ID
}

type MinimumPaymentResponse struct {
	LoanID         string          `json:"loanId"`
	MinimumPayment decimal.Decimal `json:"minimumPayment"`
	Outstanding    decimal.Decimal `json:"outstanding"`
}
