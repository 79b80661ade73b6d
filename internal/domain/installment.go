package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Business logic constants
const (
	InstallmentStatusUnpaid = "unpaid"
	InstallmentStatusPaid   = "paid"
)

// InstallmentLoan represents a fixed-term amortizing loan
type InstallmentLoan struct {
	ID             string          `json:"id"`
	Platform       string          `json:"platform" validate:"required"`
	Amount         decimal.Decimal `json:"amount" validate:"gt=0"`
	Terms          int             `json:"terms" validate:"gt=0"`
	Rate           decimal.Decimal `json:"rate" validate:"gte=0"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment" validate:"gte=0"`
	BorrowDate     Date            `json:"borrowDate"`
	NextRepayDate  Date            `json:"nextRepayDate"`
	Installments   []*Installment  `json:"installments"`
	Remarks        string          `json:"remarks"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Installment represents one dated term of an installment loan
type Installment struct {
	ID     string          `json:"id"`
	Term   int             `json:"term"`
	Date   Date            `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status"` // unpaid, paid
}

func (i *Installment) IsPaid() bool {
	return i.Status == InstallmentStatusPaid
}

// GenerateSchedule builds terms installments of amount each. Term 1 is due on
// first; every following term is due one calendar month after the previous
// one, clamped to the end of the month.
func GenerateSchedule(amount decimal.Decimal, terms int, first Date) []*Installment {
	schedule := make([]*Installment, 0, terms)
	due := first
	for term := 1; term <= terms; term++ {
		if term > 1 {
			due = due.AddMonths(1)
		}
		schedule = append(schedule, &Installment{
			ID:     uuid.NewString(),
			Term:   term,
			Date:   due,
			Amount: amount,
			Status: InstallmentStatusUnpaid,
		})
	}
	return schedule
}

// BackfillPastDue marks installments due on a day before now as paid, so a
// loan entered with historical due dates does not show as overdue. It
// returns the number of installments changed.
func BackfillPastDue(installments []*Installment, now time.Time) int {
	today := NewDate(now)
	changed := 0
	for _, inst := range installments {
		if !inst.IsPaid() && inst.Date.Before(today) {
			inst.Status = InstallmentStatusPaid
			changed++
		}
	}
	return changed
}

// FirstUnpaid returns the earliest unpaid installment, or nil.
func (l *InstallmentLoan) FirstUnpaid() *Installment {
	for _, inst := range l.Installments {
		if !inst.IsPaid() {
			return inst
		}
	}
	return nil
}

// RefreshNextRepayDate recomputes NextRepayDate from the schedule.
func (l *InstallmentLoan) RefreshNextRepayDate() {
	if next := l.FirstUnpaid(); next != nil {
		l.NextRepayDate = next.Date
		return
	}
	l.NextRepayDate = Date{}
}

// RemainingAmount sums the amounts of unpaid installments.
func (l *InstallmentLoan) RemainingAmount() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range l.Installments {
		if !inst.IsPaid() {
			total = total.Add(inst.Amount)
		}
	}
	return total
}

// ScheduledTotal sums the amounts of all installments.
func (l *InstallmentLoan) ScheduledTotal() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range l.Installments {
		total = total.Add(inst.Amount)
	}
	return total
}

// PaidTerms counts installments already paid.
func (l *InstallmentLoan) PaidTerms() int {
	n := 0
	for _, inst := range l.Installments {
		if inst.IsPaid() {
			n++
		}
	}
	return n
}

func (l *InstallmentLoan) FindInstallment(id string) *Installment {
	for _, inst := range l.Installments {
		if inst.ID == id {
			return inst
		}
	}
	return nil
}

// Clone returns a deep copy of the loan and its installments.
func (l *InstallmentLoan) Clone() *InstallmentLoan {
	c := *l
	c.Installments = make([]*Installment, len(l.Installments))
	for i, inst := range l.Installments {
		v := *inst
		c.Installments[i] = &v
	}
	return &c
}

// CreateInstallmentLoanRequest carries raw inputs for a new installment loan.
// A non-positive MonthlyPayment is computed from principal, rate and terms.
// FirstRepayDate defaults to BorrowDate.
type CreateInstallmentLoanRequest struct {
	Platform       string          `json:"platform" validate:"required"`
	Amount         decimal.Decimal `json:"amount"`
	Terms          int             `json:"terms" validate:"gt=0"`
	Rate           decimal.Decimal `json:"rate"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
	BorrowDate     string          `json:"borrowDate" validate:"required"`
	FirstRepayDate string          `json:"firstRepayDate"`
	Remarks        string          `json:"remarks"`
	// SkipBackfill keeps past-due installments unpaid for this loan.
	SkipBackfill bool `json:"skipBackfill"`
}

// InstallmentLoanUpdate lists the editable fields of an installment loan.
// Changing Amount, Terms, Rate or MonthlyPayment rebuilds the unpaid part of
// the schedule.
type InstallmentLoanUpdate struct {
	Platform       *string          `json:"platform"`
	Amount         *decimal.Decimal `json:"amount"`
	Terms          *int             `json:"terms"`
	Rate           *decimal.Decimal `json:"rate"`
	MonthlyPayment *decimal.Decimal `json:"monthlyPayment"`
	BorrowDate     *string          `json:"borrowDate"`
	FirstRepayDate *string          `json:"firstRepayDate"`
	Remarks        *string          `json:"remarks"`
}

type RemainingResponse struct {
	LoanID         string          `json:"loanId"`
	Remaining      decimal.Decimal `json:"remaining"`
	RemainingTerms int             `json:"remainingTerms"`
}
