package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	LoanTypeNextMonth   = "nextMonth"
	LoanTypeInstallment = "installment"
)

const (
	PaymentTypeFull    = "full"
	PaymentTypeMinimum = "minimum"
	PaymentTypeCustom  = "custom"
)

// PaymentRecord is an append-only ledger entry for one settlement event.
// LoanID is a weak reference: the loan may have been deleted since.
type PaymentRecord struct {
	ID          string          `json:"id"`
	LoanID      string          `json:"loanId"`
	LoanType    string          `json:"loanType"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentType string          `json:"paymentType"`
	Date        Date            `json:"date"`
	Remarks     string          `json:"remarks"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// PaymentRecordFilter narrows ledger queries. Empty fields match everything.
type PaymentRecordFilter struct {
	LoanID   string
	LoanType string
}

func (f PaymentRecordFilter) Match(r *PaymentRecord) bool {
	if f.LoanID != "" && r.LoanID != f.LoanID {
		return false
	}
	if f.LoanType != "" && r.LoanType != f.LoanType {
		return false
	}
	return true
}
