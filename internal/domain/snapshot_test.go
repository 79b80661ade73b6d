package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEnsureDefaults(t *testing.T) {
	s := &Snapshot{}

	assert.True(t, s.EnsureDefaults(DefaultMinPaymentRate))
	assert.Equal(t, DefaultPlatforms, s.Platforms)
	assert.NotNil(t, s.NextMonthLoans)
	assert.NotNil(t, s.InstallmentLoans)
	assert.NotNil(t, s.PaymentRecords)
	assert.True(t, s.MinPaymentRate.Equal(DefaultMinPaymentRate))

	assert.False(t, s.EnsureDefaults(DefaultMinPaymentRate))
}

func TestEnsureDefaultsRestoresOther(t *testing.T) {
	s := NewSnapshot(DefaultMinPaymentRate)
	s.Platforms = []string{"Bank"}

	assert.True(t, s.EnsureDefaults(DefaultMinPaymentRate))
	assert.Equal(t, []string{"Bank", OtherPlatform}, s.Platforms)
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	partial := decimal.NewFromInt(20)
	s := NewSnapshot(DefaultMinPaymentRate)
	s.NextMonthLoans = append(s.NextMonthLoans, &NextMonthLoan{ID: "a", Amount: decimal.NewFromInt(100), PartialAmount: &partial})
	s.PaymentRecords = append(s.PaymentRecords, &PaymentRecord{ID: "r", Amount: decimal.NewFromInt(20)})

	c := s.Clone()
	*c.NextMonthLoans[0].PartialAmount = decimal.NewFromInt(99)
	c.NextMonthLoans[0].Amount = decimal.NewFromInt(1)
	c.PaymentRecords[0].Amount = decimal.NewFromInt(1)
	c.Platforms[0] = "changed"

	assert.True(t, s.NextMonthLoans[0].PartialAmount.Equal(decimal.NewFromInt(20)))
	assert.True(t, s.NextMonthLoans[0].Amount.Equal(decimal.NewFromInt(100)))
	assert.True(t, s.PaymentRecords[0].Amount.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "HuaBei", s.Platforms[0])
}

func TestPlatformInUse(t *testing.T) {
	s := NewSnapshot(DefaultMinPaymentRate)
	s.NextMonthLoans = append(s.NextMonthLoans, &NextMonthLoan{ID: "a", Platform: "HuaBei"})
	s.InstallmentLoans = append(s.InstallmentLoans, &InstallmentLoan{ID: "b", Platform: "CreditCard"})

	assert.True(t, s.PlatformInUse("HuaBei"))
	assert.True(t, s.PlatformInUse("CreditCard"))
	assert.False(t, s.PlatformInUse("BeiBei"))

	assert.True(t, s.RemoveNextMonthLoan("a"))
	assert.False(t, s.RemoveNextMonthLoan("a"))
	assert.False(t, s.PlatformInUse("HuaBei"))
}

func TestNextMonthLoanOutstanding(t *testing.T) {
	partial := decimal.NewFromInt(30)
	loan := &NextMonthLoan{Amount: decimal.NewFromInt(100), Status: LoanStatusUnpaid}
	assert.True(t, loan.Outstanding().Equal(decimal.NewFromInt(100)))

	loan.Status = LoanStatusPartial
	loan.PartialAmount = &partial
	assert.True(t, loan.Outstanding().Equal(decimal.NewFromInt(70)))

	loan.Status = LoanStatusPaid
	assert.True(t, loan.Outstanding().IsZero())
}
