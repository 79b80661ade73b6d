package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/debt-engine/internal/domain"
	customError "github.com/segyhp/debt-engine/pkg/errors"
)

func createInstallment(t *testing.T, svc *DebtService, request domain.CreateInstallmentLoanRequest) *domain.InstallmentLoan {
	t.Helper()
	if request.Platform == "" {
		request.Platform = "MeituanLoan"
	}
	loan, err := svc.CreateInstallmentLoan(context.Background(), &request)
	require.NoError(t, err)
	return loan
}

func installmentDates(loan *domain.InstallmentLoan) []string {
	dates := make([]string, len(loan.Installments))
	for i, inst := range loan.Installments {
		dates[i] = inst.Date.String()
	}
	return dates
}

func TestCreateInstallmentLoan_FlatSchedule(t *testing.T) {
	svc, _, _ := newTestService(t)

	loan := createInstallment(t, svc, domain.CreateInstallmentLoanRequest{
		Amount:         dec("600"),
		Terms:          6,
		BorrowDate:     "2024-03-10",
		FirstRepayDate: "2024-04-10",
	})

	assert.True(t, loan.MonthlyPayment.Equal(dec("100")))
	require.Len(t, loan.Installments, 6)
	for i, inst := range loan.Installments {
		assert.Equal(t, i+1, inst.Term)
		assert.True(t, inst.Amount.Equal(dec("100")))
		assert.Equal(t, domain.InstallmentStatusUnpaid, inst.Status)
		assert.NotEmpty(t, inst.ID)
	}
	assert.Equal(t, []string{
		"2024-04-10", "2024-05-10", "2024-06-10", "2024-07-10", "2024-08-10", "2024-09-10",
	}, installmentDates(loan))
	assert.Equal(t, "2024-04-10", loan.NextRepayDate.String())
}

func TestCreateInstallmentLoan_Amortized(t *testing.T) {
	svc, _, _ := newTestService(t)

	loan := createInstallment(t, svc, domain.CreateInstallmentLoanRequest{
		Amount:         dec("10000"),
		Terms:          12,
		Rate:           dec("12"),
		BorrowDate:     "2024-03-15",
		FirstRepayDate: "2024-04-15",
	})

	assert.True(t, loan.MonthlyPayment.Equal(dec("888.49")), loan.MonthlyPayment.String())
	assert.True(t, loan.Rate.Equal(dec("12")))
}

func TestCreateInstallmentLoan_ExplicitPaymentWins(t *testing.T) {
	svc, _, _ := newTestService(t)

	loan := createInstallment(t, svc, domain.CreateInstallmentLoanRequest{
		Amount:         dec("1000"),
		Terms:          3,
		Rate:           dec("20"),
		MonthlyPayment: dec("350.555"),
		BorrowDate:     "2024-03-15",
		FirstRepayDate: "2024-04-15",
	})

	assert.True(t, loan.MonthlyPayment.Equal(dec("350.56")))
	assert.True(t, loan.Installments[2].Amount.Equal(dec("350.56")))
}

func TestCreateInstallmentLoan_FirstTermDefaultsToBorrowDate(t *testing.T) {
	svc, _, _ := newTestService(t)

	loan := createInstallment(t, svc, domain.CreateInstallmentLoanRequest{
		Amount:     dec("300"),
		Terms:      3,
		BorrowDate: "2024-03-31",
	})

	assert.Equal(t, []string{"2024-03-31", "2024-04-30", "2024-05-30"}, installmentDates(loan))
	assert.Equal(t, "2024-03-31", loan.NextRepayDate.String())
}

func TestCreateInstallmentLoan_Backfill(t *testing.T) {
	request := domain.CreateInstallmentLoanRequest{
		Amount:     dec("600"),
		Terms:      6,
		BorrowDate: "2024-01-10",
	}

	t.Run("past due installments are marked paid", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		loan := createInstallment(t, svc, request)

		assert.Equal(t, 3, loan.PaidTerms())
		assert.Equal(t, "2024-04-10", loan.NextRepayDate.String())
		assert.Empty(t, svc.PaymentRecords(context.Background(), domain.PaymentRecordFilter{}))
	})

	t.Run("request opts out", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		skip := request
		skip.SkipBackfill = true
		loan := createInstallment(t, svc, skip)

		assert.Equal(t, 0, loan.PaidTerms())
		assert.Equal(t, "2024-01-10", loan.NextRepayDate.String())
	})

	t.Run("engine option disables it", func(t *testing.T) {
		svc, _, _ := newTestService(t, func(o *Options) { o.BackfillPastInstallments = false })
		loan := createInstallment(t, svc, request)

		assert.Equal(t, 0, loan.PaidTerms())
	})

	t.Run("installment due today stays unpaid", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		loan := createInstallment(t, svc, domain.CreateInstallmentLoanRequest{
			Amount:     dec("200"),
			Terms:      2,
			BorrowDate: "2024-03-15",
		})

		assert.Equal(t, 0, loan.PaidTerms())
		assert.Equal(t, "2024-03-15", loan.NextRepayDate.String())
	})
}

func TestCreateInstallmentLoan_Validation(t *testing.T) {
	tests := []struct {
		name    string
		request domain.CreateInstallmentLoanRequest
	}{
		{name: "zero terms", request: domain.CreateInstallmentLoanRequest{Platform: "HuaBei", Amount: dec("100"), Terms: 0, BorrowDate: "2024-03-01"}},
		{name: "negative terms", request: domain.CreateInstallmentLoanRequest{Platform: "HuaBei", Amount: dec("100"), Terms: -3, BorrowDate: "2024-03-01"}},
		{name: "zero amount", request: domain.CreateInstallmentLoanRequest{Platform: "HuaBei", Amount: dec("0"), Terms: 3, BorrowDate: "2024-03-01"}},
		{name: "empty platform", request: domain.CreateInstallmentLoanRequest{Amount: dec("100"), Terms: 3, BorrowDate: "2024-03-01"}},
		{name: "unregistered platform", request: domain.CreateInstallmentLoanRequest{Platform: "Nope", Amount: dec("100"), Terms: 3, BorrowDate: "2024-03-01"}},
		{name: "bad borrow date", request: domain.CreateInstallmentLoanRequest{Platform: "HuaBei", Amount: dec("100"), Terms: 3, BorrowDate: "03/01/2024"}},
		{name: "bad first repay date", request: domain.CreateInstallmentLoanRequest{Platform: "HuaBei", Amount: dec("100"), Terms: 3, BorrowDate: "2024-03-01", FirstRepayDate: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			request := tt.request

			loan, err := svc.CreateInstallmentLoan(context.Background(), &request)

			assert.Nil(t, loan)
			assert.ErrorIs(t, err, customError.ErrValidation)
			assert.Empty(t, svc.ListInstallmentLoans(context.Background()))
		})
	}
}

func TestMarkInstallmentPaid(t *testing.T) {
	svc, _, _ := newTestService(t)
	loan := createInstallment(t, svc, domain.CreateInstallmentLoanRequest{
		Amount:         dec("300"),
		Terms:          3,
		BorrowDate:     "2024-03-15",
		FirstRepayDate: "2024-04-01",
	})

	first, err := svc.MarkInstallmentPaid(context.Background(), loan.ID, loan.Installments[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", first.NextRepayDate.String())
	assert.Empty(t, svc.PaymentRecords(context.Background(), domain.PaymentRecordFilter{}))

	// already paid is a no-op
	_, err = svc.MarkInstallmentPaid(context.Background(), loan.ID, loan.Installments[0].ID)
	require.NoError(t, err)

	// paying out of order is allowed
	third, err := svc.MarkInstallmentPaid(context.Background(), loan.ID, loan.Installments[2].ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", third.NextRepayDate.String())

	last, err := svc.MarkInstallmentPaid(context.Background(), loan.ID, loan.Installments[1].ID)
	require.NoError(t, err)
	assert.True(t, last.NextRepayDate.IsZero())
	assert.True(t, last.RemainingAmount().IsZero())

	records := svc.PaymentRecords(context.Background(), domain.PaymentRecordFilter{LoanID: loan.ID})
	require.Len(t, records, 1)
	assert.Equal(t, domain.LoanTypeInstallment, records[0].LoanType)
	assert.Equal(t, domain.PaymentTypeFull, records[0].PaymentType)
	assert.True(t, records[0].Amount.Equal(dec("300")))

	// nothing more once settled
	_, err = svc.MarkInstallmentPaid(context.Background(), loan.ID, loan.Installments[1].ID)
	require.NoError(t, err)
	assert.Len(t, svc.PaymentRecords(context.Background(), domain.PaymentRecordFilter{}), 1)
}

func TestMarkInstallmentPaid_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	loan := createInstallment(t, svc, domain.CreateInstallmentLoanRequest{
		Amount: dec("100"), Terms: 1, BorrowDate: "2024-04-01",
	})

	_, err := svc.MarkInstallmentPaid(context.Background(), "missing", loan.Installments[0].ID)
	assert.ErrorIs(t, err, customError.ErrLoanNotFound)

	_, err = svc.MarkInstallmentPaid(context.Background(), loan.ID, "missing")
	assert.ErrorIs(t, err, customError.ErrInstallmentNotFound)
	assert.Equal(t, customError.ErrCodeInstallmentNotFound, customError.CodeOf(err))
}

func TestRemainingAmount(t *testing.T) {
	svc, _, _ := newTestService(t)
	loan := createInstallment(t, svc, domain.CreateInstallmentLoanRequest{
		Amount:         dec("1200"),
		Terms:          12,
		BorrowDate:     "2024-03-15",
		FirstRepayDate: "2024-04-15",
	})

	for _, inst := range loan.Installments[:5] {
		_, err := svc.MarkInstallmentPaid(context.Background(), loan.ID, inst.ID)
		require.NoError(t, err)
	}

	remaining, err := svc.RemainingAmount(context.Background(), loan.ID)
	require.NoError(t, err)
	assert.True(t, remaining.Remaining.Equal(dec("700")), remaining.Remaining.String())
	assert.Equal(t, 7, remaining.RemainingTerms)

	_, err = svc.RemainingAmount(context.Background(), "missing")
	assert.ErrorIs(t, err, customError.ErrLoanNotFound)
}

func TestEditInstallmentLoan_NonScheduleFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	loan := createInstallment(t, svc, domain.CreateInstallmentLoanRequest{
		Amount: dec("600"), Terms: 6, BorrowDate: "2024-04-01",
	})

	edited, err := svc.EditInstallmentLoan(context.Background(), loan.ID, &domain.InstallmentLoanUpdate{
		Platform:       ptr("HuaBei"),
		Remarks:        ptr("phone"),
		FirstRepayDate: ptr("2024-05-20"),
	})
	require.NoError(t, err)

	assert.Equal(t, "HuaBei", edited.Platform)
	assert.Equal(t, "phone", edited.Remarks)
	assert.Equal(t, loan.Installments, edited.Installments, "schedule must stay untouched")
}

func TestEditInstallmentLoan_RebuildKeepsPaidTerms(t *testing.T) {
	svc, _, _ := newTestService(t)
	loan := createInstallment(t, svc, domain.CreateInstallmentLoanRequest{
		Amount:         dec("1200"),
		Terms:          12,
		BorrowDate:     "2024-03-10",
		FirstRepayDate: "2024-04-10",
	})
	for _, inst := range loan.Installments[:2] {
		_, err := svc.MarkInstallmentPaid(context.Background(), loan.ID, inst.ID)
		require.NoError(t, err)
	}

	edited, err := svc.EditInstallmentLoan(context.Background(), loan.ID, &domain.InstallmentLoanUpdate{
		Terms: ptr(6),
	})
	require.NoError(t, err)

	require.Len(t, edited.Installments, 6)
	assert.True(t, edited.MonthlyPayment.Equal(dec("200")))

	// paid terms are kept verbatim
	assert.Equal(t, loan.Installments[0].ID, edited.Installments[0].ID)
	assert.Equal(t, loan.Installments[1].ID, edited.Installments[1].ID)
	assert.True(t, edited.Installments[0].Amount.Equal(dec("100")))
	assert.True(t, edited.Installments[0].IsPaid())

	for _, inst := range edited.Installments[2:] {
		assert.True(t, inst.Amount.Equal(dec("200")))
		assert.False(t, inst.IsPaid())
	}
	assert.Equal(t, []string{
		"2024-04-10", "2024-05-10", "2024-06-10", "2024-07-10", "2024-08-10", "2024-09-10",
	}, installmentDates(edited))
	assert.Equal(t, "2024-06-10", edited.NextRepayDate.String())
}

func TestEditInstallmentLoan_RebuildWithExplicitPaymentAndDate(t *testing.T) {
	svc, _, _ := newTestService(t)
	loan := createInstallment(t, svc, domain.CreateInstallmentLoanRequest{
		Amount:         dec("600"),
		Terms:          6,
		BorrowDate:     "2024-03-10",
		FirstRepayDate: "2024-04-10",
	})
	_, err := svc.MarkInstallmentPaid(context.Background(), loan.ID, loan.Installments[0].ID)
	require.NoError(t, err)

	edited, err := svc.EditInstallmentLoan(context.Background(), loan.ID, &domain.InstallmentLoanUpdate{
		MonthlyPayment: ptr(dec("150")),
		FirstRepayDate: ptr("2024-05-31"),
	})
	require.NoError(t, err)

	assert.True(t, edited.MonthlyPayment.Equal(dec("150")))
	assert.Equal(t, []string{
		"2024-04-10", "2024-05-31", "2024-06-30", "2024-07-30", "2024-08-30", "2024-09-30",
	}, installmentDates(edited))
	assert.True(t, edited.Installments[0].Amount.Equal(dec("100")))
	assert.True(t, edited.Installments[1].Amount.Equal(dec("150")))
	assert.True(t, edited.RemainingAmount().Equal(dec("750")))
}

func TestEditInstallmentLoan_Errors(t *testing.T) {
	svc, _, _ := newTestService(t)
	loan := createInstallment(t, svc, domain.CreateInstallmentLoanRequest{
		Amount: dec("600"), Terms: 6, BorrowDate: "2024-04-01",
	})

	_, err := svc.EditInstallmentLoan(context.Background(), "missing", &domain.InstallmentLoanUpdate{Remarks: ptr("x")})
	assert.ErrorIs(t, err, customError.ErrLoanNotFound)

	_, err = svc.EditInstallmentLoan(context.Background(), loan.ID, &domain.InstallmentLoanUpdate{Terms: ptr(0)})
	assert.ErrorIs(t, err, customError.ErrValidation)

	_, err = svc.EditInstallmentLoan(context.Background(), loan.ID, &domain.InstallmentLoanUpdate{Amount: ptr(dec("0"))})
	assert.ErrorIs(t, err, customError.ErrValidation)
}

func TestDeleteInstallmentLoan(t *testing.T) {
	svc, _, _ := newTestService(t)
	loan := createInstallment(t, svc, domain.CreateInstallmentLoanRequest{
		Amount: dec("100"), Terms: 1, BorrowDate: "2024-04-01",
	})

	require.NoError(t, svc.DeleteInstallmentLoan(context.Background(), loan.ID))
	assert.Empty(t, svc.ListInstallmentLoans(context.Background()))

	err := svc.DeleteInstallmentLoan(context.Background(), loan.ID)
	assert.ErrorIs(t, err, customError.ErrLoanNotFound)
}
