package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/debt-engine/internal/domain"
	customError "github.com/segyhp/debt-engine/pkg/errors"
	"github.com/segyhp/debt-engine/pkg/utils"
)

var (
	// successorInterestDays is the cycle length assumed when rolling a
	// remainder into a successor loan.
	successorInterestDays = 30
	// defaultSuccessorRate applies when the loan carries no rate of its own.
	defaultSuccessorRate = decimal.NewFromInt(18)
)

// CreateNextMonthLoan validates raw inputs and adds an unpaid loan.
func (s *DebtService) CreateNextMonthLoan(ctx context.Context, request *domain.CreateNextMonthLoanRequest) (*domain.NextMonthLoan, error) {
	request.Platform = strings.TrimSpace(request.Platform)
	if err := s.validateStruct(request); err != nil {
		return nil, err
	}

	// 1. Normalize money, rates and dates
	amount, err := normalizeAmount(request.Amount)
	if err != nil {
		return nil, err
	}
	borrowDate, err := parseDate("borrowDate", request.BorrowDate)
	if err != nil {
		return nil, err
	}
	repayDate, err := parseDate("repayDate", request.RepayDate)
	if err != nil {
		return nil, err
	}
	rate, err := normalizeRate(request.Rate)
	if err != nil {
		return nil, err
	}
	var minRate *decimal.Decimal
	if request.MinRate != nil {
		r, err := normalizeMinRate(*request.MinRate)
		if err != nil {
			return nil, err
		}
		minRate = &r
	}

	var created *domain.NextMonthLoan
	err = s.mutate(ctx, func(tx *txn) error {
		// 2. Platform must be registered
		if err := requireRegistered(tx.Snapshot, request.Platform); err != nil {
			return err
		}

		// 3. Create loan entity
		loan := &domain.NextMonthLoan{
			ID:             uuid.NewString(),
			Platform:       request.Platform,
			Amount:         amount,
			BorrowDate:     borrowDate,
			RepayDate:      repayDate,
			Rate:           rate,
			MinPaymentRate: minRate,
			Status:         domain.LoanStatusUnpaid,
			Remarks:        request.Remarks,
			CreatedAt:      tx.now,
		}
		if err := s.validateStruct(loan); err != nil {
			return err
		}

		tx.NextMonthLoans = append(tx.NextMonthLoans, loan)
		created = loan.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "next-month loan created",
		"loan_id", created.ID,
		"platform", created.Platform,
		"amount", created.Amount.String(),
	)
	return created, nil
}

// EditNextMonthLoan applies the fields present in update. Absent fields are
// not touched and not re-validated.
func (s *DebtService) EditNextMonthLoan(ctx context.Context, id string, update *domain.NextMonthLoanUpdate) (*domain.NextMonthLoan, error) {
	var edited *domain.NextMonthLoan
	err := s.mutate(ctx, func(tx *txn) error {
		loan := tx.FindNextMonthLoan(id)
		if loan == nil {
			return customError.WrapLoanNotFound(id)
		}

		if update.Platform != nil {
			platform := strings.TrimSpace(*update.Platform)
			if err := requireRegistered(tx.Snapshot, platform); err != nil {
				return err
			}
			loan.Platform = platform
		}
		if update.Amount != nil {
			amount, err := normalizeAmount(*update.Amount)
			if err != nil {
				return err
			}
			// partialAmount never exceeds amount
			if amount.LessThan(loan.PaidSoFar()) {
				return customError.WrapValidation(fmt.Sprintf(
					"amount %s is below the %s already paid", amount, loan.PaidSoFar(),
				))
			}
			loan.Amount = amount
		}
		if update.BorrowDate != nil {
			d, err := parseDate("borrowDate", *update.BorrowDate)
			if err != nil {
				return err
			}
			loan.BorrowDate = d
		}
		if update.RepayDate != nil {
			d, err := parseDate("repayDate", *update.RepayDate)
			if err != nil {
				return err
			}
			loan.RepayDate = d
		}
		if update.Rate != nil {
			rate, err := normalizeRate(*update.Rate)
			if err != nil {
				return err
			}
			loan.Rate = rate
		}
		if update.MinRate != nil {
			r, err := normalizeMinRate(*update.MinRate)
			if err != nil {
				return err
			}
			loan.MinPaymentRate = &r
		}
		if update.Remarks != nil {
			loan.Remarks = *update.Remarks
		}

		edited = loan.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "next-month loan edited", "loan_id", id)
	return edited, nil
}

// MarkNextMonthLoanPaid settles the loan in full. A loan that is already
// paid is returned as is and no ledger entry is added.
func (s *DebtService) MarkNextMonthLoanPaid(ctx context.Context, id string) (*domain.NextMonthLoan, error) {
	var result *domain.NextMonthLoan
	err := s.mutate(ctx, func(tx *txn) error {
		loan := tx.FindNextMonthLoan(id)
		if loan == nil {
			return customError.WrapLoanNotFound(id)
		}
		if loan.IsPaid() {
			result = loan.Clone()
			return errUnchanged
		}

		loan.Status = domain.LoanStatusPaid
		tx.recordPayment(loan.ID, domain.LoanTypeNextMonth, loan.Amount, domain.PaymentTypeFull, "Full repayment")

		result = loan.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "next-month loan paid", "loan_id", id, "amount", result.Amount.String())
	return result, nil
}

// DeleteNextMonthLoan removes the loan. Ledger entries referencing it stay.
func (s *DebtService) DeleteNextMonthLoan(ctx context.Context, id string) error {
	err := s.mutate(ctx, func(tx *txn) error {
		if !tx.RemoveNextMonthLoan(id) {
			return customError.WrapLoanNotFound(id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "next-month loan deleted", "loan_id", id)
	return nil
}

// ProcessMinimumPayment applies a partial (or completing) payment to a loan.
// A payment that does not settle the loan rolls the remainder plus 30 days of
// interest into a new successor loan.
func (s *DebtService) ProcessMinimumPayment(ctx context.Context, id string, paidAmount decimal.Decimal) (*domain.PaymentOutcome, error) {
	paid := utils.RoundCents(paidAmount)
	if !paid.IsPositive() {
		return nil, customError.WrapValidation("payment amount must be greater than 0")
	}

	var outcome *domain.PaymentOutcome
	err := s.mutate(ctx, func(tx *txn) error {
		loan := tx.FindNextMonthLoan(id)
		if loan == nil {
			return customError.WrapLoanNotFound(id)
		}
		if loan.IsPaid() {
			return customError.WrapLoanAlreadyPaid(id)
		}

		// 1. Enforce the minimum payment
		minPayment := utils.MinimumPayment(loan.Amount, loan.EffectiveMinPaymentRate(tx.MinPaymentRate))
		if paid.LessThan(minPayment) {
			return customError.WrapBelowMinimumPayment(minPayment.String(), paid.String())
		}

		// 2. Remainder before any interest accrual
		remaining := loan.Amount.Sub(paid)

		// 3. Enter partial state, or accrue interest since the last payment
		now := tx.now
		if loan.Status != domain.LoanStatusPartial {
			loan.Status = domain.LoanStatusPartial
			zero := decimal.Zero
			loan.PartialAmount = &zero
		} else if loan.LastPaymentDate != nil {
			days := utils.ElapsedDays(*loan.LastPaymentDate, now)
			if loan.Rate.IsPositive() && days > 0 && remaining.IsPositive() {
				interest := utils.SimpleInterest(remaining, loan.Rate.Div(maxRatePercent), days)
				loan.Amount = utils.RoundCents(loan.Amount.Add(interest))
				s.logger.DebugContext(ctx, "interest accrued",
					"loan_id", loan.ID,
					"interest", interest.String(),
					"days", days,
				)
			}
		}
		loan.LastPaymentDate = &now

		// 4. Accumulate
		partial := loan.PaidSoFar().Add(paid)
		loan.PartialAmount = &partial

		// 5. Settled in full
		if partial.GreaterThanOrEqual(loan.Amount) {
			settled := loan.Amount
			loan.PartialAmount = &settled
			loan.Status = domain.LoanStatusPaid
			record := tx.recordPayment(loan.ID, domain.LoanTypeNextMonth, loan.Amount, domain.PaymentTypeFull, "Full repayment")

			outcome = &domain.PaymentOutcome{
				Kind:           domain.SettledFull,
				Loan:           loan.Clone(),
				Record:         record,
				MinimumPayment: minPayment,
			}
			return nil
		}

		// 6. Partial settlement rolls the remainder into a successor
		paymentType, remarks := domain.PaymentTypeCustom, "Custom repayment"
		if paid.Equal(minPayment) {
			paymentType, remarks = domain.PaymentTypeMinimum, "Minimum repayment"
		}
		record := tx.recordPayment(loan.ID, domain.LoanTypeNextMonth, paid, paymentType, remarks)

		successor := spawnSuccessor(loan, remaining, now)
		tx.NextMonthLoans = append(tx.NextMonthLoans, successor)

		outcome = &domain.PaymentOutcome{
			Kind:           domain.SettledPartial,
			Loan:           loan.Clone(),
			Successor:      successor.Clone(),
			Record:         record,
			MinimumPayment: minPayment,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.Kind == domain.SettledPartial {
		s.metrics.SuccessorSpawned()
	}
	s.logger.InfoContext(ctx, "payment processed",
		"loan_id", id,
		"paid", paid.String(),
		"kind", string(outcome.Kind),
		"successor_id", outcome.SuccessorID(),
	)
	return outcome, nil
}

// spawnSuccessor builds next cycle's loan for the unpaid remainder.
func spawnSuccessor(loan *domain.NextMonthLoan, remaining decimal.Decimal, now time.Time) *domain.NextMonthLoan {
	rate := loan.Rate
	if !rate.IsPositive() {
		rate = defaultSuccessorRate
	}
	interest := utils.SimpleInterest(remaining, rate.Div(maxRatePercent), successorInterestDays)
	today := domain.NewDate(now)

	return &domain.NextMonthLoan{
		ID:         uuid.NewString(),
		Platform:   loan.Platform,
		Amount:     utils.RoundCents(remaining.Add(interest)),
		BorrowDate: today,
		RepayDate:  today.AddMonths(1),
		Status:     domain.LoanStatusUnpaid,
		Remarks:    fmt.Sprintf("Interest carried over from previous cycle: %s", interest.StringFixed(2)),
		CreatedAt:  now,
	}
}

// MinimumPaymentFor reports the smallest payment ProcessMinimumPayment accepts.
func (s *DebtService) MinimumPaymentFor(ctx context.Context, id string) (*domain.MinimumPaymentResponse, error) {
	var (
		response *domain.MinimumPaymentResponse
		err      error
	)
	s.read(func(snapshot *domain.Snapshot, _ time.Time) {
		loan := snapshot.FindNextMonthLoan(id)
		if loan == nil {
			err = customError.WrapLoanNotFound(id)
			return
		}
		response = &domain.MinimumPaymentResponse{
			LoanID:         loan.ID,
			MinimumPayment: utils.MinimumPayment(loan.Amount, loan.EffectiveMinPaymentRate(snapshot.MinPaymentRate)),
			Outstanding:    loan.Outstanding(),
		}
	})
	return response, err
}

func (s *DebtService) GetNextMonthLoan(ctx context.Context, id string) (*domain.NextMonthLoan, error) {
	var loan *domain.NextMonthLoan
	s.read(func(snapshot *domain.Snapshot, _ time.Time) {
		if l := snapshot.FindNextMonthLoan(id); l != nil {
			loan = l.Clone()
		}
	})
	if loan == nil {
		return nil, customError.WrapLoanNotFound(id)
	}
	return loan, nil
}

// ListNextMonthLoans returns copies of all next-month loans in insertion order.
func (s *DebtService) ListNextMonthLoans(ctx context.Context) []*domain.NextMonthLoan {
	var loans []*domain.NextMonthLoan
	s.read(func(snapshot *domain.Snapshot, _ time.Time) {
		loans = make([]*domain.NextMonthLoan, len(snapshot.NextMonthLoans))
		for i, l := range snapshot.NextMonthLoans {
			loans[i] = l.Clone()
		}
	})
	return loans
}
