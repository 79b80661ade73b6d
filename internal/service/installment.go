package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/debt-engine/internal/domain"
	customError "github.com/segyhp/debt-engine/pkg/errors"
	"github.com/segyhp/debt-engine/pkg/utils"
)

// CreateInstallmentLoan adds an installment loan with a freshly generated
// schedule. Installments already due are back-filled as paid unless the
// engine or the request disables it.
func (s *DebtService) CreateInstallmentLoan(ctx context.Context, request *domain.CreateInstallmentLoanRequest) (*domain.InstallmentLoan, error) {
	request.Platform = strings.TrimSpace(request.Platform)
	if err := s.validateStruct(request); err != nil {
		return nil, err
	}

	// 1. Normalize principal, rate and payment
	principal, err := normalizeAmount(request.Amount)
	if err != nil {
		return nil, err
	}
	rate := utils.RoundRate(request.Rate.Abs())
	payment := utils.RoundCents(request.MonthlyPayment.Abs())
	if !payment.IsPositive() {
		payment = utils.CalculateMonthlyPayment(principal, rate, request.Terms)
	}

	// 2. Dates
	borrowDate, err := parseDate("borrowDate", request.BorrowDate)
	if err != nil {
		return nil, err
	}
	firstRepay := borrowDate
	if strings.TrimSpace(request.FirstRepayDate) != "" {
		if firstRepay, err = parseDate("firstRepayDate", request.FirstRepayDate); err != nil {
			return nil, err
		}
	}

	var created *domain.InstallmentLoan
	err = s.mutate(ctx, func(tx *txn) error {
		if err := requireRegistered(tx.Snapshot, request.Platform); err != nil {
			return err
		}

		// 3. Generate schedule, then reconcile history
		installments := domain.GenerateSchedule(payment, request.Terms, firstRepay)
		backfilled := 0
		if s.opts.BackfillPastInstallments && !request.SkipBackfill {
			backfilled = domain.BackfillPastDue(installments, tx.now)
		}

		loan := &domain.InstallmentLoan{
			ID:             uuid.NewString(),
			Platform:       request.Platform,
			Amount:         principal,
			Terms:          request.Terms,
			Rate:           rate,
			MonthlyPayment: payment,
			BorrowDate:     borrowDate,
			Installments:   installments,
			Remarks:        request.Remarks,
			CreatedAt:      tx.now,
		}
		loan.RefreshNextRepayDate()
		if err := s.validateStruct(loan); err != nil {
			return err
		}

		tx.InstallmentLoans = append(tx.InstallmentLoans, loan)
		created = loan.Clone()

		if backfilled > 0 {
			s.logger.InfoContext(ctx, "past installments back-filled", "loan_id", loan.ID, "count", backfilled)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "installment loan created",
		"loan_id", created.ID,
		"platform", created.Platform,
		"amount", created.Amount.String(),
		"terms", created.Terms,
		"monthly_payment", created.MonthlyPayment.String(),
	)
	return created, nil
}

// EditInstallmentLoan applies the fields present in update. Changing the
// principal, terms, rate or monthly payment rebuilds the unpaid part of the
// schedule.
func (s *DebtService) EditInstallmentLoan(ctx context.Context, id string, update *domain.InstallmentLoanUpdate) (*domain.InstallmentLoan, error) {
	var edited *domain.InstallmentLoan
	err := s.mutate(ctx, func(tx *txn) error {
		loan := tx.FindInstallmentLoan(id)
		if loan == nil {
			return customError.WrapLoanNotFound(id)
		}

		// 1. Plain fields
		if update.Platform != nil {
			platform := strings.TrimSpace(*update.Platform)
			if err := requireRegistered(tx.Snapshot, platform); err != nil {
				return err
			}
			loan.Platform = platform
		}
		if update.BorrowDate != nil {
			d, err := parseDate("borrowDate", *update.BorrowDate)
			if err != nil {
				return err
			}
			loan.BorrowDate = d
		}
		if update.Remarks != nil {
			loan.Remarks = *update.Remarks
		}

		// 2. Schedule fields
		if update.Amount != nil {
			principal, err := normalizeAmount(*update.Amount)
			if err != nil {
				return err
			}
			loan.Amount = principal
		}
		if update.Terms != nil {
			if *update.Terms <= 0 {
				return customError.WrapValidation("terms must be greater than 0")
			}
			loan.Terms = *update.Terms
		}
		if update.Rate != nil {
			loan.Rate = utils.RoundRate(update.Rate.Abs())
		}

		scheduleChanged := update.Amount != nil || update.Terms != nil || update.Rate != nil || update.MonthlyPayment != nil
		if !scheduleChanged {
			edited = loan.Clone()
			return nil
		}

		// 3. Rebuild
		payment := decimal.Zero
		if update.MonthlyPayment != nil {
			payment = utils.RoundCents(update.MonthlyPayment.Abs())
		}
		if !payment.IsPositive() {
			payment = utils.CalculateMonthlyPayment(loan.Amount, loan.Rate, loan.Terms)
		}

		var firstRepay *domain.Date
		if update.FirstRepayDate != nil && strings.TrimSpace(*update.FirstRepayDate) != "" {
			d, err := parseDate("firstRepayDate", *update.FirstRepayDate)
			if err != nil {
				return err
			}
			firstRepay = &d
		}

		loan.MonthlyPayment = payment
		loan.Installments = rebuildSchedule(loan, payment, firstRepay)
		loan.RefreshNextRepayDate()

		edited = loan.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "installment loan edited",
		"loan_id", id,
		"terms", edited.Terms,
		"monthly_payment", edited.MonthlyPayment.String(),
	)
	return edited, nil
}

// rebuildSchedule keeps paid installments in place and regenerates the rest.
// The number of terms already paid is preserved: terms up to that count stay
// paid, later terms are stepped one month from the previous entry.
func rebuildSchedule(loan *domain.InstallmentLoan, payment decimal.Decimal, firstRepay *domain.Date) []*domain.Installment {
	paidTerms := loan.PaidTerms()
	byTerm := make(map[int]*domain.Installment, len(loan.Installments))
	for _, inst := range loan.Installments {
		byTerm[inst.Term] = inst
	}

	rebuilt := make([]*domain.Installment, 0, loan.Terms)
	for term := 1; term <= loan.Terms; term++ {
		existing, ok := byTerm[term]
		if ok && existing.IsPaid() {
			rebuilt = append(rebuilt, existing)
			continue
		}

		var due domain.Date
		switch {
		case term <= paidTerms && ok:
			due = existing.Date
		case term == paidTerms+1 && firstRepay != nil:
			due = *firstRepay
		case len(rebuilt) > 0:
			due = rebuilt[len(rebuilt)-1].Date.AddMonths(1)
		default:
			due = loan.BorrowDate.AddMonths(1)
		}

		status := domain.InstallmentStatusUnpaid
		if term <= paidTerms {
			status = domain.InstallmentStatusPaid
		}
		rebuilt = append(rebuilt, &domain.Installment{
			ID:     uuid.NewString(),
			Term:   term,
			Date:   due,
			Amount: payment,
			Status: status,
		})
	}
	return rebuilt
}

// DeleteInstallmentLoan removes the loan together with its schedule.
func (s *DebtService) DeleteInstallmentLoan(ctx context.Context, id string) error {
	err := s.mutate(ctx, func(tx *txn) error {
		if !tx.RemoveInstallmentLoan(id) {
			return customError.WrapLoanNotFound(id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "installment loan deleted", "loan_id", id)
	return nil
}

// MarkInstallmentPaid settles one installment. Paying the last unpaid one
// records a full payment of the whole schedule.
func (s *DebtService) MarkInstallmentPaid(ctx context.Context, loanID, installmentID string) (*domain.InstallmentLoan, error) {
	var (
		result  *domain.InstallmentLoan
		settled bool
	)
	err := s.mutate(ctx, func(tx *txn) error {
		loan := tx.FindInstallmentLoan(loanID)
		if loan == nil {
			return customError.WrapLoanNotFound(loanID)
		}
		inst := loan.FindInstallment(installmentID)
		if inst == nil {
			return customError.WrapInstallmentNotFound(loanID, installmentID)
		}
		if inst.IsPaid() {
			result = loan.Clone()
			return errUnchanged
		}

		inst.Status = domain.InstallmentStatusPaid
		loan.RefreshNextRepayDate()

		if loan.FirstUnpaid() == nil {
			tx.recordPayment(loan.ID, domain.LoanTypeInstallment, loan.ScheduledTotal(), domain.PaymentTypeFull, "Installment loan fully repaid")
			settled = true
		}

		result = loan.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "installment paid",
		"loan_id", loanID,
		"installment_id", installmentID,
		"loan_settled", settled,
	)
	return result, nil
}

// RemainingAmount sums the unpaid installments of a loan.
func (s *DebtService) RemainingAmount(ctx context.Context, id string) (*domain.RemainingResponse, error) {
	var response *domain.RemainingResponse
	s.read(func(snapshot *domain.Snapshot, _ time.Time) {
		loan := snapshot.FindInstallmentLoan(id)
		if loan == nil {
			return
		}
		response = &domain.RemainingResponse{
			LoanID:         loan.ID,
			Remaining:      loan.RemainingAmount(),
			RemainingTerms: len(loan.Installments) - loan.PaidTerms(),
		}
	})
	if response == nil {
		return nil, customError.WrapLoanNotFound(id)
	}
	return response, nil
}

func (s *DebtService) GetInstallmentLoan(ctx context.Context, id string) (*domain.InstallmentLoan, error) {
	var loan *domain.InstallmentLoan
	s.read(func(snapshot *domain.Snapshot, _ time.Time) {
		if l := snapshot.FindInstallmentLoan(id); l != nil {
			loan = l.Clone()
		}
	})
	if loan == nil {
		return nil, customError.WrapLoanNotFound(id)
	}
	return loan, nil
}

func (s *DebtService) ListInstallmentLoans(ctx context.Context) []*domain.InstallmentLoan {
	var loans []*domain.InstallmentLoan
	s.read(func(snapshot *domain.Snapshot, _ time.Time) {
		loans = make([]*domain.InstallmentLoan, len(snapshot.InstallmentLoans))
		for i, l := range snapshot.InstallmentLoans {
			loans[i] = l.Clone()
		}
	})
	return loans
}
