package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/debt-engine/internal/domain"
	"github.com/segyhp/debt-engine/pkg/utils"
)

// defaultProjectionMonths is how far UpcomingPayments looks ahead by default.
const defaultProjectionMonths = 3

// Summary rolls up the current snapshot. Nothing is stored.
func (s *DebtService) Summary(ctx context.Context) *domain.Summary {
	var summary *domain.Summary
	s.read(func(snapshot *domain.Snapshot, now time.Time) {
		summary = buildSummary(snapshot, now, s.opts.ReminderDays)
	})
	return summary
}

func buildSummary(snapshot *domain.Snapshot, now time.Time, reminderDays int) *domain.Summary {
	nm := domain.NextMonthSummary{
		Total:   decimal.Zero,
		Paid:    decimal.Zero,
		Partial: decimal.Zero,
	}
	for _, loan := range snapshot.NextMonthLoans {
		nm.Total = nm.Total.Add(loan.Amount)
		switch loan.Status {
		case domain.LoanStatusPaid:
			nm.Paid = nm.Paid.Add(loan.Amount)
		case domain.LoanStatusPartial:
			nm.Partial = nm.Partial.Add(loan.PaidSoFar())
		}
	}
	nm.Remaining = nm.Total.Sub(nm.Paid).Sub(nm.Partial)

	inst := domain.InstallmentSummary{
		Total:           decimal.Zero,
		RemainingAmount: decimal.Zero,
	}
	for _, loan := range snapshot.InstallmentLoans {
		inst.Total = inst.Total.Add(loan.Amount)
		paid := loan.PaidTerms()
		inst.PaidTerms += paid
		inst.RemainingTerms += len(loan.Installments) - paid
		inst.RemainingAmount = inst.RemainingAmount.Add(loan.RemainingAmount())
	}

	return &domain.Summary{
		NextMonth:   nm,
		Installment: inst,
		GrandTotal:  nm.Remaining.Add(inst.RemainingAmount),
		Reminders:   scanReminders(snapshot, now, reminderDays),
	}
}

// Reminders counts obligations overdue or due within the reminder window.
func (s *DebtService) Reminders(ctx context.Context) domain.Reminders {
	var reminders domain.Reminders
	s.read(func(snapshot *domain.Snapshot, now time.Time) {
		reminders = scanReminders(snapshot, now, s.opts.ReminderDays)
	})
	return reminders
}

// scanReminders looks at every unpaid next-month loan and at the earliest
// unpaid installment of each installment loan.
func scanReminders(snapshot *domain.Snapshot, now time.Time, days int) domain.Reminders {
	reminders := domain.Reminders{WindowDays: days}
	today := domain.NewDate(now).Time
	classify := func(due domain.Date) {
		switch {
		case utils.IsDateOverdue(due.Time, today):
			reminders.Overdue++
		case utils.IsDateUpcoming(due.Time, today, days):
			reminders.Upcoming++
		}
	}

	for _, loan := range snapshot.NextMonthLoans {
		if loan.Status == domain.LoanStatusUnpaid {
			classify(loan.RepayDate)
		}
	}
	for _, loan := range snapshot.InstallmentLoans {
		if next := loan.FirstUnpaid(); next != nil {
			classify(next.Date)
		}
	}
	return reminders
}

// Composition splits outstanding debt by loan type.
func (s *DebtService) Composition(ctx context.Context) domain.Composition {
	composition := domain.Composition{NextMonth: decimal.Zero, Installment: decimal.Zero}
	s.read(func(snapshot *domain.Snapshot, _ time.Time) {
		for _, loan := range snapshot.NextMonthLoans {
			composition.NextMonth = composition.NextMonth.Add(loan.Outstanding())
		}
		for _, loan := range snapshot.InstallmentLoans {
			composition.Installment = composition.Installment.Add(loan.RemainingAmount())
		}
	})
	return composition
}

// UpcomingPayments projects what falls due in each of the next months,
// starting with the current one. A non-positive months uses 3.
func (s *DebtService) UpcomingPayments(ctx context.Context, months int) []domain.MonthlyProjection {
	if months <= 0 {
		months = defaultProjectionMonths
	}

	var projections []domain.MonthlyProjection
	s.read(func(snapshot *domain.Snapshot, now time.Time) {
		projections = make([]domain.MonthlyProjection, months)
		index := make(map[string]int, months)
		today := domain.NewDate(now)
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		for i := range projections {
			key := first.AddDate(0, i, 0).Format("2006-01")
			projections[i] = domain.MonthlyProjection{
				Month:       key,
				NextMonth:   decimal.Zero,
				Installment: decimal.Zero,
			}
			index[key] = i
		}

		for _, loan := range snapshot.NextMonthLoans {
			if loan.IsPaid() || loan.RepayDate.IsZero() {
				continue
			}
			if i, ok := index[loan.RepayDate.Format("2006-01")]; ok {
				projections[i].NextMonth = projections[i].NextMonth.Add(loan.Outstanding())
			}
		}
		for _, loan := range snapshot.InstallmentLoans {
			for _, inst := range loan.Installments {
				if inst.IsPaid() {
					continue
				}
				if i, ok := index[inst.Date.Format("2006-01")]; ok {
					projections[i].Installment = projections[i].Installment.Add(inst.Amount)
				}
			}
		}
	})
	return projections
}
