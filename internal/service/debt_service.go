package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/debt-engine/internal/config"
	"github.com/segyhp/debt-engine/internal/domain"
	"github.com/segyhp/debt-engine/internal/metrics"
	"github.com/segyhp/debt-engine/internal/repository"
	customError "github.com/segyhp/debt-engine/pkg/errors"
	"github.com/segyhp/debt-engine/pkg/validation"
)

// errUnchanged aborts a mutation without saving. It never reaches callers.
var errUnchanged = errors.New("unchanged")

// Options tunes engine policy.
type Options struct {
	// DefaultMinPaymentRate seeds fresh snapshots and fills documents lacking one.
	DefaultMinPaymentRate decimal.Decimal
	// BackfillPastInstallments marks installments due before today as paid
	// when a loan is created.
	BackfillPastInstallments bool
	// ReminderDays is the "upcoming" window in days.
	ReminderDays int
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		DefaultMinPaymentRate:    domain.DefaultMinPaymentRate,
		BackfillPastInstallments: true,
		ReminderDays:             3,
	}
}

// OptionsFromConfig reads engine policy from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		DefaultMinPaymentRate:    cfg.GetDefaultMinPaymentRate(),
		BackfillPastInstallments: cfg.Business.BackfillPastInstallments,
		ReminderDays:             cfg.Reminder.Days,
	}
}

// DebtService owns the live snapshot and runs every engine operation
// against it, one at a time.
type DebtService struct {
	repo     repository.SnapshotRepository
	logger   *slog.Logger
	metrics  *metrics.Metrics
	validate *validator.Validate
	opts     Options
	now      func() time.Time

	mu       sync.Mutex
	snapshot *domain.Snapshot
}

func NewDebtService(
	repo repository.SnapshotRepository,
	logger *slog.Logger,
	m *metrics.Metrics,
	opts Options,
) *DebtService {
	if !opts.DefaultMinPaymentRate.IsPositive() {
		opts.DefaultMinPaymentRate = domain.DefaultMinPaymentRate
	}
	if opts.ReminderDays <= 0 {
		opts.ReminderDays = 3
	}
	return &DebtService{
		repo:     repo,
		logger:   logger,
		metrics:  m,
		validate: validation.New(),
		opts:     opts,
		now:      time.Now,
		snapshot: domain.NewSnapshot(opts.DefaultMinPaymentRate),
	}
}

// WithClock replaces the time source. Used by tests and the scheduler.
func (s *DebtService) WithClock(now func() time.Time) *DebtService {
	s.now = now
	return s
}

// Load reads the stored snapshot, seeding defaults when nothing was stored
// yet, and saves it back when defaults had to be filled in.
func (s *DebtService) Load(ctx context.Context) error {
	return s.load(ctx, true)
}

// Refresh reloads the stored snapshot without ever writing. Missing or
// incomplete documents are defaulted in memory only, so read-only consumers
// such as the reminder job never race the API server for the store.
func (s *DebtService) Refresh(ctx context.Context) error {
	return s.load(ctx, false)
}

func (s *DebtService) load(ctx context.Context, persist bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.repo.Load(ctx)
	modified := false
	switch {
	case errors.Is(err, repository.ErrSnapshotNotFound):
		snapshot = domain.NewSnapshot(s.opts.DefaultMinPaymentRate)
		modified = true
	case err != nil:
		s.logger.ErrorContext(ctx, "failed to load snapshot", "error", err)
		return customError.WrapPersistenceError(err)
	default:
		modified = snapshot.EnsureDefaults(s.opts.DefaultMinPaymentRate)
	}

	if modified && persist {
		if err := s.repo.Save(ctx, snapshot); err != nil {
			s.metrics.PersistenceFailed()
			s.logger.ErrorContext(ctx, "failed to save seeded snapshot", "error", err)
			return customError.WrapPersistenceError(err)
		}
	}

	s.snapshot = snapshot
	s.logger.InfoContext(ctx, "snapshot loaded",
		"next_month_loans", len(snapshot.NextMonthLoans),
		"installment_loans", len(snapshot.InstallmentLoans),
		"payment_records", len(snapshot.PaymentRecords),
		"saved_defaults", modified && persist,
	)
	return nil
}

// Ping checks the persistence backend.
func (s *DebtService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// txn is the working copy a mutation edits. It is committed only after the
// whole copy was saved.
type txn struct {
	*domain.Snapshot
	now      time.Time
	recorded []*domain.PaymentRecord
}

// recordPayment appends one ledger entry to the working copy.
func (tx *txn) recordPayment(loanID, loanType string, amount decimal.Decimal, paymentType, remarks string) *domain.PaymentRecord {
	record := &domain.PaymentRecord{
		ID:          uuid.NewString(),
		LoanID:      loanID,
		LoanType:    loanType,
		Amount:      amount,
		PaymentType: paymentType,
		Date:        domain.NewDate(tx.now),
		Remarks:     remarks,
		CreatedAt:   tx.now,
	}
	tx.PaymentRecords = append(tx.PaymentRecords, record)
	tx.recorded = append(tx.recorded, record)
	return record
}

// mutate runs fn on a deep copy of the live snapshot, saves the copy and
// then swaps it in. On any error the live snapshot is left as it was.
func (s *DebtService) mutate(ctx context.Context, fn func(tx *txn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txn{Snapshot: s.snapshot.Clone(), now: s.now()}
	if err := fn(tx); err != nil {
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}

	if err := s.repo.Save(ctx, tx.Snapshot); err != nil {
		s.metrics.PersistenceFailed()
		s.logger.ErrorContext(ctx, "failed to persist snapshot", "error", err)
		return customError.WrapPersistenceError(err)
	}

	s.snapshot = tx.Snapshot
	for _, r := range tx.recorded {
		s.metrics.PaymentRecorded(r.LoanType, r.PaymentType)
	}
	return nil
}

// read runs fn against the live snapshot under the lock. fn must not keep
// references into the snapshot.
func (s *DebtService) read(fn func(snapshot *domain.Snapshot, now time.Time)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.snapshot, s.now())
}
