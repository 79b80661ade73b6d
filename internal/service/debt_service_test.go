package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/debt-engine/internal/domain"
	"github.com/segyhp/debt-engine/internal/logging"
	"github.com/segyhp/debt-engine/internal/metrics"
	"github.com/segyhp/debt-engine/internal/repository"
	"github.com/segyhp/debt-engine/internal/repository/mocks"
	customError "github.com/segyhp/debt-engine/pkg/errors"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService(t *testing.T, modify ...func(*Options)) (*DebtService, *repository.MemoryRepository, *testClock) {
	t.Helper()

	opts := DefaultOptions()
	for _, fn := range modify {
		fn(&opts)
	}

	repo := repository.NewMemoryRepository()
	clock := &testClock{now: fixedNow}
	svc := NewDebtService(repo, logging.Discard(), metrics.New(), opts).WithClock(clock.Now)
	require.NoError(t, svc.Load(context.Background()))
	return svc, repo, clock
}

func createNextMonth(t *testing.T, svc *DebtService, amount, rate string) *domain.NextMonthLoan {
	t.Helper()
	loan, err := svc.CreateNextMonthLoan(context.Background(), &domain.CreateNextMonthLoanRequest{
		Platform:   "HuaBei",
		Amount:     dec(amount),
		BorrowDate: "2024-03-01",
		RepayDate:  "2024-04-01",
		Rate:       dec(rate),
	})
	require.NoError(t, err)
	return loan
}

func TestLoad_SeedsDefaults(t *testing.T) {
	svc, repo, _ := newTestService(t)

	assert.Equal(t, domain.DefaultPlatforms, svc.Platforms(context.Background()))
	assert.True(t, svc.MinPaymentRate(context.Background()).Equal(dec("0.1")))
	assert.NotEmpty(t, repo.Raw(), "seeded snapshot must be saved")
}

func TestLoad_FillsMissingSections(t *testing.T) {
	repo := repository.NewMemoryRepository()
	require.NoError(t, repo.Save(context.Background(), &domain.Snapshot{
		NextMonthLoans:   []*domain.NextMonthLoan{},
		InstallmentLoans: []*domain.InstallmentLoan{},
	}))

	svc := NewDebtService(repo, logging.Discard(), nil, DefaultOptions())
	require.NoError(t, svc.Load(context.Background()))

	stored, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPlatforms, stored.Platforms)
	assert.NotNil(t, stored.PaymentRecords)
	assert.True(t, stored.MinPaymentRate.Equal(dec("0.1")))
}

func TestRefresh_NeverWrites(t *testing.T) {
	t.Run("missing snapshot", func(t *testing.T) {
		repo := &mocks.MockSnapshotRepository{}
		repo.On("Load", mock.Anything).Return(nil, repository.ErrSnapshotNotFound)

		svc := NewDebtService(repo, logging.Discard(), nil, DefaultOptions())
		require.NoError(t, svc.Refresh(context.Background()))

		assert.Equal(t, domain.DefaultPlatforms, svc.Platforms(context.Background()))
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("incomplete snapshot", func(t *testing.T) {
		repo := &mocks.MockSnapshotRepository{}
		repo.On("Load", mock.Anything).Return(&domain.Snapshot{NextMonthLoans: []*domain.NextMonthLoan{}}, nil)

		svc := NewDebtService(repo, logging.Discard(), nil, DefaultOptions())
		require.NoError(t, svc.Refresh(context.Background()))

		assert.True(t, svc.MinPaymentRate(context.Background()).Equal(dec("0.1")))
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestLoad_RepositoryFailure(t *testing.T) {
	repo := &mocks.MockSnapshotRepository{}
	repo.On("Load", mock.Anything).Return(nil, errors.New("connection refused"))

	svc := NewDebtService(repo, logging.Discard(), nil, DefaultOptions())
	err := svc.Load(context.Background())

	assert.ErrorIs(t, err, customError.ErrPersistence)
	assert.Equal(t, customError.ErrCodePersistence, customError.CodeOf(err))
	repo.AssertExpectations(t)
}

func TestLoad_SavesOnlyWhenModified(t *testing.T) {
	stored := domain.NewSnapshot(domain.DefaultMinPaymentRate)

	repo := &mocks.MockSnapshotRepository{}
	repo.On("Load", mock.Anything).Return(stored, nil)

	svc := NewDebtService(repo, logging.Discard(), nil, DefaultOptions())
	require.NoError(t, svc.Load(context.Background()))

	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestMutate_PersistenceFailureLeavesStateUnchanged(t *testing.T) {
	svc, repo, _ := newTestService(t)
	existing := createNextMonth(t, svc, "500", "0")
	before := repo.Raw()

	repo.WithError(errors.New("disk full"))

	_, err := svc.CreateNextMonthLoan(context.Background(), &domain.CreateNextMonthLoanRequest{
		Platform:   "HuaBei",
		Amount:     dec("100"),
		BorrowDate: "2024-03-01",
		RepayDate:  "2024-04-01",
	})
	assert.ErrorIs(t, err, customError.ErrPersistence)

	_, err = svc.ProcessMinimumPayment(context.Background(), existing.ID, dec("100"))
	assert.ErrorIs(t, err, customError.ErrPersistence)

	loans := svc.ListNextMonthLoans(context.Background())
	require.Len(t, loans, 1)
	assert.Equal(t, domain.LoanStatusUnpaid, loans[0].Status)
	assert.Empty(t, svc.PaymentRecords(context.Background(), domain.PaymentRecordFilter{}))
	assert.Equal(t, before, repo.Raw())

	// recovers once the store does
	repo.WithError(nil)
	_, err = svc.ProcessMinimumPayment(context.Background(), existing.ID, dec("100"))
	assert.NoError(t, err)
}

func TestMutate_SavesWholeSnapshot(t *testing.T) {
	repo := &mocks.MockSnapshotRepository{}
	repo.On("Load", mock.Anything).Return(domain.NewSnapshot(domain.DefaultMinPaymentRate), nil)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(s *domain.Snapshot) bool {
		return len(s.NextMonthLoans) == 1 && len(s.Platforms) == len(domain.DefaultPlatforms)
	})).Return(nil).Once()

	svc := NewDebtService(repo, logging.Discard(), nil, DefaultOptions()).WithClock(func() time.Time { return fixedNow })
	require.NoError(t, svc.Load(context.Background()))

	_, err := svc.CreateNextMonthLoan(context.Background(), &domain.CreateNextMonthLoanRequest{
		Platform:   "CreditCard",
		Amount:     dec("250"),
		BorrowDate: "2024-03-01",
		RepayDate:  "2024-04-01",
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestReturnedEntitiesAreCopies(t *testing.T) {
	svc, _, _ := newTestService(t)
	loan := createNextMonth(t, svc, "100", "0")

	loan.Amount = dec("1")
	loan.Status = domain.LoanStatusPaid

	stored, err := svc.GetNextMonthLoan(context.Background(), loan.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(dec("100")))
	assert.Equal(t, domain.LoanStatusUnpaid, stored.Status)
}
