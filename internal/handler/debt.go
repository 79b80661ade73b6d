package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/segyhp/debt-engine/internal/domain"
	"github.com/segyhp/debt-engine/internal/repository"
	customError "github.com/segyhp/debt-engine/pkg/errors"
	"github.com/segyhp/debt-engine/pkg/response"
	"github.com/segyhp/debt-engine/pkg/validation"
)

// DebtEngine is the set of engine operations the HTTP layer exposes.
type DebtEngine interface {
	CreateNextMonthLoan(ctx context.Context, request *domain.CreateNextMonthLoanRequest) (*domain.NextMonthLoan, error)
	EditNextMonthLoan(ctx context.Context, id string, update *domain.NextMonthLoanUpdate) (*domain.NextMonthLoan, error)
	MarkNextMonthLoanPaid(ctx context.Context, id string) (*domain.NextMonthLoan, error)
	DeleteNextMonthLoan(ctx context.Context, id string) error
	ProcessMinimumPayment(ctx context.Context, id string, paidAmount decimal.Decimal) (*domain.PaymentOutcome, error)
	MinimumPaymentFor(ctx context.Context, id string) (*domain.MinimumPaymentResponse, error)
	GetNextMonthLoan(ctx context.Context, id string) (*domain.NextMonthLoan, error)
	ListNextMonthLoans(ctx context.Context) []*domain.NextMonthLoan

	CreateInstallmentLoan(ctx context.Context, request *domain.CreateInstallmentLoanRequest) (*domain.InstallmentLoan, error)
	EditInstallmentLoan(ctx context.Context, id string, update *domain.InstallmentLoanUpdate) (*domain.InstallmentLoan, error)
	DeleteInstallmentLoan(ctx context.Context, id string) error
	MarkInstallmentPaid(ctx context.Context, loanID, installmentID string) (*domain.InstallmentLoan, error)
	RemainingAmount(ctx context.Context, id string) (*domain.RemainingResponse, error)
	GetInstallmentLoan(ctx context.Context, id string) (*domain.InstallmentLoan, error)
	ListInstallmentLoans(ctx context.Context) []*domain.InstallmentLoan

	PaymentRecords(ctx context.Context, filter domain.PaymentRecordFilter) []*domain.PaymentRecord

	Platforms(ctx context.Context) []string
	AddPlatform(ctx context.Context, name string) ([]string, error)
	DeletePlatform(ctx context.Context, name string) ([]string, error)
	MinPaymentRate(ctx context.Context) decimal.Decimal
	SetMinPaymentRate(ctx context.Context, rate decimal.Decimal) (decimal.Decimal, error)

	Summary(ctx context.Context) *domain.Summary
	Reminders(ctx context.Context) domain.Reminders
	Composition(ctx context.Context) domain.Composition
	UpcomingPayments(ctx context.Context, months int) []domain.MonthlyProjection

	Import(ctx context.Context, document []byte) error
	Export(ctx context.Context) ([]byte, error)
	Reset(ctx context.Context) error
}

type DebtHandler struct {
	service   DebtEngine
	validator *validator.Validate
}

func NewDebtHandler(service DebtEngine) *DebtHandler {
	return &DebtHandler{
		service:   service,
		validator: validation.New(),
	}
}

// decode reads a JSON body into dst and validates it.
func (h *DebtHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		response.FromError(w, customError.WrapValidation(validation.Describe(err)))
		return false
	}
	return true
}

// Next-month loans

func (h *DebtHandler) ListNextMonthLoans(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.service.ListNextMonthLoans(r.Context()))
}

func (h *DebtHandler) CreateNextMonthLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateNextMonthLoanRequest
	if !h.decode(w, r, &req) {
		return
	}

	loan, err := h.service.CreateNextMonthLoan(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, loan)
}

func (h *DebtHandler) GetNextMonthLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.service.GetNextMonthLoan(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loan)
}

func (h *DebtHandler) EditNextMonthLoan(w http.ResponseWriter, r *http.Request) {
	var update domain.NextMonthLoanUpdate
	if !h.decode(w, r, &update) {
		return
	}

	loan, err := h.service.EditNextMonthLoan(r.Context(), mux.Vars(r)["id"], &update)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loan)
}

func (h *DebtHandler) DeleteNextMonthLoan(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteNextMonthLoan(r.Context(), mux.Vars(r)["id"]); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *DebtHandler) MarkNextMonthLoanPaid(w http.ResponseWriter, r *http.Request) {
	loan, err := h.service.MarkNextMonthLoanPaid(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loan)
}

func (h *DebtHandler) GetMinimumPayment(w http.ResponseWriter, r *http.Request) {
	minimum, err := h.service.MinimumPaymentFor(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, minimum)
}

func (h *DebtHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req domain.MinimumPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	outcome, err := h.service.ProcessMinimumPayment(r.Context(), mux.Vars(r)["id"], req.Amount)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, outcome)
}

// Installment loans

func (h *DebtHandler) ListInstallmentLoans(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.service.ListInstallmentLoans(r.Context()))
}

func (h *DebtHandler) CreateInstallmentLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateInstallmentLoanRequest
	if !h.decode(w, r, &req) {
		return
	}

	loan, err := h.service.CreateInstallmentLoan(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, loan)
}

func (h *DebtHandler) GetInstallmentLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.service.GetInstallmentLoan(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loan)
}

func (h *DebtHandler) EditInstallmentLoan(w http.ResponseWriter, r *http.Request) {
	var update domain.InstallmentLoanUpdate
	if !h.decode(w, r, &update) {
		return
	}

	loan, err := h.service.EditInstallmentLoan(r.Context(), mux.Vars(r)["id"], &update)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loan)
}

func (h *DebtHandler) DeleteInstallmentLoan(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteInstallmentLoan(r.Context(), mux.Vars(r)["id"]); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *DebtHandler) MarkInstallmentPaid(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	loan, err := h.service.MarkInstallmentPaid(r.Context(), vars["id"], vars["installmentId"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loan)
}

func (h *DebtHandler) GetRemaining(w http.ResponseWriter, r *http.Request) {
	remaining, err := h.service.RemainingAmount(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, remaining)
}

// Ledger, registry and settings

func (h *DebtHandler) ListPaymentRecords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.PaymentRecordFilter{
		LoanID:   query.Get("loanId"),
		LoanType: query.Get("loanType"),
	}
	response.Success(w, h.service.PaymentRecords(r.Context(), filter))
}

func (h *DebtHandler) ListPlatforms(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.service.Platforms(r.Context()))
}

func (h *DebtHandler) AddPlatform(w http.ResponseWriter, r *http.Request) {
	var req domain.AddPlatformRequest
	if !h.decode(w, r, &req) {
		return
	}

	platforms, err := h.service.AddPlatform(r.Context(), req.Name)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, platforms)
}

func (h *DebtHandler) DeletePlatform(w http.ResponseWriter, r *http.Request) {
	platforms, err := h.service.DeletePlatform(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, platforms)
}

func (h *DebtHandler) GetMinPaymentRate(w http.ResponseWriter, r *http.Request) {
	response.Success(w, domain.MinPaymentRateResponse{Rate: h.service.MinPaymentRate(r.Context())})
}

func (h *DebtHandler) SetMinPaymentRate(w http.ResponseWriter, r *http.Request) {
	var req domain.MinPaymentRateRequest
	if !h.decode(w, r, &req) {
		return
	}

	rate, err := h.service.SetMinPaymentRate(r.Context(), req.Rate)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, domain.MinPaymentRateResponse{Rate: rate})
}

// Reporting

func (h *DebtHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.service.Summary(r.Context()))
}

func (h *DebtHandler) GetReminders(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.service.Reminders(r.Context()))
}

func (h *DebtHandler) GetComposition(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.service.Composition(r.Context()))
}

func (h *DebtHandler) GetProjections(w http.ResponseWriter, r *http.Request) {
	months := 0
	if raw := r.URL.Query().Get("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 24 {
			response.FromError(w, customError.WrapValidation("months must be an integer between 1 and 24"))
			return
		}
		months = n
	}
	response.Success(w, h.service.UpcomingPayments(r.Context(), months))
}

// Import, export and reset

// Export streams the snapshot as a downloadable JSON document, not wrapped
// in the response envelope.
func (h *DebtHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Export(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}

	filename := fmt.Sprintf("debt_records_%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *DebtHandler) Import(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, repository.MaxSnapshotBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.FromError(w, customError.WrapImportSchema(fmt.Sprintf("document exceeds %d bytes", repository.MaxSnapshotBytes)))
			return
		}
		response.BadRequest(w, "Could not read request body", err)
		return
	}

	if err := h.service.Import(r.Context(), body); err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, h.service.Summary(r.Context()))
}

func (h *DebtHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(r.Context()); err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, h.service.Summary(r.Context()))
}
