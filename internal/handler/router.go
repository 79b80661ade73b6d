package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/segyhp/debt-engine/internal/metrics"
	"github.com/segyhp/debt-engine/pkg/response"
)

// NewRouter mounts the health probes, the /api/v1 routes and, when m is
// non-nil, the /metrics endpoint. CORS wraps the router so preflight
// requests are answered before method matching.
func NewRouter(debt *DebtHandler, health *HealthHandler, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", health.Health).Methods("GET")
	router.HandleFunc("/health/ready", health.Ready).Methods("GET")
	if m != nil {
		router.Handle("/metrics", m.Handler()).Methods("GET")
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	debt.RegisterRoutes(api)

	router.Use(response.LoggingMiddleware(logger, observeRoute(m)))

	return response.CORSMiddleware(router)
}

// RegisterRoutes attaches every engine endpoint to r.
func (h *DebtHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/next-month-loans", h.ListNextMonthLoans).Methods("GET")
	r.HandleFunc("/next-month-loans", h.CreateNextMonthLoan).Methods("POST")
	r.HandleFunc("/next-month-loans/{id}", h.GetNextMonthLoan).Methods("GET")
	r.HandleFunc("/next-month-loans/{id}", h.EditNextMonthLoan).Methods("PATCH")
	r.HandleFunc("/next-month-loans/{id}", h.DeleteNextMonthLoan).Methods("DELETE")
	r.HandleFunc("/next-month-loans/{id}/paid", h.MarkNextMonthLoanPaid).Methods("POST")
	r.HandleFunc("/next-month-loans/{id}/minimum-payment", h.GetMinimumPayment).Methods("GET")
	r.HandleFunc("/next-month-loans/{id}/payments", h.ProcessPayment).Methods("POST")

	r.HandleFunc("/installment-loans", h.ListInstallmentLoans).Methods("GET")
	r.HandleFunc("/installment-loans", h.CreateInstallmentLoan).Methods("POST")
	r.HandleFunc("/installment-loans/{id}", h.GetInstallmentLoan).Methods("GET")
	r.HandleFunc("/installment-loans/{id}", h.EditInstallmentLoan).Methods("PATCH")
	r.HandleFunc("/installment-loans/{id}", h.DeleteInstallmentLoan).Methods("DELETE")
	r.HandleFunc("/installment-loans/{id}/remaining", h.GetRemaining).Methods("GET")
	r.HandleFunc("/installment-loans/{id}/installments/{installmentId}/paid", h.MarkInstallmentPaid).Methods("POST")

	r.HandleFunc("/payment-records", h.ListPaymentRecords).Methods("GET")

	r.HandleFunc("/platforms", h.ListPlatforms).Methods("GET")
	r.HandleFunc("/platforms", h.AddPlatform).Methods("POST")
	r.HandleFunc("/platforms/{name}", h.DeletePlatform).Methods("DELETE")

	r.HandleFunc("/settings/min-payment-rate", h.GetMinPaymentRate).Methods("GET")
	r.HandleFunc("/settings/min-payment-rate", h.SetMinPaymentRate).Methods("PUT")

	r.HandleFunc("/summary", h.GetSummary).Methods("GET")
	r.HandleFunc("/reminders", h.GetReminders).Methods("GET")
	r.HandleFunc("/composition", h.GetComposition).Methods("GET")
	r.HandleFunc("/projections", h.GetProjections).Methods("GET")

	r.HandleFunc("/export", h.Export).Methods("GET")
	r.HandleFunc("/import", h.Import).Methods("POST")
	r.HandleFunc("/reset", h.Reset).Methods("POST")
}

// observeRoute labels requests by their route template so ids do not blow up
// metric cardinality.
func observeRoute(m *metrics.Metrics) response.Observer {
	if m == nil {
		return nil
	}
	return func(r *http.Request, statusCode int, elapsed time.Duration) {
		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.ObserveRequest(r.Method, route, statusCode, elapsed)
	}
}
