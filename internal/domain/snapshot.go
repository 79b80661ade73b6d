package domain

import (
	"slices"

	"github.com/shopspring/decimal"
)

// OtherPlatform is the registry sentinel: always present, never removable.
const OtherPlatform = "Other"

// DefaultPlatforms is the registry a fresh snapshot starts with.
var DefaultPlatforms = []string{
	"HuaBei",
	"CreditCard",
	"MeituanMonthlyPay",
	"MeituanLoan",
	"FangxinLoan",
	"BeiBei",
	OtherPlatform,
}

// Money and rates are written as JSON numbers so exported documents stay
// arithmetic-safe for consumers of the legacy format.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultMinPaymentRate is the global minimum payment rate (10%).
var DefaultMinPaymentRate = decimal.RequireFromString("0.1")

var (
	MinPaymentRateFloor   = decimal.RequireFromString("0.05")
	MinPaymentRateCeiling = decimal.RequireFromString("0.3")
)

// Snapshot is the whole domain object graph, persisted as one document.
type Snapshot struct {
	NextMonthLoans   []*NextMonthLoan   `json:"nextMonthLoans"`
	InstallmentLoans []*InstallmentLoan `json:"installmentLoans"`
	PaymentRecords   []*PaymentRecord   `json:"paymentRecords"`
	Platforms        []string           `json:"platforms"`
	MinPaymentRate   decimal.Decimal    `json:"minPaymentRate"`
}

// NewSnapshot returns an empty snapshot with the default registry and rate.
func NewSnapshot(minPaymentRate decimal.Decimal) *Snapshot {
	s := &Snapshot{MinPaymentRate: minPaymentRate}
	s.EnsureDefaults(minPaymentRate)
	return s
}

// EnsureDefaults fills fields missing from older documents and reports
// whether anything changed.
func (s *Snapshot) EnsureDefaults(minPaymentRate decimal.Decimal) bool {
	modified := false
	if s.NextMonthLoans == nil {
		s.NextMonthLoans = []*NextMonthLoan{}
		modified = true
	}
	if s.InstallmentLoans == nil {
		s.InstallmentLoans = []*InstallmentLoan{}
		modified = true
	}
	if s.PaymentRecords == nil {
		s.PaymentRecords = []*PaymentRecord{}
		modified = true
	}
	if len(s.Platforms) == 0 {
		s.Platforms = slices.Clone(DefaultPlatforms)
		modified = true
	}
	if !slices.Contains(s.Platforms, OtherPlatform) {
		s.Platforms = append(s.Platforms, OtherPlatform)
		modified = true
	}
	if !s.MinPaymentRate.IsPositive() {
		s.MinPaymentRate = minPaymentRate
		modified = true
	}
	return modified
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		NextMonthLoans:   make([]*NextMonthLoan, len(s.NextMonthLoans)),
		InstallmentLoans: make([]*InstallmentLoan, len(s.InstallmentLoans)),
		PaymentRecords:   make([]*PaymentRecord, len(s.PaymentRecords)),
		Platforms:        slices.Clone(s.Platforms),
		MinPaymentRate:   s.MinPaymentRate,
	}
	for i, l := range s.NextMonthLoans {
		c.NextMonthLoans[i] = l.Clone()
	}
	for i, l := range s.InstallmentLoans {
		c.InstallmentLoans[i] = l.Clone()
	}
	for i, r := range s.PaymentRecords {
		v := *r
		c.PaymentRecords[i] = &v
	}
	return c
}

func (s *Snapshot) FindNextMonthLoan(id string) *NextMonthLoan {
	for _, l := range s.NextMonthLoans {
		if l.ID == id {
			return l
		}
	}
	return nil
}

func (s *Snapshot) FindInstallmentLoan(id string) *InstallmentLoan {
	for _, l := range s.InstallmentLoans {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// RemoveNextMonthLoan deletes the loan with id and reports whether it existed.
func (s *Snapshot) RemoveNextMonthLoan(id string) bool {
	n := len(s.NextMonthLoans)
	s.NextMonthLoans = slices.DeleteFunc(s.NextMonthLoans, func(l *NextMonthLoan) bool { return l.ID == id })
	return len(s.NextMonthLoans) != n
}

// RemoveInstallmentLoan deletes the loan with id and reports whether it existed.
func (s *Snapshot) RemoveInstallmentLoan(id string) bool {
	n := len(s.InstallmentLoans)
	s.InstallmentLoans = slices.DeleteFunc(s.InstallmentLoans, func(l *InstallmentLoan) bool { return l.ID == id })
	return len(s.InstallmentLoans) != n
}

func (s *Snapshot) HasPlatform(name string) bool {
	return slices.Contains(s.Platforms, name)
}

// PlatformInUse reports whether any loan references the platform.
func (s *Snapshot) PlatformInUse(name string) bool {
	for _, l := range s.NextMonthLoans {
		if l.Platform == name {
			return true
		}
	}
	for _, l := range s.InstallmentLoans {
		if l.Platform == name {
			return true
		}
	}
	return false
}

// DTOs for registry and settings requests

type AddPlatformRequest struct {
	Name string `json:"name" validate:"required"`
}

// MinPaymentRateRequest carries the global rate in decimal form (0.1 for 10%).
type MinPaymentRateRequest struct {
	Rate decimal.Decimal `json:"rate"`
}

type MinPaymentRateResponse struct {
	Rate decimal.Decimal `json:"rate"`
}
