package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/debt-engine/internal/domain"
	customError "github.com/segyhp/debt-engine/pkg/errors"
	"github.com/segyhp/debt-engine/pkg/utils"
)

// Platforms returns the registry in order.
func (s *DebtService) Platforms(ctx context.Context) []string {
	var platforms []string
	s.read(func(snapshot *domain.Snapshot, _ time.Time) {
		platforms = slices.Clone(snapshot.Platforms)
	})
	return platforms
}

// AddPlatform appends a new name to the registry.
func (s *DebtService) AddPlatform(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, customError.WrapValidation("platform name is required")
	}

	var platforms []string
	err := s.mutate(ctx, func(tx *txn) error {
		if name == domain.OtherPlatform {
			return customError.WrapPlatformProtected(name)
		}
		if tx.HasPlatform(name) {
			return customError.WrapPlatformExists(name)
		}
		tx.Platforms = append(tx.Platforms, name)
		platforms = slices.Clone(tx.Platforms)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "platform added", "platform", name)
	return platforms, nil
}

// DeletePlatform removes a name no loan references. "Other" is permanent.
func (s *DebtService) DeletePlatform(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)

	var platforms []string
	err := s.mutate(ctx, func(tx *txn) error {
		if name == domain.OtherPlatform {
			return customError.WrapPlatformProtected(name)
		}
		if !tx.HasPlatform(name) {
			return customError.WrapPlatformNotFound(name)
		}
		if tx.PlatformInUse(name) {
			return customError.WrapPlatformInUse(name)
		}
		tx.Platforms = slices.DeleteFunc(tx.Platforms, func(p string) bool { return p == name })
		platforms = slices.Clone(tx.Platforms)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "platform deleted", "platform", name)
	return platforms, nil
}

// MinPaymentRate returns the global minimum payment rate.
func (s *DebtService) MinPaymentRate(ctx context.Context) decimal.Decimal {
	var rate decimal.Decimal
	s.read(func(snapshot *domain.Snapshot, _ time.Time) {
		rate = snapshot.MinPaymentRate
	})
	return rate
}

// SetMinPaymentRate replaces the global minimum payment rate. rate is in
// decimal form (0.1 for 10%).
func (s *DebtService) SetMinPaymentRate(ctx context.Context, rate decimal.Decimal) (decimal.Decimal, error) {
	normalized, err := checkMinPaymentRate(utils.RoundRate(rate.Abs()))
	if err != nil {
		return decimal.Zero, err
	}

	err = s.mutate(ctx, func(tx *txn) error {
		tx.MinPaymentRate = normalized
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.logger.InfoContext(ctx, "minimum payment rate updated", "rate", normalized.String())
	return normalized, nil
}
