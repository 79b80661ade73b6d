package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/segyhp/debt-engine/internal/domain"
	customError "github.com/segyhp/debt-engine/pkg/errors"
	"github.com/segyhp/debt-engine/pkg/utils"
	"github.com/segyhp/debt-engine/pkg/validation"
)

var maxRatePercent = decimal.NewFromInt(100)

// normalizeAmount takes the absolute value rounded to cents and requires it
// to be positive.
func normalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	normalized := utils.RoundCents(amount.Abs())
	if !normalized.IsPositive() {
		return decimal.Zero, customError.WrapValidation("amount must be greater than 0")
	}
	return normalized, nil
}

// normalizeRate returns an annual percentage rate rounded to 4 places in [0, 100].
func normalizeRate(rate decimal.Decimal) (decimal.Decimal, error) {
	normalized := utils.RoundRate(rate.Abs())
	if normalized.GreaterThan(maxRatePercent) {
		return decimal.Zero, customError.WrapValidation("rate must be between 0 and 100")
	}
	return normalized, nil
}

// normalizeMinRate converts a percentage into a decimal minimum payment rate
// and range-checks it.
func normalizeMinRate(percent decimal.Decimal) (decimal.Decimal, error) {
	return checkMinPaymentRate(utils.PercentToDecimal(percent))
}

func checkMinPaymentRate(rate decimal.Decimal) (decimal.Decimal, error) {
	if rate.LessThan(domain.MinPaymentRateFloor) || rate.GreaterThan(domain.MinPaymentRateCeiling) {
		return decimal.Zero, customError.WrapValidation(fmt.Sprintf(
			"minimum payment rate must be between %s and %s",
			domain.MinPaymentRateFloor, domain.MinPaymentRateCeiling,
		))
	}
	return rate, nil
}

func parseDate(field, value string) (domain.Date, error) {
	d, err := domain.ParseDate(value)
	if err != nil {
		return domain.Date{}, customError.WrapValidation(fmt.Sprintf("%s must be a valid date", field))
	}
	return d, nil
}

func (s *DebtService) validateStruct(v interface{}) error {
	if err := s.validate.Struct(v); err != nil {
		return customError.WrapValidation(validation.Describe(err))
	}
	return nil
}

func requireRegistered(snapshot *domain.Snapshot, platform string) error {
	if platform == "" {
		return customError.WrapValidation("platform is required")
	}
	if !snapshot.HasPlatform(platform) {
		return customError.WrapValidation(fmt.Sprintf("platform %q is not registered", platform))
	}
	return nil
}
