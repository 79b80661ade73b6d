package utils

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used for loan and installment dates.
const DateLayout = "2006-01-02"

var (
	daysInYear        = decimal.NewFromInt(365)
	monthsInYear      = decimal.NewFromInt(12)
	hundred           = decimal.NewFromInt(100)
	minimumPaymentMin = decimal.NewFromInt(10)
)

// RoundCents rounds a currency amount to 2 decimal places.
func RoundCents(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// RoundRate rounds a rate to 4 decimal places.
func RoundRate(rate decimal.Decimal) decimal.Decimal {
	return rate.Round(4)
}

// PercentToDecimal converts a percentage (e.g. 10 for 10%) into its decimal
// form (0.1), rounded to 4 decimal places.
func PercentToDecimal(percent decimal.Decimal) decimal.Decimal {
	return RoundRate(percent.Abs().Div(hundred))
}

// CalculateMonthlyPayment calculates the monthly payment of an installment loan.
// A non-positive rate splits the principal evenly; otherwise the equal-installment
// annuity formula is used:
//
//	r       = annualRatePercent / 100 / 12
//	payment = P * r * (1+r)^n / ((1+r)^n - 1)
func CalculateMonthlyPayment(principal decimal.Decimal, annualRatePercent decimal.Decimal, terms int) decimal.Decimal {
	if terms <= 0 || principal.IsZero() {
		return decimal.Zero
	}

	n := decimal.NewFromInt(int64(terms))
	if annualRatePercent.LessThanOrEqual(decimal.Zero) {
		return RoundCents(principal.Div(n))
	}

	monthlyRate := annualRatePercent.Div(hundred).Div(monthsInYear)
	factor := decimal.NewFromInt(1).Add(monthlyRate).Pow(n).Round(20)
	payment := principal.Mul(monthlyRate).Mul(factor).DivRound(factor.Sub(decimal.NewFromInt(1)), 16)

	return RoundCents(payment)
}

// SimpleInterest returns principal * (annualRate / 365) * days rounded to cents.
// annualRate is in decimal form (0.18 for 18%).
func SimpleInterest(principal decimal.Decimal, annualRate decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}
	dailyRate := annualRate.DivRound(daysInYear, 16)
	return RoundCents(principal.Mul(dailyRate).Mul(decimal.NewFromInt(int64(days))))
}

// MinimumPayment returns max(10, ceil(amount * rate)).
func MinimumPayment(amount decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	return decimal.Max(minimumPaymentMin, amount.Mul(rate).Ceil())
}

// ElapsedDays counts the days between from and to, rounding any partial day up.
func ElapsedDays(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	return int(math.Ceil(to.Sub(from).Hours() / 24))
}

// AddMonths advances date by n calendar months. When the target month is
// shorter than the source day, the result is clamped to the target month's
// last day (Jan 31 + 1 month = Feb 28/29).
func AddMonths(date time.Time, months int) time.Time {
	year, month, day := date.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, date.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	hour, minute, sec := date.Clock()
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, minute, sec, date.Nanosecond(), date.Location())
}

// TruncateToDay drops the clock part of t in its own location.
func TruncateToDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// IsDateOverdue checks if a due date lies strictly before today.
func IsDateOverdue(dueDate time.Time, now time.Time) bool {
	if dueDate.IsZero() {
		return false
	}
	return TruncateToDay(dueDate).Before(TruncateToDay(now))
}

// IsDateUpcoming checks if a due date falls between today and today+days inclusive.
func IsDateUpcoming(dueDate time.Time, now time.Time, days int) bool {
	if dueDate.IsZero() {
		return false
	}
	today := TruncateToDay(now)
	target := TruncateToDay(dueDate)
	if target.Before(today) {
		return false
	}
	return !target.After(today.AddDate(0, 0, days))
}

// ParseDate parses a calendar date. Both "2006-01-02" and RFC 3339 timestamps
// are accepted; the result is midnight UTC of the calendar day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
}
