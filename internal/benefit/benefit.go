// Package benefit converts a benefit base into monthly nominal and real
// amounts and relates them to wages.
package benefit

import (
	"math"

	"github.com/shopspring/decimal"
)

const DefaultLifeMonths = 240

// Annuitize spreads the base over the payout period; months below 1 count as 1.
func Annuitize(base float64, months int) float64 {
	if months < 1 {
		months = 1
	}
	return base / float64(months)
}

// Deflate expresses nominal in current-year money. Negative horizons are
// treated as zero.
func Deflate(nominal, cpi float64, years int) float64 {
	if years < 0 {
		years = 0
	}
	return nominal / math.Pow(1+cpi, float64(years))
}

// ReplacementRate is benefit as a percentage of wage, nil when wage is not
// positive.
func ReplacementRate(benefit, wage float64) *float64 {
	if wage <= 0 || math.IsNaN(wage) || math.IsInf(wage, 0) {
		return nil
	}
	r := Round2(100 * benefit / wage)
	return &r
}

// Round2 rounds half away from zero to cents.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Cents returns v rounded to cents as a decimal for exact money arithmetic.
func Cents(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// PercentOf returns 100*part/whole rounded to 2 dp, nil when whole is zero.
func PercentOf(part, whole decimal.Decimal) *float64 {
	if whole.IsZero() {
		return nil
	}
	v := part.Mul(decimal.NewFromInt(100)).DivRound(whole, 2).InexactFloat64()
	return &v
}
