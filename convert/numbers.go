package convert

import (
	"github.com/shopspring/decimal"
)

// RoundFloat64 rounds half away from zero, the way prices are quoted.
func RoundFloat64(number float64, decimals int32) float64 {
	return decimal.NewFromFloat(number).Round(decimals).InexactFloat64()
}

// Amount parses a provider amount such as "16.50" without going through float64.
func Amount(str string) (decimal.Decimal, error) {
	return decimal.NewFromString(str)
}
