package calc

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Unit string

const (
	UnitCentPerKWh Unit = "cnt/kWh"
	UnitEuroPerMWh Unit = "EUR/MWh"
)

// ParseUnit maps the configured unit mode, "per-kWh" or "per-MWh".
func ParseUnit(mode string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "per-kwh", "kwh", "cnt/kwh":
		return UnitCentPerKWh, nil
	case "per-mwh", "mwh", "eur/mwh":
		return UnitEuroPerMWh, nil
	default:
		return "", fmt.Errorf("unknown unit mode %q, expected per-kWh or per-MWh", mode)
	}
}

var (
	ten     = decimal.NewFromInt(10)
	hundred = decimal.NewFromInt(100)
)

// SpotPrice converts a provider amount in EUR/MWh into unit with tax applied.
// EUR/MWh divided by ten is euro cents per kWh.
func SpotPrice(amount decimal.Decimal, unit Unit, taxPercent float64, precision int32) float64 {
	if unit == UnitCentPerKWh {
		amount = amount.Div(ten)
	}
	multiplier := decimal.NewFromInt(1).Add(decimal.NewFromFloat(taxPercent).Div(hundred))
	return amount.Mul(multiplier).Round(precision).InexactFloat64()
}

// Mean returns the rounded arithmetic mean, ok is false for no prices.
func Mean(prices []float64, precision int32) (float64, bool) {
	if len(prices) == 0 {
		return 0, false
	}
	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(decimal.NewFromFloat(p))
	}
	return sum.Div(decimal.NewFromInt(int64(len(prices)))).Round(precision).InexactFloat64(), true
}
