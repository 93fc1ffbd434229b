package types

import (
	"github.com/icodeforyou/spotprice-go/hours"
)

type EnergyPrice struct {
	Hour  hours.DateHour
	Price float64 // In the configured unit, tax included
}

// SeriesMeta describes how the provider denominated a day's prices.
type SeriesMeta struct {
	Currency   string `json:"currency"`
	Unit       string `json:"unit"`
	Resolution string `json:"resolution"`
}
