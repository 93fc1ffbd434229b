package spot

import (
	"slices"

	"github.com/icodeforyou/spotprice-go/types"
)

const HoursPerDay = 24

type HourPrice struct {
	Time  string  `json:"time"` // "HH:mm"
	Price float64 `json:"price"`
}

// DayBucket holds one ordered price table per ISO date.
type DayBucket map[string][]HourPrice

// Series is what a Source returns: prices in chronological order per day plus
// the provider's metadata for every day seen.
type Series struct {
	Prices []types.EnergyPrice
	Meta   map[string]types.SeriesMeta
}

// GroupByDay splits prices on their date and keeps encounter order within a
// day, so the input must already be chronological per day.
func GroupByDay(prices []types.EnergyPrice) DayBucket {
	bucket := make(DayBucket)
	for _, p := range prices {
		bucket[p.Hour.Date] = append(bucket[p.Hour.Date], HourPrice{
			Time:  p.Hour.TimeOfDay(),
			Price: p.Price,
		})
	}
	return bucket
}

// Days returns the dates in ascending order.
func (b DayBucket) Days() []string {
	days := make([]string, 0, len(b))
	for day := range b {
		days = append(days, day)
	}
	slices.Sort(days)
	return days
}

// Len counts entries over all days.
func (b DayBucket) Len() int {
	n := 0
	for _, entries := range b {
		n += len(entries)
	}
	return n
}

func (b DayBucket) Prices() []float64 {
	prices := make([]float64, 0, b.Len())
	for _, day := range b.Days() {
		for _, e := range b[day] {
			prices = append(prices, e.Price)
		}
	}
	return prices
}

// Clone copies the bucket so it can be modified without touching the original.
func (b DayBucket) Clone() DayBucket {
	c := make(DayBucket, len(b))
	for day, entries := range b {
		c[day] = slices.Clone(entries)
	}
	return c
}
