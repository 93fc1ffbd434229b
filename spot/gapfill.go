package spot

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/icodeforyou/spotprice-go/calc"
	"github.com/icodeforyou/spotprice-go/hours"
)

// FillGaps completes every day to 24 hourly entries. A missing hour takes the
// price of the hour before it, a missing midnight is priced at zero (the
// provider leaves out hours whose price repeats the previous hour). Returns a
// new bucket and the number of synthesized entries.
func FillGaps(logger *slog.Logger, bucket DayBucket, unit calc.Unit) (DayBucket, int) {
	filled := bucket.Clone()
	synthesized := 0

	for _, day := range filled.Days() {
		entries := filled[day]

		present := make(map[uint8]float64, HoursPerDay)
		for _, e := range entries {
			h, err := hours.ParseClockHour(e.Time)
			if err != nil {
				logger.Warn("ignoring entry with malformed time", slog.String("day", day), slog.String("time", e.Time))
				continue
			}
			present[h] = e.Price
		}
		if len(present) == HoursPerDay {
			continue
		}

		for h := uint8(0); h < HoursPerDay; h++ {
			if _, ok := present[h]; ok {
				continue
			}

			price := 0.0
			if h > 0 {
				price = present[h-1]
			}
			present[h] = price

			entry := HourPrice{Time: fmt.Sprintf("%02d:00", h), Price: price}
			pos := slices.IndexFunc(entries, func(e HourPrice) bool { return e.Time > entry.Time })
			if pos < 0 {
				entries = append(entries, entry)
			} else {
				entries = slices.Insert(entries, pos, entry)
			}
			synthesized++

			logger.Warn(fmt.Sprintf("on %s at %s the price was synthesized as %v %s", day, entry.Time, price, unit),
				slog.String("day", day),
				slog.String("hour", entry.Time),
				slog.Float64("price", price),
				slog.String("unit", string(unit)))
		}

		filled[day] = entries
	}

	return filled, synthesized
}
