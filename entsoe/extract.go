package entsoe

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/icodeforyou/spotprice-go/calc"
	"github.com/icodeforyou/spotprice-go/convert"
	"github.com/icodeforyou/spotprice-go/hours"
	"github.com/icodeforyou/spotprice-go/spot"
	"github.com/icodeforyou/spotprice-go/types"
)

const (
	supportedCurrency   = "EUR"
	supportedPriceUnit  = "MWH"
	supportedResolution = "PT60M"

	intervalLayout = "2006-01-02T15:04Z07:00"
)

// Extractor turns raw blocks into prices for a window.
type Extractor struct {
	Unit       calc.Unit
	TaxPercent float64
	Precision  int32
	Location   *time.Location // Market timezone the hours are expressed in
	Strict     bool           // Refuse anything but EUR, MWH and PT60M
}

// Extract returns the prices of ts that fall inside w, in position order per
// period. Periods that can't be read are skipped and reported in the returned
// error together with the prices of the periods that could.
func (ex Extractor) Extract(logger *slog.Logger, ts TimeSeries, w spot.Window) ([]types.EnergyPrice, map[string]types.SeriesMeta, error) {
	if ex.Strict {
		if !strings.EqualFold(ts.Currency, supportedCurrency) {
			return nil, nil, &FormatError{Series: ts.MRID, Field: "currency", Value: ts.Currency}
		}
		if !strings.EqualFold(ts.PriceUnit, supportedPriceUnit) {
			return nil, nil, &FormatError{Series: ts.MRID, Field: "measure unit", Value: ts.PriceUnit}
		}
	}

	var (
		prices []types.EnergyPrice
		meta   = make(map[string]types.SeriesMeta)
		errs   []error
	)

	for _, p := range ts.Periods {
		pp, err := ex.extractPeriod(logger, ts, p, w, meta)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		prices = append(prices, pp...)
	}

	return prices, meta, errors.Join(errs...)
}

func (ex Extractor) extractPeriod(
	logger *slog.Logger,
	ts TimeSeries,
	p Period,
	w spot.Window,
	meta map[string]types.SeriesMeta,
) ([]types.EnergyPrice, error) {
	if ex.Strict && p.Resolution != supportedResolution {
		return nil, &FormatError{Series: ts.MRID, Field: "resolution", Value: p.Resolution}
	}

	// The delivery day is the date of the interval end, not the start. The
	// start is the previous evening in UTC for every zone east of Greenwich.
	end, err := parseIntervalTime(p.TimeInterval.End)
	if err != nil {
		return nil, &FormatError{Series: ts.MRID, Field: "interval end", Value: p.TimeInterval.End}
	}
	end = end.UTC()
	midnight := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, ex.location())

	points := slices.Clone(p.Points)
	slices.SortStableFunc(points, func(a, b Point) int { return cmp.Compare(a.Position, b.Position) })

	prices := make([]types.EnergyPrice, 0, len(points))
	for _, pt := range points {
		if pt.Position < 1 {
			logger.Warn("skipping point with invalid position", slog.String("series", ts.MRID), slog.Int("position", pt.Position))
			continue
		}

		at := midnight.Add(time.Duration(pt.Position-1) * time.Hour)
		if !w.Contains(at) {
			continue
		}

		amount, err := convert.Amount(strings.TrimSpace(pt.Amount))
		if err != nil {
			logger.Warn("skipping point with invalid amount",
				slog.String("series", ts.MRID),
				slog.Int("position", pt.Position),
				slog.String("amount", pt.Amount))
			continue
		}

		dh := hours.FromTime(at)
		if _, ok := meta[dh.Date]; !ok {
			meta[dh.Date] = types.SeriesMeta{Currency: ts.Currency, Unit: ts.PriceUnit, Resolution: p.Resolution}
		}

		prices = append(prices, types.EnergyPrice{
			Hour:  dh,
			Price: calc.SpotPrice(amount, ex.Unit, ex.TaxPercent, ex.Precision),
		})
	}

	return prices, nil
}

func (ex Extractor) location() *time.Location {
	if ex.Location == nil {
		return time.UTC
	}
	return ex.Location
}

func parseIntervalTime(str string) (time.Time, error) {
	if t, err := time.Parse(intervalLayout, str); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid interval time %q: %w", str, err)
	}
	return t, nil
}
