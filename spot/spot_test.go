package spot

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/icodeforyou/spotprice-go/calc"
	"github.com/icodeforyou/spotprice-go/hours"
	"github.com/icodeforyou/spotprice-go/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.DiscardHandler)

func price(date string, hour uint8, p float64) types.EnergyPrice {
	return types.EnergyPrice{Hour: hours.DateHour{Date: date, Hour: hour}, Price: p}
}

func fullDay(date string, base float64) []types.EnergyPrice {
	prices := make([]types.EnergyPrice, 0, HoursPerDay)
	for h := uint8(0); h < HoursPerDay; h++ {
		prices = append(prices, price(date, h, base+float64(h)))
	}
	return prices
}

func assertCompleteDays(t *testing.T, bucket DayBucket) {
	t.Helper()
	for day, entries := range bucket {
		require.Len(t, entries, HoursPerDay, "day %s", day)
		for h, e := range entries {
			assert.Equal(t, fmt.Sprintf("%02d:00", h), e.Time, "day %s", day)
		}
	}
}

func TestNewWindow(t *testing.T) {
	start := time.Date(2024, time.April, 16, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr bool
	}{
		{name: "valid", start: start, end: start.Add(23 * time.Hour)},
		{name: "equal", start: start, end: start, wantErr: true},
		{name: "reversed", start: start, end: start.Add(-time.Hour), wantErr: true},
		{name: "zero start", end: start, wantErr: true},
		{name: "zero end", start: start, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWindow(tt.start, tt.end)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidWindow)
				assert.Equal(t, Window{}, w)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.start, w.Start)
			assert.Equal(t, tt.end, w.End)
		})
	}
}

func TestWindowContainsIsInclusive(t *testing.T) {
	start := time.Date(2024, time.April, 16, 0, 0, 0, 0, time.UTC)
	w, err := NewWindow(start, start.Add(2*time.Hour))
	require.NoError(t, err)

	assert.True(t, w.Contains(start))
	assert.True(t, w.Contains(start.Add(2*time.Hour)))
	assert.False(t, w.Contains(start.Add(-time.Second)))
	assert.False(t, w.Contains(start.Add(2*time.Hour+time.Second)))
}

func TestGroupByDay(t *testing.T) {
	bucket := GroupByDay([]types.EnergyPrice{
		price("2024-04-16", 0, 1.5),
		price("2024-04-16", 1, 2.5),
		price("2024-04-17", 0, 3.5),
	})

	assert.Equal(t, []string{"2024-04-16", "2024-04-17"}, bucket.Days())
	assert.Equal(t, []HourPrice{{Time: "00:00", Price: 1.5}, {Time: "01:00", Price: 2.5}}, bucket["2024-04-16"])
	assert.Equal(t, []HourPrice{{Time: "00:00", Price: 3.5}}, bucket["2024-04-17"])
	assert.Equal(t, 3, bucket.Len())
}

func TestFillGapsForwardFills(t *testing.T) {
	day := fullDay("2024-04-16", 10)
	// hours 00 and 01 carry 5 and 6, 02 is missing
	day[0].Price = 5
	day[1].Price = 6
	day = append(day[:2], day[3:]...)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	filled, n := FillGaps(logger, GroupByDay(day), calc.UnitCentPerKWh)

	assert.Equal(t, 1, n)
	assertCompleteDays(t, filled)
	assert.Equal(t, HourPrice{Time: "02:00", Price: 6}, filled["2024-04-16"][2])
	assert.Equal(t, 13.0, filled["2024-04-16"][3].Price)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "day=2024-04-16")
	assert.Contains(t, logs.String(), "hour=02:00")
	assert.Contains(t, logs.String(), "price=6")
}

func TestFillGapsMidnightIsZero(t *testing.T) {
	day := fullDay("2024-04-16", 10)[1:]

	filled, n := FillGaps(discard, GroupByDay(day), calc.UnitCentPerKWh)

	assert.Equal(t, 1, n)
	assertCompleteDays(t, filled)
	assert.Equal(t, HourPrice{Time: "00:00", Price: 0}, filled["2024-04-16"][0])
}

func TestFillGapsMultipleGaps(t *testing.T) {
	bucket := GroupByDay([]types.EnergyPrice{
		price("2024-04-16", 1, 4),
		price("2024-04-16", 5, 7),
		price("2024-04-16", 20, 9),
	})

	filled, n := FillGaps(discard, bucket, calc.UnitEuroPerMWh)

	assert.Equal(t, 21, n)
	assertCompleteDays(t, filled)

	entries := filled["2024-04-16"]
	assert.Equal(t, 0.0, entries[0].Price)
	for h := 1; h <= 4; h++ {
		assert.Equal(t, 4.0, entries[h].Price, "hour %d", h)
	}
	for h := 5; h <= 19; h++ {
		assert.Equal(t, 7.0, entries[h].Price, "hour %d", h)
	}
	for h := 20; h <= 23; h++ {
		assert.Equal(t, 9.0, entries[h].Price, "hour %d", h)
	}
}

func TestFillGapsDoesNotModifyInput(t *testing.T) {
	bucket := GroupByDay(fullDay("2024-04-16", 10)[2:])
	_, _ = FillGaps(discard, bucket, calc.UnitCentPerKWh)
	assert.Len(t, bucket["2024-04-16"], 22)
}

func TestFillGapsIsIdempotent(t *testing.T) {
	prices := append(fullDay("2024-04-16", 10), fullDay("2024-04-17", 20)...)
	bucket := GroupByDay(prices)

	once, n1 := FillGaps(discard, bucket, calc.UnitCentPerKWh)
	twice, n2 := FillGaps(discard, GroupByDay(prices), calc.UnitCentPerKWh)
	again, n3 := FillGaps(discard, once, calc.UnitCentPerKWh)

	assert.Zero(t, n1)
	assert.Zero(t, n2)
	assert.Zero(t, n3)
	assert.Equal(t, bucket, once)
	assert.Equal(t, once, twice)
	assert.Equal(t, once, again)
}

func TestAverage(t *testing.T) {
	avg, err := Average(GroupByDay(append(fullDay("2024-04-16", 0), fullDay("2024-04-17", 24)...)), 2)
	require.NoError(t, err)
	assert.Equal(t, 23.5, avg)

	_, err = Average(DayBucket{}, 2)
	assert.ErrorIs(t, err, ErrEmptyResultSet)

	_, err = Average(nil, 2)
	assert.ErrorIs(t, err, ErrEmptyResultSet)
}

type fakeSource struct {
	series Series
	err    error
	got    []Window
}

func (f *fakeSource) Prices(_ context.Context, w Window) (Series, error) {
	f.got = append(f.got, w)
	return f.series, f.err
}

func newTestService(src Source, fill bool) *Service {
	return New(discard, src, Options{Unit: calc.UnitCentPerKWh, Precision: 2, FillGaps: fill})
}

func TestGetSpotPrices(t *testing.T) {
	day := fullDay("2024-04-16", 1)
	day = append(day[:5], day[6:]...)
	src := &fakeSource{series: Series{Prices: day}}
	svc := newTestService(src, true)

	start := time.Date(2024, time.April, 16, 0, 0, 0, 0, time.UTC)
	end := start.Add(23 * time.Hour)
	bucket, count, err := svc.GetSpotPrices(context.Background(), start, end)

	require.NoError(t, err)
	assert.Equal(t, 23, count)
	assertCompleteDays(t, bucket)
	assert.Equal(t, 5.0, bucket["2024-04-16"][5].Price)
	require.Len(t, src.got, 1)
	assert.Equal(t, Window{Start: start, End: end}, src.got[0])
}

func TestGetSpotPricesWithoutFill(t *testing.T) {
	src := &fakeSource{series: Series{Prices: fullDay("2024-04-16", 1)[3:]}}
	svc := newTestService(src, false)

	start := time.Date(2024, time.April, 16, 0, 0, 0, 0, time.UTC)
	bucket, count, err := svc.GetSpotPrices(context.Background(), start, start.Add(23*time.Hour))

	require.NoError(t, err)
	assert.Equal(t, 21, count)
	assert.Len(t, bucket["2024-04-16"], 21)
}

func TestGetSpotPricesRejectsInvalidWindow(t *testing.T) {
	src := &fakeSource{series: Series{Prices: fullDay("2024-04-16", 1)}}
	svc := newTestService(src, true)
	start := time.Date(2024, time.April, 16, 0, 0, 0, 0, time.UTC)

	for _, end := range []time.Time{start, start.Add(-time.Hour)} {
		bucket, count, err := svc.GetSpotPrices(context.Background(), start, end)
		assert.ErrorIs(t, err, ErrInvalidWindow)
		assert.Nil(t, bucket)
		assert.Zero(t, count)

		bucket, avg, err := svc.GetAveragePrice(context.Background(), start, end)
		assert.ErrorIs(t, err, ErrInvalidWindow)
		assert.Nil(t, bucket)
		assert.Zero(t, avg)
	}
	assert.Empty(t, src.got, "source must not be called for an invalid window")
}

func TestGetSpotPricesPropagatesSourceErrors(t *testing.T) {
	for _, kind := range []error{ErrNoResponse, ErrProviderRejected, ErrTransformFailure, ErrUnexpectedResponseShape} {
		t.Run(kind.Error(), func(t *testing.T) {
			svc := newTestService(&fakeSource{err: fmt.Errorf("entsoe: %w", kind)}, true)
			start := time.Date(2024, time.April, 16, 0, 0, 0, 0, time.UTC)

			bucket, count, err := svc.GetSpotPrices(context.Background(), start, start.Add(time.Hour))
			assert.ErrorIs(t, err, kind)
			assert.Nil(t, bucket)
			assert.Zero(t, count)
		})
	}
}

func TestGetSpotPricesEmptySeries(t *testing.T) {
	svc := newTestService(&fakeSource{}, true)
	start := time.Date(2024, time.April, 16, 0, 0, 0, 0, time.UTC)

	bucket, _, err := svc.GetSpotPrices(context.Background(), start, start.Add(time.Hour))
	assert.ErrorIs(t, err, ErrEmptyResultSet)
	assert.Nil(t, bucket)
}

func TestGetAveragePrice(t *testing.T) {
	prices := append(fullDay("2024-04-16", 0), fullDay("2024-04-17", 24)...)
	// drop 2024-04-17 00:00, a missing midnight is filled with 0
	prices = append(prices[:24], prices[25:]...)
	svc := newTestService(&fakeSource{series: Series{Prices: prices}}, true)

	start := time.Date(2024, time.April, 16, 0, 0, 0, 0, time.UTC)
	bucket, avg, err := svc.GetAveragePrice(context.Background(), start, start.Add(47*time.Hour))

	require.NoError(t, err)
	assertCompleteDays(t, bucket)
	assert.Equal(t, 0.0, bucket["2024-04-17"][0].Price)
	// (sum 0..47 - 24) / 48
	assert.Equal(t, 23.0, avg)
}
