package spot

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/icodeforyou/spotprice-go/calc"
)

// Source fetches and extracts the raw price series for a validated window.
type Source interface {
	Prices(ctx context.Context, w Window) (Series, error)
}

type Options struct {
	Unit      calc.Unit
	Precision int32
	// When false days are returned as received, possibly with fewer than 24 hours.
	FillGaps bool
}

// Service runs the price pipeline. It keeps no per request state and can be
// shared between goroutines.
type Service struct {
	logger *slog.Logger
	source Source
	opts   Options
}

func New(logger *slog.Logger, source Source, opts Options) *Service {
	return &Service{
		logger: logger.With(slog.String("module", "spot")),
		source: source,
		opts:   opts,
	}
}

func (s *Service) Unit() calc.Unit {
	return s.opts.Unit
}

// GetSpotPrices returns the hourly prices per day for [start, end] together
// with the number of prices the provider delivered. On failure the bucket is
// nil and the error wraps one of the package's Err kinds.
func (s *Service) GetSpotPrices(ctx context.Context, start, end time.Time) (DayBucket, int, error) {
	logger := s.logger.With(slog.String("request", uuid.NewString()))

	w, err := NewWindow(start, end)
	if err != nil {
		logger.Error("rejected spot price request", slog.Any("error", err))
		return nil, 0, err
	}

	return s.spotPrices(ctx, logger, w)
}

// GetAveragePrice returns the same bucket as GetSpotPrices and the mean price
// over all of its hours.
func (s *Service) GetAveragePrice(ctx context.Context, start, end time.Time) (DayBucket, float64, error) {
	logger := s.logger.With(slog.String("request", uuid.NewString()))

	w, err := NewWindow(start, end)
	if err != nil {
		logger.Error("rejected average price request", slog.Any("error", err))
		return nil, 0, err
	}

	bucket, count, err := s.spotPrices(ctx, logger, w)
	if err != nil {
		return nil, 0, err
	}

	if expected := HoursPerDay * len(bucket); count != expected {
		logger.Warn("average is based on an incomplete series",
			slog.Int("expected", expected),
			slog.Int("received", count),
			slog.Bool("filled", s.opts.FillGaps))
	}

	avg, err := Average(bucket, s.opts.Precision)
	if err != nil {
		logger.Error("can't calculate average price", slog.Any("error", err))
		return nil, 0, err
	}

	logger.Info("average price calculated", slog.Float64("average", avg), slog.String("unit", string(s.opts.Unit)))
	return bucket, avg, nil
}

func (s *Service) spotPrices(ctx context.Context, logger *slog.Logger, w Window) (DayBucket, int, error) {
	logger.Debug("fetching spot prices", slog.String("window", w.String()))

	series, err := s.source.Prices(ctx, w)
	if err != nil {
		logger.Error("can't receive spot prices", slog.Any("error", err))
		return nil, 0, err
	}

	count := len(series.Prices)
	if count == 0 {
		logger.Warn("no spot prices inside the requested window", slog.String("window", w.String()))
		return nil, 0, ErrEmptyResultSet
	}

	for _, day := range sortedKeys(series.Meta) {
		m := series.Meta[day]
		logger.Debug("series format",
			slog.String("day", day),
			slog.String("currency", m.Currency),
			slog.String("unit", m.Unit),
			slog.String("resolution", m.Resolution))
	}

	bucket := GroupByDay(series.Prices)
	if s.opts.FillGaps {
		var synthesized int
		bucket, synthesized = FillGaps(logger, bucket, s.opts.Unit)
		if synthesized > 0 {
			logger.Warn("synthesized missing hours", slog.Int("count", synthesized))
		}
	}

	logger.Info("spot prices retrieved",
		slog.Int("received", count),
		slog.Int("days", len(bucket)))

	return bucket, count, nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
