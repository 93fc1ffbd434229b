package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/icodeforyou/spotprice-go/calc"
	"github.com/icodeforyou/spotprice-go/hours"
	"github.com/icodeforyou/spotprice-go/publisher"
	"github.com/icodeforyou/spotprice-go/spot"
)

type PriceService interface {
	GetAveragePrice(ctx context.Context, start, end time.Time) (spot.DayBucket, float64, error)
	Unit() calc.Unit
}

type PricePublisher interface {
	PublishPrices(bucket spot.DayBucket, unit calc.Unit) error
	PublishAverage(msg publisher.AverageMessage) error
}

type Broadcaster interface {
	Broadcast(v any)
}

const spotPriceTaskTimeout = 30 * time.Second

// NewSpotPriceTask fetches today and tomorrow in the market timezone. Until
// tomorrow's auction is published only today is returned, the next run picks
// tomorrow up. pub and bc may be nil.
func NewSpotPriceTask(
	logger *slog.Logger,
	svc PriceService,
	pub PricePublisher,
	bc Broadcaster,
	latest *Latest,
	loc *time.Location,
	now func() time.Time,
) func() {
	return func() {
		logger.Debug("running spot price task...")

		ctx, cancel := context.WithTimeout(context.Background(), spotPriceTaskTimeout)
		defer cancel()

		start := hours.StartOfDay(now(), loc)
		end := start.AddDate(0, 0, 2).Add(-time.Hour)

		bucket, avg, err := svc.GetAveragePrice(ctx, start, end)
		if err != nil {
			logger.Error("spot price task error", slog.Any("error", err))
			return
		}

		days := bucket.Days()
		result := Result{
			From:    days[0],
			To:      days[len(days)-1],
			Unit:    svc.Unit(),
			Average: avg,
			Prices:  bucket,
			Updated: now(),
		}
		latest.Set(result)

		if pub != nil {
			if err := pub.PublishPrices(bucket, result.Unit); err != nil {
				logger.Error("spot price task error, publishing prices", slog.Any("error", err))
			}
			err := pub.PublishAverage(publisher.AverageMessage{
				From:    result.From,
				To:      result.To,
				Average: result.Average,
				Unit:    result.Unit,
				Updated: result.Updated,
			})
			if err != nil {
				logger.Error("spot price task error, publishing average", slog.Any("error", err))
			}
		}

		if bc != nil {
			bc.Broadcast(result)
		}

		logger.Info("spot price task done",
			slog.String("from", result.From),
			slog.String("to", result.To),
			slog.Float64("average", avg))
	}
}
