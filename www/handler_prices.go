package www

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/icodeforyou/spotprice-go/calc"
	"github.com/icodeforyou/spotprice-go/spot"
)

type PriceService interface {
	GetSpotPrices(ctx context.Context, start, end time.Time) (spot.DayBucket, int, error)
	GetAveragePrice(ctx context.Context, start, end time.Time) (spot.DayBucket, float64, error)
	Unit() calc.Unit
}

type pricesResponse struct {
	Unit     calc.Unit      `json:"unit"`
	Received int            `json:"received"`
	Prices   spot.DayBucket `json:"prices"`
}

type averageResponse struct {
	Unit    calc.Unit      `json:"unit"`
	Average float64        `json:"average"`
	Prices  spot.DayBucket `json:"prices"`
}

func NewPricesHandler(logger *slog.Logger, svc PriceService, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, end, err := windowParams(r.URL, loc, time.Now())
		if err != nil {
			writeError(logger, w, err)
			return
		}

		bucket, received, err := svc.GetSpotPrices(r.Context(), start, end)
		if err != nil {
			writeError(logger, w, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, pricesResponse{Unit: svc.Unit(), Received: received, Prices: bucket})
	}
}

func NewAverageHandler(logger *slog.Logger, svc PriceService, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, end, err := windowParams(r.URL, loc, time.Now())
		if err != nil {
			writeError(logger, w, err)
			return
		}

		bucket, avg, err := svc.GetAveragePrice(r.Context(), start, end)
		if err != nil {
			writeError(logger, w, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, averageResponse{Unit: svc.Unit(), Average: avg, Prices: bucket})
	}
}
