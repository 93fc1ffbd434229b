package www

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/icodeforyou/spotprice-go/task"
	"github.com/icodeforyou/spotprice-go/www/chartjs"
)

var errNoLatest = errors.New("no spot prices fetched yet")

type currentPrice struct {
	Time  string  `json:"time"`
	Price float64 `json:"price"`
}

type latestResponse struct {
	task.Result
	Current *currentPrice `json:"current,omitempty"`
}

func NewLatestHandler(logger *slog.Logger, latest *task.Latest, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := latest.Get()
		if !ok {
			writeJSON(logger, w, http.StatusNotFound, errorResponse{Error: errNoLatest.Error()})
			return
		}

		resp := latestResponse{Result: res}
		if hp, ok := latest.PriceAt(time.Now().In(loc)); ok {
			resp.Current = &currentPrice{Time: hp.Time, Price: hp.Price}
		}
		writeJSON(logger, w, http.StatusOK, resp)
	}
}

func NewChartHandler(logger *slog.Logger, latest *task.Latest) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := latest.Get()
		if !ok {
			writeJSON(logger, w, http.StatusNotFound, errorResponse{Error: errNoLatest.Error()})
			return
		}

		chart := chartjs.NewPriceChart("Day-ahead spot price", string(res.Unit), res.Prices)
		writeJSON(logger, w, http.StatusOK, chart)
	}
}
