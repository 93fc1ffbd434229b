package www

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/icodeforyou/spotprice-go/hours"
	"github.com/icodeforyou/spotprice-go/spot"
)

func intOrDefault(u *url.URL, key string, defaultValue int) int {
	if v := u.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

// windowParams reads start and end, each RFC3339 or yyyy-mm-dd in loc. A
// plain end date means its last hour. Both default to today.
func windowParams(u *url.URL, loc *time.Location, now time.Time) (time.Time, time.Time, error) {
	today := hours.StartOfDay(now, loc)
	start, end := today, lastHourOf(today)

	if v := strings.TrimSpace(u.Query().Get("start")); v != "" {
		t, err := hours.ParseDateOrTime(v, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start: %w", spot.ErrInvalidWindow, err)
		}
		start, end = t, lastHourOf(hours.StartOfDay(t, loc))
	}

	if v := strings.TrimSpace(u.Query().Get("end")); v != "" {
		t, err := hours.ParseDateOrTime(v, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: end: %w", spot.ErrInvalidWindow, err)
		}
		if len(v) == len(hours.DateLayout) {
			t = lastHourOf(t)
		}
		end = t
	}

	return start, end, nil
}

func lastHourOf(midnight time.Time) time.Time {
	return midnight.AddDate(0, 0, 1).Add(-time.Hour)
}

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, spot.ErrInvalidWindow):
		return http.StatusBadRequest
	case errors.Is(err, spot.ErrEmptyResultSet), errors.Is(err, spot.ErrProviderRejected):
		return http.StatusNotFound
	case errors.Is(err, spot.ErrNoResponse):
		return http.StatusGatewayTimeout
	case errors.Is(err, spot.ErrTransformFailure), errors.Is(err, spot.ErrUnexpectedResponseShape):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(logger *slog.Logger, w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("handling request", slog.Any("error", err))
	} else {
		logger.Debug("handling request", slog.Any("error", err))
	}
	writeJSON(logger, w, status, errorResponse{Error: err.Error()})
}

func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("unable to encode response", slog.Any("error", err))
	}
}
