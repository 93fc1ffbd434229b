package www

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/icodeforyou/spotprice-go/database"
	"github.com/icodeforyou/spotprice-go/logging"
)

type LogReader interface {
	GetLogEntries(ctx context.Context, minLvl slog.Level, page, pageSize int) ([]database.LogEntryRow, error)
}

type logEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Attrs     string    `json:"attrs,omitempty"`
}

type logResponse struct {
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
	Entries  []logEntry `json:"entries"`
}

// NewLogHandler pages through the log table, newest first. level defaults to DEBUG.
func NewLogHandler(logger *slog.Logger, logs LogReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := max(intOrDefault(r.URL, "page", 1), 1)
		pageSize := min(max(intOrDefault(r.URL, "pageSize", 25), 1), 500)

		minLevel := slog.LevelDebug
		if lvl := r.URL.Query().Get("level"); lvl != "" {
			minLevel = logging.LevelFromString(&lvl)
		}

		rows, err := logs.GetLogEntries(r.Context(), minLevel, page, pageSize)
		if err != nil {
			writeError(logger, w, err)
			return
		}

		entries := make([]logEntry, len(rows))
		for i, row := range rows {
			entries[i] = logEntry{
				Timestamp: row.Timestamp,
				Level:     slog.Level(row.Level).String(),
				Message:   row.Message,
				Attrs:     row.Attrs,
			}
		}

		writeJSON(logger, w, http.StatusOK, logResponse{Page: page, PageSize: pageSize, Entries: entries})
	}
}
