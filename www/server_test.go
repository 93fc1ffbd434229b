package www

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icodeforyou/spotprice-go/calc"
	"github.com/icodeforyou/spotprice-go/config"
	"github.com/icodeforyou/spotprice-go/database"
	"github.com/icodeforyou/spotprice-go/spot"
	"github.com/icodeforyou/spotprice-go/task"
)

var discard = slog.New(slog.DiscardHandler)

type fakeService struct {
	bucket     spot.DayBucket
	err        error
	start, end time.Time
}

func (f *fakeService) GetSpotPrices(_ context.Context, start, end time.Time) (spot.DayBucket, int, error) {
	f.start, f.end = start, end
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.bucket, 2, nil
}

func (f *fakeService) GetAveragePrice(_ context.Context, start, end time.Time) (spot.DayBucket, float64, error) {
	f.start, f.end = start, end
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.bucket, 6, nil
}

func (f *fakeService) Unit() calc.Unit { return calc.UnitCentPerKWh }

type fakeLogs struct {
	minLevel       slog.Level
	page, pageSize int
}

func (f *fakeLogs) GetLogEntries(_ context.Context, minLvl slog.Level, page, pageSize int) ([]database.LogEntryRow, error) {
	f.minLevel, f.page, f.pageSize = minLvl, page, pageSize
	return []database.LogEntryRow{{Level: int(slog.LevelWarn), Message: "synthesized missing hour"}}, nil
}

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func newTestServer(t *testing.T, svc *fakeService, latest *task.Latest, logs *fakeLogs) (*httptest.Server, *Hub) {
	t.Helper()
	hub := NewHub(discard)
	s := NewServer(discard, config.AppConfigApi{}, svc, latest, logs, hub, berlin(t))
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, hub
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestPricesHandler(t *testing.T) {
	svc := &fakeService{bucket: spot.DayBucket{"2024-04-16": {{Time: "00:00", Price: 5.5}, {Time: "01:00", Price: 6.5}}}}
	srv, _ := newTestServer(t, svc, &task.Latest{}, &fakeLogs{})

	var resp pricesResponse
	status := getJSON(t, srv.URL+"/prices?start=2024-04-16&end=2024-04-17", &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, calc.UnitCentPerKWh, resp.Unit)
	assert.Equal(t, 2, resp.Received)
	assert.Len(t, resp.Prices["2024-04-16"], 2)

	loc := berlin(t)
	assert.True(t, svc.start.Equal(time.Date(2024, time.April, 16, 0, 0, 0, 0, loc)))
	// a plain end date includes its last hour
	assert.True(t, svc.end.Equal(time.Date(2024, time.April, 17, 23, 0, 0, 0, loc)))
}

func TestPricesHandlerRFC3339(t *testing.T) {
	svc := &fakeService{bucket: spot.DayBucket{"2024-04-16": {{Time: "12:00", Price: 5.5}}}}
	srv, _ := newTestServer(t, svc, &task.Latest{}, &fakeLogs{})

	var resp pricesResponse
	status := getJSON(t, srv.URL+"/prices?start=2024-04-16T10:00:00Z&end=2024-04-16T12:00:00Z", &resp)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, svc.end.Equal(time.Date(2024, time.April, 16, 12, 0, 0, 0, time.UTC)))
}

func TestAverageHandler(t *testing.T) {
	svc := &fakeService{bucket: spot.DayBucket{"2024-04-16": {{Time: "00:00", Price: 5.5}, {Time: "01:00", Price: 6.5}}}}
	srv, _ := newTestServer(t, svc, &task.Latest{}, &fakeLogs{})

	var resp averageResponse
	status := getJSON(t, srv.URL+"/average?start=2024-04-16", &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 6.0, resp.Average)
}

func TestHandlerErrors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		err    error
		status int
	}{
		{name: "bad start", query: "?start=tomorrow", status: http.StatusBadRequest},
		{name: "invalid window", query: "?start=2024-04-17&end=2024-04-16", err: spot.ErrInvalidWindow, status: http.StatusBadRequest},
		{name: "empty", err: spot.ErrEmptyResultSet, status: http.StatusNotFound},
		{name: "rejected", err: fmt.Errorf("%w: No matching data found", spot.ErrProviderRejected), status: http.StatusNotFound},
		{name: "no response", err: spot.ErrNoResponse, status: http.StatusGatewayTimeout},
		{name: "transform", err: spot.ErrTransformFailure, status: http.StatusBadGateway},
		{name: "other", err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, &fakeService{err: tt.err}, &task.Latest{}, &fakeLogs{})

			var resp errorResponse
			status := getJSON(t, srv.URL+"/prices"+tt.query, &resp)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestLatestAndChart(t *testing.T) {
	latest := &task.Latest{}
	srv, _ := newTestServer(t, &fakeService{}, latest, &fakeLogs{})

	var errResp errorResponse
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/latest", &errResp))
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/chart", &errResp))

	latest.Set(task.Result{
		From:    "2024-04-16",
		To:      "2024-04-16",
		Unit:    calc.UnitCentPerKWh,
		Average: 5.5,
		Prices:  spot.DayBucket{"2024-04-16": {{Time: "00:00", Price: 5.5}}},
	})

	var resp map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/latest", &resp))
	assert.Equal(t, "2024-04-16", resp["from"])
	assert.Equal(t, 5.5, resp["average"])

	var chart map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/chart", &chart))
	assert.Equal(t, "line", chart["type"])
}

func TestLogHandler(t *testing.T) {
	logs := &fakeLogs{}
	srv, _ := newTestServer(t, &fakeService{}, &task.Latest{}, logs)

	var resp logResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/log?page=2&pageSize=5000&level=warn", &resp))
	assert.Equal(t, 2, logs.page)
	assert.Equal(t, 500, logs.pageSize)
	assert.Equal(t, slog.LevelWarn, logs.minLevel)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "WARN", resp.Entries[0].Level)
}

func TestStaticIndex(t *testing.T) {
	srv, _ := newTestServer(t, &fakeService{}, &task.Latest{}, &fakeLogs{})

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
}

func TestWebsocketBroadcast(t *testing.T) {
	srv, hub := newTestServer(t, &fakeService{}, &task.Latest{}, &fakeLogs{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	received := make(chan []byte, 1)
	go func() {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if _, msg, err := conn.ReadMessage(); err == nil {
			received <- msg
		}
		close(received)
	}()

	// registration happens after the upgrade, keep broadcasting until it lands
	deadline := time.After(5 * time.Second)
	for {
		hub.Broadcast(map[string]string{"event": "updated"})
		select {
		case msg, ok := <-received:
			require.True(t, ok, "no message received")
			assert.JSONEq(t, `{"event":"updated"}`, string(msg))
			return
		case <-deadline:
			t.Fatal("timeout waiting for broadcast")
		case <-time.After(20 * time.Millisecond):
		}
	}
}
