package www

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/icodeforyou/spotprice-go/config"
	"github.com/icodeforyou/spotprice-go/task"
)

//go:embed static
var embeddedStaticDir embed.FS

type Server struct {
	logger *slog.Logger
	config config.AppConfigApi
	hub    *Hub
	mux    *http.ServeMux
}

func NewServer(
	logger *slog.Logger,
	cnfg config.AppConfigApi,
	svc PriceService,
	latest *task.Latest,
	logs LogReader,
	hub *Hub,
	loc *time.Location,
) *Server {
	logger = logger.With("module", "www")
	s := &Server{
		logger: logger,
		config: cnfg,
		hub:    hub,
		mux:    http.NewServeMux(),
	}

	logReqMW := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("url", r.URL.Path),
				slog.String("remoteAddr", r.RemoteAddr))
			next.ServeHTTP(w, r)
		})
	}

	s.mux.Handle("GET /", staticFilesHandler())

	s.mux.Handle("GET /prices", logReqMW(NewPricesHandler(
		logger.With(slog.String("handler", "prices")), svc, loc)))

	s.mux.Handle("GET /average", logReqMW(NewAverageHandler(
		logger.With(slog.String("handler", "average")), svc, loc)))

	s.mux.Handle("GET /latest", logReqMW(NewLatestHandler(
		logger.With(slog.String("handler", "latest")), latest, loc)))

	s.mux.Handle("GET /chart", logReqMW(NewChartHandler(
		logger.With(slog.String("handler", "chart")), latest)))

	s.mux.Handle("GET /log", logReqMW(NewLogHandler(
		logger.With(slog.String("handler", "log")), logs)))

	s.mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		client, err := NewClient(s.hub, w, r, r.Header.Get("User-Agent"))
		if err != nil {
			s.logger.Error("new websocket client failed", slog.Any("error", err))
			return
		}
		if !s.hub.Register(client) {
			client.conn.Close()
			return
		}
		go client.WritePump()
		go client.ReadPump()
	})

	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is cancelled, the hub runs alongside.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Address, s.config.Port)
	s.logger.Info("starting server...", slog.String("addr", addr))

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.hub.Run(ctx)

	srvErrors := make(chan error, 1)
	go func() {
		srvErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-srvErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	}
}

func staticFilesHandler() http.Handler {
	fsys, err := fs.Sub(embeddedStaticDir, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(fsys))
}
