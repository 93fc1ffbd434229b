package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/icodeforyou/spotprice-go/config"
	"github.com/icodeforyou/spotprice-go/database"
	"github.com/icodeforyou/spotprice-go/entsoe"
	"github.com/icodeforyou/spotprice-go/logging"
	"github.com/icodeforyou/spotprice-go/publisher"
	"github.com/icodeforyou/spotprice-go/spot"
	"github.com/icodeforyou/spotprice-go/task"
	"github.com/icodeforyou/spotprice-go/www"
)

var Version = "?.?.?"

func main() {
	defer func() {
		if err := recover(); err != nil {
			exitWithError(slog.Default(), fmt.Errorf("application panicked: %v", err))
		} else {
			slog.Default().Info("application is shutting down...")
		}
	}()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	loader := config.NewLoader(*configPath)
	cnfg, err := loader.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	if err := cnfg.Validate(); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var consoleLevel, dbLevel slog.LevelVar
	consoleLevel.Set(cnfg.Logging.GetConsoleLevel())
	dbLevel.Set(cnfg.Logging.GetDbLevel())

	consoleHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      &consoleLevel,
		TimeFormat: time.RFC3339,
	})
	slog.New(consoleHandler).Debug("spotprice is starting...", slog.String("version", Version))

	db, err := database.New(ctx, cnfg.Database.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to database: %v", err))
	}
	defer db.Close()

	logger := slog.New(logging.NewMultiHandler(
		consoleHandler,
		logging.NewSQLiteHandler(db, &dbLevel, cnfg.Logging.GetDbAttrsFormat())))
	slog.SetDefault(logger)

	// Now we can use the logger to log database operations into the database itself
	db.SetLogger(logger.With("module", "database"))

	loader.Watch(logger.With("module", "config"), func(c *config.AppConfig) {
		consoleLevel.Set(c.Logging.GetConsoleLevel())
		dbLevel.Set(c.Logging.GetDbLevel())
		logger.Info("log levels reloaded",
			slog.String("console", consoleLevel.Level().String()),
			slog.String("db", dbLevel.Level().String()))
	})

	client, err := entsoe.FromConfig(logger, cnfg.Entsoe)
	if err != nil {
		panic(fmt.Sprintf("failed to create entsoe client: %v", err))
	}
	unit, _ := cnfg.Entsoe.GetUnit()
	loc, _ := cnfg.Entsoe.GetLocation()

	svc := spot.New(logger, client, spot.Options{
		Unit:      unit,
		Precision: cnfg.Entsoe.GetRoundingPrecision(),
		FillGaps:  cnfg.Entsoe.GetFillMissing(),
	})

	var pub task.PricePublisher
	if cnfg.Mqtt.Enabled() {
		p := publisher.New(logger, cnfg.Mqtt)
		if err := p.Connect(); err != nil {
			panic(fmt.Sprintf("mqtt connection error: %v", err))
		}
		defer p.Disconnect()
		pub = p
	} else {
		logger.Info("no mqtt broker configured, skipping publishing")
	}

	hub := www.NewHub(logger.With("module", "websocket"))

	tasks := task.NewTasks(logger, svc, pub, hub, db, loc, cnfg)
	if err := tasks.Run(); err != nil {
		panic(fmt.Sprintf("failed to schedule tasks: %v", err))
	}
	defer tasks.Stop()

	server := www.NewServer(logger, cnfg.Api, svc, tasks.Latest, db, hub, loc)
	if err := server.Run(ctx); err != nil {
		exitWithError(logger, err)
	}
}

func exitWithError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("application shutting down with error", slog.Any("error", err))
	}
	time.Sleep(2 * time.Second)
	os.Exit(1)
}
