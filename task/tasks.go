package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/icodeforyou/spotprice-go/config"
)

const maintenanceRunAt = "30 2 * * *"

type Tasks struct {
	cron            *cron.Cron
	cnfg            *config.AppConfig
	Latest          *Latest
	SpotPriceTask   func()
	MaintenanceTask func()
}

// NewTasks schedules in loc, so run_at is read as market time.
func NewTasks(
	logger *slog.Logger,
	svc PriceService,
	pub PricePublisher,
	bc Broadcaster,
	db Maintainer,
	loc *time.Location,
	cnfg *config.AppConfig,
) *Tasks {
	logger = logger.With("module", "tasks")
	latest := &Latest{}
	return &Tasks{
		cron:            cron.New(cron.WithLocation(loc)),
		cnfg:            cnfg,
		Latest:          latest,
		SpotPriceTask:   NewSpotPriceTask(logger.With(slog.String("task", "spot_price")), svc, pub, bc, latest, loc, time.Now),
		MaintenanceTask: NewMaintenanceTask(logger.With(slog.String("task", "maintenance")), db, cnfg),
	}
}

// Run schedules the tasks and fetches prices once right away.
func (t *Tasks) Run() error {
	if _, err := t.cron.AddFunc(t.cnfg.Entsoe.RunAt, t.SpotPriceTask); err != nil {
		return fmt.Errorf("scheduling spot price task at %q: %w", t.cnfg.Entsoe.RunAt, err)
	}
	if _, err := t.cron.AddFunc(maintenanceRunAt, t.MaintenanceTask); err != nil {
		return fmt.Errorf("scheduling maintenance task: %w", err)
	}
	t.cron.Start()

	go t.SpotPriceTask()
	return nil
}

func (t *Tasks) Stop() context.Context {
	return t.cron.Stop()
}
