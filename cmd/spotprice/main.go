// Command spotprice fetches the day-ahead prices for a date range once and
// prints them together with their average.
//
//	spotprice -start 2024-04-16 -end 2024-04-17
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/lmittmann/tint"

	"github.com/icodeforyou/spotprice-go/config"
	"github.com/icodeforyou/spotprice-go/entsoe"
	"github.com/icodeforyou/spotprice-go/hours"
	"github.com/icodeforyou/spotprice-go/spot"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	startStr := flag.String("start", "", "first day (yyyy-mm-dd or RFC3339), default today")
	endStr := flag.String("end", "", "last day (yyyy-mm-dd or RFC3339), default same as start")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level, TimeFormat: time.TimeOnly}))

	if err := run(logger, *configPath, *startStr, *endStr); err != nil {
		logger.Error("spotprice failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, configPath, startStr, endStr string) error {
	cnfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cnfg.Validate(); err != nil {
		return err
	}

	loc, _ := cnfg.Entsoe.GetLocation()
	unit, _ := cnfg.Entsoe.GetUnit()

	start := hours.StartOfDay(time.Now(), loc)
	if startStr != "" {
		if start, err = hours.ParseDateOrTime(startStr, loc); err != nil {
			return err
		}
	}
	end := start
	if endStr != "" {
		if end, err = hours.ParseDateOrTime(endStr, loc); err != nil {
			return err
		}
	}
	if len(endStr) == 0 || len(endStr) == len(hours.DateLayout) {
		end = hours.StartOfDay(end, loc).AddDate(0, 0, 1).Add(-time.Hour)
	}

	client, err := entsoe.FromConfig(logger, cnfg.Entsoe)
	if err != nil {
		return err
	}
	svc := spot.New(logger, client, spot.Options{
		Unit:      unit,
		Precision: cnfg.Entsoe.GetRoundingPrecision(),
		FillGaps:  cnfg.Entsoe.GetFillMissing(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	bucket, avg, err := svc.GetAveragePrice(ctx, start, end)
	if errors.Is(err, spot.ErrEmptyResultSet) {
		fmt.Println("no prices published for this range yet")
		return nil
	}
	if err != nil {
		return err
	}

	prec := int(cnfg.Entsoe.GetRoundingPrecision())
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, day := range bucket.Days() {
		fmt.Fprintf(tw, "%s\t\t\n", day)
		for _, hp := range bucket[day] {
			fmt.Fprintf(tw, "%s\t%.*f\t\n", hp.Time, prec, hp.Price)
		}
	}
	fmt.Fprintf(tw, "average\t%.*f\t%s\n", prec, avg, unit)
	return tw.Flush()
}
