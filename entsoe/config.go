package entsoe

import (
	"fmt"
	"log/slog"

	"github.com/icodeforyou/spotprice-go/config"
)

// FromConfig builds a client for the configured bidding zone.
func FromConfig(logger *slog.Logger, cnfg config.AppConfigEntsoe) (*Client, error) {
	area, err := cnfg.GetArea()
	if err != nil {
		return nil, err
	}
	unit, err := cnfg.GetUnit()
	if err != nil {
		return nil, err
	}
	loc, err := cnfg.GetLocation()
	if err != nil {
		return nil, err
	}
	if cnfg.ApiToken == "" {
		return nil, fmt.Errorf("missing entsoe api token")
	}

	opts := []ClientOption{WithLogger(logger)}
	if cnfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cnfg.BaseURL))
	}
	if cnfg.Timeout > 0 {
		opts = append(opts, WithTimeout(cnfg.Timeout))
	}
	if cnfg.RateLimit > 0 {
		opts = append(opts, WithRateLimit(cnfg.RateLimit))
	}

	ex := Extractor{
		Unit:       unit,
		TaxPercent: cnfg.Tax,
		Precision:  cnfg.GetRoundingPrecision(),
		Location:   loc,
		Strict:     cnfg.GetStrict(),
	}

	return New(cnfg.ApiToken, area, ex, opts...), nil
}
