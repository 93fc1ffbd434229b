package entsoe

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/icodeforyou/spotprice-go/hours"
	"github.com/icodeforyou/spotprice-go/spot"
	"github.com/icodeforyou/spotprice-go/types"
)

// Parse interprets a decoded document. An acknowledgement becomes a
// RejectedError, a publication is run through ex block by block. A block the
// extractor refuses is logged and skipped, the others still count.
func Parse(logger *slog.Logger, doc *Document, ex Extractor, w spot.Window) (spot.Series, error) {
	if doc == nil {
		return spot.Series{}, fmt.Errorf("%w: empty document", spot.ErrUnexpectedResponseShape)
	}

	switch doc.Kind {
	case KindAcknowledgement:
		err := rejection(doc.Acknowledgement)
		logger.Warn("entsoe returned an acknowledgement instead of prices", slog.Any("error", err))
		return spot.Series{}, err

	case KindPublication:
		if doc.Publication == nil || len(doc.Publication.TimeSeries) == 0 {
			return spot.Series{}, fmt.Errorf("%w: publication without time series", spot.ErrUnexpectedResponseShape)
		}
		logger.Debug("publication received", slog.Int("timeSeries", len(doc.Publication.TimeSeries)))

		merged := newPriceMap()
		meta := make(map[string]types.SeriesMeta)
		for _, ts := range doc.Publication.TimeSeries {
			prices, m, err := ex.Extract(logger, ts, w)
			if err != nil {
				logger.Warn("skipping unsupported time series data", slog.String("series", ts.MRID), slog.Any("error", err))
			}
			merged.merge(prices)
			for day, dm := range m {
				if _, ok := meta[day]; !ok {
					meta[day] = dm
				}
			}
		}

		return spot.Series{Prices: merged.prices(), Meta: meta}, nil

	default:
		return spot.Series{}, fmt.Errorf("%w: root element %q", spot.ErrUnexpectedResponseShape, doc.Root)
	}
}

func rejection(ack *Acknowledgement) *RejectedError {
	if ack == nil || len(ack.Reasons) == 0 {
		return &RejectedError{}
	}
	texts := make([]string, 0, len(ack.Reasons))
	for _, r := range ack.Reasons {
		if t := strings.TrimSpace(r.Text); t != "" {
			texts = append(texts, t)
		}
	}
	return &RejectedError{Code: ack.Reasons[0].Code, Reason: strings.Join(texts, "; ")}
}

// priceMap keeps one price per hour in first-seen order, a later block
// overwrites the price of an hour it shares with an earlier one.
type priceMap struct {
	index map[hours.DateHour]int
	list  []types.EnergyPrice
}

func newPriceMap() *priceMap {
	return &priceMap{index: make(map[hours.DateHour]int)}
}

func (m *priceMap) merge(prices []types.EnergyPrice) {
	for _, p := range prices {
		if i, ok := m.index[p.Hour]; ok {
			m.list[i] = p
			continue
		}
		m.index[p.Hour] = len(m.list)
		m.list = append(m.list, p)
	}
}

func (m *priceMap) prices() []types.EnergyPrice {
	return m.list
}
