// Package chartjs builds the JSON configuration a Chart.js line chart is
// created from.
package chartjs

import (
	"fmt"
	"math"

	"github.com/icodeforyou/spotprice-go/convert"
	"github.com/icodeforyou/spotprice-go/hours"
	"github.com/icodeforyou/spotprice-go/spot"
)

const (
	ColorYellow = "#ffc107d4"
	ColorRed    = "#f44336d4"
	ColorBlue   = "#2196f3d4"
)

const priceAxis = "YAxis1"

var dayColors = []string{ColorYellow, ColorRed, ColorBlue}

func NewChart(title string) Chart {
	labels := make([]string, spot.HoursPerDay)
	for i := range spot.HoursPerDay {
		labels[i] = fmt.Sprintf("%02d:00", i)
	}

	chart := Chart{
		Type: "line",
		Data: ChartData{Labels: labels},
		Options: ChartOptions{
			Responsive: true,
			Plugins: ChartPlugins{
				Legend: ChartLegend{Display: true},
				Title:  ChartTitle{Display: false},
			},
			Scales: map[string]ChartScale{
				priceAxis: {
					Type:     "linear",
					Display:  true,
					Position: "left",
					Title:    ChartScaleTitle{Display: true, Text: ""}},
			},
		},
	}

	if title != "" {
		chart.Options.Plugins.Title = ChartTitle{Display: true, Text: title}
	}

	return chart
}

// NewPriceChart draws one stepped line per day of bucket. Hours without a
// price are left as gaps.
func NewPriceChart(title string, unit string, bucket spot.DayBucket) Chart {
	chart := NewChart(title)

	low, high := math.Inf(1), math.Inf(-1)
	for i, day := range bucket.Days() {
		data := make([]*float64, spot.HoursPerDay)
		for _, hp := range bucket[day] {
			hour, err := hours.ParseClockHour(hp.Time)
			if err != nil {
				continue
			}
			data[hour] = FixedFloat64(hp.Price, 2)
			low, high = min(low, hp.Price), max(high, hp.Price)
		}
		chart.Data.Datasets = append(chart.Data.Datasets, ChartDataset{
			Label:       day,
			Data:        data,
			BorderWidth: 1,
			Stepped:     true,
			BorderColor: dayColors[i%len(dayColors)],
			YAxisID:     priceAxis,
		})
	}

	scale := chart.Options.Scales[priceAxis].WithTitle(unit)
	if !math.IsInf(low, 0) {
		// negative prices happen, the axis goes below zero only then
		scale = scale.WithMinAndMax(min(0, math.Floor(low)), math.Ceil(high))
	}
	chart.Options.Scales[priceAxis] = scale

	return chart
}

func (cs ChartScale) WithTitle(title string) ChartScale {
	cs.Title.Text = title
	return cs
}

func (cs ChartScale) WithMinAndMax(min, max float64) ChartScale {
	cs.Min = &min
	cs.Max = &max
	return cs
}

func FixedFloat64(num float64, precision int32) *float64 {
	result := convert.RoundFloat64(num, precision)
	return &result
}
