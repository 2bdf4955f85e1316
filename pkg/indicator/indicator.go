// Package indicator computes the indicator series a chart shows next to its
// candles. Every function takes candles in time order and returns points
// aligned to the candle times with the warmup period removed.
package indicator

import (
	"math"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/raykavin/chartcore/pkg/core"
	"github.com/samber/lo"
)

// MaType selects the moving average used by the smoothed indicators
type MaType = talib.MaType

// Moving average types
const (
	TypeSMA  = talib.SMA
	TypeEMA  = talib.EMA
	TypeWMA  = talib.WMA
	TypeDEMA = talib.DEMA
	TypeTEMA = talib.TEMA
)

// Style tells a chart how to draw a metric
type Style int

const (
	StyleLine Style = iota
	StyleHistogram
)

// Metric is one named output series of an indicator
type Metric struct {
	Name  string
	Style Style
	Lines []core.LinePoint
	Bars  []core.HistogramPoint
}

// Indicator is a configured study that can be evaluated on candles
type Indicator interface {
	Name() string
	Warmup() int
	Overlay() bool
	Load(candles []core.Candle) []Metric
}

var (
	bullishBar = core.RGB(38, 166, 154)
	bearishBar = core.RGB(239, 83, 80)
)

// columns splits candles into the talib input slices
type columns struct {
	Time  []time.Time
	Open  []float64
	High  []float64
	Low   []float64
	Close []float64
}

func split(candles []core.Candle) columns {
	return columns{
		Time:  lo.Map(candles, func(c core.Candle, _ int) time.Time { return c.Time }),
		Open:  lo.Map(candles, func(c core.Candle, _ int) float64 { return c.Open }),
		High:  lo.Map(candles, func(c core.Candle, _ int) float64 { return c.High }),
		Low:   lo.Map(candles, func(c core.Candle, _ int) float64 { return c.Low }),
		Close: lo.Map(candles, func(c core.Candle, _ int) float64 { return c.Close }),
	}
}

// linePoints pairs values with times, dropping the first warmup entries and
// anything talib left undefined.
func linePoints(times []time.Time, values []float64, warmup int) []core.LinePoint {
	if warmup < 0 {
		warmup = 0
	}
	n := min(len(times), len(values))
	if warmup >= n {
		return nil
	}

	points := make([]core.LinePoint, 0, n-warmup)
	for i := warmup; i < n; i++ {
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			continue
		}
		points = append(points, core.LinePoint{Time: times[i], Value: values[i]})
	}
	return points
}

// histogramPoints is linePoints for bars colored by sign
func histogramPoints(times []time.Time, values []float64, warmup int) []core.HistogramPoint {
	return lo.Map(linePoints(times, values, warmup), func(p core.LinePoint, _ int) core.HistogramPoint {
		color := bullishBar
		if p.Value < 0 {
			color = bearishBar
		}
		return core.HistogramPoint{Time: p.Time, Value: p.Value, Color: &color}
	})
}

// enough reports whether there are more candles than the warmup needs
func enough(candles []core.Candle, warmup int) bool {
	return warmup >= 0 && len(candles) > warmup
}
