// Package chartcore builds charts wired to the package logger and renders
// computed frames as text reports.
package chartcore

import (
	"time"

	"github.com/raykavin/chartcore/pkg/chart"
	"github.com/raykavin/chartcore/pkg/feed"
	"github.com/raykavin/chartcore/pkg/logger"
)

// DefaultLog is the default logger instance
var DefaultLog logger.Logger

// NewChart creates a chart logging through DefaultLog
func NewChart(options ...chart.Option) *chart.Chart {
	return chart.New(DefaultLog, options...)
}

// NewMarketChart creates a chart with the candle, volume and RSI series of
// one symbol. Data is loaded through the returned store.
func NewMarketChart(symbol string, interval time.Duration, rsiPeriod int, options ...chart.Option) (*chart.Chart, *feed.Store) {
	c := NewChart(options...)
	store := feed.NewStore(c, DefaultLog, feed.StoreOptions{
		Symbol:    symbol,
		Interval:  interval,
		RSIPeriod: rsiPeriod,
	})
	return c, store
}
