package feed

import (
	"fmt"
	"time"

	"github.com/raykavin/chartcore/pkg/chart"
	"github.com/raykavin/chartcore/pkg/core"
	"github.com/raykavin/chartcore/pkg/indicator"
	"github.com/raykavin/chartcore/pkg/logger"
)

const defaultRSIPeriod = 14

// StoreOptions configure the series a Store creates
type StoreOptions struct {
	Symbol    string
	Interval  time.Duration
	RSIPeriod int // 0 uses 14, negative disables the oscillator
}

// Store binds a market data stream to a chart: a candlestick series on the
// right scale, a volume histogram on the left and the RSI panel.
type Store struct {
	chart   *chart.Chart
	log     logger.Logger
	options StoreOptions

	candles chart.SeriesID
	volumes chart.SeriesID
}

// NewStore creates the market series on c
func NewStore(c *chart.Chart, log logger.Logger, options StoreOptions) *Store {
	if options.Interval <= 0 {
		options.Interval = time.Minute
	}
	if options.RSIPeriod == 0 {
		options.RSIPeriod = defaultRSIPeriod
	}

	s := &Store{
		chart:   c,
		log:     log.WithField("symbol", options.Symbol),
		options: options,
		candles: c.AddCandlestickSeries(),
		volumes: c.AddHistogramSeries(),
	}
	_ = c.UpdateSeriesOptions(s.candles, func(o *chart.SeriesOptions) { o.Title = options.Symbol })
	_ = c.UpdateSeriesOptions(s.volumes, func(o *chart.SeriesOptions) {
		o.Title = "Volume"
		o.ShowPriceLine = false
	})
	return s
}

// CandleSeries is the id of the candlestick series
func (s *Store) CandleSeries() chart.SeriesID { return s.candles }

// VolumeSeries is the id of the volume histogram
func (s *Store) VolumeSeries() chart.SeriesID { return s.volumes }

// Interval is the bar duration of the stream
func (s *Store) Interval() time.Duration { return s.options.Interval }

// Candles returns the stored candles in time order
func (s *Store) Candles() []core.Candle {
	candles, _ := s.chart.Candles(s.candles)
	return candles
}

// Earliest is the open time of the first stored candle
func (s *Store) Earliest() (time.Time, bool) {
	candles := s.Candles()
	if len(candles) == 0 {
		return time.Time{}, false
	}
	return candles[0].Time, true
}

// Latest is the open time of the last stored candle
func (s *Store) Latest() (time.Time, bool) {
	candles := s.Candles()
	if len(candles) == 0 {
		return time.Time{}, false
	}
	return candles[len(candles)-1].Time, true
}

// Replace swaps the whole history
func (s *Store) Replace(batch Batch) error {
	if err := s.chart.SetCandles(s.candles, batch.Candles); err != nil {
		return fmt.Errorf("replace candles: %w", err)
	}
	if err := s.chart.SetHistogramPoints(s.volumes, batch.Volumes); err != nil {
		return fmt.Errorf("replace volumes: %w", err)
	}
	s.refreshRSI()
	return nil
}

// Prepend merges an older batch, keeping stored bars on overlapping times.
// It reports false for an empty batch, which marks the history exhausted.
func (s *Store) Prepend(batch Batch) (bool, error) {
	if batch.Empty() {
		return false, nil
	}
	if err := s.chart.PrependCandles(s.candles, batch.Candles); err != nil {
		return false, fmt.Errorf("prepend candles: %w", err)
	}
	if err := s.chart.PrependHistogramPoints(s.volumes, batch.Volumes); err != nil {
		return false, fmt.Errorf("prepend volumes: %w", err)
	}
	s.refreshRSI()

	s.log.WithField("bars", len(batch.Candles)).Debug("history prepended")
	return true, nil
}

// ApplyKline upserts a streamed bar and its volume, colored by direction
func (s *Store) ApplyKline(k Kline) (core.Candle, core.HistogramPoint, error) {
	candle := k.Candle()
	volume := indicator.Volume([]core.Candle{candle}, []float64{k.Volume})[0]

	if err := s.chart.UpdateCandle(s.candles, candle); err != nil {
		return candle, volume, fmt.Errorf("apply kline: %w", err)
	}
	if err := s.chart.UpdateHistogramPoint(s.volumes, volume); err != nil {
		return candle, volume, fmt.Errorf("apply kline volume: %w", err)
	}
	s.refreshRSI()
	return candle, volume, nil
}

// Handle applies one queued event. Prepend outcomes are reported to loader
// when one is given.
func (s *Store) Handle(event Event, loader *LazyLoader) error {
	switch event.Kind {
	case EventReplace:
		return s.Replace(event.Batch)
	case EventKline:
		_, _, err := s.ApplyKline(event.Kline)
		return err
	case EventPrepend:
		loaded, err := s.Prepend(event.Batch)
		if loader != nil {
			if err != nil {
				loader.FinishFailure()
			} else {
				loader.FinishSuccess(loaded)
			}
		}
		return err
	default:
		if loader != nil {
			loader.FinishFailure()
		}
		s.log.WithError(event.Err).Warn("history load failed")
		return event.Err
	}
}

// refreshRSI recomputes the oscillator over the stored candles
func (s *Store) refreshRSI() {
	if s.options.RSIPeriod < 0 {
		return
	}
	points := indicator.RSI(s.Candles(), s.options.RSIPeriod)
	if len(points) == 0 && !s.chart.HasRSIPanel() {
		return
	}
	s.chart.SetRSIPanelData(points)
}
