package chart

import (
	"fmt"
	"slices"

	"github.com/raykavin/chartcore/pkg/core"
	"github.com/samber/lo"
)

// AddCandlestickSeries adds a candle series on the right scale of the main panel
func (c *Chart) AddCandlestickSeries() SeriesID {
	return c.addSeries(KindCandlestick, SideRight, c.MainPanel()).id
}

// AddLineSeries adds a line series on the left scale of the main panel
func (c *Chart) AddLineSeries() SeriesID {
	return c.addSeries(KindLine, SideLeft, c.MainPanel()).id
}

// AddHistogramSeries adds a histogram series on the left scale of the main panel
func (c *Chart) AddHistogramSeries() SeriesID {
	return c.addSeries(KindHistogram, SideLeft, c.MainPanel()).id
}

// SeriesKind returns the kind of a series
func (c *Chart) SeriesKind(id SeriesID) (SeriesKind, bool) {
	s, ok := c.series[id]
	if !ok {
		return 0, false
	}
	return s.kind, true
}

// SeriesIDs returns every series id in creation order
func (c *Chart) SeriesIDs() []SeriesID {
	return slices.Clone(c.order)
}

func (c *Chart) lookup(id SeriesID, kind SeriesKind) (*series, error) {
	s, ok := c.series[id]
	if !ok {
		return nil, fmt.Errorf("series %d: %w", id, ErrUnknownSeries)
	}
	if s.kind != kind {
		return nil, fmt.Errorf("series %d is %s, not %s: %w", id, s.kind, kind, ErrSeriesKind)
	}
	return s, nil
}

// SetCandles replaces the candles of a series
func (c *Chart) SetCandles(id SeriesID, candles []core.Candle) error {
	s, err := c.lookup(id, KindCandlestick)
	if err != nil {
		return err
	}
	s.candles.Replace(candles)
	c.recalculateAfterDataUpdate()
	return nil
}

// SetCandlesFromBars converts decimal bars and replaces the candles of a
// series. Nothing is stored when any bar fails to convert.
func (c *Chart) SetCandlesFromBars(id SeriesID, bars []core.Bar) error {
	candles, err := core.BarsToCandles(bars)
	if err != nil {
		return err
	}
	return c.SetCandles(id, candles)
}

// SetLinePoints replaces the points of a line series
func (c *Chart) SetLinePoints(id SeriesID, points []core.LinePoint) error {
	s, err := c.lookup(id, KindLine)
	if err != nil {
		return err
	}
	s.lines.Replace(points)
	c.recalculateAfterDataUpdate()
	return nil
}

// SetHistogramPoints replaces the points of a histogram series
func (c *Chart) SetHistogramPoints(id SeriesID, points []core.HistogramPoint) error {
	s, err := c.lookup(id, KindHistogram)
	if err != nil {
		return err
	}
	s.histogram.Replace(points)
	c.recalculateAfterDataUpdate()
	return nil
}

// UpdateCandle upserts one candle by time
func (c *Chart) UpdateCandle(id SeriesID, candle core.Candle) error {
	s, err := c.lookup(id, KindCandlestick)
	if err != nil {
		return err
	}
	s.candles.Upsert(candle)
	c.recalculateAfterDataUpdate()
	return nil
}

// UpdateBar converts and upserts one decimal bar
func (c *Chart) UpdateBar(id SeriesID, bar core.Bar) error {
	candle, err := bar.ToCandle()
	if err != nil {
		return err
	}
	return c.UpdateCandle(id, candle)
}

// UpdateLinePoint upserts one line point by time
func (c *Chart) UpdateLinePoint(id SeriesID, point core.LinePoint) error {
	s, err := c.lookup(id, KindLine)
	if err != nil {
		return err
	}
	s.lines.Upsert(point)
	c.recalculateAfterDataUpdate()
	return nil
}

// UpdateHistogramPoint upserts one histogram point by time
func (c *Chart) UpdateHistogramPoint(id SeriesID, point core.HistogramPoint) error {
	s, err := c.lookup(id, KindHistogram)
	if err != nil {
		return err
	}
	s.histogram.Upsert(point)
	c.recalculateAfterDataUpdate()
	return nil
}

// PrependCandles merges a batch of older candles. Stored candles win on
// duplicate times.
func (c *Chart) PrependCandles(id SeriesID, candles []core.Candle) error {
	s, err := c.lookup(id, KindCandlestick)
	if err != nil {
		return err
	}
	s.candles.Merge(candles)
	c.recalculateAfterDataUpdate()
	return nil
}

// PrependLinePoints merges a batch of older line points
func (c *Chart) PrependLinePoints(id SeriesID, points []core.LinePoint) error {
	s, err := c.lookup(id, KindLine)
	if err != nil {
		return err
	}
	s.lines.Merge(points)
	c.recalculateAfterDataUpdate()
	return nil
}

// PrependHistogramPoints merges a batch of older histogram points
func (c *Chart) PrependHistogramPoints(id SeriesID, points []core.HistogramPoint) error {
	s, err := c.lookup(id, KindHistogram)
	if err != nil {
		return err
	}
	s.histogram.Merge(points)
	c.recalculateAfterDataUpdate()
	return nil
}

// Candles returns a copy of the candles of a series
func (c *Chart) Candles(id SeriesID) ([]core.Candle, error) {
	s, err := c.lookup(id, KindCandlestick)
	if err != nil {
		return nil, err
	}
	return slices.Clone(s.candles.Values()), nil
}

// LinePoints returns a copy of the points of a line series
func (c *Chart) LinePoints(id SeriesID) ([]core.LinePoint, error) {
	s, err := c.lookup(id, KindLine)
	if err != nil {
		return nil, err
	}
	return slices.Clone(s.lines.Values()), nil
}

// HistogramPoints returns a copy of the points of a histogram series
func (c *Chart) HistogramPoints(id SeriesID) ([]core.HistogramPoint, error) {
	s, err := c.lookup(id, KindHistogram)
	if err != nil {
		return nil, err
	}
	return slices.Clone(s.histogram.Values()), nil
}

// FirstTime is the earliest timestamp across all series, used by lazy
// history loading to ask for older data.
func (c *Chart) FirstTime() (float64, bool) {
	firsts := lo.FilterMap(c.orderedSeries(), func(s *series, _ int) (float64, bool) {
		times := s.times()
		if len(times) == 0 {
			return 0, false
		}
		return times[0], true
	})
	if len(firsts) == 0 {
		return 0, false
	}
	return lo.Min(firsts), true
}

func (c *Chart) seriesByID(id SeriesID) (*series, error) {
	s, ok := c.series[id]
	if !ok {
		return nil, fmt.Errorf("series %d: %w", id, ErrUnknownSeries)
	}
	return s, nil
}

// SetSeriesScale moves a series to another price scale side
func (c *Chart) SetSeriesScale(id SeriesID, side Side) error {
	s, err := c.seriesByID(id)
	if err != nil {
		return err
	}
	s.side = side
	return nil
}

// SeriesScale returns the price scale side of a series
func (c *Chart) SeriesScale(id SeriesID) (Side, bool) {
	s, ok := c.series[id]
	if !ok {
		return 0, false
	}
	return s.side, true
}

// SetSeriesPanel moves a series to another panel
func (c *Chart) SetSeriesPanel(id SeriesID, panelID PanelID) error {
	s, err := c.seriesByID(id)
	if err != nil {
		return err
	}
	if _, ok := c.panel(panelID); !ok {
		return fmt.Errorf("series %d to panel %d: %w", id, panelID, ErrUnknownPanel)
	}

	c.detach(s)
	s.panel = panelID
	c.attach(s)
	c.recalculateAfterDataUpdate()
	return nil
}

// SeriesOptions returns the display settings of a series
func (c *Chart) SeriesOptions(id SeriesID) (SeriesOptions, bool) {
	s, ok := c.series[id]
	if !ok {
		return SeriesOptions{}, false
	}
	return s.options, true
}

// SetSeriesOptions replaces the display settings of a series
func (c *Chart) SetSeriesOptions(id SeriesID, options SeriesOptions) error {
	s, err := c.seriesByID(id)
	if err != nil {
		return err
	}
	options.PriceLineWidth = max(options.PriceLineWidth, 0.5)
	s.options = options
	return nil
}

// UpdateSeriesOptions applies fn to the display settings of a series
func (c *Chart) UpdateSeriesOptions(id SeriesID, fn func(*SeriesOptions)) error {
	s, err := c.seriesByID(id)
	if err != nil {
		return err
	}
	options := s.options
	fn(&options)
	return c.SetSeriesOptions(id, options)
}

// SetMarkers replaces the markers of a series, sorted by time
func (c *Chart) SetMarkers(id SeriesID, markers []Marker) error {
	s, err := c.seriesByID(id)
	if err != nil {
		return err
	}
	sorted := slices.Clone(markers)
	slices.SortStableFunc(sorted, func(a, b Marker) int { return a.Time.Compare(b.Time) })
	s.markers = sorted
	return nil
}

// Markers returns the markers of a series
func (c *Chart) Markers(id SeriesID) []Marker {
	s, ok := c.series[id]
	if !ok {
		return nil
	}
	return slices.Clone(s.markers)
}

// CreatePriceLine attaches a price level to a series and returns its id
func (c *Chart) CreatePriceLine(id SeriesID, options PriceLineOptions) (int, error) {
	s, err := c.seriesByID(id)
	if err != nil {
		return 0, err
	}
	lineID := s.nextPriceLine
	s.nextPriceLine++
	s.priceLines = append(s.priceLines, PriceLine{ID: lineID, Options: options})
	return lineID, nil
}

func (c *Chart) priceLine(id SeriesID, lineID int) (*PriceLine, error) {
	s, err := c.seriesByID(id)
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(s.priceLines, func(l PriceLine) bool { return l.ID == lineID })
	if idx < 0 {
		return nil, fmt.Errorf("price line %d of series %d: %w", lineID, id, ErrUnknownLine)
	}
	return &s.priceLines[idx], nil
}

// UpdatePriceLine replaces the options of a price line
func (c *Chart) UpdatePriceLine(id SeriesID, lineID int, options PriceLineOptions) error {
	line, err := c.priceLine(id, lineID)
	if err != nil {
		return err
	}
	line.Options = options
	return nil
}

// SetPriceLinePrice moves a price line
func (c *Chart) SetPriceLinePrice(id SeriesID, lineID int, price float64) error {
	line, err := c.priceLine(id, lineID)
	if err != nil {
		return err
	}
	line.Options.Price = price
	return nil
}

// RemovePriceLine detaches a price line. Unknown line ids are ignored.
func (c *Chart) RemovePriceLine(id SeriesID, lineID int) error {
	s, err := c.seriesByID(id)
	if err != nil {
		return err
	}
	s.priceLines = slices.DeleteFunc(s.priceLines, func(l PriceLine) bool { return l.ID == lineID })
	return nil
}

// PriceLines returns the price lines of a series
func (c *Chart) PriceLines(id SeriesID) []PriceLine {
	s, ok := c.series[id]
	if !ok {
		return nil
	}
	return slices.Clone(s.priceLines)
}

// LastValue returns the last value badge of a series
func (c *Chart) LastValue(id SeriesID) (LastValue, bool) {
	s, ok := c.series[id]
	if !ok {
		return LastValue{}, false
	}
	return s.lastValue()
}
