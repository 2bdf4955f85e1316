// Package chart owns the series and panels of a chart, keeps the price and
// time scales in step with the data and resolves pointer gestures into scale
// changes. A Chart is not safe for concurrent use; it belongs to the UI
// goroutine and is fed through pkg/feed.
package chart

import (
	"github.com/raykavin/chartcore/pkg/layout"
	"github.com/raykavin/chartcore/pkg/logger"
	"github.com/raykavin/chartcore/pkg/scale"
	"github.com/samber/lo"
)

// Chart is the engine state for one chart widget
type Chart struct {
	log     logger.Logger
	options Options

	panels []*panel
	groups []*timeGroup
	series map[SeriesID]*series
	order  []SeriesID
	rsi    *rsiPanel

	primary    SeriesID
	hasPrimary bool

	nextSeries SeriesID
	nextPanel  PanelID
	nextGroup  GroupID

	crosshair *pointer
	tracking  bool

	// set by the renderer after each pass and read by the next input event
	tooltip  *TooltipHit
	controls []PanelControlHit
}

type pointer struct {
	x, y float64
}

// New creates a chart with the main panel and the default time scale group
func New(log logger.Logger, options ...Option) *Chart {
	c := &Chart{
		log:       log,
		options:   DefaultOptions(),
		series:    make(map[SeriesID]*series),
		nextPanel: mainPanelID + 1,
		nextGroup: defaultGroupID + 1,
	}

	for _, option := range options {
		option(c)
	}

	c.groups = []*timeGroup{{id: defaultGroupID, scale: c.newTimeScale()}}
	c.panels = []*panel{newMainPanel()}
	return c
}

// Options returns a copy of the current configuration
func (c *Chart) Options() Options {
	return c.options
}

// newTimeScale builds a time scale carrying the configured spacing, offset
// and edge settings.
func (c *Chart) newTimeScale() *scale.TimeScale {
	ts := scale.NewTimeScale()
	c.configureTimeScale(ts)
	return ts
}

func (c *Chart) configureTimeScale(ts *scale.TimeScale) {
	opts := c.options.TimeScale
	ts.SetMinBarSpacing(opts.MinBarSpacing)
	ts.SetMaxBarSpacing(opts.MaxBarSpacing)
	ts.SetBarSpacing(opts.BarSpacing)
	ts.SetFixLeftEdge(opts.FixLeftEdge)
	ts.SetFixRightEdge(opts.FixRightEdge)
	if opts.RightOffsetPixels > 0 {
		ts.SetRightOffsetPixels(opts.RightOffsetPixels)
	} else {
		ts.SetRightOffset(opts.RightOffset)
	}
}

func (c *Chart) addSeries(kind SeriesKind, side Side, panelID PanelID) *series {
	id := c.nextSeries
	c.nextSeries++

	s := newSeries(id, kind, side, panelID)
	c.series[id] = s
	c.order = append(c.order, id)
	c.attach(s)

	if kind == KindCandlestick && !c.hasPrimary {
		c.primary, c.hasPrimary = id, true
	}

	c.log.WithFields(map[string]any{"series": id, "kind": kind.String(), "panel": panelID}).Debug("series added")
	return s
}

func (c *Chart) attach(s *series) {
	p, ok := c.panel(s.panel)
	if !ok {
		return
	}
	p.series = append(p.series, s.id)
	if s.kind == KindHistogram {
		p.histogram = true
	}
}

func (c *Chart) detach(s *series) {
	if p, ok := c.panel(s.panel); ok {
		p.series = lo.Without(p.series, s.id)
	}
}

func (c *Chart) dropSeries(id SeriesID) {
	s, ok := c.series[id]
	if !ok {
		return
	}
	c.detach(s)
	delete(c.series, id)
	c.order = lo.Without(c.order, id)

	if c.hasPrimary && c.primary == id {
		c.hasPrimary = false
		if next, found := lo.Find(c.orderedSeries(), func(s *series) bool { return s.kind == KindCandlestick }); found {
			c.primary, c.hasPrimary = next.id, true
		}
	}
}

// orderedSeries returns the series in creation order
func (c *Chart) orderedSeries() []*series {
	return lo.FilterMap(c.order, func(id SeriesID, _ int) (*series, bool) {
		s, ok := c.series[id]
		return s, ok
	})
}

// primaryCandles is the first candlestick series, the one OHLC snapping and
// tooltips read.
func (c *Chart) primaryCandles() (*series, bool) {
	if !c.hasPrimary {
		return nil, false
	}
	s, ok := c.series[c.primary]
	return s, ok
}

// HasData reports whether any series or the oscillator holds a point
func (c *Chart) HasData() bool {
	if c.rsi != nil && !c.rsi.data.Empty() {
		return true
	}
	return lo.SomeBy(c.orderedSeries(), func(s *series) bool { return !s.empty() })
}

// Layout computes the panel geometry for a viewport
func (c *Chart) Layout(viewport layout.Viewport) *layout.ChartLayout {
	return layout.Compute(c.layoutSpecs(), viewport, c.options.layoutStyle())
}

// SetTrackingMode turns touch tracking on or off. While active, drags move
// the crosshair instead of panning.
func (c *Chart) SetTrackingMode(active bool) {
	c.tracking = active && c.options.TrackingMode.Enabled
}

// TrackingMode reports whether touch tracking is active
func (c *Chart) TrackingMode() bool {
	return c.tracking
}
