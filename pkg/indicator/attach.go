package indicator

import (
	"fmt"

	"github.com/raykavin/chartcore/pkg/chart"
	"github.com/raykavin/chartcore/pkg/core"
	"github.com/samber/lo"
)

// Attached records where an indicator landed on a chart
type Attached struct {
	Panel  chart.PanelID
	Series []chart.SeriesID
}

// Attach evaluates ind on candles and adds its metrics to c. Overlays are
// drawn on the main panel's right scale, RSI uses the oscillator panel and
// every other study gets its own indicator panel below the main one.
func Attach(c *chart.Chart, candles []core.Candle, ind Indicator) (Attached, error) {
	metrics := ind.Load(candles)
	if lo.EveryBy(metrics, func(m Metric) bool { return len(m.Lines) == 0 && len(m.Bars) == 0 }) {
		return Attached{}, fmt.Errorf("%s: %w", ind.Name(), core.ErrEmptySource)
	}

	if _, ok := ind.(rsi); ok {
		c.SetRSIPanel(ind.Name(), metrics[0].Lines)
		panel, _ := c.RSIPanel()
		return Attached{Panel: panel}, nil
	}

	attached := Attached{Panel: c.MainPanel()}
	if !ind.Overlay() {
		main := c.MainPanel()
		panel, err := c.AddIndicatorPanel(ind.Name(), 1, 0, &main)
		if err != nil {
			return Attached{}, fmt.Errorf("attach %s: %w", ind.Name(), err)
		}
		attached.Panel = panel
	}

	for _, metric := range metrics {
		id, err := addMetric(c, ind.Name(), metric)
		if err != nil {
			return attached, err
		}
		if err := c.SetSeriesPanel(id, attached.Panel); err != nil {
			return attached, fmt.Errorf("attach %s: %w", metric.Name, err)
		}
		if err := c.SetSeriesScale(id, chart.SideRight); err != nil {
			return attached, fmt.Errorf("attach %s: %w", metric.Name, err)
		}
		attached.Series = append(attached.Series, id)
	}
	return attached, nil
}

func addMetric(c *chart.Chart, study string, metric Metric) (chart.SeriesID, error) {
	var (
		id  chart.SeriesID
		err error
	)
	if metric.Style == StyleHistogram {
		id = c.AddHistogramSeries()
		err = c.SetHistogramPoints(id, metric.Bars)
	} else {
		id = c.AddLineSeries()
		err = c.SetLinePoints(id, metric.Lines)
	}
	if err != nil {
		return id, fmt.Errorf("%s %s: %w", study, metric.Name, err)
	}

	title := metric.Name
	if title != study {
		title = study + " " + metric.Name
	}
	err = c.UpdateSeriesOptions(id, func(o *chart.SeriesOptions) {
		o.Title = title
		o.ShowPriceLine = false
	})
	return id, err
}
