package chartcore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/chartcore/pkg/chart"
	"github.com/raykavin/chartcore/pkg/core"
	"github.com/raykavin/chartcore/pkg/layout"
	"github.com/samber/lo"
)

// ErrEmptyFrame is returned when a chart had nothing to draw
var ErrEmptyFrame = errors.New("empty frame")

const (
	histogramBins  = 15
	histogramWidth = 10
	timeLayout     = "2006-01-02 15:04"
)

// Summary writes the panel, time axis and price axis tables of frame to w.
// A histogram of closes follows when closes is not empty.
func Summary(w io.Writer, frame *chart.Frame, closes []float64) error {
	if frame == nil || frame.Layout == nil {
		return ErrEmptyFrame
	}

	buffer := bytes.NewBuffer(nil)
	panelTable(buffer, frame)
	timeAxisTable(buffer, frame)
	priceAxisTable(buffer, frame)

	if _, err := io.Copy(w, buffer); err != nil {
		return err
	}
	if len(closes) == 0 {
		return nil
	}

	fmt.Fprintln(w, "------ CLOSE -------")
	hist := histogram.Hist(histogramBins, closes)
	if err := histogram.Fprint(w, hist, histogram.Linear(histogramWidth)); err != nil {
		return fmt.Errorf("close histogram: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

func panelTable(w io.Writer, frame *chart.Frame) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Panel", "Title", "Role", "Top", "Height", "Plot X", "Plot W", "Series"})
	table.SetFooterAlignment(tablewriter.ALIGN_RIGHT)

	var height float64
	series := 0
	for _, panel := range frame.Panels {
		pl := panel.Layout
		table.Append([]string{
			strconv.Itoa(int(panel.ID)),
			panel.Title,
			roleName(pl),
			fmt.Sprintf("%.1f", pl.Top),
			fmt.Sprintf("%.1f", pl.Height),
			fmt.Sprintf("%.1f", pl.PlotLeft),
			fmt.Sprintf("%.1f", pl.PlotWidth),
			strconv.Itoa(len(panel.Series)),
		})
		height += pl.Height
		series += len(panel.Series)
	}

	table.SetFooter([]string{
		"TOTAL", strconv.Itoa(len(frame.Panels)), "", "",
		fmt.Sprintf("%.1f", height), "", "", strconv.Itoa(series),
	})
	table.Render()
}

func timeAxisTable(w io.Writer, frame *chart.Frame) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Group", "From", "To", "Step", "Ticks"})

	for _, axis := range frame.TimeAxes {
		if !axis.Visible {
			continue
		}
		table.Append([]string{
			strconv.Itoa(int(axis.Group)),
			formatTime(axis.Start),
			formatTime(axis.End),
			(time.Duration(axis.Step) * time.Second).String(),
			strings.Join(lo.Map(axis.Ticks, func(t chart.TimeTick, _ int) string { return t.Label }), " "),
		})
	}
	table.Render()
}

func priceAxisTable(w io.Writer, frame *chart.Frame) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Panel", "Side", "Mode", "Min", "Max", "Ticks"})

	for _, panel := range frame.Panels {
		for _, axis := range panel.Axes {
			if !axis.Visible {
				continue
			}
			table.Append([]string{
				strconv.Itoa(int(panel.ID)),
				axis.Side.String(),
				axis.Scale.Mode.String(),
				strconv.FormatFloat(axis.Scale.Min, 'f', axis.Precision, 64),
				strconv.FormatFloat(axis.Scale.Max, 'f', axis.Precision, 64),
				strings.Join(lo.Map(axis.Ticks, func(t chart.PriceTick, _ int) string { return t.Label }), " "),
			})
		}
	}
	table.Render()
}

func roleName(pl layout.PanelLayout) string {
	if pl.Role == layout.RoleMain {
		return "main"
	}
	return "indicator"
}

func formatTime(seconds float64) string {
	return core.FromUnixSeconds(seconds).UTC().Format(timeLayout)
}
