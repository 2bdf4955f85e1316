package ticks

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/raykavin/chartcore/pkg/core"
	"github.com/raykavin/chartcore/pkg/transform"
)

const (
	day   = 24 * 60 * 60
	month = 30 * day
	year  = 365 * day
)

// LabelMode selects how time axis labels are printed
type LabelMode int

const (
	LabelAuto LabelMode = iota
	LabelTime
	LabelDate
	LabelDateTime
	LabelCustom
)

// LabelOptions control time label formatting
type LabelOptions struct {
	Mode           LabelMode
	Custom         string // used by LabelCustom
	TimeVisible    bool
	SecondsVisible bool
	TickMarkFormat string // overrides Mode when set
	MaxLength      int    // 0 means unlimited
}

// DefaultLabelOptions returns auto labels with the time of day visible
func DefaultLabelOptions() LabelOptions {
	return LabelOptions{Mode: LabelAuto, TimeVisible: true}
}

// FormatTimeLabel renders a time tick. step is the tick step in seconds and
// drives the auto mode granularity.
func FormatTimeLabel(seconds float64, step int64, opts LabelOptions) string {
	dt := core.FromUnixSeconds(math.Round(seconds))

	var label string
	switch {
	case strings.TrimSpace(opts.TickMarkFormat) != "":
		label = formatCustom(opts.TickMarkFormat, dt)
	case opts.Mode == LabelTime:
		label = clock(dt, opts.SecondsVisible)
	case opts.Mode == LabelDate:
		label = dt.Format("2006-01-02")
	case opts.Mode == LabelDateTime:
		label = dt.Format("2006-01-02 ") + clock(dt, opts.SecondsVisible)
	case opts.Mode == LabelCustom && strings.TrimSpace(opts.Custom) != "":
		label = formatCustom(opts.Custom, dt)
	default:
		label = autoLabel(dt, step, opts)
	}

	if opts.MaxLength > 0 && len(label) > opts.MaxLength {
		label = label[:opts.MaxLength]
	}
	return label
}

func autoLabel(dt time.Time, step int64, opts LabelOptions) string {
	if !opts.TimeVisible {
		switch {
		case step < month:
			return dt.Format("01-02")
		case step < year:
			return dt.Format("2006-01")
		default:
			return dt.Format("2006")
		}
	}

	switch {
	case step < 60 && opts.SecondsVisible:
		return dt.Format("15:04:05")
	case step < day:
		return dt.Format("15:04")
	case step < month:
		return dt.Format("01-02")
	default:
		return dt.Format("2006-01")
	}
}

func clock(dt time.Time, seconds bool) string {
	if seconds {
		return dt.Format("15:04:05")
	}
	return dt.Format("15:04")
}

func formatCustom(format string, dt time.Time) string {
	replacer := strings.NewReplacer(
		"{YYYY}", fmt.Sprintf("%04d", dt.Year()),
		"{YY}", fmt.Sprintf("%02d", dt.Year()%100),
		"{MM}", fmt.Sprintf("%02d", int(dt.Month())),
		"{DD}", fmt.Sprintf("%02d", dt.Day()),
		"{HH}", fmt.Sprintf("%02d", dt.Hour()),
		"{mm}", fmt.Sprintf("%02d", dt.Minute()),
		"{ss}", fmt.Sprintf("%02d", dt.Second()),
	)
	return replacer.Replace(format)
}

// FormatDateTime prints a timestamp the way tooltips show it
func FormatDateTime(seconds float64) string {
	return core.FromUnixSeconds(seconds).Format("2006-01-02 15:04")
}

// FormatKind is the family of a PriceFormat
type FormatKind int

const (
	FormatKindPrice FormatKind = iota
	FormatPercent
	FormatVolume
)

// PriceFormat describes how series values are printed
type PriceFormat struct {
	Kind      FormatKind
	Precision int
	MinMove   float64
}

// DefaultPriceFormat prints prices with two decimals
func DefaultPriceFormat() PriceFormat {
	return PriceFormat{Kind: FormatKindPrice, Precision: 2, MinMove: 0.01}
}

// FormatPrice prints value with max(format precision, fallback) decimals.
// Percent formats and relative scale modes get a "%" suffix.
func FormatPrice(value float64, format PriceFormat, fallbackPrecision int, mode transform.Mode) string {
	precision := max(format.Precision, fallbackPrecision)
	text := strconv.FormatFloat(value, 'f', precision, 64)
	if mode.IsRelative() || format.Kind == FormatPercent {
		return text + "%"
	}
	return text
}

// FormatTooltip expands {time}, {open}, {high}, {low} and {close} in template
func FormatTooltip(template string, candle core.Candle, precision int, format PriceFormat, mode transform.Mode) string {
	price := func(v float64) string { return FormatPrice(v, format, precision, mode) }
	return strings.NewReplacer(
		"{time}", FormatDateTime(candle.TimeKey()),
		"{open}", price(candle.Open),
		"{high}", price(candle.High),
		"{low}", price(candle.Low),
		"{close}", price(candle.Close),
	).Replace(template)
}

// FormatSeriesTooltip expands {series}, {time} and {value} in template
func FormatSeriesTooltip(template, series string, seconds, value float64, precision int, format PriceFormat, mode transform.Mode) string {
	return strings.NewReplacer(
		"{series}", series,
		"{time}", FormatDateTime(seconds),
		"{value}", FormatPrice(value, format, precision, mode),
	).Replace(template)
}
