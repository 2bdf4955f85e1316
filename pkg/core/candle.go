package core

import (
	"fmt"
	"strconv"
	"time"
)

// TimeKeyed is implemented by every item stored in a Series.
// TimeKey returns the item time as unix seconds.
type TimeKeyed interface {
	TimeKey() float64
}

// Candle represents an OHLC bar
type Candle struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// TimeKey implements TimeKeyed.
func (c Candle) TimeKey() float64 { return UnixSeconds(c.Time) }

// IsBullish reports whether the candle closed at or above its open
func (c Candle) IsBullish() bool { return c.Close >= c.Open }

// OHLC returns the four prices in open, high, low, close order
func (c Candle) OHLC() [4]float64 { return [4]float64{c.Open, c.High, c.Low, c.Close} }

// ToSlice converts the candle to a string slice in the CSV column order
// time, open, close, low, high.
func (c Candle) ToSlice(precision int) []string {
	return []string{
		fmt.Sprintf("%d", c.Time.Unix()),
		strconv.FormatFloat(c.Open, 'f', precision, 64),
		strconv.FormatFloat(c.Close, 'f', precision, 64),
		strconv.FormatFloat(c.Low, 'f', precision, 64),
		strconv.FormatFloat(c.High, 'f', precision, 64),
	}
}

func (c Candle) String() string {
	return fmt.Sprintf("[%s] O: %f | H: %f | L: %f | C: %f",
		c.Time.UTC().Format(time.RFC3339), c.Open, c.High, c.Low, c.Close)
}

// LinePoint is a single value of a line series
type LinePoint struct {
	Time  time.Time
	Value float64
}

// TimeKey implements TimeKeyed.
func (p LinePoint) TimeKey() float64 { return UnixSeconds(p.Time) }

// HistogramPoint is a single bar of a histogram series.
// Color overrides the series color when set.
type HistogramPoint struct {
	Time  time.Time
	Value float64
	Color *Color
}

// TimeKey implements TimeKeyed.
func (p HistogramPoint) TimeKey() float64 { return UnixSeconds(p.Time) }

// Color is an RGBA color with components in [0,1]
type Color struct {
	R, G, B, A float64
}

// RGB builds an opaque color from 8-bit components
func RGB(r, g, b uint8) Color {
	return Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255, A: 1}
}

// UnixSeconds converts t to fractional unix seconds
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// FromUnixSeconds is the inverse of UnixSeconds
func FromUnixSeconds(seconds float64) time.Time {
	return time.Unix(0, int64(seconds*float64(time.Second))).UTC()
}
