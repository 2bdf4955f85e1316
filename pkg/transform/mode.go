package transform

import (
	"fmt"
	"strings"
)

// Mode selects how raw prices are transformed before being mapped to pixels
type Mode int

const (
	Normal Mode = iota
	Logarithmic
	Percentage
	IndexedTo100
)

var modeNames = map[Mode]string{
	Normal:       "normal",
	Logarithmic:  "log",
	Percentage:   "percentage",
	IndexedTo100: "indexed",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// IsRelative reports whether the mode is expressed relative to a base price
func (m Mode) IsRelative() bool {
	return m == Percentage || m == IndexedTo100
}

// ParseMode converts a mode name, as returned by String, to a Mode
func ParseMode(name string) (Mode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for mode, modeName := range modeNames {
		if modeName == name {
			return mode, nil
		}
	}
	if name == "logarithmic" {
		return Logarithmic, nil
	}
	return Normal, fmt.Errorf("unknown price scale mode %q", name)
}

// Margins are top and bottom fractions of a price band left empty
type Margins struct {
	Top    float64 `mapstructure:"top"`
	Bottom float64 `mapstructure:"bottom"`
}

// DefaultMargins returns 10% margins on both sides
func DefaultMargins() Margins {
	return Margins{Top: 0.1, Bottom: 0.1}
}

// Scale is a resolved price scale ready for mapping.
type Scale struct {
	Min     float64
	Max     float64
	Mode    Mode
	Base    float64
	Invert  bool
	Margins Margins
}
