package core

import "errors"

var (
	// ErrNonFiniteBar is returned when a decimal bar has a price that cannot be
	// represented as a finite float.
	ErrNonFiniteBar = errors.New("bar price is not finite")
	// ErrInvalidTimeframe is returned for unparsable timeframe strings.
	ErrInvalidTimeframe = errors.New("invalid timeframe")
	// ErrEmptySource is returned when a data source has no rows.
	ErrEmptySource = errors.New("empty data source")
)
