package chart

import "errors"

var (
	ErrUnknownSeries = errors.New("unknown series")
	ErrUnknownPanel  = errors.New("unknown panel")
	ErrUnknownGroup  = errors.New("unknown time scale group")
	ErrSeriesKind    = errors.New("series kind mismatch")
	ErrUnknownLine   = errors.New("unknown price line")
	ErrMainPanel     = errors.New("main panel cannot be removed")
)
