package core

import (
	"cmp"
	"slices"
	"sort"

	"github.com/samber/lo"
)

// Series is a collection of time keyed items kept sorted ascending and
// unique by time.
type Series[T TimeKeyed] []T

// NewSeries builds a series from unordered items. Later duplicates win.
func NewSeries[T TimeKeyed](items []T) Series[T] {
	var s Series[T]
	s.Replace(items)
	return s
}

// Values returns the underlying slice of values
func (s Series[T]) Values() []T {
	return s
}

// Length returns the number of items in the series
func (s Series[T]) Length() int {
	return len(s)
}

// Empty reports whether the series holds no items
func (s Series[T]) Empty() bool {
	return len(s) == 0
}

// First returns the earliest item
func (s Series[T]) First() (T, bool) {
	if len(s) == 0 {
		var zero T
		return zero, false
	}
	return s[0], true
}

// Last returns the item at a specified position from the end
// position 0 is the last item, 1 is the second-to-last, etc.
func (s Series[T]) Last(position int) (T, bool) {
	idx := len(s) - 1 - position
	if idx < 0 || idx >= len(s) {
		var zero T
		return zero, false
	}
	return s[idx], true
}

// Times returns the time key of every item
func (s Series[T]) Times() []float64 {
	return lo.Map(s, func(item T, _ int) float64 { return item.TimeKey() })
}

// Replace discards the current items and stores items sorted and deduplicated.
// When two items share a time the later one in the input wins.
func (s *Series[T]) Replace(items []T) {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, byTime[T])
	*s = dedupeLastWins(sorted)
}

// Upsert inserts item keeping the series sorted and unique.
// An item with the same time as the last one overwrites it in place, a
// strictly newer item is appended and anything else is placed at its sorted
// position, overwriting an exact time match.
func (s *Series[T]) Upsert(item T) {
	items := *s
	n := len(items)
	t := item.TimeKey()

	if n == 0 || t > items[n-1].TimeKey() {
		*s = append(items, item)
		return
	}

	if t == items[n-1].TimeKey() {
		items[n-1] = item
		return
	}

	idx := sort.Search(n, func(i int) bool { return items[i].TimeKey() >= t })
	if items[idx].TimeKey() == t {
		items[idx] = item
		return
	}

	*s = slices.Insert(items, idx, item)
}

// Merge adds a batch of items, typically older history. Existing items win
// over batch items with the same time.
func (s *Series[T]) Merge(batch []T) {
	if len(batch) == 0 {
		return
	}

	merged := make([]T, 0, len(batch)+len(*s))
	merged = append(merged, batch...)
	merged = append(merged, (*s)...)
	slices.SortStableFunc(merged, byTime[T])
	*s = dedupeLastWins(merged)
}

// Nearest returns the item whose time is closest to target. On a tie the
// earlier item wins.
func (s Series[T]) Nearest(target float64) (T, int, bool) {
	n := len(s)
	if n == 0 {
		var zero T
		return zero, -1, false
	}

	idx := sort.Search(n, func(i int) bool { return s[i].TimeKey() >= target })
	switch {
	case idx == 0:
		return s[0], 0, true
	case idx == n:
		return s[n-1], n - 1, true
	}

	before, after := s[idx-1], s[idx]
	if target-before.TimeKey() <= after.TimeKey()-target {
		return before, idx - 1, true
	}
	return after, idx, true
}

// Window returns the items whose time falls in [start, end]. When nothing is
// inside the window the whole series is returned.
func (s Series[T]) Window(start, end float64) []T {
	lower := sort.Search(len(s), func(i int) bool { return s[i].TimeKey() >= start })
	upper := sort.Search(len(s), func(i int) bool { return s[i].TimeKey() > end })
	if lower >= upper {
		return s
	}
	return s[lower:upper]
}

// FirstInWindow returns the earliest item visible in [start, end], falling
// back to the earliest item overall.
func (s Series[T]) FirstInWindow(start, end float64) (T, bool) {
	visible := s.Window(start, end)
	if len(visible) == 0 {
		var zero T
		return zero, false
	}
	return visible[0], true
}

func byTime[T TimeKeyed](a, b T) int {
	return cmp.Compare(a.TimeKey(), b.TimeKey())
}

// dedupeLastWins collapses runs of equal times in a sorted slice keeping the
// last item of each run.
func dedupeLastWins[T TimeKeyed](sorted []T) []T {
	out := sorted[:0]
	for _, item := range sorted {
		if n := len(out); n > 0 && out[n-1].TimeKey() == item.TimeKey() {
			out[n-1] = item
			continue
		}
		out = append(out, item)
	}
	return out
}
