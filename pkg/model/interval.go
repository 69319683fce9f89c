package model

import (
	"errors"
	"fmt"
)

// ErrIntervalsDoNotTouch is returned by operations that require two
// intervals to share a boundary or overlap.
var ErrIntervalsDoNotTouch = errors.New("model: intervals do not touch")

// TimestampInterval is a half-open interval [Start, End).
type TimestampInterval struct {
	Start Timestamp
	End   Timestamp
}

// NewTimestampInterval builds an interval, rejecting an inverted range.
func NewTimestampInterval(start, end Timestamp) (TimestampInterval, error) {
	if end.Before(start) {
		return TimestampInterval{}, fmt.Errorf("model: interval end %s before start %s", end, start)
	}
	return TimestampInterval{Start: start, End: end}, nil
}

// Empty reports whether the interval covers no instants.
func (i TimestampInterval) Empty() bool { return !i.Start.Before(i.End) }

// Contains reports whether t falls within [Start, End).
func (i TimestampInterval) Contains(t Timestamp) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Overlaps reports whether i and other share at least one instant.
func (i TimestampInterval) Overlaps(other TimestampInterval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Abuts reports whether i and other share exactly a boundary with no gap
// and no overlap (i.e. i.End == other.Start or other.End == i.Start).
func (i TimestampInterval) Abuts(other TimestampInterval) bool {
	return i.End.Equal(other.Start) || other.End.Equal(i.Start)
}

// Touches reports whether i and other overlap or abut.
func (i TimestampInterval) Touches(other TimestampInterval) bool {
	return i.Overlaps(other) || i.Abuts(other)
}

// Intersect returns the overlap of i and other, if any.
func (i TimestampInterval) Intersect(other TimestampInterval) (TimestampInterval, bool) {
	if !i.Overlaps(other) {
		return TimestampInterval{}, false
	}
	start := i.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := i.End
	if other.End.Before(end) {
		end = other.End
	}
	return TimestampInterval{Start: start, End: end}, true
}

// Union merges i and other into a single contiguous interval. It fails
// unless the two intervals touch.
func (i TimestampInterval) Union(other TimestampInterval) (TimestampInterval, error) {
	if !i.Touches(other) {
		return TimestampInterval{}, ErrIntervalsDoNotTouch
	}
	start := i.Start
	if other.Start.Before(start) {
		start = other.Start
	}
	end := i.End
	if other.End.After(end) {
		end = other.End
	}
	return TimestampInterval{Start: start, End: end}, nil
}

// Minus subtracts other from i, returning zero, one, or two remaining
// fragments (two when other is a strict interior sub-interval of i).
func (i TimestampInterval) Minus(other TimestampInterval) []TimestampInterval {
	inter, ok := i.Intersect(other)
	if !ok || inter.Empty() {
		return []TimestampInterval{i}
	}
	var out []TimestampInterval
	if i.Start.Before(inter.Start) {
		out = append(out, TimestampInterval{Start: i.Start, End: inter.Start})
	}
	if inter.End.Before(i.End) {
		out = append(out, TimestampInterval{Start: inter.End, End: i.End})
	}
	return out
}

// Duration returns End-Start.
func (i TimestampInterval) Duration() int64 { return int64(i.End.Sub(i.Start)) }
