package model

import "sort"

// ContiguousMapEntry is one (interval, value) pair held by a
// ContiguousTimestampMap.
type ContiguousMapEntry[V any] struct {
	Interval TimestampInterval
	Value    V
}

// ContiguousTimestampMap is an ordered collection of adjacent, pairwise
// disjoint timestamp intervals mapping to a value V. Its invariants (see
// spec §3) are maintained by every mutator:
//
//  1. intervals are totally ordered and pairwise disjoint;
//  2. intervals form a single contiguous coverage, or the map is empty;
//  3. two adjacent intervals holding equal values (per the supplied eq) are
//     merged into one.
type ContiguousTimestampMap[V any] struct {
	entries []ContiguousMapEntry[V]
	eq      func(a, b V) bool
}

// NewContiguousTimestampMap constructs an empty map. eq decides whether two
// adjacent values should be coalesced; pass a constant-false function to
// disable coalescing.
func NewContiguousTimestampMap[V any](eq func(a, b V) bool) *ContiguousTimestampMap[V] {
	return &ContiguousTimestampMap[V]{eq: eq}
}

// Coverage returns the overall span of the map, if non-empty.
func (m *ContiguousTimestampMap[V]) Coverage() (TimestampInterval, bool) {
	if len(m.entries) == 0 {
		return TimestampInterval{}, false
	}
	return TimestampInterval{Start: m.entries[0].Interval.Start, End: m.entries[len(m.entries)-1].Interval.End}, true
}

// Entries returns a defensive copy of the underlying (interval, value)
// pairs, in order.
func (m *ContiguousTimestampMap[V]) Entries() []ContiguousMapEntry[V] {
	out := make([]ContiguousMapEntry[V], len(m.entries))
	copy(out, m.entries)
	return out
}

// IsEmpty reports whether the map holds no intervals.
func (m *ContiguousTimestampMap[V]) IsEmpty() bool { return len(m.entries) == 0 }

// valueAt returns the value covering point p among the current entries,
// assuming p lies within the current coverage.
func (m *ContiguousTimestampMap[V]) valueAt(p Timestamp) (V, bool) {
	for _, e := range m.entries {
		if !p.Before(e.Interval.Start) && p.Before(e.Interval.End) {
			return e.Value, true
		}
	}
	var zero V
	return zero, false
}

// Add inserts interval->v. It fails with ErrIntervalsDoNotTouch unless the
// map is empty or interval touches the map's current coverage. Where
// interval overlaps existing coverage, v overwrites the overlapped portion.
func (m *ContiguousTimestampMap[V]) Add(interval TimestampInterval, v V) error {
	if interval.Empty() {
		return nil
	}
	if len(m.entries) == 0 {
		m.entries = []ContiguousMapEntry[V]{{Interval: interval, Value: v}}
		return nil
	}
	cov, _ := m.Coverage()
	if !interval.Touches(cov) {
		return ErrIntervalsDoNotTouch
	}

	lo, hi := interval.Start, interval.End
	if cov.Start.Before(lo) {
		lo = cov.Start
	}
	if cov.End.After(hi) {
		hi = cov.End
	}

	breakSet := map[Timestamp]struct{}{lo: {}, hi: {}, interval.Start: {}, interval.End: {}}
	for _, e := range m.entries {
		if !e.Interval.Start.Before(lo) && !e.Interval.Start.After(hi) {
			breakSet[e.Interval.Start] = struct{}{}
		}
		if !e.Interval.End.Before(lo) && !e.Interval.End.After(hi) {
			breakSet[e.Interval.End] = struct{}{}
		}
	}
	breaks := make([]Timestamp, 0, len(breakSet))
	for t := range breakSet {
		breaks = append(breaks, t)
	}
	sort.Slice(breaks, func(i, j int) bool { return breaks[i].Before(breaks[j]) })

	var next []ContiguousMapEntry[V]
	for i := 0; i+1 < len(breaks); i++ {
		a, b := breaks[i], breaks[i+1]
		if !a.Before(b) {
			continue
		}
		sub := TimestampInterval{Start: a, End: b}
		if !a.Before(interval.Start) && !b.After(interval.End) {
			next = append(next, ContiguousMapEntry[V]{Interval: sub, Value: v})
			continue
		}
		mid := a
		if val, ok := m.valueAt(mid); ok {
			next = append(next, ContiguousMapEntry[V]{Interval: sub, Value: val})
		}
	}
	m.entries = coalesce(next, m.eq)
	return nil
}

func coalesce[V any](entries []ContiguousMapEntry[V], eq func(a, b V) bool) []ContiguousMapEntry[V] {
	if len(entries) == 0 {
		return entries
	}
	out := entries[:1]
	for _, e := range entries[1:] {
		last := &out[len(out)-1]
		if last.Interval.End.Equal(e.Interval.Start) && eq(last.Value, e.Value) {
			last.Interval.End = e.Interval.End
			continue
		}
		out = append(out, e)
	}
	return out
}

// Union merges other into m. It fails unless the two maps' coverages touch
// (or either map is empty).
func (m *ContiguousTimestampMap[V]) Union(other *ContiguousTimestampMap[V]) error {
	for _, e := range other.entries {
		if err := m.Add(e.Interval, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// Slice returns the portion of the map overlapping rng as a new map.
func (m *ContiguousTimestampMap[V]) Slice(rng TimestampInterval) *ContiguousTimestampMap[V] {
	out := NewContiguousTimestampMap[V](m.eq)
	for _, e := range m.entries {
		if inter, ok := e.Interval.Intersect(rng); ok && !inter.Empty() {
			_ = out.Add(inter, e.Value)
		}
	}
	return out
}

// FindMissing returns the sub-intervals of rng not covered by the map.
func (m *ContiguousTimestampMap[V]) FindMissing(rng TimestampInterval) []TimestampInterval {
	if rng.Empty() {
		return nil
	}
	remaining := []TimestampInterval{rng}
	for _, e := range m.entries {
		var next []TimestampInterval
		for _, r := range remaining {
			next = append(next, r.Minus(e.Interval)...)
		}
		remaining = next
	}
	sort.Slice(remaining, func(i, j int) bool { return remaining[i].Start.Before(remaining[j].Start) })
	return remaining
}
