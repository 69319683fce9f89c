package model

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eqInt(a, b int) bool { return a == b }

func TestContiguousTimestampMapAddExtendsForward(t *testing.T) {
	m := NewContiguousTimestampMap[int](eqInt)
	require.NoError(t, m.Add(TimestampInterval{Start: ts(0), End: ts(10)}, 1))
	require.NoError(t, m.Add(TimestampInterval{Start: ts(10), End: ts(20)}, 1))

	cov, ok := m.Coverage()
	require.True(t, ok)
	assert.Equal(t, ts(0), cov.Start)
	assert.Equal(t, ts(20), cov.End)

	// Adjacent equal values must be merged into a single entry.
	assert.Len(t, m.Entries(), 1)
}

func TestContiguousTimestampMapAddRejectsGap(t *testing.T) {
	m := NewContiguousTimestampMap[int](eqInt)
	require.NoError(t, m.Add(TimestampInterval{Start: ts(0), End: ts(10)}, 1))
	err := m.Add(TimestampInterval{Start: ts(100), End: ts(110)}, 1)
	assert.ErrorIs(t, err, ErrIntervalsDoNotTouch)
}

func TestContiguousTimestampMapOverwriteInterior(t *testing.T) {
	m := NewContiguousTimestampMap[int](eqInt)
	require.NoError(t, m.Add(TimestampInterval{Start: ts(0), End: ts(100)}, 1))
	require.NoError(t, m.Add(TimestampInterval{Start: ts(40), End: ts(60)}, 2))

	entries := m.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, 1, entries[0].Value)
	assert.Equal(t, 2, entries[1].Value)
	assert.Equal(t, 1, entries[2].Value)
	assert.Equal(t, ts(40), entries[1].Interval.Start)
	assert.Equal(t, ts(60), entries[1].Interval.End)
}

func TestContiguousTimestampMapFindMissing(t *testing.T) {
	m := NewContiguousTimestampMap[int](eqInt)
	require.NoError(t, m.Add(TimestampInterval{Start: ts(10), End: ts(20)}, 1))

	missing := m.FindMissing(TimestampInterval{Start: ts(0), End: ts(30)})
	require.Len(t, missing, 2)
	assert.Equal(t, TimestampInterval{Start: ts(0), End: ts(10)}, missing[0])
	assert.Equal(t, TimestampInterval{Start: ts(20), End: ts(30)}, missing[1])
}

// TestContiguousTimestampMapAddCommutes is property #2 from spec §8: for
// intervals i, j that don't overlap each other but both touch the same
// growing coverage, the order of two additions with equal values yields the
// same resulting map.
func TestContiguousTimestampMapAddCommutes(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		base := int64(rnd.Intn(1000))
		width1 := int64(1 + rnd.Intn(50))
		width2 := int64(1 + rnd.Intn(50))

		i := TimestampInterval{Start: ts(base), End: ts(base + width1)}
		j := TimestampInterval{Start: ts(base + width1), End: ts(base + width1 + width2)}

		m1 := NewContiguousTimestampMap[int](eqInt)
		require.NoError(t, m1.Add(i, 7))
		require.NoError(t, m1.Add(j, 7))

		m2 := NewContiguousTimestampMap[int](eqInt)
		// Build m2's coverage starting from j, then add i "backwards" by
		// growing from the other end, preserving the touches-existing-
		// coverage contract.
		require.NoError(t, m2.Add(j, 7))
		require.NoError(t, m2.Add(i, 7))

		assert.Equal(t, m1.Entries(), m2.Entries())
	}
}
