package wire

import (
	"math/rand"
	"testing"

	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExtinctionRoundTrip is property #4 of spec §8.
func TestExtinctionRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		e := model.Millimags(rnd.Intn(MaxMillimags + 1))
		mag := ToMagnitudes(e)
		got, err := ExtinctionFromMagnitudes(mag)
		require.NoError(t, err)
		assert.Equal(t, e, got)
	}
}

func TestTransmissionMonotoneNonIncreasing(t *testing.T) {
	prev := TransmissionOf(0)
	for e := model.Millimags(1); e <= 1000; e++ {
		cur := TransmissionOf(e)
		assert.LessOrEqual(t, cur, prev, "transmission must not increase as extinction grows")
		prev = cur
	}
}

func TestExtinctionRejectsOutOfRange(t *testing.T) {
	_, err := ExtinctionFromMagnitudes(-0.1)
	assert.Error(t, err)

	_, err = ExtinctionFromMagnitudes(1000)
	assert.Error(t, err)
}
