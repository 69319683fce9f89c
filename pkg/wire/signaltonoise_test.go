package wire

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
	"github.com/stretchr/testify/assert"
)

// TestSignalToNoiseRoundTrip is property #5 of spec §8.
func TestSignalToNoiseRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	for i := 0; i < 500; i++ {
		milli := model.MilliSN(MinMilliSN + rnd.Intn(MaxMilliSN-MinMilliSN+1))
		dec := ToBigDecimal(milli)
		got, ok := FromBigDecimalExact(dec)
		assert.True(t, ok)
		assert.Equal(t, milli, got)
	}
}

func TestSignalToNoiseRejectsFourthDecimal(t *testing.T) {
	v := big.NewRat(12345, 10000) // 1.2345, 4 decimal places
	_, ok := FromBigDecimalExact(v)
	assert.False(t, ok)
}

func TestSignalToNoiseRejectsOutOfRange(t *testing.T) {
	_, ok := FromBigDecimalExact(big.NewRat(0, 1))
	assert.False(t, ok)
}
