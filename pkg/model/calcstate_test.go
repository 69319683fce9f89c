package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculationStateCombineMostStaleWins(t *testing.T) {
	cases := []struct {
		a, b, want CalculationState
	}{
		{CalcReady, CalcPending, CalcPending},
		{CalcRetry, CalcReady, CalcRetry},
		{CalcCalculating, CalcRetry, CalcCalculating},
		{CalcPending, CalcCalculating, CalcPending},
		{CalcReady, CalcReady, CalcReady},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.a.Combine(c.b), "combine(%s,%s)", c.a, c.b)
		assert.Equal(t, c.want, c.b.Combine(c.a), "combine should be commutative")
	}
}
