package wire

import (
	"fmt"
	"math/big"

	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// MinMilliSN and MaxMilliSN bound the legal encoded range (spec §6):
// [1, 9_999_999_999], i.e. [0.001, 9_999_999.999].
const (
	MinMilliSN = 1
	MaxMilliSN = 9_999_999_999
)

// FromBigDecimal encodes a decimal S/N value (up to three decimal places)
// as MilliSN, failing if out of range or if it carries a fourth decimal
// digit.
func FromBigDecimal(v *big.Rat) (model.MilliSN, error) {
	scaled := new(big.Rat).Mul(v, big.NewRat(1000, 1))
	if !scaled.IsInt() {
		return 0, fmt.Errorf("wire: signal-to-noise %s has more than three decimal places", v.RatString())
	}
	milli := scaled.Num().Int64()
	if milli < MinMilliSN || milli > MaxMilliSN {
		return 0, fmt.Errorf("wire: signal-to-noise %s out of encodable range", v.RatString())
	}
	return model.MilliSN(milli), nil
}

// FromBigDecimalExact is the partial inverse named by spec property #5: it
// succeeds exactly when the input round-trips losslessly through the
// encoding, returning (value, true); otherwise (0, false).
func FromBigDecimalExact(v *big.Rat) (model.MilliSN, bool) {
	sn, err := FromBigDecimal(v)
	if err != nil {
		return 0, false
	}
	return sn, true
}

// ToBigDecimal decodes a MilliSN back to its exact decimal value.
func ToBigDecimal(sn model.MilliSN) *big.Rat {
	return big.NewRat(int64(sn), 1000)
}
