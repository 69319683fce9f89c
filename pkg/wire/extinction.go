// Package wire implements the external wire encodings named in spec §6:
// extinction millimagnitudes, signal-to-noise millis, and the digest's
// serialization-ready shape.
package wire

import (
	"fmt"
	"math"

	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// MaxMillimags is the largest representable extinction value (spec §6).
const MaxMillimags = 32767

// ExtinctionFromMagnitudes encodes a magnitude value (e.g. 0.15) as
// Millimags, rounding to the nearest thousandth of a magnitude.
func ExtinctionFromMagnitudes(mag float64) (model.Millimags, error) {
	if mag < 0 {
		return 0, fmt.Errorf("wire: extinction magnitude must be non-negative, got %v", mag)
	}
	milli := math.Round(mag * 1000)
	if milli > MaxMillimags {
		return 0, fmt.Errorf("wire: extinction %v mag exceeds encodable range", mag)
	}
	return model.Millimags(milli), nil
}

// ToMagnitudes decodes Millimags back to a magnitude value (the spec's
// "decode as BigDecimal × 10⁻²" description, applied to our millimag unit).
func ToMagnitudes(e model.Millimags) float64 {
	return float64(e) / 1000.0
}

// TransmissionOf returns the atmospheric transmission fraction implied by
// extinction e: 10^(mag·1000/-2.5), where e already equals mag·1000 (spec
// §6). Monotone non-increasing in e (property #4 of spec §8).
func TransmissionOf(e model.Millimags) float64 {
	return math.Pow(10, float64(e)/-2.5)
}
