package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseParams() GenParams {
	return GenParams{
		ObservationId: "o-1",
		ProgramId:     "p-1",
		Mode: ObservingMode{
			Tag:     ModeGmosNorthLongSlit,
			Grating: "B1200",
			Fpu:     "1.0arcsec",
		},
		Asterism: []AsterismMember{{TargetId: "t-1", Profile: "point", Band: "V"}},
		Constraints: Constraints{
			ImageQuality: "70",
		},
		ExposureTimeMode: ExposureTimeMode{Tag: SignalToNoiseTag, SignalToNoise: 100000},
	}
}

func TestGenParamsFingerprintDeterministic(t *testing.T) {
	p := baseParams()
	f1, err := p.Fingerprint("abc123")
	require.NoError(t, err)
	f2, err := p.Fingerprint("abc123")
	require.NoError(t, err)
	assert.Equal(t, f1, f2)
}

func TestGenParamsFingerprintSensitiveToCommitHash(t *testing.T) {
	p := baseParams()
	f1, err := p.Fingerprint("abc123")
	require.NoError(t, err)
	f2, err := p.Fingerprint("def456")
	require.NoError(t, err)
	assert.NotEqual(t, f1, f2)
}

func TestGenParamsFingerprintSensitiveToContent(t *testing.T) {
	p1 := baseParams()
	p2 := baseParams()
	p2.Mode.Grating = "R831"

	f1, err := p1.Fingerprint("abc123")
	require.NoError(t, err)
	f2, err := p2.Fingerprint("abc123")
	require.NoError(t, err)
	assert.NotEqual(t, f1, f2)
}
