package staticconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

func TestBuildGmosLongSlitUsesSlowReadLowGain(t *testing.T) {
	params := model.GenParams{Mode: model.ObservingMode{Tag: model.ModeGmosNorthLongSlit, Grating: "B600"}}
	cfg, err := Build(params)
	require.NoError(t, err)
	require.NotNil(t, cfg.Gmos)
	assert.Equal(t, GmosStageFollowXyz, cfg.Gmos.Stage)
	assert.Equal(t, "slow", cfg.Gmos.Detector.AmpReadMode)
	assert.False(t, cfg.Gmos.NodAndShuffle)
}

func TestBuildGmosImagingHonorsPreImagingFlag(t *testing.T) {
	params := model.GenParams{Mode: model.ObservingMode{Tag: model.ModeGmosSouthImaging, PreImaging: true}}
	cfg, err := Build(params)
	require.NoError(t, err)
	require.NotNil(t, cfg.Gmos)
	assert.True(t, cfg.Gmos.CustomRoiStage)
}

func TestBuildFlamingos2DefaultsToMediumRead(t *testing.T) {
	params := model.GenParams{Mode: model.ObservingMode{Tag: model.ModeFlamingos2LongSlit}}
	cfg, err := Build(params)
	require.NoError(t, err)
	require.NotNil(t, cfg.Flamingos2)
	assert.Equal(t, model.F2ReadMedium, cfg.Flamingos2.ReadMode)
	assert.Equal(t, 4, cfg.Flamingos2.Reads)
}

func TestBuildFlamingos2HonorsExplicitReadMode(t *testing.T) {
	params := model.GenParams{Mode: model.ObservingMode{Tag: model.ModeFlamingos2LongSlit, ExplicitReadMode: model.F2ReadBright}}
	cfg, err := Build(params)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Flamingos2.Reads)
}

func TestBuildIsDeterministic(t *testing.T) {
	params := model.GenParams{Mode: model.ObservingMode{Tag: model.ModeGmosNorthLongSlit}}
	a, err := Build(params)
	require.NoError(t, err)
	b, err := Build(params)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildRejectsUnrecognizedTag(t *testing.T) {
	_, err := Build(model.GenParams{Mode: model.ObservingMode{Tag: "unknown"}})
	require.Error(t, err)
}
