// Package staticconfig implements the Static-Config Builder (C3): a pure,
// total, deterministic mapping from model.GenParams to an instrument's
// static configuration (stage, detector, node-and-shuffle posture). It never
// touches the network or a clock, and dispatches purely on
// GenParams.Mode.Tag.
package staticconfig

import (
	"fmt"

	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// GmosStage is the GMOS focal-plane stage mode.
type GmosStage string

const (
	GmosStageFollowXy  GmosStage = "follow_xy"
	GmosStageFollowXyz GmosStage = "follow_xyz"
	GmosStageFollowZ   GmosStage = "follow_z"
	GmosStageFixed     GmosStage = "fixed"
)

// GmosDetector is the GMOS readout/binning configuration.
type GmosDetector struct {
	XBin         int    `json:"x_bin"`
	YBin         int    `json:"y_bin"`
	AmpReadMode  string `json:"amp_read_mode"`
	AmpGain      string `json:"amp_gain"`
}

// GmosStaticConfig is the static configuration shared by GMOS long-slit and
// imaging observations.
type GmosStaticConfig struct {
	Stage           GmosStage    `json:"stage"`
	Detector        GmosDetector `json:"detector"`
	NodAndShuffle   bool         `json:"nod_and_shuffle"`
	CustomRoiStage  bool         `json:"custom_roi_stage"`
}

// Flamingos2StaticConfig is Flamingos-2's static configuration.
type Flamingos2StaticConfig struct {
	MosPreImaging bool          `json:"mos_pre_imaging"`
	ReadMode      model.F2ReadMode `json:"read_mode"`
	Reads         int           `json:"reads"`
}

// StaticConfig is the tagged union of per-instrument static configs. Only
// the field matching Tag is meaningful, mirroring model.ObservingMode's own
// discriminated-struct shape.
type StaticConfig struct {
	Tag         model.InstrumentModeTag `json:"tag"`
	Gmos        *GmosStaticConfig       `json:"gmos,omitempty"`
	Flamingos2  *Flamingos2StaticConfig `json:"flamingos2,omitempty"`
}

// Build dispatches on params.Mode.Tag and produces the instrument's static
// configuration. It is pure and total for any GenParams whose Mode.Tag is
// one of the five recognized values.
func Build(params model.GenParams) (StaticConfig, error) {
	switch params.Mode.Tag {
	case model.ModeGmosNorthLongSlit, model.ModeGmosSouthLongSlit:
		return StaticConfig{Tag: params.Mode.Tag, Gmos: gmosLongSlit(params.Mode)}, nil
	case model.ModeGmosNorthImaging, model.ModeGmosSouthImaging:
		return StaticConfig{Tag: params.Mode.Tag, Gmos: gmosImaging(params.Mode)}, nil
	case model.ModeFlamingos2LongSlit:
		return StaticConfig{Tag: params.Mode.Tag, Flamingos2: flamingos2LongSlit(params.Mode)}, nil
	default:
		return StaticConfig{}, fmt.Errorf("staticconfig: unrecognized mode tag %q", params.Mode.Tag)
	}
}

func gmosLongSlit(mode model.ObservingMode) *GmosStaticConfig {
	return &GmosStaticConfig{
		Stage: GmosStageFollowXyz,
		Detector: GmosDetector{
			XBin:        2,
			YBin:        2,
			AmpReadMode: "slow",
			AmpGain:     "low",
		},
		NodAndShuffle:  false,
		CustomRoiStage: false,
	}
}

func gmosImaging(mode model.ObservingMode) *GmosStaticConfig {
	return &GmosStaticConfig{
		Stage: GmosStageFollowXy,
		Detector: GmosDetector{
			XBin:        1,
			YBin:        1,
			AmpReadMode: "fast",
			AmpGain:     "low",
		},
		NodAndShuffle:  false,
		CustomRoiStage: mode.PreImaging,
	}
}

func flamingos2LongSlit(mode model.ObservingMode) *Flamingos2StaticConfig {
	readMode := mode.ExplicitReadMode
	if readMode == "" {
		readMode = model.F2ReadMedium
	}
	return &Flamingos2StaticConfig{
		MosPreImaging: false,
		ReadMode:      readMode,
		Reads:         f2ReadsFor(readMode),
	}
}

func f2ReadsFor(mode model.F2ReadMode) int {
	switch mode {
	case model.F2ReadFaint:
		return 8
	case model.F2ReadBright:
		return 1
	default:
		return 4
	}
}
