package protoseq

import (
	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// AcquisitionInput is the resolved ITC result and instrument config feeding
// the three-step acquisition sub-sequence.
type AcquisitionInput struct {
	Instrument model.InstrumentConfig
	// BaselineExposureMs is the scaled baseline exposure used by the
	// fine-image and slit-image steps.
	BaselineExposureMs int64
	// CoarseExposureMs is the first step's exposure, returned verbatim even
	// when the ITC flagged the source too bright (spec §4.4).
	CoarseExposureMs int64
}

// AcquisitionSource emits the acquisition sub-sequence: an infinite stream
// of identically-shaped three-step atoms (coarse-image, fine-image,
// slit-image), each minted with fresh ids, so callers can re-acquire as
// many times as guiding requires.
type AcquisitionSource struct {
	input AcquisitionInput
}

// NewAcquisitionSource builds an AcquisitionSource over input.
func NewAcquisitionSource(input AcquisitionInput) *AcquisitionSource {
	return &AcquisitionSource{input: input}
}

func (s *AcquisitionSource) Next() (model.Atom, bool, error) {
	coarse := s.input.Instrument
	coarse.ExposureTimeMs = s.input.CoarseExposureMs

	fineAndSlit := s.input.Instrument
	fineAndSlit.ExposureTimeMs = s.input.BaselineExposureMs

	zero := model.TelescopeConfig{Offset: model.Offset{}, Guiding: model.GuidingDisabled}

	steps := []model.Step{
		{
			Id:           model.NewStepId(),
			Instrument:   coarse,
			Config:       model.StepConfig{Tag: model.StepScience},
			Telescope:    zero,
			ObserveClass: model.ObserveClassAcquisition,
		},
		{
			Id:           model.NewStepId(),
			Instrument:   fineAndSlit,
			Config:       model.StepConfig{Tag: model.StepScience},
			Telescope:    zero,
			ObserveClass: model.ObserveClassAcquisition,
		},
		{
			Id:           model.NewStepId(),
			Instrument:   fineAndSlit,
			Config:       model.StepConfig{Tag: model.StepScience},
			Telescope:    zero,
			ObserveClass: model.ObserveClassAcquisition,
		},
	}

	return model.Atom{
		Id:           model.NewAtomId(),
		SequenceType: model.SequenceAcquisition,
		Steps:        steps,
		Description:  "acquisition",
	}, true, nil
}
