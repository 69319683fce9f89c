package protoseq

import (
	"math"

	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// GmosLongSlitParams parametrizes the GMOS long-slit science algorithm
// (spec §4.4).
type GmosLongSlitParams struct {
	BaseWavelength model.Wavelength
	// Dithers is the wavelength dither list D (default by grating).
	Dithers []model.Wavelength
	// Offsets is the spatial offset list Q (default by instrument).
	Offsets []model.Offset
	// CycleExposureCount is N, the number of science steps per cycle.
	CycleExposureCount int
	// TotalExposures is the total number of science exposures requested.
	TotalExposures int
	ExposureTimeMs int64
	Grating        string
	Filter         string
	Fpu            string
}

// GmosLongSlitSource emits the GMOS long-slit science atom stream: each
// atom is one wavelength/offset cycle (arc + flat + N science steps), per
// spec §4.4's numbered emission algorithm.
type GmosLongSlitSource struct {
	p         GmosLongSlitParams
	i         int
	maxCycles int
}

// NewGmosLongSlitSource builds a GmosLongSlitSource over p. Panics if
// CycleExposureCount is non-positive, since the algorithm divides by it.
func NewGmosLongSlitSource(p GmosLongSlitParams) *GmosLongSlitSource {
	if p.CycleExposureCount <= 0 {
		panic("protoseq: CycleExposureCount must be positive")
	}
	if len(p.Dithers) == 0 {
		p.Dithers = []model.Wavelength{0}
	}
	if len(p.Offsets) == 0 {
		p.Offsets = []model.Offset{{}}
	}
	maxCycles := int(math.Ceil(float64(p.TotalExposures) / float64(p.CycleExposureCount)))
	return &GmosLongSlitSource{p: p, maxCycles: maxCycles}
}

func (s *GmosLongSlitSource) Next() (model.Atom, bool, error) {
	if s.i >= s.maxCycles {
		return model.Atom{}, false, nil
	}
	i := s.i
	s.i++

	p := s.p
	k := i % len(p.Dithers)
	centralWave := p.BaseWavelength + p.Dithers[k]
	qLen := len(p.Offsets)

	guided := model.TelescopeConfig{Offset: model.Offset{}, Guiding: model.GuidingDisabled}

	calInstrument := model.InstrumentConfig{
		Grating:     p.Grating,
		Filter:      p.Filter,
		Fpu:         p.Fpu,
		CentralWave: centralWave,
	}

	steps := make([]model.Step, 0, 2+p.CycleExposureCount)
	steps = append(steps,
		model.Step{
			Id:           model.NewStepId(),
			Instrument:   calInstrument,
			Config:       model.StepConfig{Tag: model.StepGcal, GcalLamp: "arc"},
			Telescope:    guided,
			ObserveClass: model.ObserveClassNightCal,
		},
		model.Step{
			Id:           model.NewStepId(),
			Instrument:   calInstrument,
			Config:       model.StepConfig{Tag: model.StepGcal, GcalLamp: "flat", GcalShutter: "closed"},
			Telescope:    guided,
			ObserveClass: model.ObserveClassDayCal,
		},
	)

	scienceInstrument := calInstrument
	scienceInstrument.ExposureTimeMs = p.ExposureTimeMs

	for j := 0; j < p.CycleExposureCount; j++ {
		offset := p.Offsets[(i+j)%qLen]
		steps = append(steps, model.Step{
			Id:           model.NewStepId(),
			Instrument:   scienceInstrument,
			Config:       model.StepConfig{Tag: model.StepScience},
			Telescope:    model.TelescopeConfig{Offset: offset, Guiding: model.GuidingEnabled},
			ObserveClass: model.ObserveClassScience,
		})
	}

	return model.Atom{
		Id:           model.NewAtomId(),
		SequenceType: model.SequenceScience,
		Steps:        steps,
		Description:  "gmos long-slit cycle",
	}, true, nil
}
