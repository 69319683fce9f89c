package protoseq

import (
	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// Flamingos2LongSlitParams parametrizes the Flamingos-2 ABBA long-slit
// algorithm (spec §4.4).
type Flamingos2LongSlitParams struct {
	// Offsets is the Q list; cycle c uses Offsets[c % len(Offsets)].q as the
	// ABBA magnitude.
	Offsets       []model.Offset
	SlitLengthMas int64
	ExposureTimeMs int64
	Grating        string
	Filter         string
	ReadMode       model.F2ReadMode
	// Cycles bounds the science stream; zero means a single cycle.
	Cycles int
}

// Flamingos2LongSlitSource emits the ABBA cycle atom stream. NewFlamingos2LongSlitSource
// validates the on-slit requirement eagerly so construction itself can fail
// with NotOnSlit, since no cycle is generable otherwise.
type Flamingos2LongSlitSource struct {
	p     Flamingos2LongSlitParams
	i     int
	total int
}

// NewFlamingos2LongSlitSource builds a source over p, or returns
// model.ErrNotOnSlit if no offset in p.Offsets falls within the slit.
func NewFlamingos2LongSlitSource(p Flamingos2LongSlitParams) (*Flamingos2LongSlitSource, error) {
	if len(p.Offsets) == 0 {
		p.Offsets = []model.Offset{{Q: 0}}
	}
	onSlit := false
	halfSlit := p.SlitLengthMas / 2
	for _, o := range p.Offsets {
		if abs64(o.Q) < halfSlit {
			onSlit = true
			break
		}
	}
	if !onSlit {
		return nil, model.NewGenError(model.ErrNotOnSlit, "no offset falls within half the slit length")
	}
	total := p.Cycles
	if total <= 0 {
		total = 1
	}
	return &Flamingos2LongSlitSource{p: p, total: total}, nil
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func (s *Flamingos2LongSlitSource) Next() (model.Atom, bool, error) {
	if s.i >= s.total {
		return model.Atom{}, false, nil
	}
	cycle := s.i
	s.i++

	q := s.p.Offsets[cycle%len(s.p.Offsets)].Q
	undisturbed := model.TelescopeConfig{Guiding: model.GuidingDisabled}

	calInstrument := model.InstrumentConfig{Grating: s.p.Grating, Filter: s.p.Filter, ReadMode: s.p.ReadMode}
	scienceInstrument := calInstrument
	scienceInstrument.ExposureTimeMs = s.p.ExposureTimeMs

	abba := []int64{q, -q, -q, q}
	steps := make([]model.Step, 0, len(abba)+2)
	steps = append(steps, model.Step{
		Id:           model.NewStepId(),
		Instrument:   calInstrument,
		Config:       model.StepConfig{Tag: model.StepGcal, GcalLamp: "arc"},
		Telescope:    undisturbed,
		ObserveClass: model.ObserveClassNightCal,
	})

	for _, qi := range abba {
		steps = append(steps, model.Step{
			Id:           model.NewStepId(),
			Instrument:   scienceInstrument,
			Config:       model.StepConfig{Tag: model.StepScience},
			Telescope:    model.TelescopeConfig{Offset: model.Offset{Q: qi}, Guiding: model.GuidingEnabled},
			ObserveClass: model.ObserveClassScience,
		})
	}

	steps = append(steps, model.Step{
		Id:           model.NewStepId(),
		Instrument:   calInstrument,
		Config:       model.StepConfig{Tag: model.StepGcal, GcalLamp: "flat", GcalShutter: "closed"},
		Telescope:    undisturbed,
		ObserveClass: model.ObserveClassDayCal,
	})

	return model.Atom{
		Id:           model.NewAtomId(),
		SequenceType: model.SequenceScience,
		Steps:        steps,
		Description:  "flamingos2 ABBA cycle",
	}, true, nil
}
