package protoseq

import (
	"sort"

	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// GmosImagingParams parametrizes the GMOS imaging algorithm (spec §4.4).
type GmosImagingParams struct {
	// Filters maps each filter name to its representative wavelength, used
	// to order filter groups.
	Filters        map[string]model.Wavelength
	ExposureTimeMs int64
	ExposureCount  int
	PreImaging     bool
	// Interleave, when true, emits one step per filter per round instead of
	// completing each filter's full exposure count before moving on.
	Interleave bool
}

// GmosImagingSource emits filter-group atoms in wavelength order, honoring
// an optional leading pre-imaging atom and an interleaved-vs-grouped
// multiple-filter mode.
type GmosImagingSource struct {
	filters     []string
	p           GmosImagingParams
	preImaged   bool
	group       int // next filter group index (grouped mode)
	round       int // next round index (interleaved mode)
	roundsTotal int
}

// NewGmosImagingSource builds a GmosImagingSource over p, sorting filters by
// wavelength ascending.
func NewGmosImagingSource(p GmosImagingParams) *GmosImagingSource {
	filters := make([]string, 0, len(p.Filters))
	for f := range p.Filters {
		filters = append(filters, f)
	}
	sort.Slice(filters, func(i, j int) bool { return p.Filters[filters[i]] < p.Filters[filters[j]] })
	if p.ExposureCount <= 0 {
		p.ExposureCount = 1
	}
	return &GmosImagingSource{filters: filters, p: p, roundsTotal: p.ExposureCount}
}

func (s *GmosImagingSource) Next() (model.Atom, bool, error) {
	if !s.preImaged {
		s.preImaged = true
		if s.p.PreImaging {
			return s.preImagingAtom(), true, nil
		}
	}
	if s.p.Interleave {
		return s.nextInterleavedRound()
	}
	return s.nextFilterGroup()
}

func (s *GmosImagingSource) preImagingAtom() model.Atom {
	if len(s.filters) == 0 {
		return model.Atom{Id: model.NewAtomId(), SequenceType: model.SequenceScience, Steps: []model.Step{}, Description: "gmos pre-imaging"}
	}
	first := s.filters[0]
	step := model.Step{
		Id:           model.NewStepId(),
		Instrument:   model.InstrumentConfig{Filter: first, ExposureTimeMs: s.p.ExposureTimeMs},
		Config:       model.StepConfig{Tag: model.StepScience},
		Telescope:    model.TelescopeConfig{Guiding: model.GuidingEnabled},
		ObserveClass: model.ObserveClassScience,
	}
	return model.Atom{Id: model.NewAtomId(), SequenceType: model.SequenceScience, Steps: []model.Step{step}, Description: "gmos pre-imaging"}
}

func (s *GmosImagingSource) nextFilterGroup() (model.Atom, bool, error) {
	if s.group >= len(s.filters) {
		return model.Atom{}, false, nil
	}
	filter := s.filters[s.group]
	s.group++

	steps := make([]model.Step, 0, s.p.ExposureCount)
	for i := 0; i < s.p.ExposureCount; i++ {
		steps = append(steps, model.Step{
			Id:           model.NewStepId(),
			Instrument:   model.InstrumentConfig{Filter: filter, ExposureTimeMs: s.p.ExposureTimeMs},
			Config:       model.StepConfig{Tag: model.StepScience},
			Telescope:    model.TelescopeConfig{Guiding: model.GuidingEnabled},
			ObserveClass: model.ObserveClassScience,
		})
	}
	return model.Atom{Id: model.NewAtomId(), SequenceType: model.SequenceScience, Steps: steps, Description: "gmos imaging: " + filter}, true, nil
}

func (s *GmosImagingSource) nextInterleavedRound() (model.Atom, bool, error) {
	if s.round >= s.roundsTotal || len(s.filters) == 0 {
		return model.Atom{}, false, nil
	}
	s.round++

	steps := make([]model.Step, 0, len(s.filters))
	for _, filter := range s.filters {
		steps = append(steps, model.Step{
			Id:           model.NewStepId(),
			Instrument:   model.InstrumentConfig{Filter: filter, ExposureTimeMs: s.p.ExposureTimeMs},
			Config:       model.StepConfig{Tag: model.StepScience},
			Telescope:    model.TelescopeConfig{Guiding: model.GuidingEnabled},
			ObserveClass: model.ObserveClassScience,
		})
	}
	return model.Atom{Id: model.NewAtomId(), SequenceType: model.SequenceScience, Steps: steps, Description: "gmos imaging: interleaved round"}, true, nil
}
