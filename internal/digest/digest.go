package digest

import (
	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// StepTimeFunc computes one step's fully categorized time estimate
// (configure + exposure + readout + write, bucketed by charge class); it is
// supplied by the time-estimator (C6) to keep this package independent of
// the estimator's lookup table.
type StepTimeFunc func(model.Step) model.CategorizedTime

// SequenceDigestOf summarizes one phase (acquisition or science) of a
// sequence (spec §4.5): union of offsets used, summed time estimate, atom
// count, and the observe-class of the whole sequence.
func SequenceDigestOf(atoms []model.Atom, stepTime StepTimeFunc) model.SequenceDigest {
	var total model.CategorizedTime
	var classes []model.ObserveClass
	seenOffsets := map[model.Offset]bool{}
	var offsets []model.Offset

	for _, atom := range atoms {
		for _, step := range atom.Steps {
			total = total.Add(stepTime(step))
			classes = append(classes, step.ObserveClass)
			if !seenOffsets[step.Telescope.Offset] {
				seenOffsets[step.Telescope.Offset] = true
				offsets = append(offsets, step.Telescope.Offset)
			}
		}
	}

	return model.SequenceDigest{
		ObserveClass: model.LeastSpecificClass(classes),
		TimeEstimate: total,
		Offsets:      offsets,
		AtomCount:    len(atoms),
	}
}

// ExecutionDigestOf composes the full digest from setup time plus the
// acquisition and science atom lists.
func ExecutionDigestOf(setupTime model.TimeSpan, acquisition, science []model.Atom, stepTime StepTimeFunc) model.ExecutionDigest {
	return model.ExecutionDigest{
		SetupTime:   setupTime,
		Acquisition: SequenceDigestOf(acquisition, stepTime),
		Science:     SequenceDigestOf(science, stepTime),
	}
}
