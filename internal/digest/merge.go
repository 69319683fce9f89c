// Package digest implements the Execution Digest and Next-Atom Merge (C5):
// folding executed steps and dataset QA states into completion state, then
// merging that against the protosequence to find the next atom and the
// possible future.
package digest

import (
	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// ExecutedStep is one step as it actually ran, with the QA state of its
// dataset (or Absent if no dataset was produced, e.g. a calibration step
// under a QA-less workflow).
type ExecutedStep struct {
	Fingerprint model.StepFingerprint
	QA          model.Nullable[model.QaState]
}

// ExecutedAtom is one atom as it actually ran, in temporal order.
type ExecutedAtom struct {
	Id         model.AtomId
	PlanSteps  []model.Step // the original protosequence steps for this atom
	Executed   []ExecutedStep
	InProgress bool // true for the most recent atom if it has unexecuted plan steps
}

// completed reports whether the QA state of an executed step counts the
// step as completed (spec §4.5: Fail does not count; Usable and Passed do).
func (s ExecutedStep) completed() bool {
	qa, ok := s.QA.Get()
	if !ok {
		return true // no dataset/QA recorded yet defaults to counted-complete
	}
	return qa.CountsAsCompleted()
}

// MergeResult is the outcome of merging a protosequence against execution
// history (spec §4.5).
type MergeResult struct {
	NextAtom       *model.Atom
	PossibleFuture []model.Atom
	HasMore        bool
}

// Merge walks executed in temporal order, matches executed steps to
// protosequence steps by fingerprint, and determines the next atom of the
// science stream plus a future window truncated to futureLimit.
func Merge(science model.AtomStream, executed []ExecutedAtom, futureLimit int) (MergeResult, error) {
	if residual, ok := residualOfInProgress(executed); ok {
		future, hasMore, err := takeFuture(science, futureLimit)
		if err != nil {
			return MergeResult{}, err
		}
		return MergeResult{NextAtom: &residual, PossibleFuture: future, HasMore: hasMore}, nil
	}

	next, ok, err := science.Next()
	if err != nil {
		return MergeResult{}, err
	}
	if !ok {
		return MergeResult{}, nil
	}
	future, hasMore, err := takeFuture(science, futureLimit)
	if err != nil {
		return MergeResult{}, err
	}
	return MergeResult{NextAtom: &next, PossibleFuture: future, HasMore: hasMore}, nil
}

// residualOfInProgress returns the in-progress atom's unexecuted steps,
// preserving its original atom id, per spec §4.5 rule 3's first branch.
func residualOfInProgress(executed []ExecutedAtom) (model.Atom, bool) {
	if len(executed) == 0 {
		return model.Atom{}, false
	}
	last := executed[len(executed)-1]
	if !last.InProgress {
		return model.Atom{}, false
	}

	completedCount := make(map[model.StepFingerprint]int)
	for _, e := range last.Executed {
		if e.completed() {
			completedCount[e.Fingerprint]++
		}
	}

	var residual []model.Step
	for _, planStep := range last.PlanSteps {
		fp := planStep.Fingerprint()
		if completedCount[fp] > 0 {
			completedCount[fp]-- // greedily consume the oldest matching completed step
			continue
		}
		residual = append(residual, planStep)
	}
	if len(residual) == 0 {
		return model.Atom{}, false
	}
	return model.Atom{
		Id:           last.Id,
		SequenceType: model.SequenceScience,
		Steps:        residual,
		Description:  "residual",
	}, true
}

func takeFuture(science model.AtomStream, futureLimit int) ([]model.Atom, bool, error) {
	atoms, err := model.TakeAtoms(science, futureLimit)
	if err != nil {
		return nil, false, err
	}
	if len(atoms) < futureLimit {
		return atoms, false, nil
	}
	_, ok, err := science.Next()
	if err != nil {
		return atoms, false, err
	}
	return atoms, ok, nil
}
