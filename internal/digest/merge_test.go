package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

func stepWithFingerprint(exposureMs int64) model.Step {
	return model.Step{
		Id:         model.NewStepId(),
		Instrument: model.InstrumentConfig{ExposureTimeMs: exposureMs},
		Config:     model.StepConfig{Tag: model.StepScience},
	}
}

func TestMergeResumesInProgressAtomWithResidualSteps(t *testing.T) {
	s1, s2, s3 := stepWithFingerprint(100), stepWithFingerprint(200), stepWithFingerprint(300)
	atomId := model.NewAtomId()

	executed := []ExecutedAtom{
		{
			Id:        atomId,
			PlanSteps: []model.Step{s1, s2, s3},
			Executed: []ExecutedStep{
				{Fingerprint: s1.Fingerprint(), QA: model.NewPresent(model.QaPass)},
			},
			InProgress: true,
		},
	}

	result, err := Merge(model.NewSliceStream(nil), executed, 5)
	require.NoError(t, err)
	require.NotNil(t, result.NextAtom)
	assert.Equal(t, atomId, result.NextAtom.Id, "residual atom preserves its original id")
	assert.Len(t, result.NextAtom.Steps, 2)
}

func TestMergeQaFailReopensStepAsIncomplete(t *testing.T) {
	s1, s2 := stepWithFingerprint(100), stepWithFingerprint(200)
	atomId := model.NewAtomId()

	executed := []ExecutedAtom{
		{
			Id:        atomId,
			PlanSteps: []model.Step{s1, s2},
			Executed: []ExecutedStep{
				{Fingerprint: s1.Fingerprint(), QA: model.NewPresent(model.QaFail)},
			},
			InProgress: true,
		},
	}

	result, err := Merge(model.NewSliceStream(nil), executed, 5)
	require.NoError(t, err)
	require.NotNil(t, result.NextAtom)
	require.Len(t, result.NextAtom.Steps, 2, "the failed step must reappear in the residual")
	assert.Equal(t, s1.Fingerprint(), result.NextAtom.Steps[0].Fingerprint())
}

func TestMergeMovesToNextCycleWhenNoInProgressAtom(t *testing.T) {
	next := model.Atom{Id: model.NewAtomId(), SequenceType: model.SequenceScience, Steps: []model.Step{stepWithFingerprint(50)}}
	stream := model.NewSliceStream([]model.Atom{next, next})

	result, err := Merge(stream, nil, 1)
	require.NoError(t, err)
	require.NotNil(t, result.NextAtom)
	assert.Equal(t, next.Id, result.NextAtom.Id)
}

func TestMergeHasMoreReflectsTruncation(t *testing.T) {
	atoms := make([]model.Atom, 0, 10)
	for i := 0; i < 10; i++ {
		atoms = append(atoms, model.Atom{Id: model.NewAtomId(), SequenceType: model.SequenceScience, Steps: []model.Step{stepWithFingerprint(1)}})
	}
	stream := model.NewSliceStream(atoms)

	result, err := Merge(stream, nil, 3)
	require.NoError(t, err)
	assert.Len(t, result.PossibleFuture, 3)
	assert.True(t, result.HasMore)
}

func TestSequenceDigestOfComputesOffsetsAndClass(t *testing.T) {
	a1 := model.Atom{Steps: []model.Step{
		{ObserveClass: model.ObserveClassScience, Telescope: model.TelescopeConfig{Offset: model.Offset{Q: 0}}},
		{ObserveClass: model.ObserveClassNightCal, Telescope: model.TelescopeConfig{Offset: model.Offset{Q: 1000}}},
	}}
	a2 := model.Atom{Steps: []model.Step{
		{ObserveClass: model.ObserveClassScience, Telescope: model.TelescopeConfig{Offset: model.Offset{Q: 0}}},
	}}

	d := SequenceDigestOf([]model.Atom{a1, a2}, func(s model.Step) model.CategorizedTime {
		return model.CategorizedTime{Program: 10}
	})

	assert.Equal(t, model.ObserveClassScience, d.ObserveClass)
	assert.Len(t, d.Offsets, 2, "offsets deduplicated by value")
	assert.EqualValues(t, 30, d.TimeEstimate.Program)
	assert.Equal(t, 2, d.AtomCount)
}
