package paramsresolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

type fakeTargets map[model.TargetId]Target

func (f fakeTargets) GetTarget(ctx context.Context, id model.TargetId) (Target, bool, error) {
	t, ok := f[id]
	return t, ok, nil
}

type fakeObservations map[model.ObservationId]ObservationData

func (f fakeObservations) GetObservation(ctx context.Context, id model.ObservationId) (ObservationData, bool, error) {
	o, ok := f[id]
	return o, ok, nil
}

type fakeProposals struct{ authorized map[model.ProgramId]bool }

func (f fakeProposals) IsAuthorized(ctx context.Context, programId model.ProgramId) (bool, error) {
	return f.authorized[programId], nil
}

func baseObservation() ObservationData {
	return ObservationData{
		ProgramId: "p-1",
		Mode:      model.ObservingMode{Tag: model.ModeGmosNorthLongSlit, Grating: "B600"},
		ExposureTimeMode: model.ExposureTimeMode{
			Tag:           model.SignalToNoiseTag,
			SignalToNoise: 100,
		},
		AsterismTargets: []model.TargetId{"t-1"},
		Band:            "V",
	}
}

func newResolver(obsId model.ObservationId, obs ObservationData, target Target, authorized bool) *Resolver {
	return New(
		fakeTargets{target.Id: target},
		fakeObservations{obsId: obs},
		fakeProposals{authorized: map[model.ProgramId]bool{obs.ProgramId: authorized}},
	)
}

func TestResolveSucceedsWithCompleteInputs(t *testing.T) {
	target := Target{Id: "t-1", Profile: "point", Sed: model.NewPresent("flat")}
	r := newResolver("o-1", baseObservation(), target, true)

	params, err := r.Resolve(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, model.ObservationId("o-1"), params.ObservationId)
	assert.Equal(t, model.ProgramId("p-1"), params.ProgramId)
	require.Len(t, params.Asterism, 1)
	assert.Equal(t, model.TargetId("t-1"), params.Asterism[0].TargetId)
}

func TestResolveMissingObservationReportsMissingMode(t *testing.T) {
	r := New(fakeTargets{}, fakeObservations{}, fakeProposals{})
	_, err := r.Resolve(context.Background(), "does-not-exist")
	require.Error(t, err)
	var genErr *model.GenError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, model.ErrMissingMode, genErr.Tag)
}

func TestResolveUnauthorizedProgramReportsNotAuthorized(t *testing.T) {
	target := Target{Id: "t-1", Profile: "point", Sed: model.NewPresent("flat")}
	r := newResolver("o-1", baseObservation(), target, false)

	_, err := r.Resolve(context.Background(), "o-1")
	require.Error(t, err)
	var genErr *model.GenError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, model.ErrNotAuthorized, genErr.Tag)
}

func TestResolveMissingTargetReportsMissingTarget(t *testing.T) {
	r := New(
		fakeTargets{},
		fakeObservations{"o-1": baseObservation()},
		fakeProposals{authorized: map[model.ProgramId]bool{"p-1": true}},
	)
	_, err := r.Resolve(context.Background(), "o-1")
	require.Error(t, err)
	var genErr *model.GenError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, model.ErrMissingTarget, genErr.Tag)
}

func TestResolveTwoTargetAsterismOneDeletedUsesSurvivor(t *testing.T) {
	obs := baseObservation()
	obs.AsterismTargets = []model.TargetId{"t-1", "t-2"}
	survivor := Target{Id: "t-1", Profile: "point", Sed: model.NewPresent("flat")}
	r := New(
		fakeTargets{survivor.Id: survivor},
		fakeObservations{"o-1": obs},
		fakeProposals{authorized: map[model.ProgramId]bool{"p-1": true}},
	)

	params, err := r.Resolve(context.Background(), "o-1")
	require.NoError(t, err)
	require.Len(t, params.Asterism, 1)
	assert.Equal(t, model.TargetId("t-1"), params.Asterism[0].TargetId)
}

func TestResolveAsterismAllTargetsDeletedReportsMissingTarget(t *testing.T) {
	obs := baseObservation()
	obs.AsterismTargets = []model.TargetId{"t-1", "t-2"}
	r := New(
		fakeTargets{},
		fakeObservations{"o-1": obs},
		fakeProposals{authorized: map[model.ProgramId]bool{"p-1": true}},
	)

	_, err := r.Resolve(context.Background(), "o-1")
	require.Error(t, err)
	var genErr *model.GenError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, model.ErrMissingTarget, genErr.Tag)
}

func TestResolveMissingSedReportsMissingSedAndShortCircuits(t *testing.T) {
	target := Target{Id: "t-1", Profile: "point", Sed: model.NewAbsent[string]()}
	r := newResolver("o-1", baseObservation(), target, true)

	_, err := r.Resolve(context.Background(), "o-1")
	require.Error(t, err)
	var genErr *model.GenError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, model.ErrMissingSed, genErr.Tag)
	assert.Equal(t, model.TargetId("t-1"), genErr.Data["target_id"])
}

func TestResolveExplicitlyNullSedIsAlsoMissing(t *testing.T) {
	target := Target{Id: "t-1", Profile: "point", Sed: model.NewNull[string]()}
	r := newResolver("o-1", baseObservation(), target, true)

	_, err := r.Resolve(context.Background(), "o-1")
	require.Error(t, err)
	var genErr *model.GenError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, model.ErrMissingSed, genErr.Tag)
}

func TestResolveEmptyAsterismReportsInvalidAsterism(t *testing.T) {
	obs := baseObservation()
	obs.AsterismTargets = nil
	r := New(
		fakeTargets{},
		fakeObservations{"o-1": obs},
		fakeProposals{authorized: map[model.ProgramId]bool{"p-1": true}},
	)
	_, err := r.Resolve(context.Background(), "o-1")
	require.Error(t, err)
	var genErr *model.GenError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, model.ErrInvalidAsterism, genErr.Tag)
}

func TestResolveInvalidExposureTimeModeIsRejected(t *testing.T) {
	obs := baseObservation()
	obs.ExposureTimeMode = model.ExposureTimeMode{Tag: model.SignalToNoiseTag, SignalToNoise: 0}
	target := Target{Id: "t-1", Profile: "point", Sed: model.NewPresent("flat")}
	r := newResolver("o-1", obs, target, true)

	_, err := r.Resolve(context.Background(), "o-1")
	require.Error(t, err)
	var genErr *model.GenError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, model.ErrInvalidExposureTimeMode, genErr.Tag)
}
