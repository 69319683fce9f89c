package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemini-hlsw/odb-sequencer/internal/digest"
	"github.com/gemini-hlsw/odb-sequencer/internal/execution"
	"github.com/gemini-hlsw/odb-sequencer/internal/itc"
	"github.com/gemini-hlsw/odb-sequencer/internal/paramsresolver"
	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

type fakeTargets map[model.TargetId]paramsresolver.Target

func (f fakeTargets) GetTarget(ctx context.Context, id model.TargetId) (paramsresolver.Target, bool, error) {
	t, ok := f[id]
	return t, ok, nil
}

type fakeObservations map[model.ObservationId]paramsresolver.ObservationData

func (f fakeObservations) GetObservation(ctx context.Context, id model.ObservationId) (paramsresolver.ObservationData, bool, error) {
	o, ok := f[id]
	return o, ok, nil
}

type fakeProposals struct{}

func (fakeProposals) IsAuthorized(context.Context, model.ProgramId) (bool, error) { return true, nil }

func testObservation() paramsresolver.ObservationData {
	return paramsresolver.ObservationData{
		ProgramId: "p-1",
		Mode: model.ObservingMode{
			Tag:     model.ModeGmosNorthLongSlit,
			Grating: "B600",
		},
		ExposureTimeMode: model.ExposureTimeMode{
			Tag:            model.TimeAndCountTag,
			ExposureTimeMs: 60_000,
			ExposureCount:  4,
		},
		AsterismTargets: []model.TargetId{"t-1"},
		Band:            "V",
	}
}

func testResolver() *paramsresolver.Resolver {
	target := paramsresolver.Target{Id: "t-1", Profile: "point", Sed: model.NewPresent("flat")}
	return paramsresolver.New(
		fakeTargets{target.Id: target},
		fakeObservations{"o-1": testObservation()},
		fakeProposals{},
	)
}

// fakeHistory lets each test pin exactly the executed atoms and completion
// flag the generator should see, independent of any real event store.
type fakeHistory struct {
	atoms     []digest.ExecutedAtom
	completed bool
}

func (f fakeHistory) GetExecutedAtoms(context.Context, model.ObservationId) ([]digest.ExecutedAtom, error) {
	return f.atoms, nil
}

func (f fakeHistory) HasCompletionEvent(context.Context, model.ObservationId) (bool, error) {
	return f.completed, nil
}

func newTestGenerator(t *testing.T, history execution.Repo) *Generator {
	t.Helper()
	// ExposureTimeMode is TimeAndCount, so the cache never reaches the
	// client; a nil Client is never invoked.
	itcCache, err := itc.NewCache(nil, itc.Config{CommitHash: "test"})
	require.NoError(t, err)
	return New(testResolver(), itcCache, history, nil, 10)
}

func TestCalculateFreshObservationIsDefined(t *testing.T) {
	gen := newTestGenerator(t, execution.EmptyRepo{})

	result, err := gen.Calculate(context.Background(), model.ObscalcMeta{ObservationId: "o-1"})
	require.NoError(t, err)
	assert.Equal(t, model.ResultWithTarget, result.Tag)
	assert.Equal(t, model.WorkflowDefined, result.Workflow)
	assert.Greater(t, result.Digest.Science.AtomCount, 0)
}

func TestCalculateWithExecutedStepIsOngoing(t *testing.T) {
	history := fakeHistory{atoms: []digest.ExecutedAtom{
		{
			Id: model.NewAtomId(),
			Executed: []digest.ExecutedStep{
				{Fingerprint: "whatever", QA: model.NewPresent(model.QaPass)},
			},
		},
	}}
	gen := newTestGenerator(t, history)

	result, err := gen.Calculate(context.Background(), model.ObscalcMeta{ObservationId: "o-1"})
	require.NoError(t, err)
	assert.Equal(t, model.WorkflowOngoing, result.Workflow)
}

func TestCalculateWithCompletionEventIsCompleted(t *testing.T) {
	gen := newTestGenerator(t, fakeHistory{completed: true})

	result, err := gen.Calculate(context.Background(), model.ObscalcMeta{ObservationId: "o-1"})
	require.NoError(t, err)
	assert.Equal(t, model.WorkflowCompleted, result.Workflow)
}

func TestCalculateMissingObservationReturnsErrorResult(t *testing.T) {
	gen := newTestGenerator(t, execution.EmptyRepo{})

	result, err := gen.Calculate(context.Background(), model.ObscalcMeta{ObservationId: "does-not-exist"})
	require.NoError(t, err)
	assert.Equal(t, model.ResultError, result.Tag)
	assert.Equal(t, model.ErrMissingMode, result.Error.Tag)
}
