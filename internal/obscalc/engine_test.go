package obscalc

import (
	"context"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

func deterministicRand() *rand.Rand { return rand.New(rand.NewSource(1)) }

func TestEngineCalculatesPendingEntryAndMarksReady(t *testing.T) {
	store := NewInMemoryStore()
	now := model.MustTimestamp(time.Now())
	store.Seed(model.ObscalcMeta{
		ObservationId:    "o-1",
		ProgramId:        "p-1",
		State:            model.CalcPending,
		LastInvalidation: now,
		LastUpdate:       now,
	})

	var calls int32
	calc := func(ctx context.Context, meta model.ObscalcMeta) (model.ObscalcResult, error) {
		atomic.AddInt32(&calls, 1)
		return model.NewWithoutTargetResult(model.ExecutionDigest{}, model.WorkflowDefined), nil
	}

	cfg := DefaultConfig()
	cfg.TickInterval = 20 * time.Millisecond
	cfg.WorkerPoolSize = 1
	engine := New(cfg, store, calc, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, engine.Start(ctx))
	defer engine.Stop()

	require.Eventually(t, func() bool {
		entry, ok, _ := store.Get(context.Background(), "o-1")
		return ok && entry.Meta.State == model.CalcReady
	}, time.Second, 5*time.Millisecond)

	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}

func TestEngineRetriesOnCalculationFailure(t *testing.T) {
	store := NewInMemoryStore()
	now := model.MustTimestamp(time.Now())
	store.Seed(model.ObscalcMeta{
		ObservationId:    "o-2",
		ProgramId:        "p-1",
		State:            model.CalcPending,
		LastInvalidation: now,
		LastUpdate:       now,
	})

	calc := func(ctx context.Context, meta model.ObscalcMeta) (model.ObscalcResult, error) {
		return model.ObscalcResult{}, model.NewGenError(model.ErrItcError, "itc down")
	}

	cfg := DefaultConfig()
	cfg.TickInterval = 20 * time.Millisecond
	cfg.WorkerPoolSize = 1
	cfg.Backoff = BackoffConfig{Base: time.Millisecond, Max: 10 * time.Millisecond, JitterFraction: 0}
	engine := New(cfg, store, calc, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, engine.Start(ctx))
	defer engine.Stop()

	require.Eventually(t, func() bool {
		entry, ok, _ := store.Get(context.Background(), "o-2")
		return ok && entry.Meta.State == model.CalcRetry && entry.Meta.FailureCount == 1
	}, time.Second, 5*time.Millisecond)
}

func TestEngineInvalidationDuringCalculatingForcesRecompute(t *testing.T) {
	store := NewInMemoryStore()
	now := model.MustTimestamp(time.Now())
	store.Seed(model.ObscalcMeta{ObservationId: "o-3", State: model.CalcPending, LastInvalidation: now, LastUpdate: now})

	release := make(chan struct{})
	calc := func(ctx context.Context, meta model.ObscalcMeta) (model.ObscalcResult, error) {
		<-release
		return model.NewWithoutTargetResult(model.ExecutionDigest{}, model.WorkflowDefined), nil
	}

	cfg := DefaultConfig()
	cfg.TickInterval = 10 * time.Millisecond
	cfg.WorkerPoolSize = 1
	engine := New(cfg, store, calc, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, engine.Start(ctx))
	defer engine.Stop()

	require.Eventually(t, func() bool {
		entry, ok, _ := store.Get(context.Background(), "o-3")
		return ok && entry.Meta.State == model.CalcCalculating
	}, time.Second, 2*time.Millisecond)

	invalidatedAt := model.MustTimestamp(time.Now().Add(time.Millisecond))
	require.NoError(t, engine.Invalidate(context.Background(), "o-3", invalidatedAt))
	close(release)

	require.Eventually(t, func() bool {
		entry, ok, _ := store.Get(context.Background(), "o-3")
		return ok && entry.Meta.State == model.CalcPending
	}, time.Second, 5*time.Millisecond, "advanced lastInvalidation during Calculating must force a re-Pending after completion")
}

func TestBackoffDelayGrowsExponentiallyAndRespectsMax(t *testing.T) {
	cfg := BackoffConfig{Base: time.Second, Max: 10 * time.Second, JitterFraction: 0}
	rng := deterministicRand()
	assert.Equal(t, time.Second, cfg.Delay(1, rng))
	assert.Equal(t, 2*time.Second, cfg.Delay(2, rng))
	assert.Equal(t, 4*time.Second, cfg.Delay(3, rng))
	assert.Equal(t, 10*time.Second, cfg.Delay(10, rng), "must clamp to Max")
}
