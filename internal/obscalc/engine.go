// Package obscalc implements the Obscalc Engine (C8): a per-observation
// background scheduler that tracks the calculation lifecycle, enforces
// retry backoff, and persists results through a MetaStore.
package obscalc

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gemini-hlsw/odb-sequencer/internal/telemetry/logging"
	"github.com/gemini-hlsw/odb-sequencer/internal/telemetry/metrics"
	"github.com/gemini-hlsw/odb-sequencer/internal/telemetry/tracing"
	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// Calculator runs C1-C7 for one observation and returns the result to
// persist, or an error. A *model.GenError's IsTransient() distinguishes a
// Retry-worthy failure from a terminal one; callers that return a plain
// error are treated as transient.
type Calculator func(ctx context.Context, meta model.ObscalcMeta) (model.ObscalcResult, error)

// Config tunes the Engine's worker pool and timing.
type Config struct {
	WorkerPoolSize int
	TickInterval   time.Duration
	LeaseDuration  time.Duration
	BatchSize      int
	Backoff        BackoffConfig
}

// DefaultConfig is a reasonable baseline for a single-process deployment.
func DefaultConfig() Config {
	return Config{
		WorkerPoolSize: 4,
		TickInterval:   2 * time.Second,
		LeaseDuration:  30 * time.Second,
		BatchSize:      16,
		Backoff:        DefaultBackoffConfig(),
	}
}

// Engine is the obscalc background scheduler (spec §4.8, §5).
type Engine struct {
	cfg       Config
	store     MetaStore
	calculate Calculator
	log       logging.Logger
	metrics   *metrics.Registry

	started atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	randMu sync.Mutex
	rand   *rand.Rand
}

// New builds an Engine. log and metricsReg may be nil.
func New(cfg Config, store MetaStore, calculate Calculator, log logging.Logger, metricsReg *metrics.Registry) *Engine {
	if log == nil {
		log = logging.New(nil)
	}
	return &Engine{
		cfg:       cfg,
		store:     store,
		calculate: calculate,
		log:       log,
		metrics:   metricsReg,
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start launches the worker pool and the periodic tick goroutine. It
// returns immediately; call Stop (or cancel ctx) for a graceful shutdown.
func (e *Engine) Start(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	work := make(chan model.ObscalcMeta, e.cfg.BatchSize)

	e.wg.Add(1)
	go e.tickLoop(runCtx, work)

	for i := 0; i < e.cfg.WorkerPoolSize; i++ {
		e.wg.Add(1)
		go e.worker(runCtx, work)
	}
	return nil
}

// Stop cancels all workers cooperatively and waits for in-flight work to
// finish (spec §4.8: "in-flight writes complete or are abandoned based on
// whether the result is serialized" — here in-flight calculations always
// run to completion before a worker observes cancellation).
func (e *Engine) Stop() {
	if !e.started.CompareAndSwap(true, false) {
		return
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
}

// Invalidate records an invalidation for obsId, driven by upstream events
// (observation edits, target edits, execution events, ITC cache flushes,
// proposal acceptance).
func (e *Engine) Invalidate(ctx context.Context, obsId model.ObservationId, now model.Timestamp) error {
	return e.store.Invalidate(ctx, obsId, now)
}

func (e *Engine) tickLoop(ctx context.Context, work chan<- model.ObscalcMeta) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(work)
			return
		case <-ticker.C:
			e.tick(ctx, work)
		}
	}
}

func (e *Engine) tick(ctx context.Context, work chan<- model.ObscalcMeta) {
	now := nowTimestamp()

	if n, err := e.store.ExpireLeases(ctx, now); err != nil {
		e.log.ErrorCtx(ctx, "expire leases failed", "error", err)
	} else if n > 0 && e.metrics != nil {
		e.metrics.LeaseExpirations.Inc()
	}

	if _, err := e.store.PromoteDueRetries(ctx, now); err != nil {
		e.log.ErrorCtx(ctx, "promote due retries failed", "error", err)
	}

	batch, err := e.store.PendingBatch(ctx, e.cfg.BatchSize)
	if err != nil {
		e.log.ErrorCtx(ctx, "load pending batch failed", "error", err)
		return
	}
	for _, meta := range batch {
		select {
		case work <- meta:
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) worker(ctx context.Context, work <-chan model.ObscalcMeta) {
	defer e.wg.Done()
	for meta := range work {
		e.processEntry(ctx, meta)
	}
}

func (e *Engine) processEntry(ctx context.Context, meta model.ObscalcMeta) {
	ctx, span := tracing.StartSpan(ctx, "obscalc", "processEntry")
	defer span.End()

	now := nowTimestamp()
	leased, ok, err := e.store.Lease(ctx, meta.ObservationId, meta.Version, e.cfg.LeaseDuration, now)
	if err != nil {
		e.log.ErrorCtx(ctx, "lease failed", "observation_id", meta.ObservationId, "error", err)
		return
	}
	if !ok {
		return // another worker won the race, or the entry moved on
	}
	if e.metrics != nil {
		e.metrics.CalculatingGauge.Set(1)
	}

	start := time.Now()
	result, calcErr := e.calculate(ctx, leased)
	if e.metrics != nil {
		e.metrics.CalcDuration.Observe(time.Since(start).Seconds())
	}

	if calcErr != nil {
		var genErr *model.GenError
		if errors.As(calcErr, &genErr) && !genErr.IsTransient() {
			e.handleSuccess(ctx, leased, model.NewErrorResult(genErr, model.WorkflowUndefined))
			return
		}
		e.handleFailure(ctx, leased, calcErr)
		return
	}
	e.handleSuccess(ctx, leased, result)
}

func (e *Engine) handleSuccess(ctx context.Context, meta model.ObscalcMeta, result model.ObscalcResult) {
	now := nowTimestamp()
	if _, err := e.store.Complete(ctx, meta.ObservationId, result, meta.Version, meta.LastInvalidation, now); err != nil {
		e.log.ErrorCtx(ctx, "complete failed", "observation_id", meta.ObservationId, "error", err)
		return
	}
	if e.metrics != nil {
		e.metrics.CalcOutcomes.Inc("success")
	}
}

func (e *Engine) handleFailure(ctx context.Context, meta model.ObscalcMeta, err error) {
	failureCount := meta.FailureCount + 1
	delay := e.backoffDelay(failureCount)
	retryAt := nowTimestamp().Add(delay)

	if _, ferr := e.store.Fail(ctx, meta.ObservationId, meta.Version, retryAt); ferr != nil {
		e.log.ErrorCtx(ctx, "fail transition failed", "observation_id", meta.ObservationId, "error", ferr)
	}
	if e.metrics != nil {
		e.metrics.CalcOutcomes.Inc("failure")
		e.metrics.RetryGauge.Set(1)
	}
	e.log.WarnCtx(ctx, "calculation failed, scheduled retry", "observation_id", meta.ObservationId, "error", err, "retry_at", retryAt.String())
}

func (e *Engine) backoffDelay(failureCount int) time.Duration {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	return e.cfg.Backoff.Delay(failureCount, e.rand)
}

func nowTimestamp() model.Timestamp {
	return model.MustTimestamp(time.Now())
}
