package obscalc

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// MetaStore is the narrow persistence contract the Engine drives (spec
// §4.8, §5). A real implementation is SQL-backed; InMemoryStore below
// exists for tests and local runs.
type MetaStore interface {
	// PendingBatch returns up to n Pending entries ordered by
	// lastInvalidation ascending.
	PendingBatch(ctx context.Context, n int) ([]model.ObscalcMeta, error)
	// Lease attempts to move an entry to Calculating, succeeding only if
	// its stored Version still matches expectedVersion (CAS per spec §5).
	Lease(ctx context.Context, obsId model.ObservationId, expectedVersion uint64, leaseDuration time.Duration, now model.Timestamp) (model.ObscalcMeta, bool, error)
	// Complete stores a successful result, bumps lastUpdate, and compares
	// the lastInvalidation observed when the calculation started against
	// the row's current value: unchanged moves to Ready, advanced moves
	// back to Pending without discarding the just-written result (spec
	// §4.8).
	Complete(ctx context.Context, obsId model.ObservationId, result model.ObscalcResult, expectedVersion uint64, observedInvalidation, now model.Timestamp) (model.ObscalcMeta, error)
	// Fail records a failed attempt: bumps failureCount, schedules retryAt,
	// and moves the entry to Retry.
	Fail(ctx context.Context, obsId model.ObservationId, expectedVersion uint64, retryAt model.Timestamp) (model.ObscalcMeta, error)
	// ExpireLeases moves Calculating entries whose lease has passed back to
	// Pending, returning how many were reclaimed.
	ExpireLeases(ctx context.Context, now model.Timestamp) (int, error)
	// PromoteDueRetries moves Retry entries whose retryAt has passed to
	// Pending, returning how many were promoted.
	PromoteDueRetries(ctx context.Context, now model.Timestamp) (int, error)
	// Invalidate bumps lastInvalidation for obsId; if the entry is Ready or
	// Retry it also moves to Pending (spec §5 cancellation policy).
	Invalidate(ctx context.Context, obsId model.ObservationId, now model.Timestamp) error
	// Get returns the current entry for obsId.
	Get(ctx context.Context, obsId model.ObservationId) (model.ObscalcEntry, bool, error)
}

type memoryRow struct {
	meta   model.ObscalcMeta
	result model.ObscalcResult
	lease  time.Time // zero unless Calculating
}

// InMemoryStore is a mutex-guarded MetaStore used for tests and local runs.
type InMemoryStore struct {
	mu   sync.Mutex
	rows map[model.ObservationId]*memoryRow
}

// NewInMemoryStore builds an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[model.ObservationId]*memoryRow)}
}

// Seed inserts or overwrites a row, for test setup.
func (s *InMemoryStore) Seed(meta model.ObscalcMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[meta.ObservationId] = &memoryRow{meta: meta}
}

func (s *InMemoryStore) PendingBatch(ctx context.Context, n int) ([]model.ObscalcMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []model.ObscalcMeta
	for _, row := range s.rows {
		if row.meta.State == model.CalcPending {
			pending = append(pending, row.meta)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].LastInvalidation.Before(pending[j].LastInvalidation)
	})
	if len(pending) > n {
		pending = pending[:n]
	}
	return pending, nil
}

func (s *InMemoryStore) Lease(ctx context.Context, obsId model.ObservationId, expectedVersion uint64, leaseDuration time.Duration, now model.Timestamp) (model.ObscalcMeta, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[obsId]
	if !ok || row.meta.Version != expectedVersion || row.meta.State != model.CalcPending {
		if ok {
			return row.meta, false, nil
		}
		return model.ObscalcMeta{}, false, nil
	}
	row.meta.State = model.CalcCalculating
	row.meta.Version++
	row.lease = now.Time().Add(leaseDuration)
	return row.meta, true, nil
}

func (s *InMemoryStore) Complete(ctx context.Context, obsId model.ObservationId, result model.ObscalcResult, expectedVersion uint64, observedInvalidation, now model.Timestamp) (model.ObscalcMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[obsId]
	if !ok || row.meta.Version != expectedVersion {
		return model.ObscalcMeta{}, model.NewGenError(model.ErrInvalidArgument, "stale version on complete")
	}
	advanced := row.meta.LastInvalidation.After(observedInvalidation)
	row.result = result
	row.meta.LastUpdate = now
	row.meta.Version++
	row.meta.FailureCount = 0
	row.meta.RetryAt = model.NewAbsent[model.Timestamp]()
	row.lease = time.Time{}
	if advanced {
		row.meta.State = model.CalcPending
	} else {
		row.meta.State = model.CalcReady
	}
	return row.meta, nil
}

func (s *InMemoryStore) Fail(ctx context.Context, obsId model.ObservationId, expectedVersion uint64, retryAt model.Timestamp) (model.ObscalcMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[obsId]
	if !ok || row.meta.Version != expectedVersion {
		return model.ObscalcMeta{}, model.NewGenError(model.ErrInvalidArgument, "stale version on fail")
	}
	row.meta.State = model.CalcRetry
	row.meta.FailureCount++
	row.meta.RetryAt = model.NewPresent(retryAt)
	row.meta.Version++
	row.lease = time.Time{}
	return row.meta, nil
}

func (s *InMemoryStore) ExpireLeases(ctx context.Context, now model.Timestamp) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for _, row := range s.rows {
		if row.meta.State == model.CalcCalculating && !row.lease.IsZero() && now.Time().After(row.lease) {
			row.meta.State = model.CalcPending
			row.meta.Version++
			row.lease = time.Time{}
			expired++
		}
	}
	return expired, nil
}

func (s *InMemoryStore) PromoteDueRetries(ctx context.Context, now model.Timestamp) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	promoted := 0
	for _, row := range s.rows {
		if row.meta.State != model.CalcRetry {
			continue
		}
		retryAt, ok := row.meta.RetryAt.Get()
		if !ok || now.Before(retryAt) {
			continue
		}
		row.meta.State = model.CalcPending
		row.meta.Version++
		promoted++
	}
	return promoted, nil
}

func (s *InMemoryStore) Invalidate(ctx context.Context, obsId model.ObservationId, now model.Timestamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[obsId]
	if !ok {
		row = &memoryRow{meta: model.ObscalcMeta{ObservationId: obsId, State: model.CalcPending}}
		s.rows[obsId] = row
	}
	row.meta.LastInvalidation = now
	if row.meta.State == model.CalcReady || row.meta.State == model.CalcRetry {
		row.meta.State = model.CalcPending
		row.meta.Version++
	}
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, obsId model.ObservationId) (model.ObscalcEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[obsId]
	if !ok {
		return model.ObscalcEntry{}, false, nil
	}
	return model.ObscalcEntry{Meta: row.meta, Result: row.result}, true, nil
}
