package obscalc

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// PostgresStore is a pgx-backed MetaStore, the production counterpart to
// InMemoryStore. The obscalc_entry table is expected to carry one row per
// observation with columns matching model.ObscalcMeta plus a JSONB result
// column; schema management is out of scope here.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a pool against connString.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() { s.pool.Close() }

func (s *PostgresStore) PendingBatch(ctx context.Context, n int) ([]model.ObscalcMeta, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT program_id, observation_id, state, last_invalidation, last_update,
		       retry_at, failure_count, version
		FROM obscalc_entry
		WHERE state = $1
		ORDER BY last_invalidation ASC
		LIMIT $2`, int(model.CalcPending), n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ObscalcMeta
	for rows.Next() {
		meta, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Lease(ctx context.Context, obsId model.ObservationId, expectedVersion uint64, leaseDuration time.Duration, now model.Timestamp) (model.ObscalcMeta, bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE obscalc_entry
		SET state = $1, version = version + 1, lease_expires_at = $2
		WHERE observation_id = $3 AND version = $4 AND state = $5`,
		int(model.CalcCalculating), now.Time().Add(leaseDuration), string(obsId), expectedVersion, int(model.CalcPending))
	if err != nil {
		return model.ObscalcMeta{}, false, err
	}
	if tag.RowsAffected() == 0 {
		return model.ObscalcMeta{}, false, nil
	}
	meta, _, err := s.Get(ctx, obsId)
	return meta.Meta, err == nil, err
}

func (s *PostgresStore) Complete(ctx context.Context, obsId model.ObservationId, result model.ObscalcResult, expectedVersion uint64, observedInvalidation, now model.Timestamp) (model.ObscalcMeta, error) {
	encoded, err := json.Marshal(result)
	if err != nil {
		return model.ObscalcMeta{}, err
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE obscalc_entry
		SET result = $1,
		    last_update = $2,
		    failure_count = 0,
		    retry_at = NULL,
		    version = version + 1,
		    state = CASE WHEN last_invalidation > $3 THEN $4 ELSE $5 END
		WHERE observation_id = $6 AND version = $7
		RETURNING program_id, observation_id, state, last_invalidation, last_update, retry_at, failure_count, version`,
		encoded, now.Time(), observedInvalidation.Time(), int(model.CalcPending), int(model.CalcReady), string(obsId), expectedVersion)
	return scanMeta(row)
}

func (s *PostgresStore) Fail(ctx context.Context, obsId model.ObservationId, expectedVersion uint64, retryAt model.Timestamp) (model.ObscalcMeta, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE obscalc_entry
		SET state = $1, failure_count = failure_count + 1, retry_at = $2, version = version + 1
		WHERE observation_id = $3 AND version = $4
		RETURNING program_id, observation_id, state, last_invalidation, last_update, retry_at, failure_count, version`,
		int(model.CalcRetry), retryAt.Time(), string(obsId), expectedVersion)
	return scanMeta(row)
}

func (s *PostgresStore) ExpireLeases(ctx context.Context, now model.Timestamp) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE obscalc_entry
		SET state = $1, version = version + 1, lease_expires_at = NULL
		WHERE state = $2 AND lease_expires_at < $3`,
		int(model.CalcPending), int(model.CalcCalculating), now.Time())
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) PromoteDueRetries(ctx context.Context, now model.Timestamp) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE obscalc_entry
		SET state = $1, version = version + 1
		WHERE state = $2 AND retry_at <= $3`,
		int(model.CalcPending), int(model.CalcRetry), now.Time())
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) Invalidate(ctx context.Context, obsId model.ObservationId, now model.Timestamp) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE obscalc_entry
		SET last_invalidation = $1,
		    state = CASE WHEN state IN ($2, $3) THEN $4 ELSE state END,
		    version = CASE WHEN state IN ($2, $3) THEN version + 1 ELSE version END
		WHERE observation_id = $5`,
		now.Time(), int(model.CalcReady), int(model.CalcRetry), int(model.CalcPending), string(obsId))
	return err
}

func (s *PostgresStore) Get(ctx context.Context, obsId model.ObservationId) (model.ObscalcEntry, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT program_id, observation_id, state, last_invalidation, last_update, retry_at, failure_count, version, result
		FROM obscalc_entry WHERE observation_id = $1`, string(obsId))

	var meta model.ObscalcMeta
	var encodedResult []byte
	var programId, observationId string
	var state int
	var lastInvalidation, lastUpdate time.Time
	var retryAt *time.Time
	err := row.Scan(&programId, &observationId, &state, &lastInvalidation, &lastUpdate, &retryAt, &meta.FailureCount, &meta.Version, &encodedResult)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ObscalcEntry{}, false, nil
	}
	if err != nil {
		return model.ObscalcEntry{}, false, err
	}
	meta.ProgramId = model.ProgramId(programId)
	meta.ObservationId = model.ObservationId(observationId)
	meta.State = model.CalculationState(state)
	meta.LastInvalidation = model.MustTimestamp(lastInvalidation)
	meta.LastUpdate = model.MustTimestamp(lastUpdate)
	if retryAt != nil {
		meta.RetryAt = model.NewPresent(model.MustTimestamp(*retryAt))
	}
	var result model.ObscalcResult
	if len(encodedResult) > 0 {
		if err := json.Unmarshal(encodedResult, &result); err != nil {
			return model.ObscalcEntry{}, false, err
		}
	}
	return model.ObscalcEntry{Meta: meta, Result: result}, true, nil
}

// rowScanner abstracts over pgx.Row and pgx.Rows, both of which expose Scan.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeta(row rowScanner) (model.ObscalcMeta, error) {
	var meta model.ObscalcMeta
	var programId, observationId string
	var state int
	var lastInvalidation, lastUpdate time.Time
	var retryAt *time.Time
	if err := row.Scan(&programId, &observationId, &state, &lastInvalidation, &lastUpdate, &retryAt, &meta.FailureCount, &meta.Version); err != nil {
		return model.ObscalcMeta{}, err
	}
	meta.ProgramId = model.ProgramId(programId)
	meta.ObservationId = model.ObservationId(observationId)
	meta.State = model.CalculationState(state)
	meta.LastInvalidation = model.MustTimestamp(lastInvalidation)
	meta.LastUpdate = model.MustTimestamp(lastUpdate)
	if retryAt != nil {
		meta.RetryAt = model.NewPresent(model.MustTimestamp(*retryAt))
	}
	return meta, nil
}
