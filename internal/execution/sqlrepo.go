package execution

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gemini-hlsw/odb-sequencer/internal/digest"
	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// SQLRepo is a pgx-backed Repo. It assumes an execution_atom table (one row
// per executed or in-progress atom, carrying the atom's original plan steps
// as JSON, recorded at execution time) joined against execution_step_result
// (one row per executed step, keyed by its configuration fingerprint and
// carrying its dataset's QA state, if any), plus the shared execution_event
// table model.ExecutionEvent rows are appended to.
type SQLRepo struct {
	pool *pgxpool.Pool
}

// NewSQLRepo opens a pool against connString.
func NewSQLRepo(ctx context.Context, connString string) (*SQLRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &SQLRepo{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (r *SQLRepo) Close() { r.pool.Close() }

func (r *SQLRepo) GetExecutedAtoms(ctx context.Context, obsId model.ObservationId) ([]digest.ExecutedAtom, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT atom_id, plan_steps, in_progress
		FROM execution_atom
		WHERE observation_id = $1
		ORDER BY atom_order ASC`, string(obsId))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var atoms []digest.ExecutedAtom
	for rows.Next() {
		var atomId string
		var planStepsJSON []byte
		var inProgress bool
		if err := rows.Scan(&atomId, &planStepsJSON, &inProgress); err != nil {
			return nil, err
		}
		var planSteps []model.Step
		if err := json.Unmarshal(planStepsJSON, &planSteps); err != nil {
			return nil, err
		}
		id, err := model.ParseAtomId(atomId)
		if err != nil {
			return nil, err
		}
		executedSteps, err := r.executedSteps(ctx, atomId)
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, digest.ExecutedAtom{
			Id:         id,
			PlanSteps:  planSteps,
			Executed:   executedSteps,
			InProgress: inProgress,
		})
	}
	return atoms, rows.Err()
}

func (r *SQLRepo) executedSteps(ctx context.Context, atomId string) ([]digest.ExecutedStep, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT step_fingerprint, qa_state
		FROM execution_step_result
		WHERE atom_id = $1
		ORDER BY executed_at ASC`, atomId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []digest.ExecutedStep
	for rows.Next() {
		var fingerprint string
		var qaState *string
		if err := rows.Scan(&fingerprint, &qaState); err != nil {
			return nil, err
		}
		step := digest.ExecutedStep{Fingerprint: model.StepFingerprint(fingerprint)}
		if qaState != nil {
			step.QA = model.NewPresent(model.QaState(*qaState))
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

func (r *SQLRepo) HasCompletionEvent(ctx context.Context, obsId model.ObservationId) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM execution_event
			WHERE observation_id = $1 AND tag = $2 AND seq_cmd = $3 AND stage = $4
		)`, string(obsId), string(model.EventSequence), string(model.CommandStop), string(model.StageCompleted)).Scan(&exists)
	return exists, err
}
