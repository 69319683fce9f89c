package paramsresolver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// SQLRepos is a pgx-backed implementation of TargetRepo, ObservationRepo,
// and ProposalRepo. It is deliberately minimal: the real target/observation
// data model (coordinates, proper motion, program membership, proposal
// review state...) belongs to the ODB's GraphQL/SQL layer, which is an
// external collaborator out of scope for this module (spec §1). This type
// exists so a deployment with a reachable database can run obscalcd against
// real rows rather than only fakes in tests.
type SQLRepos struct {
	pool *pgxpool.Pool
}

// NewSQLRepos opens a pool against connString and returns it as all three
// resolver repository interfaces.
func NewSQLRepos(ctx context.Context, connString string) (*SQLRepos, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &SQLRepos{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (r *SQLRepos) Close() { r.pool.Close() }

func (r *SQLRepos) GetTarget(ctx context.Context, id model.TargetId) (Target, bool, error) {
	var targetId, profile string
	var sed *string
	row := r.pool.QueryRow(ctx, `SELECT id, profile, sed FROM target WHERE id = $1`, string(id))
	err := row.Scan(&targetId, &profile, &sed)
	if errors.Is(err, pgx.ErrNoRows) {
		return Target{}, false, nil
	}
	if err != nil {
		return Target{}, false, err
	}
	t := Target{Id: model.TargetId(targetId), Profile: model.SourceProfile(profile)}
	if sed == nil {
		t.Sed = model.NewNull[string]()
	} else {
		t.Sed = model.NewPresent(*sed)
	}
	return t, true, nil
}

func (r *SQLRepos) GetObservation(ctx context.Context, id model.ObservationId) (ObservationData, bool, error) {
	var (
		data                                          ObservationData
		programId                                     string
		modeJSON, constraintsJSON, exposureJSON       []byte
		acquisitionJSON                                []byte
		asterismJSON                                   []byte
		band                                           string
	)
	row := r.pool.QueryRow(ctx, `
		SELECT program_id, mode, constraints, exposure_time_mode, acquisition, asterism_targets, band
		FROM observation WHERE id = $1`, string(id))
	err := row.Scan(&programId, &modeJSON, &constraintsJSON, &exposureJSON, &acquisitionJSON, &asterismJSON, &band)
	if errors.Is(err, pgx.ErrNoRows) {
		return ObservationData{}, false, nil
	}
	if err != nil {
		return ObservationData{}, false, err
	}

	data.ProgramId = model.ProgramId(programId)
	data.Band = model.Band(band)
	if err := json.Unmarshal(modeJSON, &data.Mode); err != nil {
		return ObservationData{}, false, err
	}
	if err := json.Unmarshal(constraintsJSON, &data.Constraints); err != nil {
		return ObservationData{}, false, err
	}
	if err := json.Unmarshal(exposureJSON, &data.ExposureTimeMode); err != nil {
		return ObservationData{}, false, err
	}
	if len(acquisitionJSON) > 0 {
		if err := json.Unmarshal(acquisitionJSON, &data.Acquisition); err != nil {
			return ObservationData{}, false, err
		}
	}
	var targetIds []string
	if err := json.Unmarshal(asterismJSON, &targetIds); err != nil {
		return ObservationData{}, false, err
	}
	data.AsterismTargets = make([]model.TargetId, len(targetIds))
	for i, t := range targetIds {
		data.AsterismTargets[i] = model.TargetId(t)
	}
	return data, true, nil
}

func (r *SQLRepos) IsAuthorized(ctx context.Context, programId model.ProgramId) (bool, error) {
	var accepted bool
	err := r.pool.QueryRow(ctx, `SELECT proposal_accepted FROM program WHERE id = $1`, string(programId)).Scan(&accepted)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return accepted, nil
}
