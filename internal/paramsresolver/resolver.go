// Package paramsresolver implements the Params Resolver (C1): it gathers an
// observation's generator inputs into a fully validated model.GenParams in
// one pass, against narrow repository interfaces (in the style of the
// teacher's own small Fetcher interface fronting an external resource,
// engine/internal/crawler.Fetcher) so the GraphQL/SQL layers they front can
// be substituted by fakes in tests.
package paramsresolver

import (
	"context"
	"fmt"

	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// Target is the subset of target data the resolver needs.
type Target struct {
	Id      model.TargetId
	Profile model.SourceProfile
	Sed     model.Nullable[string]
}

// ObservationData is the subset of observation data the resolver needs.
type ObservationData struct {
	ProgramId        model.ProgramId
	Mode             model.ObservingMode
	Constraints      model.Constraints
	ExposureTimeMode model.ExposureTimeMode
	Acquisition      model.AcquisitionOverrides
	AsterismTargets  []model.TargetId
	Band             model.Band
}

// TargetRepo resolves target records.
type TargetRepo interface {
	GetTarget(ctx context.Context, id model.TargetId) (Target, bool, error)
}

// ObservationRepo resolves observation records.
type ObservationRepo interface {
	GetObservation(ctx context.Context, id model.ObservationId) (ObservationData, bool, error)
}

// ProposalRepo authorizes access to a program's observations.
type ProposalRepo interface {
	IsAuthorized(ctx context.Context, programId model.ProgramId) (bool, error)
}

// Resolver gathers GenParams from its three collaborators. It holds no
// mutable state and performs no writes: callers share a single instance
// freely (spec §4.1: "the resolver is pure with respect to its inputs").
type Resolver struct {
	Targets      TargetRepo
	Observations ObservationRepo
	Proposals    ProposalRepo
}

// New builds a Resolver over the given repositories.
func New(targets TargetRepo, observations ObservationRepo, proposals ProposalRepo) *Resolver {
	return &Resolver{Targets: targets, Observations: observations, Proposals: proposals}
}

// Resolve gathers and validates observationId's generator inputs. The
// returned error is always a *model.GenError tagged per spec §4.1.
func (r *Resolver) Resolve(ctx context.Context, observationId model.ObservationId) (model.GenParams, error) {
	obs, ok, err := r.Observations.GetObservation(ctx, observationId)
	if err != nil {
		return model.GenParams{}, model.NewGenError(model.ErrItcError, fmt.Sprintf("loading observation: %v", err))
	}
	if !ok {
		return model.GenParams{}, model.NewGenError(model.ErrMissingMode, "observation not found").
			WithData("observation_id", observationId)
	}

	authorized, err := r.Proposals.IsAuthorized(ctx, obs.ProgramId)
	if err != nil {
		return model.GenParams{}, model.NewGenError(model.ErrNotAuthorized, err.Error())
	}
	if !authorized {
		return model.GenParams{}, model.NewGenError(model.ErrNotAuthorized, "program not authorized").
			WithData("program_id", obs.ProgramId)
	}

	if obs.Mode.Tag == "" {
		return model.GenParams{}, model.NewGenError(model.ErrMissingMode, "observation has no instrument mode")
	}

	if len(obs.AsterismTargets) == 0 {
		return model.GenParams{}, model.NewGenError(model.ErrInvalidAsterism, "asterism is empty")
	}

	// A deleted asterism member is dropped, not fatal: the generator
	// proceeds with the survivors, unchanged from the single-target case
	// (spec §8 scenario E). Only when every member is gone does the
	// asterism become unusable (scenario F).
	asterism := make([]model.AsterismMember, 0, len(obs.AsterismTargets))
	for _, targetId := range obs.AsterismTargets {
		target, ok, err := r.Targets.GetTarget(ctx, targetId)
		if err != nil {
			return model.GenParams{}, model.NewGenError(model.ErrItcError, fmt.Sprintf("loading target: %v", err))
		}
		if !ok {
			continue
		}
		if target.Sed.IsAbsent() || target.Sed.IsNull() {
			return model.GenParams{}, model.NewGenError(model.ErrMissingSed, "target has no SED").
				WithData("target_id", targetId)
		}
		asterism = append(asterism, model.AsterismMember{
			TargetId: target.Id,
			Profile:  target.Profile,
			Band:     obs.Band,
			Sed:      target.Sed,
		})
	}
	if len(asterism) == 0 {
		return model.GenParams{}, model.NewGenError(model.ErrMissingTarget, "all asterism targets are deleted").
			WithData("observation_id", observationId)
	}

	if err := validateExposureTimeMode(obs.ExposureTimeMode); err != nil {
		return model.GenParams{}, err
	}

	return model.GenParams{
		ObservationId:    observationId,
		ProgramId:        obs.ProgramId,
		Mode:             obs.Mode,
		Asterism:         asterism,
		Constraints:      obs.Constraints,
		ExposureTimeMode: obs.ExposureTimeMode,
		Acquisition:      obs.Acquisition,
	}, nil
}

func validateExposureTimeMode(m model.ExposureTimeMode) error {
	switch m.Tag {
	case model.SignalToNoiseTag:
		if m.SignalToNoise <= 0 {
			return model.NewGenError(model.ErrInvalidExposureTimeMode, "signal-to-noise must be positive")
		}
	case model.TimeAndCountTag:
		if m.ExposureTimeMs <= 0 || m.ExposureCount <= 0 {
			return model.NewGenError(model.ErrInvalidExposureTimeMode, "exposure time and count must be positive")
		}
	default:
		return model.NewGenError(model.ErrInvalidExposureTimeMode, "unrecognized exposure-time mode")
	}
	return nil
}
