// Package model defines the core data types shared across the sequence
// generator and the obscalc engine: identifiers, timestamps, interval maps,
// generator parameters, atoms/steps, execution events and the obscalc
// lifecycle types.
package model

import (
	"fmt"

	"github.com/google/uuid"
)

// ObservationId identifies a single observation row.
type ObservationId string

// ProgramId identifies a science program.
type ProgramId string

// TargetId identifies a target within an asterism.
type TargetId string

// VisitId identifies one occupancy of an observation.
type VisitId string

// DatasetId identifies a single recorded dataset.
type DatasetId string

// AtomId is a UUID minted by the generator; fresh on every generation unless
// preserved by the §4.5 merge for an in-progress atom.
type AtomId uuid.UUID

// StepId is a UUID minted by the generator alongside its owning atom.
type StepId uuid.UUID

// NewAtomId mints a fresh, random atom identifier.
func NewAtomId() AtomId { return AtomId(uuid.New()) }

// NewStepId mints a fresh, random step identifier.
func NewStepId() StepId { return StepId(uuid.New()) }

// ParseAtomId parses a serialized atom identifier, e.g. one persisted by an
// execution-history store.
func ParseAtomId(s string) (AtomId, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return AtomId{}, fmt.Errorf("model: invalid atom id %q: %w", s, err)
	}
	return AtomId(id), nil
}

func (id AtomId) String() string { return uuid.UUID(id).String() }
func (id StepId) String() string { return uuid.UUID(id).String() }
