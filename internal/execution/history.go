// Package execution supplies the generator with an observation's execution
// history: the executed atoms the next-atom merge (C5) needs, and whether a
// sequence-completion event has ever been recorded for the workflow
// evaluator (C7). The event stream this is built from is appended to by the
// instrument sequencer, an external collaborator out of scope for this
// module (spec §1); Repo is the narrow boundary the generator consumes it
// through, in the same style as paramsresolver's repository interfaces.
package execution

import (
	"context"

	"github.com/gemini-hlsw/odb-sequencer/internal/digest"
	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// Repo resolves the execution history of one observation.
type Repo interface {
	// GetExecutedAtoms returns obsId's executed atoms in temporal order,
	// the shape internal/digest.Merge consumes directly.
	GetExecutedAtoms(ctx context.Context, obsId model.ObservationId) ([]digest.ExecutedAtom, error)
	// HasCompletionEvent reports whether a sequence-stop/completed event has
	// ever been recorded for obsId (spec §4.7 rule 1).
	HasCompletionEvent(ctx context.Context, obsId model.ObservationId) (bool, error)
}

// AnyStepExecuted reports whether any atom in executed has at least one
// executed step, the HasExecutedStep signal workflow.Evaluate needs (spec
// §4.7 rule 2).
func AnyStepExecuted(executed []digest.ExecutedAtom) bool {
	for _, a := range executed {
		if len(a.Executed) > 0 {
			return true
		}
	}
	return false
}

// EmptyRepo is a Repo with no recorded history, for deployments with no
// execution-event store configured: every observation looks freshly
// generated, never Ongoing or Completed.
type EmptyRepo struct{}

func (EmptyRepo) GetExecutedAtoms(context.Context, model.ObservationId) ([]digest.ExecutedAtom, error) {
	return nil, nil
}

func (EmptyRepo) HasCompletionEvent(context.Context, model.ObservationId) (bool, error) {
	return false, nil
}
