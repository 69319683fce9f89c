// Package workflow implements the Workflow Evaluator (C7): derives an
// observation's workflow state and legal transitions from validation,
// proposal status, and completion (spec §4.7).
package workflow

import (
	"fmt"

	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// ValidationError is one generation-time error surfaced to the evaluator.
// Only its Tag is consulted; "proposal not accepted" is distinguished from
// all other validation failures (spec §4.7 rule 4).
type ValidationError struct {
	Tag model.ErrorTag
}

// Input bundles everything the evaluator consults, in the order its rules
// are checked.
type Input struct {
	HasCompletionEvent bool
	HasExecutedStep    bool
	ExplicitlyInactive bool
	ValidationErrors   []ValidationError
	ProposalAccepted   bool
	UserPromotedReady  bool
}

func (in Input) soleErrorIsProposalNotAccepted() bool {
	return len(in.ValidationErrors) == 1 && in.ValidationErrors[0].Tag == model.ErrNotAuthorized
}

// Evaluate derives the current WorkflowState from in, plus the set of
// states a user may legally request a transition to next.
func Evaluate(in Input) (model.WorkflowState, []model.WorkflowState, error) {
	state := evaluateState(in)
	transitions, err := ValidTransitionsFrom(state, in.ProposalAccepted)
	if err != nil {
		return "", nil, err
	}
	return state, transitions, nil
}

func evaluateState(in Input) model.WorkflowState {
	switch {
	case in.HasCompletionEvent:
		return model.WorkflowCompleted
	case in.HasExecutedStep:
		return model.WorkflowOngoing
	case in.ExplicitlyInactive:
		return model.WorkflowInactive
	case len(in.ValidationErrors) > 0:
		if in.soleErrorIsProposalNotAccepted() {
			return model.WorkflowUnapproved
		}
		return model.WorkflowUndefined
	case in.ProposalAccepted && in.UserPromotedReady:
		return model.WorkflowReady
	default:
		return model.WorkflowDefined
	}
}

// ValidTransitionsFrom returns the states a user may request moving to from
// from (spec §4.7's transition-legality table).
func ValidTransitionsFrom(from model.WorkflowState, proposalAccepted bool) ([]model.WorkflowState, error) {
	switch from {
	case model.WorkflowOngoing:
		return []model.WorkflowState{model.WorkflowInactive}, nil
	case model.WorkflowInactive:
		return []model.WorkflowState{model.WorkflowOngoing}, nil
	case model.WorkflowCompleted:
		return nil, nil
	case model.WorkflowDefined:
		if proposalAccepted {
			return []model.WorkflowState{model.WorkflowInactive, model.WorkflowReady}, nil
		}
		return []model.WorkflowState{model.WorkflowInactive}, nil
	case model.WorkflowReady:
		return []model.WorkflowState{model.WorkflowInactive, model.WorkflowDefined}, nil
	case model.WorkflowUndefined, model.WorkflowUnapproved:
		return nil, nil
	default:
		return nil, fmt.Errorf("workflow: unrecognized state %q", from)
	}
}

// RequestTransition validates a user-requested from->to move, returning
// InvalidWorkflowTransition if it is not among the legal transitions.
func RequestTransition(from, to model.WorkflowState, proposalAccepted bool) error {
	legal, err := ValidTransitionsFrom(from, proposalAccepted)
	if err != nil {
		return err
	}
	for _, s := range legal {
		if s == to {
			return nil
		}
	}
	return model.NewGenError(model.ErrInvalidWorkflowTrans, fmt.Sprintf("%s -> %s is not a legal transition", from, to)).
		WithData("from", from).
		WithData("to", to)
}
