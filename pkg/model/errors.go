package model

import "fmt"

// ErrorTag is a closed, machine-readable error discriminator that stays
// stable across releases (spec §7: "tag is machine-readable and stable").
type ErrorTag string

const (
	ErrNotAuthorized           ErrorTag = "not_authorized"
	ErrInvalidTarget           ErrorTag = "invalid_target"
	ErrInvalidAsterism         ErrorTag = "invalid_asterism"
	ErrMissingTarget           ErrorTag = "missing_target"
	ErrMissingMode             ErrorTag = "missing_mode"
	ErrMissingSed              ErrorTag = "missing_sed"
	ErrInvalidExposureTimeMode ErrorTag = "invalid_exposure_time_mode"
	ErrItcError                ErrorTag = "itc_error"
	ErrSequenceUnavailable     ErrorTag = "sequence_unavailable"
	ErrSequenceTooLong         ErrorTag = "sequence_too_long"
	ErrInvalidWorkflowTrans    ErrorTag = "invalid_workflow_transition"
	ErrInvalidArgument         ErrorTag = "invalid_argument"
	ErrNoData                  ErrorTag = "no_data"
	ErrNotOnSlit               ErrorTag = "not_on_slit"
)

// GenError is the uniform error envelope produced by the generator and its
// collaborators. Detail is a human-readable message; Data carries
// machine-consumable context (e.g. the offending TargetId).
type GenError struct {
	Tag    ErrorTag
	Detail string
	Data   map[string]any
}

func (e *GenError) Error() string {
	if e.Detail == "" {
		return string(e.Tag)
	}
	return fmt.Sprintf("%s: %s", e.Tag, e.Detail)
}

// NewGenError builds a GenError with the given tag and detail message.
func NewGenError(tag ErrorTag, detail string) *GenError {
	return &GenError{Tag: tag, Detail: detail}
}

// WithData attaches machine-readable context and returns the receiver for
// chaining.
func (e *GenError) WithData(key string, value any) *GenError {
	if e.Data == nil {
		e.Data = make(map[string]any)
	}
	e.Data[key] = value
	return e
}

// IsTransient reports whether the error kind should trigger an obscalc
// Retry rather than a terminal Error result (spec §7 propagation policy).
func (e *GenError) IsTransient() bool {
	return e.Tag == ErrItcError
}
