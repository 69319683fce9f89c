// Package itc implements the integration-time client cache (C2): a
// memoizing, single-flighted façade over an external integration-time
// calculator.
package itc

import (
	"context"

	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// Input bundles everything the ITC needs: asterism, observing mode,
// constraints, and exposure-time mode (spec §4.2).
type Input struct {
	Asterism         []model.AsterismMember
	Mode             model.ObservingMode
	Constraints      model.Constraints
	ExposureTimeMode model.ExposureTimeMode
}

// Result is the outcome of one ITC call: the computed integration time plus
// the server/data version it was computed under, and whether the source was
// flagged too bright for the requested exposure (spec §4.4 acquisition
// rule).
type Result struct {
	IntegrationTime model.IntegrationTime
	Versions        model.ItcVersions
	TooBright       bool
}

// GraphsResult is the outcome of a spectroscopyGraphs call; its internal
// plotting payload is an external-collaborator concern and kept opaque.
type GraphsResult struct {
	Versions model.ItcVersions
	Payload  []byte
}

// Client is the external ITC service contract (spec §6): four operations.
type Client interface {
	Spectroscopy(ctx context.Context, input Input) (Result, error)
	Imaging(ctx context.Context, input Input) (Result, error)
	SpectroscopyGraphs(ctx context.Context, input Input) (GraphsResult, error)
	Versions(ctx context.Context) (model.ItcVersions, error)
}
