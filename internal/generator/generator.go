// Package generator composes the params resolver (C1), ITC cache (C2),
// static config builder (C3), protosequence generator (C4), execution
// history and next-atom merge (C5), time estimator (C6), and workflow
// evaluator (C7) into the single obscalc.Calculator the background engine
// (C8) drives per observation. The freshly generated science protosequence
// is never digested directly: it is always merged against the
// observation's execution history first, so the digest reflects what is
// left to do and the workflow state reflects what has actually run.
package generator

import (
	"context"
	"fmt"
	"math"

	"github.com/gemini-hlsw/odb-sequencer/internal/digest"
	"github.com/gemini-hlsw/odb-sequencer/internal/execution"
	"github.com/gemini-hlsw/odb-sequencer/internal/itc"
	"github.com/gemini-hlsw/odb-sequencer/internal/paramsresolver"
	"github.com/gemini-hlsw/odb-sequencer/internal/protoseq"
	"github.com/gemini-hlsw/odb-sequencer/internal/staticconfig"
	"github.com/gemini-hlsw/odb-sequencer/internal/timeest"
	"github.com/gemini-hlsw/odb-sequencer/internal/workflow"
	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// acquisitionExposureFraction scales the science exposure down for the
// acquisition baseline step; a dedicated ITC acquisition endpoint is out of
// scope, so acquisition timing is derived from the science result.
const acquisitionExposureFraction = 0.1

// Generator ties C1-C7 together into one per-observation calculation,
// grounded on the obscalc engine's Calculator contract
// (internal/obscalc.Calculator).
type Generator struct {
	Resolver    *paramsresolver.Resolver
	Itc         *itc.Cache
	History     execution.Repo
	TimeTable   *timeest.Table
	FutureLimit int
}

// New builds a Generator. A zero TimeTable defaults to timeest.DefaultTable();
// a nil History defaults to execution.EmptyRepo{}, under which every
// observation looks freshly generated.
func New(resolver *paramsresolver.Resolver, itcCache *itc.Cache, history execution.Repo, timeTable *timeest.Table, futureLimit int) *Generator {
	if timeTable == nil {
		timeTable = timeest.DefaultTable()
	}
	if history == nil {
		history = execution.EmptyRepo{}
	}
	return &Generator{Resolver: resolver, Itc: itcCache, History: history, TimeTable: timeTable, FutureLimit: futureLimit}
}

// Calculate implements obscalc.Calculator: it resolves, sequences, and
// digests one observation, returning an error-tagged result rather than a
// plain error whenever the failure is itself meaningful generator output
// (spec §7's "errors are data" propagation policy).
func (g *Generator) Calculate(ctx context.Context, meta model.ObscalcMeta) (model.ObscalcResult, error) {
	params, err := g.Resolver.Resolve(ctx, meta.ObservationId)
	if err != nil {
		genErr, ok := err.(*model.GenError)
		if !ok {
			return model.ObscalcResult{}, err
		}
		state := workflowStateForError(genErr)
		return model.NewErrorResult(genErr, state), nil
	}

	if _, err := staticconfig.Build(params); err != nil {
		return model.ObscalcResult{}, fmt.Errorf("generator: static config: %w", err)
	}

	itcResult, err := g.resolveIntegrationTime(ctx, params)
	if err != nil {
		genErr, ok := err.(*model.GenError)
		if !ok || genErr.IsTransient() {
			return model.ObscalcResult{}, err
		}
		return model.NewErrorResult(genErr, workflowStateForError(genErr)), nil
	}

	proto, err := buildProtosequence(params, itcResult)
	if err != nil {
		genErr, ok := err.(*model.GenError)
		if !ok {
			return model.ObscalcResult{}, err
		}
		return model.NewErrorResult(genErr, workflowStateForError(genErr)), nil
	}

	instrument := instrumentNameFor(params.Mode.Tag)
	stepTime := func(s model.Step) model.CategorizedTime { return g.TimeTable.CategorizedStepTime(instrument, s) }

	acquisition, err := model.TakeAtoms(proto.Acquisition, 1)
	if err != nil {
		return model.ObscalcResult{}, fmt.Errorf("generator: acquisition atoms: %w", err)
	}

	executed, err := g.History.GetExecutedAtoms(ctx, meta.ObservationId)
	if err != nil {
		return model.ObscalcResult{}, fmt.Errorf("generator: execution history: %w", err)
	}
	scienceSource := protoseq.NewTruncatingStream(proto.Science, scienceStreamCap(g.FutureLimit))
	mergeResult, err := digest.Merge(scienceSource, executed, mergeWindow(g.FutureLimit))
	if err != nil {
		return genErrorOrBubble(err)
	}
	science := mergeResult.PossibleFuture
	if mergeResult.NextAtom != nil {
		science = append([]model.Atom{*mergeResult.NextAtom}, science...)
	}

	executionDigest := digest.ExecutionDigestOf(0, acquisition, science, stepTime)

	hasCompletion, err := g.History.HasCompletionEvent(ctx, meta.ObservationId)
	if err != nil {
		return model.ObscalcResult{}, fmt.Errorf("generator: completion lookup: %w", err)
	}

	state, _, err := workflow.Evaluate(workflow.Input{
		ProposalAccepted:   true,
		HasExecutedStep:    execution.AnyStepExecuted(executed),
		HasCompletionEvent: hasCompletion,
	})
	if err != nil {
		return model.ObscalcResult{}, fmt.Errorf("generator: workflow evaluation: %w", err)
	}

	return model.NewWithTargetResult(itcResult.Versions, executionDigest, state), nil
}

// scienceStreamCap bounds how many atoms the fresh protosequence may emit
// before digest.Merge sees it: one for the next atom plus the future
// window, so merge's own futureLimit window is never starved by the
// source's own cap. A non-positive FutureLimit means unlimited, subject
// only to protoseq.MaxAtoms.
func scienceStreamCap(futureLimit int) int {
	if futureLimit <= 0 {
		return 0
	}
	return futureLimit + 1
}

// mergeWindow is the future-window size passed to digest.Merge; a
// non-positive FutureLimit (unlimited) still needs a positive bound here; it
// defaults to the hard atom-count ceiling.
func mergeWindow(futureLimit int) int {
	if futureLimit <= 0 {
		return protoseq.MaxAtoms
	}
	return futureLimit
}

func genErrorOrBubble(err error) (model.ObscalcResult, error) {
	if genErr, ok := err.(*model.GenError); ok {
		return model.NewErrorResult(genErr, workflowStateForError(genErr)), nil
	}
	return model.ObscalcResult{}, err
}

func (g *Generator) resolveIntegrationTime(ctx context.Context, params model.GenParams) (itc.Result, error) {
	input := itc.Input{
		Asterism:         params.Asterism,
		Mode:             params.Mode,
		Constraints:      params.Constraints,
		ExposureTimeMode: params.ExposureTimeMode,
	}
	switch params.Mode.Tag {
	case model.ModeGmosNorthImaging, model.ModeGmosSouthImaging:
		return g.Itc.Imaging(ctx, input, true)
	default:
		return g.Itc.Spectroscopy(ctx, input, true)
	}
}

func workflowStateForError(genErr *model.GenError) model.WorkflowState {
	in := workflow.Input{ValidationErrors: []workflow.ValidationError{{Tag: genErr.Tag}}}
	state, _, err := workflow.Evaluate(in)
	if err != nil {
		return model.WorkflowUndefined
	}
	return state
}

func instrumentNameFor(tag model.InstrumentModeTag) string {
	switch tag {
	case model.ModeFlamingos2LongSlit:
		return "flamingos2"
	default:
		return "gmos"
	}
}

func buildProtosequence(params model.GenParams, itcResult itc.Result) (model.Protosequence, error) {
	exposureTimeMs := int64(itcResult.IntegrationTime.ExposureTime) / 1000
	exposureCount := int(itcResult.IntegrationTime.ExposureCount)
	if exposureCount <= 0 {
		exposureCount = 1
	}

	baselineMs := int64(math.Round(float64(exposureTimeMs) * acquisitionExposureFraction))
	if baselineMs <= 0 {
		baselineMs = 1
	}
	coarseMs := baselineMs
	if itcResult.TooBright {
		coarseMs = exposureTimeMs // verbatim, even though the source is too bright (spec §4.4)
	}

	instrument := model.InstrumentConfig{
		ExposureTimeMs: exposureTimeMs,
		Grating:        params.Mode.Grating,
		Filter:         params.Mode.Filter,
		Fpu:            params.Mode.Fpu,
		CentralWave:    params.Mode.CentralWavelength,
		ReadMode:       params.Mode.ExplicitReadMode,
	}
	acquisition := protoseq.NewAcquisitionSource(protoseq.AcquisitionInput{
		Instrument:          instrument,
		BaselineExposureMs:  baselineMs,
		CoarseExposureMs:    coarseMs,
	})

	switch params.Mode.Tag {
	case model.ModeGmosNorthLongSlit, model.ModeGmosSouthLongSlit:
		science := protoseq.NewGmosLongSlitSource(protoseq.GmosLongSlitParams{
			BaseWavelength:     params.Mode.CentralWavelength,
			Dithers:            params.Mode.ExplicitDithers,
			Offsets:            params.Mode.ExplicitOffsets,
			CycleExposureCount: 2,
			TotalExposures:     exposureCount,
			ExposureTimeMs:     exposureTimeMs,
			Grating:            params.Mode.Grating,
			Filter:             params.Mode.Filter,
			Fpu:                params.Mode.Fpu,
		})
		return model.Protosequence{Acquisition: acquisition, Science: science}, nil

	case model.ModeFlamingos2LongSlit:
		science, err := protoseq.NewFlamingos2LongSlitSource(protoseq.Flamingos2LongSlitParams{
			Offsets:        params.Mode.ExplicitOffsets,
			SlitLengthMas:  params.Mode.SlitLengthMas,
			ExposureTimeMs: exposureTimeMs,
			Grating:        params.Mode.Grating,
			Filter:         params.Mode.Filter,
			ReadMode:       params.Mode.ExplicitReadMode,
			Cycles:         int(math.Ceil(float64(exposureCount) / 4)),
		})
		if err != nil {
			return model.Protosequence{}, err
		}
		return model.Protosequence{Acquisition: acquisition, Science: science}, nil

	case model.ModeGmosNorthImaging, model.ModeGmosSouthImaging:
		filters := make(map[string]model.Wavelength, len(params.Mode.ImagingFilters))
		for i, f := range params.Mode.ImagingFilters {
			// The ODB's filter/wavelength lookup table is out of scope
			// (spec §1); declaration order stands in for wavelength order.
			filters[f] = model.Wavelength(i)
		}
		science := protoseq.NewGmosImagingSource(protoseq.GmosImagingParams{
			Filters:        filters,
			ExposureTimeMs: exposureTimeMs,
			ExposureCount:  exposureCount,
			PreImaging:     params.Mode.PreImaging,
			Interleave:     params.Mode.InterleaveFilters,
		})
		return model.Protosequence{Acquisition: acquisition, Science: science}, nil

	default:
		return model.Protosequence{}, model.NewGenError(model.ErrMissingMode, fmt.Sprintf("unrecognized mode tag %q", params.Mode.Tag))
	}
}
