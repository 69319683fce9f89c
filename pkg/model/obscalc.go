package model

// ItcVersions stamps the ITC server/data version a result was computed
// under (spec §6), so a digest can be detected as stale when the ITC
// redeploys even without an explicit invalidation.
type ItcVersions struct {
	Server string           `json:"server"`
	Data   Nullable[string] `json:"-"`
}

// ObscalcResultTag discriminates ObscalcResult's variants.
type ObscalcResultTag string

const (
	ResultError         ObscalcResultTag = "error"
	ResultWithoutTarget ObscalcResultTag = "without_target"
	ResultWithTarget    ObscalcResultTag = "with_target"
)

// ObscalcResult is the sum type stored by the obscalc engine for an
// observation: either a terminal error (with the workflow state it implies),
// a digest computed without a resolved target (e.g. calibration-only), or a
// full digest with its ITC provenance.
type ObscalcResult struct {
	Tag ObscalcResultTag `json:"tag"`

	Error    *GenError     `json:"error,omitempty"`
	Digest   ExecutionDigest `json:"digest"`
	Itc      ItcVersions     `json:"itc,omitempty"`
	Workflow WorkflowState   `json:"workflow"`
}

// NewErrorResult builds an ObscalcResult::Error.
func NewErrorResult(err *GenError, workflow WorkflowState) ObscalcResult {
	return ObscalcResult{Tag: ResultError, Error: err, Workflow: workflow}
}

// NewWithoutTargetResult builds an ObscalcResult::WithoutTarget.
func NewWithoutTargetResult(digest ExecutionDigest, workflow WorkflowState) ObscalcResult {
	return ObscalcResult{Tag: ResultWithoutTarget, Digest: digest, Workflow: workflow}
}

// NewWithTargetResult builds an ObscalcResult::WithTarget.
func NewWithTargetResult(itc ItcVersions, digest ExecutionDigest, workflow WorkflowState) ObscalcResult {
	return ObscalcResult{Tag: ResultWithTarget, Itc: itc, Digest: digest, Workflow: workflow}
}

// ObscalcMeta is the per-observation bookkeeping row driving the obscalc
// state machine (spec §3, §4.8).
type ObscalcMeta struct {
	ProgramId        ProgramId
	ObservationId    ObservationId
	State            CalculationState
	LastInvalidation Timestamp
	LastUpdate       Timestamp
	RetryAt          Nullable[Timestamp]
	FailureCount     int
	// Version is a monotonic counter incremented on every write, used as
	// the CAS token described in spec §5 ("per-row version check").
	Version uint64
}

// IsCurrent reports whether the meta row's last write reflects the most
// recent invalidation (spec §3 invariant).
func (m ObscalcMeta) IsCurrent() bool {
	return !m.LastInvalidation.After(m.LastUpdate)
}

// ObscalcEntry pairs a meta row with its last-known result. The result
// outlives staleness: a stale entry still serves its last-known digest
// until recomputed (spec §4.8 "do not discard computed result").
type ObscalcEntry struct {
	Meta   ObscalcMeta
	Result ObscalcResult
}
