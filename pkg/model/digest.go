package model

// CategorizedTime breaks a time estimate down by accounting bucket.
type CategorizedTime struct {
	Program    TimeSpan `json:"program"`
	Partner    TimeSpan `json:"partner"`
	NonCharged TimeSpan `json:"non_charged"`
}

// Total sums the three buckets.
func (c CategorizedTime) Total() TimeSpan { return c.Program + c.Partner + c.NonCharged }

// Add returns the element-wise sum of c and other.
func (c CategorizedTime) Add(other CategorizedTime) CategorizedTime {
	return CategorizedTime{
		Program:    c.Program + other.Program,
		Partner:    c.Partner + other.Partner,
		NonCharged: c.NonCharged + other.NonCharged,
	}
}

// AddTo credits d into the bucket matching class.
func AddTo(c CategorizedTime, class ChargeClass, d TimeSpan) CategorizedTime {
	switch class {
	case ChargeProgram:
		c.Program += d
	case ChargePartner:
		c.Partner += d
	default:
		c.NonCharged += d
	}
	return c
}

// SequenceDigest summarizes one phase (acquisition or science) of a
// sequence: spec §4.5.
type SequenceDigest struct {
	ObserveClass ObserveClass      `json:"observe_class"`
	TimeEstimate CategorizedTime   `json:"time_estimate"`
	Offsets      []Offset          `json:"offsets"`
	AtomCount    int               `json:"atom_count"`
}

// ExecutionDigest is the full digest of a generated/merged sequence.
type ExecutionDigest struct {
	SetupTime   TimeSpan       `json:"setup_time"`
	Acquisition SequenceDigest `json:"acquisition"`
	Science     SequenceDigest `json:"science"`
}

// TotalTime returns the full time estimate across setup, acquisition and
// science.
func (d ExecutionDigest) TotalTime() CategorizedTime {
	return AddTo(d.Acquisition.TimeEstimate.Add(d.Science.TimeEstimate), ChargeNonCharged, d.SetupTime)
}
