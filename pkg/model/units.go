package model

// MilliSN is a signal-to-noise ratio expressed in thousandths, giving exact
// three-decimal precision without floating point (spec §6): legal range is
// [1, 9_999_999_999], i.e. [0.001, 9_999_999.999].
type MilliSN int64

// Millimags is an extinction magnitude expressed in thousandths of a
// magnitude, a non-negative 16-bit quantity per spec §6: legal range
// [0, 32767].
type Millimags uint16

// TimeSpan is a duration expressed in whole microseconds, matching the
// ODB's microsecond timestamp precision.
type TimeSpan int64

// NonNegInt is a non-negative integer count (exposure counts, atom
// counts...).
type NonNegInt int

// ChargeClass is the accounting bucket a step's time is attributed to.
type ChargeClass string

const (
	ChargeProgram    ChargeClass = "program"
	ChargePartner    ChargeClass = "partner"
	ChargeNonCharged ChargeClass = "non_charged"
)
