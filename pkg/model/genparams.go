package model

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
)

// InstrumentModeTag discriminates the observing-mode family. Dispatch on
// this tag replaces an inheritance hierarchy (spec §9 Design Notes).
type InstrumentModeTag string

const (
	ModeGmosNorthLongSlit InstrumentModeTag = "gmos_north_long_slit"
	ModeGmosSouthLongSlit InstrumentModeTag = "gmos_south_long_slit"
	ModeFlamingos2LongSlit InstrumentModeTag = "flamingos2_long_slit"
	ModeGmosNorthImaging InstrumentModeTag = "gmos_north_imaging"
	ModeGmosSouthImaging InstrumentModeTag = "gmos_south_imaging"
)

// Wavelength is expressed in picometers to keep arithmetic exact and
// integral (avoids floating-point drift across cycle computations).
type Wavelength int64

// Offset is a telescope sky-position offset in milliarcseconds.
type Offset struct {
	P int64 `json:"p"`
	Q int64 `json:"q"`
}

// F2ReadMode is the Flamingos-2 detector read mode.
type F2ReadMode string

const (
	F2ReadFaint  F2ReadMode = "faint"
	F2ReadMedium F2ReadMode = "medium"
	F2ReadBright F2ReadMode = "bright"
)

// ObservingMode carries the instrument-specific knobs needed by the static
// config builder (C3) and protosequence generator (C4). Only the fields
// relevant to Tag are meaningful; this mirrors the source's tagged-union
// observing mode while staying a single flat Go struct for simplicity.
type ObservingMode struct {
	Tag InstrumentModeTag `json:"tag"`

	// Long-slit fields (GMOS, Flamingos-2).
	Grating           string     `json:"grating,omitempty"`
	Filter            string     `json:"filter,omitempty"`
	Fpu               string     `json:"fpu,omitempty"`
	CentralWavelength Wavelength `json:"central_wavelength,omitempty"`

	// Explicit overrides; empty means "use the instrument default".
	ExplicitDithers []Wavelength `json:"explicit_dithers,omitempty"`
	ExplicitOffsets []Offset     `json:"explicit_offsets,omitempty"`

	// Flamingos-2 specific.
	ExplicitReadMode F2ReadMode `json:"explicit_read_mode,omitempty"`
	SlitLengthMas    int64      `json:"slit_length_mas,omitempty"`

	// Imaging specific.
	ImagingFilters       []string `json:"imaging_filters,omitempty"`
	PreImaging           bool     `json:"pre_imaging,omitempty"`
	InterleaveFilters    bool     `json:"interleave_filters,omitempty"`
}

// SourceProfile is an opaque identifier for the target's spectral energy
// distribution shape (point, uniform, gaussian...); its internals belong to
// the (out of scope) target model.
type SourceProfile string

// Band is a photometric band tag (e.g. "V", "R", "J").
type Band string

// AsterismMember pairs a target with the profile/band used for ITC input.
type AsterismMember struct {
	TargetId TargetId      `json:"target_id"`
	Profile  SourceProfile `json:"profile"`
	Band     Band          `json:"band"`
	// Sed is Present once resolved; Absent signals a not-yet-resolved SED,
	// which the resolver turns into ErrMissingSed.
	Sed Nullable[string] `json:"-"`
}

// Constraints bundles the observing constraints consulted by the ITC and
// by static-config.
type Constraints struct {
	ImageQuality    string `json:"image_quality"`
	CloudExtinction string `json:"cloud_extinction"`
	SkyBackground   string `json:"sky_background"`
	WaterVapor      string `json:"water_vapor"`
}

// ExposureTimeModeTag discriminates ExposureTimeMode's two shapes.
type ExposureTimeModeTag int

const (
	SignalToNoiseTag ExposureTimeModeTag = iota
	TimeAndCountTag
)

// ExposureTimeMode is either "achieve this S/N" (consult the ITC) or an
// explicit "use this exposure time and count" (bypasses the ITC, spec
// §4.2).
type ExposureTimeMode struct {
	Tag            ExposureTimeModeTag `json:"tag"`
	SignalToNoise  MilliSN              `json:"signal_to_noise,omitempty"`
	ExposureTimeMs int64                `json:"exposure_time_ms,omitempty"`
	ExposureCount  int                  `json:"exposure_count,omitempty"`
}

// IsTimeAndCount reports whether the mode bypasses the ITC.
func (m ExposureTimeMode) IsTimeAndCount() bool { return m.Tag == TimeAndCountTag }

// AcquisitionOverrides carries a user-pinned acquisition exposure time. The
// generator does not read it: acquisition exposures are always derived from
// the ITC science exposure time.
type AcquisitionOverrides struct {
	ExposureTimeMs Nullable[int64] `json:"-"`
}

// GenParams is the fully-resolved, validated input to the generator (C1's
// output). It hashes deterministically to an MD5 fingerprint (see
// Fingerprint); the ITC cache computes its own key from its itc.Input.
type GenParams struct {
	ObservationId    ObservationId        `json:"observation_id"`
	ProgramId        ProgramId            `json:"program_id"`
	Mode             ObservingMode        `json:"mode"`
	Asterism         []AsterismMember     `json:"asterism"`
	Constraints      Constraints          `json:"constraints"`
	ExposureTimeMode ExposureTimeMode     `json:"exposure_time_mode"`
	Acquisition      AcquisitionOverrides `json:"-"`
}

// Fingerprint hashes the generator-relevant fields of p with MD5, mixing in
// commitHash so a code change invalidates cached digests without an
// explicit sweep (spec §9).
func (p GenParams) Fingerprint(commitHash string) (string, error) {
	type wire struct {
		Params     GenParams `json:"params"`
		CommitHash string    `json:"commit_hash"`
	}
	b, err := json.Marshal(wire{Params: p, CommitHash: commitHash})
	if err != nil {
		return "", err
	}
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:]), nil
}
