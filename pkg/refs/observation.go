package refs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ObservationRef identifies an observation within a program.
type ObservationRef struct {
	Program  ProgramRef
	ObsIndex int
}

var obsRE = regexp.MustCompile(`^(.+)-(\d{4,})$`)

// String formats: <programRef>-<obsIndex:4d>.
func (o ObservationRef) String() string {
	return fmt.Sprintf("%s-%04d", o.Program.String(), o.ObsIndex)
}

// ParseObservationRef splits off the trailing -<index> and parses the
// remainder as a program reference.
func ParseObservationRef(s string) (ObservationRef, error) {
	m := obsRE.FindStringSubmatch(s)
	if m == nil {
		return ObservationRef{}, fmt.Errorf("refs: %q is not a valid observation reference", s)
	}
	prog, err := ParseProgramRef(m[1])
	if err != nil {
		return ObservationRef{}, fmt.Errorf("refs: observation reference %q: %w", s, err)
	}
	idx, err := strconv.Atoi(m[2])
	if err != nil {
		return ObservationRef{}, fmt.Errorf("refs: observation index in %q: %w", s, err)
	}
	return ObservationRef{Program: prog, ObsIndex: idx}, nil
}

// DatasetRef identifies one dataset produced by a step within an
// observation.
type DatasetRef struct {
	Observation   ObservationRef
	StepIndex     int
	ExposureIndex int
}

// String formats: <obsRef>-<stepIndex:4d>-<exposureIndex:4d>.
func (d DatasetRef) String() string {
	return fmt.Sprintf("%s-%04d-%04d", d.Observation.String(), d.StepIndex, d.ExposureIndex)
}

// ParseDatasetRef splits the trailing two -<index> segments and parses the
// remainder as an observation reference.
func ParseDatasetRef(s string) (DatasetRef, error) {
	parts := strings.Split(s, "-")
	if len(parts) < 3 {
		return DatasetRef{}, fmt.Errorf("refs: %q is not a valid dataset reference", s)
	}
	expIdx, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return DatasetRef{}, fmt.Errorf("refs: exposure index in %q: %w", s, err)
	}
	stepIdx, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return DatasetRef{}, fmt.Errorf("refs: step index in %q: %w", s, err)
	}
	obsRefStr := strings.Join(parts[:len(parts)-2], "-")
	obs, err := ParseObservationRef(obsRefStr)
	if err != nil {
		return DatasetRef{}, fmt.Errorf("refs: dataset reference %q: %w", s, err)
	}
	return DatasetRef{Observation: obs, StepIndex: stepIdx, ExposureIndex: expIdx}, nil
}
