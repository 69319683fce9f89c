// Package refs implements the ODB's human-readable reference label formats
// (spec §6): program, observation, and dataset references, and the user
// invitation token.
package refs

import (
	"fmt"
	"regexp"
	"strconv"
)

// Half is the A/B semester half.
type Half byte

const (
	HalfA Half = 'A'
	HalfB Half = 'B'
)

func (h Half) String() string { return string(rune(h)) }

// ProgramRef identifies a science program by year, half, and index.
type ProgramRef struct {
	Year  int
	Half  Half
	Index int
}

var longRE = regexp.MustCompile(`^G-(\d{4})([AB])-(\d{4,})$`)
var shortRE = regexp.MustCompile(`^(\d{2})([AB])(\d{4,})$`)

// String formats the canonical long form: G-<year><half>-<index:4d>.
func (p ProgramRef) String() string {
	return fmt.Sprintf("G-%04d%s-%04d", p.Year, p.Half, p.Index)
}

// Short formats the abbreviated form: <yy><half><index:4d>.
func (p ProgramRef) Short() string {
	return fmt.Sprintf("%02d%s%04d", p.Year%100, p.Half, p.Index)
}

// ParseProgramRef accepts either the long or short form and recovers the
// full ProgramRef, inferring the century for the short form as 2000+yy
// (years below 2000 are not representable, per spec §6).
func ParseProgramRef(s string) (ProgramRef, error) {
	if m := longRE.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		idx, _ := strconv.Atoi(m[3])
		if year < 2000 {
			return ProgramRef{}, fmt.Errorf("refs: program year %d is before 2000", year)
		}
		return ProgramRef{Year: year, Half: Half(m[2][0]), Index: idx}, nil
	}
	if m := shortRE.FindStringSubmatch(s); m != nil {
		yy, _ := strconv.Atoi(m[1])
		idx, _ := strconv.Atoi(m[3])
		return ProgramRef{Year: 2000 + yy, Half: Half(m[2][0]), Index: idx}, nil
	}
	return ProgramRef{}, fmt.Errorf("refs: %q is not a valid program reference", s)
}
