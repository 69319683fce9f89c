package model

// AtomStream is a restartable pull-iterator over a (conceptually infinite)
// sequence of atoms (spec §9 Design Notes: "never materialize unbounded
// lists"). Next returns ok=false once the stream is exhausted (finite
// streams only); err is non-nil on a generation failure such as
// SequenceTooLong.
type AtomStream interface {
	Next() (atom Atom, ok bool, err error)
}

// SliceStream adapts a pre-computed, finite slice of atoms to AtomStream;
// useful for tests and for the "residual steps of the in-progress atom"
// case in the §4.5 merge.
type SliceStream struct {
	atoms []Atom
	pos   int
}

// NewSliceStream wraps atoms as an AtomStream.
func NewSliceStream(atoms []Atom) *SliceStream { return &SliceStream{atoms: atoms} }

func (s *SliceStream) Next() (Atom, bool, error) {
	if s.pos >= len(s.atoms) {
		return Atom{}, false, nil
	}
	a := s.atoms[s.pos]
	s.pos++
	return a, true, nil
}

// Protosequence is the logical plan produced by C4: one lazy atom stream for
// acquisition, one for science.
type Protosequence struct {
	Acquisition AtomStream
	Science     AtomStream
}

// TakeAtoms pulls up to n atoms from s, stopping early (without error) if
// the stream is exhausted.
func TakeAtoms(s AtomStream, n int) ([]Atom, error) {
	out := make([]Atom, 0, n)
	for i := 0; i < n; i++ {
		a, ok, err := s.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			break
		}
		out = append(out, a)
	}
	return out, nil
}
