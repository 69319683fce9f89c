// Package protoseq implements the Protosequence Generator (C4): the
// instrument-specific rules that emit the ordered, possibly-infinite atom
// streams making up an observation's acquisition and science sub-sequences.
package protoseq

import (
	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// MaxAtoms is the hard atom-count ceiling across a single generation (spec
// §4.4 budget ceiling).
const MaxAtoms = 100_000

// TruncatingStream wraps a model.AtomStream, stopping it at futureLimit atoms and
// failing the whole generation with SequenceTooLong if the underlying
// source would ever emit more than MaxAtoms atoms in its lifetime.
type TruncatingStream struct {
	source     model.AtomStream
	futureLimit int
	emitted    int
	totalSeen  int
	hasMore    bool
}

// NewTruncatingStream wraps source, stopping Next() after futureLimit atoms
// (a non-positive futureLimit means unlimited, subject only to MaxAtoms).
func NewTruncatingStream(source model.AtomStream, futureLimit int) *TruncatingStream {
	return &TruncatingStream{source: source, futureLimit: futureLimit}
}

// Next returns the next atom, or ok=false once futureLimit or the
// underlying source is exhausted. err is SequenceTooLong if emitting this
// atom would exceed MaxAtoms.
func (t *TruncatingStream) Next() (model.Atom, bool, error) {
	if t.futureLimit > 0 && t.emitted >= t.futureLimit {
		t.hasMore = true
		return model.Atom{}, false, nil
	}
	a, ok, err := t.source.Next()
	if err != nil {
		return model.Atom{}, false, err
	}
	if !ok {
		return model.Atom{}, false, nil
	}
	t.totalSeen++
	if t.totalSeen > MaxAtoms {
		return model.Atom{}, false, model.NewGenError(model.ErrSequenceTooLong, "protosequence exceeds atom-count ceiling")
	}
	t.emitted++
	return a, true, nil
}

// HasMore reports whether truncation hid further atoms beyond futureLimit
// (spec §4.5: "hasMore = true iff truncation hid further atoms").
func (t *TruncatingStream) HasMore() bool { return t.hasMore }
