// Package timeest implements the Time-Estimator (C6): per-step time built
// from a small lookup table of named, taggable components (configure,
// exposure, readout, write), summed and categorized by charge class.
package timeest

import (
	"github.com/gemini-hlsw/odb-sequencer/pkg/model"
)

// ComponentTag names one of the four time components that make up a step's
// total time (spec §4.6).
type ComponentTag string

const (
	ComponentConfigure ComponentTag = "configure"
	ComponentExposure  ComponentTag = "exposure"
	ComponentReadout   ComponentTag = "readout"
	ComponentWrite     ComponentTag = "write"
)

// TableEntry is one row of the time-estimate lookup table.
type TableEntry struct {
	Tag         ComponentTag
	Name        string
	Description string
	// Instrument, if non-empty, restricts this entry to a single
	// instrument's steps; empty means it applies generically.
	Instrument string
	Time       model.TimeSpan
}

// Table is the backing lookup table, keyed by (Tag, Instrument) with a
// fallback to the instrument-less generic entry.
type Table struct {
	byKey map[tableKey]model.TimeSpan
}

type tableKey struct {
	tag        ComponentTag
	instrument string
}

// NewTable builds a Table from entries.
func NewTable(entries []TableEntry) *Table {
	t := &Table{byKey: make(map[tableKey]model.TimeSpan, len(entries))}
	for _, e := range entries {
		t.byKey[tableKey{tag: e.Tag, instrument: e.Instrument}] = e.Time
	}
	return t
}

// DefaultTable returns a reasonable built-in table for GMOS and Flamingos-2,
// used when no site-specific overrides are configured.
func DefaultTable() *Table {
	return NewTable([]TableEntry{
		{Tag: ComponentConfigure, Name: "gmos-configure", Instrument: "gmos", Time: 10_000_000},
		{Tag: ComponentReadout, Name: "gmos-readout-slow", Instrument: "gmos", Time: 40_000_000},
		{Tag: ComponentWrite, Name: "gmos-write", Instrument: "gmos", Time: 2_000_000},
		{Tag: ComponentConfigure, Name: "f2-configure", Instrument: "flamingos2", Time: 15_000_000},
		{Tag: ComponentReadout, Name: "f2-readout", Instrument: "flamingos2", Time: 8_000_000},
		{Tag: ComponentWrite, Name: "f2-write", Instrument: "flamingos2", Time: 3_000_000},
		{Tag: ComponentConfigure, Name: "generic-configure", Time: 5_000_000},
		{Tag: ComponentReadout, Name: "generic-readout", Time: 20_000_000},
		{Tag: ComponentWrite, Name: "generic-write", Time: 2_000_000},
	})
}

func (t *Table) lookup(tag ComponentTag, instrument string) model.TimeSpan {
	if v, ok := t.byKey[tableKey{tag: tag, instrument: instrument}]; ok {
		return v
	}
	return t.byKey[tableKey{tag: tag}]
}

// StepTime computes one step's total time: configure + exposure + readout +
// write, where exposure is read directly off the step's instrument config.
func (t *Table) StepTime(instrument string, step model.Step) model.TimeSpan {
	exposure := model.TimeSpan(step.Instrument.ExposureTimeMs * 1000)
	return t.lookup(ComponentConfigure, instrument) +
		exposure +
		t.lookup(ComponentReadout, instrument) +
		t.lookup(ComponentWrite, instrument)
}

// CategorizedStepTime computes step's time and files it under its
// ObserveClass's charge class.
func (t *Table) CategorizedStepTime(instrument string, step model.Step) model.CategorizedTime {
	return model.AddTo(model.CategorizedTime{}, step.ObserveClass.ChargeClassOf(), t.StepTime(instrument, step))
}
