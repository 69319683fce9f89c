package model

import (
	"errors"
	"time"
)

// legalRange bounds the database's representable instant range, matching
// §3's "bounded to a legal database range" requirement.
var (
	legalRangeMin = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	legalRangeMax = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
)

// ErrTimestampOutOfRange is returned when a timestamp falls outside the
// legal database range.
var ErrTimestampOutOfRange = errors.New("model: timestamp out of legal range")

// Timestamp is a microsecond-truncated, totally ordered instant.
type Timestamp struct {
	t time.Time
}

// NewTimestamp truncates t to microsecond precision and validates range.
func NewTimestamp(t time.Time) (Timestamp, error) {
	t = t.UTC().Truncate(time.Microsecond)
	if t.Before(legalRangeMin) || !t.Before(legalRangeMax) {
		return Timestamp{}, ErrTimestampOutOfRange
	}
	return Timestamp{t: t}, nil
}

// MustTimestamp panics if t is out of range; intended for compile-time-known
// constants and tests.
func MustTimestamp(t time.Time) Timestamp {
	ts, err := NewTimestamp(t)
	if err != nil {
		panic(err)
	}
	return ts
}

// Time returns the underlying time.Time.
func (ts Timestamp) Time() time.Time { return ts.t }

// Before reports whether ts occurs strictly before other.
func (ts Timestamp) Before(other Timestamp) bool { return ts.t.Before(other.t) }

// After reports whether ts occurs strictly after other.
func (ts Timestamp) After(other Timestamp) bool { return ts.t.After(other.t) }

// Equal reports whether ts and other denote the same instant.
func (ts Timestamp) Equal(other Timestamp) bool { return ts.t.Equal(other.t) }

// Compare returns -1, 0, or 1 per the usual ordering convention.
func (ts Timestamp) Compare(other Timestamp) int {
	switch {
	case ts.t.Before(other.t):
		return -1
	case ts.t.After(other.t):
		return 1
	default:
		return 0
	}
}

// Add returns ts shifted by d, truncated to microseconds.
func (ts Timestamp) Add(d time.Duration) Timestamp {
	return Timestamp{t: ts.t.Add(d).Truncate(time.Microsecond)}
}

// Sub returns the duration between ts and other.
func (ts Timestamp) Sub(other Timestamp) time.Duration { return ts.t.Sub(other.t) }

func (ts Timestamp) String() string { return ts.t.Format(time.RFC3339Nano) }
