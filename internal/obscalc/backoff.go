package obscalc

import (
	"math"
	"math/rand"
	"time"
)

// BackoffConfig parametrizes the exponential-with-jitter retry delay (spec
// §4.8: "retryAt = now + min(maxBackoff, base * 2^(failureCount-1) * jitter)").
// No dedicated backoff library is attested anywhere in the corpus, so this
// follows the teacher's own hand-rolled exponential-backoff-with-jitter
// arithmetic (engine/internal/pipeline.Pipeline.backoffDelay/randomizedDelay)
// rather than reaching for one.
type BackoffConfig struct {
	Base    time.Duration
	Max     time.Duration
	// JitterFraction adds up to +/- this fraction of the computed delay.
	JitterFraction float64
}

// DefaultBackoffConfig is a reasonable baseline: 5s base, 10m ceiling, +/-20% jitter.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{Base: 5 * time.Second, Max: 10 * time.Minute, JitterFraction: 0.2}
}

// Delay computes the backoff delay for the given 1-indexed failure count.
func (c BackoffConfig) Delay(failureCount int, rng *rand.Rand) time.Duration {
	if failureCount < 1 {
		failureCount = 1
	}
	raw := float64(c.Base) * math.Pow(2, float64(failureCount-1))
	if raw > float64(c.Max) {
		raw = float64(c.Max)
	}
	jitter := 1.0
	if c.JitterFraction > 0 {
		jitter = 1.0 + (rng.Float64()*2-1)*c.JitterFraction
	}
	delayed := raw * jitter
	if delayed < 0 {
		delayed = 0
	}
	if delayed > float64(c.Max) {
		delayed = float64(c.Max)
	}
	return time.Duration(delayed)
}
