// Package backoff provides the delay schedule used when reconnecting the
// realtime channel after an unexpected close.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Policy describes a capped exponential backoff schedule.
type Policy struct {
	// MaxAttempts bounds reconnect attempts per outage. Zero or negative
	// means a single attempt.
	MaxAttempts int
	// Initial is the delay before the first retry.
	Initial time.Duration
	// Max caps the computed delay.
	Max time.Duration
	// Factor multiplies the delay on each successive attempt.
	Factor float64
	// Jitter randomizes each delay by a factor in [0.5, 1.5) when set.
	Jitter bool
}

// Default returns the reconnect schedule used when the configuration does
// not override it: five attempts, 2s initial, doubling to a 30s cap, with
// jitter.
func Default() Policy {
	return Policy{
		MaxAttempts: 5,
		Initial:     2 * time.Second,
		Max:         30 * time.Second,
		Factor:      2,
		Jitter:      true,
	}
}

// Delay returns the wait before the given attempt. Attempts start at 1.
func (p Policy) Delay(attempt int) time.Duration {
	return p.delayWithRand(attempt, rand.Float64()) // #nosec G404 -- jitter does not require cryptographic randomness
}

// delayWithRand is separated so tests can pin the random value.
func (p Policy) delayWithRand(attempt int, random float64) time.Duration {
	initial := p.Initial
	if initial <= 0 {
		initial = Default().Initial
	}
	max := p.Max
	if max <= 0 {
		max = Default().Max
	}
	factor := p.Factor
	if factor <= 0 {
		factor = Default().Factor
	}
	if attempt < 1 {
		attempt = 1
	}

	d := float64(initial) * math.Pow(factor, float64(attempt-1))
	if d > float64(max) {
		d = float64(max)
	}
	if p.Jitter {
		d *= 0.5 + random
		if d > float64(max) {
			d = float64(max)
		}
	}
	return time.Duration(d)
}

// Exhausted reports whether the given attempt count has used up the policy.
func (p Policy) Exhausted(attempts int) bool {
	limit := p.MaxAttempts
	if limit <= 0 {
		limit = 1
	}
	return attempts >= limit
}
