package poller

import (
	"time"

	"github.com/rickgao/betfair-logger/internal/config"
)

// Step is one row of the staircase: a market starting within Within is due
// once Every has elapsed since its last poll.
type Step struct {
	Within time.Duration
	Every  time.Duration
}

// Cadence is a staircase ordered by increasing Within. Markets further out
// than the last step are never due.
type Cadence []Step

// DefaultCadence returns the standard staircase.
func DefaultCadence() Cadence {
	return CadenceFromConfig(config.DefaultCadence)
}

// CadenceFromConfig converts configured steps.
func CadenceFromConfig(steps []config.CadenceStep) Cadence {
	c := make(Cadence, 0, len(steps))
	for _, s := range steps {
		c = append(c, Step{Within: s.Within, Every: s.Every})
	}
	return c
}

// IsDue reports whether a market should be fetched. toStart is the time until
// the scheduled start (negative once started), sinceLast the time since the
// last successful poll. A market never polled counts as infinitely stale.
func (c Cadence) IsDue(toStart, sinceLast time.Duration, polled bool) bool {
	if toStart <= 0 {
		return true
	}
	for _, s := range c {
		if toStart <= s.Within {
			return !polled || sinceLast >= s.Every
		}
	}
	return false
}

// Horizon returns how far ahead of the start polling begins.
func (c Cadence) Horizon() time.Duration {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1].Within
}
