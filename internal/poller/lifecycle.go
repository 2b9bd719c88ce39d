package poller

import "github.com/rickgao/betfair-logger/internal/model"

// Phase is a market's position in the recording lifecycle.
type Phase string

const (
	PhaseNoBook    Phase = "no_book"
	PhasePrerace   Phase = "prerace"
	PhaseInPlay    Phase = "inplay"
	PhaseSuspended Phase = "suspended"
	PhaseClosed    Phase = "closed"
)

// Phases lists every phase in lifecycle order.
var Phases = []Phase{PhaseNoBook, PhasePrerace, PhaseInPlay, PhaseSuspended, PhaseClosed}

// PhaseOf derives the phase of a market from its last stored snapshot.
func PhaseOf(last *model.BookRef) Phase {
	if last == nil {
		return PhaseNoBook
	}
	return Next(PhaseNoBook, last.Status, last.InPlay)
}

// Next returns the phase after observing a snapshot with the given status.
// Closed is terminal. An inactive market keeps its current phase.
func Next(current Phase, status model.MarketStatus, inplay bool) Phase {
	if current == PhaseClosed {
		return PhaseClosed
	}
	switch status {
	case model.StatusClosed:
		return PhaseClosed
	case model.StatusSuspended:
		return PhaseSuspended
	case model.StatusOpen:
		if inplay {
			return PhaseInPlay
		}
		return PhasePrerace
	default:
		return current
	}
}
