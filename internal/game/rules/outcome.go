package rules

import "fmt"

// Outcome is the terminal result of an episode. The numeric values are the
// outcome codes reported to learners.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomePlayerReachedButter
	OutcomeMoldReachedToaster
	OutcomePlayerHitMold
	OutcomeMoldReachedButter
	OutcomeTie
)

// AllOutcomes lists the terminal outcomes in priority order
var AllOutcomes = []Outcome{
	OutcomePlayerReachedButter,
	OutcomeMoldReachedToaster,
	OutcomePlayerHitMold,
	OutcomeMoldReachedButter,
	OutcomeTie,
}

// Code returns the integer outcome code
func (o Outcome) Code() int { return int(o) }

// IsTerminal reports whether o ends the episode
func (o Outcome) IsTerminal() bool { return o != OutcomeNone }

// IsWin reports whether the outcome counts as a win for the player side
func (o Outcome) IsWin() bool {
	return o == OutcomePlayerReachedButter || o == OutcomeMoldReachedToaster
}

// IsLoss reports whether the outcome counts as a loss for the player side
func (o Outcome) IsLoss() bool {
	return o == OutcomePlayerHitMold || o == OutcomeMoldReachedButter
}

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomePlayerReachedButter:
		return "player_reached_butter"
	case OutcomeMoldReachedToaster:
		return "mold_reached_toaster"
	case OutcomePlayerHitMold:
		return "player_hit_mold"
	case OutcomeMoldReachedButter:
		return "mold_reached_butter"
	case OutcomeTie:
		return "tie"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}
