package states

import "fmt"

// EpisodePhase represents the current phase of an episode
type EpisodePhase int

const (
	// PhaseInitializing - freshly reset, layout being drawn
	PhaseInitializing EpisodePhase = iota

	// PhaseRunning - accepting steps
	PhaseRunning

	// PhaseTerminal - an outcome has been reached, only reset is accepted
	PhaseTerminal
)

// String returns the string representation of an EpisodePhase
func (p EpisodePhase) String() string {
	switch p {
	case PhaseInitializing:
		return "Initializing"
	case PhaseRunning:
		return "Running"
	case PhaseTerminal:
		return "Terminal"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// IsTerminal returns true if the phase represents a finished episode
func (p EpisodePhase) IsTerminal() bool {
	return p == PhaseTerminal
}

// CanReceiveActions returns true if the episode can process steps in this phase
func (p EpisodePhase) CanReceiveActions() bool {
	return p == PhaseRunning
}

// AllowedTransitions returns the valid phases this phase can transition to
func (p EpisodePhase) AllowedTransitions() []EpisodePhase {
	switch p {
	case PhaseInitializing:
		return []EpisodePhase{PhaseRunning}
	case PhaseRunning:
		return []EpisodePhase{PhaseTerminal, PhaseInitializing}
	case PhaseTerminal:
		return []EpisodePhase{PhaseInitializing}
	default:
		return []EpisodePhase{}
	}
}

// CanTransitionTo checks if a transition from this phase to the target phase is allowed
func (p EpisodePhase) CanTransitionTo(target EpisodePhase) bool {
	for _, phase := range p.AllowedTransitions() {
		if phase == target {
			return true
		}
	}
	return false
}

// ParsePhase converts a string to an EpisodePhase
func ParsePhase(s string) EpisodePhase {
	switch s {
	case "Running":
		return PhaseRunning
	case "Terminal":
		return PhaseTerminal
	default:
		return PhaseInitializing // Default to initializing for unknown phases
	}
}
