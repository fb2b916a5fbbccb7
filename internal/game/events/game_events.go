package events

import (
	"time"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
)

// Event type constants
const (
	TypeEpisodeStarted    = "episode.started"
	TypeEpisodeEnded      = "episode.ended"
	TypeStepProcessed     = "step.processed"
	TypeActionRejected    = "action.rejected"
	TypeBarrierRevealed   = "barrier.revealed"
	TypeHeatDiscovered    = "heat.discovered"
	TypeToasterDeduced    = "toaster.deduced"
	TypeButterDeduced     = "butter.deduced"
	TypeDeductionConflict = "deduction.conflict"
	TypeMoldMoved         = "mold.moved"
	TypeStateTransition   = "state.transition"
)

// EpisodeStartedEvent is published when reset draws a new episode
type EpisodeStartedEvent struct {
	BaseEvent
	Width    int
	Height   int
	Barriers int
}

// NewEpisodeStartedEvent creates a new EpisodeStartedEvent
func NewEpisodeStartedEvent(episode, width, height, barriers int) *EpisodeStartedEvent {
	return &EpisodeStartedEvent{
		BaseEvent: newBase(TypeEpisodeStarted, episode),
		Width:     width,
		Height:    height,
		Barriers:  barriers,
	}
}

// EpisodeEndedEvent is published when an episode reaches a terminal outcome
type EpisodeEndedEvent struct {
	BaseEvent
	Outcome     string
	OutcomeCode int
	Reward      float64
	Frames      int
	Duration    time.Duration
}

// NewEpisodeEndedEvent creates a new EpisodeEndedEvent
func NewEpisodeEndedEvent(episode int, outcome string, code int, reward float64, frames int, duration time.Duration) *EpisodeEndedEvent {
	return &EpisodeEndedEvent{
		BaseEvent:   newBase(TypeEpisodeEnded, episode),
		Outcome:     outcome,
		OutcomeCode: code,
		Reward:      reward,
		Frames:      frames,
		Duration:    duration,
	}
}

// StepProcessedEvent is published after every accepted step
type StepProcessedEvent struct {
	BaseEvent
	Frame  int
	Action string
	Player core.Position
	Delta  float64
	Total  float64
	Done   bool
}

// NewStepProcessedEvent creates a new StepProcessedEvent
func NewStepProcessedEvent(episode, frame int, action string, player core.Position, delta, total float64, done bool) *StepProcessedEvent {
	return &StepProcessedEvent{
		BaseEvent: newBase(TypeStepProcessed, episode),
		Frame:     frame,
		Action:    action,
		Player:    player,
		Delta:     delta,
		Total:     total,
		Done:      done,
	}
}

// ActionRejectedEvent is published when an invalid action is refused
type ActionRejectedEvent struct {
	BaseEvent
	Frame  int
	Action string
	Reason string
}

// NewActionRejectedEvent creates a new ActionRejectedEvent
func NewActionRejectedEvent(episode, frame int, action, reason string) *ActionRejectedEvent {
	return &ActionRejectedEvent{
		BaseEvent: newBase(TypeActionRejected, episode),
		Frame:     frame,
		Action:    action,
		Reason:    reason,
	}
}

// BarrierRevealedEvent is published when the player first sees a barrier
type BarrierRevealedEvent struct {
	BaseEvent
	Frame   int
	Barrier core.Position
}

// NewBarrierRevealedEvent creates a new BarrierRevealedEvent
func NewBarrierRevealedEvent(episode, frame int, barrier core.Position) *BarrierRevealedEvent {
	return &BarrierRevealedEvent{
		BaseEvent: newBase(TypeBarrierRevealed, episode),
		Frame:     frame,
		Barrier:   barrier,
	}
}

// HeatDiscoveredEvent is published when the player first stands on a heat cell
type HeatDiscoveredEvent struct {
	BaseEvent
	Frame      int
	Cell       core.Position
	Candidates int
}

// NewHeatDiscoveredEvent creates a new HeatDiscoveredEvent
func NewHeatDiscoveredEvent(episode, frame int, cell core.Position, candidates int) *HeatDiscoveredEvent {
	return &HeatDiscoveredEvent{
		BaseEvent:  newBase(TypeHeatDiscovered, episode),
		Frame:      frame,
		Cell:       cell,
		Candidates: candidates,
	}
}

// GoalDeducedEvent is published when a hidden goal's location becomes known.
// Its type is either TypeToasterDeduced or TypeButterDeduced.
type GoalDeducedEvent struct {
	BaseEvent
	Frame    int
	Location core.Position
}

// NewToasterDeducedEvent creates a GoalDeducedEvent for the toaster
func NewToasterDeducedEvent(episode, frame int, location core.Position) *GoalDeducedEvent {
	return &GoalDeducedEvent{
		BaseEvent: newBase(TypeToasterDeduced, episode),
		Frame:     frame,
		Location:  location,
	}
}

// NewButterDeducedEvent creates a GoalDeducedEvent for the butter
func NewButterDeducedEvent(episode, frame int, location core.Position) *GoalDeducedEvent {
	return &GoalDeducedEvent{
		BaseEvent: newBase(TypeButterDeduced, episode),
		Frame:     frame,
		Location:  location,
	}
}

// DeductionConflictEvent is published when a candidate prune was refused
// because it would have emptied the set
type DeductionConflictEvent struct {
	BaseEvent
	Frame  int
	Target string
}

// NewDeductionConflictEvent creates a new DeductionConflictEvent
func NewDeductionConflictEvent(episode, frame int, target string) *DeductionConflictEvent {
	return &DeductionConflictEvent{
		BaseEvent: newBase(TypeDeductionConflict, episode),
		Frame:     frame,
		Target:    target,
	}
}

// MoldMovedEvent is published after the mold's turn
type MoldMovedEvent struct {
	BaseEvent
	Frame int
	From  core.Position
	To    core.Position
	Moved bool
}

// NewMoldMovedEvent creates a new MoldMovedEvent
func NewMoldMovedEvent(episode, frame int, from, to core.Position, moved bool) *MoldMovedEvent {
	return &MoldMovedEvent{
		BaseEvent: newBase(TypeMoldMoved, episode),
		Frame:     frame,
		From:      from,
		To:        to,
		Moved:     moved,
	}
}

// StateTransitionEvent is published when the episode state machine transitions between phases
type StateTransitionEvent struct {
	BaseEvent
	FromPhase string
	ToPhase   string
	Reason    string
}

// NewStateTransitionEvent creates a new StateTransitionEvent
func NewStateTransitionEvent(episode int, fromPhase, toPhase, reason string) *StateTransitionEvent {
	return &StateTransitionEvent{
		BaseEvent: newBase(TypeStateTransition, episode),
		FromPhase: fromPhase,
		ToPhase:   toPhase,
		Reason:    reason,
	}
}
