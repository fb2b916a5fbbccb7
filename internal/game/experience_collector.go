package game

import "github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"

// StepRecord is one accepted transition as seen by the learner
type StepRecord struct {
	Episode   int
	Frame     int
	State     []float32
	Action    core.Direction
	Reward    float64
	NextState []float32
	Done      bool
	Outcome   Outcome
	// NextMask is the legal action mask after the step, in action-index order.
	NextMask []bool
}

// ExperienceCollector is an interface for collecting experiences during gameplay
type ExperienceCollector interface {
	// OnStep is called after every accepted or forced step
	OnStep(record StepRecord)

	// OnEpisodeEnd is called once when the episode reaches a terminal outcome
	OnEpisodeEnd(episode int, outcome Outcome, reward float64)
}
