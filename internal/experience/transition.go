package experience

import (
	"time"

	"github.com/google/uuid"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game"
)

// Transition is one (state, action, reward, next state) sample
type Transition struct {
	ID          string    `json:"id"`
	EpisodeID   int       `json:"episode_id"`
	Step        int       `json:"step"`
	State       []float32 `json:"state"`
	Action      int       `json:"action"`
	Reward      float64   `json:"reward"`
	NextState   []float32 `json:"next_state"`
	Done        bool      `json:"done"`
	Outcome     int       `json:"outcome"`
	ActionMask  []bool    `json:"action_mask,omitempty"`
	CollectedAt time.Time `json:"collected_at"`
}

// NewTransition builds a transition from an engine step record
func NewTransition(rec game.StepRecord) Transition {
	return Transition{
		ID:          uuid.New().String(),
		EpisodeID:   rec.Episode,
		Step:        rec.Frame,
		State:       rec.State,
		Action:      rec.Action.Index(),
		Reward:      rec.Reward,
		NextState:   rec.NextState,
		Done:        rec.Done,
		Outcome:     rec.Outcome.Code(),
		ActionMask:  rec.NextMask,
		CollectedAt: time.Now(),
	}
}
