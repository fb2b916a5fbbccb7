package game

import (
	"errors"
	"math/rand"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/rs/zerolog/log"
)

// RandomValidAction picks uniformly among the currently valid actions.
// This is a helper intended for demos, testing, or simple baseline agents.
func RandomValidAction(e *Engine, rng *rand.Rand) (core.Direction, bool) {
	valid := e.ValidActions()
	if len(valid) == 0 {
		return core.Up, false
	}
	return valid[rng.Intn(len(valid))], true
}

// StepWithRetries drives one step the way learners are expected to: choose is
// asked for actions until one is accepted. When the player is boxed in, or
// RetryBudget actions in a row were rejected, the episode is forced to a tie.
// It returns the last attempted action alongside the result.
func StepWithRetries(e *Engine, choose func() core.Direction) (core.Direction, StepResult, error) {
	var action core.Direction
	for attempts := 0; ; attempts++ {
		if e.IsActionImpossible() {
			return action, e.ForceTie("no valid action"), nil
		}
		if attempts >= e.RetryBudget() {
			return action, e.ForceTie("retry budget exhausted"), nil
		}

		action = choose()
		result, err := e.Step(action)
		if err == nil {
			return action, result, nil
		}
		if !errors.Is(err, ErrInvalidAction) {
			return action, result, err
		}
		log.Debug().
			Int("episode", e.EpisodeID()).
			Int("attempt", attempts+1).
			Str("action", action.String()).
			Msg("Action rejected, retrying")
	}
}
