package training

import (
	"math/rand"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
)

// Agent chooses actions epsilon-greedily from a QFunction. Exploration decays
// linearly with the number of finished games: epsilon = EpsilonStart - games,
// and a random valid action is taken when a draw from [0, EpsilonRange] falls
// below epsilon.
type Agent struct {
	q            QFunction
	rng          *rand.Rand
	epsilonStart int
	epsilonRange int
	games        int
}

// NewAgent creates an agent
func NewAgent(q QFunction, epsilonStart, epsilonRange int, rng *rand.Rand) *Agent {
	if epsilonRange <= 0 {
		epsilonRange = 200
	}
	return &Agent{
		q:            q,
		rng:          rng,
		epsilonStart: epsilonStart,
		epsilonRange: epsilonRange,
	}
}

// Epsilon returns the current exploration threshold
func (a *Agent) Epsilon() int {
	return a.epsilonStart - a.games
}

// Games returns the number of finished games
func (a *Agent) Games() int { return a.games }

// EndGame advances the exploration schedule
func (a *Agent) EndGame() { a.games++ }

// Act picks an action for state among those enabled in mask. On exploit, the
// highest valued valid action wins. ok is false when no action is valid.
func (a *Agent) Act(state []float32, mask []bool) (d core.Direction, explored bool, ok bool) {
	var valid []core.Direction
	for i, allowed := range mask {
		if allowed && i < len(core.AllDirections) {
			valid = append(valid, core.AllDirections[i])
		}
	}
	if len(valid) == 0 {
		return core.Up, false, false
	}

	if a.rng.Intn(a.epsilonRange+1) < a.Epsilon() {
		return valid[a.rng.Intn(len(valid))], true, true
	}

	for _, idx := range argsortDesc(a.q.Predict(state)) {
		if idx < len(mask) && mask[idx] {
			return core.AllDirections[idx], false, true
		}
	}
	return valid[0], false, true
}
