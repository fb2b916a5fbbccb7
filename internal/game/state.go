package game

import (
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/states"
)

// Player is the agent-controlled entity
type Player struct {
	Position core.Position
	Facing   core.Direction
	Visited  *core.PositionSet
	// Waiting is set by the toaster trap; the next movement is skipped.
	Waiting bool
}

// Mold is the pursuer
type Mold struct {
	Position core.Position
	Visited  *core.PositionSet
	// Path is the projected route toward the player. It is a perception
	// feature only.
	Path []core.Position
}

// EpisodeState is the mutable per-episode state owned by the engine
type EpisodeState struct {
	Episode       int
	Frame         int
	Layout        Layout
	Player        Player
	Mold          Mold
	KnownBarriers *core.PositionSet
	Reward        float64
	Outcome       Outcome
}

// StepResult is what the learner gets back from one step
type StepResult struct {
	Delta   float64
	Total   float64
	Done    bool
	Outcome Outcome
}

// Snapshot is a read-only copy of everything a renderer may show. Hidden holds
// the true layout and is only meant for debug overlays.
type Snapshot struct {
	Episode int
	Frame   int
	Phase   states.EpisodePhase
	Outcome Outcome
	Reward  float64

	Width  int
	Height int

	Player        core.Position
	Facing        core.Direction
	Visited       []core.Position
	Mold          core.Position
	MoldVisited   []core.Position
	MoldPath      []core.Position
	KnownBarriers []core.Position

	KnownHeat         []core.Position
	ToasterCandidates []core.Position
	KnowToaster       bool
	ButterCandidates  []core.Position
	KnowButter        bool
	Oracle            [][]int

	Hidden Layout
}
