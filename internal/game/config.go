package game

import (
	"errors"
	"math/rand"
	"time"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/config"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/events"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/mapgen"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/rewards"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/rules"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidAction = errors.New("invalid action")
	ErrEpisodeOver   = errors.New("episode is over")
	ErrInvalidLayout = errors.New("invalid layout")
)

// Layout is the set of barriers and hidden goals drawn for one episode
type Layout = mapgen.Layout

// Outcome is the terminal result of an episode
type Outcome = rules.Outcome

const (
	OutcomeNone                = rules.OutcomeNone
	OutcomePlayerReachedButter = rules.OutcomePlayerReachedButter
	OutcomeMoldReachedToaster  = rules.OutcomeMoldReachedToaster
	OutcomePlayerHitMold       = rules.OutcomePlayerHitMold
	OutcomeMoldReachedButter   = rules.OutcomeMoldReachedButter
	OutcomeTie                 = rules.OutcomeTie
)

// Config holds everything the engine needs to run episodes
type Config struct {
	Width       int
	Height      int
	Barriers    int
	StepBudget  int
	RetryBudget int
	// ToasterTrap makes a player standing on the toaster after the mold's move
	// skip its next movement.
	ToasterTrap bool
	Rewards     rewards.Config

	Rng                 *rand.Rand
	Logger              zerolog.Logger
	EventBus            *events.EventBus
	ExperienceCollector ExperienceCollector
}

// DefaultConfig returns the standard 6x6-node maze with ten barriers
func DefaultConfig() Config {
	return Config{
		Width:       11,
		Height:      11,
		Barriers:    10,
		StepBudget:  25,
		RetryBudget: 25,
		Rewards:     rewards.DefaultConfig(),
		Logger:      log.Logger,
	}
}

// ConfigFromSettings builds an engine config from the loaded application config.
// A zero seed means a time-based seed.
func ConfigFromSettings(c *config.Config) Config {
	seed := c.Game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return Config{
		Width:       c.Game.Width,
		Height:      c.Game.Height,
		Barriers:    c.Game.Barriers,
		StepBudget:  c.Game.StepBudget,
		RetryBudget: c.Game.RetryBudget,
		ToasterTrap: c.Game.ToasterTrap,
		Rewards:     c.Game.Rewards,
		Rng:         rand.New(rand.NewSource(seed)),
		Logger:      log.Logger,
	}
}
