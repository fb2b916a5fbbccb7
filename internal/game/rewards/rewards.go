// Package rewards computes the shaped reward deltas of the maze game.
package rewards

import (
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/rules"
)

// Config holds configurable reward values
type Config struct {
	PlayerNewCell       float64 `mapstructure:"player_new_cell"`
	PlayerRevisit       float64 `mapstructure:"player_revisit"`
	PlayerTowardToaster float64 `mapstructure:"player_toward_toaster"`
	PlayerAwayToaster   float64 `mapstructure:"player_away_toaster"`
	PlayerTowardMold    float64 `mapstructure:"player_toward_mold"`
	PlayerAwayMold      float64 `mapstructure:"player_away_mold"`
	PlayerTowardButter  float64 `mapstructure:"player_toward_butter"`
	PlayerAwayButter    float64 `mapstructure:"player_away_butter"`

	HeatDiscovered float64 `mapstructure:"heat_discovered"`
	ToasterKnown   float64 `mapstructure:"toaster_known"`
	ButterKnown    float64 `mapstructure:"butter_known"`

	MoldNewCell       float64 `mapstructure:"mold_new_cell"`
	MoldRevisit       float64 `mapstructure:"mold_revisit"`
	MoldTowardToaster float64 `mapstructure:"mold_toward_toaster"`
	MoldAwayToaster   float64 `mapstructure:"mold_away_toaster"`
	MoldTowardPlayer  float64 `mapstructure:"mold_toward_player"`
	MoldAwayPlayer    float64 `mapstructure:"mold_away_player"`
	MoldTowardButter  float64 `mapstructure:"mold_toward_butter"`
	MoldAwayButter    float64 `mapstructure:"mold_away_butter"`

	PlayerReachedButter float64 `mapstructure:"player_reached_butter"`
	MoldReachedToaster  float64 `mapstructure:"mold_reached_toaster"`
	PlayerHitMold       float64 `mapstructure:"player_hit_mold"`
	MoldReachedButter   float64 `mapstructure:"mold_reached_butter"`
	Tie                 float64 `mapstructure:"tie"`
}

// DefaultConfig returns the default reward table
func DefaultConfig() Config {
	return Config{
		PlayerNewCell:       2,
		PlayerRevisit:       -1,
		PlayerTowardToaster: 1,
		PlayerAwayToaster:   -1,
		PlayerTowardMold:    -2,
		PlayerAwayMold:      2,
		PlayerTowardButter:  3,
		PlayerAwayButter:    -3,

		HeatDiscovered: 2,
		ToasterKnown:   15,
		ButterKnown:    10,

		MoldNewCell:       2,
		MoldRevisit:       -1,
		MoldTowardToaster: 2,
		MoldAwayToaster:   -2,
		MoldTowardPlayer:  -2,
		MoldAwayPlayer:    2,
		MoldTowardButter:  -2,
		MoldAwayButter:    2,

		PlayerReachedButter: 100,
		MoldReachedToaster:  150,
		PlayerHitMold:       -100,
		MoldReachedButter:   -100,
		Tie:                 -100,
	}
}

// Delta is one shaped reward component with the event that produced it
type Delta struct {
	Reason string
	Value  float64
}

// Shaper turns game events into reward deltas
type Shaper struct {
	config Config
}

// NewShaper creates a shaper for the given reward table
func NewShaper(config Config) *Shaper {
	return &Shaper{config: config}
}

// Config returns the reward table in use
func (s *Shaper) Config() Config { return s.config }

// PlayerVisit is the reward for the player entering a cell
func (s *Shaper) PlayerVisit(revisit bool) Delta {
	if revisit {
		return Delta{Reason: "player_revisit", Value: s.config.PlayerRevisit}
	}
	return Delta{Reason: "player_new_cell", Value: s.config.PlayerNewCell}
}

// PlayerMove returns the distance deltas of a player move. mold is the mold's
// cell at the time the player moved.
func (s *Shaper) PlayerMove(prev, curr, toaster, mold, butter core.Position) []Delta {
	deltas := make([]Delta, 0, 3)
	deltas = appendDistance(deltas, prev, curr, toaster, "player_toaster", s.config.PlayerTowardToaster, s.config.PlayerAwayToaster)
	deltas = appendDistance(deltas, prev, curr, mold, "player_mold", s.config.PlayerTowardMold, s.config.PlayerAwayMold)
	deltas = appendDistance(deltas, prev, curr, butter, "player_butter", s.config.PlayerTowardButter, s.config.PlayerAwayButter)
	return deltas
}

// HeatDiscovered is the one-time reward for finding a heat cell
func (s *Shaper) HeatDiscovered() Delta {
	return Delta{Reason: "heat_discovered", Value: s.config.HeatDiscovered}
}

// ToasterKnown is the one-time reward for settling the toaster location
func (s *Shaper) ToasterKnown() Delta {
	return Delta{Reason: "toaster_known", Value: s.config.ToasterKnown}
}

// ButterKnown is the one-time reward for settling the butter location
func (s *Shaper) ButterKnown() Delta {
	return Delta{Reason: "butter_known", Value: s.config.ButterKnown}
}

// MoldVisit is the reward for the mold entering a cell. Staying put is a revisit.
func (s *Shaper) MoldVisit(revisit bool) Delta {
	if revisit {
		return Delta{Reason: "mold_revisit", Value: s.config.MoldRevisit}
	}
	return Delta{Reason: "mold_new_cell", Value: s.config.MoldNewCell}
}

// MoldMove returns the distance deltas of a mold move
func (s *Shaper) MoldMove(prev, curr, toaster, player, butter core.Position) []Delta {
	deltas := make([]Delta, 0, 3)
	deltas = appendDistance(deltas, prev, curr, toaster, "mold_toaster", s.config.MoldTowardToaster, s.config.MoldAwayToaster)
	deltas = appendDistance(deltas, prev, curr, player, "mold_player", s.config.MoldTowardPlayer, s.config.MoldAwayPlayer)
	deltas = appendDistance(deltas, prev, curr, butter, "mold_butter", s.config.MoldTowardButter, s.config.MoldAwayButter)
	return deltas
}

// Terminal is the reward for ending the episode with the given outcome
func (s *Shaper) Terminal(outcome rules.Outcome) Delta {
	reason := "terminal_" + outcome.String()
	switch outcome {
	case rules.OutcomePlayerReachedButter:
		return Delta{Reason: reason, Value: s.config.PlayerReachedButter}
	case rules.OutcomeMoldReachedToaster:
		return Delta{Reason: reason, Value: s.config.MoldReachedToaster}
	case rules.OutcomePlayerHitMold:
		return Delta{Reason: reason, Value: s.config.PlayerHitMold}
	case rules.OutcomeMoldReachedButter:
		return Delta{Reason: reason, Value: s.config.MoldReachedButter}
	case rules.OutcomeTie:
		return Delta{Reason: reason, Value: s.config.Tie}
	default:
		return Delta{Reason: reason}
	}
}

// appendDistance adds toward when curr is closer to target than prev, away when
// it is farther, and nothing when the distance is unchanged.
func appendDistance(deltas []Delta, prev, curr, target core.Position, reason string, toward, away float64) []Delta {
	before := prev.DistanceTo(target)
	after := curr.DistanceTo(target)
	switch {
	case after < before:
		return append(deltas, Delta{Reason: reason + "_closer", Value: toward})
	case after > before:
		return append(deltas, Delta{Reason: reason + "_farther", Value: away})
	default:
		return deltas
	}
}
