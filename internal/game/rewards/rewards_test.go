package rewards

import (
	"testing"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/rules"
	"github.com/stretchr/testify/assert"
)

func sum(deltas []Delta) float64 {
	total := 0.0
	for _, d := range deltas {
		total += d.Value
	}
	return total
}

func TestShaper_Visits(t *testing.T) {
	s := NewShaper(DefaultConfig())

	assert.Equal(t, 2.0, s.PlayerVisit(false).Value)
	assert.Equal(t, -1.0, s.PlayerVisit(true).Value)
	assert.Equal(t, 2.0, s.MoldVisit(false).Value)
	assert.Equal(t, -1.0, s.MoldVisit(true).Value)
	assert.Equal(t, 2.0, s.HeatDiscovered().Value)
	assert.Equal(t, 15.0, s.ToasterKnown().Value)
	assert.Equal(t, 10.0, s.ButterKnown().Value)
}

func TestShaper_PlayerMove(t *testing.T) {
	s := NewShaper(DefaultConfig())

	toaster := core.Position{X: 4, Y: 0}
	mold := core.Position{X: 10, Y: 10}
	butter := core.Position{X: 0, Y: 6}

	// (0,0) -> (2,0): closer to toaster, closer to mold, farther from butter
	deltas := s.PlayerMove(core.Position{X: 0, Y: 0}, core.Position{X: 2, Y: 0}, toaster, mold, butter)
	assert.Len(t, deltas, 3)
	assert.Equal(t, 1.0-2.0-3.0, sum(deltas))

	// (0,0) -> (0,2): farther from toaster, closer to mold, closer to butter
	deltas = s.PlayerMove(core.Position{X: 0, Y: 0}, core.Position{X: 0, Y: 2}, toaster, mold, butter)
	assert.Equal(t, -1.0-2.0+3.0, sum(deltas))
	assert.Equal(t, "player_toaster_farther", deltas[0].Reason)

	// unchanged distance yields nothing
	deltas = s.PlayerMove(core.Position{X: 2, Y: 2}, core.Position{X: 2, Y: 2}, toaster, mold, butter)
	assert.Empty(t, deltas)
}

func TestShaper_MoldMove(t *testing.T) {
	s := NewShaper(DefaultConfig())

	toaster := core.Position{X: 10, Y: 0}
	player := core.Position{X: 0, Y: 0}
	butter := core.Position{X: 10, Y: 4}

	// (10,10) -> (10,8): closer to toaster, closer to player, closer to butter
	deltas := s.MoldMove(core.Position{X: 10, Y: 10}, core.Position{X: 10, Y: 8}, toaster, player, butter)
	assert.Equal(t, 2.0-2.0-2.0, sum(deltas))

	// (10,2) -> (10,0) with butter below: farther from butter
	deltas = s.MoldMove(core.Position{X: 10, Y: 2}, core.Position{X: 10, Y: 0}, toaster, player, butter)
	assert.Equal(t, 2.0-2.0+2.0, sum(deltas))
}

func TestShaper_Terminal(t *testing.T) {
	s := NewShaper(DefaultConfig())

	tests := []struct {
		outcome rules.Outcome
		want    float64
	}{
		{rules.OutcomePlayerReachedButter, 100},
		{rules.OutcomeMoldReachedToaster, 150},
		{rules.OutcomePlayerHitMold, -100},
		{rules.OutcomeMoldReachedButter, -100},
		{rules.OutcomeTie, -100},
		{rules.OutcomeNone, 0},
	}
	for _, tt := range tests {
		t.Run(tt.outcome.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, s.Terminal(tt.outcome).Value)
		})
	}
}

func TestShaper_CustomConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tie = -5
	cfg.PlayerNewCell = 0.5
	s := NewShaper(cfg)

	assert.Equal(t, -5.0, s.Terminal(rules.OutcomeTie).Value)
	assert.Equal(t, 0.5, s.PlayerVisit(false).Value)
	assert.Equal(t, cfg, s.Config())
}

func TestLedger(t *testing.T) {
	l := NewLedger()

	got := l.Apply(1, Delta{"a", 2}, Delta{"b", -3})
	assert.Equal(t, -1.0, got)
	l.Apply(2, Delta{"c", 15})

	assert.Equal(t, 14.0, l.Sum())
	assert.Equal(t, -1.0, l.FrameSum(1))
	assert.Equal(t, 15.0, l.FrameSum(2))
	assert.Len(t, l.Entries(), 3)
	assert.Equal(t, Entry{Frame: 2, Reason: "c", Value: 15}, l.Entries()[2])

	l.Reset()
	assert.Zero(t, l.Sum())
	assert.Empty(t, l.Entries())
}
