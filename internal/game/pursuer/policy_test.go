package pursuer

import (
	"testing"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPolicy(t *testing.T) *Policy {
	t.Helper()
	g, err := core.NewGrid(11, 11)
	require.NoError(t, err)
	return NewPolicy(g)
}

func TestNextPosition(t *testing.T) {
	p := newPolicy(t)

	tests := []struct {
		name      string
		mold      core.Position
		player    core.Position
		want      core.Position
		wantDir   core.Direction
		wantMoved bool
	}{
		{"SameRowCloses", core.Position{X: 4, Y: 0}, core.Position{X: 0, Y: 0}, core.Position{X: 2, Y: 0}, core.Left, true},
		{"DiagonalPrefersUp", core.Position{X: 4, Y: 4}, core.Position{X: 0, Y: 0}, core.Position{X: 4, Y: 2}, core.Up, true},
		{"DiagonalPrefersDown", core.Position{X: 0, Y: 0}, core.Position{X: 4, Y: 4}, core.Position{X: 0, Y: 2}, core.Down, true},
		{"SameColumnRight", core.Position{X: 0, Y: 6}, core.Position{X: 6, Y: 6}, core.Position{X: 2, Y: 6}, core.Right, true},
		{"FromCorner", core.Position{X: 10, Y: 10}, core.Position{X: 0, Y: 0}, core.Position{X: 10, Y: 8}, core.Up, true},
		{"OffGridStays", core.Position{X: 0, Y: 0}, core.Position{X: 0, Y: 0}, core.Position{X: 0, Y: 0}, core.Up, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, dir, moved := p.NextPosition(tt.mold, tt.player)
			assert.Equal(t, tt.want, next)
			assert.Equal(t, tt.wantDir, dir)
			assert.Equal(t, tt.wantMoved, moved)
		})
	}
}

func TestNextPosition_ScenarioC(t *testing.T) {
	p := newPolicy(t)
	player := core.Position{X: 2, Y: 6}
	mold := core.Position{X: 6, Y: 6}
	require.Equal(t, 4, mold.DistanceTo(player))

	next, _, moved := p.NextPosition(mold, player)
	assert.True(t, moved)
	assert.Less(t, next.DistanceTo(player), mold.DistanceTo(player))
}

func TestNextPosition_AlwaysCloses(t *testing.T) {
	g, err := core.NewGrid(11, 11)
	require.NoError(t, err)
	p := NewPolicy(g)

	for _, mold := range g.Nodes() {
		for _, player := range g.Nodes() {
			if mold == player {
				continue
			}
			next, _, moved := p.NextPosition(mold, player)
			require.True(t, moved, "mold at %s chasing %s must move", mold, player)
			require.Equal(t, mold.DistanceTo(player)-2, next.DistanceTo(player))
		}
	}
}

func TestProjectPath(t *testing.T) {
	path := ProjectPath(core.Position{X: 10, Y: 10}, core.Position{X: 6, Y: 6})
	assert.Equal(t, []core.Position{{X: 10, Y: 8}, {X: 10, Y: 6}, {X: 8, Y: 6}, {X: 6, Y: 6}}, path)

	path = ProjectPath(core.Position{X: 0, Y: 4}, core.Position{X: 4, Y: 0})
	assert.Equal(t, []core.Position{{X: 0, Y: 2}, {X: 0, Y: 0}, {X: 2, Y: 0}, {X: 4, Y: 0}}, path)

	assert.Empty(t, ProjectPath(core.Position{X: 2, Y: 2}, core.Position{X: 2, Y: 2}))
	assert.Len(t, ProjectPath(core.Position{X: 10, Y: 10}, core.Position{X: 0, Y: 0}), 10)
}
