package mapgen

import (
	"math/rand"
	"testing"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRNG provides a random number generator with a fixed seed for deterministic tests.
func newTestRNG() *rand.Rand {
	return rand.New(rand.NewSource(12345))
}

func TestDefaultMapConfig(t *testing.T) {
	config := DefaultMapConfig(11, 11)

	assert.Equal(t, 11, config.Width)
	assert.Equal(t, 11, config.Height)
	assert.Equal(t, 10, config.Barriers)
	assert.Equal(t, []core.Position{{X: 0, Y: 0}, {X: 10, Y: 10}}, config.Reserved)
}

func TestNewGenerator_Validation(t *testing.T) {
	t.Run("EvenDimensions", func(t *testing.T) {
		_, err := NewGenerator(DefaultMapConfig(10, 11), newTestRNG())
		assert.ErrorIs(t, err, core.ErrInvalidDimensions)
	})

	t.Run("TooManyBarriers", func(t *testing.T) {
		config := DefaultMapConfig(5, 5)
		config.Barriers = 13
		_, err := NewGenerator(config, newTestRNG())
		assert.Error(t, err)
	})

	t.Run("AllSlotsAllowed", func(t *testing.T) {
		config := DefaultMapConfig(5, 5)
		config.Barriers = 12
		_, err := NewGenerator(config, newTestRNG())
		assert.NoError(t, err)
	})
}

func TestGenerate_LayoutInvariants(t *testing.T) {
	rng := newTestRNG()
	config := DefaultMapConfig(11, 11)
	generator, err := NewGenerator(config, rng)
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		layout := generator.Generate()

		require.Len(t, layout.Barriers, config.Barriers)
		require.NoError(t, layout.Validate(generator.Grid(), config.Reserved...))

		for _, b := range layout.Barriers {
			assert.False(t, b.IsNode(), "barrier %s must never be a node", b)
		}
		for _, reserved := range config.Reserved {
			assert.NotEqual(t, reserved, layout.Toaster)
			assert.NotEqual(t, reserved, layout.Butter)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	g1, err := NewGenerator(DefaultMapConfig(11, 11), rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	g2, err := NewGenerator(DefaultMapConfig(11, 11), rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		assert.Equal(t, g1.Generate(), g2.Generate(), "same seed must yield the same layout")
	}
}

func TestLayout_Validate(t *testing.T) {
	grid, err := core.NewGrid(11, 11)
	require.NoError(t, err)

	tests := []struct {
		name    string
		layout  Layout
		wantErr error
	}{
		{
			name:   "Valid",
			layout: Layout{Barriers: []core.Position{{X: 1, Y: 0}}, Toaster: core.Position{X: 2, Y: 2}, Butter: core.Position{X: 4, Y: 4}},
		},
		{
			name:    "BarrierOnNode",
			layout:  Layout{Barriers: []core.Position{{X: 2, Y: 0}}, Toaster: core.Position{X: 2, Y: 2}, Butter: core.Position{X: 4, Y: 4}},
			wantErr: core.ErrNotWallSlot,
		},
		{
			name:    "ToasterOnWall",
			layout:  Layout{Toaster: core.Position{X: 1, Y: 2}, Butter: core.Position{X: 4, Y: 4}},
			wantErr: core.ErrNotNode,
		},
		{
			name:    "ButterOutOfBounds",
			layout:  Layout{Toaster: core.Position{X: 2, Y: 2}, Butter: core.Position{X: 12, Y: 4}},
			wantErr: core.ErrNotNode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.Validate(grid)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("DuplicateBarrier", func(t *testing.T) {
		l := Layout{Barriers: []core.Position{{X: 1, Y: 0}, {X: 1, Y: 0}}, Toaster: core.Position{X: 2, Y: 2}, Butter: core.Position{X: 4, Y: 4}}
		assert.Error(t, l.Validate(grid))
	})

	t.Run("GoalOnReservedNode", func(t *testing.T) {
		reserved := []core.Position{{X: 0, Y: 0}, {X: 10, Y: 10}}
		butter := Layout{Toaster: core.Position{X: 6, Y: 6}, Butter: core.Position{X: 10, Y: 10}}
		assert.NoError(t, butter.Validate(grid))
		assert.ErrorIs(t, butter.Validate(grid, reserved...), ErrReservedNode)

		toaster := Layout{Toaster: core.Position{X: 0, Y: 0}, Butter: core.Position{X: 4, Y: 4}}
		assert.ErrorIs(t, toaster.Validate(grid, reserved...), ErrReservedNode)
	})

	t.Run("SharedGoal", func(t *testing.T) {
		l := Layout{Toaster: core.Position{X: 2, Y: 2}, Butter: core.Position{X: 2, Y: 2}}
		assert.Error(t, l.Validate(grid))
	})
}
