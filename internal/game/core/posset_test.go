package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionSet_SortedIteration(t *testing.T) {
	s := NewPositionSet(Position{4, 0}, Position{0, 2}, Position{0, 0}, Position{2, 6})

	assert.Equal(t, []Position{{0, 0}, {0, 2}, {2, 6}, {4, 0}}, s.Items())
	assert.Equal(t, 4, s.Len())
}

func TestPositionSet_AddRemove(t *testing.T) {
	s := NewPositionSet()

	assert.True(t, s.Add(Position{2, 2}))
	assert.False(t, s.Add(Position{2, 2}), "duplicate add must report false")
	assert.True(t, s.Contains(Position{2, 2}))

	assert.True(t, s.Remove(Position{2, 2}))
	assert.False(t, s.Remove(Position{2, 2}))
	assert.Equal(t, 0, s.Len())
}

func TestPositionSet_Only(t *testing.T) {
	s := NewPositionSet(Position{6, 6})
	p, ok := s.Only()
	assert.True(t, ok)
	assert.Equal(t, Position{6, 6}, p)

	s.Add(Position{0, 0})
	_, ok = s.Only()
	assert.False(t, ok)
}

func TestPositionSet_Retain(t *testing.T) {
	s := NewPositionSet(Position{0, 0}, Position{2, 0}, Position{4, 0})

	ok := s.Retain(func(p Position) bool { return p.X >= 2 })
	assert.True(t, ok)
	assert.Equal(t, []Position{{2, 0}, {4, 0}}, s.Items())

	ok = s.Retain(func(Position) bool { return false })
	assert.False(t, ok, "a prune that empties the set must be refused")
	assert.Equal(t, 2, s.Len(), "refused prune must leave the set untouched")
}

func TestPositionSet_CloneIsIndependent(t *testing.T) {
	s := NewPositionSet(Position{0, 0})
	c := s.Clone()
	c.Add(Position{2, 2})

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 2, c.Len())

	items := s.Items()
	items[0] = Position{8, 8}
	assert.True(t, s.Contains(Position{0, 0}), "Items must return a copy")
}
