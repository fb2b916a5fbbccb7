package core

import "sort"

// PositionSet is a small set of positions that always iterates in (X, Y) order,
// so encodings built from it are stable across runs.
type PositionSet struct {
	items []Position
}

// NewPositionSet creates a set holding the given positions
func NewPositionSet(positions ...Position) *PositionSet {
	s := &PositionSet{items: make([]Position, 0, len(positions))}
	for _, p := range positions {
		s.Add(p)
	}
	return s
}

func (s *PositionSet) search(p Position) int {
	return sort.Search(len(s.items), func(i int) bool {
		return !s.items[i].Less(p)
	})
}

// Add inserts p and reports whether it was not already present
func (s *PositionSet) Add(p Position) bool {
	i := s.search(p)
	if i < len(s.items) && s.items[i] == p {
		return false
	}
	s.items = append(s.items, Position{})
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = p
	return true
}

// Remove deletes p and reports whether it was present
func (s *PositionSet) Remove(p Position) bool {
	i := s.search(p)
	if i >= len(s.items) || s.items[i] != p {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

// Contains reports whether p is in the set
func (s *PositionSet) Contains(p Position) bool {
	i := s.search(p)
	return i < len(s.items) && s.items[i] == p
}

// Len returns the number of elements
func (s *PositionSet) Len() int {
	return len(s.items)
}

// Items returns a sorted copy of the elements
func (s *PositionSet) Items() []Position {
	out := make([]Position, len(s.items))
	copy(out, s.items)
	return out
}

// Only returns the single element when the set has exactly one.
func (s *PositionSet) Only() (Position, bool) {
	if len(s.items) != 1 {
		return Position{}, false
	}
	return s.items[0], true
}

// Retain keeps only the elements accepted by keep. If nothing would survive,
// the set is left untouched and Retain returns false.
func (s *PositionSet) Retain(keep func(Position) bool) bool {
	kept := make([]Position, 0, len(s.items))
	for _, p := range s.items {
		if keep(p) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 && len(s.items) > 0 {
		return false
	}
	s.items = kept
	return true
}

// Clone returns an independent copy
func (s *PositionSet) Clone() *PositionSet {
	return &PositionSet{items: s.Items()}
}
