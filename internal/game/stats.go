package game

// Diagnostics counts the unusual things that happened in the current episode.
// None of them are errors; they exist so drivers and tests can see them.
type Diagnostics struct {
	// Rejected counts invalid actions refused by Step
	Rejected int
	// ToasterConflicts and ButterConflicts count refused prunes that would have
	// emptied a candidate set
	ToasterConflicts int
	ButterConflicts  int
	// ForcedTies counts ties forced by the caller, BudgetTies ties from the step budget
	ForcedTies int
	BudgetTies int
	// MoldStalls counts mold turns where the chosen move left the grid
	MoldStalls int
	// SkippedMoves counts player moves swallowed by the toaster trap
	SkippedMoves int
}

// Conflicts is the total number of refused prunes
func (d Diagnostics) Conflicts() int {
	return d.ToasterConflicts + d.ButterConflicts
}
