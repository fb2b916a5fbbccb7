package rewards

// Entry is one applied reward delta
type Entry struct {
	Frame  int
	Reason string
	Value  float64
}

// Ledger records every delta applied during an episode. The episode reward is
// always the sum of its entries.
type Ledger struct {
	entries []Entry
	total   float64
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{entries: make([]Entry, 0, 64)}
}

// Apply records the deltas for a frame and returns their sum
func (l *Ledger) Apply(frame int, deltas ...Delta) float64 {
	sum := 0.0
	for _, d := range deltas {
		l.entries = append(l.entries, Entry{Frame: frame, Reason: d.Reason, Value: d.Value})
		sum += d.Value
	}
	l.total += sum
	return sum
}

// Entries returns a copy of the recorded entries
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Sum returns the running total
func (l *Ledger) Sum() float64 { return l.total }

// FrameSum returns the total applied during one frame
func (l *Ledger) FrameSum(frame int) float64 {
	sum := 0.0
	for _, e := range l.entries {
		if e.Frame == frame {
			sum += e.Value
		}
	}
	return sum
}

// Reset clears the ledger for a new episode
func (l *Ledger) Reset() {
	l.entries = l.entries[:0]
	l.total = 0
}
