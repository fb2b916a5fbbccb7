package subscribers

import (
	"sync"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/events"
)

// OutcomeCounts is a snapshot of the outcome statistics collected so far
type OutcomeCounts struct {
	Episodes  int
	ByCode    map[int]int
	Conflicts int
	Rejected  int
	Reward    float64
}

// StatsSubscriber counts episode outcomes and diagnostics across episodes
type StatsSubscriber struct {
	id        string
	mu        sync.Mutex
	episodes  int
	byCode    map[int]int
	conflicts int
	rejected  int
	reward    float64
}

// NewStatsSubscriber creates a new stats subscriber
func NewStatsSubscriber(id string) *StatsSubscriber {
	return &StatsSubscriber{
		id:     id,
		byCode: make(map[int]int),
	}
}

// ID returns the subscriber's unique identifier
func (s *StatsSubscriber) ID() string {
	return s.id
}

// InterestedIn returns true for the events that feed the counters
func (s *StatsSubscriber) InterestedIn(eventType string) bool {
	switch eventType {
	case events.TypeEpisodeEnded, events.TypeDeductionConflict, events.TypeActionRejected:
		return true
	default:
		return false
	}
}

// HandleEvent updates the counters
func (s *StatsSubscriber) HandleEvent(event events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e := event.(type) {
	case *events.EpisodeEndedEvent:
		s.episodes++
		s.byCode[e.OutcomeCode]++
		s.reward += e.Reward
	case *events.DeductionConflictEvent:
		s.conflicts++
	case *events.ActionRejectedEvent:
		s.rejected++
	}
}

// Snapshot returns a copy of the counters
func (s *StatsSubscriber) Snapshot() OutcomeCounts {
	s.mu.Lock()
	defer s.mu.Unlock()

	byCode := make(map[int]int, len(s.byCode))
	for k, v := range s.byCode {
		byCode[k] = v
	}
	return OutcomeCounts{
		Episodes:  s.episodes,
		ByCode:    byCode,
		Conflicts: s.conflicts,
		Rejected:  s.rejected,
		Reward:    s.reward,
	}
}
