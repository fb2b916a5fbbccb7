package states

import (
	"time"

	"github.com/rs/zerolog"
)

// EpisodeContext provides episode information to states for making decisions
type EpisodeContext struct {
	// Episode is the id passed to reset
	Episode int

	// Logger for state-specific logging
	Logger zerolog.Logger

	// StartTime is when PhaseRunning was entered
	StartTime time.Time

	// Frames is the number of accepted steps so far
	Frames int

	// Outcome names the terminal outcome once one is reached
	Outcome string

	// Metadata for custom state data
	Metadata map[string]interface{}
}

// NewEpisodeContext creates a new episode context
func NewEpisodeContext(episode int, logger zerolog.Logger) *EpisodeContext {
	return &EpisodeContext{
		Episode:  episode,
		Logger:   logger,
		Metadata: make(map[string]interface{}),
	}
}

// Renew prepares the context for a new episode
func (ec *EpisodeContext) Renew(episode int) {
	ec.Episode = episode
	ec.StartTime = time.Time{}
	ec.Frames = 0
	ec.Outcome = ""
	ec.Metadata = make(map[string]interface{})
}

// GetElapsedTime returns the time elapsed since the episode started running
func (ec *EpisodeContext) GetElapsedTime() time.Duration {
	if ec.StartTime.IsZero() {
		return 0
	}
	return time.Since(ec.StartTime)
}

// SetMetadata stores custom data for states
func (ec *EpisodeContext) SetMetadata(key string, value interface{}) {
	ec.Metadata[key] = value
}

// GetMetadata retrieves custom data stored by states
func (ec *EpisodeContext) GetMetadata(key string) (interface{}, bool) {
	val, exists := ec.Metadata[key]
	return val, exists
}
