package subscribers

import (
	"encoding/json"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/events"
	"github.com/rs/zerolog"
)

// LoggerSubscriber logs events to structured logs
type LoggerSubscriber struct {
	id              string
	logger          zerolog.Logger
	logLevel        zerolog.Level
	eventTypeFilter map[string]bool // If non-nil, only log these event types
	devMode         bool            // If true, log full event details
}

// NewLoggerSubscriber creates a new logger subscriber
func NewLoggerSubscriber(id string, logger zerolog.Logger, logLevel zerolog.Level) *LoggerSubscriber {
	return &LoggerSubscriber{
		id:       id,
		logger:   logger.With().Str("subscriber", "event_logger").Logger(),
		logLevel: logLevel,
	}
}

// ID returns the subscriber's unique identifier
func (ls *LoggerSubscriber) ID() string {
	return ls.id
}

// SetEventFilter sets which event types to log (nil means log all)
func (ls *LoggerSubscriber) SetEventFilter(eventTypes []string) {
	if len(eventTypes) == 0 {
		ls.eventTypeFilter = nil
		return
	}

	ls.eventTypeFilter = make(map[string]bool)
	for _, eventType := range eventTypes {
		ls.eventTypeFilter[eventType] = true
	}
}

// SetDevMode enables or disables development mode logging
func (ls *LoggerSubscriber) SetDevMode(enabled bool) {
	ls.devMode = enabled
}

// InterestedIn returns true if the subscriber wants to receive this event type
func (ls *LoggerSubscriber) InterestedIn(eventType string) bool {
	// If no filter is set, interested in all events
	if ls.eventTypeFilter == nil {
		return true
	}
	return ls.eventTypeFilter[eventType]
}

// HandleEvent processes an event by logging it
func (ls *LoggerSubscriber) HandleEvent(event events.Event) {
	eventLogger := ls.logger.With().
		Str("event_type", event.Type()).
		Int("episode", event.EpisodeID()).
		Time("timestamp", event.Timestamp()).
		Logger()

	// Create the base event log
	var logEvent *zerolog.Event
	switch ls.logLevel {
	case zerolog.DebugLevel:
		logEvent = eventLogger.Debug()
	case zerolog.InfoLevel:
		logEvent = eventLogger.Info()
	case zerolog.WarnLevel:
		logEvent = eventLogger.Warn()
	case zerolog.ErrorLevel:
		logEvent = eventLogger.Error()
	default:
		logEvent = eventLogger.Info()
	}

	// Add event-specific fields based on type
	switch e := event.(type) {
	case *events.EpisodeStartedEvent:
		logEvent.
			Int("width", e.Width).
			Int("height", e.Height).
			Int("barriers", e.Barriers)

	case *events.EpisodeEndedEvent:
		logEvent.
			Str("outcome", e.Outcome).
			Int("outcome_code", e.OutcomeCode).
			Float64("reward", e.Reward).
			Int("frames", e.Frames).
			Dur("duration", e.Duration)

	case *events.StepProcessedEvent:
		logEvent.
			Int("frame", e.Frame).
			Str("action", e.Action).
			Int("player_x", e.Player.X).
			Int("player_y", e.Player.Y).
			Float64("delta", e.Delta).
			Float64("total", e.Total).
			Bool("done", e.Done)

	case *events.ActionRejectedEvent:
		logEvent.
			Int("frame", e.Frame).
			Str("action", e.Action).
			Str("reason", e.Reason)

	case *events.BarrierRevealedEvent:
		logEvent.
			Int("frame", e.Frame).
			Int("barrier_x", e.Barrier.X).
			Int("barrier_y", e.Barrier.Y)

	case *events.HeatDiscoveredEvent:
		logEvent.
			Int("frame", e.Frame).
			Int("cell_x", e.Cell.X).
			Int("cell_y", e.Cell.Y).
			Int("candidates", e.Candidates)

	case *events.GoalDeducedEvent:
		logEvent.
			Int("frame", e.Frame).
			Int("location_x", e.Location.X).
			Int("location_y", e.Location.Y)

	case *events.DeductionConflictEvent:
		logEvent.
			Int("frame", e.Frame).
			Str("target", e.Target)

	case *events.MoldMovedEvent:
		logEvent.
			Int("frame", e.Frame).
			Int("from_x", e.From.X).
			Int("from_y", e.From.Y).
			Int("to_x", e.To.X).
			Int("to_y", e.To.Y).
			Bool("moved", e.Moved)

	case *events.StateTransitionEvent:
		logEvent.
			Str("from_phase", e.FromPhase).
			Str("to_phase", e.ToPhase).
			Str("reason", e.Reason)
	}

	// In dev mode, also log the full event as JSON
	if ls.devMode {
		if jsonData, err := json.Marshal(event); err == nil {
			logEvent.RawJSON("event_data", jsonData)
		}
	}

	// Send the log
	logEvent.Msg("Maze event")
}
