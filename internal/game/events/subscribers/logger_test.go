package subscribers_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/events"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/events/subscribers"
)

func TestLoggerSubscriber(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Timestamp().Logger()

	logSub := subscribers.NewLoggerSubscriber("test-logger", logger, zerolog.InfoLevel)

	assert.Equal(t, "test-logger", logSub.ID())

	// Interested in everything by default
	assert.True(t, logSub.InterestedIn(events.TypeEpisodeStarted))
	assert.True(t, logSub.InterestedIn(events.TypeMoldMoved))
	assert.True(t, logSub.InterestedIn("any.event.type"))
}

func TestLoggerSubscriberEventLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	logSub := subscribers.NewLoggerSubscriber("event-logger", logger, zerolog.InfoLevel)

	testCases := []struct {
		name  string
		event events.Event
		check func(t *testing.T, logLine map[string]interface{})
	}{
		{
			name:  "EpisodeStartedEvent",
			event: events.NewEpisodeStartedEvent(7, 11, 11, 10),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, float64(11), logLine["width"])
				assert.Equal(t, float64(11), logLine["height"])
				assert.Equal(t, float64(10), logLine["barriers"])
			},
		},
		{
			name:  "EpisodeEndedEvent",
			event: events.NewEpisodeEndedEvent(7, "tie", 5, -87, 26, 2*time.Second),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, "tie", logLine["outcome"])
				assert.Equal(t, float64(5), logLine["outcome_code"])
				assert.Equal(t, float64(-87), logLine["reward"])
				assert.Equal(t, float64(26), logLine["frames"])
				assert.Equal(t, float64(2000), logLine["duration"]) // 2 seconds in ms
			},
		},
		{
			name:  "MoldMovedEvent",
			event: events.NewMoldMovedEvent(7, 3, core.Position{X: 10, Y: 10}, core.Position{X: 10, Y: 8}, true),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, float64(3), logLine["frame"])
				assert.Equal(t, float64(10), logLine["from_y"])
				assert.Equal(t, float64(8), logLine["to_y"])
				assert.Equal(t, true, logLine["moved"])
			},
		},
		{
			name:  "ToasterDeducedEvent",
			event: events.NewToasterDeducedEvent(7, 4, core.Position{X: 2, Y: 6}),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, float64(2), logLine["location_x"])
				assert.Equal(t, float64(6), logLine["location_y"])
			},
		},
		{
			name:  "DeductionConflictEvent",
			event: events.NewDeductionConflictEvent(7, 9, "butter"),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, "butter", logLine["target"])
			},
		},
		{
			name:  "StateTransitionEvent",
			event: events.NewStateTransitionEvent(7, "Running", "Terminal", "player_hit_mold"),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, "Running", logLine["from_phase"])
				assert.Equal(t, "Terminal", logLine["to_phase"])
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf.Reset()
			logSub.HandleEvent(tc.event)

			logOutput := buf.String()
			require.NotEmpty(t, logOutput, "Log output should not be empty")

			var logLine map[string]interface{}
			err := json.Unmarshal([]byte(logOutput), &logLine)
			require.NoError(t, err, "Should be able to parse log output as JSON")

			assert.Equal(t, "info", logLine["level"])
			assert.Equal(t, "Maze event", logLine["message"])
			assert.Equal(t, tc.event.Type(), logLine["event_type"])
			assert.Equal(t, float64(7), logLine["episode"])

			tc.check(t, logLine)
		})
	}
}

func TestLoggerSubscriberWithFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	logSub := subscribers.NewLoggerSubscriber("filtered-logger", logger, zerolog.InfoLevel)
	logSub.SetEventFilter([]string{events.TypeEpisodeStarted, events.TypeEpisodeEnded})

	assert.True(t, logSub.InterestedIn(events.TypeEpisodeStarted))
	assert.True(t, logSub.InterestedIn(events.TypeEpisodeEnded))
	assert.False(t, logSub.InterestedIn(events.TypeStepProcessed))
	assert.False(t, logSub.InterestedIn(events.TypeMoldMoved))

	logSub.SetEventFilter(nil)
	assert.True(t, logSub.InterestedIn(events.TypeMoldMoved), "clearing the filter logs everything again")
}

func TestLoggerSubscriberLogLevels(t *testing.T) {
	testCases := []struct {
		name     string
		logLevel zerolog.Level
		expected string
	}{
		{"Debug", zerolog.DebugLevel, "debug"},
		{"Info", zerolog.InfoLevel, "info"},
		{"Warn", zerolog.WarnLevel, "warn"},
		{"Error", zerolog.ErrorLevel, "error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)

			logSub := subscribers.NewLoggerSubscriber("level-logger", logger, tc.logLevel)
			logSub.HandleEvent(events.NewEpisodeStartedEvent(1, 11, 11, 10))

			var logLine map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &logLine))
			assert.Equal(t, tc.expected, logLine["level"])
		})
	}
}

func TestLoggerSubscriberDevelopmentMode(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	logSub := subscribers.NewLoggerSubscriber("dev-logger", logger, zerolog.InfoLevel)
	logSub.SetDevMode(true)

	logSub.HandleEvent(events.NewBarrierRevealedEvent(2, 1, core.Position{X: 1, Y: 0}))

	logOutput := buf.String()
	require.NotEmpty(t, logOutput)
	assert.Contains(t, logOutput, "event_data")

	var logLine map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logLine))

	eventData, ok := logLine["event_data"]
	require.True(t, ok, "event_data should be present")

	eventDataBytes, err := json.Marshal(eventData)
	require.NoError(t, err)
	assert.Contains(t, string(eventDataBytes), "barrier.revealed")
	assert.Contains(t, string(eventDataBytes), "Barrier")
}

func TestStatsSubscriber(t *testing.T) {
	bus := events.NewEventBusWithLogger(zerolog.Nop())
	stats := subscribers.NewStatsSubscriber("stats")
	bus.Subscribe(stats)

	assert.False(t, stats.InterestedIn(events.TypeStepProcessed))

	bus.Publish(events.NewEpisodeEndedEvent(1, "player_reached_butter", 1, 120, 6, time.Second))
	bus.Publish(events.NewEpisodeEndedEvent(2, "tie", 5, -80, 26, time.Second))
	bus.Publish(events.NewEpisodeEndedEvent(3, "tie", 5, -90, 26, time.Second))
	bus.Publish(events.NewDeductionConflictEvent(3, 4, "toaster"))
	bus.Publish(events.NewActionRejectedEvent(3, 4, "up", "known barrier"))
	bus.Publish(events.NewStepProcessedEvent(3, 4, "down", core.Position{}, 1, 1, false))

	snap := stats.Snapshot()
	assert.Equal(t, 3, snap.Episodes)
	assert.Equal(t, 1, snap.ByCode[1])
	assert.Equal(t, 2, snap.ByCode[5])
	assert.Equal(t, 1, snap.Conflicts)
	assert.Equal(t, 1, snap.Rejected)
	assert.InDelta(t, -50.0, snap.Reward, 1e-9)

	snap.ByCode[1] = 99
	assert.Equal(t, 1, stats.Snapshot().ByCode[1], "Snapshot must return a copy")
}
