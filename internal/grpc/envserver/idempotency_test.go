package envserver

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestIdempotencyCache_StoreAndCheck(t *testing.T) {
	c := NewIdempotencyCache(time.Minute)
	resp := &structpb.Struct{Fields: map[string]*structpb.Value{"frame": structpb.NewNumberValue(3)}}

	assert.Nil(t, c.Check("env", "req-1"))

	c.Store("env", "req-1", resp)
	got := c.Check("env", "req-1")
	require.NotNil(t, got)
	assert.Equal(t, 3.0, got.Fields["frame"].GetNumberValue())

	// stored and returned values are copies
	resp.Fields["frame"] = structpb.NewNumberValue(99)
	got.Fields["frame"] = structpb.NewNumberValue(42)
	assert.Equal(t, 3.0, c.Check("env", "req-1").Fields["frame"].GetNumberValue())

	// keys are scoped per environment
	assert.Nil(t, c.Check("other", "req-1"))
}

func TestIdempotencyCache_EmptyKeyIgnored(t *testing.T) {
	c := NewIdempotencyCache(0)
	c.Store("env", "", &structpb.Struct{})
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.Check("env", ""))
}

func TestIdempotencyCache_Expiry(t *testing.T) {
	c := NewIdempotencyCache(time.Minute)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.Store("env", "old", &structpb.Struct{})
	clock = clock.Add(2 * time.Minute)
	assert.Nil(t, c.Check("env", "old"))

	// crossing the size threshold sweeps expired entries
	for i := 0; i < idempotencyCleanupAt; i++ {
		c.Store("env", fmt.Sprintf("req-%d", i), &structpb.Struct{})
	}
	assert.Equal(t, idempotencyCleanupAt, c.Len())
}

func TestIdempotencyCache_Forget(t *testing.T) {
	c := NewIdempotencyCache(0)
	c.Store("a", "1", &structpb.Struct{})
	c.Store("a", "2", &structpb.Struct{})
	c.Store("b", "1", &structpb.Struct{})

	c.Forget("a")
	assert.Equal(t, 1, c.Len())
	assert.NotNil(t, c.Check("b", "1"))
}

func TestStep_RequestIDReplaysResponse(t *testing.T) {
	client, _ := setupTestServer(t, 0)
	ctx := context.Background()
	id := createEnv(t, client, map[string]interface{}{"barriers": 0, "seed": 5})

	req := mustStruct(t, map[string]interface{}{"env_id": id, "action": 1, "request_id": "step-1"})
	first, err := client.Step(ctx, req)
	require.NoError(t, err)
	second, err := client.Step(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, 1.0, second.Fields["frame"].GetNumberValue())
	assert.Equal(t, first.Fields["reward"].GetNumberValue(), second.Fields["reward"].GetNumberValue())

	obs, err := client.Observe(ctx, mustStruct(t, map[string]interface{}{"env_id": id}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, obs.Fields["frame"].GetNumberValue())
}
