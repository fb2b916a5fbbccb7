package envserver

import (
	"context"
	"net"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game"
)

const bufSize = 1024 * 1024

// setupTestServer creates an in-memory gRPC server for testing
func setupTestServer(t *testing.T, maxEnvs int) (EnvServiceClient, *Server) {
	t.Helper()
	lis := bufconn.Listen(bufSize)
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(
		LoggingInterceptor(zerolog.Nop()),
		RecoveryInterceptor(zerolog.Nop()),
	))

	defaults := game.DefaultConfig()
	manager := NewEnvManager(ManagerOptions{
		MaxEnvs:  maxEnvs,
		Defaults: defaults,
		Logger:   zerolog.Nop(),
	})
	srv := NewServer(manager, zerolog.Nop())
	RegisterEnvServiceServer(s, srv)

	go func() {
		if err := s.Serve(lis); err != nil {
			t.Logf("Server exited with error: %v", err)
		}
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		s.Stop()
		lis.Close()
	})
	return NewEnvServiceClient(conn), srv
}

func mustStruct(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func createEnv(t *testing.T, client EnvServiceClient, fields map[string]interface{}) string {
	t.Helper()
	resp, err := client.CreateEnv(context.Background(), mustStruct(t, fields))
	require.NoError(t, err)
	id := resp.Fields["env_id"].GetStringValue()
	require.NotEmpty(t, id)
	return id
}

func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "not a status error: %v", err)
	assert.Equal(t, code, st.Code(), st.Message())
}

func TestCreateEnv(t *testing.T) {
	client, srv := setupTestServer(t, 0)
	ctx := context.Background()

	resp, err := client.CreateEnv(ctx, mustStruct(t, map[string]interface{}{}))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Fields["env_id"].GetStringValue())
	assert.Equal(t, 288.0, resp.Fields["observation_length"].GetNumberValue())
	assert.Len(t, resp.Fields["observation"].GetListValue().GetValues(), 288)
	assert.Equal(t, 0.0, resp.Fields["frame"].GetNumberValue())
	assert.False(t, resp.Fields["done"].GetBoolValue())
	assert.Equal(t, "Running", resp.Fields["phase"].GetStringValue())

	small, err := client.CreateEnv(ctx, mustStruct(t, map[string]interface{}{
		"width": 5, "height": 5, "barriers": 0, "seed": 42,
	}))
	require.NoError(t, err)
	assert.NotEqual(t, resp.Fields["env_id"].GetStringValue(), small.Fields["env_id"].GetStringValue())
	assert.Less(t, small.Fields["observation_length"].GetNumberValue(), 288.0)

	assert.Equal(t, 2, srv.Manager().Len())
}

func TestCreateEnv_InvalidConfig(t *testing.T) {
	client, _ := setupTestServer(t, 0)
	ctx := context.Background()

	_, err := client.CreateEnv(ctx, mustStruct(t, map[string]interface{}{"width": 4}))
	requireCode(t, err, codes.InvalidArgument)

	_, err = client.CreateEnv(ctx, mustStruct(t, map[string]interface{}{"width": "wide"}))
	requireCode(t, err, codes.InvalidArgument)

	_, err = client.CreateEnv(ctx, mustStruct(t, map[string]interface{}{"height": 7.5}))
	requireCode(t, err, codes.InvalidArgument)

	_, err = client.CreateEnv(ctx, mustStruct(t, map[string]interface{}{"toaster_trap": 1}))
	requireCode(t, err, codes.InvalidArgument)
}

func TestCreateEnv_RejectsOversizedGrid(t *testing.T) {
	client, srv := setupTestServer(t, 0)
	ctx := context.Background()

	tests := []struct {
		name   string
		fields map[string]interface{}
	}{
		{"HugeWidth", map[string]interface{}{"width": 8589934593, "height": 3}},
		{"WidthAboveLimit", map[string]interface{}{"width": DefaultMaxDimension + 2}},
		{"HeightAboveLimit", map[string]interface{}{"height": DefaultMaxDimension + 2}},
		{"TooManyBarriers", map[string]interface{}{"barriers": 61}},
		{"BarriersForSmallGrid", map[string]interface{}{"width": 3, "height": 3, "barriers": 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CreateEnv(ctx, mustStruct(t, tt.fields))
			requireCode(t, err, codes.InvalidArgument)
		})
	}
	assert.Equal(t, 0, srv.Manager().Len())

	// the limit itself and a full barrier set are accepted
	createEnv(t, client, map[string]interface{}{"width": DefaultMaxDimension, "height": 3, "barriers": 0})
	createEnv(t, client, map[string]interface{}{"width": 3, "height": 3, "barriers": 2})
	assert.Equal(t, 2, srv.Manager().Len())
}

func TestCreateEnv_Capacity(t *testing.T) {
	client, _ := setupTestServer(t, 1)

	createEnv(t, client, map[string]interface{}{})
	_, err := client.CreateEnv(context.Background(), mustStruct(t, map[string]interface{}{}))
	requireCode(t, err, codes.ResourceExhausted)
}

func TestStep(t *testing.T) {
	client, _ := setupTestServer(t, 0)
	ctx := context.Background()
	id := createEnv(t, client, map[string]interface{}{"barriers": 0, "seed": 7})

	resp, err := client.Step(ctx, mustStruct(t, map[string]interface{}{"env_id": id, "action": 1}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, resp.Fields["frame"].GetNumberValue())
	assert.False(t, resp.Fields["forced"].GetBoolValue())
	assert.Len(t, resp.Fields["action_mask"].GetListValue().GetValues(), 4)
	assert.NotNil(t, resp.Fields["reward"])

	if !resp.Fields["done"].GetBoolValue() {
		_, err = client.Step(ctx, mustStruct(t, map[string]interface{}{"env_id": id, "direction": "left"}))
		require.NoError(t, err)
	}
}

func TestStep_ActionFormats(t *testing.T) {
	client, _ := setupTestServer(t, 0)
	ctx := context.Background()
	id := createEnv(t, client, map[string]interface{}{"barriers": 0, "seed": 3})

	// a valid one-hot "down" from the start corner
	resp, err := client.Step(ctx, mustStruct(t, map[string]interface{}{
		"env_id": id, "action_one_hot": []interface{}{0, 0, 1, 0},
	}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, resp.Fields["frame"].GetNumberValue())

	tests := []struct {
		name   string
		fields map[string]interface{}
	}{
		{"missing action", map[string]interface{}{"env_id": id}},
		{"action out of range", map[string]interface{}{"env_id": id, "action": 9}},
		{"unknown direction", map[string]interface{}{"env_id": id, "direction": "north"}},
		{"bad one-hot", map[string]interface{}{"env_id": id, "action_one_hot": []interface{}{1, 1, 0, 0}}},
		{"one-hot not a list", map[string]interface{}{"env_id": id, "action_one_hot": "up"}},
		{"missing env id", map[string]interface{}{"action": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Step(ctx, mustStruct(t, tt.fields))
			requireCode(t, err, codes.InvalidArgument)
		})
	}
}

func TestStep_RetryBudgetForcesTie(t *testing.T) {
	client, _ := setupTestServer(t, 0)
	ctx := context.Background()
	id := createEnv(t, client, map[string]interface{}{"barriers": 0, "retry_budget": 3, "seed": 11})
	up := mustStruct(t, map[string]interface{}{"env_id": id, "direction": "up"})

	// up leaves the grid from the start corner
	for i := 0; i < 2; i++ {
		_, err := client.Step(ctx, up)
		requireCode(t, err, codes.InvalidArgument)
	}

	resp, err := client.Step(ctx, up)
	require.NoError(t, err)
	assert.True(t, resp.Fields["forced"].GetBoolValue())
	assert.True(t, resp.Fields["done"].GetBoolValue())
	assert.Equal(t, float64(game.OutcomeTie.Code()), resp.Fields["outcome"].GetNumberValue())
	assert.Equal(t, -100.0, resp.Fields["reward"].GetNumberValue())
	assert.Equal(t, "retry budget exhausted", resp.Fields["reason"].GetStringValue())
	assert.Empty(t, resp.Fields["valid_actions"].GetListValue().GetValues())

	_, err = client.Step(ctx, mustStruct(t, map[string]interface{}{"env_id": id, "direction": "right"}))
	requireCode(t, err, codes.FailedPrecondition)

	obs, err := client.Observe(ctx, mustStruct(t, map[string]interface{}{"env_id": id}))
	require.NoError(t, err)
	stats := obs.Fields["stats"].GetStructValue().GetFields()
	assert.Equal(t, 1.0, stats["episodes"].GetNumberValue())
	assert.Equal(t, 1.0, stats["forced_ties"].GetNumberValue())
	assert.Equal(t, 3.0, stats["rejected"].GetNumberValue())
	assert.Equal(t, 1.0, stats["by_outcome"].GetStructValue().GetFields()["tie"].GetNumberValue())
}

func TestStep_RejectionCounterResetsOnAcceptedStep(t *testing.T) {
	client, _ := setupTestServer(t, 0)
	ctx := context.Background()
	id := createEnv(t, client, map[string]interface{}{"barriers": 0, "retry_budget": 2, "seed": 5})
	up := mustStruct(t, map[string]interface{}{"env_id": id, "direction": "up"})

	_, err := client.Step(ctx, up)
	requireCode(t, err, codes.InvalidArgument)

	resp, err := client.Step(ctx, mustStruct(t, map[string]interface{}{"env_id": id, "direction": "right"}))
	require.NoError(t, err)
	if resp.Fields["done"].GetBoolValue() {
		t.Skip("episode ended on the first move")
	}

	// the player is now on the top row, so up is still off-grid
	_, err = client.Step(ctx, up)
	requireCode(t, err, codes.InvalidArgument)
}

func TestForceTieAndReset(t *testing.T) {
	client, _ := setupTestServer(t, 0)
	ctx := context.Background()
	id := createEnv(t, client, map[string]interface{}{})

	resp, err := client.ForceTie(ctx, mustStruct(t, map[string]interface{}{"env_id": id, "reason": "learner gave up"}))
	require.NoError(t, err)
	assert.True(t, resp.Fields["done"].GetBoolValue())
	assert.Equal(t, "learner gave up", resp.Fields["reason"].GetStringValue())

	_, err = client.ForceTie(ctx, mustStruct(t, map[string]interface{}{"env_id": id}))
	requireCode(t, err, codes.FailedPrecondition)

	reset, err := client.Reset(ctx, mustStruct(t, map[string]interface{}{"env_id": id}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, reset.Fields["episode"].GetNumberValue())
	assert.False(t, reset.Fields["done"].GetBoolValue())
	assert.Equal(t, 0.0, reset.Fields["frame"].GetNumberValue())

	reset, err = client.Reset(ctx, mustStruct(t, map[string]interface{}{"env_id": id, "episode": 40}))
	require.NoError(t, err)
	assert.Equal(t, 40.0, reset.Fields["episode"].GetNumberValue())
}

func TestValidActions(t *testing.T) {
	client, _ := setupTestServer(t, 0)
	ctx := context.Background()
	id := createEnv(t, client, map[string]interface{}{"barriers": 0})

	resp, err := client.ValidActions(ctx, mustStruct(t, map[string]interface{}{"env_id": id}))
	require.NoError(t, err)

	var valid []float64
	for _, v := range resp.Fields["valid_actions"].GetListValue().GetValues() {
		valid = append(valid, v.GetNumberValue())
	}
	// right and down from the start corner
	assert.Equal(t, []float64{1, 2}, valid)

	var mask []bool
	for _, v := range resp.Fields["action_mask"].GetListValue().GetValues() {
		mask = append(mask, v.GetBoolValue())
	}
	assert.Equal(t, []bool{false, true, true, false}, mask)
	assert.False(t, resp.Fields["impossible"].GetBoolValue())
}

func TestCloseEnv(t *testing.T) {
	client, srv := setupTestServer(t, 0)
	ctx := context.Background()
	id := createEnv(t, client, map[string]interface{}{})

	resp, err := client.CloseEnv(ctx, mustStruct(t, map[string]interface{}{"env_id": id}))
	require.NoError(t, err)
	assert.True(t, resp.Fields["closed"].GetBoolValue())
	assert.Equal(t, 0, srv.Manager().Len())

	_, err = client.CloseEnv(ctx, mustStruct(t, map[string]interface{}{"env_id": id}))
	requireCode(t, err, codes.NotFound)

	_, err = client.Observe(ctx, mustStruct(t, map[string]interface{}{"env_id": id}))
	requireCode(t, err, codes.NotFound)
}

func TestUnknownEnv(t *testing.T) {
	client, _ := setupTestServer(t, 0)
	ctx := context.Background()
	req := mustStruct(t, map[string]interface{}{"env_id": "missing", "action": 0})

	_, err := client.Reset(ctx, req)
	requireCode(t, err, codes.NotFound)
	_, err = client.Step(ctx, req)
	requireCode(t, err, codes.NotFound)
	_, err = client.ValidActions(ctx, req)
	requireCode(t, err, codes.NotFound)
	_, err = client.ForceTie(ctx, req)
	requireCode(t, err, codes.NotFound)
}

func TestRecoveryInterceptor(t *testing.T) {
	interceptor := RecoveryInterceptor(zerolog.Nop())
	info := &grpc.UnaryServerInfo{FullMethod: StepFullMethodName}

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		panic("boom")
	})
	requireCode(t, err, codes.Internal)
}
