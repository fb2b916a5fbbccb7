package envserver

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game"
)

// Server implements EnvServiceServer on top of an EnvManager
type Server struct {
	manager     *EnvManager
	idempotency *IdempotencyCache
	logger      zerolog.Logger
}

var _ EnvServiceServer = (*Server)(nil)

// NewServer creates a server
func NewServer(manager *EnvManager, logger zerolog.Logger) *Server {
	return &Server{
		manager:     manager,
		idempotency: NewIdempotencyCache(0),
		logger:      logger.With().Str("component", "env_server").Logger(),
	}
}

// Manager returns the environment manager
func (s *Server) Manager() *EnvManager { return s.manager }

// toStatus maps package and engine errors to gRPC status codes
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrEnvNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrAtCapacity):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, errBadRequest), errors.Is(err, game.ErrInvalidAction), errors.Is(err, game.ErrInvalidLayout):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, game.ErrEpisodeOver):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// lookup resolves env_id and locks the environment; callers must unlock
func (s *Server) lookup(req *structpb.Struct) (*envInstance, error) {
	id, err := requireString(req, fieldEnvID)
	if err != nil {
		return nil, err
	}
	env, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}
	env.mu.Lock()
	env.touch(s.manager.now())
	return env, nil
}

// CreateEnv opens an environment. Optional fields: width, height, barriers,
// step_budget, retry_budget, toaster_trap, seed.
func (s *Server) CreateEnv(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	cfg, seed, err := configFromRequest(s.manager.Defaults(), s.manager.MaxDimension(), req)
	if err != nil {
		return nil, toStatus(err)
	}

	env, err := s.manager.Create(cfg, seed)
	if err != nil {
		if !errors.Is(err, ErrAtCapacity) {
			return nil, status.Errorf(codes.InvalidArgument, "invalid environment config: %v", err)
		}
		return nil, toStatus(err)
	}

	env.mu.Lock()
	defer env.mu.Unlock()
	fields := episodeFields(env)
	fields["observation_length"] = structpb.NewNumberValue(float64(env.engine.ObservationLength()))
	fields["action_count"] = structpb.NewNumberValue(4)
	return &structpb.Struct{Fields: fields}, nil
}

// Reset starts a new episode. The episode id defaults to the next one.
func (s *Server) Reset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	env, err := s.lookup(req)
	if err != nil {
		return nil, toStatus(err)
	}
	defer env.mu.Unlock()

	episode, ok, err := optionalInt(req, fieldEpisode)
	if err != nil {
		return nil, toStatus(err)
	}
	if !ok {
		episode = int64(env.engine.EpisodeID() + 1)
	}

	env.engine.Reset(int(episode))
	env.rejected = 0

	s.logger.Debug().Str("env_id", env.id).Int64("episode", episode).Msg("Environment reset")
	return &structpb.Struct{Fields: episodeFields(env)}, nil
}

// Step applies one action. A rejected action fails with InvalidArgument
// until retry_budget rejections pile up in the same frame, at which point the
// episode is forced to a tie and returned as a normal response with
// "forced": true. A boxed-in player forces the tie immediately. A request
// carrying a request_id already answered for this environment gets the
// cached response without touching the engine.
func (s *Server) Step(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	env, err := s.lookup(req)
	if err != nil {
		return nil, toStatus(err)
	}
	defer env.mu.Unlock()

	requestID := req.GetFields()[fieldRequestID].GetStringValue()
	if cached := s.idempotency.Check(env.id, requestID); cached != nil {
		s.logger.Debug().Str("env_id", env.id).Str("request_id", requestID).Msg("Replaying cached step response")
		return cached, nil
	}

	resp, err := s.step(env, req)
	if err != nil {
		return nil, err
	}
	s.idempotency.Store(env.id, requestID, resp)
	return resp, nil
}

// step runs Step for a locked environment
func (s *Server) step(env *envInstance, req *structpb.Struct) (*structpb.Struct, error) {
	d, err := actionFromRequest(req)
	if err != nil {
		return nil, toStatus(err)
	}

	e := env.engine
	if e.IsDone() {
		return nil, toStatus(game.ErrEpisodeOver)
	}
	if e.IsActionImpossible() {
		return s.forceTie(env, "no valid action"), nil
	}

	result, err := e.Step(d)
	if errors.Is(err, game.ErrInvalidAction) {
		env.rejected++
		if env.rejected >= e.RetryBudget() {
			return s.forceTie(env, "retry budget exhausted"), nil
		}
		return nil, toStatus(err)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	env.rejected = 0

	fields := episodeFields(env)
	fields["reward"] = structpb.NewNumberValue(result.Delta)
	fields["forced"] = structpb.NewBoolValue(false)
	fields["action_mask"] = boolList(e.ActionMask())
	return &structpb.Struct{Fields: fields}, nil
}

// ForceTie ends the episode as a tie on the learner's request
func (s *Server) ForceTie(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	env, err := s.lookup(req)
	if err != nil {
		return nil, toStatus(err)
	}
	defer env.mu.Unlock()

	if env.engine.IsDone() {
		return nil, toStatus(game.ErrEpisodeOver)
	}
	reason := req.GetFields()[fieldReason].GetStringValue()
	if reason == "" {
		reason = "requested by learner"
	}
	return s.forceTie(env, reason), nil
}

// forceTie ends the episode; callers hold env.mu
func (s *Server) forceTie(env *envInstance, reason string) *structpb.Struct {
	result := env.engine.ForceTie(reason)
	env.rejected = 0
	s.logger.Debug().Str("env_id", env.id).Str("reason", reason).Msg("Forced tie")

	fields := episodeFields(env)
	fields["reward"] = structpb.NewNumberValue(result.Delta)
	fields["forced"] = structpb.NewBoolValue(true)
	fields[fieldReason] = structpb.NewStringValue(reason)
	fields["action_mask"] = boolList(env.engine.ActionMask())
	return &structpb.Struct{Fields: fields}
}

// Observe returns the encoded observation with episode bookkeeping and stats
func (s *Server) Observe(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	env, err := s.lookup(req)
	if err != nil {
		return nil, toStatus(err)
	}
	defer env.mu.Unlock()

	fields := episodeFields(env)
	fields["stats"] = statsValue(env)
	return &structpb.Struct{Fields: fields}, nil
}

// ValidActions returns the valid action indices and the full mask
func (s *Server) ValidActions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	env, err := s.lookup(req)
	if err != nil {
		return nil, toStatus(err)
	}
	defer env.mu.Unlock()

	e := env.engine
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldEnvID:      structpb.NewStringValue(env.id),
		"valid_actions": actionList(e.ValidActions()),
		"action_mask":   boolList(e.ActionMask()),
		"impossible":    structpb.NewBoolValue(!e.IsDone() && e.IsActionImpossible()),
		"done":          structpb.NewBoolValue(e.IsDone()),
	}}, nil
}

// CloseEnv removes an environment
func (s *Server) CloseEnv(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireString(req, fieldEnvID)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.manager.Close(id); err != nil {
		return nil, toStatus(err)
	}
	s.idempotency.Forget(id)
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldEnvID: structpb.NewStringValue(id),
		"closed":   structpb.NewBoolValue(true),
	}}, nil
}
