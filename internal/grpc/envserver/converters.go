package envserver

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/rules"
)

// Request field names
const (
	fieldEnvID       = "env_id"
	fieldAction      = "action"
	fieldDirection   = "direction"
	fieldOneHot      = "action_one_hot"
	fieldEpisode     = "episode"
	fieldWidth       = "width"
	fieldHeight      = "height"
	fieldBarriers    = "barriers"
	fieldStepBudget  = "step_budget"
	fieldRetryBudget = "retry_budget"
	fieldToasterTrap = "toaster_trap"
	fieldSeed        = "seed"
	fieldReason      = "reason"
	fieldRequestID   = "request_id"
)

// errBadRequest marks malformed request fields
var errBadRequest = errors.New("bad request")

// DefaultMaxDimension caps the slot width and height of a created environment
// when the manager is given no limit
const DefaultMaxDimension = 51

func requireString(req *structpb.Struct, key string) (string, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", errBadRequest, key)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok || s.StringValue == "" {
		return "", fmt.Errorf("%w: %q must be a non-empty string", errBadRequest, key)
	}
	return s.StringValue, nil
}

// optionalInt reads an integral number field; ok is false when the field is absent
func optionalInt(req *structpb.Struct, key string) (n int64, ok bool, err error) {
	v, present := req.GetFields()[key]
	if !present {
		return 0, false, nil
	}
	num, isNum := v.GetKind().(*structpb.Value_NumberValue)
	if !isNum {
		return 0, false, fmt.Errorf("%w: %q must be a number", errBadRequest, key)
	}
	f := num.NumberValue
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false, fmt.Errorf("%w: %q must be an integer, got %v", errBadRequest, key, f)
	}
	return int64(f), true, nil
}

func optionalBool(req *structpb.Struct, key string) (b bool, ok bool, err error) {
	v, present := req.GetFields()[key]
	if !present {
		return false, false, nil
	}
	bv, isBool := v.GetKind().(*structpb.Value_BoolValue)
	if !isBool {
		return false, false, fmt.Errorf("%w: %q must be a bool", errBadRequest, key)
	}
	return bv.BoolValue, true, nil
}

// configFromRequest overrides defaults with the fields present in req and
// rejects grids larger than maxDimension
func configFromRequest(defaults game.Config, maxDimension int, req *structpb.Struct) (game.Config, int64, error) {
	cfg := defaults
	ints := []struct {
		key string
		dst *int
	}{
		{fieldWidth, &cfg.Width},
		{fieldHeight, &cfg.Height},
		{fieldBarriers, &cfg.Barriers},
		{fieldStepBudget, &cfg.StepBudget},
		{fieldRetryBudget, &cfg.RetryBudget},
	}
	for _, f := range ints {
		n, ok, err := optionalInt(req, f.key)
		if err != nil {
			return cfg, 0, err
		}
		if ok {
			if n < math.MinInt32 || n > math.MaxInt32 {
				return cfg, 0, fmt.Errorf("%w: %q out of range: %d", errBadRequest, f.key, n)
			}
			*f.dst = int(n)
		}
	}
	if err := checkLimits(cfg, maxDimension); err != nil {
		return cfg, 0, err
	}

	if trap, ok, err := optionalBool(req, fieldToasterTrap); err != nil {
		return cfg, 0, err
	} else if ok {
		cfg.ToasterTrap = trap
	}

	seed, _, err := optionalInt(req, fieldSeed)
	if err != nil {
		return cfg, 0, err
	}
	return cfg, seed, nil
}

// checkLimits bounds the grid size and barrier count before anything is
// allocated for the grid
func checkLimits(cfg game.Config, maxDimension int) error {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if cfg.Width > maxDimension || cfg.Height > maxDimension {
		return fmt.Errorf("%w: grid %dx%d exceeds the %d slot limit",
			errBadRequest, cfg.Width, cfg.Height, maxDimension)
	}
	if cfg.Width < 3 || cfg.Height < 3 {
		// NewGrid reports the dimension error
		return nil
	}
	grid := core.Grid{Width: cfg.Width, Height: cfg.Height}
	if cfg.Barriers > grid.WallSlotCount() {
		return fmt.Errorf("%w: %d barriers exceed the %d wall slots of a %dx%d grid",
			errBadRequest, cfg.Barriers, grid.WallSlotCount(), cfg.Width, cfg.Height)
	}
	return nil
}

// actionFromRequest accepts an action index, a direction name or a one-hot list
func actionFromRequest(req *structpb.Struct) (core.Direction, error) {
	fields := req.GetFields()
	if _, ok := fields[fieldAction]; ok {
		idx, _, err := optionalInt(req, fieldAction)
		if err != nil {
			return core.Up, err
		}
		d, err := core.DirectionFromIndex(int(idx))
		if err != nil {
			return core.Up, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return d, nil
	}
	if v, ok := fields[fieldDirection]; ok {
		d, err := core.ParseDirection(v.GetStringValue())
		if err != nil {
			return core.Up, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return d, nil
	}
	if v, ok := fields[fieldOneHot]; ok {
		list := v.GetListValue()
		if list == nil {
			return core.Up, fmt.Errorf("%w: %q must be a list", errBadRequest, fieldOneHot)
		}
		oneHot := make([]int, len(list.GetValues()))
		for i, item := range list.GetValues() {
			oneHot[i] = int(item.GetNumberValue())
		}
		d, err := core.DirectionFromOneHot(oneHot)
		if err != nil {
			return core.Up, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return d, nil
	}
	return core.Up, fmt.Errorf("%w: one of %q, %q or %q is required", errBadRequest, fieldAction, fieldDirection, fieldOneHot)
}

func floatList(values []float32) *structpb.Value {
	out := make([]*structpb.Value, len(values))
	for i, v := range values {
		out[i] = structpb.NewNumberValue(float64(v))
	}
	return structpb.NewListValue(&structpb.ListValue{Values: out})
}

func boolList(values []bool) *structpb.Value {
	out := make([]*structpb.Value, len(values))
	for i, v := range values {
		out[i] = structpb.NewBoolValue(v)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: out})
}

func actionList(actions []core.Direction) *structpb.Value {
	out := make([]*structpb.Value, len(actions))
	for i, d := range actions {
		out[i] = structpb.NewNumberValue(float64(d.Index()))
	}
	return structpb.NewListValue(&structpb.ListValue{Values: out})
}

// episodeFields describes the engine's current public state
func episodeFields(env *envInstance) map[string]*structpb.Value {
	e := env.engine
	return map[string]*structpb.Value{
		fieldEnvID:      structpb.NewStringValue(env.id),
		fieldEpisode:    structpb.NewNumberValue(float64(e.EpisodeID())),
		"frame":         structpb.NewNumberValue(float64(e.Frame())),
		"observation":   floatList(e.Observe()),
		"total_reward":  structpb.NewNumberValue(e.Reward()),
		"done":          structpb.NewBoolValue(e.IsDone()),
		"outcome":       structpb.NewNumberValue(float64(e.Outcome().Code())),
		"outcome_name":  structpb.NewStringValue(e.Outcome().String()),
		"phase":         structpb.NewStringValue(e.Phase().String()),
		"valid_actions": actionList(e.ValidActions()),
	}
}

func statsValue(env *envInstance) *structpb.Value {
	counts := env.stats.Snapshot()
	byOutcome := make(map[string]*structpb.Value, len(counts.ByCode))
	for _, o := range rules.AllOutcomes {
		byOutcome[o.String()] = structpb.NewNumberValue(float64(counts.ByCode[o.Code()]))
	}
	d := env.engine.Diagnostics()
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"episodes":     structpb.NewNumberValue(float64(counts.Episodes)),
		"by_outcome":   structpb.NewStructValue(&structpb.Struct{Fields: byOutcome}),
		"conflicts":    structpb.NewNumberValue(float64(counts.Conflicts)),
		"rejected":     structpb.NewNumberValue(float64(counts.Rejected)),
		"total_reward": structpb.NewNumberValue(counts.Reward),
		"forced_ties":  structpb.NewNumberValue(float64(d.ForcedTies)),
		"budget_ties":  structpb.NewNumberValue(float64(d.BudgetTies)),
	}})
}
