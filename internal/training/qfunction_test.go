package training

import (
	"bytes"
	"math"
	"testing"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/experience"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearQ_Predict(t *testing.T) {
	q := NewLinearQ(5, 4, 0.001, 0.9, testutil.NewTestRNG(12345))

	values := q.Predict(make([]float32, 5))
	require.Len(t, values, 4)
	for _, v := range values {
		assert.Less(t, math.Abs(v), 0.01)
	}

	// short and long states are tolerated
	assert.Len(t, q.Predict([]float32{1}), 4)
	assert.Len(t, q.Predict(make([]float32, 9)), 4)
}

func TestLinearQ_UpdateConvergesOnTerminalTarget(t *testing.T) {
	q := NewLinearQ(3, 4, 0.5, 0.9, testutil.NewTestRNG(1))
	state := []float32{1, 2, 3}
	before := q.Predict(state)

	tr := experience.Transition{State: state, Action: 1, Reward: 10, Done: true}
	var loss float64
	for i := 0; i < 60; i++ {
		loss = q.Update([]experience.Transition{tr})
	}

	after := q.Predict(state)
	assert.InDelta(t, 10, after[1], 1e-3)
	assert.InDelta(t, before[0], after[0], 1e-12, "untaken actions are not updated")
	assert.Less(t, loss, 1e-3)
}

func TestLinearQ_UpdateBootstraps(t *testing.T) {
	q := NewLinearQ(2, 2, 0.5, 0.5, testutil.NewTestRNG(2))
	terminal := []float32{0, 1}
	start := []float32{1, 0}

	for i := 0; i < 200; i++ {
		q.Update([]experience.Transition{
			{State: terminal, Action: 0, Reward: 8, Done: true},
			{State: terminal, Action: 1, Reward: 4, Done: true},
			{State: start, Action: 0, Reward: 1, NextState: terminal},
		})
	}

	// target for (start, 0) is 1 + 0.5 * max(8, 4)
	assert.InDelta(t, 5, q.Predict(start)[0], 0.05)
}

func TestLinearQ_UpdateIgnoresBadAction(t *testing.T) {
	q := NewLinearQ(2, 2, 0.5, 0.9, testutil.NewTestRNG(3))
	before := q.Predict([]float32{1, 1})

	assert.Zero(t, q.Update(nil))
	q.Update([]experience.Transition{{State: []float32{1, 1}, Action: 7, Reward: 100, Done: true}})

	assert.Equal(t, before, q.Predict([]float32{1, 1}))
}

func TestLinearQ_SaveLoad(t *testing.T) {
	q := NewLinearQ(4, 4, 0.1, 0.9, testutil.NewTestRNG(4))
	q.Update([]experience.Transition{{State: []float32{1, 0, 1, 0}, Action: 2, Reward: 3, Done: true}})

	var buf bytes.Buffer
	require.NoError(t, q.Save(&buf))

	restored := NewLinearQ(4, 4, 0.1, 0.9, testutil.NewTestRNG(99))
	require.NoError(t, restored.Load(bytes.NewReader(buf.Bytes())))
	assert.Equal(t, q.Predict([]float32{1, 0, 1, 0}), restored.Predict([]float32{1, 0, 1, 0}))

	wrong := NewLinearQ(5, 4, 0.1, 0.9, testutil.NewTestRNG(5))
	assert.ErrorIs(t, wrong.Load(bytes.NewReader(buf.Bytes())), ErrShapeMismatch)
}

func TestArgsortDesc(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []int
	}{
		{"ordered", []float64{4, 3, 2, 1}, []int{0, 1, 2, 3}},
		{"reversed", []float64{1, 2, 3, 4}, []int{3, 2, 1, 0}},
		{"ties keep index order", []float64{1, 5, 5, 0}, []int{1, 2, 0, 3}},
		{"nan last", []float64{math.NaN(), 1, 2, 0}, []int{2, 1, 3, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, argsortDesc(tt.values))
		})
	}
}
