package training

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sort"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/experience"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrShapeMismatch is returned when a state or stored model does not fit the approximator
	ErrShapeMismatch = errors.New("shape mismatch")
)

// QFunction estimates action values for an encoded state
type QFunction interface {
	// Predict returns one value per action
	Predict(state []float32) []float64
	// Update fits the estimates toward the one-step targets of the batch and
	// returns the mean squared error before the update
	Update(batch []experience.Transition) float64
}

// LinearQ is a linear action-value approximator Q(s, a) = w_a·s + b_a trained
// with normalized least-mean-squares steps, which keeps updates bounded for
// unscaled observations
type LinearQ struct {
	weights *mat.Dense // actions × (features + 1), last column is the bias
	actions int
	inputs  int
	lr      float64
	gamma   float64
}

// NewLinearQ creates an approximator with small random weights
func NewLinearQ(inputs, actions int, lr, gamma float64, rng *rand.Rand) *LinearQ {
	data := make([]float64, actions*(inputs+1))
	for i := range data {
		data[i] = (rng.Float64() - 0.5) * 0.01
	}
	return &LinearQ{
		weights: mat.NewDense(actions, inputs+1, data),
		actions: actions,
		inputs:  inputs,
		lr:      lr,
		gamma:   gamma,
	}
}

// Inputs returns the expected state length
func (q *LinearQ) Inputs() int { return q.inputs }

// Actions returns the number of actions
func (q *LinearQ) Actions() int { return q.actions }

func (q *LinearQ) features(state []float32) *mat.VecDense {
	x := mat.NewVecDense(q.inputs+1, nil)
	for i := 0; i < q.inputs && i < len(state); i++ {
		x.SetVec(i, float64(state[i]))
	}
	x.SetVec(q.inputs, 1)
	return x
}

func (q *LinearQ) predict(x *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(q.actions, nil)
	out.MulVec(q.weights, x)
	return out
}

// Predict returns the action values for state
func (q *LinearQ) Predict(state []float32) []float64 {
	out := q.predict(q.features(state))
	return mat.Col(nil, 0, out)
}

// Update takes one averaged gradient step over the batch. Terminal
// transitions use the reward as the target; the rest bootstrap from the
// greedy value of the next state.
func (q *LinearQ) Update(batch []experience.Transition) float64 {
	if len(batch) == 0 {
		return 0
	}

	grad := mat.NewDense(q.actions, q.inputs+1, nil)
	var loss float64
	for _, t := range batch {
		if t.Action < 0 || t.Action >= q.actions {
			continue
		}
		x := q.features(t.State)
		pred := q.predict(x).AtVec(t.Action)

		target := t.Reward
		if !t.Done {
			target += q.gamma * mat.Max(q.predict(q.features(t.NextState)))
		}

		diff := target - pred
		loss += diff * diff

		norm := 1 + mat.Dot(x, x)
		row := grad.RowView(t.Action).(*mat.VecDense)
		row.AddScaledVec(row, diff/norm, x)
	}

	grad.Scale(q.lr/float64(len(batch)), grad)
	q.weights.Add(q.weights, grad)
	return loss / float64(len(batch))
}

// Save writes the weights in gonum's binary matrix format
func (q *LinearQ) Save(w io.Writer) error {
	_, err := q.weights.MarshalBinaryTo(w)
	return err
}

// Load replaces the weights with a matrix written by Save
func (q *LinearQ) Load(r io.Reader) error {
	var m mat.Dense
	if _, err := m.UnmarshalBinaryFrom(r); err != nil {
		return fmt.Errorf("failed to read weights: %w", err)
	}
	rows, cols := m.Dims()
	if rows != q.actions || cols != q.inputs+1 {
		return fmt.Errorf("%w: stored %dx%d, want %dx%d", ErrShapeMismatch, rows, cols, q.actions, q.inputs+1)
	}
	q.weights = &m
	return nil
}

// argsortDesc returns action indices ordered by value, highest first. Ties
// keep index order and NaN values sort last.
func argsortDesc(values []float64) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := values[idx[i]], values[idx[j]]
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return a > b
	})
	return idx
}
