package training

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game"
	"gonum.org/v1/gonum/stat"
)

// Category indexes the outcome tally
type Category int

const (
	PlayerHitsButter Category = iota
	MoldHitsToaster
	PlayerHitsMold
	MoldHitsButter
	Wins
	Losses
	Ties
	numCategories
)

// CategoryLabels are the chart labels of the tally, in Category order
var CategoryLabels = [numCategories]string{
	"PLAYER HITS BUTTER",
	"MOLD HITS TOASTER",
	"PLAYER HITS MOLD",
	"MOLD HITS BUTTER",
	"WINS",
	"LOSSES",
	"TIES",
}

func (c Category) String() string {
	if c < 0 || c >= numCategories {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return CategoryLabels[c]
}

// Stats accumulates per-episode training results
type Stats struct {
	Games       int                `json:"games"`
	Tally       [numCategories]int `json:"tally"`
	Rewards     []float64          `json:"rewards"`
	MeanRewards []float64          `json:"mean_rewards"`
	Record      float64            `json:"record"`
	TrainLoss   []float64          `json:"train_loss,omitempty"`
}

// Add records a finished episode and reports whether its reward beat the
// record, which starts at zero
func (s *Stats) Add(outcome game.Outcome, reward float64) bool {
	switch outcome {
	case game.OutcomePlayerReachedButter:
		s.Tally[PlayerHitsButter]++
	case game.OutcomeMoldReachedToaster:
		s.Tally[MoldHitsToaster]++
	case game.OutcomePlayerHitMold:
		s.Tally[PlayerHitsMold]++
	case game.OutcomeMoldReachedButter:
		s.Tally[MoldHitsButter]++
	case game.OutcomeTie:
		s.Tally[Ties]++
	}
	switch {
	case outcome.IsWin():
		s.Tally[Wins]++
	case outcome.IsLoss():
		s.Tally[Losses]++
	}

	newRecord := reward > s.Record
	if newRecord {
		s.Record = reward
	}
	s.Games++
	s.Rewards = append(s.Rewards, reward)
	s.MeanRewards = append(s.MeanRewards, stat.Mean(s.Rewards, nil))
	return newRecord
}

// Mean returns the mean episode reward
func (s *Stats) Mean() float64 {
	if len(s.Rewards) == 0 {
		return 0
	}
	return stat.Mean(s.Rewards, nil)
}

// MeanStdDev returns the mean and sample standard deviation of the last n
// episode rewards (all of them when n <= 0)
func (s *Stats) MeanStdDev(n int) (mean, std float64) {
	rewards := s.Rewards
	if n > 0 && n < len(rewards) {
		rewards = rewards[len(rewards)-n:]
	}
	if len(rewards) < 2 {
		return s.Mean(), 0
	}
	return stat.MeanStdDev(rewards, nil)
}

// WinRate returns the fraction of games won
func (s *Stats) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Tally[Wins]) / float64(s.Games)
}

// Save writes the stats as JSON
func (s *Stats) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadStats reads stats written by Save
func LoadStats(path string) (*Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Stats
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &s, nil
}
