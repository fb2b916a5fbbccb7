package training

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	RewardPlotFile  = "plot_reward.png"
	OutcomePlotFile = "plot_bar.png"
)

var (
	colorGreen  = color.RGBA{R: 46, G: 160, B: 67, A: 255}
	colorRed    = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	colorYellow = color.RGBA{R: 230, G: 190, B: 30, A: 255}
	colorBlue   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	colorOrange = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// categoryColors marks wins green, losses red and ties yellow
var categoryColors = [numCategories]color.Color{
	colorGreen, colorGreen, colorRed, colorRed, colorGreen, colorRed, colorYellow,
}

// Plotter renders training progress charts into a directory
type Plotter struct {
	dir    string
	width  vg.Length
	height vg.Length
}

// NewPlotter creates the output directory if needed
func NewPlotter(dir string) (*Plotter, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create plot directory: %w", err)
	}
	return &Plotter{dir: dir, width: 8 * vg.Inch, height: 5 * vg.Inch}, nil
}

// Dir returns the output directory
func (p *Plotter) Dir() string { return p.dir }

// PlotAll writes both charts
func (p *Plotter) PlotAll(s *Stats) error {
	if err := p.PlotRewards(s); err != nil {
		return err
	}
	return p.PlotOutcomes(s)
}

// PlotRewards draws the per-game reward and its running mean
func (p *Plotter) PlotRewards(s *Stats) error {
	pl := plot.New()
	pl.Title.Text = "Training"
	pl.X.Label.Text = "Number of games"
	pl.Y.Label.Text = "Reward"
	pl.Add(plotter.NewGrid())

	if len(s.Rewards) > 0 {
		rewards, err := plotter.NewLine(series(s.Rewards))
		if err != nil {
			return fmt.Errorf("failed to build reward line: %w", err)
		}
		rewards.Color = colorBlue

		mean, err := plotter.NewLine(series(s.MeanRewards))
		if err != nil {
			return fmt.Errorf("failed to build mean line: %w", err)
		}
		mean.Color = colorOrange
		mean.Width = vg.Points(2)

		pl.Add(rewards, mean)
		pl.Legend.Add("reward", rewards)
		pl.Legend.Add("mean", mean)
		pl.Legend.Top = true
	}

	return pl.Save(p.width, p.height, filepath.Join(p.dir, RewardPlotFile))
}

// PlotOutcomes draws the outcome tally as a bar chart
func (p *Plotter) PlotOutcomes(s *Stats) error {
	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("Outcomes after %d games", s.Games)
	pl.Y.Label.Text = "Games"

	barWidth := vg.Points(40)
	for i := Category(0); i < numCategories; i++ {
		values := make(plotter.Values, numCategories)
		values[i] = float64(s.Tally[i])
		bars, err := plotter.NewBarChart(values, barWidth)
		if err != nil {
			return fmt.Errorf("failed to build %s bar: %w", i, err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = categoryColors[i]
		pl.Add(bars)
	}
	labels := make([]string, numCategories)
	copy(labels, CategoryLabels[:])
	pl.NominalX(labels...)

	return pl.Save(p.width+2*vg.Inch, p.height, filepath.Join(p.dir, OutcomePlotFile))
}

func series(values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	return pts
}
