package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/config"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/training"
)

func plotCommand() *cobra.Command {
	var dir string
	var window int

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Redraw the reward and outcome charts from saved stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = config.Get().Training.PlotDir
			}
			stats, err := training.LoadStats(filepath.Join(dir, statsFile))
			if err != nil {
				return fmt.Errorf("failed to load stats: %w", err)
			}

			plotter, err := training.NewPlotter(dir)
			if err != nil {
				return err
			}
			if err := plotter.PlotAll(stats); err != nil {
				return err
			}

			mean, std := stats.MeanStdDev(window)
			ev := log.Info().
				Int("games", stats.Games).
				Float64("record", stats.Record).
				Float64("win_rate", stats.WinRate()).
				Float64("mean_reward", mean).
				Float64("std_reward", std)
			for c, label := range training.CategoryLabels {
				ev = ev.Int(strings.ReplaceAll(strings.ToLower(label), " ", "_"), stats.Tally[c])
			}
			ev.Str("dir", dir).Msg("Wrote plots")
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory holding stats.json (empty to use training.plot_dir)")
	cmd.Flags().IntVar(&window, "window", 0, "Summarize only the last n games (0 for all)")
	return cmd
}
