package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/config"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/experience"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/training"
)

const (
	statsFile = "stats.json"
	modelFile = "model.bin"
)

func trainCommand() *cobra.Command {
	var episodes int
	var outDir string
	var resume bool
	var seed int64
	var noPlot bool

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run training episodes, saving the best model, stats and plots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			if episodes <= 0 {
				episodes = cfg.Training.Episodes
			}
			if outDir == "" {
				outDir = cfg.Training.PlotDir
			}
			if seed != 0 {
				cfg.Game.Seed = seed
			}
			return runTraining(cfg, episodes, outDir, resume, !noPlot)
		},
	}
	cmd.Flags().IntVarP(&episodes, "episodes", "e", 0, "Number of episodes (0 to use config default)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for the model, stats and plots (empty to use training.plot_dir)")
	cmd.Flags().BoolVar(&resume, "resume", false, "Start from the saved model in the output directory")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Game seed (0 to use config default)")
	cmd.Flags().BoolVar(&noPlot, "no-plot", false, "Skip writing plots")
	return cmd
}

func runTraining(cfg *config.Config, episodes int, outDir string, resume, plot bool) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	persistence, err := experience.NewPersistenceLayer(ctx, cfg.Experience.Persistence, log.Logger)
	if err != nil {
		return fmt.Errorf("failed to set up experience persistence: %w", err)
	}
	buffer := experience.NewBuffer(cfg.Experience.BufferCapacity, log.Logger)
	collector := experience.NewCollector(buffer, persistence, log.Logger)
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		if err := collector.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("Failed to flush experience")
		}
	}()

	gameCfg := game.ConfigFromSettings(cfg)
	opts := training.OptionsFromSettings(cfg.Training)
	opts.ModelPath = filepath.Join(outDir, modelFile)

	var q training.QFunction
	if resume {
		lq, err := loadModel(gameCfg, opts)
		if err != nil {
			return err
		}
		q = lq
	}

	trainer, err := training.NewTrainer(gameCfg, opts, q, collector, log.Logger)
	if err != nil {
		return err
	}

	stats, runErr := trainer.Run(ctx, episodes)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if runErr != nil {
		log.Warn().Int("games", stats.Games).Msg("Training interrupted, saving partial results")
	}

	statsPath := filepath.Join(outDir, statsFile)
	if err := stats.Save(statsPath); err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}
	log.Info().Str("path", statsPath).Msg("Saved stats")

	if plot && stats.Games > 0 {
		plotter, err := training.NewPlotter(outDir)
		if err != nil {
			return err
		}
		if err := plotter.PlotAll(stats); err != nil {
			return fmt.Errorf("failed to plot: %w", err)
		}
		log.Info().Str("dir", plotter.Dir()).Msg("Wrote plots")
	}

	bs := buffer.Stats()
	log.Info().
		Int("buffered", bs.CurrentSize).
		Int64("added", bs.TotalAdded).
		Int64("dropped", bs.TotalDropped).
		Int64("persisted", persistence.Stats().TotalWritten).
		Msg("Replay memory")
	return nil
}

// loadModel reads the saved weights sized for the configured maze
func loadModel(gameCfg game.Config, opts training.Options) (*training.LinearQ, error) {
	grid, err := core.NewGrid(gameCfg.Width, gameCfg.Height)
	if err != nil {
		return nil, err
	}
	inputs := game.NewEncoder(grid, gameCfg.Barriers).Length()
	q := training.NewLinearQ(inputs, len(core.AllDirections), opts.LearningRate, opts.Gamma, gameCfg.Rng)

	f, err := os.Open(opts.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()
	if err := q.Load(f); err != nil {
		return nil, err
	}
	log.Info().Str("path", opts.ModelPath).Int("inputs", inputs).Msg("Resumed from saved model")
	return q, nil
}
