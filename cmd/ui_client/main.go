package main

import (
	"flag"
	"math/rand"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/config"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/training"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	watch := flag.Bool("watch", false, "Watch an agent play instead of playing yourself")
	modelPath := flag.String("model", "", "Saved LinearQ weights for -watch (random moves when empty)")
	stepInterval := flag.Int("step-interval", 15, "Frames between agent steps in -watch mode")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg("Ignoring .env file")
	}
	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	cfg := config.Get()
	if lvl, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	gameCfg := game.ConfigFromSettings(cfg)
	engine, err := game.NewEngine(gameCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create engine")
	}

	var g ebiten.Game
	if *watch {
		choose, err := watchChooser(engine, gameCfg, *modelPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load model")
		}
		g, err = ui.NewUIGame(engine, choose, *stepInterval)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create UI")
		}
	} else {
		g, err = ui.NewHumanGame(engine)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create UI")
		}
	}

	w, h := ui.ScreenSize(engine)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(cfg.UI.Window.Title)
	ebiten.SetTPS(cfg.UI.Window.FPS)

	if err := ebiten.RunGame(g); err != nil {
		log.Fatal().Err(err).Msg("UI exited with error")
	}
}

// watchChooser returns a greedy agent over the saved model, or uniform random
// moves when no model is given
func watchChooser(engine *game.Engine, gameCfg game.Config, modelPath string) (ui.Chooser, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	if modelPath == "" {
		return func(e *game.Engine) core.Direction {
			if d, ok := game.RandomValidAction(e, rng); ok {
				return d
			}
			return core.AllDirections[rng.Intn(len(core.AllDirections))]
		}, nil
	}

	q := training.NewLinearQ(engine.ObservationLength(), len(core.AllDirections), 0, 0, rng)
	f, err := os.Open(modelPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := q.Load(f); err != nil {
		return nil, err
	}

	// epsilon 0 never explores
	agent := training.NewAgent(q, 0, 1, rng)
	return func(e *game.Engine) core.Direction {
		d, _, ok := agent.Act(e.Observe(), e.ActionMask())
		if !ok {
			return core.AllDirections[rng.Intn(len(core.AllDirections))]
		}
		return d
	}, nil
}
