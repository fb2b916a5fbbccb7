package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/config"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/events/subscribers"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	episodes := flag.Int("episodes", 1, "Number of random episodes to play")
	seed := flag.Int64("seed", 0, "Game seed (0 for time-based)")
	delay := flag.Duration("delay", 300*time.Millisecond, "Pause between frames")
	reveal := flag.Bool("reveal", false, "Draw the hidden goals and barriers")
	verbose := flag.Bool("verbose", false, "Log every game event")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	cfg := config.Get()
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	cfg.Game.Seed = *seed
	*verbose = *verbose || cfg.Development.VerboseLogging
	*reveal = *reveal || cfg.Development.RevealHidden

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	gameCfg := game.ConfigFromSettings(cfg)
	gameCfg.Logger = log.Logger
	engine, err := game.NewEngine(gameCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create engine")
	}

	if *verbose {
		logSub := subscribers.NewLoggerSubscriber("demo-logger", log.Logger, zerolog.DebugLevel)
		logSub.SetDevMode(true)
		engine.EventBus().Subscribe(logSub)
	}
	stats := subscribers.NewStatsSubscriber("demo-stats")
	engine.EventBus().Subscribe(stats)

	fmt.Printf("Game seed: %d\n", *seed)
	rng := rand.New(rand.NewSource(*seed))

	for ep := 0; ep < *episodes; ep++ {
		if ep > 0 {
			engine.Reset(engine.EpisodeID() + 1)
		}
		fmt.Printf("Initial board:\n%s\n", engine.Board(*reveal))

		for !engine.IsDone() {
			action, result, err := game.StepWithRetries(engine, func() core.Direction {
				return core.AllDirections[rng.Intn(len(core.AllDirections))]
			})
			if err != nil {
				log.Fatal().Err(err).Msg("Step failed")
			}

			fmt.Printf("Frame %d: %s (%+.0f)\n", engine.Frame(), action, result.Delta)
			fmt.Print(engine.Board(*reveal))
			time.Sleep(*delay)
		}

		fmt.Printf("Episode %d over: %s, total reward %.0f\n\n", engine.EpisodeID(), engine.Outcome(), engine.Reward())
	}

	counts := stats.Snapshot()
	d := engine.Diagnostics()
	fmt.Printf("Episodes: %d  outcomes: %v  rejected: %d  forced ties: %d  budget ties: %d\n",
		counts.Episodes, counts.ByCode, counts.Rejected, d.ForcedTies, d.BudgetTies)
}
