package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/config"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/experience"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/grpc/envserver"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/monitoring"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Path to config file")
	env := flag.String("env", "", "Environment overlay (loads config.<env>.yaml)")
	port := flag.Int("port", -1, "The server port (-1 to use config default)")
	host := flag.String("host", "", "The server host (empty to use config default)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	maxEnvs := flag.Int("max-envs", -1, "Maximum concurrent environments (-1 to use config default)")
	enableReflection := flag.Bool("enable-reflection", false, "Enable gRPC reflection for debugging")
	collect := flag.Bool("collect", false, "Collect transitions from every environment into the replay buffer")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg("Ignoring .env file")
	}

	// Initialize configuration
	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	if err := config.LoadEnvironmentConfig(*env); err != nil {
		log.Fatal().Err(err).Str("env", *env).Msg("Failed to load environment config")
	}

	cfg := config.Get()
	serverCfg := cfg.Server.EnvServer

	// Use config defaults if not overridden by flags
	if *port == -1 {
		*port = serverCfg.Port
	}
	if *host == "" {
		*host = serverCfg.Host
	}
	if *logLevel == "" {
		*logLevel = cfg.Logging.Level
	}
	if *maxEnvs == -1 {
		*maxEnvs = serverCfg.MaxEnvs
	}
	// For enableReflection, use config if flag not explicitly set to true
	if !*enableReflection {
		*enableReflection = serverCfg.EnableReflection
	}

	setupLogging(*logLevel, cfg.Logging.Format)

	log.Info().
		Int("port", *port).
		Str("host", *host).
		Int("max_envs", *maxEnvs).
		Int("idle_timeout_s", serverCfg.IdleTimeout).
		Msg("Starting environment server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional replay collection shared by all environments
	var collector *experience.Collector
	persistType := experience.PersistenceType(cfg.Experience.Persistence.Type)
	if *collect || (persistType != experience.PersistenceTypeNone && persistType != "") {
		persistence, err := experience.NewPersistenceLayer(ctx, cfg.Experience.Persistence, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to set up experience persistence")
		}
		buffer := experience.NewBuffer(cfg.Experience.BufferCapacity, log.Logger)
		collector = experience.NewCollector(buffer, persistence, log.Logger)
		log.Info().
			Str("persistence", cfg.Experience.Persistence.Type).
			Int("buffer_capacity", buffer.Capacity()).
			Msg("Experience collection enabled")
	}

	manager := envserver.NewEnvManager(envserver.ManagerOptions{
		MaxEnvs:      *maxEnvs,
		MaxDimension: serverCfg.MaxDimension,
		IdleTimeout:  time.Duration(serverCfg.IdleTimeout) * time.Second,
		Defaults:     game.ConfigFromSettings(cfg),
		Collector:    collector,
		Logger:       log.Logger,
	})
	manager.StartCleanup(time.Duration(serverCfg.CleanupInterval) * time.Second)

	monitor := monitoring.NewMonitor(monitoring.DefaultOptions(log.Logger))
	monitor.RegisterGauge("open_envs", manager.Len)
	if collector != nil {
		monitor.RegisterGauge("buffered_transitions", collector.Buffer().Size)
		monitor.RegisterGauge("pending_transitions", collector.Pending)
	}
	monitor.Start()

	// Create listener
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", *host, *port))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to listen")
	}

	// Create gRPC server with interceptors
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			envserver.LoggingInterceptor(log.Logger),
			envserver.RecoveryInterceptor(log.Logger),
		),
	)

	envService := envserver.NewServer(manager, log.Logger)
	envserver.RegisterEnvServiceServer(grpcServer, envService)

	// Register health service
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(envserver.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	// Register reflection service for debugging
	if *enableReflection {
		reflection.Register(grpcServer)
		log.Info().Msg("gRPC reflection enabled")
	}

	// Hot reload of the log level
	if config.ConfigFilePath() != "" {
		config.WatchConfig(func() {
			next := config.Get()
			setupLogging(next.Logging.Level, next.Logging.Format)
			log.Info().Str("file", config.ConfigFilePath()).Msg("Configuration reloaded")
		})
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

		// Set health status to NOT_SERVING
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus(envserver.ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

		// Give ongoing requests time to complete
		time.Sleep(time.Duration(serverCfg.GracefulShutdownDelay) * time.Second)

		log.Info().Msg("Gracefully stopping gRPC server")
		grpcServer.GracefulStop()
		cancel()
	}()

	log.Info().Str("address", lis.Addr().String()).Msg("gRPC server listening")

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("Failed to serve")
		}
	}()

	// Wait for shutdown
	<-ctx.Done()

	manager.Stop()
	monitor.Stop()
	if collector != nil {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := collector.Close(flushCtx); err != nil {
			log.Error().Err(err).Msg("Failed to flush experience on shutdown")
		}
		flushCancel()
	}
	log.Info().Msg("Server shutdown complete")
}

func setupLogging(level, format string) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if format == "json" || os.Getenv("APP_ENV") == "production" {
		// JSON output for production
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		// Pretty console output for development
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
}
