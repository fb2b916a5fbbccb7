package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/rewards"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Game        GameConfig        `mapstructure:"game"`
	Server      ServerConfig      `mapstructure:"server"`
	UI          UIConfig          `mapstructure:"ui"`
	Training    TrainingConfig    `mapstructure:"training"`
	Experience  ExperienceConfig  `mapstructure:"experience"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Development DevelopmentConfig `mapstructure:"development"`
}

// GameConfig holds game mechanics configuration
type GameConfig struct {
	Width       int            `mapstructure:"width"`
	Height      int            `mapstructure:"height"`
	Barriers    int            `mapstructure:"barriers"`
	StepBudget  int            `mapstructure:"step_budget"`
	RetryBudget int            `mapstructure:"retry_budget"`
	ToasterTrap bool           `mapstructure:"toaster_trap"`
	Seed        int64          `mapstructure:"seed"`
	Rewards     rewards.Config `mapstructure:"rewards"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	EnvServer EnvServerConfig `mapstructure:"env_server"`
}

// EnvServerConfig holds gRPC environment server configuration
type EnvServerConfig struct {
	Host                  string `mapstructure:"host"`
	Port                  int    `mapstructure:"port"`
	MaxEnvs               int    `mapstructure:"max_envs"`
	MaxDimension          int    `mapstructure:"max_dimension"`
	IdleTimeout           int    `mapstructure:"idle_timeout"`
	CleanupInterval       int    `mapstructure:"cleanup_interval"`
	EnableReflection      bool   `mapstructure:"enable_reflection"`
	GracefulShutdownDelay int    `mapstructure:"graceful_shutdown_delay"`
}

// UIConfig holds UI/client configuration
type UIConfig struct {
	Window WindowConfig `mapstructure:"window"`
	Board  BoardConfig  `mapstructure:"board"`
}

// WindowConfig holds window settings
type WindowConfig struct {
	Title string `mapstructure:"title"`
	FPS   int    `mapstructure:"fps"`
}

// BoardConfig holds board drawing settings
type BoardConfig struct {
	CellSize  int  `mapstructure:"cell_size"`
	Offset    int  `mapstructure:"offset"`
	ShowHints bool `mapstructure:"show_hints"`
}

// TrainingConfig holds training driver settings
type TrainingConfig struct {
	Episodes      int     `mapstructure:"episodes"`
	LearningRate  float64 `mapstructure:"learning_rate"`
	Gamma         float64 `mapstructure:"gamma"`
	BatchSize     int     `mapstructure:"batch_size"`
	EpsilonStart  int     `mapstructure:"epsilon_start"`
	EpsilonRange  int     `mapstructure:"epsilon_range"`
	PlotDir       string  `mapstructure:"plot_dir"`
	ProgressEvery int     `mapstructure:"progress_every"`
}

// ExperienceConfig holds replay buffer settings
type ExperienceConfig struct {
	BufferCapacity int               `mapstructure:"buffer_capacity"`
	Persistence    PersistenceConfig `mapstructure:"persistence"`
}

// PersistenceConfig selects where transitions are persisted
type PersistenceConfig struct {
	Type  string                 `mapstructure:"type"`
	File  FilePersistenceConfig  `mapstructure:"file"`
	Redis RedisPersistenceConfig `mapstructure:"redis"`
}

// FilePersistenceConfig holds JSONL file persistence settings
type FilePersistenceConfig struct {
	Dir           string `mapstructure:"dir"`
	MaxFileSizeMB int    `mapstructure:"max_file_size_mb"`
}

// RedisPersistenceConfig holds redis persistence settings
type RedisPersistenceConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
	TTL       int    `mapstructure:"ttl"`
}

// LoggingConfig holds logging settings shared by the binaries
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DevelopmentConfig holds development/debug settings
type DevelopmentConfig struct {
	VerboseLogging  bool `mapstructure:"verbose_logging"`
	ShowCoordinates bool `mapstructure:"show_coordinates"`
	RevealHidden    bool `mapstructure:"reveal_hidden"`
}

var (
	// Global config instance
	cfg *Config
	v   *viper.Viper
)

// setViperDefaults sets all default values using Viper's SetDefault
func setViperDefaults(v *viper.Viper) {
	// Game defaults
	v.SetDefault("game.width", 11)
	v.SetDefault("game.height", 11)
	v.SetDefault("game.barriers", 10)
	v.SetDefault("game.step_budget", 25)
	v.SetDefault("game.retry_budget", 25)
	v.SetDefault("game.toaster_trap", false)
	v.SetDefault("game.seed", 0)

	// Reward table
	r := rewards.DefaultConfig()
	v.SetDefault("game.rewards.player_new_cell", r.PlayerNewCell)
	v.SetDefault("game.rewards.player_revisit", r.PlayerRevisit)
	v.SetDefault("game.rewards.player_toward_toaster", r.PlayerTowardToaster)
	v.SetDefault("game.rewards.player_away_toaster", r.PlayerAwayToaster)
	v.SetDefault("game.rewards.player_toward_mold", r.PlayerTowardMold)
	v.SetDefault("game.rewards.player_away_mold", r.PlayerAwayMold)
	v.SetDefault("game.rewards.player_toward_butter", r.PlayerTowardButter)
	v.SetDefault("game.rewards.player_away_butter", r.PlayerAwayButter)
	v.SetDefault("game.rewards.heat_discovered", r.HeatDiscovered)
	v.SetDefault("game.rewards.toaster_known", r.ToasterKnown)
	v.SetDefault("game.rewards.butter_known", r.ButterKnown)
	v.SetDefault("game.rewards.mold_new_cell", r.MoldNewCell)
	v.SetDefault("game.rewards.mold_revisit", r.MoldRevisit)
	v.SetDefault("game.rewards.mold_toward_toaster", r.MoldTowardToaster)
	v.SetDefault("game.rewards.mold_away_toaster", r.MoldAwayToaster)
	v.SetDefault("game.rewards.mold_toward_player", r.MoldTowardPlayer)
	v.SetDefault("game.rewards.mold_away_player", r.MoldAwayPlayer)
	v.SetDefault("game.rewards.mold_toward_butter", r.MoldTowardButter)
	v.SetDefault("game.rewards.mold_away_butter", r.MoldAwayButter)
	v.SetDefault("game.rewards.player_reached_butter", r.PlayerReachedButter)
	v.SetDefault("game.rewards.mold_reached_toaster", r.MoldReachedToaster)
	v.SetDefault("game.rewards.player_hit_mold", r.PlayerHitMold)
	v.SetDefault("game.rewards.mold_reached_butter", r.MoldReachedButter)
	v.SetDefault("game.rewards.tie", r.Tie)

	// Environment server defaults
	v.SetDefault("server.env_server.host", "0.0.0.0")
	v.SetDefault("server.env_server.port", 50061)
	v.SetDefault("server.env_server.max_envs", 64)
	v.SetDefault("server.env_server.max_dimension", 51)
	v.SetDefault("server.env_server.idle_timeout", 600)
	v.SetDefault("server.env_server.cleanup_interval", 60)
	v.SetDefault("server.env_server.enable_reflection", true)
	v.SetDefault("server.env_server.graceful_shutdown_delay", 5)

	// UI defaults
	v.SetDefault("ui.window.title", "Mold Maze")
	v.SetDefault("ui.window.fps", 60)
	v.SetDefault("ui.board.cell_size", 50)
	v.SetDefault("ui.board.offset", 10)
	v.SetDefault("ui.board.show_hints", true)

	// Training defaults
	v.SetDefault("training.episodes", 500)
	v.SetDefault("training.learning_rate", 0.001)
	v.SetDefault("training.gamma", 0.9)
	v.SetDefault("training.batch_size", 1000)
	v.SetDefault("training.epsilon_start", 80)
	v.SetDefault("training.epsilon_range", 200)
	v.SetDefault("training.plot_dir", "plots")
	v.SetDefault("training.progress_every", 10)

	// Experience defaults
	v.SetDefault("experience.buffer_capacity", 100000)
	v.SetDefault("experience.persistence.type", "none")
	v.SetDefault("experience.persistence.file.dir", "experiences")
	v.SetDefault("experience.persistence.file.max_file_size_mb", 64)
	v.SetDefault("experience.persistence.redis.addr", "localhost:6379")
	v.SetDefault("experience.persistence.redis.password", "")
	v.SetDefault("experience.persistence.redis.db", 0)
	v.SetDefault("experience.persistence.redis.key_prefix", "moldmaze:exp")
	v.SetDefault("experience.persistence.redis.ttl", 86400)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Development defaults
	v.SetDefault("development.verbose_logging", false)
	v.SetDefault("development.show_coordinates", false)
	v.SetDefault("development.reveal_hidden", false)
}

// LoadDotEnv loads KEY=value pairs from .env files into the process
// environment so that MMRL_* overrides can live next to the binary. Missing
// files are not an error.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// Init initializes the configuration
func Init(configPath string) error {
	v = viper.New()

	// Set defaults before loading any config
	setViperDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/moldmaze")
	}

	// Set environment variable prefix
	v.SetEnvPrefix("MMRL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults
	}

	// Unmarshal into config struct
	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	// Validate configuration
	if err := Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		// Initialize with defaults if not already initialized
		if err := Init(""); err != nil {
			panic("failed to initialize config with defaults: " + err.Error())
		}
	}
	return cfg
}

// GetViper returns the viper instance for advanced usage
func GetViper() *viper.Viper {
	if v == nil {
		panic("config not initialized - call Init() first")
	}
	return v
}

// LoadEnvironmentConfig loads environment-specific config overlay
func LoadEnvironmentConfig(env string) error {
	if env == "" {
		return nil
	}

	envFile := fmt.Sprintf("config.%s.yaml", env)

	v.SetConfigFile(envFile)
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error merging environment config %s: %w", envFile, err)
		}
	}

	// Re-unmarshal with merged config
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode merged config into struct: %w", err)
	}

	return nil
}

// Set allows runtime config updates
func Set(key string, value interface{}) {
	v.Set(key, value)
	// Re-unmarshal to update struct
	_ = v.Unmarshal(cfg)
}

// ConfigFilePath returns the path of the loaded config file
func ConfigFilePath() string {
	return v.ConfigFileUsed()
}

// WatchConfig enables hot-reloading of config file
func WatchConfig(onChange func()) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		next := &Config{}
		if err := v.Unmarshal(next); err != nil {
			return
		}
		if err := Validate(next); err != nil {
			return
		}
		*cfg = *next
		if onChange != nil {
			onChange()
		}
	})
}

// Validate validates the configuration values
func Validate(c *Config) error {
	// Validate game mechanics
	if c.Game.Width < 3 || c.Game.Width%2 == 0 {
		return fmt.Errorf("game.width must be odd and at least 3")
	}
	if c.Game.Height < 3 || c.Game.Height%2 == 0 {
		return fmt.Errorf("game.height must be odd and at least 3")
	}
	if c.Game.Barriers < 0 {
		return fmt.Errorf("game.barriers must be non-negative")
	}
	if slots := (core.Grid{Width: c.Game.Width, Height: c.Game.Height}).WallSlotCount(); c.Game.Barriers > slots {
		return fmt.Errorf("game.barriers must not exceed the %d wall slots of the grid", slots)
	}
	if c.Game.StepBudget <= 0 {
		return fmt.Errorf("game.step_budget must be positive")
	}
	if c.Game.RetryBudget <= 0 {
		return fmt.Errorf("game.retry_budget must be positive")
	}

	// Validate server configuration
	if c.Server.EnvServer.Port <= 0 || c.Server.EnvServer.Port > 65535 {
		return fmt.Errorf("server.env_server.port must be between 1 and 65535")
	}
	if c.Server.EnvServer.MaxEnvs <= 0 {
		return fmt.Errorf("server.env_server.max_envs must be positive")
	}
	if c.Server.EnvServer.MaxDimension < 3 {
		return fmt.Errorf("server.env_server.max_dimension must be at least 3")
	}
	if c.Game.Width > c.Server.EnvServer.MaxDimension || c.Game.Height > c.Server.EnvServer.MaxDimension {
		return fmt.Errorf("game.width and game.height must not exceed server.env_server.max_dimension")
	}
	if c.Server.EnvServer.IdleTimeout < 0 || c.Server.EnvServer.CleanupInterval < 0 {
		return fmt.Errorf("server.env_server timeouts must be non-negative")
	}
	if c.Server.EnvServer.GracefulShutdownDelay < 0 {
		return fmt.Errorf("server.env_server.graceful_shutdown_delay must be non-negative")
	}

	// Validate UI configuration
	if c.UI.Board.CellSize <= 0 {
		return fmt.Errorf("ui.board.cell_size must be positive")
	}
	if c.UI.Board.Offset < 0 {
		return fmt.Errorf("ui.board.offset must be non-negative")
	}
	if c.UI.Window.FPS <= 0 {
		return fmt.Errorf("ui.window.fps must be positive")
	}

	// Validate training configuration
	if c.Training.Episodes < 0 {
		return fmt.Errorf("training.episodes must be non-negative")
	}
	if c.Training.LearningRate <= 0 {
		return fmt.Errorf("training.learning_rate must be positive")
	}
	if c.Training.Gamma < 0 || c.Training.Gamma > 1 {
		return fmt.Errorf("training.gamma must be between 0 and 1")
	}
	if c.Training.BatchSize <= 0 {
		return fmt.Errorf("training.batch_size must be positive")
	}
	if c.Training.EpsilonRange <= 0 {
		return fmt.Errorf("training.epsilon_range must be positive")
	}

	// Validate experience configuration
	if c.Experience.BufferCapacity <= 0 {
		return fmt.Errorf("experience.buffer_capacity must be positive")
	}
	switch c.Experience.Persistence.Type {
	case "none", "file", "redis":
	default:
		return fmt.Errorf("experience.persistence.type must be one of none, file, redis")
	}

	return nil
}
