package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/badminton-pairing/internal/dependencies/clock"
	"github.com/mcoot/badminton-pairing/internal/dependencies/random"
	"github.com/mcoot/badminton-pairing/internal/metrics"
	"github.com/mcoot/badminton-pairing/internal/model"
	"github.com/mcoot/badminton-pairing/internal/services/pairing"
	"github.com/mcoot/badminton-pairing/internal/services/session"
	"github.com/mcoot/badminton-pairing/internal/storage"
	filestorage "github.com/mcoot/badminton-pairing/internal/storage/file"
	"github.com/mcoot/badminton-pairing/internal/storage/memory"
	redisstorage "github.com/mcoot/badminton-pairing/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeFile   = "file"
)

// DefaultStateFile is used by the file backend when no path is configured
const DefaultStateFile = "data/session.json"

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock   clock.Clock
	Random  random.Random
	Metrics *metrics.Metrics

	// Services
	SessionController *session.Controller
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "file")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// StateFile is the session file for the file backend
	// If empty, defaults to DefaultStateFile
	StateFile string
	// PolicyFile is a YAML file of scoring policy overrides (optional)
	PolicyFile string
	// Levels is the accepted player level range
	// If zero value, defaults to model.DefaultLevelRange()
	Levels model.LevelRange
	// DefaultCourtCount is the court count of a fresh session
	// If zero, defaults to model.DefaultCourtCount
	DefaultCourtCount int
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	sessionCfg, err := sessionConfig(cfg)
	if err != nil {
		return nil, err
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	logger.Info("application configured",
		slog.String("storage", storageTypeOf(cfg)),
		slog.Int("level_min", sessionCfg.Levels.Min),
		slog.Int("level_max", sessionCfg.Levels.Max),
		slog.Int("default_court_count", sessionCfg.DefaultCourtCount),
	)
	return newWithDependencies(store, clk, rnd, metrics.New(), sessionCfg, logger), nil
}

func storageTypeOf(cfg Config) string {
	if cfg.StorageType == "" {
		return StorageTypeMemory
	}
	return cfg.StorageType
}

// newStorage creates the storage backend selected by cfg
func newStorage(cfg Config) (storage.Storage, error) {
	switch storageTypeOf(cfg) {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypeFile:
		path := cfg.StateFile
		if path == "" {
			path = DefaultStateFile
		}
		return filestorage.New(path)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'file'")
	}
}

// sessionConfig fills in defaults and loads the policy file
func sessionConfig(cfg Config) (session.Config, error) {
	sessionCfg := session.DefaultConfig()

	if cfg.Levels != (model.LevelRange{}) {
		if cfg.Levels.Min < 1 || cfg.Levels.Max < cfg.Levels.Min {
			return sessionCfg, fmt.Errorf("invalid level range %d-%d", cfg.Levels.Min, cfg.Levels.Max)
		}
		sessionCfg.Levels = cfg.Levels
	}

	if cfg.DefaultCourtCount != 0 {
		if cfg.DefaultCourtCount < model.MinCourtCount || cfg.DefaultCourtCount > model.MaxCourtCount {
			return sessionCfg, fmt.Errorf("%w: %d", model.ErrInvalidCourtCount, cfg.DefaultCourtCount)
		}
		sessionCfg.DefaultCourtCount = cfg.DefaultCourtCount
	}

	if cfg.PolicyFile != "" {
		policy, err := pairing.LoadPolicy(cfg.PolicyFile)
		if err != nil {
			return sessionCfg, err
		}
		sessionCfg.Policy = policy
	}
	return sessionCfg, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	m *metrics.Metrics,
	cfg session.Config,
	logger *slog.Logger,
) *App {
	// Create services
	sessionController := session.NewController(store, clk, rnd, m, cfg, logger)

	return &App{
		Storage:           store,
		Clock:             clk,
		Random:            rnd,
		Metrics:           m,
		SessionController: sessionController,
	}
}
