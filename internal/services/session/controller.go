package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/badminton-pairing/internal/dependencies/clock"
	"github.com/mcoot/badminton-pairing/internal/dependencies/random"
	"github.com/mcoot/badminton-pairing/internal/metrics"
	"github.com/mcoot/badminton-pairing/internal/model"
	"github.com/mcoot/badminton-pairing/internal/services/pairing"
	"github.com/mcoot/badminton-pairing/internal/storage"
)

// Config holds the tunables of a session controller
type Config struct {
	Policy            pairing.Policy
	Levels            model.LevelRange
	DefaultCourtCount int
}

// DefaultConfig returns the standard scoring policy, level range and court count
func DefaultConfig() Config {
	return Config{
		Policy:            pairing.DefaultPolicy(),
		Levels:            model.DefaultLevelRange(),
		DefaultCourtCount: model.DefaultCourtCount,
	}
}

// Controller runs the roster commands and the court match lifecycle.
// Every operation is a load-modify-save of the whole session under one
// lock, so operations are atomic with respect to each other.
type Controller struct {
	mu sync.Mutex

	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	metrics *metrics.Metrics
	cfg     Config
	rules   *rules
	logger  *slog.Logger
}

// NewController creates a new session Controller
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	metrics *metrics.Metrics,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
		random:  random,
		metrics: metrics,
		cfg:     cfg,
		rules:   newRules(cfg.Levels),
		logger:  logger,
	}
}

// Levels returns the accepted level range
func (c *Controller) Levels() model.LevelRange {
	return c.cfg.Levels
}

// load returns the stored session, or a fresh one if none is stored
func (c *Controller) load(ctx context.Context) (*model.Session, error) {
	s, err := c.storage.LoadSession(ctx)
	if errors.Is(err, model.ErrSessionNotFound) {
		return model.NewSession(c.cfg.DefaultCourtCount), nil
	}
	if err != nil {
		c.logger.Error("failed to load session", slog.String("error", err.Error()))
		return nil, err
	}
	return s, nil
}

func (c *Controller) save(ctx context.Context, s *model.Session) error {
	if err := c.storage.SaveSession(ctx, s); err != nil {
		c.logger.Error("failed to save session", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// read returns a private copy of the session
func (c *Controller) read(ctx context.Context) (*model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// mutate loads the session, applies fn and saves the result. When fn fails
// nothing is saved, except for a stale pairing whose court was cleared.
func (c *Controller) mutate(ctx context.Context, fn func(s *model.Session) error) (*model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	if err := fn(s); err != nil {
		if !errors.Is(err, model.ErrStalePairing) {
			c.logger.Debug("operation rejected", slog.String("error", err.Error()))
			return nil, err
		}
		if saveErr := c.checkAndSave(ctx, s); saveErr != nil {
			return nil, saveErr
		}
		return s, err
	}

	if err := c.checkAndSave(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// checkAndSave refuses to persist a session that breaks its invariants. The
// violation is not wrapped, so callers see an internal error rather than a
// malformed-input one.
func (c *Controller) checkAndSave(ctx context.Context, s *model.Session) error {
	if err := s.Validate(); err != nil {
		c.logger.Error("session invariant violated", slog.String("error", err.Error()))
		return fmt.Errorf("session invariant violated: %v", err)
	}
	return c.save(ctx, s)
}

// Snapshot returns the current state arranged for display
func (c *Controller) Snapshot(ctx context.Context) (*Snapshot, error) {
	s, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	return c.snapshot(s), nil
}

// SetCourtCount resizes the court array, keeping the state of remaining courts
func (c *Controller) SetCourtCount(ctx context.Context, n int) (*Snapshot, error) {
	s, err := c.mutate(ctx, func(s *model.Session) error {
		return s.ResizeCourts(n)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("court count updated", slog.Int("court_count", n))
	return c.snapshot(s), nil
}

// ResetStats zeroes every player's game and waiting counters.
// Pairing history is kept.
func (c *Controller) ResetStats(ctx context.Context) (*Snapshot, error) {
	s, err := c.mutate(ctx, func(s *model.Session) error {
		for _, p := range s.Players {
			p.GamesPlayed = 0
			p.WaitingRounds = 0
			s.ForgetWaitRounds(p.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("stats reset", slog.Int("player_count", len(s.Players)))
	return c.snapshot(s), nil
}

// ClearAll discards every player, match and history entry, keeping the court count
func (c *Controller) ClearAll(ctx context.Context) (*Snapshot, error) {
	s, err := c.mutate(ctx, func(s *model.Session) error {
		*s = *model.NewSession(s.CourtCount)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("session cleared", slog.Int("court_count", s.CourtCount))
	return c.snapshot(s), nil
}

// Export returns the session in the persisted blob format
func (c *Controller) Export(ctx context.Context) ([]byte, error) {
	s, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	return storage.EncodeSession(s)
}

// Restore replaces the session with a previously exported blob. A blob that
// fails to decode leaves the current session untouched.
func (c *Controller) Restore(ctx context.Context, data []byte) (*Snapshot, error) {
	restored, err := storage.DecodeSession(data)
	if err != nil {
		c.logger.Warn("rejected session restore", slog.String("error", err.Error()))
		return nil, err
	}

	s, err := c.mutate(ctx, func(s *model.Session) error {
		*s = *restored
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("session restored",
		slog.Int("player_count", len(s.Players)),
		slog.Int("court_count", s.CourtCount),
	)
	return c.snapshot(s), nil
}

// Interface for dependency injection
type ControllerInterface interface {
	Levels() model.LevelRange
	Snapshot(ctx context.Context) (*Snapshot, error)
	SetCourtCount(ctx context.Context, n int) (*Snapshot, error)
	ResetStats(ctx context.Context) (*Snapshot, error)
	ClearAll(ctx context.Context) (*Snapshot, error)
	Export(ctx context.Context) ([]byte, error)
	Restore(ctx context.Context, data []byte) (*Snapshot, error)

	AddPlayer(ctx context.Context, name string, level int) (*model.Player, error)
	RemovePlayer(ctx context.Context, id model.PlayerID) error
	EditPlayer(ctx context.Context, id model.PlayerID, update PlayerUpdate) (*model.Player, error)
	ToggleResting(ctx context.Context, id model.PlayerID) (*model.Player, error)
	ImportPlayers(ctx context.Context, data []byte) (*ImportReport, error)

	AutoPair(ctx context.Context) (*Proposal, error)
	Suggest(ctx context.Context) (*Proposal, error)
	ProposeCourt(ctx context.Context, courtID int, matchup model.Matchup) (*CourtView, error)
	StartCourt(ctx context.Context, courtID int) (*CourtView, error)
	StartAll(ctx context.Context) ([]StartOutcome, error)
	CancelCourt(ctx context.Context, courtID int) (*CourtView, error)
	EndCourt(ctx context.Context, courtID int) (*CourtView, error)
	ClearCourt(ctx context.Context, courtID int) (*CourtView, error)
}

var _ ControllerInterface = (*Controller)(nil)
