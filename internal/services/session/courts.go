package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/mcoot/badminton-pairing/internal/metrics"
	"github.com/mcoot/badminton-pairing/internal/model"
	"github.com/mcoot/badminton-pairing/internal/services/pairing"
)

// Proposal is the outcome of a pairing search
type Proposal struct {
	// CourtID is the court the matchup was placed on; for a suggestion it
	// is the court auto-pair would use, or 0 if none is idle
	CourtID   int
	Matchup   model.Matchup
	Score     float64
	Breakdown pairing.Breakdown
	Stats     pairing.Stats
}

// StartOutcome reports what happened to one court in StartAll
type StartOutcome struct {
	CourtID int
	Started bool
	Err     error // ErrStalePairing when the court was cleared
}

// AutoPair searches the waiting players not already placed on another
// proposed court and proposes the best matchup on the first idle court
func (c *Controller) AutoPair(ctx context.Context) (*Proposal, error) {
	var proposal *Proposal
	_, err := c.mutate(ctx, func(s *model.Session) error {
		court := s.FirstIdleCourt()
		if court == nil {
			return model.ErrNoIdleCourt
		}

		p, ok := c.search(s, c.available(s, court.ID))
		if !ok {
			return model.ErrInsufficientPlayers
		}

		p.CourtID = court.ID
		court.Matchup = &p.Matchup
		proposal = p
		return nil
	})
	switch {
	case errors.Is(err, model.ErrNoIdleCourt):
		c.metrics.AutoPair(metrics.AutoPairNoCourt)
	case errors.Is(err, model.ErrInsufficientPlayers):
		c.metrics.AutoPair(metrics.AutoPairInsufficient)
	}
	if err != nil {
		return nil, err
	}

	c.metrics.AutoPair(metrics.AutoPairProposed)
	c.metrics.Search(proposal.Stats.CandidatesEvaluated)
	c.logger.Info("matchup proposed",
		slog.Int("court", proposal.CourtID),
		slog.Float64("score", proposal.Score),
		slog.Int("candidates", proposal.Stats.CandidatesEvaluated),
	)
	return proposal, nil
}

// Suggest runs the same search as AutoPair without changing anything
func (c *Controller) Suggest(ctx context.Context) (*Proposal, error) {
	s, err := c.read(ctx)
	if err != nil {
		return nil, err
	}

	courtID := 0
	if court := s.FirstIdleCourt(); court != nil {
		courtID = court.ID
	}

	p, ok := c.search(s, c.available(s, courtID))
	if !ok {
		return nil, model.ErrInsufficientPlayers
	}
	c.metrics.Search(p.Stats.CandidatesEvaluated)
	p.CourtID = courtID
	return p, nil
}

// ProposeCourt sets a court's matchup by hand. The court must not be in
// play and all four players must be waiting.
func (c *Controller) ProposeCourt(ctx context.Context, courtID int, matchup model.Matchup) (*CourtView, error) {
	if err := matchup.Validate(); err != nil {
		return nil, err
	}

	var view *CourtView
	_, err := c.mutate(ctx, func(s *model.Session) error {
		court, err := s.Court(courtID)
		if err != nil {
			return err
		}
		if court.Occupied {
			return model.ErrCourtOccupied
		}
		for _, id := range matchup.PlayerIDs() {
			p, err := s.Player(id)
			if err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			if !p.IsWaiting() {
				return fmt.Errorf("%s: %w", p.Name, model.ErrPlayerNotWaiting)
			}
		}
		m := matchup
		court.Matchup = &m
		view = c.courtView(s, court)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("matchup set manually", slog.Int("court", courtID))
	return view, nil
}

// StartCourt starts the proposed match on a court. If any proposed player
// is no longer waiting the court is cleared and ErrStalePairing returned.
func (c *Controller) StartCourt(ctx context.Context, courtID int) (*CourtView, error) {
	var view *CourtView
	_, err := c.mutate(ctx, func(s *model.Session) error {
		court, err := s.Court(courtID)
		if err != nil {
			return err
		}
		switch court.State() {
		case model.CourtStateActive:
			return model.ErrCourtOccupied
		case model.CourtStateIdle:
			return model.ErrCourtNotProposed
		}
		err = c.start(s, court)
		view = c.courtView(s, court)
		return err
	})
	switch {
	case err == nil:
		c.metrics.Match(metrics.MatchStarted)
	case errors.Is(err, model.ErrStalePairing):
		// The cleared court was saved
		c.metrics.StaleStart()
	}
	if err != nil {
		return view, err
	}
	return view, nil
}

// StartAll starts every proposed court in court order. Courts made stale
// by an earlier start in the same call are cleared.
func (c *Controller) StartAll(ctx context.Context) ([]StartOutcome, error) {
	var outcomes []StartOutcome
	_, err := c.mutate(ctx, func(s *model.Session) error {
		proposed := lo.Filter(s.Courts, func(court *model.Court, _ int) bool {
			return court.State() == model.CourtStateProposed
		})
		if len(proposed) == 0 {
			return model.ErrNoProposedCourts
		}
		for _, court := range proposed {
			err := c.start(s, court)
			outcomes = append(outcomes, StartOutcome{
				CourtID: court.ID,
				Started: err == nil,
				Err:     err,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, o := range outcomes {
		if o.Started {
			c.metrics.Match(metrics.MatchStarted)
		} else {
			c.metrics.StaleStart()
		}
	}
	return outcomes, nil
}

// CancelCourt undoes a started match: the players return to the queue
// without a game counted, the court keeps its matchup, and the waiting
// rounds and pairing history added by the start are rolled back
func (c *Controller) CancelCourt(ctx context.Context, courtID int) (*CourtView, error) {
	var view *CourtView
	_, err := c.mutate(ctx, func(s *model.Session) error {
		court, err := c.activeCourt(s, courtID)
		if err != nil {
			return err
		}

		for _, id := range court.WaitCohort {
			if p, err := s.Player(id); err == nil && p.IsWaiting() && p.WaitingRounds > 0 {
				p.WaitingRounds--
			}
		}
		for _, id := range court.Matchup.PlayerIDs() {
			if err := s.SetWaiting(id); err != nil {
				return err
			}
		}
		for _, team := range court.Matchup.Teams {
			s.History.Decrement(team[0], team[1])
		}

		court.Occupied = false
		court.StartTime = nil
		court.WaitCohort = nil
		view = c.courtView(s, court)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.metrics.Match(metrics.MatchCancelled)
	c.logger.Info("match cancelled", slog.Int("court", courtID))
	return view, nil
}

// EndCourt finishes a match, crediting each player with a game
func (c *Controller) EndCourt(ctx context.Context, courtID int) (*CourtView, error) {
	var (
		view    *CourtView
		elapsed int
	)
	_, err := c.mutate(ctx, func(s *model.Session) error {
		court, err := c.activeCourt(s, courtID)
		if err != nil {
			return err
		}
		elapsed = c.courtView(s, court).ElapsedMinutes

		for _, id := range court.Matchup.PlayerIDs() {
			if err := c.finishPlayer(s, id); err != nil {
				return err
			}
		}
		court.Reset()
		view = c.courtView(s, court)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.metrics.Match(metrics.MatchEnded)
	c.logger.Info("match ended",
		slog.Int("court", courtID),
		slog.Int("elapsed_minutes", elapsed),
	)
	return view, nil
}

// ClearCourt discards a proposed matchup
func (c *Controller) ClearCourt(ctx context.Context, courtID int) (*CourtView, error) {
	var view *CourtView
	_, err := c.mutate(ctx, func(s *model.Session) error {
		court, err := s.Court(courtID)
		if err != nil {
			return err
		}
		switch court.State() {
		case model.CourtStateActive:
			return model.ErrCourtOccupied
		case model.CourtStateIdle:
			return model.ErrCourtNotProposed
		}
		court.Reset()
		view = c.courtView(s, court)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("matchup cleared", slog.Int("court", courtID))
	return view, nil
}

// start moves a proposed court into play. Waiting players left behind gain
// a waiting round and are recorded on the court so a cancel can undo it.
func (c *Controller) start(s *model.Session, court *model.Court) error {
	ids := court.Matchup.PlayerIDs()
	for _, id := range ids {
		if p, err := s.Player(id); err != nil || !p.IsWaiting() {
			court.Reset()
			c.logger.Warn("stale matchup cleared",
				slog.Int("court", court.ID),
				slog.String("player_id", string(id)),
			)
			return fmt.Errorf("court %d: %w", court.ID, model.ErrStalePairing)
		}
	}

	for _, id := range ids {
		if err := s.SetPlaying(id, court.ID); err != nil {
			return err
		}
		p, _ := s.Player(id)
		p.WaitingRounds = 0
	}
	s.ForgetWaitRounds(ids...)

	cohort := make([]model.PlayerID, 0, len(s.Waiting))
	for _, p := range s.WaitingPlayers() {
		p.WaitingRounds++
		cohort = append(cohort, p.ID)
	}

	for _, team := range court.Matchup.Teams {
		s.History.Increment(team[0], team[1])
	}

	now := c.clock.Now()
	court.Occupied = true
	court.StartTime = &now
	court.WaitCohort = cohort

	c.logger.Info("match started",
		slog.Int("court", court.ID),
		slog.Int("waiting", len(cohort)),
	)
	return nil
}

func (c *Controller) activeCourt(s *model.Session, courtID int) (*model.Court, error) {
	court, err := s.Court(courtID)
	if err != nil {
		return nil, err
	}
	if !court.Occupied {
		return nil, model.ErrCourtNotActive
	}
	return court, nil
}

// available returns the waiting players that are not placed on a proposed
// court other than except
func (c *Controller) available(s *model.Session, except int) []*model.Player {
	reserved := s.ReservedPlayers(except)
	return lo.Filter(s.WaitingPlayers(), func(p *model.Player, _ int) bool {
		return !reserved[p.ID]
	})
}

// search finds the best matchup among players, scored against the whole session
func (c *Controller) search(s *model.Session, players []*model.Player) (*Proposal, bool) {
	evaluator := pairing.NewEvaluator(c.cfg.Policy, s.MaxGamesPlayed(), s.History)
	result, ok := pairing.FindBestPairing(pairing.EntriesFromPlayers(players), evaluator)
	if !ok {
		return nil, false
	}

	return &Proposal{
		Matchup:   result.Candidate.Matchup(),
		Score:     result.Score,
		Breakdown: evaluator.Breakdown(result.Candidate),
		Stats:     result.Stats,
	}, true
}
