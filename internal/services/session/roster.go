package session

import (
	"context"
	"log/slog"

	"github.com/mcoot/badminton-pairing/internal/metrics"
	"github.com/mcoot/badminton-pairing/internal/model"
)

// PlayerUpdate holds the fields to change on a player; nil fields are kept
type PlayerUpdate struct {
	Level         *int
	GamesPlayed   *int
	WaitingRounds *int
}

// AddPlayer adds a waiting player to the back of the queue
func (c *Controller) AddPlayer(ctx context.Context, name string, level int) (*model.Player, error) {
	name, err := c.rules.name(name)
	if err != nil {
		return nil, err
	}
	if err := c.rules.level(level); err != nil {
		return nil, err
	}

	var player *model.Player
	_, err = c.mutate(ctx, func(s *model.Session) error {
		player = model.NewPlayer(model.PlayerID(c.random.ID()), name, level)
		return s.AddPlayer(player)
	})
	if err != nil {
		return nil, err
	}

	c.metrics.PlayersAdded(1)
	c.logger.Info("player added",
		slog.String("player_id", string(player.ID)),
		slog.String("name", player.Name),
		slog.Int("level", player.Level),
	)
	return player, nil
}

// RemovePlayer drops a player in any status. A playing player's match is
// ended for the other three as if it had finished normally.
func (c *Controller) RemovePlayer(ctx context.Context, id model.PlayerID) error {
	var endedCourt int
	_, err := c.mutate(ctx, func(s *model.Session) error {
		p, err := s.Player(id)
		if err != nil {
			return err
		}
		if p.IsPlaying() {
			court := s.ActiveCourtOf(id)
			if court == nil {
				return model.ErrMalformedState
			}
			for _, other := range court.Matchup.PlayerIDs() {
				if other == id {
					continue
				}
				if err := c.finishPlayer(s, other); err != nil {
					return err
				}
			}
			court.Reset()
			endedCourt = court.ID
		}
		return s.RemovePlayer(id)
	})
	if err != nil {
		return err
	}

	if endedCourt != 0 {
		c.metrics.Match(metrics.MatchEnded)
		c.logger.Info("match ended by player removal",
			slog.Int("court", endedCourt),
			slog.String("player_id", string(id)),
		)
	}
	c.logger.Info("player removed", slog.String("player_id", string(id)))
	return nil
}

// EditPlayer changes a non-playing player's level or counters
func (c *Controller) EditPlayer(ctx context.Context, id model.PlayerID, update PlayerUpdate) (*model.Player, error) {
	if update.Level != nil {
		if err := c.rules.level(*update.Level); err != nil {
			return nil, err
		}
	}
	if update.GamesPlayed != nil {
		if err := c.rules.counter("gamesPlayed", *update.GamesPlayed); err != nil {
			return nil, err
		}
	}
	if update.WaitingRounds != nil {
		if err := c.rules.counter("waitingRounds", *update.WaitingRounds); err != nil {
			return nil, err
		}
	}

	var player *model.Player
	_, err := c.mutate(ctx, func(s *model.Session) error {
		p, err := s.Player(id)
		if err != nil {
			return err
		}
		if p.IsPlaying() {
			return model.ErrPlayerPlaying
		}
		if update.Level != nil {
			p.Level = *update.Level
		}
		if update.GamesPlayed != nil {
			p.GamesPlayed = *update.GamesPlayed
		}
		if update.WaitingRounds != nil {
			p.WaitingRounds = *update.WaitingRounds
			s.ForgetWaitRounds(id)
		}
		player = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("player updated",
		slog.String("player_id", string(player.ID)),
		slog.Int("level", player.Level),
		slog.Int("games_played", player.GamesPlayed),
		slog.Int("waiting_rounds", player.WaitingRounds),
	)
	return player, nil
}

// ToggleResting moves a non-playing player between waiting and resting.
// A player coming back from rest joins the back of the queue.
func (c *Controller) ToggleResting(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var player *model.Player
	_, err := c.mutate(ctx, func(s *model.Session) error {
		p, err := s.Player(id)
		if err != nil {
			return err
		}
		player = p
		switch p.Status {
		case model.StatusWaiting:
			return s.SetResting(id)
		case model.StatusResting:
			return s.SetWaiting(id)
		default:
			return model.ErrPlayerPlaying
		}
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("player status toggled",
		slog.String("player_id", string(player.ID)),
		slog.String("status", string(player.Status)),
	)
	return player, nil
}

// finishPlayer credits a played game and returns the player to the queue
func (c *Controller) finishPlayer(s *model.Session, id model.PlayerID) error {
	p, err := s.Player(id)
	if err != nil {
		return err
	}
	p.GamesPlayed++
	p.WaitingRounds = 0
	return s.SetWaiting(id)
}
