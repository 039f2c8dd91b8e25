package session

import (
	"time"

	"github.com/samber/lo"

	"github.com/mcoot/badminton-pairing/internal/dependencies/clock"
	"github.com/mcoot/badminton-pairing/internal/model"
	"github.com/mcoot/badminton-pairing/internal/services/pairing"
)

// Snapshot is the session arranged for display
type Snapshot struct {
	Players        []*model.Player // Roster order
	Waiting        []*model.Player // Waiting priority order
	Courts         []CourtView
	History        []model.HistoryEntry
	CourtCount     int
	MaxGamesPlayed int
	TakenAt        time.Time
}

// CourtView is a court with its teams resolved to players
type CourtView struct {
	ID    int
	State model.CourtState
	Teams []TeamView

	// StrengthDiff and Balance are set when both teams are complete
	StrengthDiff float64
	Balance      pairing.BalanceRating

	// Stale marks a proposed court with a player who is no longer waiting
	Stale bool

	StartTime      *time.Time
	ElapsedMinutes int
}

// TeamView is one side of a court. Players holds nil for a player who has
// left the roster since the matchup was proposed.
type TeamView struct {
	Pair     model.Pair
	Players  [2]*model.Player
	Strength float64
}

// Complete reports whether both teammates are still on the roster
func (t TeamView) Complete() bool {
	return t.Players[0] != nil && t.Players[1] != nil
}

func (c *Controller) snapshot(s *model.Session) *Snapshot {
	maxGames := s.MaxGamesPlayed()
	snap := &Snapshot{
		Players:        s.Players,
		Waiting:        pairing.SortByPriority(s.WaitingPlayers(), maxGames),
		History:        s.History.Entries(),
		CourtCount:     s.CourtCount,
		MaxGamesPlayed: maxGames,
		TakenAt:        c.clock.Now(),
	}
	for _, court := range s.Courts {
		snap.Courts = append(snap.Courts, *c.courtView(s, court))
	}
	return snap
}

func (c *Controller) courtView(s *model.Session, court *model.Court) *CourtView {
	view := &CourtView{
		ID:        court.ID,
		State:     court.State(),
		StartTime: court.StartTime,
	}
	if court.StartTime != nil {
		view.ElapsedMinutes = clock.ElapsedMinutes(c.clock, *court.StartTime)
	}
	if court.Matchup == nil {
		return view
	}

	byID := lo.KeyBy(s.Players, func(p *model.Player) model.PlayerID { return p.ID })
	var teams [2]pairing.Team
	complete := true
	for i, pair := range court.Matchup.Teams {
		tv := TeamView{Pair: pair}
		for j, id := range pair {
			if p, ok := byID[id]; ok {
				tv.Players[j] = p
				teams[i][j] = pairing.EntryFromPlayer(p)
			}
		}
		if tv.Complete() {
			tv.Strength = c.cfg.Policy.TeamStrength(teams[i])
		} else {
			complete = false
		}
		view.Teams = append(view.Teams, tv)
	}

	if complete {
		view.StrengthDiff = c.cfg.Policy.StrengthDiff(teams[0], teams[1])
		view.Balance = pairing.RateBalance(view.StrengthDiff)
	}
	if view.State == model.CourtStateProposed {
		view.Stale = lo.SomeBy(court.Matchup.PlayerIDs(), func(id model.PlayerID) bool {
			p, ok := byID[id]
			return !ok || !p.IsWaiting()
		})
	}
	return view
}
