package response

import (
	"math"
	"time"

	"github.com/mcoot/badminton-pairing/internal/api/apierr"
	"github.com/mcoot/badminton-pairing/internal/model"
	"github.com/mcoot/badminton-pairing/internal/services/pairing"
	"github.com/mcoot/badminton-pairing/internal/services/session"
)

// Player represents a player in API responses
type Player struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Level         int    `json:"level"`
	Status        string `json:"status"`
	CourtID       int    `json:"court_id,omitempty"`
	GamesPlayed   int    `json:"games_played"`
	WaitingRounds int    `json:"waiting_rounds"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:            string(p.ID),
		Name:          p.Name,
		Level:         p.Level,
		Status:        string(p.Status),
		CourtID:       p.CourtID,
		GamesPlayed:   p.GamesPlayed,
		WaitingRounds: p.WaitingRounds,
	}
}

// PlayersFromModel converts a list of players
func PlayersFromModel(players []*model.Player) []Player {
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = PlayerFromModel(p)
	}
	return out
}

// WaitingPlayer is a waiting player with its display priority
type WaitingPlayer struct {
	Player
	Priority int `json:"priority"`
}

// Team is one side of a court
type Team struct {
	PlayerIDs [2]string `json:"player_ids"`
	Players   []Player  `json:"players"` // Only players still on the roster
	Strength  float64   `json:"strength,omitempty"`
	Complete  bool      `json:"complete"`
}

// Court represents a court in API responses
type Court struct {
	ID             int        `json:"id"`
	State          string     `json:"state"`
	Teams          []Team     `json:"teams,omitempty"`
	StrengthDiff   *float64   `json:"strength_diff,omitempty"`
	Balance        string     `json:"balance,omitempty"`
	Stale          bool       `json:"stale,omitempty"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	ElapsedMinutes *int       `json:"elapsed_minutes,omitempty"`
}

// CourtFromView converts a session.CourtView
func CourtFromView(v *session.CourtView) Court {
	c := Court{
		ID:        v.ID,
		State:     string(v.State),
		Stale:     v.Stale,
		StartTime: v.StartTime,
	}
	for _, tv := range v.Teams {
		team := Team{
			PlayerIDs: [2]string{string(tv.Pair[0]), string(tv.Pair[1])},
			Players:   []Player{},
			Complete:  tv.Complete(),
		}
		for _, p := range tv.Players {
			if p != nil {
				team.Players = append(team.Players, PlayerFromModel(p))
			}
		}
		if team.Complete {
			team.Strength = round1(tv.Strength)
		}
		c.Teams = append(c.Teams, team)
	}
	if v.Balance != "" {
		diff := round1(v.StrengthDiff)
		c.StrengthDiff = &diff
		c.Balance = string(v.Balance)
	}
	if v.State == model.CourtStateActive {
		elapsed := v.ElapsedMinutes
		c.ElapsedMinutes = &elapsed
	}
	return c
}

// HistoryEntry is one teammate pair and its count
type HistoryEntry struct {
	Players [2]string `json:"players"`
	Count   int       `json:"count"`
}

// LevelRange is the accepted player level range
type LevelRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Session is the full session view
type Session struct {
	Players        []Player        `json:"players"`
	Waiting        []WaitingPlayer `json:"waiting"`
	Courts         []Court         `json:"courts"`
	History        []HistoryEntry  `json:"history"`
	CourtCount     int             `json:"court_count"`
	MaxGamesPlayed int             `json:"max_games_played"`
	Levels         LevelRange      `json:"levels"`
	TakenAt        time.Time       `json:"taken_at"`
}

// SessionFromSnapshot converts a session.Snapshot
func SessionFromSnapshot(s *session.Snapshot, levels model.LevelRange) Session {
	out := Session{
		Players:        PlayersFromModel(s.Players),
		Waiting:        make([]WaitingPlayer, len(s.Waiting)),
		Courts:         make([]Court, len(s.Courts)),
		History:        make([]HistoryEntry, len(s.History)),
		CourtCount:     s.CourtCount,
		MaxGamesPlayed: s.MaxGamesPlayed,
		Levels:         LevelRange{Min: levels.Min, Max: levels.Max},
		TakenAt:        s.TakenAt,
	}
	for i, p := range s.Waiting {
		out.Waiting[i] = WaitingPlayer{
			Player:   PlayerFromModel(p),
			Priority: pairing.WaitingPriority(p, s.MaxGamesPlayed),
		}
	}
	for i := range s.Courts {
		out.Courts[i] = CourtFromView(&s.Courts[i])
	}
	for i, e := range s.History {
		out.History[i] = HistoryEntry{
			Players: [2]string{string(e.Key.A), string(e.Key.B)},
			Count:   e.Count,
		}
	}
	return out
}

// Proposal is the result of auto-pair or a suggestion
type Proposal struct {
	CourtID             int               `json:"court_id,omitempty"`
	Teams               [2][2]string      `json:"teams"`
	Score               float64           `json:"score"`
	Breakdown           pairing.Breakdown `json:"breakdown"`
	CandidatesEvaluated int               `json:"candidates_evaluated"`
}

// ProposalFromModel converts a session.Proposal
func ProposalFromModel(p *session.Proposal) Proposal {
	out := Proposal{
		CourtID:             p.CourtID,
		Score:               p.Score,
		Breakdown:           p.Breakdown,
		CandidatesEvaluated: p.Stats.CandidatesEvaluated,
	}
	for i, team := range p.Matchup.Teams {
		out.Teams[i] = [2]string{string(team[0]), string(team[1])}
	}
	return out
}

// StartOutcome reports one court of a start-all
type StartOutcome struct {
	CourtID int    `json:"court_id"`
	Started bool   `json:"started"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StartAllResponse lists the outcome of each proposed court
type StartAllResponse struct {
	Outcomes []StartOutcome `json:"outcomes"`
}

// StartAllFromModel converts start-all outcomes
func StartAllFromModel(outcomes []session.StartOutcome) StartAllResponse {
	out := StartAllResponse{Outcomes: make([]StartOutcome, len(outcomes))}
	for i, o := range outcomes {
		out.Outcomes[i] = StartOutcome{CourtID: o.CourtID, Started: o.Started}
		if o.Err != nil {
			out.Outcomes[i].Code = apierr.Code(o.Err)
			out.Outcomes[i].Error = o.Err.Error()
		}
	}
	return out
}

// ImportIssue is one record that was not imported
type ImportIssue struct {
	Index  int    `json:"index"`
	Name   string `json:"name,omitempty"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// ImportReport is the response of a bulk import
type ImportReport struct {
	Imported []Player      `json:"imported"`
	Skipped  []ImportIssue `json:"skipped"`
	Rejected []ImportIssue `json:"rejected"`
}

// ImportReportFromModel converts a session.ImportReport
func ImportReportFromModel(r *session.ImportReport) ImportReport {
	return ImportReport{
		Imported: PlayersFromModel(r.Imported),
		Skipped:  issues(r.Skipped),
		Rejected: issues(r.Rejected),
	}
}

func issues(in []session.ImportIssue) []ImportIssue {
	out := make([]ImportIssue, len(in))
	for i, issue := range in {
		out[i] = ImportIssue{
			Index:  issue.Index,
			Name:   issue.Name,
			Code:   apierr.Code(issue.Err),
			Reason: issue.Reason,
		}
	}
	return out
}

// Health is the health check response
type Health struct {
	Status       string `json:"status"`
	Players      int    `json:"players"`
	ActiveCourts int    `json:"active_courts"`
	CourtCount   int    `json:"court_count"`
}

// round1 rounds to one decimal place for display
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
