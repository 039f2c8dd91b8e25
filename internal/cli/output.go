package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case []Player:
		o.printPlayers(v)
	case Court:
		o.printCourt(v)
	case Session:
		o.printSession(v)
	case Proposal:
		o.printProposal(v)
	case StartAllResult:
		o.printStartAll(v)
	case ImportReport:
		o.printImportReport(v)
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
		if v.Status == "ok" {
			fmt.Fprintf(o.w, "Players: %d, courts: %d (%d active)\n", v.Players, v.CourtCount, v.ActiveCourts)
		}
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Level         int    `json:"level"`
	Status        string `json:"status"`
	CourtID       int    `json:"court_id,omitempty"`
	GamesPlayed   int    `json:"games_played"`
	WaitingRounds int    `json:"waiting_rounds"`
}

// WaitingPlayer is a queued player with its priority
type WaitingPlayer struct {
	Player
	Priority int `json:"priority"`
}

// Team response type
type Team struct {
	PlayerIDs [2]string `json:"player_ids"`
	Players   []Player  `json:"players"`
	Strength  float64   `json:"strength,omitempty"`
	Complete  bool      `json:"complete"`
}

// Court response type
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

// HistoryEntry response type
type HistoryEntry struct {
	Players [2]string `json:"players"`
	Count   int       `json:"count"`
}

// LevelRange response type
type LevelRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Session response type
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

// Breakdown is the score breakdown of a proposal
type Breakdown struct {
	Base     float64 `json:"base"`
	TeamGap  float64 `json:"team_gap"`
	Balance  float64 `json:"balance"`
	Repeat   float64 `json:"repeat"`
	Fairness float64 `json:"fairness"`
	Total    float64 `json:"total"`
}

// Proposal response type
type Proposal struct {
	CourtID             int          `json:"court_id,omitempty"`
	Teams               [2][2]string `json:"teams"`
	Score               float64      `json:"score"`
	Breakdown           Breakdown    `json:"breakdown"`
	CandidatesEvaluated int          `json:"candidates_evaluated"`
}

// StartOutcome response type
type StartOutcome struct {
	CourtID int    `json:"court_id"`
	Started bool   `json:"started"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StartAllResult response type
type StartAllResult struct {
	Outcomes []StartOutcome `json:"outcomes"`
}

// ImportIssue response type
type ImportIssue struct {
	Index  int    `json:"index"`
	Name   string `json:"name,omitempty"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// ImportReport response type
type ImportReport struct {
	Imported []Player      `json:"imported"`
	Skipped  []ImportIssue `json:"skipped"`
	Rejected []ImportIssue `json:"rejected"`
}

// HealthResult response type
type HealthResult struct {
	Status       string `json:"status"`
	Players      int    `json:"players"`
	ActiveCourts int    `json:"active_courts"`
	CourtCount   int    `json:"court_count"`
}

func (o *Output) printPlayer(p Player) {
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.Name, p.ID)
	fmt.Fprintf(o.w, "Level: %d\n", p.Level)
	status := p.Status
	if p.CourtID > 0 {
		status = fmt.Sprintf("%s on court %d", p.Status, p.CourtID)
	}
	fmt.Fprintf(o.w, "Status: %s\n", status)
	fmt.Fprintf(o.w, "Games: %d, waiting rounds: %d\n", p.GamesPlayed, p.WaitingRounds)
}

func (o *Output) printPlayers(players []Player) {
	if len(players) == 0 {
		fmt.Fprintln(o.w, "No players")
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLEVEL\tSTATUS\tGAMES\tROUNDS\tID")
	for _, p := range players {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\t%s\n", p.Name, p.Level, p.Status, p.GamesPlayed, p.WaitingRounds, p.ID)
	}
	_ = tw.Flush()
}

func (o *Output) printCourt(c Court) {
	header := fmt.Sprintf("Court %d: %s", c.ID, c.State)
	if c.Stale {
		header += " (stale)"
	}
	if c.ElapsedMinutes != nil {
		header += fmt.Sprintf(", %d min", *c.ElapsedMinutes)
	}
	fmt.Fprintln(o.w, header)

	for i, t := range c.Teams {
		fmt.Fprintf(o.w, "  Team %d: %s", i+1, teamNames(t))
		if t.Complete {
			fmt.Fprintf(o.w, " [%.1f]", t.Strength)
		}
		fmt.Fprintln(o.w)
	}
	if c.StrengthDiff != nil {
		fmt.Fprintf(o.w, "  Difference: %.1f (%s)\n", *c.StrengthDiff, strings.ReplaceAll(c.Balance, "_", " "))
	}
}

func teamNames(t Team) string {
	names := make([]string, 0, 2)
	for _, id := range t.PlayerIDs {
		name := "(left)"
		for _, p := range t.Players {
			if p.ID == id {
				name = p.Name
				break
			}
		}
		names = append(names, name)
	}
	return strings.Join(names, " & ")
}

func (o *Output) printSession(s Session) {
	fmt.Fprintf(o.w, "Courts: %d, players: %d, levels %d-%d\n", s.CourtCount, len(s.Players), s.Levels.Min, s.Levels.Max)
	for _, c := range s.Courts {
		o.printCourt(c)
	}

	fmt.Fprintf(o.w, "\nWaiting (%d):\n", len(s.Waiting))
	for i, p := range s.Waiting {
		fmt.Fprintf(o.w, "  %d. %s (level %d, games %d, rounds %d, priority %d)\n",
			i+1, p.Name, p.Level, p.GamesPlayed, p.WaitingRounds, p.Priority)
	}

	var resting []string
	for _, p := range s.Players {
		if p.Status == "resting" {
			resting = append(resting, p.Name)
		}
	}
	if len(resting) > 0 {
		fmt.Fprintf(o.w, "\nResting: %s\n", strings.Join(resting, ", "))
	}

	if len(s.History) > 0 {
		names := make(map[string]string, len(s.Players))
		for _, p := range s.Players {
			names[p.ID] = p.Name
		}
		fmt.Fprintln(o.w, "\nTeammate history:")
		for _, e := range s.History {
			fmt.Fprintf(o.w, "  %s & %s: %d\n", nameOr(names, e.Players[0]), nameOr(names, e.Players[1]), e.Count)
		}
	}
}

func nameOr(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}

func (o *Output) printProposal(p Proposal) {
	if p.CourtID > 0 {
		fmt.Fprintf(o.w, "Court %d proposed\n", p.CourtID)
	} else {
		fmt.Fprintln(o.w, "Suggested pairing")
	}
	fmt.Fprintf(o.w, "  Team 1: %s & %s\n", p.Teams[0][0], p.Teams[0][1])
	fmt.Fprintf(o.w, "  Team 2: %s & %s\n", p.Teams[1][0], p.Teams[1][1])
	fmt.Fprintf(o.w, "Score: %.1f (%d candidates)\n", p.Score, p.CandidatesEvaluated)
	b := p.Breakdown
	fmt.Fprintf(o.w, "  base %.1f, team gap %.1f, balance %.1f, repeat %.1f, fairness %.1f\n",
		b.Base, b.TeamGap, b.Balance, b.Repeat, b.Fairness)
}

func (o *Output) printStartAll(r StartAllResult) {
	if len(r.Outcomes) == 0 {
		fmt.Fprintln(o.w, "No proposed courts")
		return
	}
	for _, outcome := range r.Outcomes {
		if outcome.Started {
			fmt.Fprintf(o.w, "Court %d: started\n", outcome.CourtID)
		} else {
			fmt.Fprintf(o.w, "Court %d: not started: %s\n", outcome.CourtID, outcome.Error)
		}
	}
}

func (o *Output) printImportReport(r ImportReport) {
	fmt.Fprintf(o.w, "Imported %d, skipped %d, rejected %d\n", len(r.Imported), len(r.Skipped), len(r.Rejected))
	for _, p := range r.Imported {
		fmt.Fprintf(o.w, "  + %s (level %d)\n", p.Name, p.Level)
	}
	for _, issue := range r.Skipped {
		fmt.Fprintf(o.w, "  ~ #%d %s: %s\n", issue.Index, issue.Name, issue.Reason)
	}
	for _, issue := range r.Rejected {
		fmt.Fprintf(o.w, "  ! #%d %s: %s\n", issue.Index, issue.Name, issue.Reason)
	}
}
