package pairing

import (
	"math"
	"sort"

	"github.com/mcoot/badminton-pairing/internal/model"
)

// Entry is a read-only snapshot of a player taken for scoring.
// Candidates carry entries by value, so scoring never touches live records.
type Entry struct {
	ID            model.PlayerID
	Name          string
	Level         int
	GamesPlayed   int
	WaitingRounds int
}

// EntryFromPlayer snapshots a roster player
func EntryFromPlayer(p *model.Player) Entry {
	return Entry{
		ID:            p.ID,
		Name:          p.Name,
		Level:         p.Level,
		GamesPlayed:   p.GamesPlayed,
		WaitingRounds: p.WaitingRounds,
	}
}

// EntriesFromPlayers snapshots players, preserving order
func EntriesFromPlayers(players []*model.Player) []Entry {
	entries := make([]Entry, len(players))
	for i, p := range players {
		entries[i] = EntryFromPlayer(p)
	}
	return entries
}

// Team is two teammates
type Team [2]Entry

// Pair returns the teammate IDs
func (t Team) Pair() model.Pair {
	return model.Pair{t[0].ID, t[1].ID}
}

// Levels returns the stronger and weaker level of the team
func (t Team) Levels() (strong, weak int) {
	if t[0].Level >= t[1].Level {
		return t[0].Level, t[1].Level
	}
	return t[1].Level, t[0].Level
}

// Candidate is one way of putting four players on a court
type Candidate struct {
	Teams [2]Team
}

// Players returns the four entries in team order
func (c Candidate) Players() []Entry {
	return []Entry{c.Teams[0][0], c.Teams[0][1], c.Teams[1][0], c.Teams[1][1]}
}

// Matchup converts the candidate to the court representation
func (c Candidate) Matchup() model.Matchup {
	return model.NewMatchup(c.Teams[0].Pair(), c.Teams[1].Pair())
}

// HistoryLookup reports how often two players have been teammates
type HistoryLookup interface {
	Count(a, b model.PlayerID) int
}

// Scorer assigns a desirability score to a candidate; higher is better
type Scorer interface {
	Score(c Candidate) float64
}

// Breakdown is a candidate's score split into its terms.
// Total = Base - TeamGap + Balance - Repeat + Fairness.
type Breakdown struct {
	Base     float64 `json:"base"`
	TeamGap  float64 `json:"team_gap"`
	Balance  float64 `json:"balance"`
	Repeat   float64 `json:"repeat"`
	Fairness float64 `json:"fairness"`
	Total    float64 `json:"total"`
}

// Evaluator scores candidates against the roster state it was built from
type Evaluator struct {
	policy   Policy
	maxGames int
	history  HistoryLookup
}

// NewEvaluator creates an evaluator. maxGamesPlayed is the highest game
// count over the whole roster, not just the waiting players.
func NewEvaluator(policy Policy, maxGamesPlayed int, history HistoryLookup) *Evaluator {
	return &Evaluator{
		policy:   policy,
		maxGames: maxGamesPlayed,
		history:  history,
	}
}

// Score returns the total score of the candidate
func (e *Evaluator) Score(c Candidate) float64 {
	return e.Breakdown(c).Total
}

// Breakdown returns every term of the candidate's score
func (e *Evaluator) Breakdown(c Candidate) Breakdown {
	b := Breakdown{
		Base:     e.policy.BaseScore,
		TeamGap:  e.teamGapPenalty(c),
		Balance:  e.balanceScore(c),
		Repeat:   e.repeatPenalty(c),
		Fairness: e.fairnessBonus(c),
	}
	b.Total = b.Base - b.TeamGap + b.Balance - b.Repeat + b.Fairness
	return b
}

func (e *Evaluator) teamGapPenalty(c Candidate) float64 {
	gap := 0
	for _, t := range c.Teams {
		strong, weak := t.Levels()
		gap += strong - weak
	}
	return float64(gap) * e.policy.TeamGapPenalty
}

func (e *Evaluator) balanceScore(c Candidate) float64 {
	s1 := e.policy.TeamStrength(c.Teams[0])
	s2 := e.policy.TeamStrength(c.Teams[1])
	score := e.policy.BalanceBaseline - math.Abs(s1-s2)*e.policy.StrengthDiffPenalty

	switch classify(c) {
	case layoutStacked:
		score -= e.policy.StackedTeamsPenalty
	case layoutMixed:
		score += e.policy.MixedTeamsBonus
	}

	strong1, weak1 := c.Teams[0].Levels()
	strong2, weak2 := c.Teams[1].Levels()
	for _, gap := range []int{absInt(strong1 - strong2), absInt(weak1 - weak2)} {
		if gap >= e.policy.EdgeGapThreshold {
			score -= float64(gap) * e.policy.EdgeGapPenalty
		}
	}

	return math.Max(score, e.policy.BalanceFloor)
}

func (e *Evaluator) repeatPenalty(c Candidate) float64 {
	if e.history == nil {
		return 0
	}
	repeats := 0
	for _, t := range c.Teams {
		repeats += e.history.Count(t[0].ID, t[1].ID)
	}
	return float64(repeats) * e.policy.RepeatPenalty
}

func (e *Evaluator) fairnessBonus(c Candidate) float64 {
	bonus := 0.0
	for _, p := range c.Players() {
		bonus += float64(p.WaitingRounds) * e.policy.WaitBonus
		bonus += float64(e.maxGames-p.GamesPlayed) * e.policy.GamesGapBonus
	}
	return bonus
}

// TeamStrength is the average level of a team adjusted for how well the
// level gap between the two players works together
func (p Policy) TeamStrength(t Team) float64 {
	strong, weak := t.Levels()
	return p.StrengthOf(strong, weak)
}

// StrengthOf computes team strength from two levels in either order
func (p Policy) StrengthOf(a, b int) float64 {
	strong, weak := a, b
	if weak > strong {
		strong, weak = weak, strong
	}
	avg := float64(strong+weak) / 2
	switch gap := strong - weak; {
	case gap <= 1:
		return avg + p.SynergyEven
	case gap <= 3:
		return avg + p.SynergyCarry
	default:
		return avg + p.SynergyMismatch
	}
}

type layout int

const (
	layoutNeutral layout = iota
	layoutMixed          // each team has one top-half and one bottom-half player
	layoutStacked        // one team holds both top-half players
)

// classify ranks the four levels. When the second and third levels tie the
// halves are ambiguous and no structural adjustment applies.
func classify(c Candidate) layout {
	levels := make([]int, 0, 4)
	for _, p := range c.Players() {
		levels = append(levels, p.Level)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(levels)))
	cut := levels[2]
	if levels[1] == cut {
		return layoutNeutral
	}
	tops := 0
	for _, p := range c.Teams[0] {
		if p.Level > cut {
			tops++
		}
	}
	if tops == 1 {
		return layoutMixed
	}
	return layoutStacked
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
