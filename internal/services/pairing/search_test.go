package pairing

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/badminton-pairing/internal/model"
)

type SearchSuite struct {
	suite.Suite
	policy Policy
}

func TestSearchSuite(t *testing.T) {
	suite.Run(t, new(SearchSuite))
}

func (s *SearchSuite) SetupTest() {
	s.policy = DefaultPolicy()
}

// constScorer gives every candidate the same score
type constScorer float64

func (c constScorer) Score(Candidate) float64 { return float64(c) }

// recordingScorer remembers the order candidates were scored in
type recordingScorer struct {
	seen []Candidate
}

func (r *recordingScorer) Score(c Candidate) float64 {
	r.seen = append(r.seen, c)
	return 0
}

func teamIDs(t Team) [2]model.PlayerID {
	return [2]model.PlayerID{t[0].ID, t[1].ID}
}

func pool(levels ...int) []Entry {
	entries := make([]Entry, len(levels))
	for i, l := range levels {
		entries[i] = entry(fmt.Sprintf("p%d", i), l)
	}
	return entries
}

func (s *SearchSuite) TestFewerThanFourPlayersFindsNothing() {
	for n := 0; n < 4; n++ {
		_, ok := FindBestPairing(pool(make([]int, n)...), constScorer(1))
		s.False(ok, "pool of %d", n)
	}
}

func (s *SearchSuite) TestEvaluatesEveryCandidate() {
	for n := 4; n <= 9; n++ {
		result, ok := FindBestPairing(pool(make([]int, n)...), constScorer(1))
		s.Require().True(ok)
		s.Equal(CandidatesFor(n), result.Stats.CandidatesEvaluated, "pool of %d", n)
		s.Equal(n, result.Stats.PlayersConsidered)
	}
	s.Equal(3, CandidatesFor(4))
	s.Equal(15, CandidatesFor(5))
	s.Equal(0, CandidatesFor(3))
}

func (s *SearchSuite) TestEnumerationOrder() {
	rec := &recordingScorer{}
	_, ok := FindBestPairing(pool(1, 2, 3, 4, 5), rec)
	s.Require().True(ok)

	s.Require().Len(rec.seen, 15)
	s.Equal([2]model.PlayerID{"p0", "p1"}, teamIDs(rec.seen[0].Teams[0]))
	s.Equal([2]model.PlayerID{"p2", "p3"}, teamIDs(rec.seen[0].Teams[1]))
	s.Equal([2]model.PlayerID{"p0", "p2"}, teamIDs(rec.seen[1].Teams[0]))
	s.Equal([2]model.PlayerID{"p1", "p3"}, teamIDs(rec.seen[1].Teams[1]))
	s.Equal([2]model.PlayerID{"p0", "p3"}, teamIDs(rec.seen[2].Teams[0]))
	s.Equal([2]model.PlayerID{"p1", "p2"}, teamIDs(rec.seen[2].Teams[1]))
	// Second group is {p0, p1, p2, p4}
	s.Equal([2]model.PlayerID{"p2", "p4"}, teamIDs(rec.seen[3].Teams[1]))
}

func (s *SearchSuite) TestTiesKeepFirstCandidate() {
	result, ok := FindBestPairing(pool(6, 6, 6, 6, 6, 6), constScorer(10))
	s.Require().True(ok)

	s.Equal([2]model.PlayerID{"p0", "p1"}, teamIDs(result.Candidate.Teams[0]))
	s.Equal([2]model.PlayerID{"p2", "p3"}, teamIDs(result.Candidate.Teams[1]))
}

func (s *SearchSuite) TestNegativeScoresStillSelected() {
	result, ok := FindBestPairing(pool(6, 6, 6, 6), constScorer(-500))
	s.Require().True(ok)
	s.Equal(-500.0, result.Score)
}

func (s *SearchSuite) TestAvoidsStackedTeams() {
	e := NewEvaluator(s.policy, 0, model.NewPairingHistory())

	result, ok := FindBestPairing(pool(12, 9, 6, 3), e)
	s.Require().True(ok)

	// {12, 3} vs {9, 6}
	s.Equal([2]model.PlayerID{"p0", "p3"}, teamIDs(result.Candidate.Teams[0]))
	s.Equal([2]model.PlayerID{"p1", "p2"}, teamIDs(result.Candidate.Teams[1]))
}

func (s *SearchSuite) TestPrefersLongWaitingPlayer() {
	players := pool(6, 6, 6, 6, 6)
	players[4].WaitingRounds = 5
	e := NewEvaluator(s.policy, 0, model.NewPairingHistory())

	result, ok := FindBestPairing(players, e)
	s.Require().True(ok)

	ids := make(map[model.PlayerID]bool)
	for _, p := range result.Candidate.Players() {
		ids[p.ID] = true
	}
	s.True(ids["p4"])
}

func (s *SearchSuite) TestAvoidsRepeatTeammatesWhenFreshExists() {
	history := model.NewPairingHistory()
	history.Increment("p0", "p1")
	history.Increment("p0", "p1")
	e := NewEvaluator(s.policy, 0, history)

	result, ok := FindBestPairing(pool(6, 6, 6, 6), e)
	s.Require().True(ok)

	for _, t := range result.Candidate.Teams {
		s.NotEqual(model.NewPairKey("p0", "p1"), model.NewPairKey(t[0].ID, t[1].ID))
	}
}

func (s *SearchSuite) TestSelectsStrictMaximum() {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 25; round++ {
		n := 4 + rng.Intn(5)
		players := make([]Entry, n)
		for i := range players {
			players[i] = Entry{
				ID:            model.PlayerID(fmt.Sprintf("r%d-%d", round, i)),
				Level:         3 + rng.Intn(10),
				GamesPlayed:   rng.Intn(4),
				WaitingRounds: rng.Intn(3),
			}
		}
		history := model.NewPairingHistory()
		history.Increment(players[0].ID, players[1].ID)
		e := NewEvaluator(s.policy, 4, history)

		result, ok := FindBestPairing(players, e)
		s.Require().True(ok)

		rec := &recordingScorer{}
		FindBestPairing(players, rec)
		firstBest := -1
		for i, c := range rec.seen {
			score := e.Score(c)
			s.LessOrEqual(score, result.Score)
			if firstBest == -1 && score == result.Score {
				firstBest = i
			}
		}
		s.Require().NotEqual(-1, firstBest)
		s.Equal(rec.seen[firstBest], result.Candidate)
	}
}

func (s *SearchSuite) TestCandidateMatchup() {
	c := candidate(entry("a", 5), entry("b", 6), entry("c", 7), entry("d", 8))
	m := c.Matchup()

	s.Equal(model.Pair{"a", "b"}, m.Teams[0])
	s.Equal(model.Pair{"c", "d"}, m.Teams[1])
	s.NoError(m.Validate())
}
