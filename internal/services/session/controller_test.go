package session

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/badminton-pairing/internal/dependencies/mocks"
	"github.com/mcoot/badminton-pairing/internal/metrics"
	"github.com/mcoot/badminton-pairing/internal/model"
	"github.com/mcoot/badminton-pairing/internal/services/pairing"
	"github.com/mcoot/badminton-pairing/internal/storage/memory"
	"github.com/mcoot/badminton-pairing/internal/testutil"
)

// failingStorage wraps memory storage and can be told to refuse saves
type failingStorage struct {
	*memory.Storage
	failSaves bool
}

func (f *failingStorage) SaveSession(ctx context.Context, s *model.Session) error {
	if f.failSaves {
		return errors.New("disk full")
	}
	return f.Storage.SaveSession(ctx, s)
}

type ControllerSuite struct {
	suite.Suite
	storage    *failingStorage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	metrics    *metrics.Metrics
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = &failingStorage{Storage: memory.New()}
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 19, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.metrics = metrics.New()
	s.controller = NewController(s.storage, s.clock, s.random, s.metrics, DefaultConfig(), testutil.NopLogger())
	s.ctx = context.Background()
}

// Helpers

// add creates a player whose ID and name are both id
func (s *ControllerSuite) add(id string, level int) model.PlayerID {
	s.random.QueueID(id)
	p, err := s.controller.AddPlayer(s.ctx, id, level)
	s.Require().NoError(err)
	return p.ID
}

// addSix creates a(8) b(7) c(6) d(5) e(9) f(4)
func (s *ControllerSuite) addSix() {
	for _, p := range []struct {
		id    string
		level int
	}{{"a", 8}, {"b", 7}, {"c", 6}, {"d", 5}, {"e", 9}, {"f", 4}} {
		s.add(p.id, p.level)
	}
}

func (s *ControllerSuite) load() *model.Session {
	session, err := s.storage.LoadSession(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(session.Validate())
	return session
}

func (s *ControllerSuite) player(id model.PlayerID) *model.Player {
	p, err := s.load().Player(id)
	s.Require().NoError(err)
	return p
}

func (s *ControllerSuite) court(id int) *model.Court {
	c, err := s.load().Court(id)
	s.Require().NoError(err)
	return c
}

func (s *ControllerSuite) propose(court int, a, b, c, d model.PlayerID) {
	_, err := s.controller.ProposeCourt(s.ctx, court, model.NewMatchup(model.Pair{a, b}, model.Pair{c, d}))
	s.Require().NoError(err)
}

func (s *ControllerSuite) startABCD() {
	s.propose(1, "a", "b", "c", "d")
	_, err := s.controller.StartCourt(s.ctx, 1)
	s.Require().NoError(err)
}

// AddPlayer tests

func (s *ControllerSuite) TestAddPlayer() {
	s.random.QueueID("p-1")

	p, err := s.controller.AddPlayer(s.ctx, "  Amy  ", 9)
	s.Require().NoError(err)

	s.Equal(model.PlayerID("p-1"), p.ID)
	s.Equal("Amy", p.Name)
	s.Equal(model.StatusWaiting, p.Status)
	s.Equal([]model.PlayerID{"p-1"}, s.load().Waiting)
}

func (s *ControllerSuite) TestAddPlayerRejectsDuplicateName() {
	s.add("amy", 9)

	_, err := s.controller.AddPlayer(s.ctx, "amy", 5)
	s.ErrorIs(err, model.ErrDuplicateName)
	s.Len(s.load().Players, 1)
}

func (s *ControllerSuite) TestAddPlayerRejectsEmptyName() {
	_, err := s.controller.AddPlayer(s.ctx, "   ", 5)
	s.ErrorIs(err, model.ErrInvalidName)
}

func (s *ControllerSuite) TestAddPlayerRejectsLevelOutOfRange() {
	_, err := s.controller.AddPlayer(s.ctx, "Low", 2)
	s.ErrorIs(err, model.ErrLevelOutOfRange)

	_, err = s.controller.AddPlayer(s.ctx, "High", 13)
	s.ErrorIs(err, model.ErrLevelOutOfRange)
}

func (s *ControllerSuite) TestAddPlayerHonoursConfiguredRange() {
	cfg := DefaultConfig()
	cfg.Levels = model.LevelRange{Min: 1, Max: 5}
	controller := NewController(s.storage, s.clock, s.random, nil, cfg, testutil.NopLogger())

	_, err := controller.AddPlayer(s.ctx, "Beginner", 1)
	s.NoError(err)
	_, err = controller.AddPlayer(s.ctx, "Expert", 9)
	s.ErrorIs(err, model.ErrLevelOutOfRange)
}

// RemovePlayer tests

func (s *ControllerSuite) TestRemoveWaitingPlayer() {
	s.addSix()

	s.Require().NoError(s.controller.RemovePlayer(s.ctx, "c"))

	session := s.load()
	s.Len(session.Players, 5)
	s.NotContains(session.Waiting, model.PlayerID("c"))
}

func (s *ControllerSuite) TestRemoveRestingPlayer() {
	s.addSix()
	_, err := s.controller.ToggleResting(s.ctx, "f")
	s.Require().NoError(err)

	s.Require().NoError(s.controller.RemovePlayer(s.ctx, "f"))

	_, err = s.load().Player("f")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ControllerSuite) TestRemovePlayingPlayerEndsMatch() {
	s.addSix()
	s.startABCD()

	s.Require().NoError(s.controller.RemovePlayer(s.ctx, "a"))

	session := s.load()
	for _, id := range []model.PlayerID{"b", "c", "d"} {
		p, err := session.Player(id)
		s.Require().NoError(err)
		s.Equal(model.StatusWaiting, p.Status)
		s.Equal(1, p.GamesPlayed)
		s.Zero(p.WaitingRounds)
	}
	s.Equal(model.CourtStateIdle, session.Courts[0].State())
	s.Equal([]model.PlayerID{"e", "f", "b", "c", "d"}, session.Waiting)
	s.Equal(1, session.History.Count("a", "b"))
}

func (s *ControllerSuite) TestRemoveUnknownPlayer() {
	s.ErrorIs(s.controller.RemovePlayer(s.ctx, "ghost"), model.ErrPlayerNotFound)
}

// EditPlayer tests

func (s *ControllerSuite) TestEditPlayer() {
	s.addSix()
	level, games, rounds := 11, 4, 2

	p, err := s.controller.EditPlayer(s.ctx, "a", PlayerUpdate{Level: &level, GamesPlayed: &games, WaitingRounds: &rounds})
	s.Require().NoError(err)

	s.Equal(11, p.Level)
	stored := s.player("a")
	s.Equal(11, stored.Level)
	s.Equal(4, stored.GamesPlayed)
	s.Equal(2, stored.WaitingRounds)
}

func (s *ControllerSuite) TestEditPlayerPartialUpdate() {
	s.addSix()
	games := 3

	_, err := s.controller.EditPlayer(s.ctx, "b", PlayerUpdate{GamesPlayed: &games})
	s.Require().NoError(err)

	stored := s.player("b")
	s.Equal(7, stored.Level)
	s.Equal(3, stored.GamesPlayed)
}

func (s *ControllerSuite) TestEditPlayerRejectsInvalidValues() {
	s.addSix()
	level, games := 20, -1

	_, err := s.controller.EditPlayer(s.ctx, "a", PlayerUpdate{Level: &level})
	s.ErrorIs(err, model.ErrLevelOutOfRange)

	_, err = s.controller.EditPlayer(s.ctx, "a", PlayerUpdate{GamesPlayed: &games})
	s.ErrorIs(err, model.ErrInvalidCounter)
}

func (s *ControllerSuite) TestEditPlayingPlayerRejected() {
	s.addSix()
	s.startABCD()
	level := 10

	_, err := s.controller.EditPlayer(s.ctx, "a", PlayerUpdate{Level: &level})
	s.ErrorIs(err, model.ErrPlayerPlaying)
	s.Equal(8, s.player("a").Level)
}

// ToggleResting tests

func (s *ControllerSuite) TestToggleResting() {
	s.addSix()

	p, err := s.controller.ToggleResting(s.ctx, "a")
	s.Require().NoError(err)
	s.Equal(model.StatusResting, p.Status)
	s.NotContains(s.load().Waiting, model.PlayerID("a"))

	p, err = s.controller.ToggleResting(s.ctx, "a")
	s.Require().NoError(err)
	s.Equal(model.StatusWaiting, p.Status)
	s.Equal([]model.PlayerID{"b", "c", "d", "e", "f", "a"}, s.load().Waiting)
}

func (s *ControllerSuite) TestTogglePlayingPlayerRejected() {
	s.addSix()
	s.startABCD()

	_, err := s.controller.ToggleResting(s.ctx, "a")
	s.ErrorIs(err, model.ErrPlayerPlaying)
}

// AutoPair tests

func (s *ControllerSuite) TestAutoPairNeedsFourPlayers() {
	s.add("a", 5)
	s.add("b", 5)
	s.add("c", 5)

	_, err := s.controller.AutoPair(s.ctx)
	s.ErrorIs(err, model.ErrInsufficientPlayers)
}

func (s *ControllerSuite) TestAutoPairSeparatesStrongPlayers() {
	p12 := s.add("p12", 12)
	p9 := s.add("p9", 9)
	p6 := s.add("p6", 6)
	p3 := s.add("p3", 3)

	proposal, err := s.controller.AutoPair(s.ctx)
	s.Require().NoError(err)

	expected := model.NewMatchup(model.Pair{p12, p3}, model.Pair{p9, p6})
	s.Equal(1, proposal.CourtID)
	s.Equal(expected, proposal.Matchup)
	s.Equal(3, proposal.Stats.CandidatesEvaluated)

	court := s.court(1)
	s.Equal(model.CourtStateProposed, court.State())
	s.Equal(expected, *court.Matchup)
	// Proposing does not take players out of the queue
	s.Len(s.load().Waiting, 4)
}

func (s *ControllerSuite) TestAutoPairSkipsPlayersReservedElsewhere() {
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		s.add(id, 6)
	}

	first, err := s.controller.AutoPair(s.ctx)
	s.Require().NoError(err)
	second, err := s.controller.AutoPair(s.ctx)
	s.Require().NoError(err)

	s.Equal(1, first.CourtID)
	s.Equal(2, second.CourtID)
	for _, id := range second.Matchup.PlayerIDs() {
		s.False(first.Matchup.Contains(id), "player %s proposed twice", id)
	}

	_, err = s.controller.AutoPair(s.ctx)
	s.ErrorIs(err, model.ErrInsufficientPlayers)
}

func (s *ControllerSuite) TestAutoPairNeedsIdleCourt() {
	_, err := s.controller.SetCourtCount(s.ctx, 1)
	s.Require().NoError(err)
	s.addSix()

	_, err = s.controller.AutoPair(s.ctx)
	s.Require().NoError(err)

	_, err = s.controller.AutoPair(s.ctx)
	s.ErrorIs(err, model.ErrNoIdleCourt)
}

func (s *ControllerSuite) TestAutoPairAvoidsRecentTeammates() {
	for _, id := range []string{"a", "b", "c", "d"} {
		s.add(id, 6)
	}
	s.propose(1, "a", "b", "c", "d")
	_, err := s.controller.StartCourt(s.ctx, 1)
	s.Require().NoError(err)
	_, err = s.controller.EndCourt(s.ctx, 1)
	s.Require().NoError(err)

	proposal, err := s.controller.AutoPair(s.ctx)
	s.Require().NoError(err)

	for _, team := range proposal.Matchup.Teams {
		key := model.NewPairKey(team[0], team[1])
		s.NotEqual(model.NewPairKey("a", "b"), key)
		s.NotEqual(model.NewPairKey("c", "d"), key)
	}
}

func (s *ControllerSuite) TestSuggestDoesNotChangeState() {
	s.addSix()
	before := s.load()

	proposal, err := s.controller.Suggest(s.ctx)
	s.Require().NoError(err)

	s.Equal(1, proposal.CourtID)
	s.Equal(pairing.CandidatesFor(6), proposal.Stats.CandidatesEvaluated)
	s.InDelta(proposal.Score, proposal.Breakdown.Total, 1e-9)
	s.Equal(before, s.load())
}

// ProposeCourt tests

func (s *ControllerSuite) TestProposeCourtValidatesSelection() {
	s.addSix()

	_, err := s.controller.ProposeCourt(s.ctx, 1, model.NewMatchup(model.Pair{"a", "b"}, model.Pair{"a", "c"}))
	s.ErrorIs(err, model.ErrDuplicateSelection)

	_, err = s.controller.ProposeCourt(s.ctx, 1, model.NewMatchup(model.Pair{"a", "b"}, model.Pair{"c", ""}))
	s.ErrorIs(err, model.ErrIncompleteSelection)

	_, err = s.controller.ProposeCourt(s.ctx, 1, model.NewMatchup(model.Pair{"a", "b"}, model.Pair{"c", "ghost"}))
	s.ErrorIs(err, model.ErrPlayerNotFound)

	_, err = s.controller.ProposeCourt(s.ctx, 9, model.NewMatchup(model.Pair{"a", "b"}, model.Pair{"c", "d"}))
	s.ErrorIs(err, model.ErrCourtNotFound)

	s.Equal(model.CourtStateIdle, s.court(1).State())
}

func (s *ControllerSuite) TestProposeCourtRequiresWaitingPlayers() {
	s.addSix()
	_, err := s.controller.ToggleResting(s.ctx, "f")
	s.Require().NoError(err)

	_, err = s.controller.ProposeCourt(s.ctx, 2, model.NewMatchup(model.Pair{"a", "b"}, model.Pair{"c", "f"}))
	s.ErrorIs(err, model.ErrPlayerNotWaiting)
}

func (s *ControllerSuite) TestProposeCourtReplacesProposal() {
	s.addSix()
	s.propose(1, "a", "b", "c", "d")

	view, err := s.controller.ProposeCourt(s.ctx, 1, model.NewMatchup(model.Pair{"a", "e"}, model.Pair{"c", "f"}))
	s.Require().NoError(err)

	s.Equal(model.CourtStateProposed, view.State)
	s.Equal(model.Pair{"a", "e"}, s.court(1).Matchup.Teams[0])
}

func (s *ControllerSuite) TestProposeOnActiveCourtRejected() {
	s.addSix()
	s.startABCD()

	_, err := s.controller.ProposeCourt(s.ctx, 1, model.NewMatchup(model.Pair{"e", "f"}, model.Pair{"a", "b"}))
	s.ErrorIs(err, model.ErrCourtOccupied)
}

// StartCourt tests

func (s *ControllerSuite) TestStartCourt() {
	s.addSix()
	s.propose(1, "a", "b", "c", "d")

	view, err := s.controller.StartCourt(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(model.CourtStateActive, view.State)

	session := s.load()
	for _, id := range []model.PlayerID{"a", "b", "c", "d"} {
		p, _ := session.Player(id)
		s.Equal(model.StatusPlaying, p.Status)
		s.Equal(1, p.CourtID)
	}
	for _, id := range []model.PlayerID{"e", "f"} {
		p, _ := session.Player(id)
		s.Equal(1, p.WaitingRounds)
	}
	s.Equal([]model.PlayerID{"e", "f"}, session.Waiting)
	s.Equal(1, session.History.Count("a", "b"))
	s.Equal(1, session.History.Count("d", "c"))
	s.Zero(session.History.Count("a", "c"))

	court := session.Courts[0]
	s.Equal(s.clock.Now(), *court.StartTime)
	s.Equal([]model.PlayerID{"e", "f"}, court.WaitCohort)
}

func (s *ControllerSuite) TestStartStaleCourtClearsIt() {
	s.addSix()
	s.propose(1, "a", "b", "c", "d")
	s.Require().NoError(s.controller.RemovePlayer(s.ctx, "d"))

	view, err := s.controller.StartCourt(s.ctx, 1)
	s.ErrorIs(err, model.ErrStalePairing)
	s.Require().NotNil(view)
	s.Equal(model.CourtStateIdle, view.State)

	session := s.load()
	s.Equal(model.CourtStateIdle, session.Courts[0].State())
	s.Zero(session.History.Len())
	for _, p := range session.Players {
		s.Equal(model.StatusWaiting, p.Status)
		s.Zero(p.WaitingRounds)
	}
}

func (s *ControllerSuite) TestStartRequiresProposedCourt() {
	s.addSix()

	_, err := s.controller.StartCourt(s.ctx, 1)
	s.ErrorIs(err, model.ErrCourtNotProposed)

	s.startABCD()
	_, err = s.controller.StartCourt(s.ctx, 1)
	s.ErrorIs(err, model.ErrCourtOccupied)
}

func (s *ControllerSuite) TestStartAll() {
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		s.add(id, 6)
	}
	s.propose(1, "a", "b", "c", "d")
	s.propose(3, "e", "f", "g", "h")

	outcomes, err := s.controller.StartAll(s.ctx)
	s.Require().NoError(err)

	s.Equal([]StartOutcome{{CourtID: 1, Started: true}, {CourtID: 3, Started: true}}, outcomes)
	s.Equal(model.CourtStateActive, s.court(1).State())
	s.Equal(model.CourtStateActive, s.court(3).State())
	s.Empty(s.load().Waiting)
}

func (s *ControllerSuite) TestStartAllClearsCourtsMadeStale() {
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		s.add(id, 6)
	}
	s.propose(1, "a", "b", "c", "d")
	s.propose(2, "a", "e", "f", "g")

	outcomes, err := s.controller.StartAll(s.ctx)
	s.Require().NoError(err)

	s.Require().Len(outcomes, 2)
	s.True(outcomes[0].Started)
	s.False(outcomes[1].Started)
	s.ErrorIs(outcomes[1].Err, model.ErrStalePairing)
	s.Equal(model.CourtStateIdle, s.court(2).State())
}

func (s *ControllerSuite) TestStartAllWithNothingProposed() {
	s.addSix()

	_, err := s.controller.StartAll(s.ctx)
	s.ErrorIs(err, model.ErrNoProposedCourts)
}

// CancelCourt tests

func (s *ControllerSuite) TestStartThenCancelRestoresState() {
	s.addSix()
	rounds := 2
	_, err := s.controller.EditPlayer(s.ctx, "e", PlayerUpdate{WaitingRounds: &rounds})
	s.Require().NoError(err)
	before := s.load()

	s.startABCD()
	view, err := s.controller.CancelCourt(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(model.CourtStateProposed, view.State)

	after := s.load()
	for _, p := range before.Players {
		restored, err := after.Player(p.ID)
		s.Require().NoError(err)
		s.Equal(model.StatusWaiting, restored.Status)
		s.Equal(p.GamesPlayed, restored.GamesPlayed)
		if after.Courts[0].Contains(p.ID) {
			s.Zero(restored.WaitingRounds)
		} else {
			s.Equal(p.WaitingRounds, restored.WaitingRounds, "player %s", p.ID)
		}
	}
	s.Equal(before.History, after.History)
	s.Nil(after.Courts[0].StartTime)
	s.Equal(model.NewMatchup(model.Pair{"a", "b"}, model.Pair{"c", "d"}), *after.Courts[0].Matchup)
}

func (s *ControllerSuite) TestCancelLeavesLaterArrivalsAlone() {
	s.addSix()
	s.startABCD()
	s.add("late", 7)
	rounds := 3
	_, err := s.controller.EditPlayer(s.ctx, "late", PlayerUpdate{WaitingRounds: &rounds})
	s.Require().NoError(err)

	_, err = s.controller.CancelCourt(s.ctx, 1)
	s.Require().NoError(err)

	s.Equal(3, s.player("late").WaitingRounds)
	s.Zero(s.player("e").WaitingRounds)
}

func (s *ControllerSuite) TestCancelFloorsWaitingRoundsAtZero() {
	s.addSix()
	s.startABCD()
	_, err := s.controller.ResetStats(s.ctx)
	s.Require().NoError(err)

	_, err = s.controller.CancelCourt(s.ctx, 1)
	s.Require().NoError(err)

	s.Zero(s.player("e").WaitingRounds)
}

func (s *ControllerSuite) TestCancelKeepsRoundsEarnedSinceLaterStart() {
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		s.add(id, 6)
	}
	s.startABCD()
	s.propose(2, "e", "f", "g", "h")
	_, err := s.controller.StartCourt(s.ctx, 2)
	s.Require().NoError(err)
	_, err = s.controller.EndCourt(s.ctx, 2)
	s.Require().NoError(err)
	s.propose(2, "i", "j", "g", "h")
	_, err = s.controller.StartCourt(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Equal(1, s.player("e").WaitingRounds)

	_, err = s.controller.CancelCourt(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(1, s.player("e").WaitingRounds)
	s.Contains(s.court(2).WaitCohort, model.PlayerID("e"))

	_, err = s.controller.CancelCourt(s.ctx, 2)
	s.Require().NoError(err)
	s.Zero(s.player("e").WaitingRounds)
}

func (s *ControllerSuite) TestCancelAfterEditKeepsEditedRounds() {
	s.addSix()
	s.startABCD()
	rounds := 5
	_, err := s.controller.EditPlayer(s.ctx, "e", PlayerUpdate{WaitingRounds: &rounds})
	s.Require().NoError(err)

	_, err = s.controller.CancelCourt(s.ctx, 1)
	s.Require().NoError(err)

	s.Equal(5, s.player("e").WaitingRounds)
	s.Zero(s.player("f").WaitingRounds)
}

func (s *ControllerSuite) TestCancelKeepsEarlierHistory() {
	s.addSix()
	s.startABCD()
	_, err := s.controller.EndCourt(s.ctx, 1)
	s.Require().NoError(err)
	s.startABCD()

	_, err = s.controller.CancelCourt(s.ctx, 1)
	s.Require().NoError(err)

	s.Equal(1, s.load().History.Count("a", "b"))
}

// EndCourt tests

func (s *ControllerSuite) TestStartThenEnd() {
	s.addSix()
	s.startABCD()

	view, err := s.controller.EndCourt(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(model.CourtStateIdle, view.State)

	session := s.load()
	for _, id := range []model.PlayerID{"a", "b", "c", "d"} {
		p, _ := session.Player(id)
		s.Equal(model.StatusWaiting, p.Status)
		s.Equal(1, p.GamesPlayed)
		s.Zero(p.WaitingRounds)
		s.Zero(p.CourtID)
	}
	e, _ := session.Player("e")
	s.Equal(1, e.WaitingRounds)
	s.Zero(e.GamesPlayed)
	s.Equal(1, session.History.Count("a", "b"))
	s.Equal(1, session.History.Count("c", "d"))
	s.Equal([]model.PlayerID{"e", "f", "a", "b", "c", "d"}, session.Waiting)
	s.Nil(session.Courts[0].Matchup)
	s.Nil(session.Courts[0].StartTime)
}

func (s *ControllerSuite) TestLifecycleRejectsWrongState() {
	s.addSix()

	_, err := s.controller.CancelCourt(s.ctx, 1)
	s.ErrorIs(err, model.ErrCourtNotActive)
	_, err = s.controller.EndCourt(s.ctx, 1)
	s.ErrorIs(err, model.ErrCourtNotActive)
	_, err = s.controller.ClearCourt(s.ctx, 1)
	s.ErrorIs(err, model.ErrCourtNotProposed)

	s.propose(1, "a", "b", "c", "d")
	_, err = s.controller.CancelCourt(s.ctx, 1)
	s.ErrorIs(err, model.ErrCourtNotActive)
	_, err = s.controller.EndCourt(s.ctx, 1)
	s.ErrorIs(err, model.ErrCourtNotActive)

	_, err = s.controller.StartCourt(s.ctx, 1)
	s.Require().NoError(err)
	_, err = s.controller.ClearCourt(s.ctx, 1)
	s.ErrorIs(err, model.ErrCourtOccupied)

	_, err = s.controller.EndCourt(s.ctx, 7)
	s.ErrorIs(err, model.ErrCourtNotFound)
}

// ClearCourt tests

func (s *ControllerSuite) TestClearCourt() {
	s.addSix()
	s.propose(2, "a", "b", "c", "d")

	view, err := s.controller.ClearCourt(s.ctx, 2)
	s.Require().NoError(err)

	s.Equal(model.CourtStateIdle, view.State)
	s.Len(s.load().Waiting, 6)
}

// Court count tests

func (s *ControllerSuite) TestReduceCourtCountKeepsRemainingCourts() {
	s.addSix()
	s.startABCD()

	snap, err := s.controller.SetCourtCount(s.ctx, 2)
	s.Require().NoError(err)

	s.Len(snap.Courts, 2)
	s.Equal(model.CourtStateActive, snap.Courts[0].State)
	s.Equal(model.CourtStateActive, s.court(1).State())
}

func (s *ControllerSuite) TestReduceCourtCountBelowActiveCourtRejected() {
	for _, id := range []string{"a", "b", "c", "d"} {
		s.add(id, 6)
	}
	s.propose(3, "a", "b", "c", "d")
	_, err := s.controller.StartCourt(s.ctx, 3)
	s.Require().NoError(err)

	_, err = s.controller.SetCourtCount(s.ctx, 2)
	s.ErrorIs(err, model.ErrCourtCountBelowActive)
	s.Len(s.load().Courts, 4)
}

func (s *ControllerSuite) TestReduceCourtCountDiscardsProposals() {
	s.addSix()
	s.propose(4, "a", "b", "c", "d")

	_, err := s.controller.SetCourtCount(s.ctx, 2)
	s.Require().NoError(err)

	session := s.load()
	s.Len(session.Courts, 2)
	s.Len(session.Waiting, 6)
}

func (s *ControllerSuite) TestCourtCountRange() {
	_, err := s.controller.SetCourtCount(s.ctx, 0)
	s.ErrorIs(err, model.ErrInvalidCourtCount)

	_, err = s.controller.SetCourtCount(s.ctx, 11)
	s.ErrorIs(err, model.ErrInvalidCourtCount)

	snap, err := s.controller.SetCourtCount(s.ctx, 10)
	s.Require().NoError(err)
	s.Len(snap.Courts, 10)
}

// Session-wide tests

func (s *ControllerSuite) TestResetStats() {
	s.addSix()
	s.startABCD()
	_, err := s.controller.EndCourt(s.ctx, 1)
	s.Require().NoError(err)

	_, err = s.controller.ResetStats(s.ctx)
	s.Require().NoError(err)

	session := s.load()
	for _, p := range session.Players {
		s.Zero(p.GamesPlayed)
		s.Zero(p.WaitingRounds)
	}
	s.Equal(2, session.History.Len())
}

func (s *ControllerSuite) TestClearAllKeepsCourtCount() {
	_, err := s.controller.SetCourtCount(s.ctx, 6)
	s.Require().NoError(err)
	s.addSix()
	s.startABCD()

	snap, err := s.controller.ClearAll(s.ctx)
	s.Require().NoError(err)

	s.Empty(snap.Players)
	s.Len(snap.Courts, 6)
	s.Zero(s.load().History.Len())
}

func (s *ControllerSuite) TestExportAndRestore() {
	s.addSix()
	s.startABCD()
	before := s.load()

	blob, err := s.controller.Export(s.ctx)
	s.Require().NoError(err)
	_, err = s.controller.ClearAll(s.ctx)
	s.Require().NoError(err)

	_, err = s.controller.Restore(s.ctx, blob)
	s.Require().NoError(err)
	s.Equal(before, s.load())
}

func (s *ControllerSuite) TestRestoreMalformedBlobKeepsState() {
	s.addSix()

	_, err := s.controller.Restore(s.ctx, []byte(`{"version": 99}`))
	s.ErrorIs(err, model.ErrMalformedState)

	s.Len(s.load().Players, 6)
}

func (s *ControllerSuite) TestFailedSaveLeavesStoredState() {
	s.addSix()
	s.propose(1, "a", "b", "c", "d")
	s.storage.failSaves = true

	_, err := s.controller.StartCourt(s.ctx, 1)
	s.Error(err)

	s.storage.failSaves = false
	session := s.load()
	s.Equal(model.CourtStateProposed, session.Courts[0].State())
	s.Len(session.Waiting, 6)
}

func (s *ControllerSuite) TestFailedSaveRecordsNoMetrics() {
	s.addSix()
	s.add("g", 6)
	s.add("h", 6)
	s.propose(1, "a", "b", "c", "d")
	s.storage.failSaves = true

	_, err := s.controller.StartCourt(s.ctx, 1)
	s.Require().Error(err)
	_, err = s.controller.AutoPair(s.ctx)
	s.Require().Error(err)

	count, err := promtestutil.GatherAndCount(s.metrics.Registry(), "bpair_matches_total", "bpair_auto_pair_total")
	s.Require().NoError(err)
	s.Zero(count)

	s.storage.failSaves = false
	_, err = s.controller.StartCourt(s.ctx, 1)
	s.Require().NoError(err)

	count, err = promtestutil.GatherAndCount(s.metrics.Registry(), "bpair_matches_total")
	s.Require().NoError(err)
	s.Equal(1, count)
}

// Snapshot tests

func (s *ControllerSuite) TestSnapshotDisplayValues() {
	s.addSix()
	s.propose(1, "a", "d", "b", "c")
	_, err := s.controller.StartCourt(s.ctx, 1)
	s.Require().NoError(err)
	rounds := 4
	_, err = s.controller.EditPlayer(s.ctx, "f", PlayerUpdate{WaitingRounds: &rounds})
	s.Require().NoError(err)
	s.clock.Advance(25*time.Minute + 30*time.Second)

	snap, err := s.controller.Snapshot(s.ctx)
	s.Require().NoError(err)

	court := snap.Courts[0]
	s.Equal(25, court.ElapsedMinutes)
	s.Require().Len(court.Teams, 2)
	s.InDelta(6.8, court.Teams[0].Strength, 1e-9)
	s.InDelta(6.7, court.Teams[1].Strength, 1e-9)
	s.InDelta(0.1, court.StrengthDiff, 1e-9)
	s.Equal(pairing.RatingVeryBalanced, court.Balance)

	s.Equal(model.PlayerID("f"), snap.Waiting[0].ID)
	s.Equal(model.CourtStateIdle, snap.Courts[1].State)
	s.Empty(snap.Courts[1].Teams)
}

func (s *ControllerSuite) TestSnapshotFlagsStaleProposal() {
	s.addSix()
	s.propose(1, "a", "b", "c", "d")
	s.Require().NoError(s.controller.RemovePlayer(s.ctx, "b"))

	snap, err := s.controller.Snapshot(s.ctx)
	s.Require().NoError(err)

	court := snap.Courts[0]
	s.True(court.Stale)
	s.False(court.Teams[0].Complete())
	s.Empty(court.Balance)
}

func (s *ControllerSuite) TestSnapshotOfEmptySession() {
	snap, err := s.controller.Snapshot(s.ctx)
	s.Require().NoError(err)

	s.Len(snap.Courts, model.DefaultCourtCount)
	s.Empty(snap.Players)
	s.Equal(s.clock.Now(), snap.TakenAt)
}

// Invariant tests

func (s *ControllerSuite) TestRandomOperationsKeepInvariants() {
	rng := rand.New(rand.NewSource(7))
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	for _, n := range names[:8] {
		s.add(n, 3+rng.Intn(10))
	}

	pick := func() model.PlayerID {
		return model.PlayerID(names[rng.Intn(len(names))])
	}

	for step := 0; step < 300; step++ {
		court := 1 + rng.Intn(4)
		switch rng.Intn(11) {
		case 0:
			name := names[rng.Intn(len(names))]
			s.random.QueueID(name)
			_, _ = s.controller.AddPlayer(s.ctx, name, 3+rng.Intn(10))
		case 1:
			_ = s.controller.RemovePlayer(s.ctx, pick())
		case 2:
			_, _ = s.controller.ToggleResting(s.ctx, pick())
		case 3, 4:
			_, _ = s.controller.AutoPair(s.ctx)
		case 5, 6:
			_, _ = s.controller.StartCourt(s.ctx, court)
		case 7:
			_, _ = s.controller.CancelCourt(s.ctx, court)
		case 8:
			_, _ = s.controller.EndCourt(s.ctx, court)
		case 9:
			_, _ = s.controller.ClearCourt(s.ctx, court)
		case 10:
			_, _ = s.controller.SetCourtCount(s.ctx, 2+rng.Intn(3))
		}

		session, err := s.storage.LoadSession(s.ctx)
		if errors.Is(err, model.ErrSessionNotFound) {
			continue
		}
		s.Require().NoError(err, "step %d", step)
		s.Require().NoError(session.Validate(), "step %d", step)
		for _, p := range session.Players {
			s.GreaterOrEqual(p.WaitingRounds, 0)
			s.GreaterOrEqual(p.GamesPlayed, 0)
		}
	}
}
