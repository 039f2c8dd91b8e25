package session

import (
	"github.com/samber/lo"

	"github.com/mcoot/badminton-pairing/internal/model"
)

const mixedImport = `
- name: Amy
  level: 9
- {"name": "Ben", "level": 7, "gamesPlayed": 3, "waitingRounds": 1}
- name: Cat
  level: 15
- level: 5
- name: Amy
  level: 6
- name: Existing
  level: 6
- name: Dan
  level: 5
  gamesPlayed: -1
- name: Eve
  level: 7.5
- just a string
`

func (s *ControllerSuite) TestImportPlayersReportsEachRecord() {
	s.add("Existing", 6)
	s.random.QueueID("amy", "ben")

	report, err := s.controller.ImportPlayers(s.ctx, []byte(mixedImport))
	s.Require().NoError(err)

	s.Require().Len(report.Imported, 2)
	s.Equal("Amy", report.Imported[0].Name)
	s.Equal("Ben", report.Imported[1].Name)

	s.Equal([]int{4, 5}, lo.Map(report.Skipped, func(i ImportIssue, _ int) int { return i.Index }))
	for _, issue := range report.Skipped {
		s.ErrorIs(issue.Err, model.ErrDuplicateName)
	}

	rejected := lo.KeyBy(report.Rejected, func(i ImportIssue) int { return i.Index })
	s.Len(rejected, 5)
	s.ErrorIs(rejected[2].Err, model.ErrLevelOutOfRange)
	s.Equal("Cat", rejected[2].Name)
	s.ErrorIs(rejected[3].Err, model.ErrInvalidName)
	s.ErrorIs(rejected[6].Err, model.ErrInvalidCounter)
	s.ErrorIs(rejected[7].Err, model.ErrLevelOutOfRange)
	s.ErrorIs(rejected[8].Err, model.ErrInvalidImport)

	session := s.load()
	s.Len(session.Players, 3)
	ben, err := session.Player("ben")
	s.Require().NoError(err)
	s.Equal(3, ben.GamesPlayed)
	s.Equal(1, ben.WaitingRounds)
	s.Equal(model.StatusWaiting, ben.Status)
	s.Equal([]model.PlayerID{"Existing", "amy", "ben"}, session.Waiting)
}

func (s *ControllerSuite) TestImportPlayersAcceptsJSON() {
	report, err := s.controller.ImportPlayers(s.ctx, []byte(`[{"name": " Eve ", "level": 8}, {"name": "Fay", "level": 3}]`))
	s.Require().NoError(err)

	s.Len(report.Imported, 2)
	s.Equal("Eve", report.Imported[0].Name)
	s.Empty(report.Rejected)
	s.Empty(report.Skipped)
}

func (s *ControllerSuite) TestImportPlayersRejectsNonList() {
	s.add("Existing", 6)

	for _, input := range []string{``, `{"name": "Eve", "level": 8}`, `42`, `[unclosed`} {
		_, err := s.controller.ImportPlayers(s.ctx, []byte(input))
		s.ErrorIs(err, model.ErrInvalidImport, "input %q", input)
	}
	s.Len(s.load().Players, 1)
}

func (s *ControllerSuite) TestImportAcceptsWholeFloatLevel() {
	s.random.QueueID("eve")

	report, err := s.controller.ImportPlayers(s.ctx, []byte(`[{"name": "Eve", "level": 7.0}, {"name": "Fay", "level": 7.5}]`))
	s.Require().NoError(err)

	s.Require().Len(report.Imported, 1)
	s.Equal("Eve", report.Imported[0].Name)
	s.Require().Len(report.Rejected, 1)
	s.Equal("Fay", report.Rejected[0].Name)
	s.ErrorIs(report.Rejected[0].Err, model.ErrLevelOutOfRange)

	eve, err := s.load().Player("eve")
	s.Require().NoError(err)
	s.Equal(7, eve.Level)
}

func (s *ControllerSuite) TestImportNameMustBeString() {
	report, err := s.controller.ImportPlayers(s.ctx, []byte("- name: 123\n  level: 5\n"))
	s.Require().NoError(err)

	s.Empty(report.Imported)
	s.Require().Len(report.Rejected, 1)
	s.ErrorIs(report.Rejected[0].Err, model.ErrInvalidName)
}
