package testutil

import (
	"time"

	"github.com/mcoot/badminton-pairing/internal/model"
)

// SampleSession builds a session exercising every court state:
//
//	court 1: active, {a, b} vs {c, d}, started at startedAt
//	court 2: proposed, {e, h} vs {g, i}
//	court 3: idle
//
// Player f is resting; e, g, h and i are waiting with one waiting round each.
func SampleSession(startedAt time.Time) *model.Session {
	s := model.NewSession(3)

	levels := []struct {
		id    model.PlayerID
		level int
	}{
		{"a", 9}, {"b", 7}, {"c", 6}, {"d", 5}, {"e", 8},
		{"f", 4}, {"g", 10}, {"h", 6}, {"i", 5},
	}
	for _, l := range levels {
		_ = s.AddPlayer(model.NewPlayer(l.id, "Player "+string(l.id), l.level))
	}

	active := model.NewMatchup(model.Pair{"a", "b"}, model.Pair{"c", "d"})
	for _, id := range active.PlayerIDs() {
		_ = s.SetPlaying(id, 1)
	}
	_ = s.SetResting("f")

	court1 := s.Courts[0]
	court1.Matchup = &active
	court1.Occupied = true
	court1.StartTime = &startedAt
	court1.WaitCohort = []model.PlayerID{"e", "g", "h", "i"}

	proposed := model.NewMatchup(model.Pair{"e", "h"}, model.Pair{"g", "i"})
	s.Courts[1].Matchup = &proposed

	for _, id := range court1.WaitCohort {
		p, _ := s.Player(id)
		p.WaitingRounds = 1
	}

	s.History.Increment("a", "b")
	s.History.Increment("c", "d")
	s.History.Increment("a", "c")
	s.History.Increment("c", "a")

	return s
}
