package pairing

import (
	"math"
	"sort"

	"github.com/mcoot/badminton-pairing/internal/model"
)

// BalanceRating is a human readable band for the strength gap between teams
type BalanceRating string

const (
	RatingVeryBalanced BalanceRating = "very_balanced"
	RatingBalanced     BalanceRating = "balanced"
	RatingSlightGap    BalanceRating = "slight_gap"
	RatingLargeGap     BalanceRating = "large_gap"
	RatingVeryLargeGap BalanceRating = "very_large_gap"
)

// RateBalance maps a strength difference onto a rating band
func RateBalance(diff float64) BalanceRating {
	switch {
	case diff <= 0.5:
		return RatingVeryBalanced
	case diff <= 1.0:
		return RatingBalanced
	case diff <= 1.5:
		return RatingSlightGap
	case diff <= 2.0:
		return RatingLargeGap
	default:
		return RatingVeryLargeGap
	}
}

// StrengthDiff returns the absolute strength difference between two teams
func (p Policy) StrengthDiff(t1, t2 Team) float64 {
	return math.Abs(p.TeamStrength(t1) - p.TeamStrength(t2))
}

// WaitingPriority orders players for display: long waits and few games first
func WaitingPriority(p *model.Player, maxGamesPlayed int) int {
	return p.WaitingRounds*2 + (maxGamesPlayed - p.GamesPlayed)
}

// SortByPriority returns players ordered by descending waiting priority,
// keeping queue order between equal priorities
func SortByPriority(players []*model.Player, maxGamesPlayed int) []*model.Player {
	sorted := make([]*model.Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return WaitingPriority(sorted[i], maxGamesPlayed) > WaitingPriority(sorted[j], maxGamesPlayed)
	})
	return sorted
}
