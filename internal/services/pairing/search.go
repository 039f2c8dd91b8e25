package pairing

// Stats describes the work done by a search
type Stats struct {
	// PlayersConsidered is the size of the pool searched
	PlayersConsidered int

	// CandidatesEvaluated is the number of scored candidates, 3 * C(n, 4)
	CandidatesEvaluated int
}

// Result is the best candidate found by a search
type Result struct {
	Candidate Candidate
	Score     float64
	Stats     Stats
}

// splits lists the three ways to divide four players into two teams,
// in the order they are tried: (AB|CD), (AC|BD), (AD|BC)
var splits = [3][2][2]int{
	{{0, 1}, {2, 3}},
	{{0, 2}, {1, 3}},
	{{0, 3}, {1, 2}},
}

// FindBestPairing scores every split of every group of four players and
// returns the highest scoring candidate. Groups are visited in ascending
// index order over players and the first candidate wins ties. With fewer
// than four players it returns false.
func FindBestPairing(players []Entry, scorer Scorer) (Result, bool) {
	result := Result{Stats: Stats{PlayersConsidered: len(players)}}
	if len(players) < 4 {
		return result, false
	}

	found := false
	n := len(players)
	for i := 0; i < n-3; i++ {
		for j := i + 1; j < n-2; j++ {
			for k := j + 1; k < n-1; k++ {
				for l := k + 1; l < n; l++ {
					group := [4]Entry{players[i], players[j], players[k], players[l]}
					for _, split := range splits {
						c := Candidate{Teams: [2]Team{
							{group[split[0][0]], group[split[0][1]]},
							{group[split[1][0]], group[split[1][1]]},
						}}
						score := scorer.Score(c)
						result.Stats.CandidatesEvaluated++
						if !found || score > result.Score {
							found = true
							result.Candidate = c
							result.Score = score
						}
					}
				}
			}
		}
	}

	return result, found
}

// CandidatesFor returns the number of candidates a pool of n players yields
func CandidatesFor(n int) int {
	if n < 4 {
		return 0
	}
	return 3 * n * (n - 1) * (n - 2) * (n - 3) / 24
}
