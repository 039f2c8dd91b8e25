package model

import "time"

const (
	MinCourtCount     = 1
	MaxCourtCount     = 10
	DefaultCourtCount = 4
)

// CourtState is derived from a court's matchup and occupancy
type CourtState string

const (
	CourtStateIdle     CourtState = "idle"     // No matchup
	CourtStateProposed CourtState = "proposed" // Matchup set, not started
	CourtStateActive   CourtState = "active"   // Match in progress
)

// Pair is two teammates, referenced by ID
type Pair [2]PlayerID

// Matchup is two teams of two distinct players
type Matchup struct {
	Teams [2]Pair
}

// NewMatchup builds a matchup from two teams
func NewMatchup(team1, team2 Pair) Matchup {
	return Matchup{Teams: [2]Pair{team1, team2}}
}

// PlayerIDs returns the four players in team order
func (m Matchup) PlayerIDs() []PlayerID {
	return []PlayerID{m.Teams[0][0], m.Teams[0][1], m.Teams[1][0], m.Teams[1][1]}
}

// Contains reports whether id plays in the matchup
func (m Matchup) Contains(id PlayerID) bool {
	for _, p := range m.PlayerIDs() {
		if p == id {
			return true
		}
	}
	return false
}

// Validate checks that all four slots are filled with distinct players
func (m Matchup) Validate() error {
	seen := make(map[PlayerID]bool, 4)
	for _, id := range m.PlayerIDs() {
		if id == "" {
			return ErrIncompleteSelection
		}
		if seen[id] {
			return ErrDuplicateSelection
		}
		seen[id] = true
	}
	return nil
}

// Court is a numbered playing slot
type Court struct {
	ID        int
	Occupied  bool
	Matchup   *Matchup   // nil when idle
	StartTime *time.Time // set only while occupied

	// WaitCohort holds the players whose waiting rounds were bumped when the
	// current match started, so a cancel can undo exactly that increment.
	WaitCohort []PlayerID
}

// NewCourt creates an idle court
func NewCourt(id int) *Court {
	return &Court{ID: id}
}

// State returns the lifecycle state of the court
func (c *Court) State() CourtState {
	switch {
	case c.Occupied:
		return CourtStateActive
	case c.Matchup != nil:
		return CourtStateProposed
	default:
		return CourtStateIdle
	}
}

// Contains reports whether the player is on this court's matchup
func (c *Court) Contains(id PlayerID) bool {
	return c.Matchup != nil && c.Matchup.Contains(id)
}

// Reset returns the court to idle
func (c *Court) Reset() {
	c.Occupied = false
	c.Matchup = nil
	c.StartTime = nil
	c.WaitCohort = nil
}
