package model

import (
	"fmt"

	"github.com/samber/lo"
)

// Session is the roster and court state for one venue.
// It owns every Player and Court record; callers mutate it through the
// methods below so the waiting list always mirrors player status.
type Session struct {
	Players    []*Player  // Roster in insertion order
	Waiting    []PlayerID // Waiting players in queue order
	Courts     []*Court   // Courts 1..CourtCount
	History    *PairingHistory
	CourtCount int
}

// NewSession creates an empty session with idle courts
func NewSession(courtCount int) *Session {
	s := &Session{
		History:    NewPairingHistory(),
		CourtCount: courtCount,
	}
	for i := 1; i <= courtCount; i++ {
		s.Courts = append(s.Courts, NewCourt(i))
	}
	return s
}

// Player returns the player with the given ID
func (s *Session) Player(id PlayerID) (*Player, error) {
	p, ok := lo.Find(s.Players, func(p *Player) bool { return p.ID == id })
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

// PlayerByName returns the player with the given name, or nil
func (s *Session) PlayerByName(name string) *Player {
	p, _ := lo.Find(s.Players, func(p *Player) bool { return p.Name == name })
	return p
}

// WaitingPlayers returns the waiting players in queue order
func (s *Session) WaitingPlayers() []*Player {
	byID := lo.KeyBy(s.Players, func(p *Player) PlayerID { return p.ID })
	waiting := make([]*Player, 0, len(s.Waiting))
	for _, id := range s.Waiting {
		if p, ok := byID[id]; ok {
			waiting = append(waiting, p)
		}
	}
	return waiting
}

// MaxGamesPlayed returns the highest game count across the whole roster
func (s *Session) MaxGamesPlayed() int {
	if len(s.Players) == 0 {
		return 0
	}
	top := lo.MaxBy(s.Players, func(a, b *Player) bool { return a.GamesPlayed > b.GamesPlayed })
	return top.GamesPlayed
}

// Court returns the court with the given number
func (s *Session) Court(id int) (*Court, error) {
	if id < 1 || id > len(s.Courts) {
		return nil, ErrCourtNotFound
	}
	return s.Courts[id-1], nil
}

// FirstIdleCourt returns the lowest numbered idle court, or nil
func (s *Session) FirstIdleCourt() *Court {
	c, _ := lo.Find(s.Courts, func(c *Court) bool { return c.State() == CourtStateIdle })
	return c
}

// ActiveCourtOf returns the active court the player is on, or nil
func (s *Session) ActiveCourtOf(id PlayerID) *Court {
	c, _ := lo.Find(s.Courts, func(c *Court) bool { return c.Occupied && c.Contains(id) })
	return c
}

// ReservedPlayers returns players placed on proposed courts other than except
func (s *Session) ReservedPlayers(except int) map[PlayerID]bool {
	reserved := make(map[PlayerID]bool)
	for _, c := range s.Courts {
		if c.ID == except || c.State() != CourtStateProposed {
			continue
		}
		for _, id := range c.Matchup.PlayerIDs() {
			reserved[id] = true
		}
	}
	return reserved
}

// ForgetWaitRounds removes ids from the wait cohort of every court. Called
// when a player's waiting rounds are reset or overwritten, so a later
// cancel cannot take back rounds the player no longer holds from that start.
func (s *Session) ForgetWaitRounds(ids ...PlayerID) {
	for _, c := range s.Courts {
		if len(c.WaitCohort) > 0 {
			c.WaitCohort = lo.Without(c.WaitCohort, ids...)
		}
	}
}

// AddPlayer appends a player to the roster, queueing it if waiting
func (s *Session) AddPlayer(p *Player) error {
	if s.PlayerByName(p.Name) != nil {
		return ErrDuplicateName
	}
	s.Players = append(s.Players, p)
	if p.IsWaiting() {
		s.Waiting = append(s.Waiting, p.ID)
	}
	return nil
}

// RemovePlayer drops a player from every collection
func (s *Session) RemovePlayer(id PlayerID) error {
	if _, err := s.Player(id); err != nil {
		return err
	}
	s.Players = lo.Reject(s.Players, func(p *Player, _ int) bool { return p.ID == id })
	s.Waiting = lo.Without(s.Waiting, id)
	return nil
}

// SetPlaying moves a waiting player onto a court
func (s *Session) SetPlaying(id PlayerID, court int) error {
	p, err := s.Player(id)
	if err != nil {
		return err
	}
	if !p.IsWaiting() {
		return ErrPlayerNotWaiting
	}
	p.markPlaying(court)
	s.Waiting = lo.Without(s.Waiting, id)
	return nil
}

// SetWaiting returns a player to the back of the waiting queue
func (s *Session) SetWaiting(id PlayerID) error {
	p, err := s.Player(id)
	if err != nil {
		return err
	}
	p.markWaiting()
	if !lo.Contains(s.Waiting, id) {
		s.Waiting = append(s.Waiting, id)
	}
	return nil
}

// SetResting takes a non-playing player out of the waiting queue
func (s *Session) SetResting(id PlayerID) error {
	p, err := s.Player(id)
	if err != nil {
		return err
	}
	if p.IsPlaying() {
		return ErrPlayerPlaying
	}
	p.markResting()
	s.Waiting = lo.Without(s.Waiting, id)
	return nil
}

// ResizeCourts changes the number of courts, keeping the state of courts
// that remain. Removing an active court is refused; proposed matchups on
// removed courts are discarded.
func (s *Session) ResizeCourts(n int) error {
	if n < MinCourtCount || n > MaxCourtCount {
		return ErrInvalidCourtCount
	}
	for _, c := range s.Courts {
		if c.ID > n && c.Occupied {
			return fmt.Errorf("court %d: %w", c.ID, ErrCourtCountBelowActive)
		}
	}
	courts := make([]*Court, 0, n)
	for i := 1; i <= n; i++ {
		if i <= len(s.Courts) {
			courts = append(courts, s.Courts[i-1])
		} else {
			courts = append(courts, NewCourt(i))
		}
	}
	s.Courts = courts
	s.CourtCount = n
	return nil
}

// Validate checks the cross-collection invariants of the session
func (s *Session) Validate() error {
	if len(s.Courts) != s.CourtCount {
		return fmt.Errorf("%w: %d courts for court count %d", ErrMalformedState, len(s.Courts), s.CourtCount)
	}

	names := make(map[string]bool, len(s.Players))
	byID := make(map[PlayerID]*Player, len(s.Players))
	for _, p := range s.Players {
		if byID[p.ID] != nil {
			return fmt.Errorf("%w: duplicate player id %s", ErrMalformedState, p.ID)
		}
		if names[p.Name] {
			return fmt.Errorf("%w: duplicate player name %q", ErrMalformedState, p.Name)
		}
		if !p.Status.Valid() {
			return fmt.Errorf("%w: player %s has status %q", ErrMalformedState, p.ID, p.Status)
		}
		if p.IsPlaying() != (p.CourtID != 0) {
			return fmt.Errorf("%w: player %s court assignment does not match status", ErrMalformedState, p.ID)
		}
		byID[p.ID] = p
		names[p.Name] = true
	}

	queued := make(map[PlayerID]bool, len(s.Waiting))
	for _, id := range s.Waiting {
		p := byID[id]
		if p == nil || !p.IsWaiting() || queued[id] {
			return fmt.Errorf("%w: waiting list entry %s", ErrMalformedState, id)
		}
		queued[id] = true
	}
	for _, p := range s.Players {
		if p.IsWaiting() && !queued[p.ID] {
			return fmt.Errorf("%w: waiting player %s missing from queue", ErrMalformedState, p.ID)
		}
	}

	for i, c := range s.Courts {
		if c.ID != i+1 {
			return fmt.Errorf("%w: court at position %d has id %d", ErrMalformedState, i+1, c.ID)
		}
		if c.Matchup != nil {
			if err := c.Matchup.Validate(); err != nil {
				return fmt.Errorf("%w: court %d: %v", ErrMalformedState, c.ID, err)
			}
		}
		if !c.Occupied {
			if c.StartTime != nil {
				return fmt.Errorf("%w: idle court %d has a start time", ErrMalformedState, c.ID)
			}
			continue
		}
		if c.Matchup == nil || c.StartTime == nil {
			return fmt.Errorf("%w: active court %d is incomplete", ErrMalformedState, c.ID)
		}
		for _, id := range c.Matchup.PlayerIDs() {
			p := byID[id]
			if p == nil || !p.IsPlaying() || p.CourtID != c.ID {
				return fmt.Errorf("%w: player %s on court %d is not playing there", ErrMalformedState, id, c.ID)
			}
		}
	}
	for _, p := range s.Players {
		if p.IsPlaying() {
			c, err := s.Court(p.CourtID)
			if err != nil || !c.Occupied || !c.Contains(p.ID) {
				return fmt.Errorf("%w: player %s assigned to court %d without a match", ErrMalformedState, p.ID, p.CourtID)
			}
		}
	}
	return nil
}
