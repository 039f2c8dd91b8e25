package model

// PlayerID uniquely identifies a player for the lifetime of the roster
type PlayerID string

// PlayerStatus is the single discriminated state a player is in
type PlayerStatus string

const (
	StatusWaiting PlayerStatus = "waiting" // Eligible for pairing
	StatusPlaying PlayerStatus = "playing" // On an active court
	StatusResting PlayerStatus = "resting" // Present but sitting out
)

// Valid reports whether s is one of the known statuses
func (s PlayerStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusPlaying, StatusResting:
		return true
	}
	return false
}

// LevelRange bounds the skill levels accepted for players
type LevelRange struct {
	Min int
	Max int
}

// DefaultLevelRange returns the range used by the reference deployment
func DefaultLevelRange() LevelRange {
	return LevelRange{Min: 3, Max: 12}
}

// Contains reports whether level is within the range (inclusive)
func (r LevelRange) Contains(level int) bool {
	return level >= r.Min && level <= r.Max
}

// Player is a member of the roster.
// Status and CourtID change only through the transition methods so that a
// court assignment exists exactly when the player is playing.
type Player struct {
	ID            PlayerID
	Name          string
	Level         int
	Status        PlayerStatus
	CourtID       int // Non-zero only while Status is StatusPlaying
	GamesPlayed   int
	WaitingRounds int
}

// NewPlayer creates a waiting player with zeroed counters
func NewPlayer(id PlayerID, name string, level int) *Player {
	return &Player{
		ID:     id,
		Name:   name,
		Level:  level,
		Status: StatusWaiting,
	}
}

// IsWaiting reports whether the player can be paired
func (p *Player) IsWaiting() bool { return p.Status == StatusWaiting }

// IsPlaying reports whether the player is on an active court
func (p *Player) IsPlaying() bool { return p.Status == StatusPlaying }

// IsResting reports whether the player is sitting out
func (p *Player) IsResting() bool { return p.Status == StatusResting }

func (p *Player) markPlaying(court int) {
	p.Status = StatusPlaying
	p.CourtID = court
}

func (p *Player) markWaiting() {
	p.Status = StatusWaiting
	p.CourtID = 0
}

func (p *Player) markResting() {
	p.Status = StatusResting
	p.CourtID = 0
}
