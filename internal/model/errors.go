package model

import "errors"

// Common errors used across the application
var (
	// Roster errors
	ErrPlayerNotFound   = errors.New("player not found")
	ErrInvalidName      = errors.New("player name is required")
	ErrDuplicateName    = errors.New("a player with this name already exists")
	ErrLevelOutOfRange  = errors.New("level is out of range")
	ErrInvalidCounter   = errors.New("counters must not be negative")
	ErrPlayerPlaying    = errors.New("player is currently playing")
	ErrPlayerNotWaiting = errors.New("player is not waiting")

	// Court errors
	ErrCourtNotFound         = errors.New("court not found")
	ErrCourtNotIdle          = errors.New("court is not idle")
	ErrCourtNotProposed      = errors.New("court has no proposed match")
	ErrCourtNotActive        = errors.New("court has no active match")
	ErrCourtOccupied         = errors.New("court is occupied")
	ErrStalePairing          = errors.New("proposed players are no longer waiting")
	ErrInvalidCourtCount     = errors.New("court count is out of range")
	ErrCourtCountBelowActive = errors.New("cannot remove a court with an active match")
	ErrNoIdleCourt           = errors.New("no idle court available")
	ErrNoProposedCourts      = errors.New("no proposed courts to start")

	// Pairing errors
	ErrInsufficientPlayers = errors.New("at least four waiting players are required")
	ErrDuplicateSelection  = errors.New("the same player was selected more than once")
	ErrIncompleteSelection = errors.New("each team needs exactly two players")

	// State errors
	ErrSessionNotFound = errors.New("session not found")
	ErrMalformedState  = errors.New("malformed session state")
	ErrInvalidImport   = errors.New("import data must be a list of player records")
)
