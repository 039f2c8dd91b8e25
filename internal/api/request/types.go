package request

// AddPlayerRequest is the request body for adding a player
type AddPlayerRequest struct {
	Name  string `json:"name"`
	Level *int   `json:"level"`
}

// EditPlayerRequest is the request body for editing a player.
// Omitted fields are left unchanged.
type EditPlayerRequest struct {
	Level         *int `json:"level,omitempty"`
	GamesPlayed   *int `json:"games_played,omitempty"`
	WaitingRounds *int `json:"waiting_rounds,omitempty"`
}

// SetCourtCountRequest is the request body for changing the number of courts
type SetCourtCountRequest struct {
	Count int `json:"count"`
}

// ProposeRequest is the request body for setting a court's teams by hand.
// Each team is a pair of player IDs.
type ProposeRequest struct {
	Teams [2][2]string `json:"teams"`
}
