package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mcoot/badminton-pairing/internal/model"
)

// CurrentVersion is the blob version written by EncodeSession.
// Blobs without a version were written by the browser edition and are
// normalized on load.
const CurrentVersion = 2

type sessionRecord struct {
	Version        int             `json:"version"`
	Players        []playerRecord  `json:"players"`
	WaitingPlayers []playerRef     `json:"waitingPlayers"`
	Courts         []courtRecord   `json:"courts"`
	PairingHistory []historyRecord `json:"pairingHistory"`
	CourtCount     int             `json:"courtCount"`
}

type playerRecord struct {
	ID            flexID `json:"id"`
	Name          string `json:"name"`
	Level         int    `json:"level"`
	Status        string `json:"status,omitempty"`
	CourtID       *int   `json:"courtId,omitempty"`
	GamesPlayed   int    `json:"gamesPlayed"`
	WaitingRounds int    `json:"waitingRounds"`

	// Older blobs carry flags instead of a status
	IsPlaying bool `json:"isPlaying,omitempty"`
	IsResting bool `json:"isResting,omitempty"`
}

type courtRecord struct {
	ID         int          `json:"id"`
	Occupied   bool         `json:"occupied"`
	Pairs      []pairRecord `json:"pairs"`
	StartTime  *time.Time   `json:"startTime,omitempty"`
	WaitCohort []playerRef  `json:"waitCohort,omitempty"`
}

type pairRecord struct {
	Players []playerRef `json:"players"`
}

type historyRecord struct {
	Players [2]playerRef `json:"players"`
	Count   int          `json:"count"`

	// legacyKey is set when the entry was stored as a ["a-b", count] tuple
	legacyKey string
}

// flexID accepts a player ID written as a JSON string or number
type flexID string

func (id *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("player id must be a string or number: %s", data)
	}
	*id = flexID(n.String())
	return nil
}

// playerRef is a reference to a player by ID. Older blobs embed the whole
// player object wherever a reference is expected; that copy is kept.
type playerRef struct {
	ID       flexID
	embedded *playerRecord
}

func (r playerRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(r.ID))
}

func (r *playerRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj playerRecord
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		r.ID = obj.ID
		r.embedded = &obj
		return nil
	}
	return json.Unmarshal(trimmed, &r.ID)
}

func (h *historyRecord) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var tuple []json.RawMessage
		if err := json.Unmarshal(trimmed, &tuple); err != nil {
			return err
		}
		if len(tuple) != 2 {
			return fmt.Errorf("history tuple has %d elements", len(tuple))
		}
		var key flexID
		if err := json.Unmarshal(tuple[0], &key); err != nil {
			return err
		}
		if err := json.Unmarshal(tuple[1], &h.Count); err != nil {
			return err
		}
		h.legacyKey = string(key)
		return nil
	}

	type plain historyRecord
	return json.Unmarshal(trimmed, (*plain)(h))
}

// EncodeSession serializes a session to the current blob format
func EncodeSession(s *model.Session) ([]byte, error) {
	rec := sessionRecord{
		Version:        CurrentVersion,
		Players:        make([]playerRecord, 0, len(s.Players)),
		WaitingPlayers: make([]playerRef, 0, len(s.Waiting)),
		Courts:         make([]courtRecord, 0, len(s.Courts)),
		PairingHistory: []historyRecord{},
		CourtCount:     s.CourtCount,
	}

	for _, p := range s.Players {
		pr := playerRecord{
			ID:            flexID(p.ID),
			Name:          p.Name,
			Level:         p.Level,
			Status:        string(p.Status),
			GamesPlayed:   p.GamesPlayed,
			WaitingRounds: p.WaitingRounds,
		}
		if p.IsPlaying() {
			court := p.CourtID
			pr.CourtID = &court
		}
		rec.Players = append(rec.Players, pr)
	}

	for _, id := range s.Waiting {
		rec.WaitingPlayers = append(rec.WaitingPlayers, playerRef{ID: flexID(id)})
	}

	for _, c := range s.Courts {
		cr := courtRecord{
			ID:        c.ID,
			Occupied:  c.Occupied,
			Pairs:     []pairRecord{},
			StartTime: c.StartTime,
		}
		if c.Matchup != nil {
			for _, team := range c.Matchup.Teams {
				cr.Pairs = append(cr.Pairs, pairRecord{Players: []playerRef{
					{ID: flexID(team[0])},
					{ID: flexID(team[1])},
				}})
			}
		}
		for _, id := range c.WaitCohort {
			cr.WaitCohort = append(cr.WaitCohort, playerRef{ID: flexID(id)})
		}
		rec.Courts = append(rec.Courts, cr)
	}

	if s.History != nil {
		for _, e := range s.History.Entries() {
			rec.PairingHistory = append(rec.PairingHistory, historyRecord{
				Players: [2]playerRef{{ID: flexID(e.Key.A)}, {ID: flexID(e.Key.B)}},
				Count:   e.Count,
			})
		}
	}

	return json.Marshal(rec)
}

// DecodeSession parses a blob of any known version. Missing fields default
// (counters to 0, court count to the number of courts or
// model.DefaultCourtCount), occupied courts decide who is playing, and the
// waiting list is rebuilt from player statuses. The result satisfies
// Session.Validate; anything that cannot be normalized is reported as
// model.ErrMalformedState.
func DecodeSession(data []byte) (*model.Session, error) {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedState, err)
	}
	if rec.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", model.ErrMalformedState, rec.Version)
	}

	courtCount := rec.CourtCount
	if courtCount == 0 {
		courtCount = model.DefaultCourtCount
		if n := len(rec.Courts); n >= model.MinCourtCount && n <= model.MaxCourtCount {
			courtCount = n
		}
	}
	if courtCount < model.MinCourtCount || courtCount > model.MaxCourtCount {
		return nil, fmt.Errorf("%w: court count %d", model.ErrMalformedState, courtCount)
	}

	session := &model.Session{
		History:    model.NewPairingHistory(),
		CourtCount: courtCount,
	}

	byID := make(map[model.PlayerID]*model.Player, len(rec.Players))
	for _, pr := range rec.Players {
		p := pr.toPlayer()
		if p.ID == "" {
			return nil, fmt.Errorf("%w: player %q has no id", model.ErrMalformedState, p.Name)
		}
		session.Players = append(session.Players, p)
		byID[p.ID] = p
	}

	for i, cr := range rec.Courts {
		court, err := cr.toCourt(i + 1)
		if err != nil {
			return nil, err
		}
		session.Courts = append(session.Courts, court)
	}
	// The browser edition dropped courts above the count along with their matches
	if len(session.Courts) > courtCount {
		session.Courts = session.Courts[:courtCount]
	}
	for len(session.Courts) < courtCount {
		session.Courts = append(session.Courts, model.NewCourt(len(session.Courts)+1))
	}

	claimed := claimActiveCourts(session.Courts, byID)
	queuedCopies := make(map[model.PlayerID]*playerRecord)
	for _, ref := range rec.WaitingPlayers {
		if ref.embedded != nil {
			queuedCopies[model.PlayerID(ref.ID)] = ref.embedded
		}
	}
	for _, p := range session.Players {
		if p.IsPlaying() && !claimed[p.ID] {
			releasePlayer(p, queuedCopies[p.ID])
		}
	}

	queued := make(map[model.PlayerID]bool)
	for _, ref := range rec.WaitingPlayers {
		id := model.PlayerID(ref.ID)
		if p := byID[id]; p != nil && p.IsWaiting() && !queued[id] {
			session.Waiting = append(session.Waiting, id)
			queued[id] = true
		}
	}
	for _, p := range session.Players {
		if p.IsWaiting() && !queued[p.ID] {
			session.Waiting = append(session.Waiting, p.ID)
			queued[p.ID] = true
		}
	}

	for _, hr := range rec.PairingHistory {
		a, b := model.PlayerID(hr.Players[0].ID), model.PlayerID(hr.Players[1].ID)
		if hr.legacyKey != "" {
			var ok bool
			a, b, ok = splitLegacyKey(hr.legacyKey, byID)
			if !ok {
				return nil, fmt.Errorf("%w: history key %q", model.ErrMalformedState, hr.legacyKey)
			}
		}
		if a == "" || b == "" {
			return nil, fmt.Errorf("%w: history entry is missing a player", model.ErrMalformedState)
		}
		session.History.Add(model.NewPairKey(a, b), hr.Count)
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}
	return session, nil
}

// claimActiveCourts makes each occupied court the authority on who plays
// there. A court with a player missing from the roster, or already on an
// earlier court, is taken out of play and keeps its matchup as a proposal.
func claimActiveCourts(courts []*model.Court, byID map[model.PlayerID]*model.Player) map[model.PlayerID]bool {
	claimed := make(map[model.PlayerID]bool)
	for _, c := range courts {
		if !c.Occupied {
			continue
		}
		if c.Matchup == nil || c.StartTime == nil || !claimable(c.Matchup.PlayerIDs(), byID, claimed) {
			c.Occupied = false
			c.StartTime = nil
			c.WaitCohort = nil
			continue
		}
		for _, id := range c.Matchup.PlayerIDs() {
			p := byID[id]
			p.Status = model.StatusPlaying
			p.CourtID = c.ID
			claimed[id] = true
		}
	}
	return claimed
}

func claimable(ids []model.PlayerID, byID map[model.PlayerID]*model.Player, claimed map[model.PlayerID]bool) bool {
	for _, id := range ids {
		if byID[id] == nil || claimed[id] {
			return false
		}
	}
	return true
}

// releasePlayer returns a player marked playing on no active court to the
// queue. The browser edition updated its queued copy of a player after a
// reload rather than the roster entry, so that copy's counters win.
func releasePlayer(p *model.Player, queued *playerRecord) {
	p.Status = model.StatusWaiting
	p.CourtID = 0
	if queued != nil {
		p.GamesPlayed = queued.GamesPlayed
		p.WaitingRounds = queued.WaitingRounds
	}
}

func (pr playerRecord) toPlayer() *model.Player {
	p := &model.Player{
		ID:            model.PlayerID(pr.ID),
		Name:          pr.Name,
		Level:         pr.Level,
		Status:        model.PlayerStatus(pr.Status),
		GamesPlayed:   pr.GamesPlayed,
		WaitingRounds: pr.WaitingRounds,
	}
	if pr.Status == "" {
		switch {
		case pr.IsPlaying:
			p.Status = model.StatusPlaying
		case pr.IsResting:
			p.Status = model.StatusResting
		default:
			p.Status = model.StatusWaiting
		}
	}
	if p.IsPlaying() && pr.CourtID != nil {
		p.CourtID = *pr.CourtID
	}
	return p
}

func (cr courtRecord) toCourt(position int) (*model.Court, error) {
	id := cr.ID
	if id == 0 {
		id = position
	}
	court := model.NewCourt(id)
	court.Occupied = cr.Occupied

	switch len(cr.Pairs) {
	case 0:
	case 2:
		var teams [2]model.Pair
		for i, pair := range cr.Pairs {
			if len(pair.Players) != 2 {
				return nil, fmt.Errorf("%w: court %d team %d has %d players", model.ErrMalformedState, id, i+1, len(pair.Players))
			}
			teams[i] = model.Pair{model.PlayerID(pair.Players[0].ID), model.PlayerID(pair.Players[1].ID)}
		}
		m := model.NewMatchup(teams[0], teams[1])
		court.Matchup = &m
	default:
		return nil, fmt.Errorf("%w: court %d has %d teams", model.ErrMalformedState, id, len(cr.Pairs))
	}

	if court.Occupied {
		court.StartTime = cr.StartTime
		for _, ref := range cr.WaitCohort {
			court.WaitCohort = append(court.WaitCohort, model.PlayerID(ref.ID))
		}
	}
	return court, nil
}

// splitLegacyKey splits an "a-b" history key. IDs may themselves contain
// dashes, so a split where both halves are known players is preferred.
func splitLegacyKey(key string, known map[model.PlayerID]*model.Player) (model.PlayerID, model.PlayerID, bool) {
	for i := 0; i < len(key); i++ {
		if key[i] != '-' {
			continue
		}
		a, b := model.PlayerID(key[:i]), model.PlayerID(key[i+1:])
		if known[a] != nil && known[b] != nil {
			return a, b, true
		}
	}
	a, b, ok := strings.Cut(key, "-")
	if !ok || a == "" || b == "" {
		return "", "", false
	}
	return model.PlayerID(a), model.PlayerID(b), true
}
