package model

import "sort"

// PairKey identifies an unordered pair of players.
// A is always the smaller ID so both orders map to the same key.
type PairKey struct {
	A PlayerID
	B PlayerID
}

// NewPairKey returns the canonical key for two players
func NewPairKey(a, b PlayerID) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// HistoryEntry is one teammate pair and how often it has been used
type HistoryEntry struct {
	Key   PairKey
	Count int
}

// PairingHistory counts how many started matches each teammate pair has played
type PairingHistory struct {
	counts map[PairKey]int
}

// NewPairingHistory creates an empty history
func NewPairingHistory() *PairingHistory {
	return &PairingHistory{counts: make(map[PairKey]int)}
}

// Count returns the number of times a and b have been teammates
func (h *PairingHistory) Count(a, b PlayerID) int {
	return h.counts[NewPairKey(a, b)]
}

// Increment records one more match with a and b as teammates
func (h *PairingHistory) Increment(a, b PlayerID) {
	h.counts[NewPairKey(a, b)]++
}

// Decrement undoes one match, dropping the entry when it reaches zero
func (h *PairingHistory) Decrement(a, b PlayerID) {
	key := NewPairKey(a, b)
	n := h.counts[key]
	if n <= 1 {
		delete(h.counts, key)
		return
	}
	h.counts[key] = n - 1
}

// Add merges count into the entry for key. Non-positive counts are ignored.
func (h *PairingHistory) Add(key PairKey, count int) {
	if count <= 0 {
		return
	}
	h.counts[NewPairKey(key.A, key.B)] += count
}

// Len returns the number of pairs with a non-zero count
func (h *PairingHistory) Len() int {
	return len(h.counts)
}

// Entries returns all entries sorted by key
func (h *PairingHistory) Entries() []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(h.counts))
	for k, n := range h.counts {
		entries = append(entries, HistoryEntry{Key: k, Count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Key.A != entries[j].Key.A {
			return entries[i].Key.A < entries[j].Key.A
		}
		return entries[i].Key.B < entries[j].Key.B
	})
	return entries
}

// Clone returns an independent copy
func (h *PairingHistory) Clone() *PairingHistory {
	c := NewPairingHistory()
	for k, n := range h.counts {
		c.counts[k] = n
	}
	return c
}
