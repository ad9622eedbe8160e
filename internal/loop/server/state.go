package server

import "slices"

// TopScoreEntry represents a single entry on the leaderboard.
type TopScoreEntry struct {
	Username string
	Score    int
	clientID int // Used for deterministic tie-break when scores are equal
}

// leaderboard keeps the best scores, one entry per client.
type leaderboard struct {
	entries []TopScoreEntry
	size    int
}

func newLeaderboard(size int) leaderboard {
	return leaderboard{entries: make([]TopScoreEntry, 0, size+1), size: size}
}

func compareEntries(a, b TopScoreEntry) int {
	if a.Score != b.Score {
		return b.Score - a.Score
	}
	return a.clientID - b.clientID
}

// submit records e if it beats the client's previous entry and returns its
// 1-based rank, or 0 when it is not on the board.
func (b *leaderboard) submit(e TopScoreEntry) int {
	if e.Score <= 0 {
		return 0
	}
	if i := slices.IndexFunc(b.entries, func(x TopScoreEntry) bool { return x.clientID == e.clientID }); i >= 0 {
		if b.entries[i].Score >= e.Score {
			return 0
		}
		b.entries = slices.Delete(b.entries, i, i+1)
	}

	b.entries = append(b.entries, e)
	slices.SortFunc(b.entries, compareEntries)
	if len(b.entries) > b.size {
		b.entries = b.entries[:b.size]
	}

	for i, x := range b.entries {
		if x.clientID == e.clientID {
			return i + 1
		}
	}
	return 0
}

func (b *leaderboard) snapshot() []TopScoreEntry {
	return slices.Clone(b.entries)
}
