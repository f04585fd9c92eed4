package session

import "cardroom/internal/deck"

// TableEntry is one card played onto the table.
type TableEntry struct {
	PlayerID string    `json:"playerId"`
	Card     deck.Card `json:"card"`
}

// TableLog records plays in local arrival order. A card is played at
// most once, so duplicate deliveries of the same (player, card) pair
// are dropped. No ordering is reconciled across clients.
type TableLog struct {
	entries []TableEntry
	seen    map[string]struct{}
}

func NewTableLog() *TableLog {
	return &TableLog{seen: map[string]struct{}{}}
}

// Append records an entry and reports whether it was new.
func (l *TableLog) Append(e TableEntry) bool {
	key := e.PlayerID + "/" + e.Card.ID
	if _, dup := l.seen[key]; dup {
		return false
	}
	l.seen[key] = struct{}{}
	l.entries = append(l.entries, e)
	return true
}

func (l *TableLog) Entries() []TableEntry {
	return append([]TableEntry(nil), l.entries...)
}

func (l *TableLog) Len() int { return len(l.entries) }

func (l *TableLog) Reset() {
	l.entries = nil
	l.seen = map[string]struct{}{}
}
