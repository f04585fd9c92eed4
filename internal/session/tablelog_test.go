package session

import (
	"testing"

	"cardroom/internal/deck"
)

func TestTableLogArrivalOrder(t *testing.T) {
	l := NewTableLog()
	l.Append(TableEntry{PlayerID: "p-a", Card: deck.Card{ID: "c1"}})
	l.Append(TableEntry{PlayerID: "p-b", Card: deck.Card{ID: "c2"}})

	entries := l.Entries()
	if len(entries) != 2 || entries[0].Card.ID != "c1" || entries[1].Card.ID != "c2" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestTableLogDropsRedelivery(t *testing.T) {
	l := NewTableLog()
	e := TableEntry{PlayerID: "p-a", Card: deck.Card{ID: "c1"}}
	if !l.Append(e) {
		t.Fatal("first append rejected")
	}
	if l.Append(e) {
		t.Fatal("redelivered entry accepted")
	}
	if l.Len() != 1 {
		t.Fatalf("len = %d, want 1", l.Len())
	}
}

func TestTableLogSameCardDifferentPlayer(t *testing.T) {
	// not legal in a real game, but the log records arrivals, it does
	// not referee
	l := NewTableLog()
	l.Append(TableEntry{PlayerID: "p-a", Card: deck.Card{ID: "c1"}})
	if !l.Append(TableEntry{PlayerID: "p-b", Card: deck.Card{ID: "c1"}}) {
		t.Fatal("distinct player with same card rejected")
	}
}

func TestTableLogReset(t *testing.T) {
	l := NewTableLog()
	e := TableEntry{PlayerID: "p-a", Card: deck.Card{ID: "c1"}}
	l.Append(e)
	l.Reset()
	if l.Len() != 0 {
		t.Fatalf("len after reset = %d", l.Len())
	}
	if !l.Append(e) {
		t.Fatal("reset did not clear the dedupe index")
	}
}
