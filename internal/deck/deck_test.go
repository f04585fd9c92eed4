package deck

import (
	"math/rand"
	"testing"
)

func TestGenerateFullDeck(t *testing.T) {
	cards := Generate()
	if len(cards) != Size {
		t.Fatalf("deck size = %d, want %d", len(cards), Size)
	}
	pairs := map[[2]string]bool{}
	ids := map[string]bool{}
	for _, c := range cards {
		key := [2]string{c.Rank, c.Suit}
		if pairs[key] {
			t.Fatalf("duplicate (rank, suit): %q %q", c.Rank, c.Suit)
		}
		pairs[key] = true
		if c.ID == "" {
			t.Fatalf("card %q %q has empty id", c.Rank, c.Suit)
		}
		if ids[c.ID] {
			t.Fatalf("duplicate card id %q", c.ID)
		}
		ids[c.ID] = true
	}
}

func TestGenerateJokers(t *testing.T) {
	jokers := 0
	for _, c := range Generate() {
		if c.Suit == "" {
			jokers++
			if c.Rank != "black-joker" && c.Rank != "red-joker" {
				t.Fatalf("suitless card with rank %q", c.Rank)
			}
		}
	}
	if jokers != 2 {
		t.Fatalf("jokers = %d, want 2", jokers)
	}
}

func TestGenerateWithRandDeterministic(t *testing.T) {
	a := GenerateWithRand(rand.New(rand.NewSource(7)))
	b := GenerateWithRand(rand.New(rand.NewSource(7)))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at index %d: %+v vs %+v", i, a[i], b[i])
		}
	}
	c := GenerateWithRand(rand.New(rand.NewSource(8)))
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical order")
	}
}
