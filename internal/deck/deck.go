// Package deck builds the 54-card deck a room is dealt from: thirteen
// ranks across four suits plus two jokers. Uniqueness of (rank, suit)
// pairs is structural, the shuffle only permutes.
package deck

import (
	"math/rand"
	"time"
)

// Card is an immutable playing card. Jokers carry an empty suit.
type Card struct {
	ID   string `json:"id"`
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

// Size is the number of cards in a generated deck.
const Size = 54

var ranks = []string{"3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A", "2"}

var suits = []string{"♥", "♦", "♠", "♣"}

var jokerRanks = []string{"black-joker", "red-joker"}

// Generate returns a freshly shuffled 54-card deck.
func Generate() []Card {
	return GenerateWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// GenerateWithRand is Generate with caller-supplied randomness.
func GenerateWithRand(r *rand.Rand) []Card {
	cards := ordered()
	r.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}

func ordered() []Card {
	cards := make([]Card, 0, Size)
	for _, rank := range ranks {
		for _, suit := range suits {
			cards = append(cards, Card{
				ID:   "card-" + rank + "-" + suit,
				Rank: rank,
				Suit: suit,
			})
		}
	}
	for _, rank := range jokerRanks {
		cards = append(cards, Card{ID: "card-" + rank, Rank: rank})
	}
	return cards
}
