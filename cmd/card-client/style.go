package main

import (
	"github.com/pterm/pterm"

	"cardroom/internal/deck"
)

func cardLabel(c deck.Card) string {
	switch c.Rank {
	case "red-joker":
		return pterm.LightRed("JOKER")
	case "black-joker":
		return pterm.Gray("JOKER")
	}
	label := c.Rank + c.Suit
	switch c.Suit {
	case "♥", "♦":
		return pterm.LightRed(label)
	default:
		return label
	}
}
