// Package protocol defines the closed set of payloads peers broadcast
// on a room channel. Payloads are validated here, at the transport
// boundary, before any session logic sees them; a payload that fails
// validation is dropped, never surfaced, since at-least-once delivery
// makes garbage an expected input.
package protocol

import (
	"encoding/json"
	"errors"

	"cardroom/internal/deck"
)

// Event names carried on a room channel.
const (
	EventAnnounce = "announce"
	EventDeal     = "deal"
	EventPlay     = "play"
)

var ErrMalformed = errors.New("malformed_payload")

// Announce is a participant introducing itself to the channel.
type Announce struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	JoinedAt int64  `json:"joinedAt"`
}

func (a Announce) Validate() error {
	if a.ID == "" || a.JoinedAt <= 0 {
		return ErrMalformed
	}
	return nil
}

// Deal routes one hand to a single participant, addressed by id since
// the channel has no private unicast.
type Deal struct {
	TargetPlayerID string      `json:"targetPlayerId"`
	Cards          []deck.Card `json:"cards"`
}

func (d Deal) Validate() error {
	if d.TargetPlayerID == "" || len(d.Cards) == 0 {
		return ErrMalformed
	}
	seen := map[string]bool{}
	for _, c := range d.Cards {
		if c.ID == "" || seen[c.ID] {
			return ErrMalformed
		}
		seen[c.ID] = true
	}
	return nil
}

// Play records one card placed on the table by a participant.
type Play struct {
	PlayerID string    `json:"playerId"`
	Card     deck.Card `json:"card"`
}

func (p Play) Validate() error {
	if p.PlayerID == "" || p.Card.ID == "" {
		return ErrMalformed
	}
	return nil
}

func ParseAnnounce(raw []byte) (Announce, error) {
	var a Announce
	if err := json.Unmarshal(raw, &a); err != nil {
		return Announce{}, ErrMalformed
	}
	return a, a.Validate()
}

func ParseDeal(raw []byte) (Deal, error) {
	var d Deal
	if err := json.Unmarshal(raw, &d); err != nil {
		return Deal{}, ErrMalformed
	}
	return d, d.Validate()
}

func ParsePlay(raw []byte) (Play, error) {
	var p Play
	if err := json.Unmarshal(raw, &p); err != nil {
		return Play{}, ErrMalformed
	}
	return p, p.Validate()
}
