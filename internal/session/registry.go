package session

import "sort"

// Player is one device taking part in a room. JoinedAt is a unix-ms
// timestamp stamped once per room membership and used only for
// deterministic cross-client ordering, never as a shared clock.
type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	JoinedAt int64  `json:"joinedAt"`
}

// Registry tracks the local identity and the known remote roster for
// one room. It never contains the local id, and insertion is keyed by
// id so announce redelivery cannot double-count. The Registry is not
// internally locked; the Manager serializes access.
type Registry struct {
	self  Player
	peers []Player
}

func NewRegistry(self Player) *Registry {
	return &Registry{self: self}
}

func (r *Registry) Self() Player { return r.self }

// Add records a remote participant. It reports whether the roster
// changed and the roster size after the call; exactly one insertion
// observes any given size transition.
func (r *Registry) Add(p Player) (added bool, count int) {
	if p.ID == r.self.ID {
		return false, len(r.peers)
	}
	for _, known := range r.peers {
		if known.ID == p.ID {
			return false, len(r.peers)
		}
	}
	r.peers = append(r.peers, p)
	sort.Slice(r.peers, func(i, j int) bool {
		if r.peers[i].JoinedAt != r.peers[j].JoinedAt {
			return r.peers[i].JoinedAt < r.peers[j].JoinedAt
		}
		return r.peers[i].ID < r.peers[j].ID
	})
	return true, len(r.peers)
}

func (r *Registry) Count() int { return len(r.peers) }

func (r *Registry) Peers() []Player {
	return append([]Player(nil), r.peers...)
}

func (r *Registry) Reset() { r.peers = nil }

// Dealer elects the participant that deals for this room: the one
// with the smallest (joinedAt, id) among the local player and every
// known peer. All clients compute the election from the same announce
// payloads, so they agree on a single dealer.
func (r *Registry) Dealer() Player {
	dealer := r.self
	for _, p := range r.peers {
		if p.JoinedAt < dealer.JoinedAt ||
			(p.JoinedAt == dealer.JoinedAt && p.ID < dealer.ID) {
			dealer = p
		}
	}
	return dealer
}
