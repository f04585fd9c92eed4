package session

// Policy fixes the party size and hand size for a room. The engine is
// written against the policy rather than a literal two, so a larger
// party is a configuration change.
type Policy struct {
	MaxParticipants int
	HandSize        int
}

func DefaultPolicy() Policy {
	return Policy{MaxParticipants: 2, HandSize: 10}
}

// RequiredPeers is the remote-roster size at which the deal triggers.
func (p Policy) RequiredPeers() int {
	if p.MaxParticipants < 2 {
		return 1
	}
	return p.MaxParticipants - 1
}
