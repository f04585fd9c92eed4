// Package session implements the peer session synchronization engine:
// room lifecycle, the join handshake that lets two independently
// connecting clients discover each other exactly once, one-shot
// dealing, and the table log. All cross-client behavior assumes an
// at-least-once, unordered, duplicating broadcast channel.
package session

import (
	"fmt"
	"math/rand"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cardroom/internal/deck"
	"cardroom/internal/protocol"
	"cardroom/internal/transport"
)

// State is the session lifecycle state. Exactly one Active session
// exists per client at a time.
type State int

const (
	StateIdle State = iota
	StateCreating
	StateJoining
	StateActive
	StateLeaving
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCreating:
		return "creating"
	case StateJoining:
		return "joining"
	case StateActive:
		return "active"
	case StateLeaving:
		return "leaving"
	default:
		return "unknown"
	}
}

const channelPrefix = "room-"

var roomIDPattern = regexp.MustCompile(`^[0-9]{6}$`)

// Manager owns one client's session state and orchestrates the
// handshake, deal and play flows over a channel binding. Event
// handlers re-read state under the manager lock at every invocation;
// the only thing a handler captures is an immutable epoch token, used
// to turn deliveries that race with leave/rejoin into no-ops.
type Manager struct {
	mu       sync.Mutex
	conn     transport.Conn
	policy   Policy
	self     Player
	state    State
	roomID   string
	channel  transport.Channel
	registry *Registry
	hand     []deck.Card
	table    *TableLog
	dealt    bool
	epoch    uint64

	dealDelay time.Duration
	rng       *rand.Rand
	now       func() time.Time
	log       zerolog.Logger
}

type Option func(*Manager)

// WithDealDelay staggers the deal after the roster edge. Zero runs
// the deal inline, which tests rely on.
func WithDealDelay(d time.Duration) Option {
	return func(m *Manager) { m.dealDelay = d }
}

func WithPolicy(p Policy) Option {
	return func(m *Manager) { m.policy = p }
}

func WithRand(r *rand.Rand) Option {
	return func(m *Manager) { m.rng = r }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(conn transport.Conn, self Player, opts ...Option) *Manager {
	m := &Manager{
		conn:      conn,
		policy:    DefaultPolicy(),
		self:      self,
		registry:  NewRegistry(self),
		table:     NewTableLog(),
		dealDelay: 100 * time.Millisecond,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
		log:       log.With().Str("player_id", self.ID).Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Self() Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.self
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) RoomID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roomID
}

func (m *Manager) Hand() []deck.Card {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]deck.Card(nil), m.hand...)
}

func (m *Manager) Peers() []Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.Peers()
}

func (m *Manager) Table() []TableEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.table.Entries()
}

// CreateRoom generates a room id, subscribes to its channel and
// transitions to Active. Calling it while already Active returns the
// existing room id without re-subscribing.
func (m *Manager) CreateRoom() (string, error) {
	m.mu.Lock()
	if m.state == StateActive {
		roomID := m.roomID
		m.mu.Unlock()
		return roomID, nil
	}
	if m.state != StateIdle {
		m.mu.Unlock()
		return "", ErrBusy
	}
	roomID := fmt.Sprintf("%06d", 100000+m.rng.Intn(900000))
	m.state = StateCreating
	m.epoch++
	epoch := m.epoch
	m.roomID = roomID
	m.mu.Unlock()

	if err := m.openRoom(roomID, epoch); err != nil {
		m.rollback(epoch)
		return "", err
	}
	m.activate(epoch)
	m.log.Info().Str("room_id", roomID).Msg("room created")
	return roomID, nil
}

// JoinRoom subscribes to an existing room by id. Joining the room the
// session is already Active in is a no-op; joining a different room
// leaves the old one first. On subscription failure the state rolls
// back to Idle and the error is returned.
func (m *Manager) JoinRoom(roomID string) error {
	if !roomIDPattern.MatchString(roomID) {
		return ErrInvalidRoomID
	}
	m.mu.Lock()
	if m.state == StateActive && m.roomID == roomID {
		m.mu.Unlock()
		return nil
	}
	if m.state == StateActive {
		m.state = StateLeaving
		m.teardownLocked()
	}
	if m.state != StateIdle {
		m.mu.Unlock()
		return ErrBusy
	}
	m.state = StateJoining
	m.epoch++
	epoch := m.epoch
	m.roomID = roomID
	m.mu.Unlock()

	if err := m.openRoom(roomID, epoch); err != nil {
		m.rollback(epoch)
		return err
	}
	m.activate(epoch)
	m.log.Info().Str("room_id", roomID).Msg("room joined")
	return nil
}

// LeaveRoom is a no-op unless Active. It unbinds before it
// unsubscribes and is safe to call repeatedly and on shutdown paths.
func (m *Manager) LeaveRoom() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateActive {
		return
	}
	roomID := m.roomID
	m.state = StateLeaving
	m.teardownLocked()
	m.log.Info().Str("room_id", roomID).Msg("room left")
}

// PlayCard removes the card from the local hand and broadcasts the
// play. Not being Active, or not holding the card, is a silent no-op;
// that also makes a repeated play of the same card a no-op.
func (m *Manager) PlayCard(card deck.Card) error {
	m.mu.Lock()
	if m.state != StateActive {
		m.mu.Unlock()
		return nil
	}
	idx := -1
	for i, c := range m.hand {
		if c.ID == card.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return nil
	}
	played := m.hand[idx]
	m.hand = append(m.hand[:idx], m.hand[idx+1:]...)
	ch := m.channel
	payload := protocol.Play{PlayerID: m.self.ID, Card: played}
	m.mu.Unlock()

	if err := ch.Trigger(protocol.EventPlay, payload); err != nil {
		return fmt.Errorf("broadcast play: %w", err)
	}
	return nil
}

// openRoom subscribes and wires handlers. Runs without the lock held:
// events may start arriving before it returns, which is safe because
// every handler re-checks freshness first.
func (m *Manager) openRoom(roomID string, epoch uint64) error {
	ch, err := m.conn.Subscribe(channelPrefix + roomID)
	if err != nil {
		return fmt.Errorf("subscribe %s%s: %w", channelPrefix, roomID, err)
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.conn.Unsubscribe(channelPrefix + roomID)
		return ErrBusy
	}
	m.channel = ch
	m.self.JoinedAt = m.now().UnixMilli()
	m.registry = NewRegistry(m.self)
	m.hand = nil
	m.table.Reset()
	m.dealt = false
	m.mu.Unlock()

	ch.Bind(protocol.EventAnnounce, func(p []byte) { m.handleAnnounce(epoch, p) })
	ch.Bind(protocol.EventDeal, func(p []byte) { m.handleDeal(epoch, p) })
	ch.Bind(protocol.EventPlay, func(p []byte) { m.handlePlay(epoch, p) })
	ch.Bind(transport.EventSubscriptionError, func(p []byte) { m.handleSubscriptionError(epoch) })
	ch.Bind(transport.EventSubscriptionSucceeded, func(p []byte) { m.handleSubscribed(epoch) })
	return nil
}

func (m *Manager) activate(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch == epoch && (m.state == StateCreating || m.state == StateJoining) {
		m.state = StateActive
	}
}

func (m *Manager) rollback(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch == epoch {
		m.teardownLocked()
	}
}

// teardownLocked clears all room state and returns to Idle. Unbinding
// precedes unsubscribing so no handler fires for an in-flight
// delivery; the epoch bump makes any already-dispatched handler a
// no-op.
func (m *Manager) teardownLocked() {
	if m.channel != nil {
		m.channel.UnbindAll()
		m.conn.Unsubscribe(m.channel.Name())
		m.channel = nil
	}
	m.roomID = ""
	m.registry.Reset()
	m.hand = nil
	m.table.Reset()
	m.dealt = false
	m.state = StateIdle
	m.epoch++
}

func (m *Manager) freshLocked(epoch uint64) bool {
	return m.epoch == epoch
}

func (m *Manager) announceLocked() protocol.Announce {
	return protocol.Announce{ID: m.self.ID, Name: m.self.Name, JoinedAt: m.self.JoinedAt}
}

// handleSubscribed announces the local participant once the subscribe
// completes. Redundant announcements are harmless: receivers dedupe
// by id.
func (m *Manager) handleSubscribed(epoch uint64) {
	m.mu.Lock()
	if !m.freshLocked(epoch) {
		m.mu.Unlock()
		return
	}
	ch := m.channel
	ann := m.announceLocked()
	m.mu.Unlock()

	if err := ch.Trigger(protocol.EventAnnounce, ann); err != nil {
		m.log.Warn().Err(err).Msg("announce failed")
	}
}

func (m *Manager) handleSubscriptionError(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.freshLocked(epoch) {
		return
	}
	m.log.Warn().Str("room_id", m.roomID).Msg("subscription error, leaving room")
	m.teardownLocked()
}

// handleAnnounce is the heart of the join handshake. Guards, in
// order: freshness, self-echo, id-dedupe. A newly recorded peer earns
// one reply announcement so a participant that announced before our
// subscribe completed still learns about us. The deal is scheduled at
// the roster edge inside the same locked update that records the
// peer, so redelivery can never schedule it twice.
func (m *Manager) handleAnnounce(epoch uint64, payload []byte) {
	ann, err := protocol.ParseAnnounce(payload)
	if err != nil {
		m.log.Debug().Msg("dropping malformed announce")
		return
	}

	m.mu.Lock()
	if !m.freshLocked(epoch) {
		m.mu.Unlock()
		return
	}
	if ann.ID == m.self.ID {
		m.mu.Unlock()
		return
	}
	added, count := m.registry.Add(Player{ID: ann.ID, Name: ann.Name, JoinedAt: ann.JoinedAt})
	if !added {
		m.mu.Unlock()
		return
	}
	ch := m.channel
	reply := m.announceLocked()
	dealNow := false
	if count == m.policy.RequiredPeers() && !m.dealt {
		m.dealt = true
		if m.dealDelay > 0 {
			time.AfterFunc(m.dealDelay, func() { m.runDeal(epoch) })
		} else {
			dealNow = true
		}
	}
	m.mu.Unlock()

	m.log.Info().Str("peer_id", ann.ID).Int("peers", count).Msg("peer joined")
	if err := ch.Trigger(protocol.EventAnnounce, reply); err != nil {
		m.log.Warn().Err(err).Msg("reply announce failed")
	}
	if dealNow {
		m.runDeal(epoch)
	}
}

// runDeal performs the one-shot deal if the local participant is the
// elected dealer; everyone else waits for the deal event. The dealer
// keeps the first hand and routes one hand per peer, addressed by id.
// With the default policy that consumes 20 of 54 cards; the rest are
// discarded with the deck, a fixed design parameter.
func (m *Manager) runDeal(epoch uint64) {
	m.mu.Lock()
	if !m.freshLocked(epoch) {
		m.mu.Unlock()
		return
	}
	dealer := m.registry.Dealer()
	if dealer.ID != m.self.ID {
		m.mu.Unlock()
		m.log.Debug().Str("dealer_id", dealer.ID).Msg("awaiting deal from elected dealer")
		return
	}
	cards := deck.GenerateWithRand(m.rng)
	n := m.policy.HandSize
	m.hand = append([]deck.Card(nil), cards[:n]...)
	peers := m.registry.Peers()
	if len(peers) > m.policy.RequiredPeers() {
		peers = peers[:m.policy.RequiredPeers()]
	}
	deals := make([]protocol.Deal, 0, len(peers))
	for i, p := range peers {
		lo := n * (i + 1)
		deals = append(deals, protocol.Deal{
			TargetPlayerID: p.ID,
			Cards:          append([]deck.Card(nil), cards[lo:lo+n]...),
		})
	}
	ch := m.channel
	m.mu.Unlock()

	for _, d := range deals {
		if err := ch.Trigger(protocol.EventDeal, d); err != nil {
			m.log.Warn().Err(err).Str("target_id", d.TargetPlayerID).Msg("deal broadcast failed")
		}
	}
	m.log.Info().Int("hand_size", n).Int("hands", len(deals)+1).Msg("dealt")
}

// handleDeal accepts a hand addressed to the local participant.
// Redelivery overwrites the hand with the same cards.
func (m *Manager) handleDeal(epoch uint64, payload []byte) {
	deal, err := protocol.ParseDeal(payload)
	if err != nil {
		m.log.Debug().Msg("dropping malformed deal")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.freshLocked(epoch) {
		return
	}
	if deal.TargetPlayerID != m.self.ID {
		return
	}
	m.hand = append([]deck.Card(nil), deal.Cards...)
	m.log.Info().Int("hand_size", len(m.hand)).Msg("hand received")
}

func (m *Manager) handlePlay(epoch uint64, payload []byte) {
	play, err := protocol.ParsePlay(payload)
	if err != nil {
		m.log.Debug().Msg("dropping malformed play")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.freshLocked(epoch) {
		return
	}
	if m.table.Append(TableEntry{PlayerID: play.PlayerID, Card: play.Card}) {
		m.log.Info().Str("by", play.PlayerID).Str("card", play.Card.ID).Msg("card played")
	}
}
