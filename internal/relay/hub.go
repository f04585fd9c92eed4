package relay

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"cardroom/internal/ids"
)

type client struct {
	conn     *websocket.Conn
	send     chan []byte
	socketID string
	channels map[string]struct{}
}

// Hub routes frames between sockets and channels. Channels exist
// exactly as long as they have subscribers; subscribing to a name
// nobody ever used simply creates it.
type Hub struct {
	key      string
	secret   string
	upgrader websocket.Upgrader

	mu       sync.Mutex
	channels map[string]map[*client]struct{}
}

func NewHub(key, secret string) *Hub {
	return &Hub{
		key:      key,
		secret:   secret,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		channels: map[string]map[*client]struct{}{},
	}
}

// AuthHandler issues subscription credentials against this hub's key
// pair.
func (h *Hub) AuthHandler() http.HandlerFunc {
	return AuthHandler(h.key, h.secret)
}

func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{
		conn:     conn,
		send:     make(chan []byte, 16),
		socketID: ids.New(),
		channels: map[string]struct{}{},
	}
	h.enqueue(c, Frame{Type: FrameConnectionEstablished, SocketID: c.socketID})
	log.Debug().Str("socket_id", c.socketID).Msg("socket connected")

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) readLoop(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var f Frame
		if err := json.Unmarshal(msg, &f); err != nil {
			continue
		}
		switch f.Type {
		case FrameSubscribe:
			h.handleSubscribe(c, f)
		case FrameUnsubscribe:
			h.removeSubscription(c, f.Channel)
		case FramePublish:
			h.handlePublish(c, f)
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	for msg := range c.send {
		_ = c.conn.WriteMessage(websocket.TextMessage, msg)
	}
}

func (h *Hub) handleSubscribe(c *client, f Frame) {
	if f.Channel == "" {
		h.enqueue(c, Frame{Type: FrameSubscriptionError, Code: CodeBadRequest})
		return
	}
	if !VerifyCredential(h.key, h.secret, c.socketID, f.Channel, f.Auth) {
		log.Warn().Str("socket_id", c.socketID).Str("channel", f.Channel).Msg("subscribe rejected")
		h.enqueue(c, Frame{Type: FrameSubscriptionError, Channel: f.Channel, Code: CodeAuthRejected})
		return
	}

	h.mu.Lock()
	subs := h.channels[f.Channel]
	if subs == nil {
		subs = map[*client]struct{}{}
		h.channels[f.Channel] = subs
	}
	subs[c] = struct{}{}
	c.channels[f.Channel] = struct{}{}
	h.mu.Unlock()

	log.Info().Str("socket_id", c.socketID).Str("channel", f.Channel).Msg("subscribed")
	h.enqueue(c, Frame{Type: FrameSubscriptionSucceeded, Channel: f.Channel})
}

func (h *Hub) removeSubscription(c *client, channel string) {
	if channel == "" {
		return
	}
	h.mu.Lock()
	if subs := h.channels[channel]; subs != nil {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.channels, channel)
		}
	}
	delete(c.channels, channel)
	h.mu.Unlock()
}

// handlePublish fans an event out to every other subscriber of the
// channel. A publish on a channel the socket is not subscribed to is
// dropped; the client side already reports that to its caller.
func (h *Hub) handlePublish(c *client, f Frame) {
	if f.Channel == "" || f.Event == "" {
		return
	}
	h.mu.Lock()
	if _, ok := c.channels[f.Channel]; !ok {
		h.mu.Unlock()
		log.Debug().Str("socket_id", c.socketID).Str("channel", f.Channel).Msg("publish while unsubscribed")
		return
	}
	targets := make([]*client, 0, len(h.channels[f.Channel]))
	for sub := range h.channels[f.Channel] {
		if sub == c {
			continue
		}
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	out := Frame{Type: FrameEvent, Channel: f.Channel, Event: f.Event, Payload: f.Payload}
	msg, err := json.Marshal(out)
	if err != nil {
		return
	}
	for _, sub := range targets {
		safeSend(sub.send, msg)
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	for channel := range c.channels {
		if subs := h.channels[channel]; subs != nil {
			delete(subs, c)
			if len(subs) == 0 {
				delete(h.channels, channel)
			}
		}
	}
	h.mu.Unlock()
	safeClose(c.send)
	log.Debug().Str("socket_id", c.socketID).Msg("socket disconnected")
}

func (h *Hub) enqueue(c *client, f Frame) {
	msg, err := json.Marshal(f)
	if err != nil {
		return
	}
	safeSend(c.send, msg)
}

func safeSend(ch chan []byte, msg []byte) {
	defer func() {
		_ = recover()
	}()
	ch <- msg
}

func safeClose(ch chan []byte) {
	defer func() {
		_ = recover()
	}()
	close(ch)
}
