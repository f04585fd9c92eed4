package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"cardroom/internal/relay"
)

// Authorize returns the credential that lets this socket subscribe to
// the named channel. The default implementation asks the channel-auth
// endpoint; tests sign locally.
type Authorize func(socketID, channel string) (string, error)

// WSConn is a client connection to the relay. One read loop dispatches
// every inbound event, so handlers run one at a time.
type WSConn struct {
	conn      *websocket.Conn
	authorize Authorize
	socketID  string

	writeMu sync.Mutex

	mu       sync.Mutex
	channels map[string]*wsChannel
	closed   bool
}

// DialWS connects to the relay and waits for the socket id before
// returning, so the authorizer can sign subscribe requests
// immediately.
func DialWS(ctx context.Context, url string, authorize Authorize) (*WSConn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("relay handshake: %w", err)
	}
	var f relay.Frame
	if err := json.Unmarshal(msg, &f); err != nil || f.Type != relay.FrameConnectionEstablished || f.SocketID == "" {
		_ = conn.Close()
		return nil, fmt.Errorf("relay handshake: unexpected frame %q", f.Type)
	}

	c := &WSConn{
		conn:      conn,
		authorize: authorize,
		socketID:  f.SocketID,
		channels:  map[string]*wsChannel{},
	}
	go c.readLoop()
	return c, nil
}

func (c *WSConn) SocketID() string { return c.socketID }

func (c *WSConn) Subscribe(name string) (Channel, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrConnClosed
	}
	if ch, ok := c.channels[name]; ok {
		c.mu.Unlock()
		return ch, nil
	}
	c.mu.Unlock()

	credential, err := c.authorize(c.socketID, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubscribeFailed, err)
	}

	ch := &wsChannel{conn: c, name: name, bindings: map[string][]Handler{}}
	c.mu.Lock()
	if existing, ok := c.channels[name]; ok {
		c.mu.Unlock()
		return existing, nil
	}
	c.channels[name] = ch
	c.mu.Unlock()

	if err := c.writeFrame(relay.Frame{Type: relay.FrameSubscribe, Channel: name, Auth: credential}); err != nil {
		c.mu.Lock()
		delete(c.channels, name)
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrSubscribeFailed, err)
	}
	return ch, nil
}

func (c *WSConn) Unsubscribe(name string) {
	c.mu.Lock()
	ch, ok := c.channels[name]
	if ok {
		delete(c.channels, name)
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	ch.mu.Lock()
	ch.detached = true
	ch.mu.Unlock()
	_ = c.writeFrame(relay.Frame{Type: relay.FrameUnsubscribe, Channel: name})
}

func (c *WSConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

func (c *WSConn) writeFrame(f relay.Frame) error {
	msg, err := json.Marshal(f)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

func (c *WSConn) readLoop() {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.closed = true
			c.mu.Unlock()
			return
		}
		var f relay.Frame
		if err := json.Unmarshal(msg, &f); err != nil {
			continue
		}
		c.mu.Lock()
		ch := c.channels[f.Channel]
		c.mu.Unlock()
		if ch == nil {
			continue
		}
		switch f.Type {
		case relay.FrameSubscriptionSucceeded:
			ch.markSubscribed()
			ch.dispatch(EventSubscriptionSucceeded, nil)
		case relay.FrameSubscriptionError:
			log.Warn().Str("channel", f.Channel).Int("code", f.Code).Msg("subscription rejected")
			ch.dispatch(EventSubscriptionError, f.Payload)
		case relay.FrameEvent:
			ch.dispatch(f.Event, f.Payload)
		}
	}
}

type wsChannel struct {
	conn *WSConn
	name string

	mu         sync.Mutex
	bindings   map[string][]Handler
	subscribed bool
	detached   bool
}

func (ch *wsChannel) Name() string { return ch.name }

func (ch *wsChannel) Bind(event string, h Handler) {
	ch.mu.Lock()
	ch.bindings[event] = append(ch.bindings[event], h)
	fireNow := event == EventSubscriptionSucceeded && ch.subscribed
	ch.mu.Unlock()
	if fireNow {
		h(nil)
	}
}

func (ch *wsChannel) UnbindAll() {
	ch.mu.Lock()
	ch.bindings = map[string][]Handler{}
	ch.mu.Unlock()
}

func (ch *wsChannel) Trigger(event string, payload any) error {
	ch.mu.Lock()
	detached := ch.detached
	ch.mu.Unlock()
	if detached {
		return ErrNotSubscribed
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return ch.conn.writeFrame(relay.Frame{
		Type:    relay.FramePublish,
		Channel: ch.name,
		Event:   event,
		Payload: raw,
	})
}

func (ch *wsChannel) markSubscribed() {
	ch.mu.Lock()
	ch.subscribed = true
	ch.mu.Unlock()
}

func (ch *wsChannel) dispatch(event string, payload []byte) {
	ch.mu.Lock()
	handlers := append([]Handler(nil), ch.bindings[event]...)
	ch.mu.Unlock()
	for _, h := range handlers {
		h(payload)
	}
}
