package transport

import (
	"encoding/json"
	"sync"
)

// Broker is an in-process pub/sub service. Delivery is synchronous on
// the publisher's goroutine, which keeps tests deterministic, and the
// broker can be told to duplicate deliveries or deliver back to the
// publisher to exercise the at-least-once contract.
type Broker struct {
	mu       sync.Mutex
	channels map[string]map[*memoryChannel]struct{}
	failing  map[string]struct{}

	// DeliverToSelf also delivers published events to the publishing
	// subscriber. DuplicateDelivery invokes every handler twice per
	// event.
	DeliverToSelf     bool
	DuplicateDelivery bool
}

func NewBroker() *Broker {
	return &Broker{
		channels: map[string]map[*memoryChannel]struct{}{},
		failing:  map[string]struct{}{},
	}
}

// FailSubscribe makes every future subscribe to the named channel
// return an error.
func (b *Broker) FailSubscribe(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failing[name] = struct{}{}
}

// Connect returns a new client connection to the broker.
func (b *Broker) Connect() *MemoryConn {
	return &MemoryConn{broker: b, channels: map[string]*memoryChannel{}}
}

type MemoryConn struct {
	broker   *Broker
	mu       sync.Mutex
	channels map[string]*memoryChannel
}

func (c *MemoryConn) Subscribe(name string) (Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch, ok := c.channels[name]; ok {
		return ch, nil
	}

	b := c.broker
	b.mu.Lock()
	if _, fail := b.failing[name]; fail {
		b.mu.Unlock()
		return nil, ErrSubscribeFailed
	}
	ch := &memoryChannel{conn: c, name: name, bindings: map[string][]Handler{}, subscribed: true}
	subs := b.channels[name]
	if subs == nil {
		subs = map[*memoryChannel]struct{}{}
		b.channels[name] = subs
	}
	subs[ch] = struct{}{}
	b.mu.Unlock()

	c.channels[name] = ch
	return ch, nil
}

func (c *MemoryConn) Unsubscribe(name string) {
	c.mu.Lock()
	ch, ok := c.channels[name]
	if ok {
		delete(c.channels, name)
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	b := c.broker
	b.mu.Lock()
	if subs := b.channels[name]; subs != nil {
		delete(subs, ch)
		if len(subs) == 0 {
			delete(b.channels, name)
		}
	}
	b.mu.Unlock()

	ch.mu.Lock()
	ch.subscribed = false
	ch.mu.Unlock()
}

type memoryChannel struct {
	conn       *MemoryConn
	name       string
	mu         sync.Mutex
	bindings   map[string][]Handler
	subscribed bool
}

func (ch *memoryChannel) Name() string { return ch.name }

func (ch *memoryChannel) Bind(event string, h Handler) {
	ch.mu.Lock()
	ch.bindings[event] = append(ch.bindings[event], h)
	fireNow := event == EventSubscriptionSucceeded && ch.subscribed
	ch.mu.Unlock()
	if fireNow {
		h(nil)
	}
}

func (ch *memoryChannel) UnbindAll() {
	ch.mu.Lock()
	ch.bindings = map[string][]Handler{}
	ch.mu.Unlock()
}

func (ch *memoryChannel) Trigger(event string, payload any) error {
	ch.mu.Lock()
	subscribed := ch.subscribed
	ch.mu.Unlock()
	if !subscribed {
		return ErrNotSubscribed
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b := ch.conn.broker
	b.mu.Lock()
	targets := make([]*memoryChannel, 0, len(b.channels[ch.name]))
	for sub := range b.channels[ch.name] {
		if sub == ch && !b.DeliverToSelf {
			continue
		}
		targets = append(targets, sub)
	}
	duplicate := b.DuplicateDelivery
	b.mu.Unlock()

	for _, sub := range targets {
		sub.dispatch(event, raw)
		if duplicate {
			sub.dispatch(event, raw)
		}
	}
	return nil
}

func (ch *memoryChannel) dispatch(event string, payload []byte) {
	ch.mu.Lock()
	handlers := append([]Handler(nil), ch.bindings[event]...)
	ch.mu.Unlock()
	for _, h := range handlers {
		h(payload)
	}
}
