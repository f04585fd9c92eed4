// Package transport is the thin adapter around the broadcast pub/sub
// service. A Conn owns named channel subscriptions; a Channel binds
// handlers to event names and broadcasts events to the channel's other
// subscribers. Delivery is at-least-once and unordered across event
// names, and delivery back to the publisher is not guaranteed, so every
// bound handler has to be idempotent under redelivery.
package transport

import "errors"

// Events synthesized by the transport itself rather than by peers.
const (
	EventSubscriptionSucceeded = "subscription_succeeded"
	EventSubscriptionError     = "subscription_error"
)

var (
	ErrNotSubscribed   = errors.New("not_subscribed")
	ErrSubscribeFailed = errors.New("subscribe_failed")
	ErrConnClosed      = errors.New("connection_closed")
)

// Handler receives the raw event payload. Handlers on one channel are
// invoked one at a time.
type Handler func(payload []byte)

type Channel interface {
	Name() string
	// Bind registers a handler for an event name. Binding the
	// subscription-succeeded event on a channel whose subscription is
	// already established fires the handler immediately, so a binder
	// that loses the race with the transport still sees the signal.
	Bind(event string, h Handler)
	UnbindAll()
	// Trigger broadcasts an event to the channel's other subscribers.
	Trigger(event string, payload any) error
}

type Conn interface {
	Subscribe(name string) (Channel, error)
	Unsubscribe(name string)
}
