// Package relay is the broadcast pub/sub service the card clients
// talk to: named channels over WebSocket, created on first subscribe,
// with HMAC-credentialed subscriptions and fan-out that never echoes
// back to the publishing socket. The relay keeps no room, roster or
// game state.
package relay

import "encoding/json"

// Frame kinds exchanged between a socket and the relay.
const (
	FrameConnectionEstablished = "connection_established"
	FrameSubscribe             = "subscribe"
	FrameUnsubscribe           = "unsubscribe"
	FramePublish               = "publish"
	FrameEvent                 = "event"
	FrameSubscriptionSucceeded = "subscription_succeeded"
	FrameSubscriptionError     = "subscription_error"
)

// Error codes carried on subscription_error frames.
const (
	CodeAuthRejected = 4009
	CodeBadRequest   = 4400
)

// Frame is the single envelope for every relay message.
type Frame struct {
	Type     string          `json:"type"`
	Channel  string          `json:"channel,omitempty"`
	Event    string          `json:"event,omitempty"`
	Auth     string          `json:"auth,omitempty"`
	SocketID string          `json:"socket_id,omitempty"`
	Code     int             `json:"code,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}
