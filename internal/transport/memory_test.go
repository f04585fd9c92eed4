package transport

import (
	"encoding/json"
	"testing"
)

func TestBrokerFanOutSkipsSender(t *testing.T) {
	b := NewBroker()
	c1, _ := b.Connect().Subscribe("room-100000")
	c2, _ := b.Connect().Subscribe("room-100000")

	var got1, got2 int
	c1.Bind("play", func([]byte) { got1++ })
	c2.Bind("play", func([]byte) { got2++ })

	if err := c1.Trigger("play", map[string]string{"x": "y"}); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if got1 != 0 {
		t.Fatalf("sender received its own event %d times", got1)
	}
	if got2 != 1 {
		t.Fatalf("subscriber deliveries = %d, want 1", got2)
	}
}

func TestBrokerDeliverToSelfAndDuplicates(t *testing.T) {
	b := NewBroker()
	b.DeliverToSelf = true
	b.DuplicateDelivery = true
	c1, _ := b.Connect().Subscribe("room-100000")

	var got int
	c1.Bind("play", func([]byte) { got++ })
	if err := c1.Trigger("play", 1); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if got != 2 {
		t.Fatalf("deliveries = %d, want 2", got)
	}
}

func TestBrokerPayloadIsJSON(t *testing.T) {
	b := NewBroker()
	conn := b.Connect()
	c1, _ := conn.Subscribe("room-1")
	c2, _ := b.Connect().Subscribe("room-1")

	var raw []byte
	c2.Bind("announce", func(p []byte) { raw = p })
	_ = c1.Trigger("announce", map[string]any{"id": "p-1"})

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if decoded["id"] != "p-1" {
		t.Fatalf("payload = %v", decoded)
	}
}

func TestBrokerSubscriptionSucceededFiresOnLateBind(t *testing.T) {
	b := NewBroker()
	ch, err := b.Connect().Subscribe("room-1")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	fired := false
	ch.Bind(EventSubscriptionSucceeded, func([]byte) { fired = true })
	if !fired {
		t.Fatal("late bind of subscription_succeeded did not fire")
	}
}

func TestBrokerUnsubscribeStopsDeliveryAndTrigger(t *testing.T) {
	b := NewBroker()
	conn := b.Connect()
	ch, _ := conn.Subscribe("room-1")
	peer, _ := b.Connect().Subscribe("room-1")

	var got int
	ch.Bind("play", func([]byte) { got++ })
	conn.Unsubscribe("room-1")

	_ = peer.Trigger("play", 1)
	if got != 0 {
		t.Fatalf("unsubscribed channel still received %d events", got)
	}
	if err := ch.Trigger("play", 1); err != ErrNotSubscribed {
		t.Fatalf("Trigger() error = %v, want ErrNotSubscribed", err)
	}
}

func TestBrokerFailSubscribe(t *testing.T) {
	b := NewBroker()
	b.FailSubscribe("room-9")
	if _, err := b.Connect().Subscribe("room-9"); err != ErrSubscribeFailed {
		t.Fatalf("Subscribe() error = %v, want ErrSubscribeFailed", err)
	}
}

func TestBrokerUnbindAllStopsHandlers(t *testing.T) {
	b := NewBroker()
	ch, _ := b.Connect().Subscribe("room-1")
	peer, _ := b.Connect().Subscribe("room-1")

	var got int
	ch.Bind("play", func([]byte) { got++ })
	ch.UnbindAll()
	_ = peer.Trigger("play", 1)
	if got != 0 {
		t.Fatalf("unbound handler fired %d times", got)
	}
}
