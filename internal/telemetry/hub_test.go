package telemetry

import (
	"testing"
	"time"

	"tradercore/internal/risk"
)

func TestPublishSubscribe_DeliversToActiveSubscriber(t *testing.T) {
	hub := NewHub(10)
	ch, history, unsubscribe := hub.Subscribe(ChannelMarketData, false)
	defer unsubscribe()

	if len(history) != 0 {
		t.Fatalf("expected no replay history, got %d", len(history))
	}

	hub.Publish(ChannelMarketData, "tick-1")

	select {
	case e := <-ch:
		if e.Payload != "tick-1" || e.Replay {
			t.Fatalf("unexpected event: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscribe_ReplayDeliversBufferedHistory(t *testing.T) {
	hub := NewHub(3)
	hub.Publish(ChannelTraderStatus, "a")
	hub.Publish(ChannelTraderStatus, "b")
	hub.Publish(ChannelTraderStatus, "c")
	hub.Publish(ChannelTraderStatus, "d") // evicts "a"

	_, history, unsubscribe := hub.Subscribe(ChannelTraderStatus, true)
	defer unsubscribe()

	if len(history) != 3 {
		t.Fatalf("expected 3 replayed events, got %d", len(history))
	}
	want := []string{"b", "c", "d"}
	for i, e := range history {
		if !e.Replay {
			t.Fatalf("event %d not flagged as replay", i)
		}
		if e.Payload != want[i] {
			t.Fatalf("event %d payload = %v, want %v", i, e.Payload, want[i])
		}
	}
}

func TestPublish_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	hub := NewHub(1)
	_, unsubSlow := subscribeNoDrain(hub, ChannelSystemEvent)
	defer unsubSlow()
	fast, _, unsubFast := hub.Subscribe(ChannelSystemEvent, false)
	defer unsubFast()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer+5; i++ {
			hub.Publish(ChannelSystemEvent, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	select {
	case e := <-fast:
		if e.Payload.(int) != 0 {
			t.Fatalf("first event = %v, want 0", e.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("fast subscriber never received an event")
	}
}

func subscribeNoDrain(hub *Hub, channel Channel) (<-chan Event, func()) {
	ch, _, unsubscribe := hub.Subscribe(channel, false)
	return ch, unsubscribe
}

type recordingPositions struct{}

func (recordingPositions) OpenPositions(traderID string) []risk.PositionSnapshot { return nil }

func TestRiskAuditSink_PublishesDecisionToHub(t *testing.T) {
	hub := NewHub(5)
	sink := NewRiskAuditSink(hub)
	mgr := risk.New(risk.DefaultLimits(), recordingPositions{}, sink)

	ch, _, unsubscribe := hub.Subscribe(ChannelTraderStatus, false)
	defer unsubscribe()

	mgr.CanOpenPosition("trader-1", "BTCUSDT", 1000, 2, 5000)

	select {
	case e := <-ch:
		decision, ok := e.Payload.(RiskDecisionEvent)
		if !ok {
			t.Fatalf("unexpected payload type %T", e.Payload)
		}
		if decision.TraderID != "trader-1" || !decision.Allowed {
			t.Fatalf("unexpected decision event: %+v", decision)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for audit event")
	}
}
