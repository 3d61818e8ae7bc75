// Package telemetry fans out runtime events to subscribers over
// per-channel ring buffers, grounded on internal/eventbus/eventbus.go's
// in-memory pub/sub (non-blocking publish, buffered per-subscriber
// channel, slow-subscriber protection) generalized with a replay buffer
// so a subscriber that connects late still sees recent history.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"tradercore/internal/observability"
)

// Channel names the four telemetry streams the runtime publishes onto.
type Channel string

const (
	ChannelTraderStatus   Channel = "trader-status"
	ChannelTraderPosition Channel = "trader-position"
	ChannelMarketData     Channel = "market-data"
	ChannelSystemEvent    Channel = "system-event"
)

// subscriberBuffer bounds how many pending events a slow subscriber can
// queue; once it is full, each further event waits up to publishTimeout
// and is then dropped for it, mirroring eventbus.go's 100-event subscriber buffer.
const subscriberBuffer = 100

// publishTimeout bounds how long a single delivery attempt waits on a
// full subscriber channel before giving up on that subscriber for this
// event, mirroring eventbus.go's 100ms slow-subscriber timeout.
const publishTimeout = 100 * time.Millisecond

// Event is one message delivered on a Channel.
type Event struct {
	Channel   Channel
	ID        string
	Payload   any
	Timestamp time.Time
	Replay    bool
}

type ring struct {
	events []Event
	limit  int
	next   int
	full   bool
}

func newRing(limit int) *ring {
	if limit <= 0 {
		limit = 1
	}
	return &ring{events: make([]Event, limit), limit: limit}
}

func (r *ring) push(e Event) {
	r.events[r.next] = e
	r.next = (r.next + 1) % r.limit
	if r.next == 0 {
		r.full = true
	}
}

// snapshot returns buffered events oldest-first.
func (r *ring) snapshot() []Event {
	if !r.full {
		out := make([]Event, r.next)
		copy(out, r.events[:r.next])
		return out
	}
	out := make([]Event, r.limit)
	copy(out, r.events[r.next:])
	copy(out[r.limit-r.next:], r.events[:r.next])
	return out
}

type subscription struct {
	id Channel
	ch chan Event
}

// Hub is a globally shared fan-out broadcaster. Safe for concurrent use.
type Hub struct {
	log         *observability.Logger
	replayLimit int

	mu          sync.Mutex
	buffers     map[Channel]*ring
	subscribers map[Channel]map[string]chan Event
}

// NewHub constructs a Hub whose per-channel ring buffer holds the last
// replayLimit events.
func NewHub(replayLimit int) *Hub {
	return &Hub{
		log:         observability.New("telemetry"),
		replayLimit: replayLimit,
		buffers:     make(map[Channel]*ring),
		subscribers: make(map[Channel]map[string]chan Event),
	}
}

func (h *Hub) bufferFor(ch Channel) *ring {
	r, ok := h.buffers[ch]
	if !ok {
		r = newRing(h.replayLimit)
		h.buffers[ch] = r
	}
	return r
}

// Publish fans payload out to every subscriber of channel, one subscriber
// after another. For a subscriber whose buffer is full it waits up to
// publishTimeout, then drops the event for that subscriber and logs a warning.
func (h *Hub) Publish(channel Channel, payload any) {
	event := Event{
		Channel:   channel,
		ID:        uuid.NewString(),
		Payload:   payload,
		Timestamp: time.Now(),
	}

	h.mu.Lock()
	h.bufferFor(channel).push(event)
	subs := make([]chan Event, 0, len(h.subscribers[channel]))
	for _, ch := range h.subscribers[channel] {
		subs = append(subs, ch)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub <- event:
		case <-time.After(publishTimeout):
			h.log.Warnf(context.Background(), "subscriber for channel %s is slow, dropping event", channel)
		}
	}
}

// Subscribe returns a channel of future events on channel, an unsubscribe
// func, and — if replay is true — the buffered history as a slice, with
// Replay set to true on each event.
func (h *Hub) Subscribe(channel Channel, replay bool) (<-chan Event, []Event, func()) {
	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.subscribers[channel] == nil {
		h.subscribers[channel] = make(map[string]chan Event)
	}
	h.subscribers[channel][id] = ch

	var history []Event
	if replay {
		for _, e := range h.bufferFor(channel).snapshot() {
			e.Replay = true
			history = append(history, e)
		}
	}
	h.mu.Unlock()

	// unsubscribe removes the channel from the fan-out set but does not
	// close it: Publish may already be mid-send to it from a snapshot
	// taken before this call, and closing here would race a send on a
	// closed channel. The channel is left for the garbage collector once
	// the subscriber stops reading it.
	unsubscribe := func() {
		h.mu.Lock()
		delete(h.subscribers[channel], id)
		h.mu.Unlock()
	}
	return ch, history, unsubscribe
}

// SubscriberCount reports how many active subscriptions exist on channel.
func (h *Hub) SubscriberCount(channel Channel) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[channel])
}
