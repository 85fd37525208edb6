package gateway

import (
	"sync"

	"live-auction/internal/biddingerrors"
	"live-auction/internal/metrics"
	"live-auction/internal/models"
	"live-auction/utils"
)

// Lister provides the full item list sent to new subscribers.
type Lister interface {
	ListAll() []models.AuctionItem
}

// Gateway fans admission outcomes out to connected subscribers.
//
// All queue operations happen under one mutex and never block, so the
// gateway is safe to call from inside the admission critical section. That
// keeps every subscriber's view of an item in acceptance order.
type Gateway struct {
	items      Lister
	bufferSize int
	metrics    metrics.Recorder

	mu          sync.Mutex
	subscribers map[string]*Subscriber
	closed      bool
}

// NewGateway creates a gateway whose subscribers buffer up to bufferSize events.
func NewGateway(items Lister, bufferSize int, recorder metrics.Recorder) *Gateway {
	if bufferSize < 1 {
		bufferSize = 1
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Gateway{
		items:       items,
		bufferSize:  bufferSize,
		metrics:     recorder,
		subscribers: make(map[string]*Subscriber),
	}
}

// Join registers a new subscriber. Its first event is always the
// initial-state snapshot; it receives broadcasts only after that.
func (g *Gateway) Join(kind string) *Subscriber {
	sub := newSubscriber(utils.GenerateID(kind), kind, g.bufferSize)

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		sub.close()
		return sub
	}

	g.deliverLocked(sub, Event{Name: EventInitialState, Data: InitialState{Items: g.items.ListAll()}})
	g.subscribers[sub.id] = sub
	g.metrics.RecordSubscribers(len(g.subscribers))

	utils.Debug("gateway: subscriber joined", map[string]any{
		"subscriber_id": sub.id,
		"kind":          kind,
		"subscribers":   len(g.subscribers),
	})
	return sub
}

// Leave unregisters a subscriber. Unknown ids are ignored.
func (g *Gateway) Leave(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	sub, ok := g.subscribers[id]
	if !ok {
		return
	}
	g.removeLocked(sub)

	utils.Debug("gateway: subscriber left", map[string]any{
		"subscriber_id": id,
		"subscribers":   len(g.subscribers),
	})
}

// NotifyOutcome implements the admission Notifier. An accepted bid is
// broadcast to everyone and acknowledged to its origin; a rejection goes to
// the origin only. origin may be empty or unknown, in which case no ack is sent.
func (g *Gateway) NotifyOutcome(origin string, item models.AuctionItem, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err != nil {
		sub, ok := g.subscribers[origin]
		if !ok {
			return
		}
		itemID := item.ID
		if rejection, ok := biddingerrors.AsRejection(err); ok {
			itemID = rejection.ItemID
		}
		g.deliverLocked(sub, Event{Name: EventBidError, Data: BidError{
			Error:  biddingerrors.UserMessage(err),
			ItemID: itemID,
		}})
		return
	}

	update := Event{Name: EventBidUpdate, Data: item}
	for _, sub := range g.subscribers {
		g.deliverLocked(sub, update)
	}

	if sub, ok := g.subscribers[origin]; ok {
		g.deliverLocked(sub, Event{Name: EventBidSuccess, Data: item})
	}
}

// Count returns the number of registered subscribers.
func (g *Gateway) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.subscribers)
}

// Closed reports whether Close has been called.
func (g *Gateway) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// Close drops every subscriber and refuses new ones.
func (g *Gateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.closed = true
	for _, sub := range g.subscribers {
		g.removeLocked(sub)
	}
}

func (g *Gateway) deliverLocked(sub *Subscriber, ev Event) {
	if sub.enqueue(ev) {
		g.metrics.RecordEventSent(ev.Name)
		return
	}

	// Slow consumer: drop it rather than stall every other subscriber.
	g.removeLocked(sub)
	g.metrics.RecordSubscriberEvicted()
	utils.Warn("gateway: subscriber evicted, outbound queue full", map[string]any{
		"subscriber_id": sub.id,
		"kind":          sub.kind,
		"event":         ev.Name,
		"buffer_size":   g.bufferSize,
	})
}

func (g *Gateway) removeLocked(sub *Subscriber) {
	delete(g.subscribers, sub.id)
	sub.close()
	g.metrics.RecordSubscribers(len(g.subscribers))
}
