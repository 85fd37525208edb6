package gateway

import "sync"

// Subscriber is one connected client session. Events are delivered in the
// order they were queued; Done is closed when the gateway drops the
// subscriber, either on Leave, on eviction or on Close.
type Subscriber struct {
	id       string
	kind     string
	outbound chan Event
	done     chan struct{}
	once     sync.Once
}

func newSubscriber(id, kind string, buffer int) *Subscriber {
	return &Subscriber{
		id:       id,
		kind:     kind,
		outbound: make(chan Event, buffer),
		done:     make(chan struct{}),
	}
}

// ID returns the subscriber's identifier, used as the origin of its bids.
func (s *Subscriber) ID() string { return s.id }

// Kind names the transport the subscriber is attached to.
func (s *Subscriber) Kind() string { return s.kind }

// Events is the subscriber's outbound queue.
func (s *Subscriber) Events() <-chan Event { return s.outbound }

// Done is closed once the subscriber is no longer registered.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// enqueue never blocks; it reports false when the queue is full.
// Callers hold the gateway lock.
func (s *Subscriber) enqueue(ev Event) bool {
	select {
	case s.outbound <- ev:
		return true
	default:
		return false
	}
}

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.done) })
}
