package events

import (
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/queue"
)

// Handler receives events. It runs on the subscriber's own goroutine.
type Handler func(Event)

// Bus is an in-process publish/subscribe channel. Publish never blocks on
// subscribers: every subscription buffers events in an unbounded FIFO that a
// dedicated goroutine drains, so each subscriber sees events in publish order.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	seq    atomic.Uint64
	closed bool
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]*Subscription)}
}

// Subscription is the handle returned by Subscribe
type Subscription struct {
	id      uint64
	bus     *Bus
	handler Handler
	filter  map[EventType]bool

	mu      sync.Mutex
	cond    *sync.Cond
	pending *queue.Queue[Event]
	closed  bool
	done    chan struct{}
}

// Subscribe registers handler for the given event types, or for every event
// when no types are given.
func (b *Bus) Subscribe(handler Handler, types ...EventType) *Subscription {
	s := &Subscription{
		bus:     b,
		handler: handler,
		pending: queue.New[Event](),
		done:    make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	if len(types) > 0 {
		s.filter = make(map[EventType]bool, len(types))
		for _, t := range types {
			s.filter[t] = true
		}
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		s.closed = true
		close(s.done)
		return s
	}
	b.nextID++
	s.id = b.nextID
	b.subs[s.id] = s
	b.mu.Unlock()

	go s.loop()
	return s
}

// Publish stamps the event and queues it for every matching subscriber.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	e.Seq = b.seq.Add(1)
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	for _, s := range b.subs {
		s.push(e)
	}
}

// Subscribers returns the number of live subscriptions
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close stops every subscription after it drains what is already queued.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*Subscription, 0, len(b.subs))
	for id, s := range b.subs {
		subs = append(subs, s)
		delete(b.subs, id)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.stop(false)
		<-s.done
	}
}

// Unsubscribe detaches the subscription. Events not yet delivered are dropped.
// It is safe to call more than once and from within the handler.
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	delete(s.bus.subs, s.id)
	s.bus.mu.Unlock()
	s.stop(true)
}

// Done is closed once the subscription's goroutine has exited
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) push(e Event) {
	if s.filter != nil && !s.filter[e.Type] {
		return
	}
	s.mu.Lock()
	if !s.closed {
		s.pending.Enqueue(e)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *Subscription) stop(discard bool) {
	s.mu.Lock()
	s.closed = true
	if discard {
		s.pending.Clear()
	}
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *Subscription) loop() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for s.pending.IsEmpty() && !s.closed {
			s.cond.Wait()
		}
		e, ok := s.pending.Dequeue()
		s.mu.Unlock()
		if !ok {
			return
		}
		s.deliver(e)
	}
}

func (s *Subscription) deliver(e Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Event handler panic on %s (run %s): %v\n%s", e.Type, e.RunID, r, string(debug.Stack()))
		}
	}()
	s.handler(e)
}
