package events

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) handle(e Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *collector) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *collector) waitFor(t *testing.T, n int) []Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := c.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("received %d events, want %d", len(c.snapshot()), n)
	return nil
}

func TestBusDeliversInPublishOrder(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var c collector
	bus.Subscribe(c.handle)

	for i := 0; i < 100; i++ {
		bus.Publish(New(StateChanged, "run", map[string]any{"i": i}))
	}

	got := c.waitFor(t, 100)
	for i, e := range got {
		if e.Data["i"] != i {
			t.Fatalf("event %d carries %v", i, e.Data["i"])
		}
		if i > 0 && e.Seq <= got[i-1].Seq {
			t.Fatalf("sequence not increasing at %d", i)
		}
		if e.Time.IsZero() {
			t.Fatal("publish should stamp time")
		}
	}
}

func TestBusFilter(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var c collector
	bus.Subscribe(c.handle, RunCompleted, RunFailed)

	bus.Publish(New(StateChanged, "r", nil))
	bus.Publish(New(RunFailed, "r", nil))
	bus.Publish(New(QAStarted, "r", nil))
	bus.Publish(New(RunCompleted, "r", nil))

	got := c.waitFor(t, 2)
	if got[0].Type != RunFailed || got[1].Type != RunCompleted {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestSlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	release := make(chan struct{})
	bus.Subscribe(func(Event) { <-release })

	var fast collector
	bus.Subscribe(fast.handle)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			bus.Publish(New(StateChanged, "r", nil))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	fast.waitFor(t, 50)
	close(release)
}

func TestHandlerPanicIsContained(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var c collector
	bus.Subscribe(func(e Event) {
		if e.Type == RunFailed {
			panic("handler bug")
		}
		c.handle(e)
	})

	bus.Publish(New(RunFailed, "r", nil))
	bus.Publish(New(RunCompleted, "r", nil))

	got := c.waitFor(t, 1)
	if got[0].Type != RunCompleted {
		t.Fatalf("got %v", got[0].Type)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var c collector
	sub := bus.Subscribe(c.handle)
	bus.Publish(New(StateChanged, "r", nil))
	c.waitFor(t, 1)

	sub.Unsubscribe()
	sub.Unsubscribe()
	<-sub.Done()

	bus.Publish(New(StateChanged, "r", nil))
	time.Sleep(20 * time.Millisecond)
	if n := len(c.snapshot()); n != 1 {
		t.Fatalf("received %d events after unsubscribe, want 1", n)
	}
	if bus.Subscribers() != 0 {
		t.Fatalf("subscribers = %d", bus.Subscribers())
	}
}

func TestConcurrentPublishers(t *testing.T) {
	bus := NewBus()

	var c collector
	bus.Subscribe(c.handle)

	var wg sync.WaitGroup
	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				bus.Publish(New(StateChanged, fmt.Sprintf("run-%d", r), map[string]any{"i": i}))
			}
		}(r)
	}
	wg.Wait()
	bus.Close()

	got := c.snapshot()
	if len(got) != 200 {
		t.Fatalf("received %d events, want 200", len(got))
	}
	last := make(map[string]int)
	for _, e := range got {
		i := e.Data["i"].(int)
		if prev, ok := last[e.RunID]; ok && i <= prev {
			t.Fatalf("run %s out of order: %d after %d", e.RunID, i, prev)
		}
		last[e.RunID] = i
	}
}
