package handlers

import (
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/events"
)

// StreamHandler pushes pipeline events to WebSocket clients. Clients may
// narrow the stream with ?run_id= and a comma separated ?types= list.
type StreamHandler struct {
	pipeline Pipeline
	// writeWait bounds each event write; a client that stops reading is
	// dropped once it expires
	writeWait time.Duration
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(p Pipeline) *StreamHandler {
	return &StreamHandler{pipeline: p, writeWait: 10 * time.Second}
}

// Handle serves one WebSocket connection until the client goes away
func (h *StreamHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	runID := c.Query("run_id")
	var filter []events.EventType
	if t := c.Query("types"); t != "" {
		for _, name := range strings.Split(t, ",") {
			if name = strings.TrimSpace(name); name != "" {
				filter = append(filter, events.EventType(name))
			}
		}
	}

	log.Printf("WebSocket connection established (run: %q, types: %v)", runID, filter)

	var once sync.Once
	var broken atomic.Bool
	gone := make(chan struct{})
	closeGone := func() { once.Do(func() { close(gone) }) }

	sub := h.pipeline.Subscribe(func(e events.Event) {
		if broken.Load() || (runID != "" && e.RunID != runID) {
			return
		}
		c.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err := c.WriteJSON(e); err != nil {
			log.Printf("WebSocket write error: %v", err)
			broken.Store(true)
			closeGone()
		}
	}, filter...)
	defer func() {
		sub.Unsubscribe()
		<-sub.Done()
	}()

	// drain control frames; a read error means the client left
	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				closeGone()
				return
			}
		}
	}()

	select {
	case <-gone:
	case <-sub.Done():
	}
	log.Printf("WebSocket connection closed (run: %q)", runID)
}
