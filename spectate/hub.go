// Package spectate streams the host's authoritative events to websocket
// viewers and serves a small HTTP API for presentation tools.
package spectate

import (
	"log"
	"sync"

	"arenacore/protocol"
)

const broadcastBuffer = 256

// Hub fans observed messages out to every connected viewer. It implements
// server.Observer; Observe never blocks the tick.
type Hub struct {
	register   chan *viewer
	unregister chan *viewer
	broadcast  chan frame
	stop       chan struct{}
	done       chan struct{}
	once       sync.Once

	mu      sync.RWMutex
	viewers map[*viewer]bool
	latest  []byte // last game_state, replayed to new viewers
}

type frame struct {
	data  []byte
	state bool
}

// NewHub creates a Hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *viewer, 64),
		unregister: make(chan *viewer, 64),
		broadcast:  make(chan frame, broadcastBuffer),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		viewers:    make(map[*viewer]bool),
	}
}

// Observe encodes m as a JSON envelope and queues it for every viewer
func (h *Hub) Observe(m protocol.Message) {
	data, err := protocol.JSON.Encode(m)
	if err != nil {
		log.Printf("spectate: encode %s: %v", m.Kind(), err)
		return
	}
	select {
	case h.broadcast <- frame{data: data, state: m.Kind() == protocol.KindGameState}:
	default:
		// hub is behind, drop rather than stall the tick
	}
}

// Viewers returns the number of connected viewers
func (h *Hub) Viewers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// Run processes register/unregister events and broadcasts until Stop
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case v := <-h.register:
			h.mu.Lock()
			h.viewers[v] = true
			latest := h.latest
			h.mu.Unlock()
			if latest != nil {
				v.queue(latest)
			}
		case v := <-h.unregister:
			h.remove(v)
		case f := <-h.broadcast:
			h.mu.Lock()
			if f.state {
				h.latest = f.data
			}
			for v := range h.viewers {
				if !v.queue(f.data) {
					// too slow, cut it loose
					delete(h.viewers, v)
					close(v.send)
				}
			}
			h.mu.Unlock()
		case <-h.stop:
			h.mu.Lock()
			for v := range h.viewers {
				delete(h.viewers, v)
				close(v.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.viewers[v] {
		delete(h.viewers, v)
		close(v.send)
	}
}

// Stop disconnects every viewer and waits for Run to return
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
