/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"
)

var errHubRetired = errors.New("room was reaped")

// Hub tracks the live connections bound to one room and fans room events
// out to them. Events are queued by the Coordinator and delivered by run,
// so a stalled connection never holds up the room lock.
type Hub struct {
	id      string
	mu      sync.Mutex
	clients []*Client

	// seats is held while a participant is seated or unseated so that a
	// departure never races a new connection for the same participant.
	seats   sync.Mutex
	retired bool

	queue chan Event
	quit  chan struct{}
	once  sync.Once

	leave func(participantID string)
	logf  func(format string, args ...any)
}

func newHub(id string, queueSize int, logf func(string, ...any)) *Hub {
	return &Hub{
		id:    id,
		queue: make(chan Event, queueSize),
		quit:  make(chan struct{}),
		leave: func(string) {},
		logf:  logf,
	}
}

// Publish implements Notifier.
func (h *Hub) Publish(ev Event) {
	select {
	case h.queue <- ev:
	default:
		h.logf("ROOMS: Dropped %s event for %s, queue full", ev.Type, h.id)
	}
}

func (h *Hub) run() {
	for {
		select {
		case ev := <-h.queue:
			h.broadcast(ev)
		case <-h.quit:
			return
		}
	}
}

func (h *Hub) stop() {
	h.once.Do(func() {
		close(h.quit)
	})
}

// broadcast serializes ev once and offers it to every bound connection.
// Connections that are closed or backed up are skipped; reaping them is
// left to sweep and the read pumps.
func (h *Hub) broadcast(ev Event) int {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logf("ERROR: Encoding %s event for %s: %v", ev.Type, h.id, err)
		return 0
	}

	h.mu.Lock()
	targets := slices.Clone(h.clients)
	h.mu.Unlock()

	sent := 0
	for _, c := range targets {
		if c.trySend(data) {
			sent++
		}
	}

	return sent
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients = append(h.clients, c)
}

// remove unregisters c, reporting whether it was still registered.
func (h *Hub) remove(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := slices.Index(h.clients, c)
	if i < 0 {
		return false
	}
	h.clients = slices.Delete(h.clients, i, i+1)

	return true
}

// seat runs admit and registers c as one atomic step with respect to
// departures and reaping. c must be bound by admit.
func (h *Hub) seat(c *Client, admit func() error) error {
	h.seats.Lock()
	defer h.seats.Unlock()

	if h.retired {
		return errHubRetired
	}
	if err := admit(); err != nil {
		return err
	}
	h.add(c)

	return nil
}

// departed removes c's participant from the room unless another live
// connection is still bound to the same participant.
func (h *Hub) departed(c *Client) {
	pid := c.participant()

	h.seats.Lock()
	defer h.seats.Unlock()

	h.mu.Lock()
	still := slices.ContainsFunc(h.clients, func(o *Client) bool {
		return o.participant() == pid
	})
	h.mu.Unlock()

	if !still {
		h.leave(pid)
	}
}

// Len returns the number of bound connections.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// sweep runs one liveness pass. Connections that never answered the
// previous probe are closed and treated as a graceful leave; the rest are
// marked and probed again.
func (h *Hub) sweep(deadline time.Time) (probed, reaped int) {
	h.mu.Lock()
	var dead, alive []*Client
	for _, c := range h.clients {
		if c.pending.Load() {
			dead = append(dead, c)
			continue
		}
		c.pending.Store(true)
		alive = append(alive, c)
	}
	h.clients = alive
	h.mu.Unlock()

	for _, c := range alive {
		c.ping(deadline)
	}

	for _, c := range dead {
		h.logf("ROOMS: Reaping unresponsive connection for %q in %s", c.participant(), h.id)
		c.close()
		h.departed(c)
	}

	return len(alive), len(dead)
}

// retire marks an empty hub as finished if stale reports it should go.
// A retired hub seats no one.
func (h *Hub) retire(stale func() bool) bool {
	h.seats.Lock()
	defer h.seats.Unlock()

	if h.Len() > 0 || !stale() {
		return false
	}
	h.retired = true

	return true
}

// closeAll disconnects every connection without removing participants.
func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = nil
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}
