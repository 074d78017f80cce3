/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	coord *Coordinator
	hub   *Hub
}

// Directory holds a set of rooms keyed by room ID, so each room is its own
// isolated session with its own lock.
type Directory struct {
	mu    sync.Mutex
	rooms map[string]*entry
	opts  Options
}

func NewDirectory(opts Options) *Directory {
	return &Directory{
		rooms: make(map[string]*entry),
		opts:  opts.withDefaults(),
	}
}

func (d *Directory) getOrCreate(roomID string) *entry {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.rooms[roomID]; ok {
		return e
	}

	hub := newHub(roomID, d.opts.QueueSize, d.opts.Logf)
	coord := NewCoordinator(roomID, d.opts, hub)
	hub.leave = coord.Leave

	e := &entry{coord: coord, hub: hub}
	d.rooms[roomID] = e
	go hub.run()

	d.opts.Logf("ROOMS: Created room %s", roomID)

	return e
}

// GetOrCreate returns the coordinator for roomID, creating the room on
// first use. Concurrent first calls all get the same room.
func (d *Directory) GetOrCreate(roomID string) *Coordinator {
	return d.getOrCreate(roomID).coord
}

func (d *Directory) Get(roomID string) (*Coordinator, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.rooms[roomID]
	if !ok {
		return nil, false
	}
	return e.coord, true
}

func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.rooms)
}

// NewRoomID returns a fresh room ID that is not in use.
func (d *Directory) NewRoomID() string {
	for {
		id := uuid.NewString()

		d.mu.Lock()
		_, exists := d.rooms[id]
		d.mu.Unlock()

		if !exists {
			return id
		}
	}
}

func (d *Directory) entries() []*entry {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]*entry, 0, len(d.rooms))
	for _, e := range d.rooms {
		out = append(out, e)
	}
	return out
}

// Sweep runs one liveness pass over every room. Each room's hub is locked
// only while its own connections are examined.
func (d *Directory) Sweep() {
	deadline := time.Now().Add(d.opts.PingInterval)
	for _, e := range d.entries() {
		e.hub.sweep(deadline)
	}
}

// Reap removes rooms that have no connections and have been idle since
// before now minus the idle timeout. It does nothing when no timeout is set.
// A connection joining a room as it is reaped lands in a fresh room.
func (d *Directory) Reap(now time.Time) int {
	if d.opts.IdleTimeout <= 0 {
		return 0
	}
	cutoff := now.Add(-d.opts.IdleTimeout)

	d.mu.Lock()
	var stale []*entry
	for id, e := range d.rooms {
		idle := e.hub.retire(func() bool {
			return e.coord.idleSince().Before(cutoff)
		})
		if idle {
			delete(d.rooms, id)
			stale = append(stale, e)
		}
	}
	d.mu.Unlock()

	for _, e := range stale {
		d.opts.Logf("ROOMS: Reaped idle room %s", e.coord.ID())
		e.hub.closeAll()
		e.hub.stop()
	}

	return len(stale)
}

// Run drives the liveness probe and, if configured, the idle reaper until
// ctx is done. All rooms are shut down on return.
func (d *Directory) Run(ctx context.Context) {
	ping := time.NewTicker(d.opts.PingInterval)
	defer ping.Stop()

	var reap <-chan time.Time
	if d.opts.IdleTimeout > 0 {
		t := time.NewTicker(d.opts.IdleTimeout / 2)
		defer t.Stop()
		reap = t.C
	}

	for {
		select {
		case <-ping.C:
			d.Sweep()
		case now := <-reap:
			d.Reap(now)
		case <-ctx.Done():
			d.Close()
			return
		}
	}
}

// Close disconnects every connection and stops every room's dispatcher.
func (d *Directory) Close() {
	for _, e := range d.entries() {
		e.hub.closeAll()
		e.hub.stop()
	}
}

// Serve runs a real-time connection until it closes. route is the room ID
// taken from the request path; a join message may name a different room.
func (d *Directory) Serve(ctx context.Context, socket Socket, route string) {
	c := newClient(socket, route)

	go c.writePump()
	c.readPump(ctx, d)
}
