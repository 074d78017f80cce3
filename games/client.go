/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendBuffer     = 16
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// Socket is the part of *websocket.Conn a Client uses.
type Socket interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	SetReadLimit(limit int64)
	Close() error
}

// Client is one real-time connection. It belongs to no room until it sends
// a join message, and the room and participant it binds to never change.
type Client struct {
	socket Socket
	send   chan []byte
	done   chan struct{}
	once   sync.Once

	// set by sweep, cleared by any reply from the peer
	pending atomic.Bool

	mu            sync.Mutex
	route         string
	roomID        string
	participantID string
}

func newClient(socket Socket, route string) *Client {
	return &Client{
		socket: socket,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		route:  route,
	}
}

func (c *Client) bind(roomID, participantID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.participantID != "" {
		return false
	}
	c.roomID = roomID
	c.participantID = participantID

	return true
}

func (c *Client) identity() (roomID, participantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.roomID, c.participantID
}

func (c *Client) participant() string {
	_, pid := c.identity()
	return pid
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.socket.Close()
	})
}

// trySend queues data without blocking. It reports false if the
// connection is closed or its buffer is full.
func (c *Client) trySend(data []byte) bool {
	if c.closed() {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) reply(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	c.trySend(data)
}

func (c *Client) ping(deadline time.Time) {
	if c.closed() {
		return
	}
	_ = c.socket.WriteControl(websocket.PingMessage, nil, deadline)
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for {
		select {
		case data := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) readPump(ctx context.Context, d *Directory) {
	var hub *Hub

	defer func() {
		c.close()
		if hub != nil && hub.remove(c) {
			hub.departed(c)
		}
	}()

	c.socket.SetReadLimit(maxMessageSize)
	c.socket.SetPongHandler(func(string) error {
		c.pending.Store(false)
		return nil
	})

	for {
		_, data, err := c.socket.ReadMessage()
		if err != nil {
			return
		}
		c.pending.Store(false)

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(errorEvent(ErrBadMessage))
			continue
		}

		h, err := c.dispatch(ctx, d, msg)
		if h != nil {
			hub = h
		}
		if err != nil {
			c.reply(errorEvent(err))
		}
	}
}

// dispatch applies one socket action. Failures are returned so they can be
// reported to this connection only.
func (c *Client) dispatch(ctx context.Context, d *Directory, msg ClientMessage) (hub *Hub, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.opts.Logf("ERROR: Recovered from panic handling %q: %v", msg.Type, r)
			hub, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	if msg.Type == "join" {
		return c.join(d, msg)
	}

	roomID, pid := c.identity()
	if pid == "" {
		return nil, ErrNotBound
	}

	room, ok := d.Get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}

	switch msg.Type {
	case "start":
		_, err = room.Start()
	case "next":
		_, err = room.AdvanceRound(ctx, pid)
	case "vote":
		err = room.CastVote(pid, msg.TargetID)
	case "guess":
		_, err = room.GuessSecret(pid, msg.Word)
	default:
		err = ErrBadMessage
	}

	return nil, err
}

func (c *Client) join(d *Directory, msg ClientMessage) (*Hub, error) {
	if c.participant() != "" {
		return nil, ErrAlreadyBound
	}

	roomID := msg.RoomID
	if roomID == "" {
		roomID = c.route
	}
	if roomID == "" {
		return nil, missing("room_id")
	}
	if msg.ParticipantID == "" {
		return nil, missing("participant_id")
	}

	for {
		e := d.getOrCreate(roomID)

		err := e.hub.seat(c, func() error {
			if msg.DisplayName != "" {
				if _, err := e.coord.Join(msg.ParticipantID, msg.DisplayName); err != nil {
					return err
				}
			} else if !e.coord.Has(msg.ParticipantID) {
				return missing("display_name")
			}

			if !c.bind(roomID, msg.ParticipantID) {
				return ErrAlreadyBound
			}
			return nil
		})
		if errors.Is(err, errHubRetired) {
			continue
		}
		if err != nil {
			return nil, err
		}

		c.reply(Event{Type: EventSnapshot, Snapshot: e.coord.Snapshot()})

		return e.hub, nil
	}
}
