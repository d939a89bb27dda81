/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package hub runs the single goroutine that owns every room. Inbound
// messages, disconnects and the periodic sweep are all serialized through
// it, so a room is never mutated from two places at once.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Seednode/saboteur/internal/game"
	"github.com/Seednode/saboteur/internal/store"
)

type Config struct {
	// RoomTimeout reaps rooms that were created but never joined. Zero
	// disables reaping.
	RoomTimeout time.Duration
	// SweepInterval is how often oxygen deadlines are checked.
	SweepInterval time.Duration
	// RateLimit and RateBurst bound inbound messages per connection.
	RateLimit rate.Limit
	RateBurst int
}

type inbound struct {
	client *Client
	data   []byte
}

type Hub struct {
	store   *store.Store
	clients *registry
	log     *zap.Logger
	cfg     Config
	now     func() time.Time

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	create     chan chan string
	done       chan struct{}
}

func New(st *store.Store, log *zap.Logger, cfg Config) *Hub {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Second
	}

	return &Hub{
		store:      st,
		clients:    newRegistry(),
		log:        log,
		cfg:        cfg,
		now:        time.Now,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 256),
		create:     make(chan chan string),
		done:       make(chan struct{}),
	}
}

// Run processes events until ctx is cancelled, then closes every
// connection.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.SweepInterval)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.clients.add(c)
			h.log.Debug("connection opened", zap.String("player", c.id), zap.Int("connections", h.clients.len()))

		case c := <-h.unregister:
			h.disconnect(c)

		case in := <-h.inbound:
			h.handle(in.client, in.data)

		case reply := <-h.create:
			reply <- h.createRoom().Code

		case <-ticker.C:
			h.sweep()
		}
	}
}

// CreateRoom makes a new empty room from outside the hub goroutine.
func (h *Hub) CreateRoom(ctx context.Context) (string, error) {
	reply := make(chan string, 1)

	select {
	case h.create <- reply:
	case <-h.done:
		return "", context.Canceled
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case code := <-reply:
		return code, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (h *Hub) shutdown() {
	for _, c := range h.clients.all() {
		h.clients.remove(c.id)
		close(c.send)
		c.close()
	}
	h.log.Info("hub stopped", zap.Int("rooms", h.store.Len()))
}

func (h *Hub) createRoom() *game.Room {
	room := h.store.Create()
	h.log.Info("room created", zap.String("room", room.Code), zap.Int("rooms", h.store.Len()))
	return room
}

// handle decodes one inbound message and applies it. Every rejection is
// silent towards the client. Messages still queued from a connection that
// has already been disconnected are dropped.
func (h *Hub) handle(c *Client, data []byte) {
	if cur, ok := h.clients.get(c.id); !ok || cur != c {
		h.reject(c, "", ErrClosed)
		return
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.reject(c, "", fmt.Errorf("%w: %v", ErrMalformed, err))
		return
	}

	if err := h.dispatch(c, env); err != nil {
		h.reject(c, env.Type, err)
	}
}

func (h *Hub) reject(c *Client, typ string, err error) {
	h.log.Debug("dropped message",
		zap.String("player", c.id),
		zap.String("room", c.room),
		zap.String("type", typ),
		zap.Error(err),
	)
}

func (h *Hub) dispatch(c *Client, env Envelope) error {
	switch env.Type {
	case "createRoom":
		room := h.createRoom()
		h.sendTo(c, eventRoomCreated, roomCreatedPayload{RoomID: room.Code})
		return nil

	case "join":
		return h.join(c, env.Payload)
	}

	if c.room == "" {
		return ErrNotJoined
	}
	room, ok := h.store.Get(c.room)
	if !ok {
		return ErrNotJoined
	}

	before := room.Phase
	events, err := h.apply(room, c.id, env)
	if err != nil {
		return err
	}
	h.deliver(room, events)

	if room.Phase != before {
		h.log.Info("phase changed",
			zap.String("room", room.Code),
			zap.String("from", string(before)),
			zap.String("to", string(room.Phase)),
		)
	}
	return nil
}

func (h *Hub) join(c *Client, raw json.RawMessage) error {
	if c.room != "" {
		return game.ErrAlreadyJoined
	}

	var p joinPayload
	if err := decode(raw, &p); err != nil {
		return err
	}

	room := h.store.GetOrCreate(p.RoomID)
	events, err := room.Join(c.id, game.JoinRequest{
		Name:  p.Name,
		Color: p.Color,
		Hat:   p.Hat,
		Skin:  p.Skin,
	})
	if err != nil {
		if room.Empty() {
			h.store.Remove(room.Code)
		}
		return err
	}

	c.room = room.Code
	h.log.Info("player joined",
		zap.String("room", room.Code),
		zap.String("player", c.id),
		zap.Int("players", room.Len()),
	)
	h.deliver(room, events)
	return nil
}

// apply routes an in-room message to the matching room transition.
func (h *Hub) apply(room *game.Room, id string, env Envelope) ([]game.Event, error) {
	switch game.Action(env.Type) {
	case game.ActionStart:
		return room.Start(id)

	case game.ActionMove:
		var p movePayload
		if err := decode(env.Payload, &p); err != nil {
			return nil, err
		}
		return room.Move(id, *p.X, *p.Y)

	case game.ActionReport:
		return room.Report(id)

	case game.ActionCallMeeting:
		return room.CallMeeting(id)

	case game.ActionKill:
		var p killPayload
		if err := decode(env.Payload, &p); err != nil {
			return nil, err
		}
		return room.Kill(id, p.TargetID)

	case game.ActionSabotage:
		var p sabotagePayload
		if err := decode(env.Payload, &p); err != nil {
			return nil, err
		}
		return room.StartSabotage(id, p.Kind)

	case game.ActionFix:
		var p fixPayload
		if err := decode(env.Payload, &p); err != nil {
			return nil, err
		}
		return room.FixSabotage(id, p.Side)

	case game.ActionChat:
		var p chatPayload
		if err := decode(env.Payload, &p); err != nil {
			return nil, err
		}
		return room.Chat(id, p.Text)

	case game.ActionVote:
		var p votePayload
		if err := decode(env.Payload, &p); err != nil {
			return nil, err
		}
		return room.Vote(id, p.TargetID)

	case game.ActionRelay:
		to, envelope, err := decodeRelay(env.Payload)
		if err != nil {
			return nil, err
		}
		return room.Relay(id, to, envelope)
	}

	return nil, ErrUnknownType
}

// deliver fans events out to the room's connections. Each recipient is
// independent: a client that cannot keep up is disconnected without
// affecting the rest.
func (h *Hub) deliver(room *game.Room, events []game.Event) {
	members := room.Members()

	for _, ev := range events {
		var shared []byte

		for _, id := range ev.Recipients(members) {
			c, ok := h.clients.get(id)
			if !ok {
				continue
			}

			msg := shared
			if msg == nil {
				b, err := encode(ev.Type, ev.PayloadFor(id))
				if err != nil {
					h.log.Error("encode failed", zap.String("type", ev.Type), zap.Error(err))
					continue
				}
				msg = b
				if !ev.Personalized() {
					shared = b
				}
			}

			h.enqueue(c, msg)
		}

		if ev.Type == game.EventGameEnded {
			h.log.Info("game ended", zap.String("room", room.Code), zap.Any("result", ev.Payload))
		}
	}
}

func (h *Hub) sendTo(c *Client, typ string, payload any) {
	msg, err := encode(typ, payload)
	if err != nil {
		h.log.Error("encode failed", zap.String("type", typ), zap.Error(err))
		return
	}
	h.enqueue(c, msg)
}

func (h *Hub) enqueue(c *Client, msg []byte) {
	if c.enqueue(msg) {
		return
	}
	h.log.Debug("send buffer full, closing connection", zap.String("player", c.id))
	c.close()
}

// disconnect retires a connection's identity and removes its player.
func (h *Hub) disconnect(c *Client) {
	if _, ok := h.clients.get(c.id); !ok {
		return
	}
	h.clients.remove(c.id)
	close(c.send)

	h.log.Debug("connection closed", zap.String("player", c.id), zap.Int("connections", h.clients.len()))

	if c.room == "" {
		return
	}
	room, ok := h.store.Get(c.room)
	if !ok {
		return
	}

	events, err := room.Leave(c.id)
	if err != nil {
		h.log.Debug("leave failed", zap.String("room", room.Code), zap.String("player", c.id), zap.Error(err))
		return
	}

	if room.Empty() {
		h.store.Remove(room.Code)
		h.log.Info("room closed", zap.String("room", room.Code), zap.Int("rooms", h.store.Len()))
		return
	}

	h.deliver(room, events)
}

// sweep runs the 1 Hz timer work: oxygen deadlines, then idle rooms.
func (h *Hub) sweep() {
	now := h.now()

	h.store.Each(func(room *game.Room) {
		if events := room.Tick(now); len(events) > 0 {
			h.log.Info("oxygen depleted", zap.String("room", room.Code))
			h.deliver(room, events)
		}
	})

	if h.cfg.RoomTimeout <= 0 {
		return
	}
	for _, code := range h.store.Reap(now.Add(-h.cfg.RoomTimeout)) {
		h.log.Info("room reaped", zap.String("room", code), zap.Duration("timeout", h.cfg.RoomTimeout))
	}
}
