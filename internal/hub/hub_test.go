/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package hub

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Seednode/saboteur/internal/game"
	"github.com/Seednode/saboteur/internal/store"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type fixture struct {
	hub   *Hub
	store *store.Store
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{now: time.Unix(1_700_000_000, 0)}
	clock := func() time.Time { return f.now }

	f.store = store.New(game.DefaultRules(), store.WithRoomOptions(
		game.WithClock(clock),
		game.WithShuffle(func([]string) {}),
		game.WithSpawn(func() (float64, float64) { return 300, 300 }),
	))
	f.hub = New(f.store, zap.NewNop(), Config{RoomTimeout: time.Minute})
	f.hub.now = clock
	return f
}

func (f *fixture) connect(id string) *Client {
	c := &Client{id: id, send: make(chan []byte, 256)}
	f.hub.clients.add(c)
	return c
}

func (f *fixture) send(c *Client, typ string, payload any) {
	env := map[string]any{"type": typ}
	if payload != nil {
		env["payload"] = payload
	}
	data, err := json.Marshal(env)
	if err != nil {
		panic(err)
	}
	f.hub.handle(c, data)
}

// drain returns everything queued for c so far.
func drain(c *Client) []message {
	var out []message
	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				return out
			}
			var m message
			if err := json.Unmarshal(raw, &m); err != nil {
				panic(err)
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func typesOf(msgs []message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type
	}
	return out
}

func find(t *testing.T, msgs []message, typ string) message {
	t.Helper()
	for _, m := range msgs {
		if m.Type == typ {
			return m
		}
	}
	t.Fatalf("no %q message in %v", typ, typesOf(msgs))
	return message{}
}

// seat connects n clients and joins them all to one room.
func (f *fixture) seat(t *testing.T, code string, n int) []*Client {
	t.Helper()

	clients := make([]*Client, n)
	for i := range clients {
		clients[i] = f.connect(fmt.Sprintf("p%d", i))
		f.send(clients[i], "join", map[string]any{"roomId": code, "name": fmt.Sprintf("Player %d", i)})
	}
	for _, c := range clients {
		drain(c)
	}
	return clients
}

func TestCreateRoom(t *testing.T) {
	f := newFixture(t)
	c := f.connect("a")

	f.send(c, "createRoom", nil)

	msgs := drain(c)
	require.Equal(t, []string{eventRoomCreated}, typesOf(msgs))

	var p roomCreatedPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &p))
	assert.Len(t, p.RoomID, 5)

	_, ok := f.store.Get(p.RoomID)
	assert.True(t, ok)
}

func TestJoin(t *testing.T) {
	f := newFixture(t)
	a, b := f.connect("a"), f.connect("b")

	f.send(a, "join", map[string]any{"roomId": "abcde", "name": "Ann", "color": "#123456"})

	msgs := drain(a)
	require.Equal(t, []string{game.EventJoined, game.EventPlayers}, typesOf(msgs))

	var joined game.JoinedPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &joined))
	assert.Equal(t, "ABCDE", joined.RoomID)
	assert.Equal(t, "a", joined.PlayerID)
	assert.True(t, joined.IsHost)
	require.Len(t, joined.Snapshot.Players, 1)
	assert.Equal(t, "#123456", joined.Snapshot.Players[0].Color)

	f.send(b, "join", map[string]any{"roomId": "ABCDE", "name": "Bob"})

	assert.Equal(t, []string{game.EventPlayers}, typesOf(drain(a)))
	msgs = drain(b)
	require.Equal(t, []string{game.EventJoined, game.EventPlayers}, typesOf(msgs))
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &joined))
	assert.False(t, joined.IsHost)

	f.send(b, "join", map[string]any{"roomId": "OTHER", "name": "Bob"})
	assert.Empty(t, drain(b), "a second join is rejected")
	_, ok := f.store.Get("OTHER")
	assert.False(t, ok)
}

func TestDropsInvalidMessages(t *testing.T) {
	f := newFixture(t)
	clients := f.seat(t, "ABCDE", 3)
	outsider := f.connect("outsider")

	f.send(outsider, "startGame", nil)
	f.hub.handle(clients[0], []byte(`{not json`))
	f.send(clients[0], "teleport", map[string]any{"x": 1})
	f.send(clients[0], "join", map[string]any{"roomId": ""})
	f.send(clients[1], "startGame", nil)

	for _, c := range append(clients, outsider) {
		assert.Empty(t, drain(c))
	}

	room, _ := f.store.Get("ABCDE")
	assert.Equal(t, game.PhaseLobby, room.Phase)
}

func TestStartRevealsOnlyOwnRole(t *testing.T) {
	f := newFixture(t)
	clients := f.seat(t, "ABCDE", 5)

	f.send(clients[0], "startGame", nil)

	for i, c := range clients {
		msgs := drain(c)
		require.Equal(t, []string{game.EventRole, game.EventPhase}, typesOf(msgs))

		var role game.RolePayload
		require.NoError(t, json.Unmarshal(msgs[0].Payload, &role))
		want := game.RoleCrew
		if i == 0 {
			want = game.RoleSaboteur
		}
		assert.Equal(t, want, role.Role)

		var snap game.Snapshot
		require.NoError(t, json.Unmarshal(msgs[1].Payload, &snap))
		assert.Equal(t, game.PhasePlaying, snap.Phase)
		for _, pv := range snap.Players {
			if pv.ID == c.id {
				assert.Equal(t, want, pv.Role)
			} else {
				assert.Equal(t, game.RoleUnknown, pv.Role)
			}
		}
	}
}

func TestMoveIsNotEchoed(t *testing.T) {
	f := newFixture(t)
	clients := f.seat(t, "ABCDE", 3)
	f.send(clients[0], "startGame", nil)
	for _, c := range clients {
		drain(c)
	}

	f.send(clients[1], "move", map[string]any{"x": 5000, "y": 100})

	assert.Empty(t, drain(clients[1]))
	for _, c := range []*Client{clients[0], clients[2]} {
		msgs := drain(c)
		require.Equal(t, []string{game.EventPos}, typesOf(msgs))
		assert.JSONEq(t, `{"id":"p1","x":980,"y":100}`, string(msgs[0].Payload))
	}

	f.send(clients[1], "move", map[string]any{"x": "left"})
	f.send(clients[1], "move", map[string]any{"x": 1})
	for _, c := range clients {
		assert.Empty(t, drain(c))
	}
}

func TestDisconnectReassignsHost(t *testing.T) {
	f := newFixture(t)
	clients := f.seat(t, "ABCDE", 3)

	f.hub.disconnect(clients[0])

	_, open := <-clients[0].send
	assert.False(t, open, "send channel is closed")

	for _, c := range clients[1:] {
		msgs := drain(c)
		require.Equal(t, []string{game.EventPlayers}, typesOf(msgs))
		var snap game.Snapshot
		require.NoError(t, json.Unmarshal(msgs[0].Payload, &snap))
		assert.Equal(t, "p1", snap.HostID)
		assert.Len(t, snap.Players, 2)
	}

	f.hub.disconnect(clients[0])
	f.hub.disconnect(clients[1])
	f.hub.disconnect(clients[2])

	_, ok := f.store.Get("ABCDE")
	assert.False(t, ok, "the last departure destroys the room")
	assert.Equal(t, 0, f.hub.clients.len())
}

func TestQueuedMessagesAfterDisconnectAreDropped(t *testing.T) {
	f := newFixture(t)

	creator := f.connect("creator")
	f.hub.disconnect(creator)
	assert.NotPanics(t, func() { f.send(creator, "createRoom", nil) })
	assert.Equal(t, 0, f.store.Len())

	joiner := f.connect("joiner")
	f.hub.disconnect(joiner)
	f.send(joiner, "join", map[string]any{"roomId": "ABCDE", "name": "Ghost"})

	_, ok := f.store.Get("ABCDE")
	assert.False(t, ok, "a closed connection never seats a player")
	assert.Empty(t, joiner.room)

	clients := f.seat(t, "FGHIJ", 3)
	stale := &Client{id: clients[1].id, send: make(chan []byte, 1)}
	f.send(stale, "startGame", nil)
	room, ok := f.store.Get("FGHIJ")
	require.True(t, ok)
	assert.Equal(t, game.PhaseLobby, room.Phase)
}

func TestEncodeFailureSkipsOnlyThatMessage(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zap.ErrorLevel)
	f.hub.log = zap.New(core)

	clients := f.seat(t, "ABCDE", 3)
	room, ok := f.store.Get("ABCDE")
	require.True(t, ok)

	f.hub.deliver(room, []game.Event{
		{Type: "broken", Delivery: game.ToAll, Payload: func() {}},
		{Type: game.EventChat, Delivery: game.ToAll, Payload: game.ChatPayload{From: "Player 0", Text: "hi"}},
	})

	assert.Equal(t, 3, logs.FilterMessage("encode failed").Len())
	for _, c := range clients {
		assert.Equal(t, []string{game.EventChat}, typesOf(drain(c)))
	}
}

func TestSlowClientDoesNotBlockFanout(t *testing.T) {
	f := newFixture(t)
	clients := f.seat(t, "ABCDE", 3)

	stuck := clients[1]
	stuck.send = make(chan []byte)

	f.send(clients[0], "startGame", nil)

	assert.Len(t, drain(clients[0]), 2)
	assert.Len(t, drain(clients[2]), 2)
}

func TestOxygenDeadlineSweep(t *testing.T) {
	f := newFixture(t)
	clients := f.seat(t, "ABCDE", 5)
	f.send(clients[0], "startGame", nil)
	f.send(clients[0], "sabotage", map[string]any{"kind": "o2"})
	f.send(clients[1], "fixSabotage", map[string]any{"side": "left"})
	for _, c := range clients {
		drain(c)
	}

	f.hub.sweep()
	for _, c := range clients {
		assert.Empty(t, drain(c))
	}

	f.now = f.now.Add(game.DefaultRules().OxygenDuration + time.Second)
	f.hub.sweep()

	for _, c := range clients {
		msgs := drain(c)
		require.Equal(t, []string{game.EventGameEnded}, typesOf(msgs))
		assert.JSONEq(t, `{"winner":"sab"}`, string(msgs[0].Payload))
	}

	room, _ := f.store.Get("ABCDE")
	assert.Equal(t, game.PhaseEnded, room.Phase)

	f.send(clients[2], "callMeeting", nil)
	assert.Empty(t, drain(clients[2]))
}

func TestOxygenRepairBroadcasts(t *testing.T) {
	f := newFixture(t)
	clients := f.seat(t, "ABCDE", 4)
	f.send(clients[0], "startGame", nil)
	f.send(clients[0], "sabotage", map[string]any{"kind": "oxygen"})
	drain(clients[3])

	f.send(clients[1], "fixSabotage", nil)
	assert.Empty(t, drain(clients[3]), "oxygen repairs need a station")

	f.send(clients[1], "fixSabotage", map[string]any{"side": "left"})
	assert.Equal(t, []string{game.EventSabotageUpdate}, typesOf(drain(clients[3])))

	f.send(clients[2], "fixSabotage", map[string]any{"side": "right"})
	msgs := drain(clients[3])
	require.Equal(t, []string{game.EventSabotageUpdate, game.EventSabotage}, typesOf(msgs))
	assert.JSONEq(t, `{"type":null}`, string(msgs[1].Payload))
}

func TestReapsIdleRooms(t *testing.T) {
	f := newFixture(t)
	c := f.connect("a")
	f.send(c, "createRoom", nil)
	drain(c)
	require.Equal(t, 1, f.store.Len())

	f.now = f.now.Add(30 * time.Second)
	f.hub.sweep()
	assert.Equal(t, 1, f.store.Len())

	f.now = f.now.Add(time.Minute)
	f.hub.sweep()
	assert.Equal(t, 0, f.store.Len())
}

func TestDeadPlayersAreSilenced(t *testing.T) {
	f := newFixture(t)
	clients := f.seat(t, "ABCDE", 5)
	f.send(clients[0], "startGame", nil)
	f.send(clients[0], "kill", map[string]any{"targetId": "p1"})
	f.send(clients[2], "report", nil)
	for _, c := range clients {
		drain(c)
	}

	f.send(clients[1], "chat", map[string]any{"text": "it was p0!"})
	f.send(clients[1], "vote", map[string]any{"targetId": "p0"})
	f.send(clients[1], "rtc", map[string]any{"to": "p2", "kind": "offer"})

	for _, c := range clients {
		assert.Empty(t, drain(c))
	}
	room, _ := f.store.Get("ABCDE")
	assert.Equal(t, 0, room.VoteCount())

	f.send(clients[2], "chat", map[string]any{"text": "where?"})
	for _, c := range clients {
		msgs := drain(c)
		require.Equal(t, []string{game.EventChat}, typesOf(msgs))
		assert.JSONEq(t, `{"from":"Player 2","text":"where?"}`, string(msgs[0].Payload))
	}
}

func TestRelayStampsSender(t *testing.T) {
	f := newFixture(t)
	clients := f.seat(t, "ABCDE", 3)
	f.send(clients[0], "startGame", nil)
	f.send(clients[1], "callMeeting", nil)
	for _, c := range clients {
		drain(c)
	}

	f.send(clients[1], "rtc", map[string]any{
		"to":        "p2",
		"from":      "p0",
		"kind":      "ice",
		"candidate": map[string]any{"candidate": "a=1", "sdpMid": "0"},
	})

	assert.Empty(t, drain(clients[0]))
	assert.Empty(t, drain(clients[1]))

	msgs := drain(clients[2])
	require.Equal(t, []string{game.EventRTC}, typesOf(msgs))
	assert.JSONEq(t,
		`{"to":"p2","from":"p1","kind":"ice","candidate":{"candidate":"a=1","sdpMid":"0"}}`,
		string(msgs[0].Payload),
	)

	f.send(clients[1], "rtc", map[string]any{"kind": "offer"})
	assert.Empty(t, drain(clients[2]))
}

func TestFullRoundOverHub(t *testing.T) {
	f := newFixture(t)
	clients := f.seat(t, "ABCDE", 5)

	f.send(clients[0], "startGame", nil)
	f.send(clients[0], "kill", map[string]any{"targetId": "p1"})

	for _, c := range clients {
		msgs := drain(c)
		killed := find(t, msgs, game.EventKilled)
		assert.JSONEq(t, `{"targetId":"p1"}`, string(killed.Payload))
	}

	f.send(clients[3], "report", nil)
	for _, c := range clients {
		var snap game.Snapshot
		require.NoError(t, json.Unmarshal(find(t, drain(c), game.EventPhase).Payload, &snap))
		assert.Equal(t, game.PhaseMeeting, snap.Phase)
	}

	for _, c := range []*Client{clients[2], clients[3], clients[4], clients[0]} {
		f.send(c, "vote", map[string]any{"targetId": "p0"})
	}

	for _, c := range clients {
		msgs := drain(c)
		require.Equal(t, []string{game.EventExpelled, game.EventGameEnded}, typesOf(msgs))
		assert.JSONEq(t, `{"playerId":"p0","name":"Player 0"}`, string(msgs[0].Payload))
		assert.JSONEq(t, `{"winner":"crew"}`, string(msgs[1].Payload))
	}
}
