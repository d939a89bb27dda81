/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"crypto/rand"
	"encoding/json"
	"math"
	"math/big"
	"strings"
	"time"
)

// Room is the authoritative state of one game session.
//
// A Room is not safe for concurrent use. Every method must be called from
// the single goroutine that owns the room; each call either rejects the
// action with an error and leaves the room untouched, or applies it and
// returns the events to fan out.
type Room struct {
	Code      string
	Phase     Phase
	HostID    string
	Sabotage  Sabotage
	CreatedAt time.Time

	players map[string]*Player
	order   []string
	votes   map[string]string
	rules   Rules

	now     func() time.Time
	shuffle func([]string)
	spawn   func() (float64, float64)
}

type Option func(*Room)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Room) { r.now = now }
}

// WithShuffle replaces the role shuffle.
func WithShuffle(fn func([]string)) Option {
	return func(r *Room) { r.shuffle = fn }
}

// WithSpawn replaces the random spawn point.
func WithSpawn(fn func() (float64, float64)) Option {
	return func(r *Room) { r.spawn = fn }
}

func NewRoom(code string, rules Rules, opts ...Option) *Room {
	r := &Room{
		Code:    code,
		Phase:   PhaseLobby,
		players: make(map[string]*Player),
		votes:   make(map[string]string),
		rules:   rules,
		now:     time.Now,
		shuffle: shuffle,
		spawn:   randomSpawn,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.CreatedAt = r.now()
	return r
}

func randomSpawn() (float64, float64) {
	offset := func() float64 {
		n, err := rand.Int(rand.Reader, big.NewInt(100_000))
		if err != nil {
			return 0
		}
		return float64(n.Int64()) / 1000
	}
	return 300 + offset(), 300 + offset()
}

func (r *Room) Empty() bool {
	return len(r.players) == 0
}

func (r *Room) Len() int {
	return len(r.players)
}

// Members returns player IDs in join order.
func (r *Room) Members() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Player returns a copy of the player's full record.
func (r *Room) Player(id string) (Player, bool) {
	p, ok := r.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// AliveCounts returns the number of living saboteurs and crew.
func (r *Room) AliveCounts() (saboteurs, crew int) {
	for _, p := range r.players {
		if !p.Alive {
			continue
		}
		if p.Role == RoleSaboteur {
			saboteurs++
		} else {
			crew++
		}
	}
	return saboteurs, crew
}

func (r *Room) aliveCount() int {
	s, c := r.AliveCounts()
	return s + c
}

// VoteCount is the number of ledger entries in the current meeting.
func (r *Room) VoteCount() int {
	return len(r.votes)
}

// guard checks the phase table and returns the acting player.
func (r *Room) guard(id string, a Action) (*Player, error) {
	if _, err := Next(r.Phase, a); err != nil {
		return nil, err
	}
	p, ok := r.players[id]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	return p, nil
}

func (r *Room) guardAlive(id string, a Action) (*Player, error) {
	p, err := r.guard(id, a)
	if err != nil {
		return nil, err
	}
	if !p.Alive {
		return nil, ErrDead
	}
	return p, nil
}

// Join adds a player. Players arriving after the lobby watch as dead crew
// so they cannot change the head count of a game in progress.
func (r *Room) Join(id string, req JoinRequest) ([]Event, error) {
	if _, ok := r.players[id]; ok {
		return nil, ErrAlreadyJoined
	}

	name := truncate(strings.TrimSpace(req.Name), r.rules.MaxNameLen)
	if name == "" {
		name = defaultName
	}

	x, y := r.spawn()
	r.players[id] = &Player{
		ID:          id,
		Name:        name,
		X:           x,
		Y:           y,
		Alive:       r.Phase == PhaseLobby,
		Role:        RoleCrew,
		Color:       normalizeColor(req.Color),
		Hat:         truncate(req.Hat, maxCosmetic),
		Skin:        truncate(req.Skin, maxCosmetic),
		KillReadyAt: r.now(),
	}
	r.order = append(r.order, id)

	if r.HostID == "" {
		r.HostID = id
	}

	return []Event{
		unicast(id, EventJoined, JoinedPayload{
			RoomID:   r.Code,
			PlayerID: id,
			IsHost:   r.HostID == id,
			Snapshot: r.Snapshot(id),
		}),
		r.snapshotEvent(EventPlayers),
	}, nil
}

// Leave removes a player. The host role passes to the longest-present
// remaining player. An emptied room returns no events.
func (r *Room) Leave(id string) ([]Event, error) {
	if _, ok := r.players[id]; !ok {
		return nil, ErrUnknownPlayer
	}

	delete(r.players, id)
	delete(r.votes, id)
	for voter, choice := range r.votes {
		if choice == id {
			r.votes[voter] = skip
		}
	}
	for i, member := range r.order {
		if member == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if len(r.order) == 0 {
		r.HostID = ""
		return nil, nil
	}
	if r.HostID == id {
		r.HostID = r.order[0]
	}

	events := []Event{r.snapshotEvent(EventPlayers)}

	if r.Phase != PhasePlaying && r.Phase != PhaseMeeting {
		return events, nil
	}
	if winner, ok := Winner(r.AliveCounts()); ok {
		return append(events, r.end(winner)), nil
	}
	if r.Phase == PhaseMeeting {
		events = append(events, r.tallyIfComplete()...)
	}
	return events, nil
}

// Start deals roles and begins play.
func (r *Room) Start(id string) ([]Event, error) {
	if _, err := r.guard(id, ActionStart); err != nil {
		return nil, err
	}
	if r.HostID != id {
		return nil, ErrNotHost
	}
	if len(r.players) < r.rules.MinPlayers {
		return nil, ErrNotEnoughPlayers
	}

	r.assignRoles()
	r.Phase = PhasePlaying
	r.votes = make(map[string]string)
	r.Sabotage = Sabotage{}

	now := r.now()
	for _, p := range r.players {
		p.Alive = true
		p.KillReadyAt = now
	}

	events := make([]Event, 0, len(r.order)+1)
	for _, pid := range r.order {
		events = append(events, unicast(pid, EventRole, RolePayload{Role: r.players[pid].Role}))
	}
	return append(events, r.snapshotEvent(EventPhase)), nil
}

// Move clamps the requested position to the map and echoes it to everyone
// but the mover.
func (r *Room) Move(id string, x, y float64) ([]Event, error) {
	p, err := r.guardAlive(id, ActionMove)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(x) || math.IsNaN(y) {
		return nil, ErrOutOfRange
	}

	p.X, p.Y = r.rules.Bounds.clamp(x, y)

	return []Event{broadcastExcept(id, EventPos, PosPayload{ID: id, X: p.X, Y: p.Y})}, nil
}

// Report and CallMeeting both pull the room into a meeting.
func (r *Room) Report(id string) ([]Event, error) {
	return r.meeting(id, ActionReport)
}

func (r *Room) CallMeeting(id string) ([]Event, error) {
	return r.meeting(id, ActionCallMeeting)
}

func (r *Room) meeting(id string, a Action) ([]Event, error) {
	if _, err := r.guardAlive(id, a); err != nil {
		return nil, err
	}

	r.Phase = PhaseMeeting
	r.votes = make(map[string]string)

	return []Event{r.snapshotEvent(EventPhase)}, nil
}

// Kill lets a ready saboteur eliminate a nearby living player. The
// broadcast names only the victim.
func (r *Room) Kill(id, targetID string) ([]Event, error) {
	killer, err := r.guardAlive(id, ActionKill)
	if err != nil {
		return nil, err
	}
	if killer.Role != RoleSaboteur {
		return nil, ErrNotSaboteur
	}

	now := r.now()
	if now.Before(killer.KillReadyAt) {
		return nil, ErrCooldown
	}

	victim, ok := r.players[targetID]
	if !ok || !victim.Alive || victim.ID == killer.ID {
		return nil, ErrInvalidTarget
	}

	dx, dy := killer.X-victim.X, killer.Y-victim.Y
	if dx*dx+dy*dy > r.rules.KillRadius*r.rules.KillRadius {
		return nil, ErrOutOfRange
	}

	victim.Alive = false
	killer.KillReadyAt = now.Add(r.rules.KillCooldown)

	events := []Event{broadcast(EventKilled, KilledPayload{TargetID: victim.ID})}
	if winner, ok := Winner(r.AliveCounts()); ok {
		events = append(events, r.end(winner))
	}
	return events, nil
}

// StartSabotage triggers a fault. Only one may be active at a time.
func (r *Room) StartSabotage(id, kind string) ([]Event, error) {
	p, err := r.guardAlive(id, ActionSabotage)
	if err != nil {
		return nil, err
	}
	if p.Role != RoleSaboteur {
		return nil, ErrNotSaboteur
	}
	if r.Sabotage.Active() {
		return nil, ErrSabotageActive
	}

	k, err := ParseSabotageKind(kind)
	if err != nil {
		return nil, err
	}

	r.Sabotage = Sabotage{Kind: k}
	if k == SabotageOxygen {
		r.Sabotage.EndsAt = r.now().Add(r.rules.OxygenDuration)
	}

	return []Event{broadcast(EventSabotage, r.Sabotage.View())}, nil
}

// FixSabotage repairs lights outright, or one oxygen station per call.
func (r *Room) FixSabotage(id, side string) ([]Event, error) {
	if _, err := r.guard(id, ActionFix); err != nil {
		return nil, err
	}

	switch r.Sabotage.Kind {
	case SabotageLights:
		r.Sabotage = Sabotage{}
		return []Event{broadcast(EventSabotage, r.Sabotage.View())}, nil

	case SabotageOxygen:
		switch Side(side) {
		case SideLeft:
			r.Sabotage.Left = true
		case SideRight:
			r.Sabotage.Right = true
		default:
			return nil, ErrInvalidSide
		}

		events := []Event{broadcast(EventSabotageUpdate, r.Sabotage.View())}
		if r.Sabotage.Left && r.Sabotage.Right {
			r.Sabotage = Sabotage{}
			events = append(events, broadcast(EventSabotage, r.Sabotage.View()))
		}
		return events, nil
	}

	return nil, ErrNoSabotage
}

// Chat is meeting-only and living-only, so the dead cannot coach the living.
func (r *Room) Chat(id, text string) ([]Event, error) {
	p, err := r.guardAlive(id, ActionChat)
	if err != nil {
		return nil, err
	}

	text = truncate(text, r.rules.MaxChatLen)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	return []Event{broadcast(EventChat, ChatPayload{From: p.Name, Text: text})}, nil
}

// Vote records or replaces a ballot. A nil or empty target abstains. The
// tally runs once every living player has a ballot.
func (r *Room) Vote(id string, target *string) ([]Event, error) {
	if _, err := r.guardAlive(id, ActionVote); err != nil {
		return nil, err
	}

	choice := skip
	if target != nil && *target != "" {
		if _, ok := r.players[*target]; !ok {
			return nil, ErrInvalidTarget
		}
		choice = *target
	}

	r.votes[id] = choice

	return r.tallyIfComplete(), nil
}

func (r *Room) tallyIfComplete() []Event {
	if len(r.votes) < r.aliveCount() {
		return nil
	}

	var events []Event
	if out := Tally(r.votes); out != skip {
		name := "Unknown"
		if p, ok := r.players[out]; ok {
			p.Alive = false
			name = p.Name
		}
		events = append(events, broadcast(EventExpelled, ExpelledPayload{PlayerID: out, Name: name}))

		if winner, ok := Winner(r.AliveCounts()); ok {
			return append(events, r.end(winner))
		}
	}

	r.Phase = PhasePlaying
	return append(events, r.snapshotEvent(EventPhase))
}

// Relay forwards an opaque signaling envelope between two living players,
// overwriting any client-supplied sender.
func (r *Room) Relay(id, to string, envelope RelayPayload) ([]Event, error) {
	if _, err := r.guardAlive(id, ActionRelay); err != nil {
		return nil, err
	}
	target, ok := r.players[to]
	if !ok || !target.Alive {
		return nil, ErrInvalidTarget
	}

	from, err := json.Marshal(id)
	if err != nil {
		return nil, err
	}

	forward := make(RelayPayload, len(envelope)+1)
	for k, v := range envelope {
		forward[k] = v
	}
	forward["from"] = from

	return []Event{unicast(to, EventRTC, forward)}, nil
}

// Tick ends the game for the saboteurs once an unrepaired oxygen deadline
// has passed.
func (r *Room) Tick(now time.Time) []Event {
	if r.Phase != PhasePlaying || !r.Sabotage.expired(now) {
		return nil
	}
	return []Event{r.end(RoleSaboteur)}
}

func (r *Room) end(winner Role) Event {
	r.Phase = PhaseEnded
	return broadcast(EventGameEnded, GameEndedPayload{Winner: winner})
}
