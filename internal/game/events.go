/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import "encoding/json"

const (
	EventJoined         = "joined"
	EventPlayers        = "players"
	EventPhase          = "phase"
	EventPos            = "pos"
	EventChat           = "chat"
	EventExpelled       = "expelled"
	EventRole           = "role"
	EventKilled         = "killed"
	EventSabotage       = "sabotage"
	EventSabotageUpdate = "sabotageUpdate"
	EventGameEnded      = "gameEnded"
	EventRTC            = "rtc"
)

// Delivery selects which members of a room receive an event.
type Delivery int

const (
	ToAll Delivery = iota
	ToAllExcept
	ToOne
)

// Event is one outbound message produced by a room transition. Target is
// the excluded player for ToAllExcept and the recipient for ToOne.
type Event struct {
	Type     string
	Delivery Delivery
	Target   string
	Payload  any

	view func(viewer string) any
}

// PayloadFor renders the payload as seen by viewer.
func (e Event) PayloadFor(viewer string) any {
	if e.view != nil {
		return e.view(viewer)
	}
	return e.Payload
}

// Personalized reports whether recipients see different payloads.
func (e Event) Personalized() bool {
	return e.view != nil
}

// Recipients filters members down to the players this event is for.
func (e Event) Recipients(members []string) []string {
	switch e.Delivery {
	case ToOne:
		for _, id := range members {
			if id == e.Target {
				return []string{id}
			}
		}
		return nil
	case ToAllExcept:
		out := make([]string, 0, len(members))
		for _, id := range members {
			if id != e.Target {
				out = append(out, id)
			}
		}
		return out
	}
	return members
}

func broadcast(typ string, payload any) Event {
	return Event{Type: typ, Delivery: ToAll, Payload: payload}
}

func broadcastExcept(except, typ string, payload any) Event {
	return Event{Type: typ, Delivery: ToAllExcept, Target: except, Payload: payload}
}

func unicast(to, typ string, payload any) Event {
	return Event{Type: typ, Delivery: ToOne, Target: to, Payload: payload}
}

type JoinedPayload struct {
	RoomID   string   `json:"roomId"`
	PlayerID string   `json:"playerId"`
	IsHost   bool     `json:"isHost"`
	Snapshot Snapshot `json:"snapshot"`
}

type PosPayload struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type ChatPayload struct {
	From string `json:"from"`
	Text string `json:"text"`
}

type ExpelledPayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type RolePayload struct {
	Role Role `json:"role"`
}

type KilledPayload struct {
	TargetID string `json:"targetId"`
}

type GameEndedPayload struct {
	Winner Role `json:"winner"`
}

// RelayPayload is an opaque signaling envelope; only "from" is set by the
// server.
type RelayPayload map[string]json.RawMessage
