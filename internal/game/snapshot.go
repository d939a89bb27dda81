/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import "math"

// PlayerView is a Player as one particular viewer is allowed to see it.
type PlayerView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Alive bool   `json:"alive"`
	Color string `json:"color"`
	Hat   string `json:"hat,omitempty"`
	Skin  string `json:"skin,omitempty"`
	Role  Role   `json:"role"`
}

type Snapshot struct {
	HostID   string       `json:"hostId"`
	Phase    Phase        `json:"phase"`
	Sabotage SabotageView `json:"sabotage"`
	Players  []PlayerView `json:"players"`
}

// Snapshot projects the room for viewer. Every role except the viewer's own
// is masked.
func (r *Room) Snapshot(viewer string) Snapshot {
	players := make([]PlayerView, 0, len(r.order))
	for _, id := range r.order {
		p := r.players[id]

		role := RoleUnknown
		if id == viewer {
			role = p.Role
		}

		players = append(players, PlayerView{
			ID:    p.ID,
			Name:  p.Name,
			X:     int(math.Round(p.X)),
			Y:     int(math.Round(p.Y)),
			Alive: p.Alive,
			Color: p.Color,
			Hat:   p.Hat,
			Skin:  p.Skin,
			Role:  role,
		})
	}

	return Snapshot{
		HostID:   r.HostID,
		Phase:    r.Phase,
		Sabotage: r.Sabotage.View(),
		Players:  players,
	}
}

// snapshotEvent renders every member's view at call time.
func (r *Room) snapshotEvent(typ string) Event {
	views := make(map[string]Snapshot, len(r.order))
	for _, id := range r.order {
		views[id] = r.Snapshot(id)
	}
	return Event{
		Type:     typ,
		Delivery: ToAll,
		view: func(viewer string) any {
			return views[viewer]
		},
	}
}
