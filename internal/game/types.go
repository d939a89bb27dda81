/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"math"
	"time"
)

// Phase is the stage a room is in.
type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhasePlaying Phase = "playing"
	PhaseMeeting Phase = "meeting"
	PhaseEnded   Phase = "ended"
)

// Role is a player's hidden allegiance. RoleUnknown is only ever sent to
// clients in place of somebody else's role.
type Role string

const (
	RoleUnknown  Role = "unknown"
	RoleCrew     Role = "crew"
	RoleSaboteur Role = "sab"
)

const (
	defaultName  = "Player"
	defaultColor = "#7dd3fc"
	maxCosmetic  = 32
)

// Bounds is the playable rectangle every position is clamped to.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

func (b Bounds) clamp(x, y float64) (float64, float64) {
	return math.Max(b.MinX, math.Min(b.MaxX, x)), math.Max(b.MinY, math.Min(b.MaxY, y))
}

// Rules holds the tunables that are fixed for the lifetime of a room.
type Rules struct {
	MinPlayers     int
	KillCooldown   time.Duration
	KillRadius     float64
	OxygenDuration time.Duration
	Bounds         Bounds
	MaxNameLen     int
	MaxChatLen     int
}

func DefaultRules() Rules {
	return Rules{
		MinPlayers:     3,
		KillCooldown:   15 * time.Second,
		KillRadius:     120,
		OxygenDuration: 45 * time.Second,
		Bounds:         Bounds{MinX: 20, MinY: 20, MaxX: 980, MaxY: 580},
		MaxNameLen:     18,
		MaxChatLen:     240,
	}
}

// Player is the server-side record of one participant. Clients only ever
// see a PlayerView.
type Player struct {
	ID          string
	Name        string
	X, Y        float64
	Alive       bool
	Role        Role
	Color       string
	Hat         string
	Skin        string
	KillReadyAt time.Time
}

// JoinRequest carries the display attributes a client asks for.
type JoinRequest struct {
	Name  string
	Color string
	Hat   string
	Skin  string
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func normalizeColor(c string) string {
	hex := c
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return defaultColor
	}
	for _, ch := range hex {
		switch {
		case ch >= '0' && ch <= '9', ch >= 'a' && ch <= 'f', ch >= 'A' && ch <= 'F':
		default:
			return defaultColor
		}
	}
	return "#" + hex
}
