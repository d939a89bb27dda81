/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"strings"
	"time"
)

type SabotageKind string

const (
	SabotageNone   SabotageKind = ""
	SabotageLights SabotageKind = "lights"
	SabotageOxygen SabotageKind = "o2"
)

// ParseSabotageKind accepts the kinds clients may request, case-insensitively.
func ParseSabotageKind(s string) (SabotageKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lights":
		return SabotageLights, nil
	case "o2", "oxygen":
		return SabotageOxygen, nil
	}
	return SabotageNone, ErrUnknownSabotage
}

type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Sabotage is the single shared-system fault a room may have at a time.
// Lights carry no deadline; oxygen must have both stations repaired before
// EndsAt.
type Sabotage struct {
	Kind   SabotageKind
	EndsAt time.Time
	Left   bool
	Right  bool
}

func (s Sabotage) Active() bool {
	return s.Kind != SabotageNone
}

func (s Sabotage) expired(now time.Time) bool {
	return s.Kind == SabotageOxygen && now.After(s.EndsAt)
}

type LightsData struct {
	Fixed bool `json:"fixed"`
}

type OxygenData struct {
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// SabotageView is the wire form; Type is null when nothing is active.
type SabotageView struct {
	Type   *SabotageKind `json:"type"`
	EndsAt int64         `json:"endsAt,omitempty"`
	Data   any           `json:"data,omitempty"`
}

func (s Sabotage) View() SabotageView {
	switch s.Kind {
	case SabotageLights:
		kind := s.Kind
		return SabotageView{Type: &kind, Data: LightsData{}}
	case SabotageOxygen:
		kind := s.Kind
		return SabotageView{
			Type:   &kind,
			EndsAt: s.EndsAt.UnixMilli(),
			Data:   OxygenData{Left: s.Left, Right: s.Right},
		}
	}
	return SabotageView{}
}
