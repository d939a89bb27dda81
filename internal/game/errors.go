/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import "errors"

var (
	ErrAlreadyJoined    = errors.New("player has already joined a room")
	ErrCooldown         = errors.New("kill cooldown has not elapsed")
	ErrDead             = errors.New("player is not alive")
	ErrEmptyMessage     = errors.New("message is empty")
	ErrGameEnded        = errors.New("game has ended")
	ErrInvalidSide      = errors.New("oxygen repairs need a left or right station")
	ErrInvalidTarget    = errors.New("target is not a valid player")
	ErrNoSabotage       = errors.New("no sabotage is active")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrNotHost          = errors.New("only the host may do that")
	ErrNotSaboteur      = errors.New("only saboteurs may do that")
	ErrOutOfRange       = errors.New("target is out of range")
	ErrSabotageActive   = errors.New("a sabotage is already active")
	ErrUnknownPlayer    = errors.New("player is not in this room")
	ErrUnknownSabotage  = errors.New("unknown sabotage kind")
	ErrWrongPhase       = errors.New("action is not allowed in the current phase")
)
