/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package store keeps every live room in the process, keyed by room code.
//
// A Store is owned by the hub goroutine and is not safe for concurrent use.
package store

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/Seednode/saboteur/internal/game"
)

const (
	codeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength  = 5
)

type Store struct {
	rooms    map[string]*game.Room
	rules    game.Rules
	roomOpts []game.Option
	newCode  func() string
}

type Option func(*Store)

// WithCodeGenerator replaces the random room code source.
func WithCodeGenerator(fn func() string) Option {
	return func(s *Store) { s.newCode = fn }
}

// WithRoomOptions is applied to every room the store creates.
func WithRoomOptions(opts ...game.Option) Option {
	return func(s *Store) { s.roomOpts = append(s.roomOpts, opts...) }
}

func New(rules game.Rules, opts ...Option) *Store {
	s := &Store{
		rooms:   make(map[string]*game.Room),
		rules:   rules,
		newCode: randomCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// randomCode returns a crypto-random uppercase alphanumeric room code.
func randomCode() string {
	limit := big.NewInt(int64(len(codeLetters)))

	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		buf[i] = codeLetters[n.Int64()]
	}
	return string(buf)
}

// Normalize canonicalizes a client-typed room code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create makes an empty lobby under a code no live room is using.
func (s *Store) Create() *game.Room {
	for {
		code := s.newCode()
		if _, exists := s.rooms[code]; exists {
			continue
		}

		room := game.NewRoom(code, s.rules, s.roomOpts...)
		s.rooms[code] = room
		return room
	}
}

// GetOrCreate returns the room for code, creating an empty lobby if needed.
func (s *Store) GetOrCreate(code string) *game.Room {
	if room, ok := s.rooms[code]; ok {
		return room
	}

	room := game.NewRoom(code, s.rules, s.roomOpts...)
	s.rooms[code] = room
	return room
}

func (s *Store) Get(code string) (*game.Room, bool) {
	room, ok := s.rooms[code]
	return room, ok
}

func (s *Store) Remove(code string) {
	delete(s.rooms, code)
}

func (s *Store) Len() int {
	return len(s.rooms)
}

// Each calls fn for every room. fn must not add or remove rooms.
func (s *Store) Each(fn func(*game.Room)) {
	for _, room := range s.rooms {
		fn(room)
	}
}

// Reap removes rooms that nobody ever joined and that were created before
// cutoff, returning their codes.
func (s *Store) Reap(cutoff time.Time) []string {
	var reaped []string
	for code, room := range s.rooms {
		if room.Empty() && room.CreatedAt.Before(cutoff) {
			delete(s.rooms, code)
			reaped = append(reaped, code)
		}
	}
	return reaped
}
