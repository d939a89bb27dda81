/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package hub

import "errors"

var (
	ErrClosed      = errors.New("connection already closed")
	ErrMalformed   = errors.New("malformed message")
	ErrNotJoined   = errors.New("connection has not joined a room")
	ErrRateLimited = errors.New("message rate exceeded")
	ErrUnknownType = errors.New("unknown message type")
)
