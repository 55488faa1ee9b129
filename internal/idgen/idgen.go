package idgen

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Lowercase alphanumerics keep room URLs easy to read out loud
	alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

	// 36^6 possible ids; collision odds stay negligible well past
	// tens of thousands of concurrently live rooms
	length = 6
)

// NewRoomID returns a fresh random room token. Each call is independent;
// uniqueness against live rooms is enforced by the store, not here.
func NewRoomID() (string, error) {
	return gonanoid.Generate(alphabet, length)
}
