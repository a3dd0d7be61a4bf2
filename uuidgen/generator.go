// Package uuidgen mints the time-ordered identifiers used for catalog
// resources. IDs are version 7 UUIDs, so their byte order approximates
// creation order and newest-first listings can sort on the ID alone.
package uuidgen

import (
	"bytes"

	"github.com/google/uuid"
)

// IDGenerator mints time-ordered UUIDs.
type IDGenerator struct{}

// NewIDGenerator returns a new IDGenerator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// ID returns a freshly minted identifier. Generation only fails when the
// system entropy source does, in which case a random (unordered) UUID is
// still returned rather than surfacing an error to every create path.
func (g *IDGenerator) ID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// Less reports whether a sorts before b in byte order. For version 7 UUIDs
// this is creation order.
func Less(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
