package council

import "github.com/google/uuid"

// IDFabric hands out one fresh identifier per entity at creation time.
// Identifiers are never derived from content.
type IDFabric interface {
	New() uuid.UUID
}

// RandomIDs issues random (version 4) UUIDs.
type RandomIDs struct{}

func (RandomIDs) New() uuid.UUID { return uuid.New() }
