package ecomentor

import "github.com/nicholidev/eco-mentor/id"

// ID is the primary identifier type for all eco-mentor entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
