package engram

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// ID uniquely identifies an engram: a random 128-bit value rendered as
// 32 lowercase hex characters with no separators. The first two characters
// shard the ref namespace (refs/engrams/<ab>/<full-id>).
type ID string

// NewID generates a fresh engram ID.
func NewID() ID {
	u := uuid.New()
	return ID(hex.EncodeToString(u[:]))
}

// ParseID validates an ID or ID prefix. Prefixes must be at least two
// characters so they span a full shard segment.
func ParseID(s string) (ID, error) {
	if len(s) < 2 {
		return "", fmt.Errorf("id must be at least 2 characters, got %d", len(s))
	}
	return ID(s), nil
}

// Shard returns the two-character fanout prefix.
func (id ID) Shard() string {
	if len(id) >= 2 {
		return string(id[:2])
	}
	return "00"
}

// Short returns the first 8 characters for display.
func (id ID) Short() string {
	if len(id) >= 8 {
		return string(id[:8])
	}
	return string(id)
}

func (id ID) String() string {
	return string(id)
}
