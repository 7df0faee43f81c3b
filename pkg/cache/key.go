package cache

import (
	"fmt"
	"strings"
)

// Key identifies a cache entry. String must be unique per distinct key,
// since it is used to share in-flight fetches.
type Key interface {
	comparable
	fmt.Stringer
}

// SingletonKey is the key of a store that holds exactly one value.
type SingletonKey struct{}

// String implements Key.
func (SingletonKey) String() string {
	return "singleton"
}

// ProjectionKey identifies a player's projection over a window of days.
type ProjectionKey struct {
	// PlayerID is the upstream player identifier
	PlayerID string

	// WindowDays is the projection window in days
	WindowDays int
}

// String generates a deterministic key string.
// Format: projection:<playerID>:<windowDays>
//
// Example:
//
//	projection:28268405032:7
func (k ProjectionKey) String() string {
	return fmt.Sprintf("projection:%s:%d", strings.TrimSpace(k.PlayerID), k.WindowDays)
}
