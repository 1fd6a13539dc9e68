// Package session keeps the per-user dialogue history.
package session

import (
	"context"
	"time"
)

// SessionService defines the dialogue session store.
// Implementations are safe for concurrent use. Turns of one user are never
// visible to another, and returned slices are copies.
type SessionService interface {
	// GetOrCreate returns the user's turns, creating a session seeded with the
	// system preamble when none exists.
	GetOrCreate(ctx context.Context, userID string) ([]Turn, error)

	// Append adds turns to the end of the user's history, creating the session
	// if needed. The oldest non-preamble turns are dropped beyond MaxTurns.
	Append(ctx context.Context, userID string, turns ...Turn) error

	// Window returns the preamble followed by at most n of the latest turns.
	Window(ctx context.Context, userID string, n int) ([]Turn, error)

	// Evict drops the user's session.
	Evict(ctx context.Context, userID string) error

	// CleanupIdle evicts sessions not touched within idleTTL and returns how many.
	CleanupIdle(ctx context.Context, idleTTL time.Duration) (int64, error)
}

// Turn roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry of a conversation.
type Turn struct {
	Role      string `json:"role"` // "user" | "assistant" | "system"
	Content   string `json:"content"`
	Name      string `json:"name,omitempty"` // function name, if any
	Timestamp int64  `json:"timestamp"`
}

// Config configures a session store.
type Config struct {
	// MaxTurns bounds each history, preamble included (default: 50).
	MaxTurns int
	// Preamble seeds every new session as a system turn. Empty means none.
	Preamble string
}

// DefaultMaxTurns is the default per-user history bound.
const DefaultMaxTurns = 50

func (c Config) withDefaults() Config {
	if c.MaxTurns <= 0 {
		c.MaxTurns = DefaultMaxTurns
	}
	if c.MaxTurns < 2 {
		c.MaxTurns = 2
	}
	return c
}

// seed returns the initial turns of a new session.
func (c Config) seed(now time.Time) []Turn {
	if c.Preamble == "" {
		return []Turn{}
	}
	return []Turn{{Role: RoleSystem, Content: c.Preamble, Timestamp: now.Unix()}}
}

// bound trims turns to max, keeping a leading system turn.
func bound(turns []Turn, max int) []Turn {
	if len(turns) <= max {
		return turns
	}
	if turns[0].Role == RoleSystem {
		tail := turns[len(turns)-(max-1):]
		trimmed := make([]Turn, 0, max)
		trimmed = append(trimmed, turns[0])
		return append(trimmed, tail...)
	}
	return append([]Turn(nil), turns[len(turns)-max:]...)
}

// window returns the leading system turn (if any) plus the last n other turns.
func window(turns []Turn, n int) []Turn {
	result := []Turn{}
	rest := turns
	if len(rest) > 0 && rest[0].Role == RoleSystem {
		result = append(result, rest[0])
		rest = rest[1:]
	}
	if n >= 0 && n < len(rest) {
		rest = rest[len(rest)-n:]
	}
	return append(result, rest...)
}
