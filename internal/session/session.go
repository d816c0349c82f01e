// Package session persists per-conversation turn logs with a sliding TTL.
//
// A session is an append-only list of turns keyed by session ID. Every
// successful chat turn refreshes the TTL, so a conversation stays alive as
// long as it is active and evaporates after the idle window. Expiry and
// explicit reset are indistinguishable to readers: both yield an empty
// history.
package session

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is the idle window after which a session expires.
const DefaultTTL = 30 * time.Minute

// Roles of a conversation turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrInvalidTurn indicates a turn with an unknown role or empty content.
var ErrInvalidTurn = errors.New("invalid turn")

// Turn is one utterance in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Validate checks that the turn is storable.
func (t Turn) Validate() error {
	if t.Role != RoleUser && t.Role != RoleAssistant {
		return ErrInvalidTurn
	}
	if t.Content == "" {
		return ErrInvalidTurn
	}
	return nil
}

// Store persists conversation logs.
//
// Implementations must keep turns in append order and treat unknown session
// IDs as empty sessions, not errors.
type Store interface {
	// Append adds one turn to the session log and refreshes its TTL.
	Append(ctx context.Context, sessionID string, turn Turn) error

	// History returns every turn of the session in append order. An
	// unknown or expired session yields an empty slice.
	History(ctx context.Context, sessionID string) ([]Turn, error)

	// Touch refreshes the session's TTL without modifying its content.
	// Touching an unknown session is a no-op.
	Touch(ctx context.Context, sessionID string) error

	// Reset deletes the session log. Resetting an unknown session
	// succeeds.
	Reset(ctx context.Context, sessionID string) error
}
