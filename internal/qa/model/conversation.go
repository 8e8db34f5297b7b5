package model

import (
	"context"
)

// ConversationRepository persists the parent-facing conversation across
// requests so follow-up questions can be answered with context.
type ConversationRepository interface {
	// Append adds one message to the session's history.
	Append(ctx context.Context, sessionID string, msg ConversationMessage) error

	// History returns the session's messages in order.
	History(ctx context.Context, sessionID string) ([]ConversationMessage, error)

	// Clear removes all history for the session.
	Clear(ctx context.Context, sessionID string) error
}
