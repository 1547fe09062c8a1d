// internal/state/store.go
//
// Conversation state persistence. Each record is keyed per user per
// channel and expires on its own so abandoned flows cannot wedge a
// conversation.
package state

import (
	"context"
	"fmt"

	"itbot/internal/models"
)

// Store reads and writes per-conversation dialogue state.
type Store interface {
	// Get returns the current state, or nil when none is stored.
	Get(ctx context.Context, userID, channelID string) (*models.ConversationState, error)
	// Save replaces the state and resets its TTL.
	Save(ctx context.Context, userID, channelID string, st *models.ConversationState) error
	// Delete removes the state. Deleting a missing key is not an error.
	Delete(ctx context.Context, userID, channelID string) error
}

// Key builds the storage key for a conversation.
func Key(userID, channelID string) string {
	return fmt.Sprintf("state:%s:%s", userID, channelID)
}
