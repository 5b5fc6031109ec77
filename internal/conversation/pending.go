package conversation

import (
	"context"
	"fmt"
	"strings"
)

// SetPendingDeletion records a movement awaiting yes/no confirmation for
// identity, replacing any previous one.
func (e *Engine) SetPendingDeletion(identity, movementID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending[identity] = movementID
}

// Confirm consumes identity's pending deletion, if any. Returns false when
// there was nothing pending (the message is not for us). The pending record
// is cleared after one answer regardless of outcome; only a yes issues the
// delete call.
func (e *Engine) Confirm(ctx context.Context, identity int64, text string) (string, bool) {
	e.mu.Lock()
	movementID, ok := e.pending[identity]
	delete(e.pending, identity)
	e.mu.Unlock()

	if !ok {
		return "", false
	}

	answer := strings.ToUpper(strings.TrimSpace(text))
	if answer != "YES" && answer != "SI" {
		return "❌ Deletion cancelled.", true
	}

	client, err := e.sessions.Client(identity)
	if err != nil {
		return NotLoggedIn, true
	}

	if err := client.DeleteMovement(ctx, movementID); err != nil {
		return ErrorReply(e.sessions, identity, err), true
	}
	return fmt.Sprintf("✅ Movement %d deleted.", movementID), true
}
