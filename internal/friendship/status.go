package friendship

import "tabletop/backend/internal/models"

// View is the relationship as the current user sees it.
type View string

const (
	ViewNone            View = "none"
	ViewPendingSent     View = "pending_sent"
	ViewPendingReceived View = "pending_received"
	ViewFriends         View = "friends"
)

// StatusOf classifies the pair from the current user's side.
func StatusOf(pair Pair) View {
	rel := pair.find()
	switch {
	case rel == nil:
		return ViewNone
	case rel.Status == models.StatusAccepted:
		return ViewFriends
	case rel == pair.Forward:
		return ViewPendingSent
	default:
		return ViewPendingReceived
	}
}
