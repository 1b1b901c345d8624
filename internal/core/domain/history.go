package domain

import "time"

// HistoryEntry is one rendered turn of the conversation.
// History is display-only and is never fed back into generation.
type HistoryEntry struct {
	// Role is RoleUser or RoleAssistant.
	Role Role

	// Text is the question or the complete answer.
	Text string

	// At is when the entry was recorded.
	At time.Time
}
