// Package messages defines Bubbletea message types for the chat TUI.
// Messages represent events that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driving"
)

// ReplyStarted is sent when a chat turn has ingested its uploads and
// opened the answer stream. Reply is nil when Err is set.
type ReplyStarted struct {
	Turn  int
	Reply driving.Reply
	Err   error
}

// FragmentReceived carries the next piece of a streamed answer.
type FragmentReceived struct {
	Turn int
	Text string
}

// ReplyFinished is sent when the answer stream ends. Err is nil for a
// complete answer.
type ReplyFinished struct {
	Turn int
	Err  error
}

// DocumentQueued is sent when a file is attached to the next question.
type DocumentQueued struct {
	Name string
}

// DocumentIngested reports a document ingested outside a chat turn, for
// example by a directory watcher.
type DocumentIngested struct {
	Outcome domain.IngestOutcome
}

// HistoryCleared is sent after the conversation has been forgotten.
type HistoryCleared struct {
	Err error
}

// ErrorOccurred is sent when an operation fails outside a turn.
type ErrorOccurred struct {
	Err error
}

// Quit is sent to exit the application.
type Quit struct{}
