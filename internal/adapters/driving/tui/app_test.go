package tui

import (
	"errors"
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studybuddy/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/studybuddy/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

func newTestApp(t *testing.T, chat *mockChatService) *App {
	t.Helper()
	app, err := NewApp(NewPorts(chat))
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	return app
}

// collect runs cmd and returns the messages it produces, flattening batches.
// Only chat messages are kept; spinner and terminal messages are dropped.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, collect(c)...)
		}
		return out
	case messages.ReplyStarted, messages.FragmentReceived, messages.ReplyFinished,
		messages.HistoryCleared, tea.QuitMsg:
		return []tea.Msg{msg}
	default:
		return nil
	}
}

// drive feeds the messages produced by cmd back into the app until the
// exchange settles.
func drive(app *App, cmd tea.Cmd) {
	queue := collect(cmd)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		if _, ok := msg.(tea.QuitMsg); ok {
			continue
		}
		_, next := app.Update(msg)
		queue = append(queue, collect(next)...)
	}
}

func submit(app *App, text string) tea.Cmd {
	app.input.SetValue(text)
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func roles(app *App) []domain.Role {
	out := make([]domain.Role, len(app.entries))
	for i, e := range app.entries {
		out[i] = e.role
	}
	return out
}

func TestNewApp(t *testing.T) {
	t.Run("requires chat service", func(t *testing.T) {
		app, err := NewApp(&Ports{})
		assert.Nil(t, app)
		assert.ErrorIs(t, err, ErrMissingChatService)
	})

	t.Run("starts idle and unsized", func(t *testing.T) {
		app, err := NewApp(NewPorts(&mockChatService{}))
		require.NoError(t, err)
		assert.False(t, app.Ready())
		assert.False(t, app.Busy())
		assert.Equal(t, "Initialising...", app.View())
		assert.NotNil(t, app.Init())
	})
}

func TestApp_WindowSize(t *testing.T) {
	app, err := NewApp(NewPorts(&mockChatService{}))
	require.NoError(t, err)

	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.True(t, app.Ready())
	assert.Equal(t, 120, app.transcript.Width)
	assert.Equal(t, 40-chrome, app.transcript.Height)
	assert.Contains(t, app.View(), "Study Buddy")
}

func TestApp_AskStreamsAnswer(t *testing.T) {
	reply := &mockReply{fragments: []string{"Mitochondria ", "produce ATP."}}
	chat := &mockChatService{reply: reply}
	app := newTestApp(t, chat)

	cmd := submit(app, "What do mitochondria do?")
	assert.True(t, app.Busy())
	assert.Equal(t, status.StateThinking, app.status.State())

	drive(app, cmd)

	assert.False(t, app.Busy())
	assert.Equal(t, []string{"What do mitochondria do?"}, chat.questions)
	assert.Equal(t, []domain.Role{domain.RoleUser, domain.RoleAssistant}, roles(app))
	assert.Equal(t, "Mitochondria produce ATP.", app.entries[1].text)
	assert.False(t, app.entries[1].incomplete)
	assert.True(t, reply.closed)
	assert.NoError(t, app.Err())
	assert.Equal(t, status.StateReady, app.status.State())
	assert.Contains(t, app.transcript.View(), "produce ATP.")
}

func TestApp_BlankQuestionIgnored(t *testing.T) {
	chat := &mockChatService{reply: &mockReply{}}
	app := newTestApp(t, chat)

	cmd := submit(app, "   ")

	assert.Nil(t, cmd)
	assert.Empty(t, chat.questions)
	assert.False(t, app.Busy())
}

func TestApp_TurnFailure(t *testing.T) {
	chat := &mockChatService{err: domain.ErrEmbeddingUnavailable}
	app := newTestApp(t, chat)

	drive(app, submit(app, "anything"))

	assert.False(t, app.Busy())
	assert.ErrorIs(t, app.Err(), domain.ErrEmbeddingUnavailable)
	assert.Equal(t, status.StateError, app.status.State())
	assert.Equal(t, []domain.Role{domain.RoleUser}, roles(app))
}

func TestApp_TurnFailureShowsUploadOutcomes(t *testing.T) {
	chat := &mockChatService{err: &domain.TurnError{
		Outcomes: []domain.IngestOutcome{
			{Source: "notes.txt", Chunks: 2},
			{Source: "scan.pdf", Err: domain.ErrDocumentFormat},
		},
		Err: domain.ErrLLMUnavailable,
	}}
	app := newTestApp(t, chat)

	drive(app, submit(app, "anything"))

	assert.ErrorIs(t, app.Err(), domain.ErrLLMUnavailable)
	assert.Equal(t, 1, app.status.Documents())
	assert.Equal(t, []domain.Role{domain.RoleUser, domain.RoleSystem, domain.RoleSystem}, roles(app))
	assert.Contains(t, app.entries[1].text, "Added notes.txt (2 chunks)")
	assert.Contains(t, app.entries[2].text, "Could not read scan.pdf")
}

func TestApp_InterruptedStreamMarksIncomplete(t *testing.T) {
	reply := &mockReply{fragments: []string{"Half an"}, err: domain.ErrIncompleteAnswer}
	app := newTestApp(t, &mockChatService{reply: reply})

	drive(app, submit(app, "q"))

	require.Len(t, app.entries, 2)
	assert.Equal(t, "Half an", app.entries[1].text)
	assert.True(t, app.entries[1].incomplete)
	assert.ErrorIs(t, app.Err(), domain.ErrIncompleteAnswer)
	assert.Contains(t, app.transcript.View(), "[answer incomplete]")
}

func TestApp_EscStopsAnswer(t *testing.T) {
	reply := &mockReply{fragments: []string{"one ", "two ", "three"}}
	app := newTestApp(t, &mockChatService{reply: reply})

	msgs := collect(submit(app, "q"))
	require.Len(t, msgs, 1)
	started := msgs[0].(messages.ReplyStarted)
	_, next := app.Update(started)

	// First fragment arrives, then the student presses esc.
	fragment := collect(next)
	require.Len(t, fragment, 1)
	_, next = app.Update(fragment[0])
	require.NotNil(t, next)

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, app.Busy())
	assert.True(t, reply.closed)
	assert.Equal(t, "one ", app.entries[1].text)
	assert.True(t, app.entries[1].incomplete)
	assert.Equal(t, "Answer stopped", app.status.Message())

	// Output still in flight from the stopped turn is ignored.
	app.Update(messages.FragmentReceived{Turn: started.Turn, Text: "late"})
	app.Update(messages.ReplyFinished{Turn: started.Turn, Err: errors.New("closed")})
	assert.Equal(t, "one ", app.entries[1].text)
	assert.NoError(t, app.Err())
}

func TestApp_EscBeforeStreamClosesLateReply(t *testing.T) {
	reply := &mockReply{fragments: []string{"x"}}
	app := newTestApp(t, &mockChatService{reply: reply})

	msgs := collect(submit(app, "q"))
	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.Len(t, msgs, 1)
	_, cmd := app.Update(msgs[0])

	assert.Nil(t, cmd)
	assert.True(t, reply.closed)
	assert.Equal(t, []domain.Role{domain.RoleUser}, roles(app))
}

func TestApp_EnterIgnoredWhileBusy(t *testing.T) {
	chat := &mockChatService{reply: &mockReply{}}
	app := newTestApp(t, chat)

	first := submit(app, "first")
	second := submit(app, "second")

	assert.Nil(t, second)
	drive(app, first)
	assert.Equal(t, []string{"first"}, chat.questions)
}

func TestApp_AttachCommand(t *testing.T) {
	reply := &mockReply{
		fragments: []string{"ok"},
		outcomes:  []domain.IngestOutcome{{Source: "notes.txt", Chunks: 2}},
	}
	chat := &mockChatService{reply: reply}
	app := newTestApp(t, chat)
	app.readFile = func(path string) ([]byte, error) {
		if path == "/tmp/notes.txt" {
			return []byte("cells"), nil
		}
		return nil, os.ErrNotExist
	}

	assert.Nil(t, submit(app, "/attach /tmp/notes.txt"))
	require.Len(t, app.pending, 1)
	assert.Equal(t, "notes.txt", app.pending[0].Name)

	submit(app, "/attach /tmp/missing.pdf")
	assert.Contains(t, app.lastEntry().text, "No such file")

	submit(app, "/attach")
	assert.Contains(t, app.lastEntry().text, "Usage")

	drive(app, submit(app, "what divides?"))

	require.Len(t, chat.docs, 1)
	require.Len(t, chat.docs[0], 1)
	assert.Equal(t, []byte("cells"), chat.docs[0][0].Data)
	assert.Empty(t, app.pending)
	assert.Equal(t, 1, app.status.Documents())
	assert.Contains(t, app.transcript.View(), "Added notes.txt (2 chunks)")
}

func TestApp_AttachBeforeStart(t *testing.T) {
	chat := &mockChatService{reply: &mockReply{}}
	app := newTestApp(t, chat)

	app.Attach(domain.UploadedDocument{Name: "a.pdf"}, domain.UploadedDocument{Name: "b.pdf"})
	drive(app, submit(app, "q"))

	require.Len(t, chat.docs, 1)
	assert.Len(t, chat.docs[0], 2)
}

func TestApp_FailedUploadNotice(t *testing.T) {
	reply := &mockReply{outcomes: []domain.IngestOutcome{{Source: "bad.pdf", Err: domain.ErrDocumentFormat}}}
	app := newTestApp(t, &mockChatService{reply: reply})

	drive(app, submit(app, "q"))

	assert.Equal(t, 0, app.status.Documents())
	assert.Contains(t, app.entries[1].text, "Could not read bad.pdf")
}

func TestApp_ClearHistory(t *testing.T) {
	t.Run("via command", func(t *testing.T) {
		chat := &mockChatService{reply: &mockReply{fragments: []string{"a"}}}
		app := newTestApp(t, chat)
		drive(app, submit(app, "q"))
		require.NotEmpty(t, app.entries)

		drive(app, submit(app, "/clear"))

		assert.True(t, chat.cleared)
		assert.Empty(t, app.entries)
		assert.Equal(t, "Conversation cleared", app.status.Message())
	})

	t.Run("via key", func(t *testing.T) {
		chat := &mockChatService{}
		app := newTestApp(t, chat)

		_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
		drive(app, cmd)

		assert.True(t, chat.cleared)
	})

	t.Run("failure", func(t *testing.T) {
		app := newTestApp(t, &mockChatService{clearErr: errors.New("locked")})

		drive(app, submit(app, "/clear"))

		assert.EqualError(t, app.Err(), "locked")
	})
}

func TestApp_DocumentIngestedMessage(t *testing.T) {
	app := newTestApp(t, &mockChatService{})

	app.Update(messages.DocumentIngested{Outcome: domain.IngestOutcome{Source: "week3.pdf", Chunks: 12}})

	assert.Equal(t, 1, app.status.Documents())
	assert.Contains(t, app.lastEntry().text, "Added week3.pdf (12 chunks)")
}

func TestApp_Commands(t *testing.T) {
	t.Run("help toggles", func(t *testing.T) {
		app := newTestApp(t, &mockChatService{})

		submit(app, "/help")
		assert.Contains(t, app.View(), "/attach <file>")

		app.Update(tea.KeyMsg{Type: tea.KeyEsc})
		assert.NotContains(t, app.View(), "/attach <file>   Read")
	})

	t.Run("unknown command", func(t *testing.T) {
		app := newTestApp(t, &mockChatService{})

		submit(app, "/frobnicate")

		assert.Contains(t, app.lastEntry().text, "Unknown command /frobnicate")
	})

	t.Run("quit", func(t *testing.T) {
		app := newTestApp(t, &mockChatService{})

		cmd := submit(app, "/quit")

		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})
}

func TestApp_CtrlCQuits(t *testing.T) {
	reply := &mockReply{fragments: []string{"a", "b"}}
	app := newTestApp(t, &mockChatService{reply: reply})
	msgs := collect(submit(app, "q"))
	app.Update(msgs[0])

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, reply.closed)
	assert.False(t, app.Busy())
}

func TestApp_TypingReachesPrompt(t *testing.T) {
	app := newTestApp(t, &mockChatService{})

	for _, r := range "qj" {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	assert.Equal(t, "qj", app.input.Value())
}

func TestApp_EmptyTranscriptHint(t *testing.T) {
	app := newTestApp(t, &mockChatService{})

	assert.Contains(t, app.View(), "/attach <file>")
}
