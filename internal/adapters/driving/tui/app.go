package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/studybuddy/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/studybuddy/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/studybuddy/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/studybuddy/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/studybuddy/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driving"
)

// chrome is the number of terminal rows used by everything but the transcript:
// title, bordered prompt and status bar.
const chrome = 5

// entry is one block of the rendered transcript.
type entry struct {
	role       domain.Role
	text       string
	incomplete bool
}

// App is the chat TUI following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	transcript viewport.Model
	input      *input.PromptInput
	spinner    spinner.Model
	status     *status.Bar

	entries   []entry
	pending   []domain.UploadedDocument
	documents int
	showHelp  bool

	// turn identifies the active question. Messages from older turns are dropped.
	turn   int
	busy   bool
	reply  driving.Reply
	cancel context.CancelFunc

	readFile func(string) ([]byte, error)

	err    error
	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new chat application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = s.AssistantLabel

	return &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		transcript: viewport.New(80, 20),
		input:      input.NewPromptInput(s),
		spinner:    sp,
		status:     status.NewBar(s, km),
		readFile:   os.ReadFile,
	}, nil
}

// WithContext sets the context for the app. Cancelling it stops any answer in progress.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Attach queues documents to be uploaded with the next question.
func (a *App) Attach(docs ...domain.UploadedDocument) *App {
	a.pending = append(a.pending, docs...)
	a.status.SetPending(len(a.pending))
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.input.Init(),
		tea.SetWindowTitle("studybuddy"),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.ReplyStarted:
		return a, a.handleReplyStarted(msg)

	case messages.FragmentReceived:
		if msg.Turn != a.turn || a.reply == nil {
			return a, nil
		}
		a.lastAnswer().text += msg.Text
		a.refresh()
		return a, nextFragment(a.turn, a.reply)

	case messages.ReplyFinished:
		if msg.Turn != a.turn {
			return a, nil
		}
		a.finishTurn(msg.Err)
		return a, nil

	case messages.DocumentIngested:
		a.recordOutcome(msg.Outcome)
		a.refresh()
		return a, nil

	case messages.HistoryCleared:
		if msg.Err != nil {
			a.fail(msg.Err)
			return a, nil
		}
		a.entries = nil
		a.status.Clear()
		a.status.SetMessage("Conversation cleared")
		a.refresh()
		return a, nil

	case messages.ErrorOccurred:
		a.fail(msg.Err)
		return a, nil

	case messages.Quit:
		a.stop()
		return a, tea.Quit

	case spinner.TickMsg:
		if !a.busy {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.refresh()
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, a.keymap.Quit):
		a.stop()
		return a, tea.Quit

	case keymap.Matches(key, a.keymap.Cancel):
		if a.busy {
			a.stop()
			a.status.SetMessage("Answer stopped")
		} else {
			a.showHelp = false
		}
		return a, nil

	case keymap.Matches(key, a.keymap.Help):
		a.showHelp = !a.showHelp
		return a, nil

	case keymap.Matches(key, a.keymap.Clear):
		if a.busy {
			return a, nil
		}
		return a, a.clearHistory()

	case keymap.Matches(key, a.keymap.ScrollUp), keymap.Matches(key, a.keymap.ScrollDown):
		var cmd tea.Cmd
		a.transcript, cmd = a.transcript.Update(msg)
		return a, cmd

	case keymap.Matches(key, a.keymap.Send):
		if a.busy {
			return a, nil
		}
		text := a.input.Submit()
		if text == "" {
			return a, nil
		}
		if strings.HasPrefix(text, "/") {
			return a, a.runCommand(text)
		}
		return a, a.ask(text)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// ask starts a turn for question with the queued documents.
func (a *App) ask(question string) tea.Cmd {
	a.turn++
	turn := a.turn
	docs := a.pending
	a.pending = nil

	ctx, cancel := context.WithCancel(a.ctx)
	a.cancel = cancel
	a.busy = true
	a.err = nil
	a.showHelp = false

	a.entries = append(a.entries, entry{role: domain.RoleUser, text: question})
	a.status.Clear()
	a.status.SetPending(0)
	a.status.SetState(status.StateThinking)
	a.refresh()

	chat := a.ports.Chat
	return tea.Batch(a.spinner.Tick, func() tea.Msg {
		reply, err := chat.Turn(ctx, question, docs)
		return messages.ReplyStarted{Turn: turn, Reply: reply, Err: err}
	})
}

func (a *App) handleReplyStarted(msg messages.ReplyStarted) tea.Cmd {
	if msg.Turn != a.turn || !a.busy {
		if msg.Reply != nil {
			_ = msg.Reply.Close()
		}
		return nil
	}
	if msg.Err != nil {
		for _, o := range domain.TurnOutcomes(msg.Err) {
			a.recordOutcome(o)
		}
		a.finishTurn(msg.Err)
		return nil
	}

	a.reply = msg.Reply
	for _, o := range msg.Reply.Outcomes() {
		a.recordOutcome(o)
	}
	a.entries = append(a.entries, entry{role: domain.RoleAssistant})
	a.status.SetState(status.StateStreaming)
	a.refresh()
	return nextFragment(a.turn, a.reply)
}

// nextFragment pulls one fragment off the reply.
func nextFragment(turn int, reply driving.Reply) tea.Cmd {
	return func() tea.Msg {
		if reply.Next() {
			return messages.FragmentReceived{Turn: turn, Text: reply.Text()}
		}
		return messages.ReplyFinished{Turn: turn, Err: reply.Err()}
	}
}

// finishTurn releases the turn's resources. A non-nil err marks the answer
// incomplete, keeping whatever text already arrived.
func (a *App) finishTurn(err error) {
	if a.reply != nil {
		_ = a.reply.Close()
		a.reply = nil
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.busy = false

	if err != nil {
		if last := a.lastEntry(); last != nil && last.role == domain.RoleAssistant {
			last.incomplete = true
		}
		a.fail(err)
	} else {
		a.status.Clear()
	}
	a.refresh()
}

// stop abandons the active turn. Messages it still produces are ignored.
func (a *App) stop() {
	if !a.busy {
		return
	}
	a.turn++
	if last := a.lastEntry(); last != nil && last.role == domain.RoleAssistant {
		last.incomplete = true
	}
	if a.reply != nil {
		_ = a.reply.Close()
		a.reply = nil
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.busy = false
	a.status.Clear()
	a.refresh()
}

func (a *App) fail(err error) {
	a.err = err
	a.status.SetState(status.StateError)
	a.status.SetMessage(err.Error())
}

func (a *App) recordOutcome(o domain.IngestOutcome) {
	if o.OK() {
		a.documents++
		a.status.SetDocuments(a.documents)
		a.notice(fmt.Sprintf("Added %s (%d chunks)", o.Source, o.Chunks))
		return
	}
	a.notice(fmt.Sprintf("Could not read %s: %v", o.Source, o.Err))
}

func (a *App) notice(text string) {
	a.entries = append(a.entries, entry{role: domain.RoleSystem, text: text})
}

// runCommand handles slash commands typed at the prompt.
func (a *App) runCommand(line string) tea.Cmd {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/attach", "/upload":
		if arg == "" {
			a.notice("Usage: /attach <file>")
			break
		}
		data, err := a.readFile(arg)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				a.notice("No such file: " + arg)
			} else {
				a.notice(fmt.Sprintf("Could not open %s: %v", arg, err))
			}
			break
		}
		a.Attach(domain.UploadedDocument{Name: filepath.Base(arg), Data: data})
		a.notice(fmt.Sprintf("Attached %s; it will be read with your next question", filepath.Base(arg)))
	case "/clear":
		return a.clearHistory()
	case "/help":
		a.showHelp = !a.showHelp
	case "/quit", "/exit":
		a.stop()
		return tea.Quit
	default:
		a.notice("Unknown command " + name + ". Try /help")
	}
	a.refresh()
	return nil
}

func (a *App) clearHistory() tea.Cmd {
	chat := a.ports.Chat
	ctx := a.ctx
	return func() tea.Msg {
		return messages.HistoryCleared{Err: chat.ClearHistory(ctx)}
	}
}

func (a *App) lastEntry() *entry {
	if len(a.entries) == 0 {
		return nil
	}
	return &a.entries[len(a.entries)-1]
}

// lastAnswer returns the assistant entry being streamed, creating it if a
// notice was appended after it.
func (a *App) lastAnswer() *entry {
	if last := a.lastEntry(); last != nil && last.role == domain.RoleAssistant {
		return last
	}
	a.entries = append(a.entries, entry{role: domain.RoleAssistant})
	return a.lastEntry()
}

// refresh re-renders the transcript and keeps it scrolled to the end.
func (a *App) refresh() {
	a.transcript.SetContent(a.renderTranscript())
	a.transcript.GotoBottom()
}

func (a *App) renderTranscript() string {
	if len(a.entries) == 0 {
		return a.styles.Muted.Render(
			"Attach notes with /attach <file> and ask a question. Answers use only your documents.")
	}

	width := a.transcript.Width
	if width <= 0 {
		width = 80
	}
	wrap := lipgloss.NewStyle().Width(width)

	blocks := make([]string, 0, len(a.entries))
	for i, e := range a.entries {
		switch e.role {
		case domain.RoleUser:
			blocks = append(blocks, a.styles.UserLabel.Render("You")+"\n"+wrap.Render(e.text))
		case domain.RoleAssistant:
			body := e.text
			if a.busy && i == len(a.entries)-1 {
				body += a.spinner.View()
			}
			block := a.styles.AssistantLabel.Render("Study Buddy") + "\n" + wrap.Render(body)
			if e.incomplete {
				block += "\n" + a.styles.Incomplete.Render("[answer incomplete]")
			}
			blocks = append(blocks, block)
		default:
			blocks = append(blocks, a.styles.Notice.Render(wrap.Render("• "+e.text)))
		}
	}
	if a.busy && a.reply == nil {
		blocks = append(blocks, a.spinner.View()+" "+a.styles.Muted.Render("reading your documents"))
	}
	return strings.Join(blocks, "\n\n")
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	body := a.transcript.View()
	if a.showHelp {
		body = a.viewHelp()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.styles.Title.Render("Study Buddy"),
		body,
		a.input.View(),
		a.status.View(),
	)
}

func (a *App) viewHelp() string {
	return a.styles.Help.Render(helpText)
}

const helpText = `Help

Keys:
  enter       Ask the question
  esc         Stop the answer being written
  ctrl+l      Clear the conversation
  pgup/pgdn   Scroll the conversation
  ctrl+h      Toggle this help
  ctrl+c      Quit

Commands:
  /attach <file>   Read a file together with your next question
  /clear           Clear the conversation
  /help            Toggle this help
  /quit            Quit

[esc] back to chat`

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Busy reports whether a question is being answered.
func (a *App) Busy() bool {
	return a.busy
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been sized.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	transcriptHeight := height - chrome
	if transcriptHeight < 3 {
		transcriptHeight = 3
	}
	a.transcript.Width = width
	a.transcript.Height = transcriptHeight
	a.input.SetWidth(width)
	a.status.SetWidth(width)
	a.refresh()
}
