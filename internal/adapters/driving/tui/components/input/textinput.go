// Package input provides text input components for the TUI.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/studybuddy/internal/adapters/driving/tui/styles"
)

// PromptInput wraps a bubbles textinput for entering questions and commands.
type PromptInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// NewPromptInput creates a focused prompt.
func NewPromptInput(s *styles.Styles) *PromptInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask about your documents, or /help"
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 50

	return &PromptInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init starts the cursor blinking.
func (s *PromptInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (s *PromptInput) Update(msg tea.Msg) (*PromptInput, tea.Cmd) {
	var cmd tea.Cmd
	s.textinput, cmd = s.textinput.Update(msg)
	return s, cmd
}

// View renders the prompt.
func (s *PromptInput) View() string {
	label := s.styles.UserLabel.Render("You: ")
	input := s.styles.InputField.Render(s.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, input)
}

// Value returns the current input value.
func (s *PromptInput) Value() string {
	return s.textinput.Value()
}

// SetValue sets the input value.
func (s *PromptInput) SetValue(value string) {
	s.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (s *PromptInput) Focus() tea.Cmd {
	return s.textinput.Focus()
}

// Blur removes focus from the input.
func (s *PromptInput) Blur() {
	s.textinput.Blur()
}

// Focused returns whether the input is focused.
func (s *PromptInput) Focused() bool {
	return s.textinput.Focused()
}

// SetWidth sets the width of the input.
func (s *PromptInput) SetWidth(width int) {
	s.width = width
	// Account for label and padding
	inputWidth := width - 10
	if inputWidth < 20 {
		inputWidth = 20
	}
	s.textinput.Width = inputWidth
}

// Width returns the current width.
func (s *PromptInput) Width() int {
	return s.width
}

// Reset clears the input.
func (s *PromptInput) Reset() {
	s.textinput.Reset()
}

// Submit returns the trimmed value and clears the input.
func (s *PromptInput) Submit() string {
	value := strings.TrimSpace(s.textinput.Value())
	s.textinput.Reset()
	return value
}
