// Package styles provides colour themes and styling for the chat TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour palette of the chat.
type Theme struct {
	// Accent colours the assistant's name and the title.
	Accent lipgloss.Color

	// Student colours the student's name.
	Student lipgloss.Color

	Text  lipgloss.Color
	Faint lipgloss.Color

	Warning lipgloss.Color
	Error   lipgloss.Color

	Border lipgloss.Color

	// Bar is the status bar background.
	Bar lipgloss.Color
}

// DefaultTheme returns the default palette, tuned for dark terminals.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:  lipgloss.Color("#7C3AED"),
		Student: lipgloss.Color("#06B6D4"),
		Text:    lipgloss.Color("#CDD6F4"),
		Faint:   lipgloss.Color("#6C7086"),
		Warning: lipgloss.Color("#F9E2AF"),
		Error:   lipgloss.Color("#F38BA8"),
		Border:  lipgloss.Color("#45475A"),
		Bar:     lipgloss.Color("#181825"),
	}
}

// Styles are the lipgloss styles the chat renders with.
type Styles struct {
	theme *Theme

	Title  lipgloss.Style
	Normal lipgloss.Style
	Muted  lipgloss.Style
	Error  lipgloss.Style

	// Notice renders session events such as ingested documents.
	Notice lipgloss.Style

	// Help renders the key and command reference.
	Help lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style

	// Incomplete marks an answer that was interrupted.
	Incomplete lipgloss.Style
}

// NewStyles creates styles from a theme. A nil theme selects DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title:  lipgloss.NewStyle().Bold(true).Foreground(theme.Accent),
		Normal: lipgloss.NewStyle().Foreground(theme.Text),
		Muted:  lipgloss.NewStyle().Foreground(theme.Faint),
		Error:  lipgloss.NewStyle().Foreground(theme.Error),

		Notice: lipgloss.NewStyle().
			Foreground(theme.Faint).
			PaddingLeft(2),

		Help: lipgloss.NewStyle().
			Foreground(theme.Text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Faint).
			Background(theme.Bar).
			Padding(0, 1),

		UserLabel:      lipgloss.NewStyle().Bold(true).Foreground(theme.Student),
		AssistantLabel: lipgloss.NewStyle().Bold(true).Foreground(theme.Accent),

		Incomplete: lipgloss.NewStyle().Italic(true).Foreground(theme.Warning),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}
