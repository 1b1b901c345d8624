package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	require.NotNil(t, theme)
	for name, c := range map[string]lipgloss.Color{
		"accent":  theme.Accent,
		"student": theme.Student,
		"text":    theme.Text,
		"faint":   theme.Faint,
		"warning": theme.Warning,
		"error":   theme.Error,
		"border":  theme.Border,
		"bar":     theme.Bar,
	} {
		assert.NotEmpty(t, string(c), name)
	}
}

func TestDefaultTheme_SpeakersAreDistinguishable(t *testing.T) {
	theme := DefaultTheme()

	assert.NotEqual(t, theme.Accent, theme.Student)
	assert.NotEqual(t, theme.Warning, theme.Error)
}

func TestNewStyles_WithTheme(t *testing.T) {
	theme := DefaultTheme()
	styles := NewStyles(theme)

	require.NotNil(t, styles)
	assert.Same(t, theme, styles.Theme())
}

func TestNewStyles_NilTheme(t *testing.T) {
	styles := NewStyles(nil)

	require.NotNil(t, styles)
	assert.Equal(t, DefaultTheme(), styles.Theme())
}

func TestNewStyles_Labels(t *testing.T) {
	theme := DefaultTheme()
	styles := NewStyles(theme)

	assert.True(t, styles.UserLabel.GetBold())
	assert.Equal(t, theme.Student, styles.UserLabel.GetForeground())
	assert.True(t, styles.AssistantLabel.GetBold())
	assert.Equal(t, theme.Accent, styles.AssistantLabel.GetForeground())
	assert.True(t, styles.Incomplete.GetItalic())
	assert.Equal(t, theme.Warning, styles.Incomplete.GetForeground())
}

func TestNewStyles_CustomTheme(t *testing.T) {
	theme := &Theme{Accent: lipgloss.Color("#FF0000"), Student: lipgloss.Color("#00FF00")}
	styles := NewStyles(theme)

	assert.Equal(t, lipgloss.Color("#FF0000"), styles.Title.GetForeground())
	assert.Equal(t, lipgloss.Color("#00FF00"), styles.UserLabel.GetForeground())
}

func TestRender_KeepsText(t *testing.T) {
	styles := DefaultStyles()

	assert.Contains(t, styles.UserLabel.Render("You"), "You")
	assert.Contains(t, styles.Incomplete.Render("[answer incomplete]"), "[answer incomplete]")
	assert.Contains(t, styles.Notice.Render("Added notes.pdf"), "Added notes.pdf")
}
