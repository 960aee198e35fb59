package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	accentColor    = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	textColor      = lipgloss.Color("#F3F4F6") // Light gray

	// Title styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	// Inline muted text (no margins, for use within lines)
	MutedTextStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	CheckedStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	UncheckedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// Status box buckets
	OnTimeStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	LateCarrierStyle = lipgloss.NewStyle().
				Foreground(errorColor).
				Bold(true)

	LateOtherStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	// Box styles
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 2)

	EditorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 2)

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(errorColor).
			Padding(1, 2)

	// Editor field styles
	FieldLabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(12)

	FocusedFieldLabelStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true).
				Width(12)

	// Table cell styles
	CellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	HeaderCellStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	CursorCellStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(primaryColor).
			Bold(true).
			Padding(0, 1)

	EditingCellStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#000")).
				Background(accentColor).
				Padding(0, 1)

	GroupBandStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	// Help styles
	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)
)

// RenderHelp renders alternating key and description pairs.
func RenderHelp(keys ...string) string {
	var result string
	for i := 0; i < len(keys); i += 2 {
		if i > 0 {
			result += "  "
		}
		key := keys[i]
		desc := ""
		if i+1 < len(keys) {
			desc = keys[i+1]
		}
		result += HelpKeyStyle.Render(key) + " " + desc
	}
	return HelpStyle.Render(result)
}
