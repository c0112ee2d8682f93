package output

import "github.com/charmbracelet/lipgloss"

// Styles shared by the pretty formatter.
var (
	// LabelStyle renders field labels.
	LabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Bold(true)

	// ValueStyle renders field values.
	ValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

	// MutedStyle renders secondary information.
	MutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	// SuccessStyle renders success messages.
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	// WarningStyle renders warnings.
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	// TableHeaderStyle renders column headers.
	TableHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)

	// FavoriteStyle renders the favorite marker.
	FavoriteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))

	// HeaderBox frames the summary header.
	HeaderBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)
