package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorBorder    = lipgloss.ANSIColor(8)  // bright black
	colorTitle     = lipgloss.ANSIColor(14) // bright cyan
	colorText      = lipgloss.ANSIColor(7)
	colorRecording = lipgloss.ANSIColor(9) // bright red
	colorOK        = lipgloss.ANSIColor(10)
)

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorTitle).
			Bold(true)

	stateStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	recordingStyle = lipgloss.NewStyle().
			Foreground(colorRecording).
			Bold(true)

	timeStyle = lipgloss.NewStyle().
			Foreground(colorText)

	savedStyle = lipgloss.NewStyle().
			Foreground(colorOK)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorBorder)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.ANSIColor(9))
)
