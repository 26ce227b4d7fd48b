package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#6B7280")
	successColor   = lipgloss.Color("#10B981")
	warnColor      = lipgloss.Color("#F59E0B")
	dangerColor    = lipgloss.Color("#EF4444")

	// Status bar
	statusBarStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1)

	// Budget segment inside the status bar; foreground is picked per spend tier.
	statusBudgetStyle = lipgloss.NewStyle().
				Background(primaryColor).
				Bold(true)

	// Messages
	userLabelStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(successColor).
				Bold(true)

	systemMsgStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Italic(true)

	// Per-turn metadata footer
	metaStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	budgetWarnStyle = lipgloss.NewStyle().
			Foreground(warnColor)

	budgetDangerStyle = lipgloss.NewStyle().
				Foreground(dangerColor).
				Bold(true)

	// Input area
	inputPromptStyle = lipgloss.NewStyle().
				Foreground(primaryColor)
)
