package tui

import (
	"fmt"

	"github.com/orchat/orchat/internal/cli"
)

// StatusBar renders the top status bar: model, turn count, running cost, and
// the budget state when a budget is configured.
func StatusBar(model string, turns int, totalCost, budgetMax float64, width int) string {
	text := fmt.Sprintf("  orchat - %s  |  %d turns  |  %s", model, turns, cli.FormatCost(totalCost))
	if budgetMax > 0 {
		text += "  |  " + budgetStatus(totalCost, budgetMax)
	}
	text += "  "
	return statusBarStyle.Width(width).Render(text)
}

// budgetStatus colors the budget segment by how much of it is spent: green
// below 70%, yellow below 90%, red from 90% up.
func budgetStatus(totalCost, budgetMax float64) string {
	pct := totalCost / budgetMax * 100
	color := successColor
	switch {
	case pct >= 90:
		color = dangerColor
	case pct >= 70:
		color = warnColor
	}
	return statusBudgetStyle.Foreground(color).Render(fmt.Sprintf("Budget: %s / %s (%.0f%%)",
		cli.FormatCost(totalCost), cli.FormatCost(budgetMax), pct))
}

// budgetNotice returns a warning line once spend reaches 80% of the configured
// budget, escalating when the budget is exceeded, or "" when there is nothing
// to say. The budget is advisory: requests are never blocked.
func budgetNotice(totalCost, budgetMax float64) string {
	if budgetMax <= 0 {
		return ""
	}
	pct := totalCost / budgetMax * 100
	switch {
	case pct >= 100:
		return budgetDangerStyle.Render(fmt.Sprintf("Budget exceeded: %s / %s",
			cli.FormatCost(totalCost), cli.FormatCost(budgetMax)))
	case pct >= 80:
		return budgetWarnStyle.Render(fmt.Sprintf("Budget nearly exhausted: %s / %s (%.0f%%)",
			cli.FormatCost(totalCost), cli.FormatCost(budgetMax), pct))
	}
	return ""
}
