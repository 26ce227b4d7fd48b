package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/orchat/orchat/internal/cli"
	"github.com/orchat/orchat/internal/schema"
	"github.com/orchat/orchat/internal/session"
	"github.com/orchat/orchat/internal/update"
)

func (m *Model) handleCommand(cmd *Command) (tea.Model, tea.Cmd) {
	switch cmd.Name {
	case "quit", "exit", "bye":
		return handleQuit(m, cmd.Args)
	case "help":
		return handleHelp(m, cmd.Args)
	case "clear":
		return handleClear(m, cmd.Args)
	case "models":
		return handleModels(m, cmd.Args)
	case "model":
		return handleModel(m, cmd.Args)
	case "system":
		return handleSystem(m, cmd.Args)
	case "cost":
		return handleCost(m, cmd.Args)
	case "save":
		return handleSave(m, cmd.Args)
	case "reset":
		return handleReset(m, cmd.Args)
	case "update":
		return handleUpdate(m, cmd.Args)
	default:
		m.messages = append(m.messages, displayMessage{
			role:    "system",
			content: fmt.Sprintf("Unknown command: /%s. Type /help for a list.", cmd.Name),
		})
		m.updateViewport()
		return m, nil
	}
}

func handleQuit(m *Model, args string) (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Quit
}

func handleHelp(m *Model, args string) (tea.Model, tea.Cmd) {
	m.messages = append(m.messages, displayMessage{
		role:    "system",
		content: HelpText(),
	})
	m.updateViewport()
	return m, nil
}

func handleClear(m *Model, args string) (tea.Model, tea.Cmd) {
	m.messages = nil
	m.updateViewport()
	return m, nil
}

func handleModels(m *Model, args string) (tea.Model, tea.Cmd) {
	return m, m.listModels()
}

func handleModel(m *Model, args string) (tea.Model, tea.Cmd) {
	if args == "" {
		m.messages = append(m.messages, displayMessage{
			role:    "system",
			content: fmt.Sprintf("Current model: %s\nUsage: /model <id>", m.currentModel()),
		})
	} else {
		if m.session != nil {
			m.session.Model = args
		}
		m.messages = append(m.messages, displayMessage{
			role:    "system",
			content: fmt.Sprintf("Switched to model: %s", args),
		})
	}
	m.updateViewport()
	return m, nil
}

func handleSystem(m *Model, args string) (tea.Model, tea.Cmd) {
	content := "No system prompt set."
	if m.session != nil && m.session.System != "" {
		content = "System prompt:\n" + m.session.System
	}
	m.messages = append(m.messages, displayMessage{role: "system", content: content})
	m.updateViewport()
	return m, nil
}

func handleCost(m *Model, args string) (tea.Model, tea.Cmd) {
	if m.session == nil || len(m.session.Turns) == 0 {
		m.messages = append(m.messages, displayMessage{
			role:    "system",
			content: "No turns yet.",
		})
		m.updateViewport()
		return m, nil
	}

	var lines []string
	for i, t := range m.session.Turns {
		line := fmt.Sprintf("Turn %d: %s", i+1, cli.FormatCostOrUnknown(t.CostEstimate))
		if t.Usage != nil {
			line += fmt.Sprintf(" (%s in / %s out)",
				cli.FormatTokens(t.Usage.PromptTokens), cli.FormatTokens(t.Usage.CompletionTokens))
		}
		lines = append(lines, line)
	}
	totals := m.session.UsageTotals
	lines = append(lines, fmt.Sprintf("Total: %s (%s in / %s out)",
		cli.FormatCost(m.session.TotalCost()),
		cli.FormatTokens(totals.PromptTokens), cli.FormatTokens(totals.CompletionTokens)))
	if m.options.BudgetMaxUSD > 0 {
		lines = append(lines, fmt.Sprintf("Budget: %s of %s used",
			cli.FormatCost(m.session.TotalCost()), cli.FormatCost(m.options.BudgetMaxUSD)))
	}

	m.messages = append(m.messages, displayMessage{
		role:    "system",
		content: strings.Join(lines, "\n"),
	})
	m.updateViewport()
	return m, nil
}

func handleSave(m *Model, args string) (tea.Model, tea.Cmd) {
	if m.session == nil || m.options.Store == nil {
		m.messages = append(m.messages, displayMessage{
			role:    "system",
			content: "Session persistence is not configured.",
		})
		m.updateViewport()
		return m, nil
	}

	var path string
	var err error
	if args != "" {
		path = args
		err = saveTo(m, path)
	} else {
		path, err = m.options.Store.Save(m.session)
	}
	if err != nil {
		m.messages = append(m.messages, displayMessage{
			role:    "system",
			content: fmt.Sprintf("Error saving session: %v", err),
		})
	} else {
		m.messages = append(m.messages, displayMessage{
			role:    "system",
			content: fmt.Sprintf("Session saved to %s", path),
		})
	}
	m.updateViewport()
	return m, nil
}

func handleReset(m *Model, args string) (tea.Model, tea.Cmd) {
	if m.session != nil {
		fresh, err := newSessionLike(m.session)
		if err != nil {
			m.messages = append(m.messages, displayMessage{
				role:    "system",
				content: fmt.Sprintf("Error resetting session: %v", err),
			})
			m.updateViewport()
			return m, nil
		}
		m.session = fresh
	}
	m.messages = nil
	m.messages = append(m.messages, displayMessage{
		role:    "system",
		content: "Started a fresh session.",
	})
	m.updateViewport()
	return m, nil
}

func handleUpdate(m *Model, args string) (tea.Model, tea.Cmd) {
	m.messages = append(m.messages, displayMessage{
		role:    "system",
		content: "Checking for updates...",
	})
	m.updateViewport()

	version := m.options.Version
	return m, func() tea.Msg {
		res, err := update.Apply(context.Background(), version)
		return UpdateApplyMsg{Result: res, Err: err}
	}
}

func saveTo(m *Model, path string) error {
	return session.Write(m.session, path)
}

// newSessionLike starts an empty session with the same model, system prompt,
// and metadata as the given one.
func newSessionLike(s *schema.Session) (*schema.Session, error) {
	fresh, err := schema.NewSession(s.Model, s.System)
	if err != nil {
		return nil, err
	}
	for k, v := range s.Meta {
		fresh.Meta[k] = v
	}
	return fresh, nil
}
