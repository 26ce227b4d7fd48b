// Package tui implements the interactive chat screen on Bubble Tea. It owns
// the streaming lifecycle: a turn is committed to the session ledger only when
// its stream finishes cleanly, and a cancelled or failed stream leaves the
// ledger untouched.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/orchat/orchat/internal/cli"
	"github.com/orchat/orchat/internal/cost"
	"github.com/orchat/orchat/internal/provider"
	"github.com/orchat/orchat/internal/schema"
	"github.com/orchat/orchat/internal/session"
	"github.com/orchat/orchat/internal/update"
)

// Options configures the TUI.
type Options struct {
	Provider provider.Provider
	Store    *session.Store
	Session  *schema.Session

	// BudgetMaxUSD caps nothing; it only drives warnings in the status bar.
	BudgetMaxUSD float64
	// NoStream switches to whole-response completions instead of SSE.
	NoStream bool
	Version  string
}

// StreamStartedMsg carries the channel after the stream connection is established.
type StreamStartedMsg struct {
	Ch <-chan provider.StreamDelta
}

// StreamDeltaMsg carries a streaming token.
type StreamDeltaMsg struct {
	Content string
}

// StreamDoneMsg signals the end of a streaming response.
type StreamDoneMsg struct {
	Usage *schema.Usage
}

// StreamErrMsg carries a streaming error.
type StreamErrMsg struct {
	Err error
}

// ChatDoneMsg carries a whole non-streamed completion.
type ChatDoneMsg struct {
	Content string
	Usage   *schema.Usage
}

// ModelListMsg carries the result of listing models.
type ModelListMsg struct {
	Models []schema.ModelInfo
	Err    error
	// Show controls whether the list is printed. The catalog is also fetched
	// silently at startup for pricing lookups.
	Show bool
}

// UpdateApplyMsg carries the result of an update apply.
type UpdateApplyMsg struct {
	Result *update.Result
	Err    error
}

// Model is the Bubble Tea model for the chat TUI.
type Model struct {
	options  Options
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	messages []displayMessage
	width    int
	height   int

	session *schema.Session

	streaming      bool
	streamContent  string
	streamCancelFn context.CancelFunc
	streamCh       <-chan provider.StreamDelta
	streamStart    time.Time
	pendingInput   string // user message of the in-flight turn
	waiting        bool   // true while waiting for first token

	// catalog caches model pricing from the provider, keyed by model id.
	catalog map[string]schema.ModelInfo

	mdRenderer *glamour.TermRenderer
	err        error
	ready      bool
	quitting   bool
}

type displayMessage struct {
	role    string
	content string
	meta    string // footer under assistant messages: tokens, latency, cost
}

// New creates a new TUI model.
func New(opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Type a message... (Alt+Enter for newline)"
	ta.Focus()
	ta.CharLimit = 4096
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.Prompt = inputPromptStyle.Render("> ")

	vp := viewport.New(80, 20)

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(76),
	)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = assistantLabelStyle

	m := Model{
		options:    opts,
		textarea:   ta,
		viewport:   vp,
		spinner:    sp,
		mdRenderer: renderer,
		session:    opts.Session,
		catalog:    map[string]schema.ModelInfo{},
	}

	// A resumed session replays its transcript into the display.
	if m.session != nil {
		for _, t := range m.session.Turns {
			for _, msg := range t.Messages {
				m.messages = append(m.messages, displayMessage{
					role:    string(msg.Role),
					content: msg.Content,
				})
			}
		}
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.fetchCatalog())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.streaming && m.streamCancelFn != nil {
				m.streamCancelFn()
				m.streaming = false
				m.waiting = false
				m.streamContent = ""
				m.pendingInput = ""
				m.messages = append(m.messages, displayMessage{
					role:    "system",
					content: "Cancelled. The partial response was discarded.",
				})
				m.updateViewport()
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit

		case tea.KeyEnter:
			if m.streaming {
				return m, nil
			}
			if msg.Alt {
				m.textarea.InsertString("\n")
				return m, nil
			}
			return m.handleSubmit()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		statusH := 1
		inputH := 3
		viewH := m.height - statusH - inputH
		if viewH < 1 {
			viewH = 1
		}
		m.viewport.Width = m.width
		m.viewport.Height = viewH
		m.textarea.SetWidth(m.width)
		m.ready = true
		m.updateViewport()

	case StreamStartedMsg:
		if !m.streaming {
			return m, nil
		}
		m.streamCh = msg.Ch
		m.waiting = true
		m.updateViewport()
		return m, tea.Batch(waitForDelta(m.streamCh), m.spinner.Tick)

	case StreamDeltaMsg:
		if !m.streaming {
			return m, nil
		}
		m.waiting = false
		m.streamContent += msg.Content
		m.updateViewport()
		return m, waitForDelta(m.streamCh)

	case StreamDoneMsg:
		return m.commitTurn(msg.Usage)

	case ChatDoneMsg:
		m.streamContent = msg.Content
		return m.commitTurn(msg.Usage)

	case StreamErrMsg:
		if !m.streaming {
			return m, nil
		}
		m.streaming = false
		m.waiting = false
		m.err = msg.Err
		m.streamContent = ""
		m.pendingInput = ""
		content := fmt.Sprintf("Error: %v", msg.Err)
		if apiErr, ok := provider.AsAPIError(msg.Err); ok {
			if hint := apiErr.Remediation(); hint != "" {
				content += "\n" + hint
			}
		}
		m.messages = append(m.messages, displayMessage{role: "system", content: content})
		m.updateViewport()
		return m, nil

	case UpdateApplyMsg:
		if msg.Err != nil {
			m.messages = append(m.messages, displayMessage{
				role:    "system",
				content: fmt.Sprintf("Update failed: %v", msg.Err),
			})
		} else if msg.Result.Applied {
			m.messages = append(m.messages, displayMessage{
				role:    "system",
				content: fmt.Sprintf("Updated to v%s. Restart orchat to use the new version.", msg.Result.LatestVersion),
			})
		} else {
			m.messages = append(m.messages, displayMessage{
				role:    "system",
				content: "Already running the latest version.",
			})
		}
		m.updateViewport()
		return m, nil

	case ModelListMsg:
		if msg.Err == nil {
			for _, info := range msg.Models {
				m.catalog[info.ID] = info
			}
		}
		if !msg.Show {
			return m, nil
		}
		if msg.Err != nil {
			m.messages = append(m.messages, displayMessage{
				role:    "system",
				content: fmt.Sprintf("Error listing models: %v", msg.Err),
			})
		} else {
			var lines []string
			lines = append(lines, "Available models:")
			for _, info := range msg.Models {
				marker := "  "
				if info.ID == m.currentModel() {
					marker = "* "
				}
				lines = append(lines, fmt.Sprintf("%s%-40s  ctx %s  in %s  out %s",
					marker, info.ID,
					cli.FormatContextLength(info.ContextLength),
					cli.FormatPrice(info.PricingPrompt),
					cli.FormatPrice(info.PricingCompletion)))
			}
			m.messages = append(m.messages, displayMessage{
				role:    "system",
				content: strings.Join(lines, "\n"),
			})
		}
		m.updateViewport()
		return m, nil
	}

	// Update spinner when streaming with no content yet
	if m.streaming && m.streamContent == "" {
		var spCmd tea.Cmd
		m.spinner, spCmd = m.spinner.Update(msg)
		cmds = append(cmds, spCmd)
		m.updateViewport()
	}

	// Update textarea
	if !m.streaming {
		var taCmd tea.Cmd
		m.textarea, taCmd = m.textarea.Update(msg)
		cmds = append(cmds, taCmd)
	}

	// Update viewport
	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if !m.ready {
		return "Initializing..."
	}

	var totalCost float64
	var turns int
	if m.session != nil {
		totalCost = m.session.TotalCost()
		turns = len(m.session.Turns)
	}
	status := StatusBar(m.currentModel(), turns, totalCost, m.options.BudgetMaxUSD, m.width)
	separator := lipgloss.NewStyle().
		Foreground(secondaryColor).
		Width(m.width).
		Render(strings.Repeat("─", m.width))

	return fmt.Sprintf("%s\n%s\n%s\n%s",
		status,
		m.viewport.View(),
		separator,
		m.textarea.View(),
	)
}

func (m *Model) currentModel() string {
	if m.session != nil {
		return m.session.Model
	}
	return ""
}

func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}
	m.textarea.Reset()

	// Check for slash command
	if cmd := ParseCommand(input); cmd != nil {
		return m.handleCommand(cmd)
	}

	m.messages = append(m.messages, displayMessage{role: "user", content: input})

	// The turn reaches the ledger only after the stream completes; until then
	// the user message lives in pendingInput.
	m.pendingInput = input
	m.streaming = true
	m.waiting = true
	m.streamContent = ""
	m.streamStart = time.Now()

	// Update viewport after setting waiting=true so the spinner renders immediately
	m.updateViewport()

	ctx, cancel := context.WithCancel(context.Background())
	m.streamCancelFn = cancel

	return m, tea.Batch(m.startStream(ctx, input), m.spinner.Tick)
}

func (m *Model) startStream(ctx context.Context, userInput string) tea.Cmd {
	// Capture what we need so the closure does not rely on m fields surviving
	prov := m.options.Provider
	model := m.currentModel()
	noStream := m.options.NoStream
	msgs := append(m.session.AllMessages(), schema.Message{
		Role:    schema.RoleUser,
		Content: userInput,
	})

	return func() tea.Msg {
		req := provider.ChatRequest{Model: model, Messages: msgs}
		if noStream {
			resp, err := prov.Chat(ctx, req)
			if err != nil {
				return StreamErrMsg{Err: err}
			}
			return ChatDoneMsg{Content: resp.Content, Usage: resp.Usage}
		}
		ch, err := prov.StreamChat(ctx, req)
		if err != nil {
			return StreamErrMsg{Err: err}
		}
		return StreamStartedMsg{Ch: ch}
	}
}

// commitTurn appends the finished exchange to the session ledger and renders
// the assistant message with its metadata footer. After a cancel the pending
// stream still drains and its channel close arrives here; by then streaming is
// already off and the message is stale, so it is dropped.
func (m Model) commitTurn(usage *schema.Usage) (tea.Model, tea.Cmd) {
	if !m.streaming {
		return m, nil
	}
	m.streaming = false
	m.waiting = false

	content := m.streamContent
	m.streamContent = ""
	userInput := m.pendingInput
	m.pendingInput = ""

	if content == "" {
		content = "[Empty response]"
	}

	latencyMS := float64(time.Since(m.streamStart).Milliseconds())

	info, ok := m.catalog[m.currentModel()]
	if !ok {
		info = schema.ModelInfo{ID: m.currentModel()}
	}
	turnCost, err := cost.ForModel(usage, info)
	if err != nil {
		turnCost = nil
	}

	turn := schema.Turn{
		Messages: []schema.Message{
			{Role: schema.RoleUser, Content: userInput},
			{Role: schema.RoleAssistant, Content: content},
		},
		Usage:        usage,
		LatencyMS:    &latencyMS,
		CostEstimate: turnCost,
	}
	if m.session != nil {
		if err := m.session.AddTurn(turn); err != nil {
			m.messages = append(m.messages, displayMessage{
				role:    "system",
				content: fmt.Sprintf("Error recording turn: %v", err),
			})
		} else {
			m.session.Meta["estimate_usd_total"] = m.session.TotalCost()
		}
	}

	meta := turnMeta(usage, latencyMS, turnCost)
	m.messages = append(m.messages, displayMessage{
		role:    "assistant",
		content: content,
		meta:    meta,
	})

	if m.session != nil {
		if notice := budgetNotice(m.session.TotalCost(), m.options.BudgetMaxUSD); notice != "" {
			m.messages = append(m.messages, displayMessage{role: "system", content: notice})
		}
	}

	m.updateViewport()
	return m, nil
}

// turnMeta formats the footer line shown under an assistant message.
func turnMeta(usage *schema.Usage, latencyMS float64, turnCost *float64) string {
	parts := []string{cli.FormatDuration(latencyMS)}
	if usage != nil {
		parts = append(parts, fmt.Sprintf("%s in / %s out",
			cli.FormatTokens(usage.PromptTokens), cli.FormatTokens(usage.CompletionTokens)))
	}
	parts = append(parts, cli.FormatCostOrUnknown(turnCost))
	return strings.Join(parts, " · ")
}

// waitForDelta reads the next item from a stream channel.
func waitForDelta(ch <-chan provider.StreamDelta) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		delta, ok := <-ch
		if !ok {
			return StreamDoneMsg{}
		}
		if delta.Err != nil {
			return StreamErrMsg{Err: delta.Err}
		}
		if delta.Done {
			return StreamDoneMsg{Usage: delta.Usage}
		}
		return StreamDeltaMsg{Content: delta.Content}
	}
}

func (m *Model) renderMarkdown(content string) string {
	if m.mdRenderer == nil {
		return content
	}
	rendered, err := m.mdRenderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimSpace(rendered)
}

func (m *Model) updateViewport() {
	var lines []string
	for _, msg := range m.messages {
		switch msg.role {
		case "user":
			label := userLabelStyle.Render("You: ")
			lines = append(lines, lipgloss.NewStyle().Width(m.width).Render(label+msg.content))
		case "assistant":
			label := assistantLabelStyle.Render("Assistant: ")
			rendered := m.renderMarkdown(msg.content)
			lines = append(lines, label+rendered)
			if msg.meta != "" {
				lines = append(lines, metaStyle.Render(msg.meta))
			}
		case "system":
			lines = append(lines, systemMsgStyle.Render(msg.content))
		}
		lines = append(lines, "")
	}

	// Show spinner while waiting for the first token
	if m.streaming && m.streamContent == "" {
		lines = append(lines, m.spinner.View()+" Thinking...")
		lines = append(lines, "")
	}

	// Show streaming content (no markdown rendering during streaming for speed)
	if m.streaming && m.streamContent != "" {
		label := assistantLabelStyle.Render("Assistant: ")
		lines = append(lines, lipgloss.NewStyle().Width(m.width).Render(label+m.streamContent+"▌"))
		lines = append(lines, "")
	}

	content := strings.Join(lines, "\n")
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

func (m *Model) fetchCatalog() tea.Cmd {
	prov := m.options.Provider
	return func() tea.Msg {
		models, err := prov.ListModels(context.Background())
		return ModelListMsg{Models: models, Err: err}
	}
}

func (m *Model) listModels() tea.Cmd {
	prov := m.options.Provider
	return func() tea.Msg {
		models, err := prov.ListModels(context.Background())
		return ModelListMsg{Models: models, Err: err, Show: true}
	}
}
