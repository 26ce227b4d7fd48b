package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/orchat/orchat/internal/config"
	"github.com/orchat/orchat/internal/schema"
	"github.com/orchat/orchat/internal/session"
	"github.com/orchat/orchat/internal/tui"
)

func newChatCmd(flags *rootFlags) *cobra.Command {
	var resume string
	var system string
	var budget float64
	var noStream bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if budget > 0 {
				cfg.Budget.MaxUSD = budget
			}

			var sess *schema.Session
			if resume != "" {
				sess, err = session.Load(resume)
				if err != nil {
					return err
				}
				// An explicit --model wins over the model recorded in
				// the session file.
				if flags.model != "" {
					sess.Model = flags.model
				}
			} else {
				if system == "" {
					system = cfg.System
				}
				sess, err = schema.NewSession(cfg.Model.Default, system)
				if err != nil {
					return err
				}
			}
			if cfg.Budget.MaxUSD > 0 {
				sess.Meta["budget_max"] = cfg.Budget.MaxUSD
			}
			return startTUI(flags, cfg, sess, noStream)
		},
	}
	cmd.Flags().StringVar(&resume, "resume", "", "resume a saved session file")
	cmd.Flags().StringVar(&system, "system", "", "system prompt (overrides config)")
	cmd.Flags().Float64Var(&budget, "budget", 0, "advisory spend budget in USD (warnings only)")
	cmd.Flags().BoolVar(&noStream, "no-stream", false, "wait for whole responses instead of streaming")
	return cmd
}

// runChat backs the bare `orchat` invocation: a fresh session with defaults.
func runChat(cmd *cobra.Command, flags *rootFlags, _ []string) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	sess, err := schema.NewSession(cfg.Model.Default, cfg.System)
	if err != nil {
		return err
	}
	if cfg.Budget.MaxUSD > 0 {
		sess.Meta["budget_max"] = cfg.Budget.MaxUSD
	}
	return startTUI(flags, cfg, sess, false)
}

func startTUI(flags *rootFlags, cfg config.Config, sess *schema.Session, noStream bool) error {
	log := newLogger(flags.verbose)
	prov, err := buildProvider(cfg, log)
	if err != nil {
		return describeErr(err)
	}

	model := tui.New(tui.Options{
		Provider:     prov,
		Store:        newSessionStore(cfg),
		Session:      sess,
		BudgetMaxUSD: cfg.Budget.MaxUSD,
		NoStream:     noStream,
		Version:      version,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running chat: %w", err)
	}
	return nil
}
