package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orchat/orchat/internal/cli"
	"github.com/orchat/orchat/internal/session"
)

func newSessionsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect saved sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved session files, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsList(flags)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <file>",
		Short: "Print a saved session transcript with its cost summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsShow(args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "resume <file>",
		Short: "Continue a saved session in the chat interface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			sess, err := session.Load(args[0])
			if err != nil {
				return err
			}
			if flags.model != "" {
				sess.Model = flags.model
			}
			return startTUI(flags, cfg, sess, false)
		},
	})

	return cmd
}

func runSessionsList(flags *rootFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	store := newSessionStore(cfg)
	paths, err := store.List()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Println(cli.Dim(fmt.Sprintf("No sessions in %s.", store.Dir())))
		return nil
	}

	var rows [][]string
	for _, path := range paths {
		sess, err := session.Load(path)
		if err != nil {
			rows = append(rows, []string{path, "?", "?", "?", err.Error()})
			continue
		}
		rows = append(rows, []string{
			path,
			sess.Model,
			fmt.Sprintf("%d", len(sess.Turns)),
			cli.FormatTokens(sess.UsageTotals.TotalTokens),
			cli.FormatCost(sess.TotalCost()),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"FILE", "MODEL", "TURNS", "TOKENS", "COST"},
		Rows:    rows,
	}))
	return nil
}

func runSessionsShow(path string) error {
	sess, err := session.Load(path)
	if err != nil {
		return err
	}

	fmt.Printf("%s (created %s)\n", sess.Model, sess.CreatedAt.Format("2006-01-02 15:04:05"))
	if sess.System != "" {
		fmt.Println(cli.Dim("system: " + sess.System))
	}
	fmt.Println()

	for i, t := range sess.Turns {
		for _, msg := range t.Messages {
			fmt.Printf("%s: %s\n", msg.Role, msg.Content)
		}
		meta := fmt.Sprintf("turn %d", i+1)
		if t.LatencyMS != nil {
			meta += " · " + cli.FormatDuration(*t.LatencyMS)
		}
		if t.Usage != nil {
			meta += fmt.Sprintf(" · %s in / %s out",
				cli.FormatTokens(t.Usage.PromptTokens), cli.FormatTokens(t.Usage.CompletionTokens))
		}
		meta += " · " + cli.FormatCostOrUnknown(t.CostEstimate)
		fmt.Println(cli.Dim(meta))
		fmt.Println()
	}

	fmt.Printf("%d turns · %s tokens · %s total\n",
		len(sess.Turns),
		cli.FormatTokens(sess.UsageTotals.TotalTokens),
		cli.FormatCost(sess.TotalCost()))
	return nil
}
