package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orchat/orchat/internal/cli"
	"github.com/orchat/orchat/internal/schema"
)

func newModelsCmd(flags *rootFlags) *cobra.Command {
	var filter string
	var details bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List available models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelsList(flags, filter, details)
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "only show models whose id contains this substring")
	cmd.Flags().BoolVar(&details, "details", false, "include the model description column")

	cmd.AddCommand(&cobra.Command{
		Use:   "info <model-id>",
		Short: "Show details for one model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelInfo(flags, args[0])
		},
	})
	return cmd
}

func runModelsList(flags *rootFlags, filter string, details bool) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	prov, err := buildProvider(cfg, newLogger(flags.verbose))
	if err != nil {
		return describeErr(err)
	}

	models, err := prov.ListModels(context.Background())
	if err != nil {
		return describeErr(err)
	}

	filter = strings.ToLower(strings.TrimSpace(filter))
	headers := []string{"MODEL", "CONTEXT", "PROMPT", "COMPLETION"}
	if details {
		headers = append(headers, "DESCRIPTION")
	}

	var rows [][]string
	for _, m := range models {
		if filter != "" && !strings.Contains(strings.ToLower(m.ID), filter) {
			continue
		}
		row := []string{
			m.ID,
			cli.FormatContextLength(m.ContextLength),
			cli.FormatPrice(m.PricingPrompt),
			cli.FormatPrice(m.PricingCompletion),
		}
		if details {
			row = append(row, cli.Truncate(m.Description, 60))
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		if filter != "" {
			fmt.Println(cli.Dim(fmt.Sprintf("No models matching %q.", filter)))
		} else {
			fmt.Println(cli.Dim("No models available."))
		}
		return nil
	}

	fmt.Print(cli.RenderTable(cli.Table{Headers: headers, Rows: rows}))
	fmt.Println(cli.Dim(fmt.Sprintf("%d models (prices in USD per 1M tokens)", len(rows))))
	return nil
}

func runModelInfo(flags *rootFlags, id string) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	prov, err := buildProvider(cfg, newLogger(flags.verbose))
	if err != nil {
		return describeErr(err)
	}

	info, err := prov.ModelInfo(context.Background(), id)
	if err != nil {
		return describeErr(err)
	}
	printModelInfo(*info)
	return nil
}

func printModelInfo(info schema.ModelInfo) {
	fmt.Println(info.ID)
	fmt.Printf("  context:    %s\n", cli.FormatContextLength(info.ContextLength))
	fmt.Printf("  prompt:     %s\n", cli.FormatPrice(info.PricingPrompt))
	fmt.Printf("  completion: %s\n", cli.FormatPrice(info.PricingCompletion))
	if info.Description != "" {
		fmt.Printf("  %s\n", info.Description)
	}
}
