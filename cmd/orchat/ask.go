package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/orchat/orchat/internal/cli"
	"github.com/orchat/orchat/internal/cost"
	"github.com/orchat/orchat/internal/provider"
	"github.com/orchat/orchat/internal/schema"
	"github.com/orchat/orchat/internal/session"
)

// askOutput is the machine-readable shape printed by `ask --json`.
type askOutput struct {
	Model        string        `json:"model"`
	Content      string        `json:"content"`
	Usage        *schema.Usage `json:"usage,omitempty"`
	LatencyMS    float64       `json:"latency_ms"`
	CostEstimate *float64      `json:"cost_estimate,omitempty"`
}

// askError is the machine-readable failure shape for `ask --json`.
type askError struct {
	Error struct {
		Kind        string `json:"kind"`
		StatusCode  int    `json:"status_code,omitempty"`
		Message     string `json:"message"`
		Remediation string `json:"remediation,omitempty"`
	} `json:"error"`
}

func newAskCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool
	var system string
	var save string
	var noStream bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question and print the answer",
		Long: `Ask sends one question and prints the response to stdout, streaming it
as it arrives. The question comes from the arguments, or from stdin when piped:

  orchat ask "What is 2+2?"
  echo "What is 2+2?" | orchat ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				question = strings.TrimSpace(string(data))
			}
			if question == "" {
				return fmt.Errorf("no question provided; pass it as arguments or pipe to stdin")
			}
			err := runAsk(flags, question, system, save, asJSON, noStream)
			if err != nil && asJSON {
				printJSONError(err)
				// The structured object already carries the details.
				os.Exit(1)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print a JSON object instead of plain text")
	cmd.Flags().StringVar(&system, "system", "", "system prompt (overrides config)")
	cmd.Flags().StringVar(&save, "save", "", "also save the exchange as a session file")
	cmd.Flags().BoolVar(&noStream, "no-stream", false, "wait for the whole response instead of streaming")
	return cmd
}

func runAsk(flags *rootFlags, question, system, save string, asJSON, noStream bool) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if system == "" {
		system = cfg.System
	}
	log := newLogger(flags.verbose)
	prov, err := buildProvider(cfg, log)
	if err != nil {
		return describeErr(err)
	}

	sess, err := schema.NewSession(cfg.Model.Default, system)
	if err != nil {
		return err
	}

	ctx := context.Background()
	msgs := append(sess.AllMessages(), schema.Message{Role: schema.RoleUser, Content: question})
	req := provider.ChatRequest{Model: sess.Model, Messages: msgs}

	// JSON mode buffers the whole response anyway, so streaming buys nothing.
	progressive := !asJSON && !noStream

	start := time.Now()
	var content string
	var usage *schema.Usage
	if progressive {
		content, usage, err = streamToStdout(ctx, prov, req)
	} else {
		var resp *provider.ChatResponse
		resp, err = prov.Chat(ctx, req)
		if err == nil {
			content, usage = resp.Content, resp.Usage
		}
	}
	if err != nil {
		return describeErr(err)
	}
	latencyMS := float64(time.Since(start).Milliseconds())

	if content == "" {
		content = "[Empty response]"
		if progressive {
			fmt.Println(content)
		}
	}

	turnCost := askCost(ctx, prov, sess.Model, usage)

	turn := schema.Turn{
		Messages: []schema.Message{
			{Role: schema.RoleUser, Content: question},
			{Role: schema.RoleAssistant, Content: content},
		},
		Usage:        usage,
		LatencyMS:    &latencyMS,
		CostEstimate: turnCost,
	}
	if err := sess.AddTurn(turn); err != nil {
		return err
	}
	sess.Meta["estimate_usd_total"] = sess.TotalCost()

	if save != "" {
		if err := session.Write(sess, save); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, cli.Dim("Session saved to "+save))
	}

	if asJSON {
		out := askOutput{
			Model:        sess.Model,
			Content:      content,
			Usage:        usage,
			LatencyMS:    latencyMS,
			CostEstimate: turnCost,
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling output: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if !progressive {
		fmt.Println(content)
	}
	if flags.verbose {
		fmt.Fprintln(os.Stderr, cli.Dim(fmt.Sprintf("%s · %s",
			cli.FormatDuration(latencyMS), cli.FormatCostOrUnknown(turnCost))))
	}
	return nil
}

// streamToStdout prints deltas as they arrive and returns the assembled
// response once the stream ends.
func streamToStdout(ctx context.Context, prov provider.Provider, req provider.ChatRequest) (string, *schema.Usage, error) {
	ch, err := prov.StreamChat(ctx, req)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	var usage *schema.Usage
	for delta := range ch {
		if delta.Err != nil {
			fmt.Println()
			return "", nil, delta.Err
		}
		if delta.Done {
			usage = delta.Usage
			continue
		}
		b.WriteString(delta.Content)
		fmt.Print(delta.Content)
	}
	if b.Len() > 0 {
		fmt.Println()
	}
	return b.String(), usage, nil
}

// askCost estimates the turn cost with catalog pricing when the catalog is
// reachable, otherwise with the built-in fallback table. An unreachable
// catalog must not fail the ask itself.
func askCost(ctx context.Context, prov provider.Provider, model string, usage *schema.Usage) *float64 {
	info := schema.ModelInfo{ID: model}
	if mi, err := prov.ModelInfo(ctx, model); err == nil && mi != nil {
		info = *mi
	}
	c, err := cost.ForModel(usage, info)
	if err != nil {
		return nil
	}
	return c
}

func printJSONError(err error) {
	var out askError
	if apiErr, ok := provider.AsAPIError(err); ok {
		out.Error.Kind = string(apiErr.Kind)
		out.Error.StatusCode = apiErr.StatusCode
		out.Error.Message = apiErr.Error()
		out.Error.Remediation = apiErr.Remediation()
	} else {
		out.Error.Kind = "error"
		out.Error.Message = err.Error()
	}
	data, merr := json.MarshalIndent(out, "", "  ")
	if merr != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(string(data))
}
