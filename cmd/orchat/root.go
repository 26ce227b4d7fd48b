package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/orchat/orchat/internal/config"
	"github.com/orchat/orchat/internal/provider"
	"github.com/orchat/orchat/internal/provider/openrouter"
	"github.com/orchat/orchat/internal/session"
)

// rootFlags are shared by every subcommand. Precedence for each setting is
// flag, then environment, then config file, then default.
type rootFlags struct {
	model   string
	baseURL string
	timeout int
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "orchat",
		Short: "Chat with OpenRouter models from your terminal",
		Long: `orchat is a terminal client for the OpenRouter chat-completion API.
It streams responses, tracks token usage and cost per turn, and saves
conversations as JSON session files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bare `orchat` starts the chat TUI.
			return runChat(cmd, flags, args)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.model, "model", "m", "", "model id (overrides config)")
	pf.StringVar(&flags.baseURL, "base-url", "", "API base URL (overrides config)")
	pf.IntVar(&flags.timeout, "timeout", 0, "per-attempt request timeout in seconds")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newChatCmd(flags),
		newAskCmd(flags),
		newModelsCmd(flags),
		newSessionsCmd(flags),
		newUpdateCmd(),
		newVersionCmd(),
	)
	return cmd
}

// newLogger builds the CLI logger. Debug events (retry attempts, dropped
// frames) only show up with --verbose.
func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(flags *rootFlags) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	if flags.model != "" {
		cfg.Model.Default = flags.model
	}
	if flags.baseURL != "" {
		cfg.BaseURL = flags.baseURL
	}
	if flags.timeout > 0 {
		cfg.Timeout = flags.timeout
	}
	return cfg, nil
}

// buildProvider wires the OpenRouter client from resolved config.
func buildProvider(cfg config.Config, log zerolog.Logger) (provider.Provider, error) {
	return openrouter.New(openrouter.Config{
		APIKey:       config.ResolveAPIKey(cfg),
		BaseURL:      cfg.BaseURL,
		Timeout:      cfg.RequestTimeout(),
		ExtraHeaders: cfg.Headers,
		Logger:       &log,
	})
}

func newSessionStore(cfg config.Config) *session.Store {
	return session.NewStore(config.SessionsDir(cfg))
}

// describeErr appends the remediation hint to classified provider errors so
// the CLI surfaces "what now" along with "what failed".
func describeErr(err error) error {
	if apiErr, ok := provider.AsAPIError(err); ok {
		if hint := apiErr.Remediation(); hint != "" {
			return fmt.Errorf("%w\n%s", err, hint)
		}
	}
	return err
}
