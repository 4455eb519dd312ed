package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/charlie0129/timetocode-dashboard/internal/config"
)

// globals shared by every subcommand
type globals struct {
	configPath string
	cfg        *config.Config
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:   "ttc-dashboard",
		Short: "Reporting dashboard for Time to Code activity reports",
		Long: `ttc-dashboard serves the administrator dashboard over the recorded
developer-activity reports: filter by user, project and date, view productivity
metrics and per-file edit time, and export the selection as relatorio.json.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(g.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			g.cfg = cfg
			setupLogging(logOutput(cmd), cfg)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "config.yaml", "path to config file")
	rootCmd.AddCommand(
		NewServeCommand(g),
		NewTUICommand(g),
		NewSummaryCommand(g),
		NewExportCommand(g),
		NewImportCommand(g),
	)
	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// logOutput keeps logs out of the way of command output: the server logs to
// stdout, batch commands to stderr and the terminal UI not at all.
func logOutput(cmd *cobra.Command) io.Writer {
	switch cmd.Name() {
	case "serve":
		return os.Stdout
	case "tui":
		return io.Discard
	default:
		return os.Stderr
	}
}

// setupLogging installs the structured JSON logger.
func setupLogging(w io.Writer, cfg *config.Config) {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.GetLogLevel(),
	}))
	slog.SetDefault(logger)
}
