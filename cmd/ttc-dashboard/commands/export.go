package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/charlie0129/timetocode-dashboard/internal/report"
	"github.com/charlie0129/timetocode-dashboard/internal/tui"
)

func NewExportCommand(g *globals) *cobra.Command {
	var (
		creds   credentials
		filters filterFlags
		output  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered reports as a JSON array",
		Long: `Export the reports matching the filters in the dashboard export format
(relatorio.json). Use --output - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := g.cfg.GetTimezone()
			q, err := filters.query(loc)
			if err != nil {
				return err
			}
			snap, closeSrc, err := loadSnapshot(cmd.Context(), g.cfg, &creds)
			if err != nil {
				return err
			}
			defer closeSrc()

			d := report.Build(snap.Reports, q, time.Now(), loc)
			if output == "-" {
				return report.ExportJSON(cmd.OutOrStdout(), d.Reports)
			}
			if err := tui.WriteExport(output, d.Reports); err != nil {
				return err
			}
			slog.Info("exported reports", "path", output, "count", len(d.Reports))
			fmt.Fprintf(cmd.ErrOrStderr(), "%d relatório(s) exportado(s) para %s\n", len(d.Reports), output)
			return nil
		},
	}
	creds.register(cmd)
	filters.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", report.ExportFilename, "output file, - for stdout")
	return cmd
}
