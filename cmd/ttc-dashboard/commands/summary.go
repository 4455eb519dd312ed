package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/charlie0129/timetocode-dashboard/internal/report"
	"github.com/charlie0129/timetocode-dashboard/internal/store"
	"github.com/charlie0129/timetocode-dashboard/internal/tui"
)

func NewSummaryCommand(g *globals) *cobra.Command {
	var (
		creds   credentials
		filters filterFlags
		width   int
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard metrics for a filter without the interactive view",
		Args:  cobra.NoArgs,
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

			printSummary(cmd.OutOrStdout(), snap, q, time.Now(), loc, width)
			return nil
		},
	}
	creds.register(cmd)
	filters.register(cmd)
	cmd.Flags().IntVar(&width, "width", 80, "output width")
	return cmd
}

func printSummary(w io.Writer, snap *store.Snapshot, q report.Query, now time.Time, loc *time.Location, width int) {
	d := report.Build(snap.Reports, q, now, loc)

	fmt.Fprintf(w, "Período: %s\n", tui.RenderPeriod(d.Range, loc))
	fmt.Fprintf(w, "Relatórios: %d de %d\n", len(d.Reports), len(snap.Reports))
	fmt.Fprintln(w, tui.RenderSummary(d, width))
	fmt.Fprintf(w, "Total: %d registros exibidos\n", len(d.Activities))
}
