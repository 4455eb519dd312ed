package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charlie0129/timetocode-dashboard/internal/database"
	"github.com/charlie0129/timetocode-dashboard/internal/store"
)

func NewImportCommand(g *globals) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "import <relatorio.json>",
		Short: "Load an exported report file into the local sqlite store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = g.cfg.Store.DatabasePath
			}

			res, err := store.NewFileSource(args[0]).Fetch(cmd.Context(), nil)
			if err != nil {
				return err
			}
			for _, rej := range res.Rejected {
				fmt.Fprintln(cmd.ErrOrStderr(), "skipped:", rej.Error())
			}

			db, err := database.New(dbPath)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer db.Close()

			if err := db.ImportReports(cmd.Context(), args[0], res.Reports); err != nil {
				return err
			}
			total, err := db.CountReports(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d report(s), skipped %d, %d in %s\n",
				len(res.Reports), len(res.Rejected), total, dbPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path (defaults to store.database_path)")
	return cmd
}
