package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/charlie0129/timetocode-dashboard/internal/store"
	"github.com/charlie0129/timetocode-dashboard/internal/tui"
)

func NewTUICommand(g *globals) *cobra.Command {
	var (
		creds  credentials
		output string
	)
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse the dashboard in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runTUI(ctx, g, &creds, output)
		},
	}
	creds.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "relatorio.json", "file written by the export key")
	return cmd
}

func runTUI(ctx context.Context, g *globals, creds *credentials, output string) error {
	src, closeSrc, err := newSource(g.cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	id, err := creds.signIn(ctx, g.cfg)
	if err != nil {
		return err
	}
	var tokens oauth2.TokenSource
	switch {
	case id.Source != nil:
		tokens = id.Source
	case id.Token != nil:
		tokens = oauth2.StaticTokenSource(id.Token)
	}
	return tui.Run(ctx, store.NewLoader(src), tui.Options{
		Tokens:     tokens,
		Location:   g.cfg.GetTimezone(),
		ExportPath: output,
	})
}
