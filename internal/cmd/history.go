package cmd

import (
	"context"
	"fmt"

	"github.com/set-night/primeminister/internal/config"
	"github.com/set-night/primeminister/internal/render"
	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent council sessions from the audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			rt, err := a.setup(ctx, true)
			if err != nil {
				return err
			}
			defer rt.close()

			records, err := rt.store.History(ctx, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No sessions logged yet.")
				return nil
			}
			for i := range records {
				fmt.Fprintln(out, render.HistoryLine(&records[i]))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", config.DefaultHistoryLimit, "number of sessions to show (0 for all)")
	return cmd
}
