package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/set-night/primeminister/internal/domain"
	"github.com/set-night/primeminister/internal/render"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the council configuration",
		Long: `Show the resolved council file, log directory and roster.

With --check every member model and the Prime Minister model are looked up
at the provider.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			rt, err := a.setup(ctx, false)
			if err != nil {
				return err
			}
			defer rt.close()

			out := cmd.OutOrStdout()
			apiURL, apiKey := rt.cfg.Provider(rt.roster)
			fmt.Fprintf(out, "Council file: %s\n", rt.roster.Path)
			fmt.Fprintf(out, "Log directory: %s\n", rt.logDir)
			fmt.Fprintf(out, "Audit backend: %s\n", rt.cfg.AuditBackend)
			fmt.Fprintf(out, "API URL: %s\n", apiURL)
			fmt.Fprintf(out, "API key: %s\n\n", maskKey(apiKey))
			fmt.Fprint(out, render.Council(rt.roster.Council))

			if !check {
				return nil
			}
			missing, err := rt.chat.CheckCouncilModels(ctx, rt.roster.Council)
			if err != nil {
				return err
			}
			if len(missing) > 0 {
				return fmt.Errorf("%w: unknown models: %s", domain.ErrModelNotFound, strings.Join(missing, ", "))
			}
			fmt.Fprintln(out, "\nAll models are available.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "verify the configured models at the provider")
	return cmd
}

func maskKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 8:
		return "****"
	default:
		return key[:4] + "..." + key[len(key)-4:]
	}
}
