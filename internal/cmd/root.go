// Package cmd implements the primeminister command line.
package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/set-night/primeminister/internal/council"
	"github.com/set-night/primeminister/internal/domain"
	"github.com/set-night/primeminister/internal/render"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	mode       string
	jsonOut    bool

	provider council.Provider
	in       io.Reader
}

// Option customizes the command tree, mainly for tests.
type Option func(*app)

// WithProvider replaces the HTTP chat client.
func WithProvider(p council.Provider) Option {
	return func(a *app) { a.provider = p }
}

// WithInput replaces stdin for the interactive prompt.
func WithInput(r io.Reader) Option {
	return func(a *app) { a.in = r }
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd(opts ...Option) *cobra.Command {
	a := &app{in: os.Stdin}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:   "primeminister [question]",
		Short: "Ask a council of AI advisors and get the Prime Minister's decision",
		Long: `PrimeMinister sends your question to a council of AI members.

In council mode the members answer, vote blindly on each other's answers and
the Prime Minister decides, breaking ties when needed. In advisor mode the
members answer, review each other and refine before the Prime Minister
synthesizes a final recommendation.

Without a question an interactive prompt starts.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runRoot,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "council file (default: $PRIMEMINISTER_CONFIG or the standard locations)")
	root.Flags().StringVarP(&a.mode, "mode", "m", "", "council or advisor (default: the council file's mode)")
	root.Flags().BoolVar(&a.jsonOut, "json", false, "print the full session record as JSON")

	root.AddCommand(newConfigCmd(a), newHistoryCmd(a))
	return root
}

func (a *app) runRoot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	mode, err := a.resolveMode()
	if err != nil {
		return err
	}

	rt, err := a.setup(ctx, true)
	if err != nil {
		return err
	}
	defer rt.close()

	if mode == "" && rt.cfg.Mode != "" {
		if mode, err = domain.ParseMode(rt.cfg.Mode); err != nil {
			return fmt.Errorf("%w: PRIMEMINISTER_MODE: %w", domain.ErrConfiguration, err)
		}
	}

	if len(args) > 0 {
		return a.ask(ctx, cmd.OutOrStdout(), rt, strings.Join(args, " "), mode)
	}
	return a.interactive(ctx, cmd, rt, mode)
}

func (a *app) resolveMode() (domain.Mode, error) {
	if a.mode == "" {
		return "", nil
	}
	mode, err := domain.ParseMode(a.mode)
	if err != nil {
		return "", fmt.Errorf("%w: --mode: %w", domain.ErrConfiguration, err)
	}
	return mode, nil
}

func (a *app) ask(ctx context.Context, out io.Writer, rt *runtime, question string, mode domain.Mode) error {
	if !a.jsonOut {
		fmt.Fprintln(out, "Consulting the council...")
	}

	res, err := rt.orch.Run(ctx, question, mode)
	if res != nil {
		if a.jsonOut {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			if encErr := enc.Encode(res.Record); encErr != nil {
				return fmt.Errorf("encode record: %w", encErr)
			}
		} else if err == nil {
			fmt.Fprintln(out)
			fmt.Fprint(out, render.Summary(res.Record))
		}
		if logErr := <-res.Logged; logErr != nil && !a.jsonOut {
			fmt.Fprintf(out, "\nWarning: session was not logged: %v\n", logErr)
		}
	}
	return err
}

func (a *app) interactive(ctx context.Context, cmd *cobra.Command, rt *runtime, mode domain.Mode) error {
	out := cmd.OutOrStdout()
	c := rt.orch.Council()
	effective := mode
	if effective == "" {
		effective = c.Mode
	}
	fmt.Fprintf(out, "PrimeMinister (%s mode, %d members). Type 'quit' or 'exit' to leave.\n", effective, len(c.Members))

	scanner := bufio.NewScanner(a.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			fmt.Fprintln(out, "Goodbye.")
			return nil
		}

		err := a.ask(ctx, out, rt, line, mode)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			return err
		default:
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}
