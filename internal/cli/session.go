package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Strangemortal/Holistiq/internal/backend"
	"github.com/Strangemortal/Holistiq/internal/config"
	"github.com/Strangemortal/Holistiq/internal/timer"
	"github.com/Strangemortal/Holistiq/internal/ui/console"
	"github.com/Strangemortal/Holistiq/internal/ui/terminal"
)

func newSessionCommand(surface timer.Surface, opts *options, commitTimeout time.Duration) *cobra.Command {
	var (
		kind     string
		headless bool
		length   time.Duration
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   surface.Name,
		Short: fmt.Sprintf("Run the %s timer", surface.Name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if headless && length <= 0 {
				return errors.New("--headless requires --for")
			}

			catalog, err := config.LoadCatalog(opts.catalog)
			if err != nil {
				return err
			}
			kinds := catalog.Kinds(surface.Name)
			if kind == "" && len(kinds) > 0 {
				kind = kinds[0]
			}

			logger, release, err := opts.logger(headless, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer release()

			var clientOpts []backend.Option
			if opts.legacy {
				clientOpts = append(clientOpts, backend.WithLegacyRoutes())
			}
			client := backend.NewClient(opts.backendURL, commitTimeout, clientOpts...)
			timerOpts := []timer.Option{
				timer.WithLogger(logger),
				timer.WithCommitTimeout(commitTimeout),
				timer.WithTicker(newTicker),
			}

			if headless {
				var uiOpts []console.Option
				if verbose {
					uiOpts = append(uiOpts, console.WithEveryTick())
				}
				ui := console.New(cmd.OutOrStdout(), surface.Name, uiOpts...)
				t := timer.New(surface, client, ui, timerOpts...)
				defer t.Close()
				return runHeadless(cmd.Context(), t, kind, length, commitTimeout)
			}

			// Outcomes resolving after the user quits are printed once the screen is restored.
			bridge := terminal.NewBridge(terminal.WithFallback(console.New(cmd.ErrOrStderr(), surface.Name)))
			t := timer.New(surface, client, bridge, timerOpts...)
			defer t.Close()
			if kind != "" && !contains(kinds, kind) {
				kinds = append([]string{kind}, kinds...)
			}
			if err := terminal.Run(t, bridge, surface, moveFirst(kinds, kind)); err != nil {
				return err
			}
			return flush(t, commitTimeout)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Activity kind attached to saved sessions")
	cmd.Flags().BoolVar(&headless, "headless", false, "Run without the terminal UI")
	cmd.Flags().DurationVar(&length, "for", 0, "Stop the session after this long (headless)")
	cmd.Flags().BoolVar(&verbose, "every-tick", false, "Print every second instead of whole minutes (headless)")
	return cmd
}

// runHeadless times one session of length, stops it early on SIGINT/SIGTERM,
// and waits for its commit to resolve.
func runHeadless(ctx context.Context, t *timer.SessionTimer, kind string, length, commitTimeout time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	t.SetActivityKind(kind)
	t.Start()

	deadline := time.NewTimer(length)
	defer deadline.Stop()
	select {
	case <-deadline.C:
	case <-ctx.Done():
	}

	t.Stop()
	return flush(t, commitTimeout)
}

func flush(t *timer.SessionTimer, commitTimeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), commitTimeout+time.Second)
	defer cancel()
	if err := t.Flush(ctx); err != nil {
		return fmt.Errorf("waiting for session commit: %w", err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// moveFirst returns kinds with selected at index 0.
func moveFirst(kinds []string, selected string) []string {
	out := make([]string, 0, len(kinds))
	if contains(kinds, selected) {
		out = append(out, selected)
	}
	for _, k := range kinds {
		if k != selected {
			out = append(out, k)
		}
	}
	return out
}
