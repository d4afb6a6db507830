// Package cli defines the cobra commands of the holistiq timer front-end.
package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strangemortal/Holistiq/internal/config"
	"github.com/Strangemortal/Holistiq/internal/timer"
)

var version = "dev" // set via ldflags at build time

// newTicker is the timer's scheduling primitive. Tests shorten it.
var newTicker timer.TickerFunc = timer.NewTicker

type options struct {
	backendURL string
	legacy     bool
	catalog    string
	logFile    string
}

// NewRootCommand builds the holistiq command tree.
func NewRootCommand() *cobra.Command {
	cfg := config.LoadClient()
	opts := &options{
		backendURL: cfg.BackendURL,
		legacy:     cfg.LegacyRoutes,
		catalog:    cfg.CatalogPath,
	}

	root := &cobra.Command{
		Use:   "holistiq",
		Short: "Workout and meditation timers that save finished sessions",
		Long: `holistiq runs the workout or meditation timer in the terminal.
Stopping a session of at least one whole minute saves it to the Holistiq API.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&opts.backendURL, "backend", opts.backendURL, "Holistiq API base URL")
	root.PersistentFlags().BoolVar(&opts.legacy, "legacy-routes", opts.legacy, "Save via /api/save-workout and /api/save-meditation")
	root.PersistentFlags().StringVar(&opts.catalog, "catalog", opts.catalog, "YAML file listing activity kinds per surface")
	root.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Append diagnostics to this file")

	for _, surface := range []timer.Surface{timer.Workout, timer.Meditation} {
		root.AddCommand(newSessionCommand(surface, opts, cfg.CommitTimeout))
	}
	return root
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// logger returns the diagnostics logger and a function releasing it. Without
// --log-file, headless runs log to stderr and terminal runs discard logs.
func (o *options) logger(headless bool, stderr io.Writer) (*log.Logger, func(), error) {
	if o.logFile != "" {
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		return log.New(f, "[holistiq] ", log.LstdFlags), func() { _ = f.Close() }, nil
	}
	if headless {
		return log.New(stderr, "[holistiq] ", log.LstdFlags), func() {}, nil
	}
	return log.New(io.Discard, "", 0), func() {}, nil
}
