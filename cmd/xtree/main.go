package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/benz9527/xtree/internal/bench"
	"github.com/benz9527/xtree/internal/config"
	"github.com/benz9527/xtree/internal/repl"
)

// Set by -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xtree",
		Short: "Interactive red-black and AVL tree demo",
		Long: `xtree keeps one self-balancing tree and edits it line by line.

Commands inside the demo:
  insert, delete, search, count-leaves, height, is-empty,
  print, traverse asc|desc, validate, stats, help, exit`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runREPL,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file, ./.xtree.yaml if empty")
	flags.String("log-level", config.DefaultLogLevel, "log level (debug|info|warn|error)")
	flags.String("log-encoder", config.DefaultLogEncoder, "log encoder (json|text)")
	flags.String("log-file", "", "also log into this file")
	flags.String("log-max-size", "", "rotate the log file at this size, e.g. 10MB")
	flags.String("log-max-age", "", "drop the rotated log files older than this, e.g. 7d")
	flags.Int("log-max-backups", 0, "rotated log files to keep, 0 keeps all")
	flags.Bool("log-compress", false, "zip the dropped log files instead of removing them")
	flags.String("metrics", config.DefaultMetricsExporter, "metrics exporter (none|stdout|prometheus)")
	flags.String("metrics-addr", config.DefaultMetricsAddr, "prometheus listen address")

	rootCmd.Flags().String("tree", "", "tree type (1|rbt|2|avl), prompted if empty")
	rootCmd.Flags().String("key", "", "key type (int|str), prompted if empty")

	rootCmd.AddCommand(newBenchCommand())
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

func runREPL(cmd *cobra.Command, _ []string) (err error) {
	a, err := setup(cmd.Context(), cmd, "repl")
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, a.close())
	}()

	return repl.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(),
		repl.WithTreeKind(a.cfg.Tree),
		repl.WithKeyType(a.cfg.Key),
		repl.WithLogger(a.logger.Named("repl")),
		repl.WithProbe(a.probe),
	)
}

func newBenchCommand() *cobra.Command {
	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Time monotonic inserts and searches on both trees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := setup(cmd.Context(), cmd, "bench")
			if err != nil {
				return err
			}
			defer func() {
				err = multierr.Append(err, a.close())
			}()

			results, err := bench.Run(cmd.Context(),
				bench.WithSizes(a.cfg.Bench.Sizes...),
				bench.WithWorkers(a.cfg.Bench.Workers),
				bench.WithLogger(a.logger.Named("bench")),
			)
			bench.Render(cmd.OutOrStdout(), results)
			return err
		},
	}
	benchCmd.Flags().IntSlice("sizes", config.DefaultBenchSizes, "key counts of the cases")
	benchCmd.Flags().Int("workers", config.DefaultBenchWorkers, "cases run at the same time")
	return benchCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "xtree %s (commit: %s)\n", version, commit)
		},
	}
}
