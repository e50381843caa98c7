package cli

import (
	"fmt"
	"io"

	"coalesce/internal/core/config"
	"coalesce/internal/shared/version"

	"github.com/spf13/cobra"
)

const defaultConfigPath = config.DefaultFile

// exitFindings is returned by scan --fail-on-findings when anything was found.
const exitFindings = 3

type cliOptions struct {
	configPath     string
	verbose        bool
	php            string
	dryRun         bool
	diff           bool
	failOnFindings bool
	limit          int

	stdout io.Writer
	stderr io.Writer
}

func newRootCommand(opts *cliOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "coalesce",
		Short:         "Find and rewrite PHP isset/null checks as ?? expressions",
		Version:       version.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(opts.stderr, opts.verbose)
		},
	}
	root.SetOut(opts.stdout)
	root.SetErr(opts.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&opts.php, "php", "", "Override the PHP language level (e.g. 7.4)")

	root.AddCommand(
		newScanCommand(opts),
		newFixCommand(opts),
		newWatchCommand(opts),
		newHistoryCommand(opts),
		newVersionCommand(opts),
	)
	return root
}

func newScanCommand(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Report null coalescing opportunities and write configured reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), opts, args)
		},
	}
	cmd.Flags().BoolVar(&opts.failOnFindings, "fail-on-findings", false, "Exit with status 3 when anything is found")
	return cmd
}

func newFixCommand(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix [paths...]",
		Short: "Apply every available quick-fix in place",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFix(cmd.Context(), opts, args)
		},
	}
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Show what would change without writing")
	cmd.Flags().BoolVar(&opts.diff, "diff", false, "Print the changed lines of each file")
	return cmd
}

func newWatchCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Scan, then re-analyze PHP files as they change",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), opts, args)
		},
	}
}

func newHistoryCommand(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or show one run with its findings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), opts, args)
		},
	}
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

func newVersionCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(opts.stdout, "coalesce %s\n", version.String())
		},
	}
}
