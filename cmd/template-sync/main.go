package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/obentoo/template-sync/internal/common/config"
	"github.com/obentoo/template-sync/internal/common/logger"
	"github.com/obentoo/template-sync/internal/common/output"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
	noColor bool
	logFile bool

	overrides config.Overrides
	assumeYes bool
)

var rootCmd = &cobra.Command{
	Use:   "template-sync",
	Short: "Keep a project in sync with the template it was created from",
	Long: `Discover commits made to the upstream template repository since this
project was created and replay the selected ones onto the current branch.

Ordinary commits are cherry-picked; automated dependency bumps
("Bump <package> from <old> to <new>") are replayed by installing the new
version with the project's package manager. Every replayed commit records
the template hash, so later runs skip it.`,
	Args: cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetVerbose(true)
		}
		if quiet {
			logger.SetQuiet(true)
		}
		if noColor {
			output.NoColor()
		}
		if logFile {
			if err := logger.Default().EnableFileLogging(); err != nil {
				logger.Warn("File logging disabled: %v", err)
			}
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Default().Close()
	},
	Run: runSync,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and show git output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&logFile, "log-file", false, "Also write a log file under $XDG_STATE_HOME/template-sync/logs")

	// Template selection
	rootCmd.PersistentFlags().StringVarP(&overrides.URL, "remote-url", "r", "", "Template repository URL or path (env TEMPLATE_PATH)")
	rootCmd.PersistentFlags().StringVarP(&overrides.Template, "template", "t", "", "Name of a template defined in the config file")
	rootCmd.PersistentFlags().StringVarP(&overrides.Branch, "branch", "b", "", "Template branch to sync from (env TEMPLATE_BRANCH, default main)")
	rootCmd.PersistentFlags().StringVar(&overrides.Remote, "remote", "", "Name of the temporary git remote (default template)")

	// Apply behavior
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Apply every pending update without asking")
	rootCmd.PersistentFlags().BoolVar(&overrides.Strict, "strict", false, "Fail when an update leaves nothing to commit")
	rootCmd.PersistentFlags().BoolVar(&overrides.NoIgnoreWhitespace, "no-ignore-whitespace", false, "Do not ignore whitespace changes when cherry-picking")
	rootCmd.PersistentFlags().StringVar(&overrides.PackageManager, "package-manager", "", "Package manager for dependency bumps (npm, yarn, pnpm, bun, go)")
	rootCmd.PersistentFlags().StringVar(&overrides.InstallCommand, "install-cmd", "", "Custom install command, e.g. \"npm i {package}@{version}\"")

	registerFlagCompletions()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
