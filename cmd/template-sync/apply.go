package main

import (
	"os"

	"github.com/obentoo/template-sync/internal/common/logger"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply <hash>...",
	Short: "Apply specific template updates",
	Long: `Apply the given template commits without the selection prompt.
Hashes may be abbreviated; they must be pending updates as shown by 'list'.
Commits are applied oldest first regardless of the order given.`,
	Args: cobra.MinimumNArgs(1),
	Run:  runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) {
	syncer, err := newSyncer(cmd.Context())
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	result, err := syncer.ApplyHashes(cmd.Context(), args)
	finish(result, err)
}
