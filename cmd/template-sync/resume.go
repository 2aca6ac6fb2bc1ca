package main

import (
	"errors"
	"os"

	"github.com/obentoo/template-sync/internal/common/logger"
	"github.com/obentoo/template-sync/internal/common/output"
	"github.com/obentoo/template-sync/internal/upstream"
	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Finish an interrupted sync",
	Long: `Apply the updates that an interrupted or failed sync selected but did
not finish. The selection is kept in .git/template-sync/journal.json.`,
	Args: cobra.NoArgs,
	Run:  runResume,
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) {
	syncer, err := newSyncer(cmd.Context())
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	result, err := syncer.Resume(cmd.Context())
	if errors.Is(err, upstream.ErrNothingToResume) {
		output.PrintInfo("Nothing to resume")
		return
	}
	finish(result, err)
}
