package main

import (
	"errors"
	"os"

	"github.com/obentoo/template-sync/internal/common/logger"
	"github.com/obentoo/template-sync/internal/common/output"
	"github.com/obentoo/template-sync/internal/upstream"
	"github.com/spf13/cobra"
)

func runSync(cmd *cobra.Command, args []string) {
	syncer, err := newSyncer(cmd.Context())
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	result, err := syncer.Sync(cmd.Context())
	finish(result, err)
}

// finish reports a sync result and exits non-zero on failure
func finish(result *upstream.SyncResult, err error) {
	if result != nil {
		for _, r := range result.Results {
			printApplyResult(r)
		}
	}

	if err != nil {
		logger.Error("%v", err)
		switch {
		case errors.Is(err, upstream.ErrStashRestore):
			logger.Info("Resolve the conflicts, then run 'git stash pop' to get your changes back")
		case errors.Is(err, upstream.ErrResolutionAborted), errors.Is(err, upstream.ErrUnresolvedConflicts):
			output.Box("Sync interrupted", "Resolve the conflicts, stage them with 'git add', then run 'template-sync resume'")
		case errors.Is(err, upstream.ErrNothingApplied):
			logger.Info("Run 'template-sync resume' without --strict to accept empty updates")
		}
		os.Exit(1)
	}

	if result.Message != "" {
		output.PrintSuccess("%s", result.Message)
	}
}

func printApplyResult(r *upstream.ApplyResult) {
	label := output.FormatHash(r.Commit.Hash) + " " + output.FormatKind(string(r.Commit.Kind()))
	if r.Update != nil {
		label += " " + output.FormatUpdate(r.Update.Package, r.Update.Version)
	}

	switch r.Outcome {
	case upstream.OutcomeCommitted:
		output.PrintSuccess("%s applied", label)
	case upstream.OutcomeNothingToCommit:
		output.PrintWarning("%s left nothing to commit", label)
	default:
		output.PrintError("%s stopped while %s", label, r.State())
	}
}
