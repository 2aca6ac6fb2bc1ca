package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/obentoo/template-sync/internal/common/logger"
	"github.com/obentoo/template-sync/internal/common/output"
	"github.com/obentoo/template-sync/internal/upstream"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending template updates",
	Long: `Fetch the template and list the commits that are not applied to the
current branch yet, oldest first. Nothing in the project is changed.`,
	Args: cobra.NoArgs,
	Run:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) {
	syncer, err := newSyncer(cmd.Context())
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	candidates, err := syncer.List(cmd.Context())
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	if len(candidates) == 0 {
		output.PrintSuccess("There are no new updates from upstream template repository")
		return
	}

	output.Header.Printf("%d pending update(s) from %s\n", len(candidates), syncer.TemplateRef())
	for _, c := range upstream.OldestFirst(candidates) {
		fmt.Println(formatCandidate(c))
	}
}

// formatCandidate renders one candidate line for the list output
func formatCandidate(c upstream.Commit) string {
	subject, _, _ := strings.Cut(c.Message, "\n")
	line := fmt.Sprintf("  %s %s %s  %s",
		output.FormatHash(c.Hash),
		output.FormatKind(string(c.Kind())),
		output.Sprint(output.Dim, c.Time().Format("2006-01-02")),
		subject)

	if update, ok := upstream.ParseBump(c.Message); ok {
		line += "  -> " + output.FormatUpdate(update.Package, update.Version)
		if update.Direction() == upstream.DirectionDowngrade {
			line += output.Sprint(output.Warning, " (downgrade)")
		}
	}
	return line
}
