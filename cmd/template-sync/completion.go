package main

import (
	"os"

	"github.com/obentoo/template-sync/internal/common/config"
	"github.com/obentoo/template-sync/internal/common/provider"
	"github.com/obentoo/template-sync/internal/pkgmanager"
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for template-sync.

Besides subcommands and flags, the scripts complete --template with the
templates defined in the user config file and --package-manager with the
supported package managers.

To load completions:

Bash:
  $ source <(template-sync completion bash)
  # To load completions for each session, execute once:
  # Linux:
  $ template-sync completion bash > /etc/bash_completion.d/template-sync
  # macOS:
  $ template-sync completion bash > $(brew --prefix)/etc/bash_completion.d/template-sync

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc
  # To load completions for each session, execute once:
  $ template-sync completion zsh > "${fpath[1]}/_template-sync"
  # You will need to start a new shell for this setup to take effect.

Fish:
  $ template-sync completion fish | source
  # To load completions for each session, execute once:
  $ template-sync completion fish > ~/.config/fish/completions/template-sync.fish

PowerShell:
  PS> template-sync completion powershell | Out-String | Invoke-Expression
  # To load completions for every new session, run:
  PS> template-sync completion powershell > template-sync.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

// registerFlagCompletions adds value completion to the persistent flags.
// It runs after the flags are defined in main.go.
func registerFlagCompletions() {
	rootCmd.RegisterFlagCompletionFunc("template", completeTemplates)
	rootCmd.RegisterFlagCompletionFunc("package-manager", completePackageManagers)
}

// completeTemplates lists the templates of the user config file without
// creating the file when it does not exist yet
func completeTemplates(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	path, err := config.FindConfigPath()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if _, err := os.Stat(path); err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return provider.ListAvailableTemplates(cfg.Templates), cobra.ShellCompDirectiveNoFileComp
}

func completePackageManagers(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return pkgmanager.Names(), cobra.ShellCompDirectiveNoFileComp
}
