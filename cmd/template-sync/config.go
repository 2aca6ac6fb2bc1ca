package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/obentoo/template-sync/internal/common/config"
	"github.com/obentoo/template-sync/internal/common/logger"
	"github.com/obentoo/template-sync/internal/common/output"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create configuration files",
	Long: `Settings are read, in increasing priority, from the user config file
(~/.config/template-sync/config.yaml), the project file .template-sync.toml,
the environment (TEMPLATE_PATH, TEMPLATE_BRANCH, TEMPLATE_REMOTE, also read
from .env) and the command line flags.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write .template-sync.toml for this project",
	Long: `Write the current settings, including any flags given, to
.template-sync.toml at the top of the repository so the template does not
have to be passed on every run. With --user the settings become the
defaults of every repository and are written to the user config file.`,
	Args: cobra.NoArgs,
	Run:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file locations",
	Args:  cobra.NoArgs,
	Run:   runConfigPath,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	Run:   runConfigShow,
}

var (
	forceInit bool
	userInit  bool
)

func init() {
	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing project file")
	configInitCmd.Flags().BoolVar(&userInit, "user", false, "Write the user config file instead of the project file")

	configCmd.AddCommand(configInitCmd, configPathCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	_, root, err := projectRoot(cmd.Context())
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	if userInit {
		writeUserConfig(root)
		return
	}

	if _, err := os.Stat(filepath.Join(root, config.ProjectFile)); err == nil && !forceInit {
		logger.Error("%s already exists, use --force to overwrite it", config.ProjectFile)
		os.Exit(1)
	}

	cfg, err := loadConfig(root)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	if cfg.Template.URL == "" {
		logger.Error("%v", config.ErrTemplateNotSet)
		os.Exit(1)
	}

	path, err := cfg.WriteProjectFile(root)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	output.PrintSuccess("Wrote %s", path)
}

// writeUserConfig stores the effective template and apply settings in the
// user config file, keeping the templates defined there
func writeUserConfig(root string) {
	cfg, err := loadConfig(root)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	if err := cfg.Save(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	path, _ := config.FindConfigPath()
	output.PrintSuccess("Wrote %s", path)
}

func runConfigPath(cmd *cobra.Command, args []string) {
	path, err := config.FindConfigPath()
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	fmt.Printf("user:    %s\n", path)

	if _, root, err := projectRoot(cmd.Context()); err == nil {
		fmt.Printf("project: %s\n", filepath.Join(root, config.ProjectFile))
	}
}

func runConfigShow(cmd *cobra.Command, args []string) {
	_, root, err := projectRoot(cmd.Context())
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(root)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	// Tokens stay out of the terminal
	for _, repo := range cfg.Templates {
		if repo.Token != "" {
			repo.Token = "xxxxx"
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	fmt.Print(string(data))
}
