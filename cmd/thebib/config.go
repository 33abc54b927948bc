package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/francescoalemanno/latex-thebib/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration.

Values come from the config file, then THEBIB_* environment variables
(a .env file in the working directory is loaded first).

Config file: $XDG_CONFIG_HOME/thebib/config.yml (default ~/.config/thebib/config.yml)

Example config.yml:
  threshold: 0.25
  subdir: cleaned
  skip_missing: false
  extensions: ["", ".tex", ".latex", ".bib", ".bbl"]
  library_dir: ~/refs/thebib`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

// ConfigResponse is the response for the config command.
type ConfigResponse struct {
	Path       string         `json:"path"`
	LibraryDir string         `json:"library_dir"`
	Config     *config.Config `json:"config"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	resp := ConfigResponse{Path: config.Path(), LibraryDir: cfg.Library(), Config: cfg}
	if !humanOutput {
		return outputJSON(resp)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	fmt.Printf("# %s\n%s", resp.Path, data)
	fmt.Printf("# effective library: %s\n", resp.LibraryDir)
	return nil
}
