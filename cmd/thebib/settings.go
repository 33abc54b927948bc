package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/francescoalemanno/latex-thebib/internal/config"
	"github.com/francescoalemanno/latex-thebib/internal/refactor"
)

// treeFlags are the document tree flags shared by refactor and check.
type treeFlags struct {
	file        string
	threshold   float64
	subdir      string
	skipMissing bool
	library     bool
}

func (f *treeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Root LaTeX file of the document (required)")
	cmd.Flags().Float64VarP(&f.threshold, "threshold", "t", refactor.DefaultThreshold, "Maximum normalized edit distance for two entries to be duplicates")
	cmd.Flags().StringVarP(&f.subdir, "subdir", "s", refactor.DefaultSubdir, "Output folder created next to each rewritten file")
	cmd.Flags().BoolVar(&f.skipMissing, "skip-missing", false, "Skip include targets that do not exist instead of failing")
	cmd.Flags().BoolVar(&f.library, "library", false, "Fill cited keys missing from the document from the entry library")
	_ = cmd.MarkFlagRequired("file")
}

// loadConfig reads the config file and applies environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, withCode(ExitConfigError, fmt.Errorf("loading config: %w", err))
	}
	return cfg, nil
}

// options merges the config with the flags explicitly set on cmd. Flags
// override environment variables, which override the config file.
func (f *treeFlags) options(cmd *cobra.Command, cfg *config.Config) (refactor.Options, error) {
	if cmd.Flags().Changed("threshold") {
		cfg.Threshold = f.threshold
	}
	if cmd.Flags().Changed("subdir") {
		cfg.Subdir = f.subdir
	}
	if cmd.Flags().Changed("skip-missing") {
		cfg.SkipMissing = f.skipMissing
	}
	if err := cfg.Validate(); err != nil {
		return refactor.Options{}, withCode(ExitConfigError, err)
	}

	opts := cfg.RefactorOptions()
	opts.Logger = logger
	return opts, nil
}
