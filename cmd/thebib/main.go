// Package main provides the thebib CLI entry point.
package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	// verbose lowers the log level to debug
	verbose bool
)

// logger receives diagnostics on stderr; it is configured before any command runs.
var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitWithError(exitCode(err), "%v", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "thebib",
	Short: "Clean up thebibliography-based LaTeX documents",
	Long: `thebib cleans LaTeX documents that keep a hand-written thebibliography.

It follows \input, \include and \includeonly from a root file, finds every
\cite, \citet and \citep, merges near-duplicate \bibitem entries and writes a
copy of the document tree whose bibliography holds only the cited entries, in
order of first citation.

All commands output JSON by default; use --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load .env file if present (ignore error if not found)
		_ = godotenv.Load()

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every file visited to stderr")
	rootCmd.Version = Version
}
