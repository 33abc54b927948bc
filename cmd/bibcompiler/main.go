// Package main provides the bibcompiler CLI entry point.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/francescoalemanno/latex-thebib/internal/bibtex"
	"github.com/francescoalemanno/latex-thebib/internal/compile"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	compileFile      string
	compileOutput    string
	compilePublisher bool
	compileSort      bool
	compileAsList    bool
	compilePrefix    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "bibcompiler",
	Short: "Compile a BibTeX file to a thebibliography environment",
	Long: `bibcompiler compiles a BibTeX file to legacy thebibliography LaTeX code.

Examples:
  bibcompiler -f master.bib
  bibcompiler -f master.bib -o refs.tex --sort --publisher
  bibcompiler -f master.bib --aslist`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCompile,
}

func init() {
	rootCmd.Flags().StringVarP(&compileFile, "file", "f", "", "Master BibTeX file (required)")
	rootCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "Output TeX file (default: stdout)")
	rootCmd.Flags().BoolVarP(&compilePublisher, "publisher", "p", false, `Add a "- publisher" segment to each entry`)
	rootCmd.Flags().BoolVarP(&compileSort, "sort", "s", false, "Sort entries by year, most recent first")
	rootCmd.Flags().BoolVarP(&compileAsList, "aslist", "a", false, "Compile as an enumerated list, not as a bibliography")
	rootCmd.Flags().StringVarP(&compilePrefix, "cite-prefix", "c", "", "Prefix added to each cite label")
	_ = rootCmd.MarkFlagRequired("file")
	rootCmd.Version = Version
}

func runCompile(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if _, err := os.Stat(compileFile); err != nil {
		return &codedError{code: ExitDataError, err: fmt.Errorf("unable to read %s: %w", compileFile, err)}
	}

	entries, parseErrs := bibtex.ParseFile(compileFile)
	for _, err := range parseErrs {
		logger.Warn("bibtex", "file", compileFile, "error", err)
	}

	out, compileErrs := compile.Compile(entries, compile.Options{
		Publisher:  compilePublisher,
		Sort:       compileSort,
		AsList:     compileAsList,
		CitePrefix: compilePrefix,
	})
	for _, err := range compileErrs {
		logger.Warn("skipped entry", "error", err)
	}

	return writeOutput(os.Stdout, compileOutput, out)
}

// writeOutput writes the compiled text to path, creating its directory, or
// to stdout when path is empty.
func writeOutput(stdout io.Writer, path, text string) error {
	if path == "" {
		_, err := fmt.Fprintln(stdout, text)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
