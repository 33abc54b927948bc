package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/francescoalemanno/latex-thebib/internal/refactor"
)

var (
	refactorFlags  treeFlags
	refactorDryRun bool
)

func init() {
	refactorFlags.register(refactorCmd)
	refactorCmd.Flags().BoolVar(&refactorDryRun, "dry-run", false, "Compute the rewrite without writing any file")
	rootCmd.AddCommand(refactorCmd)
}

var refactorCmd = &cobra.Command{
	Use:   "refactor",
	Short: "Rewrite a document tree with a minimal, deduplicated bibliography",
	Long: `Rewrite a document tree with a minimal, deduplicated bibliography.

Every file reachable from --file is rewritten into a --subdir folder next to
it. Citations use canonical keys and every thebibliography block is replaced
by one holding exactly the cited entries, in order of first citation.

Examples:
  thebib refactor -f paper.tex
  thebib refactor -f paper.tex -t 0.2 -s out --human
  thebib refactor -f paper.tex --dry-run --library`,
	RunE: runRefactor,
}

// RefactorSummary is the response for the refactor command.
type RefactorSummary struct {
	DryRun    bool                     `json:"dry_run"`
	FilesRead []string                 `json:"files_read"`
	Written   []string                 `json:"files_written"`
	Entries   int                      `json:"entries"`
	Clusters  int                      `json:"clusters"`
	Cited     int                      `json:"cited"`
	Missing   []string                 `json:"missing"`
	Recovered []string                 `json:"recovered,omitempty"`
	Skipped   []*refactor.IncludeError `json:"skipped_includes,omitempty"`
}

func runRefactor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := refactorFlags.options(cmd, cfg)
	if err != nil {
		return err
	}
	opts.DryRun = refactorDryRun

	var fallback refactor.Lookup
	if refactorFlags.library {
		db, err := openLibraryDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		fallback = db.Lookup
	}

	report, err := refactor.Run(refactorFlags.file, opts, fallback)
	if err != nil {
		return err
	}

	summary := buildRefactorSummary(report, opts.DryRun)
	if !humanOutput {
		return outputJSON(summary)
	}

	verb := "Wrote"
	if summary.DryRun {
		verb = "Would write"
	}
	fmt.Printf("Read %d files: %d entries in %d clusters, %d cited\n",
		len(summary.FilesRead), summary.Entries, summary.Clusters, summary.Cited)
	for _, path := range summary.Written {
		fmt.Printf("%s %s\n", verb, path)
	}
	if len(summary.Missing) > 0 {
		fmt.Printf("Missing entries: %s\n", formatKeyList(summary.Missing))
	}
	if len(summary.Recovered) > 0 {
		fmt.Printf("Filled from library: %s\n", formatKeyList(summary.Recovered))
	}
	for _, s := range summary.Skipped {
		fmt.Printf("Skipped include %q in %s\n", s.Target, s.File)
	}
	return nil
}

func buildRefactorSummary(report *refactor.Report, dryRun bool) RefactorSummary {
	summary := RefactorSummary{
		DryRun:    dryRun,
		FilesRead: report.Extraction.Files,
		Entries:   len(report.Extraction.Entries),
		Clusters:  len(report.Clustering.Groups),
		Cited:     len(report.Plan.Bibliography),
		Missing:   report.Plan.Missing,
		Recovered: report.Plan.Recovered,
		Skipped:   report.Extraction.Skipped,
	}
	if report.Rewrite != nil {
		summary.Written = report.Rewrite.Written
	}
	if summary.Missing == nil {
		summary.Missing = []string{}
	}
	return summary
}
