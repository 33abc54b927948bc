package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/francescoalemanno/latex-thebib/internal/compile"
	"github.com/francescoalemanno/latex-thebib/internal/config"
	"github.com/francescoalemanno/latex-thebib/internal/library"
)

var (
	libraryImportDryRun    bool
	libraryImportPublisher bool
	libraryListLimit       int
	librarySearchLimit     int
)

func init() {
	libraryImportCmd.Flags().BoolVar(&libraryImportDryRun, "dry-run", false, "Show what would be imported without writing")
	libraryImportCmd.Flags().BoolVarP(&libraryImportPublisher, "publisher", "p", false, "Include the publisher when formatting BibTeX entries")
	libraryListCmd.Flags().IntVar(&libraryListLimit, "limit", DefaultListLimit, "Maximum number of entries (0 for all)")
	librarySearchCmd.Flags().IntVar(&librarySearchLimit, "limit", DefaultListLimit, "Maximum number of results (0 for all)")

	libraryCmd.AddCommand(libraryImportCmd, libraryListCmd, librarySearchCmd, libraryRebuildCmd)
	rootCmd.AddCommand(libraryCmd)
}

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the persistent entry library",
	Long: `Manage the persistent entry library.

The library collects bibliography entries across documents. refactor and
check consult it with --library to fill cited keys a document lacks.
Entries live in library.jsonl; library.db is a search cache rebuilt from it.`,
}

var libraryImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import entries from a .bib file or a LaTeX document",
	Long: `Import entries from a .bib file or a LaTeX document.

A .bib file is formatted the way bibcompiler formats it. Any other file is
read as LaTeX and its thebibliography entries are imported as written.
Each entry is new, an update (same key, different text) or skipped.

Examples:
  thebib library import refs.bib
  thebib library import old-paper.tex --dry-run --human`,
	Args: cobra.ExactArgs(1),
	RunE: runLibraryImport,
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List library entries",
	Args:  cobra.NoArgs,
	RunE:  runLibraryList,
}

var librarySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over entry keys and texts",
	Args:  cobra.ExactArgs(1),
	RunE:  runLibrarySearch,
}

var libraryRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the search cache from library.jsonl",
	Args:  cobra.NoArgs,
	RunE:  runLibraryRebuild,
}

// RebuildResponse is the response for the library rebuild command.
type RebuildResponse struct {
	Status  string `json:"status"`
	Entries int    `json:"entries"`
	Path    string `json:"path"`
}

func openLibrary(cfg *config.Config) (*library.Library, error) {
	dir := cfg.Library()
	if dir == "" {
		return nil, withCode(ExitConfigError, fmt.Errorf("no library directory: set library_dir or %s", config.EnvLibraryDir))
	}
	return library.New(dir), nil
}

// openLibraryDB opens the library search cache. The caller is responsible
// for calling Close() on the returned DB.
func openLibraryDB(cfg *config.Config) (*library.DB, error) {
	lib, err := openLibrary(cfg)
	if err != nil {
		return nil, err
	}
	db, err := lib.OpenDB()
	if err != nil {
		return nil, fmt.Errorf("opening library: %w", err)
	}
	db.SetLogger(logger)
	return db, nil
}

func runLibraryImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	lib, err := openLibrary(cfg)
	if err != nil {
		return err
	}

	entries, parseErrs := library.ReadSource(args[0], compile.Options{Publisher: libraryImportPublisher})
	if len(entries) == 0 && len(parseErrs) > 0 {
		return withCode(ExitDataError, fmt.Errorf("reading %s: %w", args[0], parseErrs[0]))
	}
	for _, e := range parseErrs {
		logger.Warn("skipped entry", "file", args[0], "error", e)
	}

	result, err := lib.Import(entries, libraryImportDryRun)
	if err != nil {
		return err
	}
	for _, e := range parseErrs {
		result.Errors = append(result.Errors, e.Error())
	}

	if !humanOutput {
		return outputJSON(result)
	}

	prefix := ""
	if libraryImportDryRun {
		prefix = "Would import: "
	}
	for _, a := range result.Actions {
		if a.Action == library.ActionSkip {
			continue
		}
		fmt.Printf("%s%-6s %s  %s\n", prefix, a.Action, a.Entry.Key, truncateString(a.Entry.Text, TextMaxLen))
	}
	fmt.Printf("%d new, %d updated, %d unchanged", result.New, result.Updated, result.Skipped)
	if len(result.Errors) > 0 {
		fmt.Printf(", %d errors", len(result.Errors))
	}
	fmt.Println()
	return nil
}

func runLibraryList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openLibraryDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.ListAll(libraryListLimit)
	if err != nil {
		return err
	}
	return printEntries(entries)
}

func runLibrarySearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openLibraryDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.Search(args[0], librarySearchLimit)
	if err != nil {
		return err
	}
	return printEntries(entries)
}

func runLibraryRebuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	lib, err := openLibrary(cfg)
	if err != nil {
		return err
	}

	n, err := lib.Rebuild()
	if err != nil {
		return err
	}

	if humanOutput {
		fmt.Printf("Rebuilt %s with %d entries\n", library.DBPath(lib.Dir), n)
		return nil
	}
	return outputJSON(RebuildResponse{Status: "rebuilt", Entries: n, Path: library.DBPath(lib.Dir)})
}

func printEntries(entries []library.Entry) error {
	if entries == nil {
		entries = []library.Entry{}
	}
	if !humanOutput {
		return outputJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No entries found.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s\n   %s\n", e.Key, truncateString(e.Text, TextMaxLen))
	}
	return nil
}
