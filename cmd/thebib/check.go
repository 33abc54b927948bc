package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/francescoalemanno/latex-thebib/internal/refactor"
)

var checkFlags treeFlags

func init() {
	checkFlags.register(checkCmd)
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report duplicate, missing and unused bibliography entries",
	Long: `Report duplicate, missing and unused bibliography entries.

Runs the same extraction and clustering as refactor but writes nothing.

Examples:
  thebib check -f paper.tex --human
  thebib check -f paper.tex -t 0.1`,
	RunE: runCheck,
}

// DuplicateGroup represents a set of entries merged into one key.
type DuplicateGroup struct {
	Primary    string   `json:"primary"`    // canonical key that is kept
	Duplicates []string `json:"duplicates"` // keys of the other members, as written
	Text       string   `json:"text"`       // text of the kept entry
}

// CheckReport is the response for the check command.
type CheckReport struct {
	Files      int              `json:"files"`
	Entries    int              `json:"entries"`
	Groups     []DuplicateGroup `json:"duplicate_groups"`
	TotalDupes int              `json:"total_duplicates"`
	Missing    []string         `json:"missing"`
	Recovered  []string         `json:"recovered,omitempty"`
	Unused     []string         `json:"unused"`
	Skipped    int              `json:"skipped_includes"`
}

// OK reports whether the document needs no cleaning.
func (r CheckReport) OK() bool {
	return len(r.Groups) == 0 && len(r.Missing) == 0 && len(r.Unused) == 0
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := checkFlags.options(cmd, cfg)
	if err != nil {
		return err
	}

	var fallback refactor.Lookup
	if checkFlags.library {
		db, err := openLibraryDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		fallback = db.Lookup
	}

	report, err := refactor.Analyze(checkFlags.file, opts, fallback)
	if err != nil {
		return err
	}

	result := buildCheckReport(report)
	if !humanOutput {
		return outputJSON(result)
	}
	printCheckHuman(result)
	return nil
}

// buildCheckReport summarizes an analysis without writing anything.
func buildCheckReport(report *refactor.Report) CheckReport {
	entries := report.Extraction.Entries
	result := CheckReport{
		Files:     len(report.Extraction.Files),
		Entries:   len(entries),
		Groups:    []DuplicateGroup{},
		Missing:   []string{},
		Unused:    []string{},
		Recovered: report.Plan.Recovered,
		Skipped:   len(report.Extraction.Skipped),
	}
	result.Missing = append(result.Missing, report.Plan.Missing...)

	for _, g := range report.Clustering.Duplicates() {
		group := DuplicateGroup{
			Primary: entries[g.Canonical].Key,
			Text:    entries[g.Canonical].Text,
		}
		for _, i := range g.Members[1:] {
			group.Duplicates = append(group.Duplicates, entries[i].Key)
		}
		result.TotalDupes += len(group.Duplicates)
		result.Groups = append(result.Groups, group)
	}

	cited := make(map[string]bool)
	for _, key := range refactor.OrderedKeys(report.Plan.Citations) {
		cited[key] = true
	}
	for _, e := range report.Clustering.Canonical {
		if !cited[e.Key] {
			result.Unused = append(result.Unused, e.Key)
		}
	}
	return result
}

func printCheckHuman(r CheckReport) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("Checked %d files, %d entries\n", r.Files, r.Entries)
	if r.OK() {
		fmt.Println(green("No duplicate, missing or unused entries."))
		return
	}

	if len(r.Groups) > 0 {
		fmt.Printf("\n%s\n", yellow(fmt.Sprintf("Found %d duplicate groups (%d total duplicates):", len(r.Groups), r.TotalDupes)))
		for _, g := range r.Groups {
			fmt.Printf("  Keep:    %s %s\n", g.Primary, gray(truncateString(g.Text, TextMaxLen)))
			fmt.Printf("  Replace: %s\n", formatKeyList(g.Duplicates))
		}
	}
	if len(r.Missing) > 0 {
		fmt.Printf("\n%s %s\n", red("Missing entries:"), formatKeyList(r.Missing))
	}
	if len(r.Recovered) > 0 {
		fmt.Printf("\n%s %s\n", green("Found in library:"), formatKeyList(r.Recovered))
	}
	if len(r.Unused) > 0 {
		fmt.Printf("\n%s %s\n", yellow("Unused entries:"), formatKeyList(r.Unused))
	}
	if r.Skipped > 0 {
		fmt.Printf("\n%s\n", gray(fmt.Sprintf("%d include targets were skipped", r.Skipped)))
	}
}
