package refactor

import (
	"github.com/francescoalemanno/latex-thebib/internal/similarity"
)

// Report is the outcome of a full Run.
type Report struct {
	Extraction *Extraction
	Clustering similarity.Clustering
	Plan       *RewritePlan
	Rewrite    *RewriteResult
}

// Analyze extracts the tree rooted at root, clusters its entries and plans
// the rewrite without touching any output file.
func Analyze(root string, opts Options, fallback Lookup) (*Report, error) {
	ext, err := Extract(root, opts)
	if err != nil {
		return nil, err
	}
	clustering := similarity.Cluster(ext.Entries, opts.Threshold)
	plan := Plan(ext.Citations, clustering, fallback)
	return &Report{Extraction: ext, Clustering: clustering, Plan: plan}, nil
}

// Run extracts, clusters, plans and rewrites the tree rooted at root.
func Run(root string, opts Options, fallback Lookup) (*Report, error) {
	report, err := Analyze(root, opts, fallback)
	if err != nil {
		return nil, err
	}
	report.Rewrite, err = Rewrite(root, report.Plan, opts)
	if err != nil {
		return nil, err
	}
	return report, nil
}
