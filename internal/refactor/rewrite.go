package refactor

import (
	"fmt"

	"github.com/francescoalemanno/latex-thebib/internal/latex"
)

// RewriteResult lists what a rewrite produced.
type RewriteResult struct {
	Written []string        `json:"written"` // output paths, in visit order
	Skipped []*IncludeError `json:"skipped"` // only with SkipMissing
}

// Rewrite re-reads every file of the tree rooted at root, replaces each known
// citation with its cleaned form and every thebibliography block with the
// plan's shared block, and writes the result to OutputPath(file, Subdir).
//
// Include targets are re-derived from the rewritten text, which keeps include
// directives as they were, and resolved against the original file's directory.
func Rewrite(root string, plan *RewritePlan, opts Options) (*RewriteResult, error) {
	w := newWalker(opts)
	out := &RewriteResult{}
	if err := w.rewrite(root, plan, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *walker) rewrite(path string, plan *RewritePlan, out *RewriteResult) error {
	if err := w.enter(path); err != nil {
		return err
	}
	defer w.leave()

	text, err := w.read(path)
	if err != nil {
		return err
	}

	content, err := RewriteText(text, plan)
	if err != nil {
		return &ParseError{File: path, Err: err}
	}

	dest := OutputPath(path, w.opts.Subdir)
	if w.opts.DryRun {
		w.opts.Logger.Debug("dry run, not writing", "file", dest)
	} else {
		if err := w.opts.FS.WriteFile(dest, []byte(content)); err != nil {
			return &FileError{Path: dest, Op: "write", Err: err}
		}
		w.opts.Logger.Debug("wrote", "file", dest)
	}
	out.Written = append(out.Written, dest)

	for _, tok := range latex.Includes(content) {
		target, ok, err := w.resolve(path, tok, func(e *IncludeError) {
			out.Skipped = append(out.Skipped, e)
		})
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := w.rewrite(target, plan, out); err != nil {
			return fmt.Errorf("in %s: %w", path, err)
		}
	}
	return nil
}

// RewriteText applies the plan to the normalized content of one file.
func RewriteText(text string, plan *RewritePlan) (string, error) {
	text = latex.ReplaceCitations(text, func(raw string) string {
		if s, ok := plan.Rewritten(raw); ok {
			return s
		}
		return raw
	})

	blocks, err := latex.FindBlocks(text)
	if err != nil {
		return "", err
	}
	return latex.ReplaceBlocks(text, blocks, plan.Block()), nil
}
