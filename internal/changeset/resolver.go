// Package changeset resolves the set of files a branch touched since it left the
// default branch, together with the untracked files of its working tree.
package changeset

import (
	"context"

	"golang.org/x/sync/errgroup"

	log "github.com/chmouel/prfiles/internal/log"
	"github.com/chmouel/prfiles/internal/models"
)

// defaultBranchCandidates are tried in order; the first local branch that exists wins.
var defaultBranchCandidates = []string{"main", "master"}

// Querier is the version-control query surface the resolver depends on.
// *git.Service implements it.
type Querier interface {
	ShowTopLevel(ctx context.Context, dir string) (string, error)
	CurrentBranch(ctx context.Context, dir string) (string, error)
	BranchExists(ctx context.Context, dir, name string) (bool, error)
	MergeBase(ctx context.Context, dir, a, b string) (string, error)
	DiffNameStatus(ctx context.Context, dir, from, to string) ([]models.ChangeRecord, error)
	ListUntracked(ctx context.Context, dir string) ([]string, error)
}

// Result is a resolved change set.
type Result struct {
	Root          string   // absolute repository root
	CurrentBranch string   // abbreviated HEAD
	DefaultBranch string   // "main" or "master"
	MergeBase     string   // common ancestor commit
	Files         []string // repository-relative, changed first then untracked, no duplicates
}

// Resolver computes change sets. It holds no per-invocation state, so concurrent
// Resolve calls are independent.
type Resolver struct {
	git Querier
}

// NewResolver returns a Resolver backed by the given querier.
func NewResolver(git Querier) *Resolver {
	return &Resolver{git: git}
}

// Resolve returns the files changed on the current branch since its merge base with
// the default branch, plus untracked files. Either the full set is returned or an error;
// never a partial list.
func (r *Resolver) Resolve(ctx context.Context, cwd string) (*Result, error) {
	if cwd == "" {
		return nil, &NoWorkspaceError{}
	}

	root, err := r.git.ShowTopLevel(ctx, cwd)
	if err != nil {
		return nil, &NoRepositoryError{Dir: cwd, Err: err}
	}
	if root == "" {
		return nil, &NoRepositoryError{Dir: cwd}
	}

	current, err := r.git.CurrentBranch(ctx, root)
	if err != nil {
		return nil, &QueryFailedError{Query: "current branch", Err: err}
	}

	defaultBranch, err := r.detectDefaultBranch(ctx, root)
	if err != nil {
		return nil, err
	}

	base, err := r.git.MergeBase(ctx, root, defaultBranch, current)
	if err != nil {
		return nil, &QueryFailedError{Query: "merge-base " + defaultBranch + " " + current, Err: err}
	}

	var (
		changed   []models.ChangeRecord
		untracked []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := r.git.DiffNameStatus(gctx, root, base, current)
		if err != nil {
			return &QueryFailedError{Query: "diff " + base + " " + current, Err: err}
		}
		changed = records
		return nil
	})
	g.Go(func() error {
		files, err := r.git.ListUntracked(gctx, root)
		if err != nil {
			return &QueryFailedError{Query: "untracked files", Err: err}
		}
		untracked = files
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files := mergeFiles(changed, untracked)
	log.Printf("changeset: %s...%s (base %s): %d changed, %d untracked, %d candidates",
		defaultBranch, current, base, len(changed), len(untracked), len(files))

	return &Result{
		Root:          root,
		CurrentBranch: current,
		DefaultBranch: defaultBranch,
		MergeBase:     base,
		Files:         files,
	}, nil
}

// detectDefaultBranch checks the candidates one after the other, never concurrently,
// so that main always wins over master.
func (r *Resolver) detectDefaultBranch(ctx context.Context, root string) (string, error) {
	for _, name := range defaultBranchCandidates {
		ok, err := r.git.BranchExists(ctx, root, name)
		if err != nil {
			// A failed verification counts as absent, same as a missing ref.
			log.Printf("changeset: verify %s: %v", name, err)
			continue
		}
		if ok {
			return name, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return "", &QueryFailedError{Query: "default branch", Err: err}
	}
	tried := make([]string, len(defaultBranchCandidates))
	copy(tried, defaultBranchCandidates)
	return "", &NoDefaultBranchError{Tried: tried}
}

func mergeFiles(changed []models.ChangeRecord, untracked []string) []string {
	set := newOrderedSet(len(changed) + len(untracked))
	for _, record := range changed {
		if !record.Openable() {
			continue
		}
		set.add(record.Path)
	}
	set.add(untracked...)
	return set.list()
}
