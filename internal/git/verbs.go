package git

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/okanester/gitbridge/internal/git/domain"
)

// cleanConcurrency caps simultaneous subprocesses for the batch clean
// operation; excess groups queue and drain as capacity frees up.
const cleanConcurrency = 4

// Verb-specific stderr patterns, matched only after the global classifier
// declined: in their verb's context they are unambiguous, globally they
// would not be.
var (
	unmergedPattern         = regexp.MustCompile(`(?i)unmerged`)
	noUpstreamPattern       = regexp.MustCompile(`has no upstream branch`)
	conflictPattern         = regexp.MustCompile(`(?m)^CONFLICT |Automatic merge failed`)
	patchFailedPattern      = regexp.MustCompile(`patch does not apply`)
	noStashPattern          = regexp.MustCompile(`No stash found|No stash entries found`)
	noLocalChangesPattern   = regexp.MustCompile(`No local changes to save`)
	localOverwrittenPattern = regexp.MustCompile(`Your local changes to the following files would be overwritten`)
	unknownPathspecPattern  = regexp.MustCompile(`pathspec '.+' did not match any file`)
)

// Add stages the given paths, or everything when none are given. Long
// path lists are chunked into sequential invocations.
func (r *Repository) Add(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		_, err := r.run(ctx, []string{"add", "--all", "."})
		return err
	}
	for _, chunk := range chunkPaths(sanitizeFsPaths(paths), maxCommandLineLength) {
		args := append([]string{"add", "--all", "--"}, chunk...)
		if _, err := r.run(ctx, args); err != nil {
			return err
		}
	}
	return nil
}

// RemoveFromIndex unstages paths without touching the working tree.
func (r *Repository) RemoveFromIndex(ctx context.Context, paths ...string) error {
	for _, chunk := range chunkPaths(sanitizeFsPaths(paths), maxCommandLineLength) {
		args := append([]string{"rm", "--cached", "-r", "--"}, chunk...)
		if _, err := r.run(ctx, args); err != nil {
			return err
		}
	}
	return nil
}

// Revert resets paths to their state at treeish.
func (r *Repository) Revert(ctx context.Context, treeish string, paths ...string) error {
	if len(paths) == 0 {
		_, err := r.run(ctx, []string{"reset", "--quiet", treeish})
		return err
	}
	for _, chunk := range chunkPaths(sanitizeFsPaths(paths), maxCommandLineLength) {
		args := append([]string{"reset", "--quiet", treeish, "--"}, chunk...)
		if _, err := r.run(ctx, args); err != nil {
			return err
		}
	}
	return nil
}

// Stage writes data as the index content of path without requiring a
// working-tree file: hash the object in, then point the index at it.
func (r *Repository) Stage(ctx context.Context, path string, data string) error {
	res, err := r.run(ctx,
		[]string{"hash-object", "--stdin", "-w", "--path", sanitizeFsPath(path)},
		withInput(data), silent())
	if err != nil {
		return err
	}
	object := strings.TrimSpace(res.StdoutText(""))
	_, err = r.run(ctx, []string{
		"update-index", "--add", "--cacheinfo", "100644", object, sanitizeFsPath(path),
	})
	return err
}

// Move renames a tracked file.
func (r *Repository) Move(ctx context.Context, from, to string) error {
	_, err := r.run(ctx, []string{"mv", sanitizeFsPath(from), sanitizeFsPath(to)})
	return err
}

// Checkout checks out a tree-ish, or restores the given paths from it.
func (r *Repository) Checkout(ctx context.Context, treeish string, paths ...string) error {
	if len(paths) == 0 {
		_, err := r.run(ctx, []string{"checkout", "--quiet", treeish})
		return refineCheckout(err)
	}
	for _, chunk := range chunkPaths(sanitizeFsPaths(paths), maxCommandLineLength) {
		args := []string{"checkout", "--quiet"}
		if treeish != "" {
			args = append(args, treeish)
		}
		args = append(args, "--")
		args = append(args, chunk...)
		if _, err := r.run(ctx, args); err != nil {
			return refineCheckout(err)
		}
	}
	return nil
}

func refineCheckout(err error) error {
	err = promote(err, domain.LocalChangesOverwritten, localOverwrittenPattern)
	return promote(err, domain.UnknownPath, unknownPathspecPattern)
}

// Clean removes untracked files. Each path group runs as its own
// invocation (chunked as needed) under a bounded limiter so a large
// batch cannot overwhelm the process table.
func (r *Repository) Clean(ctx context.Context, pathGroups [][]string) error {
	sem := semaphore.NewWeighted(cleanConcurrency)
	eg, ctx := errgroup.WithContext(ctx)

	for _, group := range pathGroups {
		for _, chunk := range chunkPaths(sanitizeFsPaths(group), maxCommandLineLength) {
			eg.Go(func() error {
				if err := sem.Acquire(ctx, 1); err != nil {
					return err
				}
				defer sem.Release(1)
				args := append([]string{"clean", "-f", "-q", "--"}, chunk...)
				_, err := r.run(ctx, args)
				return err
			})
		}
	}
	return eg.Wait()
}

// CommitOptions selects commit behaviors.
type CommitOptions struct {
	All     bool // Stage modified and deleted files first
	Amend   bool
	SignOff bool
	Empty   bool // Allow a commit with no changes
}

// Commit records the staged changes. On failure the error is refined: an
// unmerged working tree wins outright; otherwise missing identity
// configuration is promoted before the original error surfaces.
func (r *Repository) Commit(ctx context.Context, message string, opts CommitOptions) error {
	args := []string{"commit", "--quiet", "--allow-empty-message", "--file", "-"}
	if opts.All {
		args = append(args, "--all")
	}
	if opts.Amend {
		args = append(args, "--amend")
	}
	if opts.SignOff {
		args = append(args, "--signoff")
	}
	if opts.Empty {
		args = append(args, "--allow-empty")
	}

	_, err := r.run(ctx, args, withInput(message))
	if err != nil {
		return r.refineIdentityError(ctx, err)
	}
	return nil
}

// RebaseContinue resumes an interrupted rebase; it shares the commit
// verb's identity refinement because the continue step may itself commit.
func (r *Repository) RebaseContinue(ctx context.Context) error {
	_, err := r.run(ctx, []string{"rebase", "--continue"})
	if err != nil {
		return r.refineIdentityError(ctx, err)
	}
	return nil
}

// RebaseAbort abandons an in-progress rebase.
func (r *Repository) RebaseAbort(ctx context.Context) error {
	_, err := r.run(ctx, []string{"rebase", "--abort"})
	return err
}

// refineIdentityError handles commit-family failures. Unmerged files take
// precedence and skip the identity probe entirely; otherwise a missing
// user.name or user.email promotes the error to the corresponding
// configuration-missing code, and everything else surfaces unchanged.
func (r *Repository) refineIdentityError(ctx context.Context, err error) error {
	ge, ok := domain.AsGitError(err)
	if !ok {
		return err
	}
	if unmergedPattern.MatchString(ge.Stderr) || unmergedPattern.MatchString(ge.Stdout) {
		ge.Code = domain.UnmergedChanges
		return err
	}

	if name, cfgErr := r.Config(ctx, "", "user.name"); cfgErr == nil && name == "" {
		ge.Code = domain.NoUserNameConfigured
		return err
	}
	if email, cfgErr := r.Config(ctx, "", "user.email"); cfgErr == nil && email == "" {
		ge.Code = domain.NoUserEmailConfigured
		return err
	}
	return err
}

// Branch creates a branch, optionally checking it out.
func (r *Repository) Branch(ctx context.Context, name string, checkout bool) error {
	var args []string
	if checkout {
		args = []string{"checkout", "--quiet", "-b", name}
	} else {
		args = []string{"branch", "--quiet", name}
	}
	_, err := r.run(ctx, args)
	return err
}

// DeleteBranch removes a branch; force discards unmerged work.
func (r *Repository) DeleteBranch(ctx context.Context, name string, force bool) error {
	flag := "--delete"
	if force {
		flag = "-D"
	}
	_, err := r.run(ctx, []string{"branch", flag, name})
	return err
}

// RenameBranch renames the current branch.
func (r *Repository) RenameBranch(ctx context.Context, name string) error {
	_, err := r.run(ctx, []string{"branch", "--move", name})
	return err
}

// SetBranchUpstream points a branch at its tracking ref.
func (r *Repository) SetBranchUpstream(ctx context.Context, name, upstream string) error {
	_, err := r.run(ctx, []string{"branch", "--set-upstream-to", upstream, name})
	return err
}

// Merge merges ref into the current branch.
func (r *Repository) Merge(ctx context.Context, ref string) error {
	_, err := r.run(ctx, []string{"merge", ref})
	return promote(err, domain.Conflict, conflictPattern)
}

// MergeAbort abandons an in-progress merge.
func (r *Repository) MergeAbort(ctx context.Context) error {
	_, err := r.run(ctx, []string{"merge", "--abort"})
	return err
}

// CherryPick applies the named commit onto the current branch.
func (r *Repository) CherryPick(ctx context.Context, hash string) error {
	_, err := r.run(ctx, []string{"cherry-pick", hash})
	return promote(err, domain.Conflict, conflictPattern)
}

// Tag creates a tag; a non-empty message makes it annotated.
func (r *Repository) Tag(ctx context.Context, name, message string) error {
	args := []string{"tag"}
	if message != "" {
		args = append(args, "-a", name, "--file", "-")
		_, err := r.run(ctx, args, withInput(message))
		return err
	}
	args = append(args, name)
	_, err := r.run(ctx, args)
	return err
}

// DeleteTag removes a tag.
func (r *Repository) DeleteTag(ctx context.Context, name string) error {
	_, err := r.run(ctx, []string{"tag", "--delete", name})
	return err
}

// PushOptions selects push behaviors.
type PushOptions struct {
	Remote         string
	Ref            string
	SetUpstream    bool
	Force          bool
	ForceWithLease bool
	Tags           bool
}

// Push publishes refs, refining the rejection and missing-upstream cases.
func (r *Repository) Push(ctx context.Context, opts PushOptions) error {
	args := []string{"push"}
	if opts.SetUpstream {
		args = append(args, "--set-upstream")
	}
	if opts.ForceWithLease {
		args = append(args, "--force-with-lease")
	} else if opts.Force {
		args = append(args, "--force")
	}
	if opts.Tags {
		args = append(args, "--tags")
	}
	if opts.Remote != "" {
		args = append(args, opts.Remote)
	}
	if opts.Ref != "" {
		args = append(args, opts.Ref)
	}

	_, err := r.run(ctx, args)
	return promote(err, domain.NoUpstreamBranch, noUpstreamPattern)
}

// PullOptions selects pull behaviors.
type PullOptions struct {
	Rebase bool
	Remote string
	Ref    string
}

// Pull integrates remote changes, refining merge conflicts.
func (r *Repository) Pull(ctx context.Context, opts PullOptions) error {
	args := []string{"pull"}
	if opts.Rebase {
		args = append(args, "--rebase")
	}
	if opts.Remote != "" {
		args = append(args, opts.Remote)
	}
	if opts.Ref != "" {
		args = append(args, opts.Ref)
	}

	_, err := r.run(ctx, args)
	return promote(err, domain.Conflict, conflictPattern)
}

// FetchOptions selects fetch behaviors.
type FetchOptions struct {
	Remote string
	Ref    string
	Prune  bool
	Depth  int
}

// Fetch updates remote-tracking refs.
func (r *Repository) Fetch(ctx context.Context, opts FetchOptions) error {
	args := []string{"fetch"}
	if opts.Prune {
		args = append(args, "--prune")
	}
	if opts.Depth > 0 {
		args = append(args, fmt.Sprintf("--depth=%d", opts.Depth))
	}
	if opts.Remote != "" {
		args = append(args, opts.Remote)
	}
	if opts.Ref != "" {
		args = append(args, opts.Ref)
	}
	_, err := r.run(ctx, args)
	return err
}

// Apply applies a patch file to the working tree. The does-not-apply
// case is only meaningful in this verb's context, so it is refined here
// rather than in the global classifier.
func (r *Repository) Apply(ctx context.Context, patchPath string, reverse bool) error {
	args := []string{"apply", "--whitespace=nowarn"}
	if reverse {
		args = append(args, "--reverse")
	}
	args = append(args, sanitizeFsPath(patchPath))
	_, err := r.run(ctx, args)
	return promote(err, domain.PatchDoesNotApply, patchFailedPattern)
}

// StashSave stores the working-tree state as a new stash entry.
func (r *Repository) StashSave(ctx context.Context, message string, includeUntracked bool) error {
	args := []string{"stash", "push"}
	if includeUntracked {
		args = append(args, "--include-untracked")
	}
	if message != "" {
		args = append(args, "--message", message)
	}
	_, err := r.run(ctx, args)
	return promote(err, domain.NoLocalChanges, noLocalChangesPattern)
}

// StashPop applies and drops the stash entry at index.
func (r *Repository) StashPop(ctx context.Context, index int) error {
	return r.stashRestore(ctx, "pop", index)
}

// StashApply applies the stash entry at index, keeping it.
func (r *Repository) StashApply(ctx context.Context, index int) error {
	return r.stashRestore(ctx, "apply", index)
}

func (r *Repository) stashRestore(ctx context.Context, how string, index int) error {
	_, err := r.run(ctx, []string{"stash", how, fmt.Sprintf("stash@{%d}", index)})
	err = promote(err, domain.NoStashFound, noStashPattern)
	return promote(err, domain.StashConflict, conflictPattern)
}

// StashDrop deletes the stash entry at index.
func (r *Repository) StashDrop(ctx context.Context, index int) error {
	_, err := r.run(ctx, []string{"stash", "drop", fmt.Sprintf("stash@{%d}", index)})
	return promote(err, domain.NoStashFound, noStashPattern)
}

// SubmoduleUpdate initializes and updates the given submodule paths,
// chunked like the other path-list verbs.
func (r *Repository) SubmoduleUpdate(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		_, err := r.run(ctx, []string{"submodule", "update", "--init"})
		return err
	}
	for _, chunk := range chunkPaths(sanitizeFsPaths(paths), maxCommandLineLength) {
		args := append([]string{"submodule", "update", "--init", "--"}, chunk...)
		if _, err := r.run(ctx, args); err != nil {
			return err
		}
	}
	return nil
}
