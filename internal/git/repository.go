package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/okanester/gitbridge/internal/git/domain"
	"github.com/okanester/gitbridge/internal/git/execute"
	"github.com/okanester/gitbridge/internal/git/parse"
)

// commitFormat yields the newline-separated fixed fields the commit log
// parser expects; records are NUL-terminated via -z.
const commitFormat = "%H%n%an%n%ae%n%at%n%ct%n%P%n%B"

// Repository is a handle on one working tree: the root path plus the
// control-directory path. It owns no subprocess state.
type Repository struct {
	git    *Git
	runner commandRunner
	root   string
	dotGit string
}

// Root returns the working-tree root path.
func (r *Repository) Root() string { return r.root }

// DotGit returns the control-directory path.
func (r *Repository) DotGit() string { return r.dotGit }

// run executes one invocation rooted at the repository, refining any
// failure through the global classifier.
func (r *Repository) run(ctx context.Context, args []string, mods ...func(*execute.Options)) (execute.Result, error) {
	opts := execute.Options{
		Dir:            r.root,
		Args:           args,
		MaxOutputBytes: r.git.maxOutputBytes,
	}
	for _, mod := range mods {
		mod(&opts)
	}
	res, err := r.runner.Run(ctx, opts)
	return res, classified(err)
}

func withInput(input string) func(*execute.Options) {
	return func(o *execute.Options) { o.Input = input }
}

func withEncoding(encoding string) func(*execute.Options) {
	return func(o *execute.Options) { o.Encoding = encoding }
}

func silent() func(*execute.Options) {
	return func(o *execute.Options) { o.DisableLogging = true }
}

// Status runs the structured status command and parses its JSON document.
// Malformed JSON is fatal for the call, never silently defaulted.
func (r *Repository) Status(ctx context.Context) (domain.StatusReport, error) {
	res, err := r.run(ctx, []string{"status", "--json"})
	if err != nil {
		return domain.StatusReport{}, err
	}
	return parse.ParseStatus(res.Stdout)
}

// LogOptions narrows what Log returns.
type LogOptions struct {
	MaxEntries int    // 0 means the default of 32
	Ref        string // Ref to walk from; empty means HEAD
	Path       string // Restrict to commits touching this path
	Encoding   string // Charset hint for message decoding
}

// Log returns commits in log order. A non-zero exit with empty output
// means an empty repository, not an error.
func (r *Repository) Log(ctx context.Context, opts LogOptions) ([]domain.Commit, error) {
	max := opts.MaxEntries
	if max <= 0 {
		max = 32
	}
	args := []string{"log", "-z", "--format=" + commitFormat, "-n", strconv.Itoa(max)}
	if opts.Ref != "" {
		args = append(args, opts.Ref)
	}
	if opts.Path != "" {
		args = append(args, "--", opts.Path)
	}

	res, err := r.run(ctx, args, withEncoding(opts.Encoding))
	if err != nil {
		var ge *domain.GitError
		if errors.As(err, &ge) && ge.ExitCode != 0 && strings.TrimSpace(ge.Stdout) == "" {
			return nil, nil
		}
		return nil, err
	}
	return parse.ParseCommits(res.StdoutText(opts.Encoding)), nil
}

// GetCommit returns the single commit named by ref.
func (r *Repository) GetCommit(ctx context.Context, ref string) (domain.Commit, error) {
	commits, err := r.Log(ctx, LogOptions{MaxEntries: 1, Ref: ref})
	if err != nil {
		return domain.Commit{}, err
	}
	if len(commits) == 0 {
		return domain.Commit{}, fmt.Errorf("commit %q not found", ref)
	}
	return commits[0], nil
}

// DiffOptions selects which trees a name-status diff compares.
type DiffOptions struct {
	Cached bool   // Diff the index against Ref1 instead of the working tree
	Ref1   string // Left side; empty means the working tree default
	Ref2   string // Right side for ref↔ref diffs
}

// Changes returns the name-status diff as structured change records.
func (r *Repository) Changes(ctx context.Context, opts DiffOptions) ([]domain.Change, error) {
	args := []string{"diff", "-z", "--name-status", "--find-renames"}
	if opts.Cached {
		args = append(args, "--cached")
	}
	if opts.Ref1 != "" {
		args = append(args, opts.Ref1)
	}
	if opts.Ref2 != "" {
		args = append(args, opts.Ref2)
	}

	res, err := r.run(ctx, args)
	if err != nil {
		return nil, err
	}
	return parse.ParseNameStatus(res.StdoutText("")), nil
}

// Diff returns the raw unified diff text for the given comparison.
func (r *Repository) Diff(ctx context.Context, opts DiffOptions, paths ...string) (string, error) {
	args := []string{"diff"}
	if opts.Cached {
		args = append(args, "--cached")
	}
	if opts.Ref1 != "" {
		args = append(args, opts.Ref1)
	}
	if opts.Ref2 != "" {
		args = append(args, opts.Ref2)
	}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, sanitizeFsPaths(paths)...)
	}
	res, err := r.run(ctx, args)
	if err != nil {
		return "", err
	}
	return res.StdoutText(""), nil
}

// Buffer returns the raw object bytes at ref:path together with a
// best-effort MIME/charset detection over its first 4KB. Object retrieval
// does not log by default.
func (r *Repository) Buffer(ctx context.Context, ref, path string) ([]byte, execute.DetectionResult, error) {
	res, err := r.run(ctx, []string{"show", "--textconv", ref + ":" + path}, silent())
	if err != nil {
		return nil, execute.DetectionResult{}, err
	}
	return res.Stdout, execute.DetectMimeAndEncoding(res.Stdout), nil
}

// Blame returns raw blame output for path at ref.
func (r *Repository) Blame(ctx context.Context, ref, path string) (string, error) {
	args := []string{"blame", "--root"}
	if ref != "" {
		args = append(args, ref)
	}
	args = append(args, "--", sanitizeFsPath(path))
	res, err := r.run(ctx, args)
	if err != nil {
		return "", err
	}
	return res.StdoutText(""), nil
}

// GetHEAD resolves the checked-out branch, falling back to the detached
// commit when HEAD points at no branch.
func (r *Repository) GetHEAD(ctx context.Context) (domain.HEAD, error) {
	res, err := r.run(ctx, []string{"symbolic-ref", "--short", "HEAD"})
	if err == nil {
		return domain.HEAD{Name: strings.TrimSpace(res.StdoutText(""))}, nil
	}

	res, err = r.run(ctx, []string{"rev-parse", "HEAD"})
	if err != nil {
		return domain.HEAD{}, err
	}
	return domain.HEAD{Commit: strings.TrimSpace(res.StdoutText("")), Detached: true}, nil
}

// GetBranchStatus parses the prose branch header of short status output:
// branch name, upstream, and ahead/behind counts. An unrecognized header
// is a hard parse failure, distinct from the recognized no-upstream form.
func (r *Repository) GetBranchStatus(ctx context.Context) (domain.HEAD, error) {
	res, err := r.run(ctx, []string{"status", "--short", "--branch"})
	if err != nil {
		return domain.HEAD{}, err
	}
	return parse.ParseBranchStatus(res.StdoutText(""))
}

// refsFormat carries the four NUL-separated fields ParseRefs expects.
const refsFormat = "%(refname)%00%(objectname)%00%(upstream:short)%00%(upstream:track)"

// GetBranches lists heads, remote heads, and tags with tracking state.
func (r *Repository) GetBranches(ctx context.Context) ([]domain.BranchInfo, error) {
	res, err := r.run(ctx, []string{"for-each-ref", "--format", refsFormat})
	if err != nil {
		return nil, err
	}
	return parse.ParseRefs(res.StdoutText("")), nil
}

// GetBranch finds one branch by name among heads, then remote heads.
func (r *Repository) GetBranch(ctx context.Context, name string) (domain.BranchInfo, error) {
	branches, err := r.GetBranches(ctx)
	if err != nil {
		return domain.BranchInfo{}, err
	}
	for _, b := range branches {
		if b.Name == name && b.Type == domain.RefTypeHead {
			return b, nil
		}
	}
	for _, b := range branches {
		if b.Name == name && b.Type == domain.RefTypeRemoteHead {
			return b, nil
		}
	}
	return domain.BranchInfo{}, fmt.Errorf("branch %q not found", name)
}

// GetRemotes lists configured remotes.
func (r *Repository) GetRemotes(ctx context.Context) ([]domain.Remote, error) {
	res, err := r.run(ctx, []string{"remote", "--verbose"})
	if err != nil {
		return nil, err
	}
	return parse.ParseRemotes(res.StdoutText("")), nil
}

// GetStashes lists stash entries.
func (r *Repository) GetStashes(ctx context.Context) ([]domain.Stash, error) {
	res, err := r.run(ctx, []string{"stash", "list"})
	if err != nil {
		return nil, err
	}
	return parse.ParseStashes(res.StdoutText("")), nil
}

// GetSubmodules parses the repository's .gitmodules declarations. An
// absent file degrades to an empty result.
func (r *Repository) GetSubmodules(ctx context.Context) ([]domain.Submodule, error) {
	raw, err := os.ReadFile(filepath.Join(r.root, ".gitmodules"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading .gitmodules: %w", err)
	}
	return parse.ParseSubmodules(string(raw)), nil
}

// LsTree lists a tree-ish in long format.
func (r *Repository) LsTree(ctx context.Context, treeish string, paths ...string) ([]domain.LsTreeElement, error) {
	args := []string{"ls-tree", "-l", treeish}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, sanitizeFsPaths(paths)...)
	}
	res, err := r.run(ctx, args)
	if err != nil {
		return nil, err
	}
	return parse.ParseLsTree(res.StdoutText("")), nil
}

// LsFiles lists index entries with stage information.
func (r *Repository) LsFiles(ctx context.Context, paths ...string) ([]domain.LsFilesElement, error) {
	args := []string{"ls-files", "--stage"}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, sanitizeFsPaths(paths)...)
	}
	res, err := r.run(ctx, args)
	if err != nil {
		return nil, err
	}
	return parse.ParseLsFiles(res.StdoutText("")), nil
}

// GetObjectDetails resolves the listing entry for path at treeish,
// failing with UnknownPath when the tree has no such entry.
func (r *Repository) GetObjectDetails(ctx context.Context, treeish, path string) (domain.LsTreeElement, error) {
	elements, err := r.LsTree(ctx, treeish, path)
	if err != nil {
		return domain.LsTreeElement{}, err
	}
	if len(elements) == 0 {
		return domain.LsTreeElement{}, &domain.GitError{
			Message: fmt.Sprintf("path %q does not exist in %q", path, treeish),
			Code:    domain.UnknownPath,
		}
	}
	return elements[0], nil
}

// RevParse resolves ref to an object name.
func (r *Repository) RevParse(ctx context.Context, ref string) (string, error) {
	res, err := r.run(ctx, []string{"rev-parse", ref})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.StdoutText("")), nil
}

// CheckIgnore reports which of the given paths are ignored. Exit code 1
// means none are, not that the call failed.
func (r *Repository) CheckIgnore(ctx context.Context, paths []string) (map[string]bool, error) {
	if len(paths) == 0 {
		return map[string]bool{}, nil
	}
	res, err := r.run(ctx,
		[]string{"check-ignore", "--verbose", "-z", "--stdin"},
		withInput(strings.Join(sanitizeFsPaths(paths), "\x00")))
	if err != nil {
		var ge *domain.GitError
		if errors.As(err, &ge) && ge.ExitCode == 1 {
			return map[string]bool{}, nil
		}
		return nil, err
	}

	ignored := make(map[string]bool)
	// Output is NUL-separated quads: source, line, pattern, path.
	fields := strings.Split(res.StdoutText(""), "\x00")
	for i := 3; i < len(fields); i += 4 {
		if fields[i] != "" {
			ignored[fields[i]] = true
		}
	}
	return ignored, nil
}

// Config reads one configuration value in the given scope ("local",
// "global", or empty for the merged view). A missing key yields an empty
// value, not an error.
func (r *Repository) Config(ctx context.Context, scope, key string) (string, error) {
	args := []string{"config"}
	if scope != "" {
		args = append(args, "--"+scope)
	}
	args = append(args, "--get", key)

	res, err := r.run(ctx, args)
	if err != nil {
		var ge *domain.GitError
		if errors.As(err, &ge) && ge.ExitCode == 1 {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(res.StdoutText("")), nil
}

// SetConfig writes one configuration value in the given scope.
func (r *Repository) SetConfig(ctx context.Context, scope, key, value string) error {
	args := []string{"config"}
	if scope != "" {
		args = append(args, "--"+scope)
	}
	args = append(args, key, value)
	_, err := r.run(ctx, args)
	return err
}
