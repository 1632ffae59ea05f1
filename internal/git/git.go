// Package git is the repository command façade: one method per git verb,
// each building a deterministic argument vector, delegating to the
// process runner, refining failures through the error classifier, and
// feeding successful output through the matching parser.
package git

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/okanester/gitbridge/internal/git/domain"
	"github.com/okanester/gitbridge/internal/git/execute"
	"github.com/okanester/gitbridge/internal/logstream"
)

// defaultMaxOutputBytes caps buffered stdout per invocation.
const defaultMaxOutputBytes = 10 * 1024 * 1024

// supportedVersions gates the minimum tool version the façade drives.
var supportedVersions = mustConstraint(">= 2.20.0")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// commandRunner is the slice of the process runner the façade needs;
// tests substitute a recording fake.
type commandRunner interface {
	Run(ctx context.Context, opts execute.Options) (execute.Result, error)
	RunText(ctx context.Context, opts execute.Options) (string, error)
}

// Git is a handle on one validated git installation. It owns the
// observability sink for everything executed through it.
type Git struct {
	path           string
	version        *semver.Version
	env            map[string]string
	maxOutputBytes int64
	sink           *logstream.Sink
	runner         commandRunner
}

// Option customizes a Git client.
type Option func(*Git)

// WithEnv adds environment overrides applied to every invocation, on top
// of the fixed pager/locale overrides.
func WithEnv(env map[string]string) Option {
	return func(g *Git) { g.env = env }
}

// WithMaxOutputBytes changes the per-invocation stdout cap.
func WithMaxOutputBytes(n int64) Option {
	return func(g *Git) { g.maxOutputBytes = n }
}

// New creates a façade around a found installation. The sink is created
// here and torn down by Close.
func New(found execute.FoundGit, opts ...Option) *Git {
	g := &Git{
		path:           found.Path,
		version:        found.Version,
		maxOutputBytes: defaultMaxOutputBytes,
		sink:           logstream.NewSink(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.runner = execute.NewRunner(g.path, g.env, g.sink)
	return g
}

// Path returns the binary path in use.
func (g *Git) Path() string { return g.path }

// Version returns the probed tool version.
func (g *Git) Version() *semver.Version { return g.version }

// Sink exposes the observability stream for subscription.
func (g *Git) Sink() *logstream.Sink { return g.sink }

// Close disposes the façade and its log stream.
func (g *Git) Close() { g.sink.Close() }

// CheckVersion fails when the probed version is below the supported
// floor.
func (g *Git) CheckVersion() error {
	if g.version == nil {
		return nil
	}
	if !supportedVersions.Check(g.version) {
		return fmt.Errorf("git %s is not supported (need %s)", g.version, supportedVersions)
	}
	return nil
}

// Open returns a repository handle rooted at root. The handle owns no
// subprocess state; each command creates exactly one subprocess.
func (g *Git) Open(root string) *Repository {
	return &Repository{
		git:    g,
		runner: g.runner,
		root:   sanitizeFsPath(root),
		dotGit: filepath.Join(root, ".git"),
	}
}

// Init creates a new repository at path.
func (g *Git) Init(ctx context.Context, path string, bare bool) error {
	args := []string{"init"}
	if bare {
		args = append(args, "--bare")
	}
	_, err := g.runner.Run(ctx, execute.Options{Dir: path, Args: args, MaxOutputBytes: g.maxOutputBytes})
	return classified(err)
}

var clonePercentPattern = regexp.MustCompile(`(\d+)%`)

// Clone clones url under parentPath and returns the checkout directory.
// Progress percentages scraped from stderr are delivered to onProgress;
// cancellation via ctx kills the subprocess.
func (g *Git) Clone(ctx context.Context, url, parentPath string, onProgress func(percent int)) (string, error) {
	target := filepath.Join(parentPath, repoNameFromURL(url))
	opts := execute.Options{
		Args:           []string{"clone", url, target, "--progress"},
		MaxOutputBytes: g.maxOutputBytes,
	}
	if onProgress != nil {
		opts.OnStderrLine = func(line string) {
			if m := clonePercentPattern.FindStringSubmatch(line); m != nil {
				if pct, err := strconv.Atoi(m[1]); err == nil {
					onProgress(pct)
				}
			}
		}
	}
	if _, err := g.runner.Run(ctx, opts); err != nil {
		return "", classified(err)
	}
	return target, nil
}

// GetRepositoryRoot resolves the repository root containing path. On the
// rename-insensitive comparison platform a root differing from the probed
// path only by drive-letter case is surfaced as WrongCase.
func (g *Git) GetRepositoryRoot(ctx context.Context, path string) (string, error) {
	out, err := g.runner.RunText(ctx, execute.Options{
		Dir:            path,
		Args:           []string{"rev-parse", "--show-toplevel"},
		MaxOutputBytes: g.maxOutputBytes,
	})
	if err != nil {
		return "", classified(err)
	}
	root := filepath.FromSlash(strings.TrimSpace(out))
	if wrongCase(path, root) {
		return "", &domain.GitError{
			Message: fmt.Sprintf("repository path %q differs from %q only by case", path, root),
			Code:    domain.WrongCase,
		}
	}
	return root, nil
}

// repoNameFromURL extracts the checkout directory name from the usual
// remote URL shapes (scp-like and scheme URLs, with or without .git).
func repoNameFromURL(url string) string {
	name := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	if idx := strings.LastIndexAny(name, "/:"); idx >= 0 {
		name = name[idx+1:]
	}
	if name == "" {
		return "repository"
	}
	return name
}
