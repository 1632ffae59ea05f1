package execute

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/patrickmn/go-cache"

	"github.com/okanester/gitbridge/internal/git/domain"
	"github.com/okanester/gitbridge/internal/git/parse"
)

// knownPaths lists well-known install locations probed after the explicit
// hint and the PATH lookup, in priority order.
var knownPaths = map[string][]string{
	"darwin": {
		"/opt/homebrew/bin/git",
		"/usr/local/bin/git",
		"/usr/bin/git",
	},
	"linux": {
		"/usr/bin/git",
		"/usr/local/bin/git",
	},
	"windows": {
		`C:\Program Files\Git\cmd\git.exe`,
		`C:\Program Files (x86)\Git\cmd\git.exe`,
	},
}

// FoundGit is a validated git installation.
type FoundGit struct {
	Path    string
	Version *semver.Version
}

// Finder locates a usable git binary. Candidates are probed sequentially,
// not in parallel, stopping at the first one whose version output parses.
// Successful probes are memoized so repeated façade construction does not
// re-spawn version checks.
type Finder struct {
	probes *cache.Cache

	// probeVersion is swapped in tests to avoid spawning real processes.
	probeVersion func(ctx context.Context, path string) (*semver.Version, error)
}

// NewFinder creates a finder with a 30-minute probe cache.
func NewFinder() *Finder {
	return &Finder{
		probes:       cache.New(30*time.Minute, time.Hour),
		probeVersion: probeVersion,
	}
}

// Find locates git, trying the hint first, then PATH, then the well-known
// locations for the current OS. Total failure is the distinguished
// installation-not-found condition.
func (f *Finder) Find(ctx context.Context, hint string) (FoundGit, error) {
	key := "hint:" + hint
	if cached, ok := f.probes.Get(key); ok {
		return cached.(FoundGit), nil
	}

	var candidates []string
	if hint != "" {
		candidates = append(candidates, hint)
	}
	if fromPath, err := exec.LookPath("git"); err == nil {
		candidates = append(candidates, fromPath)
	}
	candidates = append(candidates, knownPaths[runtime.GOOS]...)

	for _, candidate := range candidates {
		version, err := f.probeVersion(ctx, candidate)
		if err != nil {
			continue
		}
		found := FoundGit{Path: candidate, Version: version}
		f.probes.Set(key, found, cache.DefaultExpiration)
		return found, nil
	}

	return FoundGit{}, &domain.GitError{
		Message: "git installation not found",
		Code:    domain.GitNotFound,
	}
}

// probeVersion validates a candidate by running "<candidate> version".
func probeVersion(ctx context.Context, path string) (*semver.Version, error) {
	cmd := exec.CommandContext(ctx, path, "version")
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	return parse.ParseVersion(strings.TrimSpace(string(out)))
}
