package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/okanester/gitbridge/internal/git/domain"
)

var versionPattern = regexp.MustCompile(`git version (\d+\.\d+(?:\.\d+)?)`)

// ParseVersion extracts the tool version from "git version X.Y.Z..."
// output. Absence of a parseable version is a hard failure: version
// probing is how a candidate binary is validated.
func ParseVersion(raw string) (*semver.Version, error) {
	m := versionPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("unrecognized version output %q", strings.TrimSpace(raw))
	}
	v, err := semver.NewVersion(m[1])
	if err != nil {
		return nil, fmt.Errorf("parsing version %q: %w", m[1], err)
	}
	return v, nil
}

var (
	// "## main...origin/main [ahead 1, behind 2]"
	branchUpstreamPattern = regexp.MustCompile(`^## (\S+?)\.\.\.(\S+?)(?: \[(?:ahead (\d+))?(?:, )?(?:behind (\d+))?(?:gone)?\])?$`)
	// "## HEAD (no branch)"
	branchDetachedPattern = regexp.MustCompile(`^## HEAD \(no branch\)$`)
	// "## No commits yet on main"
	branchInitialPattern = regexp.MustCompile(`^## No commits yet on (\S+)$`)
	// "## main" (no upstream configured)
	branchLocalPattern = regexp.MustCompile(`^## (\S+)$`)
)

// ParseBranchStatus parses the prose branch header line of short-format
// status output ("## branch...upstream [ahead N, behind M]" and its
// alternates). The no-upstream and detached forms are recognized
// patterns; any other shape is a hard parse failure, never a silent
// default.
func ParseBranchStatus(raw string) (domain.HEAD, error) {
	line := raw
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimRight(line, "\r ")

	if branchDetachedPattern.MatchString(line) {
		return domain.HEAD{Detached: true}, nil
	}
	if m := branchInitialPattern.FindStringSubmatch(line); m != nil {
		return domain.HEAD{Name: m[1]}, nil
	}
	if m := branchUpstreamPattern.FindStringSubmatch(line); m != nil {
		head := domain.HEAD{Name: m[1], Upstream: splitUpstream(m[2])}
		if m[3] != "" {
			head.Ahead, _ = strconv.Atoi(m[3])
		}
		if m[4] != "" {
			head.Behind, _ = strconv.Atoi(m[4])
		}
		return head, nil
	}
	if m := branchLocalPattern.FindStringSubmatch(line); m != nil {
		return domain.HEAD{Name: m[1]}, nil
	}

	return domain.HEAD{}, fmt.Errorf("unrecognized branch status line %q", line)
}

// splitUpstream splits "origin/feature/x" into remote "origin" and branch
// "feature/x".
func splitUpstream(ref string) *domain.Upstream {
	remote, name, ok := strings.Cut(ref, "/")
	if !ok {
		return &domain.Upstream{Name: ref}
	}
	return &domain.Upstream{Remote: remote, Name: name}
}
