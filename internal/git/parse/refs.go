package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/okanester/gitbridge/internal/git/domain"
)

// trackPattern matches the "[ahead N, behind M]" tracking marker of a
// for-each-ref %(upstream:track) field.
var trackPattern = regexp.MustCompile(`\[(?:ahead (\d+))?(?:, )?(?:behind (\d+))?\]`)

const (
	headPrefix   = "refs/heads/"
	remotePrefix = "refs/remotes/"
	tagPrefix    = "refs/tags/"
)

// ParseRefs parses for-each-ref output where each line carries four
// NUL-separated fields: refname, objectname, upstream short name, and
// upstream tracking marker. Lines outside the head/remote/tag namespaces
// or with the wrong field count are dropped.
func ParseRefs(raw string) []domain.BranchInfo {
	var refs []domain.BranchInfo
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\x00")
		if len(fields) != 4 {
			continue
		}
		refName, object, upstream, track := fields[0], fields[1], fields[2], fields[3]

		var info domain.BranchInfo
		switch {
		case strings.HasPrefix(refName, headPrefix):
			info = domain.BranchInfo{Name: strings.TrimPrefix(refName, headPrefix), Type: domain.RefTypeHead}
		case strings.HasPrefix(refName, remotePrefix):
			info = domain.BranchInfo{Name: strings.TrimPrefix(refName, remotePrefix), Type: domain.RefTypeRemoteHead}
		case strings.HasPrefix(refName, tagPrefix):
			info = domain.BranchInfo{Name: strings.TrimPrefix(refName, tagPrefix), Type: domain.RefTypeTag}
		default:
			continue
		}

		info.Commit = object
		if upstream != "" {
			info.Upstream = splitUpstream(upstream)
		}
		if m := trackPattern.FindStringSubmatch(track); m != nil {
			if m[1] != "" {
				info.Ahead, _ = strconv.Atoi(m[1])
			}
			if m[2] != "" {
				info.Behind, _ = strconv.Atoi(m[2])
			}
		}
		refs = append(refs, info)
	}
	return refs
}
