package parse

import (
	"regexp"
	"strings"

	"github.com/okanester/gitbridge/internal/git/domain"
)

// remotePattern matches "name<TAB>url (fetch|push)" verbose remote rows.
var remotePattern = regexp.MustCompile(`^(\S+)\t(\S+) \((fetch|push)\)$`)

// ParseRemotes parses verbose remote listing output, merging the fetch
// and push rows of each remote into one record. Remotes keep the order of
// first appearance; malformed lines are dropped.
func ParseRemotes(raw string) []domain.Remote {
	var remotes []domain.Remote
	index := make(map[string]int)

	for _, line := range strings.Split(raw, "\n") {
		m := remotePattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		name, url, kind := m[1], m[2], m[3]

		i, ok := index[name]
		if !ok {
			i = len(remotes)
			index[name] = i
			remotes = append(remotes, domain.Remote{Name: name})
		}
		switch kind {
		case "fetch":
			remotes[i].FetchURL = url
		case "push":
			remotes[i].PushURL = url
		}
	}
	return remotes
}
