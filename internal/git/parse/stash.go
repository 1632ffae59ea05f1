package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/okanester/gitbridge/internal/git/domain"
)

var stashPattern = regexp.MustCompile(`^stash@\{(\d+)\}: (.+)$`)

// ParseStashes parses "stash@{N}: description" list output. Malformed
// lines are dropped.
func ParseStashes(raw string) []domain.Stash {
	var stashes []domain.Stash
	for _, line := range strings.Split(raw, "\n") {
		m := stashPattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		stashes = append(stashes, domain.Stash{Index: index, Description: m[2]})
	}
	return stashes
}
