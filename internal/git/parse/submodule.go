package parse

import (
	"regexp"
	"strings"

	"github.com/okanester/gitbridge/internal/git/domain"
)

var submoduleHeaderPattern = regexp.MustCompile(`^\[submodule "(.+)"\]$`)

// ParseSubmodules parses .gitmodules-style text into submodule
// declarations. The parser is a two-state line machine: outside a
// submodule section, and inside one accumulating name/path/url. A new
// section header flushes the previous record if it is complete; end of
// input flushes the final pending record. Incomplete records (missing
// path or url) are discarded.
func ParseSubmodules(raw string) []domain.Submodule {
	var submodules []domain.Submodule
	var current *domain.Submodule

	flush := func() {
		if current != nil && current.Name != "" && current.Path != "" && current.URL != "" {
			submodules = append(submodules, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)

		if m := submoduleHeaderPattern.FindStringSubmatch(line); m != nil {
			flush()
			current = &domain.Submodule{Name: m[1]}
			continue
		}
		if current == nil {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "path":
			current.Path = strings.TrimSpace(value)
		case "url":
			current.URL = strings.TrimSpace(value)
		}
	}
	flush()

	return submodules
}
