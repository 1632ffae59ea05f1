// Package parse converts raw git output into domain records. Every parser
// is a pure function of its input: no parser issues further commands.
// Parsers tolerate trailing whitespace and empty input by returning empty
// results; only structurally-required formats (the status JSON document,
// version and branch-status lines) fail hard.
package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/okanester/gitbridge/internal/git/domain"
)

// commitHashPattern matches a full object name.
var commitHashPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// ParseCommits parses NUL-terminated commit records of the form
//
//	<hash>\n<authorName>\n<authorEmail>\n<authorUnixTime>\n<commitUnixTime>\n<parent hashes>\n<message>
//
// as produced by log with a fixed format string and -z. Commits are
// returned in source order. Records that do not match the shape are
// skipped; a single trailing newline is stripped from the message.
func ParseCommits(raw string) []domain.Commit {
	var commits []domain.Commit
	for _, record := range strings.Split(raw, "\x00") {
		record = strings.TrimLeft(record, "\n")
		if record == "" {
			continue
		}
		if c, ok := parseCommitRecord(record); ok {
			commits = append(commits, c)
		}
	}
	return commits
}

func parseCommitRecord(record string) (domain.Commit, bool) {
	fields := strings.SplitN(record, "\n", 7)
	if len(fields) < 7 {
		return domain.Commit{}, false
	}
	hash := fields[0]
	if !commitHashPattern.MatchString(hash) {
		return domain.Commit{}, false
	}

	authorUnix, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return domain.Commit{}, false
	}
	commitUnix, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return domain.Commit{}, false
	}

	return domain.Commit{
		Hash:        hash,
		AuthorName:  fields[1],
		AuthorEmail: fields[2],
		AuthorDate:  time.Unix(authorUnix, 0).UTC(),
		CommitDate:  time.Unix(commitUnix, 0).UTC(),
		Parents:     strings.Fields(fields[5]),
		Message:     strings.TrimSuffix(fields[6], "\n"),
	}, true
}
