package parse

import (
	"regexp"
	"strings"

	"github.com/okanester/gitbridge/internal/git/domain"
)

// lsTreePattern matches "<mode> <type> <object> <size>\t<file>" rows as
// emitted by a long-format tree listing.
var lsTreePattern = regexp.MustCompile(`^(\S+)\s+(\S+)\s+(\S+)\s+(\S+)\t(.*)$`)

// lsFilesPattern matches "<mode> <object> <stage>\t<file>" rows from an
// index listing.
var lsFilesPattern = regexp.MustCompile(`^(\S+)\s+(\S+)\s+(\S+)\t(.*)$`)

// ParseLsTree parses a long-format tree listing. Lines that do not match
// the expected column count are silently dropped.
func ParseLsTree(raw string) []domain.LsTreeElement {
	var elements []domain.LsTreeElement
	for _, line := range strings.Split(raw, "\n") {
		m := lsTreePattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		elements = append(elements, domain.LsTreeElement{
			Mode:   m[1],
			Type:   m[2],
			Object: m[3],
			Size:   m[4],
			File:   m[5],
		})
	}
	return elements
}

// ParseLsFiles parses an index listing. Lines that do not match the
// expected column count are silently dropped.
func ParseLsFiles(raw string) []domain.LsFilesElement {
	var elements []domain.LsFilesElement
	for _, line := range strings.Split(raw, "\n") {
		m := lsFilesPattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		elements = append(elements, domain.LsFilesElement{
			Mode:   m[1],
			Object: m[2],
			Stage:  m[3],
			File:   m[4],
		})
	}
	return elements
}
