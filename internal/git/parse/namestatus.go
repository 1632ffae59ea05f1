package parse

import (
	"strings"

	"github.com/okanester/gitbridge/internal/git/domain"
)

// ParseNameStatus parses NUL-separated name-status diff output into
// changes. Each record is a status field followed by one path, or two
// paths for renames and copies. An unrecognized leading status letter
// ends parsing early: the remaining stream is treated as end of usable
// data, not as an error.
func ParseNameStatus(raw string) []domain.Change {
	fields := strings.Split(raw, "\x00")
	var changes []domain.Change

	i := 0
	for i < len(fields) {
		status := fields[i]
		if status == "" {
			i++
			continue
		}

		switch status[0] {
		case 'M':
			if i+1 >= len(fields) {
				return changes
			}
			changes = append(changes, simpleChange(fields[i+1], domain.StatusModified))
			i += 2
		case 'A':
			if i+1 >= len(fields) {
				return changes
			}
			changes = append(changes, simpleChange(fields[i+1], domain.StatusAdded))
			i += 2
		case 'D':
			if i+1 >= len(fields) {
				return changes
			}
			changes = append(changes, simpleChange(fields[i+1], domain.StatusDeleted))
			i += 2
		case 'R', 'C':
			// Copies are deliberately conflated with renames; the tool's
			// own distinction is ambiguous at this layer.
			if i+2 >= len(fields) {
				return changes
			}
			oldPath, newPath := fields[i+1], fields[i+2]
			changes = append(changes, domain.Change{
				Path:         newPath,
				OriginalPath: oldPath,
				RenamePath:   newPath,
				Status:       domain.StatusRenamed,
			})
			i += 3
		default:
			return changes
		}
	}

	return changes
}

func simpleChange(path string, status domain.ChangeStatus) domain.Change {
	return domain.Change{Path: path, OriginalPath: path, Status: status}
}
