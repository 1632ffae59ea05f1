package parse

import (
	"encoding/json"
	"fmt"

	"github.com/okanester/gitbridge/internal/git/domain"
)

// statusDocument is the wire shape of the structured status command output.
type statusDocument struct {
	Version   int              `json:"Version"`
	Branch    statusBranch     `json:"Branch"`
	Resources []statusResource `json:"Resources"`
}

type statusBranch struct {
	Name       string   `json:"Name"`
	Revision   string   `json:"Revision"`
	IsTerminus bool     `json:"IsTerminus"`
	Heads      []string `json:"Heads"`
}

type statusResource struct {
	Staged        bool   `json:"Staged"`
	Status        string `json:"Status"`
	CurrentName   string `json:"CurrentName"`
	CanonicalName string `json:"CanonicalName"`
	Hash          string `json:"Hash"`
	Length        int64  `json:"Length"`
}

// ParseStatus parses the structured JSON status document. Malformed JSON
// fails the whole parse; individual resources with an unknown status
// keyword are dropped.
func ParseStatus(raw []byte) (domain.StatusReport, error) {
	var doc statusDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.StatusReport{}, fmt.Errorf("parsing status document: %w", err)
	}

	report := domain.StatusReport{
		Version: doc.Version,
		Branch: domain.StatusBranch{
			Name:       doc.Branch.Name,
			Revision:   doc.Branch.Revision,
			IsTerminus: doc.Branch.IsTerminus,
			Heads:      doc.Branch.Heads,
		},
	}

	for _, res := range doc.Resources {
		index, workTree, ok := statusCodes(res.Staged, res.Status)
		if !ok {
			continue
		}
		entry := domain.FileStatus{Index: index, WorkTree: workTree}
		entry.Path = res.CanonicalName
		if res.CurrentName != "" {
			entry.Path = res.CurrentName
		}
		// A resource whose current name differs from its canonical name is
		// a rename; the current name is the rename target.
		if res.CurrentName != "" && res.CanonicalName != "" && res.CurrentName != res.CanonicalName {
			entry.RenamedFrom = res.CanonicalName
		}
		report.Entries = append(report.Entries, entry)
	}

	return report, nil
}

// statusCodes maps a (staged, status keyword) pair to the two-character
// index/work-tree code pair. The table is fixed; unknown keywords report
// ok=false.
func statusCodes(staged bool, status string) (index, workTree byte, ok bool) {
	if staged {
		switch status {
		case "modified", "changed":
			return 'M', ' ', true
		case "added":
			return 'A', ' ', true
		case "deleted":
			return 'D', ' ', true
		case "copied":
			return 'C', ' ', true
		case "renamed":
			return 'R', ' ', true
		}
		return 0, 0, false
	}

	switch status {
	case "modified", "changed":
		return ' ', 'M', true
	case "deleted":
		return ' ', 'D', true
	case "unversioned":
		return '?', '?', true
	case "ignored":
		return '!', '!', true
	}
	return 0, 0, false
}
