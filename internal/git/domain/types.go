// Package domain provides the structured records produced by parsing git
// output. Types here are plain data: they hold no subprocess state and are
// shared between the parsers, the repository façade, and its consumers.
package domain

import "time"

// Commit holds the metadata of a single commit parsed from log output.
type Commit struct {
	Hash        string    // Full 40-char SHA
	Message     string    // Full commit message, may span multiple lines
	Parents     []string  // Parent SHAs in order; empty for a root commit
	AuthorName  string    // Author name
	AuthorEmail string    // Author email
	AuthorDate  time.Time // When the change was authored
	CommitDate  time.Time // When the commit object was created
}

// ChangeStatus classifies a working-tree or index change.
type ChangeStatus string

// Change statuses produced by the name-status diff parser.
const (
	StatusModified  ChangeStatus = "modified"
	StatusAdded     ChangeStatus = "added"
	StatusDeleted   ChangeStatus = "deleted"
	StatusRenamed   ChangeStatus = "renamed"
	StatusUntracked ChangeStatus = "untracked"
)

// Change describes one changed path from a name-status diff.
// For renames, OriginalPath is the pre-rename path and RenamePath the
// post-rename path; Path always names the file as it exists now.
type Change struct {
	Path         string       `json:"path"`
	OriginalPath string       `json:"originalPath"`
	RenamePath   string       `json:"renamePath,omitempty"`
	Status       ChangeStatus `json:"status"`
}

// FileStatus is one entry of the structured status report. Index and
// WorkTree are the single-character state codes from the status code table
// (' ' means unchanged on that side).
type FileStatus struct {
	Index       byte
	WorkTree    byte
	Path        string
	RenamedFrom string
}

// StatusBranch describes the checked-out branch as reported by the
// structured status document.
type StatusBranch struct {
	Name       string
	Revision   string
	IsTerminus bool
	Heads      []string
}

// StatusReport is the parsed structured status document.
type StatusReport struct {
	Version int
	Branch  StatusBranch
	Entries []FileStatus
}

// RefType distinguishes the namespaces a ref can live in.
type RefType int

// Ref namespaces.
const (
	RefTypeHead RefType = iota
	RefTypeRemoteHead
	RefTypeTag
)

// Upstream identifies the remote tracking branch of a local branch.
type Upstream struct {
	Remote string `json:"remote"`
	Name   string `json:"name"`
}

// BranchInfo describes a single ref with its tracking state.
type BranchInfo struct {
	Name     string    `json:"name"`
	Commit   string    `json:"commit"`
	Type     RefType   `json:"type"`
	Upstream *Upstream `json:"upstream,omitempty"`
	Ahead    int       `json:"ahead"`
	Behind   int       `json:"behind"`
}

// HEAD describes the currently checked-out commit.
type HEAD struct {
	Name     string    // Branch name; empty when detached
	Commit   string    // Resolved SHA, when known
	Detached bool      // True when HEAD does not point at a branch
	Upstream *Upstream // Nil when no upstream is configured
	Ahead    int
	Behind   int
}

// Submodule is one declaration from a .gitmodules-style file.
type Submodule struct {
	Name string `json:"name"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Stash is a single stash entry.
type Stash struct {
	Index       int    `json:"index"`
	Description string `json:"description"`
}

// Remote is a configured remote with its fetch and push URLs.
type Remote struct {
	Name     string `json:"name"`
	FetchURL string `json:"fetchUrl,omitempty"`
	PushURL  string `json:"pushUrl,omitempty"`
}

// LsTreeElement is one row of a tree-ish listing.
type LsTreeElement struct {
	Mode   string
	Type   string
	Object string
	Size   string
	File   string
}

// LsFilesElement is one row of an index listing.
type LsFilesElement struct {
	Mode   string
	Object string
	Stage  string
	File   string
}
