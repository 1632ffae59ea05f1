package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies a known failure condition of the external git tool.
// Codes are assigned after the fact by matching stderr text; a failure that
// matches no known pattern keeps the zero value.
type ErrorCode string

// Known failure conditions.
const (
	// GitNotFound means no usable git binary could be located. The
	// activation layer is expected to catch this and prompt the user
	// rather than treat it as a crash.
	GitNotFound ErrorCode = "GitNotFound"

	NotARepository         ErrorCode = "NotARepository"
	RepositoryLocked       ErrorCode = "RepositoryLocked"
	AuthenticationFailed   ErrorCode = "AuthenticationFailed"
	BadConfigFile          ErrorCode = "BadConfigFile"
	RemoteConnectionError  ErrorCode = "RemoteConnectionError"
	RemoteNotFound         ErrorCode = "RemoteNotFound"
	BranchAlreadyExists    ErrorCode = "BranchAlreadyExists"
	InvalidBranchName      ErrorCode = "InvalidBranchName"
	BranchNotFullyMerged   ErrorCode = "BranchNotFullyMerged"
	NoRemoteReference      ErrorCode = "NoRemoteReference"
	DirtyWorkingTree       ErrorCode = "DirtyWorkingTree"
	UnmergedChanges        ErrorCode = "UnmergedChanges"
	NoUserNameConfigured   ErrorCode = "NoUserNameConfigured"
	NoUserEmailConfigured  ErrorCode = "NoUserEmailConfigured"
	Conflict               ErrorCode = "Conflict"
	PatchDoesNotApply      ErrorCode = "PatchDoesNotApply"
	PushRejected           ErrorCode = "PushRejected"
	NoUpstreamBranch       ErrorCode = "NoUpstreamBranch"
	NoStashFound           ErrorCode = "NoStashFound"
	StashConflict          ErrorCode = "StashConflict"
	LocalChangesOverwritten ErrorCode = "LocalChangesOverwritten"
	NoLocalChanges         ErrorCode = "NoLocalChanges"
	UnknownPath            ErrorCode = "UnknownPath"
	Cancelled              ErrorCode = "Cancelled"
	WrongCase              ErrorCode = "WrongCase"
	OutputTruncated        ErrorCode = "OutputTruncated"
)

// GitError is the failure surfaced to callers for any subprocess or parse
// problem. It is created at the point of failure and may be annotated with
// a more specific Code by the classifier or the command façade before it
// propagates.
type GitError struct {
	Message  string
	Stdout   string
	Stderr   string
	ExitCode int
	Code     ErrorCode
	Command  string // The argument vector that was executed, space-joined
	Err      error  // Underlying cause, if any
}

func (e *GitError) Error() string {
	var b strings.Builder
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString("git error")
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		b.WriteString(": ")
		b.WriteString(s)
	}
	return b.String()
}

func (e *GitError) Unwrap() error { return e.Err }

// AsGitError unwraps err into a *GitError if one is in its chain.
func AsGitError(err error) (*GitError, bool) {
	var ge *GitError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// CodeOf returns the error code carried by err, or the empty code when err
// is not a GitError or carries none.
func CodeOf(err error) ErrorCode {
	if ge, ok := AsGitError(err); ok {
		return ge.Code
	}
	return ""
}
