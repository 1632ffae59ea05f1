package git

import (
	"runtime"
	"strings"
)

// maxCommandLineLength bounds the total byte length of path arguments in
// one invocation. Longer lists are split into multiple sequential
// invocations whose results are concatenated.
const maxCommandLineLength = 30000

// chunkPaths splits paths into groups whose joined length stays under the
// command-line budget. A single oversized path still gets its own chunk.
func chunkPaths(paths []string, budget int) [][]string {
	var chunks [][]string
	var current []string
	length := 0

	for _, p := range paths {
		cost := len(p) + 1
		if len(current) > 0 && length+cost > budget {
			chunks = append(chunks, current)
			current = nil
			length = 0
		}
		current = append(current, p)
		length += cost
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// sanitizeFsPath canonicalizes the drive-letter case of a filesystem path
// argument before it reaches the subprocess. Only the rename-sensitive
// platform needs this; elsewhere it is the identity.
func sanitizeFsPath(path string) string {
	if runtime.GOOS != "windows" {
		return path
	}
	if len(path) >= 2 && path[1] == ':' {
		return strings.ToUpper(path[:1]) + path[1:]
	}
	return path
}

// sanitizeFsPaths maps sanitizeFsPath over a path list.
func sanitizeFsPaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = sanitizeFsPath(p)
	}
	return out
}

// wrongCase reports whether two paths name the same file but differ in
// drive-letter case. Always false off the rename-sensitive platform.
func wrongCase(requested, resolved string) bool {
	if runtime.GOOS != "windows" || requested == "" || resolved == "" {
		return false
	}
	return requested != resolved && strings.EqualFold(requested, resolved)
}
