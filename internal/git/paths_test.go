package git

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestChunkPaths_AllFitInOneChunk(t *testing.T) {
	paths := []string{"a.txt", "b.txt", "c.txt"}

	chunks := chunkPaths(paths, maxCommandLineLength)

	require.Len(t, chunks, 1)
	require.Equal(t, paths, chunks[0])
}

func TestChunkPaths_SplitsAtBudget(t *testing.T) {
	// Each path costs len+1; with a budget of 20, two 9-char paths fit and
	// the third starts a new chunk.
	paths := []string{strings.Repeat("a", 9), strings.Repeat("b", 9), strings.Repeat("c", 9)}

	chunks := chunkPaths(paths, 20)

	require.Len(t, chunks, 2)
	require.Len(t, chunks[0], 2)
	require.Len(t, chunks[1], 1)
}

func TestChunkPaths_OversizedPathGetsOwnChunk(t *testing.T) {
	huge := strings.Repeat("x", 100)

	chunks := chunkPaths([]string{"small.txt", huge, "other.txt"}, 50)

	require.Len(t, chunks, 3)
	require.Equal(t, []string{huge}, chunks[1])
}

func TestChunkPaths_Empty(t *testing.T) {
	require.Empty(t, chunkPaths(nil, maxCommandLineLength))
}

// TestProperty_ChunkPaths verifies that chunking never loses, reorders, or
// duplicates paths, and that no multi-path chunk exceeds the budget.
func TestProperty_ChunkPaths(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 50).Draw(t, "n")
		budget := rapid.IntRange(1, 200).Draw(t, "budget")

		var paths []string
		for i := 0; i < n; i++ {
			paths = append(paths, rapid.StringMatching(`[a-z]{1,30}`).Draw(t, fmt.Sprintf("path-%d", i)))
		}

		chunks := chunkPaths(paths, budget)

		var flattened []string
		for _, chunk := range chunks {
			require.NotEmpty(t, chunk)
			if len(chunk) > 1 {
				length := 0
				for _, p := range chunk {
					length += len(p) + 1
				}
				require.LessOrEqual(t, length, budget)
			}
			flattened = append(flattened, chunk...)
		}
		require.Equal(t, paths, flattened)
	})
}

func TestSanitizeFsPath_IdentityOffWindows(t *testing.T) {
	require.Equal(t, "/work/repo", sanitizeFsPath("/work/repo"))
	require.Equal(t, "relative/path", sanitizeFsPath("relative/path"))
}

func TestWrongCase_AlwaysFalseOffWindows(t *testing.T) {
	require.False(t, wrongCase("/Work/Repo", "/work/repo"))
	require.False(t, wrongCase("", "/work/repo"))
}
