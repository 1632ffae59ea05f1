package parse

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/okanester/gitbridge/internal/git/domain"
)

func TestParseSubmodules_SingleDeclaration(t *testing.T) {
	raw := `[submodule "libfoo"]
	path = vendor/libfoo
	url = https://example.com/libfoo.git
`

	subs := ParseSubmodules(raw)

	require.Equal(t, []domain.Submodule{
		{Name: "libfoo", Path: "vendor/libfoo", URL: "https://example.com/libfoo.git"},
	}, subs)
}

func TestParseSubmodules_MultipleDeclarations(t *testing.T) {
	raw := `[submodule "one"]
	path = deps/one
	url = git@example.com:org/one.git
[submodule "two"]
	url = git@example.com:org/two.git
	path = deps/two
`

	subs := ParseSubmodules(raw)

	require.Len(t, subs, 2)
	require.Equal(t, "one", subs[0].Name)
	require.Equal(t, "two", subs[1].Name)
	require.Equal(t, "deps/two", subs[1].Path, "key order within a section must not matter")
}

func TestParseSubmodules_IncompleteRecordDiscarded(t *testing.T) {
	raw := `[submodule "no-url"]
	path = deps/no-url
[submodule "complete"]
	path = deps/complete
	url = https://example.com/complete.git
[submodule "no-path"]
	url = https://example.com/no-path.git
`

	subs := ParseSubmodules(raw)

	require.Len(t, subs, 1)
	require.Equal(t, "complete", subs[0].Name)
}

func TestParseSubmodules_KeysBeforeAnyHeaderIgnored(t *testing.T) {
	raw := `path = stray/path
url = https://example.com/stray.git
[submodule "real"]
	path = deps/real
	url = https://example.com/real.git
`

	subs := ParseSubmodules(raw)

	require.Len(t, subs, 1)
	require.Equal(t, "deps/real", subs[0].Path)
}

func TestParseSubmodules_UnknownKeysIgnored(t *testing.T) {
	raw := `[submodule "lib"]
	path = deps/lib
	url = https://example.com/lib.git
	branch = main
	shallow = true
`

	subs := ParseSubmodules(raw)

	require.Len(t, subs, 1)
}

func TestParseSubmodules_EmptyInput(t *testing.T) {
	require.Empty(t, ParseSubmodules(""))
	require.Empty(t, ParseSubmodules("\n\n"))
}

// TestProperty_ParseSubmodules_RoundTrip renders random complete
// declarations and verifies the parse recovers each one in order.
func TestProperty_ParseSubmodules_RoundTrip(t *testing.T) {
	nameGen := rapid.StringMatching(`[a-z][a-z0-9-]{0,12}`)
	pathGen := rapid.StringMatching(`[a-z]{1,8}/[a-z]{1,8}`)

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "n")

		var sb strings.Builder
		var want []domain.Submodule
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("%s-%d", nameGen.Draw(t, fmt.Sprintf("name-%d", i)), i)
			path := pathGen.Draw(t, fmt.Sprintf("path-%d", i))
			url := "https://example.com/" + name + ".git"

			fmt.Fprintf(&sb, "[submodule %q]\n\tpath = %s\n\turl = %s\n", name, path, url)
			want = append(want, domain.Submodule{Name: name, Path: path, URL: url})
		}

		subs := ParseSubmodules(sb.String())

		require.Equal(t, want, subs)
	})
}
