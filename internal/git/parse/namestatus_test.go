package parse

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/okanester/gitbridge/internal/git/domain"
)

func TestParseNameStatus_SimpleStatuses(t *testing.T) {
	raw := "M\x00modified.txt\x00A\x00added.txt\x00D\x00deleted.txt\x00"

	changes := ParseNameStatus(raw)

	require.Equal(t, []domain.Change{
		{Path: "modified.txt", OriginalPath: "modified.txt", Status: domain.StatusModified},
		{Path: "added.txt", OriginalPath: "added.txt", Status: domain.StatusAdded},
		{Path: "deleted.txt", OriginalPath: "deleted.txt", Status: domain.StatusDeleted},
	}, changes)
}

func TestParseNameStatus_RenameConsumesTwoPaths(t *testing.T) {
	raw := "R100\x00old/name.txt\x00new/name.txt\x00"

	changes := ParseNameStatus(raw)

	require.Len(t, changes, 1)
	c := changes[0]
	require.Equal(t, domain.StatusRenamed, c.Status)
	require.Equal(t, "old/name.txt", c.OriginalPath)
	require.Equal(t, "new/name.txt", c.RenamePath)
	require.Equal(t, "new/name.txt", c.Path)
}

func TestParseNameStatus_CopyReportedAsRename(t *testing.T) {
	raw := "C75\x00source.txt\x00copy.txt\x00"

	changes := ParseNameStatus(raw)

	require.Len(t, changes, 1)
	require.Equal(t, domain.StatusRenamed, changes[0].Status)
	require.Equal(t, "source.txt", changes[0].OriginalPath)
	require.Equal(t, "copy.txt", changes[0].Path)
}

func TestParseNameStatus_ScoreSuffixIgnored(t *testing.T) {
	// Status fields may carry a similarity score ("R086"); only the leading
	// letter matters.
	raw := "M086\x00file.txt\x00"

	changes := ParseNameStatus(raw)

	require.Len(t, changes, 1)
	require.Equal(t, domain.StatusModified, changes[0].Status)
}

func TestParseNameStatus_UnknownStatusEndsParse(t *testing.T) {
	raw := "M\x00first.txt\x00X\x00weird.txt\x00A\x00unreached.txt\x00"

	changes := ParseNameStatus(raw)

	require.Len(t, changes, 1, "parsing stops at the unrecognized status")
	require.Equal(t, "first.txt", changes[0].Path)
}

func TestParseNameStatus_TruncatedRecordDropped(t *testing.T) {
	require.Empty(t, ParseNameStatus("M"))
	require.Len(t, ParseNameStatus("M\x00a.txt\x00R100\x00only-old.txt"), 1)
}

func TestParseNameStatus_EmptyInput(t *testing.T) {
	require.Empty(t, ParseNameStatus(""))
	require.Empty(t, ParseNameStatus("\x00"))
}

// TestProperty_ParseNameStatus_RoundTrip serializes random change lists into
// the wire shape and verifies the parse recovers them exactly.
func TestProperty_ParseNameStatus_RoundTrip(t *testing.T) {
	pathGen := rapid.StringMatching(`[a-z]{1,8}(/[a-z]{1,8}){0,2}\.[a-z]{1,3}`)

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 10).Draw(t, "n")

		var sb strings.Builder
		var want []domain.Change
		for i := 0; i < n; i++ {
			kind := rapid.SampledFrom([]string{"M", "A", "D", "R"}).Draw(t, fmt.Sprintf("kind-%d", i))
			path := pathGen.Draw(t, fmt.Sprintf("path-%d", i))
			switch kind {
			case "M":
				sb.WriteString("M\x00" + path + "\x00")
				want = append(want, domain.Change{Path: path, OriginalPath: path, Status: domain.StatusModified})
			case "A":
				sb.WriteString("A\x00" + path + "\x00")
				want = append(want, domain.Change{Path: path, OriginalPath: path, Status: domain.StatusAdded})
			case "D":
				sb.WriteString("D\x00" + path + "\x00")
				want = append(want, domain.Change{Path: path, OriginalPath: path, Status: domain.StatusDeleted})
			case "R":
				newPath := pathGen.Draw(t, fmt.Sprintf("newpath-%d", i))
				sb.WriteString("R100\x00" + path + "\x00" + newPath + "\x00")
				want = append(want, domain.Change{
					Path:         newPath,
					OriginalPath: path,
					RenamePath:   newPath,
					Status:       domain.StatusRenamed,
				})
			}
		}

		changes := ParseNameStatus(sb.String())

		require.Equal(t, len(want), len(changes))
		for i := range want {
			require.Equal(t, want[i], changes[i])
		}
	})
}
