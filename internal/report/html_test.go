package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmut/wasmut/internal/config"
	"github.com/wasmut/wasmut/internal/result"
)

func TestHTML_rendersOverallScoreAndFiles(t *testing.T) {
	summary := result.Summary{
		Overall: result.Counts{Killed: 3, Alive: 1},
		Files: []*result.FileSummary{
			{File: "src/math.c", Counts: result.Counts{Killed: 3, Alive: 1}},
		},
	}

	var buf bytes.Buffer
	err := HTML(&buf, summary, "", config.PathRewrite{})
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "src/math.c")
	require.Contains(t, out, "source unavailable")
	require.Contains(t, out, "75.0")
}

func TestHTML_appliesPathRewriteToDisplayedFile(t *testing.T) {
	summary := result.Summary{
		Overall: result.Counts{Killed: 1},
		Files: []*result.FileSummary{
			{File: "/build/foo.c", Counts: result.Counts{Killed: 1}},
		},
	}

	var buf bytes.Buffer
	err := HTML(&buf, summary, "", config.PathRewrite{Pattern: "^/build/", Replacement: "src/"})
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "src/foo.c")
	require.NotContains(t, out, "/build/foo.c")
}
