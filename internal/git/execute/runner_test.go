package execute

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/okanester/gitbridge/internal/git/domain"
	"github.com/okanester/gitbridge/internal/logstream"
)

// writeScript drops an executable shell script standing in for the git
// binary. Scripts ignore the trailing --no-color argument the runner
// appends.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fakegit")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestRunner_EmptyPathFailsBeforeSpawn(t *testing.T) {
	r := NewRunner("", nil, nil)

	_, err := r.Run(context.Background(), Options{Args: []string{"status"}})

	require.Error(t, err)
	require.Equal(t, domain.GitNotFound, domain.CodeOf(err))
}

func TestRunner_SpawnFailureIsGitNotFound(t *testing.T) {
	r := NewRunner("definitely-not-a-real-binary-2ac81", nil, nil)

	_, err := r.Run(context.Background(), Options{Args: []string{"status"}})

	require.Error(t, err)
	require.Equal(t, domain.GitNotFound, domain.CodeOf(err))
}

func TestRunner_CapturesStdout(t *testing.T) {
	r := NewRunner(writeScript(t, `printf 'hello'`), nil, nil)

	res, err := r.Run(context.Background(), Options{Args: []string{"status"}})

	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, "hello", string(res.Stdout))
}

func TestRunner_AppendsNoColorArgument(t *testing.T) {
	r := NewRunner(writeScript(t, `printf '%s' "$@"`), nil, nil)

	out, err := r.RunText(context.Background(), Options{Args: []string{"status"}})

	require.NoError(t, err)
	require.Contains(t, out, "--no-color")
}

func TestRunner_NonZeroExitYieldsGitErrorWithResult(t *testing.T) {
	r := NewRunner(writeScript(t, `printf 'partial'; echo 'boom' >&2; exit 3`), nil, nil)

	res, err := r.Run(context.Background(), Options{Args: []string{"status"}})

	require.Error(t, err)
	ge, ok := domain.AsGitError(err)
	require.True(t, ok)
	require.Equal(t, 3, ge.ExitCode)
	require.Contains(t, ge.Stderr, "boom")
	require.Equal(t, "partial", ge.Stdout)
	require.Contains(t, ge.Command, "git status")

	// The buffered result is still usable for no-data-on-failure callers.
	require.Equal(t, 3, res.ExitCode)
	require.Equal(t, "partial", string(res.Stdout))
}

func TestRunner_InputReachesStdin(t *testing.T) {
	r := NewRunner(writeScript(t, `cat`), nil, nil)

	out, err := r.RunText(context.Background(), Options{Args: []string{"commit"}, Input: "the message"})

	require.NoError(t, err)
	require.Equal(t, "the message", out)
}

func TestRunner_CancellationKillsProcess(t *testing.T) {
	r := NewRunner(writeScript(t, `exec sleep 10`), nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.Run(ctx, Options{Args: []string{"fetch"}})

	require.Error(t, err)
	require.Equal(t, domain.Cancelled, domain.CodeOf(err))
	require.Less(t, time.Since(start), 5*time.Second, "cancellation must not wait for natural exit")
}

func TestRunner_OutputCapKillsAndReportsTruncation(t *testing.T) {
	r := NewRunner(writeScript(t, `exec head -c 10000000 /dev/zero`), nil, nil)

	start := time.Now()
	_, err := r.Run(context.Background(), Options{Args: []string{"log"}, MaxOutputBytes: 4096})

	require.Error(t, err)
	require.Equal(t, domain.OutputTruncated, domain.CodeOf(err))
	require.Less(t, time.Since(start), 5*time.Second, "the capped process must be killed, not drained")
}

func TestRunner_OnStderrLineSeesCarriageReturnProgress(t *testing.T) {
	r := NewRunner(writeScript(t, `printf 'step 1\rstep 2\rdone\n' >&2`), nil, nil)

	var lines []string
	_, err := r.Run(context.Background(), Options{
		Args:         []string{"clone"},
		OnStderrLine: func(line string) { lines = append(lines, line) },
	})

	require.NoError(t, err)
	require.Equal(t, []string{"step 1", "step 2", "done"}, lines)
}

func TestRunner_FixedEnvironmentApplied(t *testing.T) {
	r := NewRunner(writeScript(t, `printf '%s|%s' "$GIT_PAGER" "$LC_ALL"`), nil, nil)

	out, err := r.RunText(context.Background(), Options{Args: []string{"status"}})

	require.NoError(t, err)
	require.Equal(t, "cat|en_US.UTF-8", out)
}

func TestRunner_CallEnvOverridesBaseEnv(t *testing.T) {
	r := NewRunner(writeScript(t, `printf '%s' "$PROBE"`), map[string]string{"PROBE": "base"}, nil)

	out, err := r.RunText(context.Background(), Options{
		Args: []string{"status"},
		Env:  map[string]string{"PROBE": "call"},
	})

	require.NoError(t, err)
	require.Equal(t, "call", out)
}

func TestRunner_LogsInvocationToSink(t *testing.T) {
	sink := logstream.NewSink()
	defer sink.Close()
	events, cancelSub := sink.Subscribe()
	defer cancelSub()

	r := NewRunner(writeScript(t, `echo 'warning text' >&2`), nil, sink)

	_, err := r.Run(context.Background(), Options{Args: []string{"status"}})
	require.NoError(t, err)

	first := <-events
	require.Equal(t, logstream.LevelInfo, first.Level)
	require.Contains(t, first.Message, "> git status")
	require.Contains(t, first.Fields, "elapsed_ms")

	second := <-events
	require.Equal(t, logstream.LevelWarn, second.Level)
	require.Equal(t, "warning text", second.Message)
	require.Equal(t, first.ID, second.ID, "both events correlate to one invocation")
}

func TestRunner_DisableLoggingSuppressesEvents(t *testing.T) {
	sink := logstream.NewSink()
	defer sink.Close()
	events, cancelSub := sink.Subscribe()
	defer cancelSub()

	r := NewRunner(writeScript(t, `printf 'quiet'`), nil, sink)

	_, err := r.Run(context.Background(), Options{Args: []string{"show"}, DisableLogging: true})
	require.NoError(t, err)

	select {
	case ev := <-events:
		t.Fatalf("unexpected log event: %q", ev.Message)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRunner_OnSpawnReceivesLiveHandle(t *testing.T) {
	r := NewRunner(writeScript(t, `printf 'ok'`), nil, nil)

	spawned := false
	_, err := r.Run(context.Background(), Options{
		Args: []string{"status"},
		OnSpawn: func(cmd *exec.Cmd) {
			spawned = cmd.Process != nil
		},
	})

	require.NoError(t, err)
	require.True(t, spawned)
}

func TestMergeEnv_LayerPrecedence(t *testing.T) {
	env := mergeEnv(
		[]string{"A=base", "B=base"},
		map[string]string{"B": "override", "C": "new"},
	)

	require.Contains(t, env, "A=base")
	require.Contains(t, env, "B=override")
	require.Contains(t, env, "C=new")
	require.Contains(t, env, "GIT_PAGER=cat")
}

func TestScanProgressLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "newlines", input: "a\nb\n", want: []string{"a", "b"}},
		{name: "carriage returns", input: "a\rb\r", want: []string{"a", "b"}},
		{name: "mixed", input: "a\rb\nc", want: []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Split(scanProgressLines)
			var got []string
			for scanner.Scan() {
				got = append(got, scanner.Text())
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestStdoutText_DecodesPerEncoding(t *testing.T) {
	// "café" in latin-1.
	res := Result{Stdout: []byte{'c', 'a', 'f', 0xE9}}

	require.Equal(t, "café", res.StdoutText("iso-8859-1"))
	require.Equal(t, "caf\xe9", res.StdoutText(""), "no encoding means raw bytes as UTF-8")
}
