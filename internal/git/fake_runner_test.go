package git

import (
	"context"
	"fmt"

	"github.com/okanester/gitbridge/internal/git/domain"
	"github.com/okanester/gitbridge/internal/git/execute"
)

// fakeResponse is one queued reply of the fake runner.
type fakeResponse struct {
	result execute.Result
	err    error
}

// fakeRunner records every invocation and replays queued responses in
// order. With an empty queue every call succeeds with empty output.
type fakeRunner struct {
	calls     []execute.Options
	responses []fakeResponse
}

func (f *fakeRunner) Run(ctx context.Context, opts execute.Options) (execute.Result, error) {
	f.calls = append(f.calls, opts)
	if len(f.responses) == 0 {
		return execute.Result{}, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp.result, resp.err
}

func (f *fakeRunner) RunText(ctx context.Context, opts execute.Options) (string, error) {
	res, err := f.Run(ctx, opts)
	if err != nil {
		return "", err
	}
	return res.StdoutText(opts.Encoding), nil
}

func (f *fakeRunner) queue(stdout string, err error) {
	f.responses = append(f.responses, fakeResponse{
		result: execute.Result{Stdout: []byte(stdout)},
		err:    err,
	})
}

// argv returns the argument vector of call i.
func (f *fakeRunner) argv(i int) []string {
	return f.calls[i].Args
}

// exitError fabricates the failure shape the real runner produces for a
// non-zero exit.
func exitError(code int, stdout, stderr string) error {
	return &domain.GitError{
		Message:  fmt.Sprintf("git exited with code %d", code),
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: code,
	}
}

// newTestRepo wires a repository handle directly onto a fake runner.
func newTestRepo(f *fakeRunner) *Repository {
	g := &Git{maxOutputBytes: defaultMaxOutputBytes, runner: f}
	return g.Open("/work/repo")
}
