// Package execute spawns the external git binary and turns its exit
// status and output streams into values the command façade can consume.
// It owns subprocess lifecycle only: argument vectors are built by the
// façade and output interpretation belongs to the parsers.
package execute

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/okanester/gitbridge/internal/git/domain"
	"github.com/okanester/gitbridge/internal/logstream"
)

// fixedEnv disables the pager and forces a fixed locale so output stays
// machine-parseable regardless of user configuration.
var fixedEnv = map[string]string{
	"GIT_PAGER": "cat",
	"LC_ALL":    "en_US.UTF-8",
	"LANG":      "en_US.UTF-8",
}

// noColorArg is appended to every argument vector.
const noColorArg = "--no-color"

// Options configures a single subprocess invocation.
type Options struct {
	Dir            string            // Working directory
	Args           []string          // Argument vector, without the binary
	Env            map[string]string // Caller environment overrides
	Input          string            // Fed to the subprocess stdin when non-empty
	Encoding       string            // IANA charset for stdout decoding; empty means UTF-8
	DisableLogging bool              // Suppress the observability events for this call
	MaxOutputBytes int64             // Kill and fail once stdout exceeds this; 0 = unlimited

	// OnSpawn receives the live command handle right after a successful
	// spawn, for progress scraping and early termination.
	OnSpawn func(*exec.Cmd)

	// OnStderrLine receives each stderr line (split on LF or CR, so
	// progress updates are seen) without interfering with buffering.
	OnStderrLine func(line string)
}

// Result is the outcome of one completed subprocess invocation.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   string
}

// StdoutText decodes the buffered stdout using the given charset,
// falling back to UTF-8 for unknown or invalid encodings.
func (r Result) StdoutText(encoding string) string {
	return Decode(r.Stdout, encoding)
}

// Runner executes git subprocesses. Each call owns its own buffers; the
// only shared state is the observability sink, which is append-only.
type Runner struct {
	gitPath string
	baseEnv map[string]string
	sink    *logstream.Sink
	tracer  trace.Tracer
}

// NewRunner creates a runner for the given binary path. The sink may be
// nil, in which case no log events are emitted.
func NewRunner(gitPath string, baseEnv map[string]string, sink *logstream.Sink) *Runner {
	return &Runner{
		gitPath: gitPath,
		baseEnv: baseEnv,
		sink:    sink,
		tracer:  otel.Tracer("gitbridge/execute"),
	}
}

// Run spawns one subprocess and waits for it. Non-zero exit yields a
// *domain.GitError alongside the buffered result, so callers that define
// non-zero exit as "no data" can still inspect the output. Cancellation
// of ctx races natural completion: whichever settles first wins, and a
// lost race still attempts best-effort process termination.
func (r *Runner) Run(ctx context.Context, opts Options) (Result, error) {
	if r.gitPath == "" {
		return Result{}, &domain.GitError{
			Message: "git binary path is not configured",
			Code:    domain.GitNotFound,
		}
	}

	args := make([]string, 0, len(opts.Args)+1)
	args = append(args, opts.Args...)
	args = append(args, noColorArg)
	commandLine := "git " + strings.Join(args, " ")

	ctx, span := r.tracer.Start(ctx, "git.exec",
		trace.WithAttributes(attribute.String("git.subcommand", subcommand(opts.Args))))
	defer span.End()

	cmd := exec.Command(r.gitPath, args...)
	cmd.Dir = opts.Dir
	cmd.Env = mergeEnv(os.Environ(), r.baseEnv, opts.Env)
	if opts.Input != "" {
		cmd.Stdin = strings.NewReader(opts.Input)
	}

	stdout := &boundedBuffer{limit: opts.MaxOutputBytes}
	var stderr bytes.Buffer
	cmd.Stdout = stdout

	var scanDone chan struct{}
	if opts.OnStderrLine == nil {
		cmd.Stderr = &stderr
	} else {
		pr, pw := io.Pipe()
		cmd.Stderr = io.MultiWriter(&stderr, pw)
		scanDone = make(chan struct{})
		go func() {
			defer close(scanDone)
			scanner := bufio.NewScanner(pr)
			scanner.Split(scanProgressLines)
			for scanner.Scan() {
				opts.OnStderrLine(scanner.Text())
			}
		}()
		defer func() {
			pw.Close()
			<-scanDone
		}()
	}

	// Exceeding the output cap kills the process so the pipe drain cannot
	// wedge; the truncated flag is checked after Wait. The nil guard covers
	// a write racing Start.
	stdout.onExceed = func() {
		if p := cmd.Process; p != nil {
			_ = p.Kill()
		}
	}

	id := uuid.NewString()
	start := time.Now()

	if err := cmd.Start(); err != nil {
		code := domain.ErrorCode("")
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			code = domain.GitNotFound
		}
		return Result{}, &domain.GitError{
			Message: "failed to spawn git",
			Code:    code,
			Command: commandLine,
			Err:     err,
		}
	}
	if opts.OnSpawn != nil {
		opts.OnSpawn(cmd)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var waitErr error
	select {
	case <-ctx.Done():
		// Kill is best effort; failures to kill are swallowed.
		_ = cmd.Process.Kill()
		<-done
		r.log(opts, id, args, start, stderr.String())
		return Result{}, &domain.GitError{
			Message: "operation cancelled",
			Code:    domain.Cancelled,
			Command: commandLine,
			Err:     ctx.Err(),
		}
	case waitErr = <-done:
	}

	result := Result{
		Stdout: stdout.Bytes(),
		Stderr: stderr.String(),
	}
	r.log(opts, id, args, start, result.Stderr)

	if stdout.truncated() {
		span.SetAttributes(attribute.Bool("git.truncated", true))
		return result, &domain.GitError{
			Message:  fmt.Sprintf("output exceeded %d bytes", opts.MaxOutputBytes),
			Code:     domain.OutputTruncated,
			Command:  commandLine,
			Stderr:   result.Stderr,
			ExitCode: result.ExitCode,
		}
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return result, &domain.GitError{
				Message: "failed to execute git",
				Command: commandLine,
				Stderr:  result.Stderr,
				Err:     waitErr,
			}
		}
		result.ExitCode = exitErr.ExitCode()
		span.SetAttributes(attribute.Int("git.exit_code", result.ExitCode))
		return result, &domain.GitError{
			Message:  fmt.Sprintf("git exited with code %d", result.ExitCode),
			Stdout:   result.StdoutText(opts.Encoding),
			Stderr:   result.Stderr,
			ExitCode: result.ExitCode,
			Command:  commandLine,
			Err:      waitErr,
		}
	}

	span.SetAttributes(
		attribute.Int("git.exit_code", 0),
		attribute.Int("git.stdout_bytes", len(result.Stdout)),
	)
	return result, nil
}

// RunText is Run with stdout decoded per the options encoding.
func (r *Runner) RunText(ctx context.Context, opts Options) (string, error) {
	result, err := r.Run(ctx, opts)
	if err != nil {
		return "", err
	}
	return result.StdoutText(opts.Encoding), nil
}

func (r *Runner) log(opts Options, id string, args []string, start time.Time, stderr string) {
	if opts.DisableLogging || r.sink == nil {
		return
	}
	elapsed := time.Since(start).Milliseconds()
	r.sink.Log(logstream.LevelInfo, id,
		"> git "+strings.Join(args, " "),
		"elapsed_ms", fmt.Sprintf("%d", elapsed))
	if s := strings.TrimSpace(stderr); s != "" {
		r.sink.Log(logstream.LevelWarn, id, s)
	}
}

func subcommand(args []string) string {
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			return a
		}
	}
	return ""
}

// mergeEnv layers override maps over a base "K=V" environment. Later
// layers win.
func mergeEnv(base []string, overrides ...map[string]string) []string {
	merged := make(map[string]string, len(base))
	order := make([]string, 0, len(base))
	for _, kv := range base {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if _, seen := merged[k]; !seen {
			order = append(order, k)
		}
		merged[k] = v
	}
	for _, layer := range append([]map[string]string{fixedEnv}, overrides...) {
		for k, v := range layer {
			if _, seen := merged[k]; !seen {
				order = append(order, k)
			}
			merged[k] = v
		}
	}
	env := make([]string, 0, len(order))
	for _, k := range order {
		env = append(env, k+"="+merged[k])
	}
	return env
}

// scanProgressLines splits on LF or CR so carriage-return progress
// updates ("Receiving objects:  42%") surface as individual tokens.
func scanProgressLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// boundedBuffer buffers writes up to an optional limit. The first write
// past the limit trips onExceed once and further input is discarded.
type boundedBuffer struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	limit    int64
	exceeded bool
	onExceed func()
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	var trip func()
	if b.limit > 0 && !b.exceeded && int64(b.buf.Len())+int64(len(p)) > b.limit {
		b.exceeded = true
		trip = b.onExceed
	}
	if !b.exceeded {
		b.buf.Write(p)
	}
	b.mu.Unlock()

	if trip != nil {
		trip()
	}
	// Report success so the exec copier keeps draining the pipe until the
	// killed process exits.
	return len(p), nil
}

func (b *boundedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Bytes()
}

func (b *boundedBuffer) truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exceeded
}
