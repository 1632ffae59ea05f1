package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/okanester/gitbridge/internal/config"
	"github.com/okanester/gitbridge/internal/git"
	"github.com/okanester/gitbridge/internal/git/execute"
	"github.com/okanester/gitbridge/internal/logstream"
)

// app carries the state shared by all subcommands.
type app struct {
	cfg      config.Config
	client   *git.Git
	repoPath string
	trace    bool

	shutdownTrace func(context.Context) error
	stopLogs      func()
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "gitbridge",
		Short:         "Drive the git CLI and print structured results",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.repoPath, "repo", ".", "repository path")
	root.PersistentFlags().BoolVar(&a.trace, "trace", false, "emit OpenTelemetry spans to stdout")

	root.AddCommand(
		newVersionCmd(a),
		newStatusCmd(a),
		newLogCmd(a),
		newBranchesCmd(a),
		newStashesCmd(a),
		newRemotesCmd(a),
	)
	return root
}

// setup loads configuration, locates git, and wires tracing plus the log
// stream before any subcommand runs.
func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.trace {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("creating trace exporter: %w", err)
		}
		provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		otel.SetTracerProvider(provider)
		a.shutdownTrace = provider.Shutdown
	}

	found, err := execute.NewFinder().Find(ctx, cfg.GitPath)
	if err != nil {
		return err
	}

	opts := []git.Option{git.WithEnv(cfg.Env)}
	if cfg.MaxOutputBytes > 0 {
		opts = append(opts, git.WithMaxOutputBytes(cfg.MaxOutputBytes))
	}
	a.client = git.New(found, opts...)
	if err := a.client.CheckVersion(); err != nil {
		return err
	}

	a.stopLogs = streamLogs(a.client.Sink(), levelFromName(cfg.LogLevel))
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	if a.client != nil {
		a.client.Close()
	}
	if a.stopLogs != nil {
		a.stopLogs()
	}
	if a.shutdownTrace != nil {
		return a.shutdownTrace(ctx)
	}
	return nil
}

// repo opens the repository named by --repo.
func (a *app) repo(ctx context.Context) (*git.Repository, error) {
	root, err := a.client.GetRepositoryRoot(ctx, a.repoPath)
	if err != nil {
		return nil, err
	}
	return a.client.Open(root), nil
}

// streamLogs forwards sink events at or above min to stderr until the
// returned stop function runs.
func streamLogs(sink *logstream.Sink, min logstream.Level) func() {
	events, cancel := sink.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if ev.Level < min {
				continue
			}
			fmt.Fprintf(os.Stderr, "[%s] %s %s\n",
				ev.Time.Format("15:04:05.000"), ev.Level, ev.Message)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func levelFromName(name string) logstream.Level {
	switch name {
	case "debug":
		return logstream.LevelDebug
	case "warn":
		return logstream.LevelWarn
	case "error":
		return logstream.LevelError
	default:
		return logstream.LevelInfo
	}
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
