package core

import (
	"context"
	"os"

	"github.com/codemetrics/codemetrics/core/progress"
	"github.com/codemetrics/codemetrics/internal/contract"
)

// Context keys for execution options
type contextKey string

const (
	runnerKey       contextKey = "runner"
	progressSinkKey contextKey = "progressSink"
	noProgressKey   contextKey = "noProgress"
)

// WithRunner sets the process runner used for SCM and cloc invocations.
func WithRunner(ctx context.Context, runner contract.Runner) context.Context {
	return context.WithValue(ctx, runnerKey, runner)
}

// runnerFrom returns the runner from context, or a local runner
func runnerFrom(ctx context.Context) contract.Runner {
	if r, ok := ctx.Value(runnerKey).(contract.Runner); ok && r != nil {
		return r
	}
	return contract.NewLocalRunner()
}

// WithProgressSink sets the sink receiving log collection progress.
func WithProgressSink(ctx context.Context, sink progress.Sink) context.Context {
	return context.WithValue(ctx, progressSinkKey, sink)
}

// WithoutProgress disables progress reporting regardless of configuration.
// The MCP server uses it since stdio carries the protocol.
func WithoutProgress(ctx context.Context) context.Context {
	return context.WithValue(ctx, noProgressKey, true)
}

// progressSinkFrom picks the sink for a log collection
func progressSinkFrom(ctx context.Context, cfg *contract.Config) progress.Sink {
	if disabled, ok := ctx.Value(noProgressKey).(bool); ok && disabled {
		return progress.Nop
	}
	if sink, ok := ctx.Value(progressSinkKey).(progress.Sink); ok && sink != nil {
		return sink
	}
	if cfg.Progress {
		return progress.NewBar(os.Stderr)
	}
	return progress.Nop
}
