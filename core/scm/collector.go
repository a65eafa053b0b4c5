// Package scm collects logs from source control clients and turns them into
// the canonical log table.
package scm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/codemetrics/codemetrics/core/logtable"
	"github.com/codemetrics/codemetrics/core/progress"
	"github.com/codemetrics/codemetrics/internal/contract"
	"github.com/codemetrics/codemetrics/schema"
	"github.com/sirupsen/logrus"
)

// Collector retrieves the log of one backend as a canonical table.
type Collector interface {
	Backend() schema.ScmBackend
	GetLog(ctx context.Context, opts LogOptions) (schema.LogTable, error)
}

// LogOptions are the per-call arguments of Collector.GetLog.
type LogOptions struct {
	Path        string    // defaults to "."
	After       time.Time // defaults to one year before Before
	Before      time.Time // zero means up to HEAD
	RelativeURL string    // svn only, skips `svn info` when set
	Progress    progress.Sink
}

// Options configure a collector or downloader for one working copy.
type Options struct {
	Client string // executable name, defaults per backend
	Cwd    string // working copy root
	Runner contract.Runner
	Logger logrus.FieldLogger
	Now    func() time.Time
}

// withDefaults fills unset options.
func (o Options) withDefaults(backend schema.ScmBackend) Options {
	if o.Client == "" {
		o.Client = contract.DefaultGitClient
		if backend == schema.SvnScm {
			o.Client = contract.DefaultSvnClient
		}
	}
	if o.Runner == nil {
		o.Runner = contract.NewLocalRunner()
	}
	if o.Logger == nil {
		o.Logger = contract.Logger
	}
	if o.Now == nil {
		o.Now = contract.Now
	}
	return o
}

// New creates the collector for backend. AutoScm detects the backend from opts.Cwd.
func New(backend schema.ScmBackend, opts Options) (Collector, error) {
	backend, err := resolveBackend(backend, opts.Cwd)
	if err != nil {
		return nil, err
	}
	switch backend {
	case schema.GitScm:
		return NewGitCollector(opts), nil
	case schema.SvnScm:
		return NewSvnCollector(opts), nil
	default:
		return nil, fmt.Errorf("unsupported scm backend: %s", backend)
	}
}

func resolveBackend(backend schema.ScmBackend, cwd string) (schema.ScmBackend, error) {
	if backend != schema.AutoScm && backend != "" {
		return backend, nil
	}
	dir := cwd
	if dir == "" {
		dir = "."
	}
	return contract.DetectBackend(dir)
}

// ParseError reports SCM output that cannot be understood.
type ParseError struct {
	Backend schema.ScmBackend
	Input   string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %q: %v", e.Backend, e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// parseFunc turns the lines of a log command into entries, calling emit for each.
type parseFunc func(lines []string, emit func(schema.LogEntry)) error

// dateRange applies default bounds and returns the progress end date.
func dateRange(opts LogOptions, now func() time.Time) (after, before, end time.Time) {
	after, before = opts.After, opts.Before
	if after.IsZero() {
		ref := before
		if ref.IsZero() {
			ref = now()
		}
		after = contract.YearAgo(ref)
	}
	end = before
	if end.IsZero() {
		end = now()
	}
	return after, before, end
}

// collect runs argv, parses its output and builds the normalized table.
// Every parsed entry is reported to the progress sink.
func collect(ctx context.Context, o Options, argv []string, parse parseFunc, start, end time.Time, sink progress.Sink) (schema.LogTable, error) {
	out, err := o.Runner.Run(ctx, argv, o.Cwd)
	if err != nil {
		return schema.LogTable{}, err
	}

	reporter := progress.NewReporter(sink, start, end, progress.Auto)

	var entries []schema.LogEntry
	err = parse(splitLines(out), func(e schema.LogEntry) {
		entries = append(entries, e)
		if e.Date != nil {
			reporter.Update(*e.Date)
		}
	})
	if err != nil {
		reporter.Abort()
		return schema.LogTable{}, err
	}
	reporter.Close()
	return logtable.ToTable(entries), nil
}

// splitLines splits command output on newlines and drops carriage returns.
func splitLines(out string) []string {
	lines := strings.Split(out, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func pathOrDot(path string) string {
	if path == "" {
		return "."
	}
	return path
}
