package scm

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/codemetrics/codemetrics/internal/contract"
	"github.com/codemetrics/codemetrics/schema"
)

// gitLogArgs produce one bracketed header per commit followed by numstat lines.
// The quotes are passed verbatim to git and come back around each header.
var gitLogArgs = []string{
	"log",
	`--pretty=format:"[%h] [%an] [%ad] [%s]"`,
	"--date=iso",
	"--numstat",
}

// gitDateLayout matches the output of --date=iso.
const gitDateLayout = "2006-01-02 15:04:05 -0700"

var (
	statLineRe = regexp.MustCompile(`^(-|\d+)\s+(-|\d+)\s+(.+?)\s*$`)
	bracesRe   = regexp.MustCompile(`^(.*?)\{(.*?) => (.*?)\}(.*)$`)
)

// GitCollector collects logs with `git log --numstat`.
type GitCollector struct {
	opts Options
}

var _ Collector = &GitCollector{} // Compile-time check

// NewGitCollector creates a git collector.
func NewGitCollector(opts Options) *GitCollector {
	return &GitCollector{opts: opts.withDefaults(schema.GitScm)}
}

// Backend implements Collector.
func (c *GitCollector) Backend() schema.ScmBackend {
	return schema.GitScm
}

// Command returns the git log command line. Zero bounds are omitted.
func (c *GitCollector) Command(after, before time.Time, path string) []string {
	argv := append([]string{c.opts.Client}, gitLogArgs...)
	if !after.IsZero() {
		argv = append(argv, "--after", after.Format(contract.DateFormat))
	}
	if !before.IsZero() {
		argv = append(argv, "--before", before.Format(contract.DateFormat))
	}
	return append(argv, pathOrDot(path))
}

// GetLog implements Collector.
func (c *GitCollector) GetLog(ctx context.Context, opts LogOptions) (schema.LogTable, error) {
	after, before, end := dateRange(opts, c.opts.Now)
	argv := c.Command(after, before, opts.Path)
	return collect(ctx, c.opts, argv, c.ParseLog, after, end, opts.Progress)
}

// ParseLog parses git log output. Lines before the first header are ignored.
func (c *GitCollector) ParseLog(lines []string, emit func(schema.LogEntry)) error {
	var block []string
	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		err := c.parseCommit(block, emit)
		block = block[:0]
		return err
	}

	for _, line := range lines {
		line = unquote(line)
		if strings.HasPrefix(line, "[") {
			if err := flush(); err != nil {
				return err
			}
			block = append(block, line)
			continue
		}
		if len(block) == 0 {
			continue
		}
		block = append(block, line)
	}
	return flush()
}

// parseCommit converts a header and its numstat lines into entries.
// A commit without any numstat line yields a single entry without path.
func (c *GitCollector) parseCommit(block []string, emit func(schema.LogEntry)) error {
	rev, author, date, msg, err := parseGitHeader(block[0])
	if err != nil {
		return err
	}

	base := schema.LogEntry{
		Revision: rev,
		Author:   &author,
		Date:     &date,
		Message:  &msg,
	}

	emitted := false
	for _, line := range block[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		added, removed, path, copyFromPath, err := ParsePathElem(line)
		if err != nil {
			return err
		}
		entry := base
		entry.Path = &path
		entry.CopyFromPath = copyFromPath
		entry.Kind = schema.FileKind
		entry.Added = added
		entry.Removed = removed
		emit(entry.WithModDefaults(true, false))
		emitted = true
	}

	if !emitted {
		entry := base
		entry.Kind = schema.NoPathsKind
		emit(entry.WithModDefaults(true, false))
	}
	return nil
}

// parseGitHeader splits "[hash] [author] [date] [subject]". The subject may
// itself contain "] [" so everything after the date is kept as is.
func parseGitHeader(line string) (rev, author string, date time.Time, msg string, err error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
	parts := strings.SplitN(inner, "] [", 4)
	if len(parts) < 3 {
		return "", "", time.Time{}, "", &ParseError{
			Backend: schema.GitScm,
			Input:   line,
			Err:     errors.New("expected [hash] [author] [date] [subject]"),
		}
	}
	date, err = time.Parse(gitDateLayout, parts[2])
	if err != nil {
		return "", "", time.Time{}, "", &ParseError{Backend: schema.GitScm, Input: line, Err: err}
	}
	if len(parts) == 4 {
		msg = parts[3]
	}
	return parts[0], parts[1], date.UTC(), msg, nil
}

// ParsePathElem parses one numstat line into lines added, lines removed,
// the path and the path it was renamed from, if any. Binary files report
// "-" counts, returned as NaN.
func ParsePathElem(line string) (added, removed float64, path string, copyFromPath *string, err error) {
	m := statLineRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0, 0, "", nil, &ParseError{
			Backend: schema.GitScm,
			Input:   line,
			Err:     errors.New("expected <added> <removed> <path>"),
		}
	}
	added = parseCount(m[1])
	removed = parseCount(m[2])
	path, copyFromPath = parseRenamePath(m[3])
	return added, removed, path, copyFromPath, nil
}

// parseRenamePath handles "prefix{old => new}suffix" and "old => new".
func parseRenamePath(desc string) (string, *string) {
	if b := bracesRe.FindStringSubmatch(desc); b != nil {
		prefix, oldMid, newMid, suffix := b[1], b[2], b[3], b[4]
		path := collapseSlashes(prefix + newMid + suffix)
		from := collapseSlashes(prefix + oldMid + suffix)
		return path, &from
	}
	if oldPath, newPath, ok := strings.Cut(desc, " => "); ok {
		return newPath, &oldPath
	}
	return desc, nil
}

// collapseSlashes removes the doubled separator left by an empty segment.
func collapseSlashes(p string) string {
	return strings.ReplaceAll(p, "//", "/")
}

func parseCount(s string) float64 {
	if s == "-" {
		return math.NaN()
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return math.NaN()
	}
	return float64(v)
}

// unquote strips the quotes some shells wrap around a whole line.
func unquote(line string) string {
	if len(line) > 2 && line[0] == '"' && line[len(line)-1] == '"' {
		return line[1 : len(line)-1]
	}
	return line
}
