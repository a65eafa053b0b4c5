package scm

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/codemetrics/codemetrics/internal/contract"
	"github.com/codemetrics/codemetrics/schema"
	"github.com/sirupsen/logrus"
)

// svnTimeLayouts are tried in order. Zone-less stamps are taken as UTC.
var svnTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// svnLogEntry mirrors a <logentry> element of `svn log --xml -v`.
type svnLogEntry struct {
	XMLName  xml.Name  `xml:"logentry"`
	Revision string    `xml:"revision,attr"`
	Author   *string   `xml:"author"`
	Date     *string   `xml:"date"`
	Msg      *string   `xml:"msg"`
	Paths    []svnPath `xml:"paths>path"`
}

type svnPath struct {
	TextMods     *string `xml:"text-mods,attr"`
	Kind         *string `xml:"kind,attr"`
	Action       *string `xml:"action,attr"`
	PropMods     *string `xml:"prop-mods,attr"`
	CopyFromRev  *string `xml:"copyfrom-rev,attr"`
	CopyFromPath *string `xml:"copyfrom-path,attr"`
	Value        string  `xml:",chardata"`
}

// svnParseState is the state of the line buffering state machine.
type svnParseState int

const (
	awaitingEntry svnParseState = iota
	accumulatingEntry
)

// SvnCollector collects logs with `svn log --xml -v`.
type SvnCollector struct {
	opts        Options
	relativeURL string
}

var _ Collector = &SvnCollector{} // Compile-time check

// NewSvnCollector creates a subversion collector.
func NewSvnCollector(opts Options) *SvnCollector {
	return &SvnCollector{opts: opts.withDefaults(schema.SvnScm)}
}

// Backend implements Collector.
func (c *SvnCollector) Backend() schema.ScmBackend {
	return schema.SvnScm
}

// RelativeURL returns the repository relative URL of path, e.g. "/project/trunk".
// The first successful lookup is cached until ResetRelativeURL.
func (c *SvnCollector) RelativeURL(ctx context.Context, path string) (string, error) {
	if c.relativeURL != "" {
		return c.relativeURL, nil
	}
	out, err := c.opts.Runner.Run(ctx, []string{c.opts.Client, "info", pathOrDot(path)}, c.opts.Cwd)
	if err != nil {
		return "", err
	}
	for _, line := range splitLines(out) {
		if !strings.HasPrefix(line, "Relative URL") {
			continue
		}
		if _, encoded, ok := strings.Cut(line, ": ^"); ok {
			// svn info prints the URL escaped while log paths are not
			decoded, err := url.PathUnescape(strings.TrimSpace(encoded))
			if err != nil {
				return "", fmt.Errorf("invalid relative URL %q: %w", encoded, err)
			}
			c.relativeURL = decoded
			return c.relativeURL, nil
		}
	}
	return "", fmt.Errorf("no relative URL found in %s info output for %s", c.opts.Client, pathOrDot(path))
}

// ResetRelativeURL forgets the cached relative URL.
func (c *SvnCollector) ResetRelativeURL() {
	c.relativeURL = ""
}

// Command returns the svn log command line for the revision range
// {after}:{before}, or {after}:HEAD when before is zero.
func (c *SvnCollector) Command(after, before time.Time, path string) []string {
	upper := "HEAD"
	if !before.IsZero() {
		upper = "{" + before.Format(contract.DateFormat) + "}"
	}
	rng := "{" + after.Format(contract.DateFormat) + "}:" + upper
	return []string{c.opts.Client, "log", "--xml", "-v", "-r", rng, pathOrDot(path)}
}

// GetLog implements Collector.
func (c *SvnCollector) GetLog(ctx context.Context, opts LogOptions) (schema.LogTable, error) {
	relativeURL := opts.RelativeURL
	if relativeURL == "" {
		var err error
		if relativeURL, err = c.RelativeURL(ctx, opts.Path); err != nil {
			return schema.LogTable{}, err
		}
	}

	after, before, end := dateRange(opts, c.opts.Now)
	argv := c.Command(after, before, opts.Path)
	parse := func(lines []string, emit func(schema.LogEntry)) error {
		return c.ParseLog(lines, relativeURL, emit)
	}
	return collect(ctx, c.opts, argv, parse, after, end, opts.Progress)
}

// ParseLog buffers each <logentry> element and parses it on its closing tag.
// Absolute paths under relativeURL are made relative to it.
func (c *SvnCollector) ParseLog(lines []string, relativeURL string, emit func(schema.LogEntry)) error {
	state := awaitingEntry
	var buf strings.Builder

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch state {
		case awaitingEntry:
			if !strings.HasPrefix(trimmed, "<logentry") {
				continue
			}
			buf.Reset()
			state = accumulatingEntry
		case accumulatingEntry:
			buf.WriteByte('\n')
		}
		buf.WriteString(line)

		if strings.Contains(trimmed, "</logentry>") {
			if err := c.parseEntry(buf.String(), relativeURL, emit); err != nil {
				return err
			}
			state = awaitingEntry
		}
	}

	if state == accumulatingEntry {
		return &ParseError{Backend: schema.SvnScm, Input: buf.String(), Err: errors.New("unterminated logentry")}
	}
	return nil
}

// parseEntry converts one <logentry> fragment into one entry per path, or a
// single entry without path when the revision lists none.
func (c *SvnCollector) parseEntry(fragment, relativeURL string, emit func(schema.LogEntry)) error {
	var raw svnLogEntry
	if err := xml.Unmarshal([]byte(fragment), &raw); err != nil {
		return &ParseError{Backend: schema.SvnScm, Input: fragment, Err: err}
	}

	logger := c.opts.Logger.WithField("revision", raw.Revision)
	fields := []struct {
		name  string
		value *string
	}{{"author", raw.Author}, {"date", raw.Date}, {"msg", raw.Msg}}
	for _, f := range fields {
		if f.value == nil {
			logger.Warnf("failed to retrieve %s in logentry", f.name)
		}
	}

	base := schema.LogEntry{
		Revision: raw.Revision,
		Author:   raw.Author,
		Message:  raw.Msg,
		Added:    math.NaN(),
		Removed:  math.NaN(),
	}
	if raw.Date != nil {
		date, err := parseSvnDate(*raw.Date)
		if err != nil {
			return &ParseError{Backend: schema.SvnScm, Input: *raw.Date, Err: err}
		}
		base.Date = &date
	}

	if len(raw.Paths) == 0 {
		entry := base
		entry.Kind = schema.NoPathsKind
		emit(entry.WithModDefaults(false, false))
		return nil
	}

	for _, p := range raw.Paths {
		entry := base
		var err error
		if entry.TextMods, err = parseSvnBool(p.TextMods); err != nil {
			return err
		}
		if entry.PropMods, err = parseSvnBool(p.PropMods); err != nil {
			return err
		}
		if p.Kind != nil {
			entry.Kind = schema.Kind(*p.Kind)
		}
		if p.Action != nil {
			entry.Action = schema.Action(*p.Action)
		}
		entry.CopyFromRev = p.CopyFromRev
		if p.CopyFromPath != nil {
			from := c.relativize(*p.CopyFromPath, relativeURL, logger)
			entry.CopyFromPath = &from
		}
		if value := strings.TrimSpace(p.Value); value != "" {
			path := c.relativize(value, relativeURL, logger)
			entry.Path = &path
		} else {
			logger.Warn("empty path in logentry")
		}
		emit(entry.WithModDefaults(false, false))
	}
	return nil
}

// relativize strips relativeURL from an absolute repository path.
// Paths outside of it are returned unchanged.
func (c *SvnCollector) relativize(path, relativeURL string, logger logrus.FieldLogger) string {
	root := strings.TrimSuffix(relativeURL, "/")
	if path == root {
		return "."
	}
	if rel, ok := strings.CutPrefix(path, root+"/"); ok {
		return rel
	}
	logger.Warnf("%s is not under %s, keeping it as is", path, relativeURL)
	return path
}

// parseSvnDate parses an svn timestamp. Subversion reports UTC.
func parseSvnDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range svnTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parseSvnBool parses an optional boolean attribute. Nil stays unknown.
func parseSvnBool(v *string) (*bool, error) {
	if v == nil {
		return nil, nil
	}
	var b bool
	switch strings.ToLower(strings.TrimSpace(*v)) {
	case "true", "1", "t":
		b = true
	case "false", "0", "f", "":
		b = false
	default:
		return nil, &ParseError{Backend: schema.SvnScm, Input: *v, Err: errors.New("not a boolean")}
	}
	return &b, nil
}
