// Package cloc counts lines of code with the cloc command-line tool.
package cloc

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/codemetrics/codemetrics/internal/contract"
	"github.com/codemetrics/codemetrics/schema"
)

// Get runs `cloc --csv --by-file path` in cwd and returns one entry per file.
func Get(ctx context.Context, runner contract.Runner, cwd, path, client string) ([]schema.ClocEntry, error) {
	if client == "" {
		client = contract.DefaultClocClient
	}
	if path == "" {
		path = "."
	}
	out, err := runner.Run(ctx, []string{client, "--csv", "--by-file", path}, cwd)
	if err != nil {
		if errors.Is(err, contract.ErrExecutableNotFound) {
			return nil, fmt.Errorf("%w. Is %s available? Use --cloc-client to point to it", err, client)
		}
		return nil, err
	}
	return Parse(strings.NewReader(out))
}

// Parse reads cloc CSV output. Header and summary rows are skipped, and
// commas inside file names are kept.
func Parse(r io.Reader) ([]schema.ClocEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	entries := []schema.ClocEntry{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read cloc output: %w", err)
		}
		if len(record) < 5 || record[0] == "" {
			continue
		}
		if lang := strings.TrimSpace(record[0]); lang == "language" || lang == "SUM" {
			continue
		}

		n := len(record)
		counts := make([]int, 3)
		for i, field := range record[n-3:] {
			if counts[i], err = strconv.Atoi(strings.TrimSpace(field)); err != nil {
				return nil, fmt.Errorf("failed to parse cloc record %q: %w", strings.Join(record, ","), err)
			}
		}
		entries = append(entries, schema.ClocEntry{
			Language: record[0],
			Path:     cleanPath(strings.Join(record[1:n-3], ",")),
			Blank:    counts[0],
			Comment:  counts[1],
			Code:     counts[2],
		})
	}
	return entries, nil
}

// cleanPath makes paths comparable with the log: slash separated, no leading "./".
func cleanPath(p string) string {
	p = filepath.ToSlash(p)
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}
