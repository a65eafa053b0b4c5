package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/codemetrics/codemetrics/internal/contract"
	"github.com/codemetrics/codemetrics/internal/parquet"
	"github.com/codemetrics/codemetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleLog() schema.LogTable {
	date := time.Date(2018, 12, 5, 23, 44, 38, 0, time.UTC)
	return schema.LogTable{
		Columns: schema.LogColumns,
		Kinds:   []schema.Kind{schema.FileKind},
		Rows: []schema.LogRow{
			{
				Revision: "2adcc03", Author: "elmotec", Date: date,
				Path: ptr("codemetrics/core.py"), Message: "Fixed Windows specific paths",
				Kind: schema.FileKind, TextMods: true, Added: 1, Removed: 1,
			},
			{
				Revision: "1018", Author: "elmotec", Date: date,
				Path: ptr("trunk/stats.py"), Message: "Renamed, again",
				Kind: schema.SvnFileKind, Action: schema.AddedAction,
				CopyFromRev: ptr("1017"), CopyFromPath: ptr("trunk/old.py"),
				Added: math.NaN(), Removed: math.NaN(),
			},
		},
	}
}

// outputTo returns a config writing format to a file in a temp dir.
func outputTo(t *testing.T, format schema.OutputMode, name string) *contract.Config {
	t.Helper()
	return &contract.Config{
		Output:       format,
		OutputFile:   filepath.Join(t.TempDir(), name),
		Precision:    2,
		Width:        120,
		Workers:      4,
		CacheBackend: schema.SQLiteBackend,
	}
}

func readOutput(t *testing.T, cfg *contract.Config) string {
	t.Helper()
	content, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	return string(content)
}

func readCSV(t *testing.T, cfg *contract.Config) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(readOutput(t, cfg))).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteLogTable(t *testing.T) {
	cfg := outputTo(t, schema.TextOut, "log.txt")
	require.NoError(t, WriteLog(sampleLog(), cfg, 1500*time.Millisecond))

	out := readOutput(t, cfg)
	assert.Contains(t, out, "2adcc03")
	assert.Contains(t, out, "codemetrics/core.py")
	assert.Contains(t, out, "Showing 2 log rows")
	assert.Contains(t, out, "Completed in 1.5s with 4 workers. Cache backend: sqlite")
}

func TestWriteLogTableKeepsLongPaths(t *testing.T) {
	cfg := outputTo(t, schema.TextOut, "log.txt")
	cfg.Width = 80
	table := sampleLog()
	long := "codemetrics/some/deeply/nested/package/module.py"
	table.Rows[0].Path = &long
	require.NoError(t, WriteLog(table, cfg, time.Second))

	assert.Contains(t, readOutput(t, cfg), long, "files are not bound by the terminal width")
}

func TestWriteLogCSV(t *testing.T) {
	cfg := outputTo(t, schema.CSVOut, "log.csv")
	require.NoError(t, WriteLog(sampleLog(), cfg, time.Second))

	records := readCSV(t, cfg)
	require.Len(t, records, 3)
	assert.Equal(t, schema.ColumnNames(), records[0])
	assert.Equal(t, []string{
		"2adcc03", "elmotec", "2018-12-05T23:44:38Z", "codemetrics/core.py", "Fixed Windows specific paths",
		"f", "", "true", "false", "", "", "1", "1",
	}, records[1])
	assert.Equal(t, "A", records[2][6])
	assert.Equal(t, "trunk/old.py", records[2][10])
	assert.Equal(t, "", records[2][11], "NaN is an empty field")
	assert.Equal(t, "", records[2][12])
}

func TestWriteLogJSON(t *testing.T) {
	cfg := outputTo(t, schema.JSONOut, "log.json")
	require.NoError(t, WriteLog(sampleLog(), cfg, time.Second))

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &result))
	rows := result["rows"].([]any)
	require.Len(t, rows, 2)
	second := rows[1].(map[string]any)
	assert.Nil(t, second["added"], "NaN is null")
	assert.Equal(t, "A", second["action"])
	assert.Nil(t, rows[0].(map[string]any)["action"])
	assert.Len(t, result["columns"].([]any), len(schema.LogColumns))
}

func TestWriteLogParquet(t *testing.T) {
	cfg := outputTo(t, schema.ParquetOut, "log.parquet")
	require.NoError(t, WriteLog(sampleLog(), cfg, time.Second))

	rows, err := parquet.ReadLogParquet(cfg.OutputFile)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2adcc03", rows[0].Revision)
	assert.True(t, math.IsNaN(rows[1].Added))
}

func TestParquetOnlyForLog(t *testing.T) {
	cfg := outputTo(t, schema.ParquetOut, "ages.parquet")
	err := WriteAges(nil, cfg, time.Second)
	assert.ErrorContains(t, err, "parquet output is not supported for ages")
}

func TestWriteAges(t *testing.T) {
	ages := []schema.AgeResult{
		{Path: "codemetrics/core.py", Kind: schema.FileKind, Date: time.Date(2018, 12, 5, 23, 44, 38, 0, time.UTC), AgeDays: 1},
		{Path: "tests/test_core.py", Kind: schema.FileKind, Date: time.Date(2018, 12, 4, 21, 49, 55, 0, time.UTC), AgeDays: 2.0785},
	}

	t.Run("csv", func(t *testing.T) {
		cfg := outputTo(t, schema.CSVOut, "ages.csv")
		require.NoError(t, WriteAges(ages, cfg, time.Second))
		records := readCSV(t, cfg)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"path", "kind", "date", "age_days"}, records[0])
		assert.Equal(t, []string{"tests/test_core.py", "f", "2018-12-04T21:49:55Z", "2.08"}, records[2])
	})

	t.Run("table", func(t *testing.T) {
		cfg := outputTo(t, schema.TextOut, "ages.txt")
		require.NoError(t, WriteAges(ages, cfg, time.Second))
		out := readOutput(t, cfg)
		assert.Contains(t, out, "tests/test_core.py")
		assert.Contains(t, out, "Showing 2 paths")
	})
}

func TestWriteHotSpots(t *testing.T) {
	spots := []schema.HotSpotResult{
		{Path: "codemetrics/core.py", Language: "Python", Complexity: 130, Changes: 2, ComplexityScore: 1, ChangesScore: 1, Score: 2},
		{Path: "requirements.txt", Changes: 2, ChangesScore: 1, Score: 1},
	}

	t.Run("json has rank and plain label", func(t *testing.T) {
		cfg := outputTo(t, schema.JSONOut, "spots.json")
		require.NoError(t, WriteHotSpots(spots, cfg, time.Second))
		var result []map[string]any
		require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &result))
		require.Len(t, result, 2)
		assert.Equal(t, float64(1), result[0]["rank"])
		assert.Equal(t, "Critical", result[0]["label"])
		assert.Equal(t, "High", result[1]["label"])
		assert.Equal(t, "codemetrics/core.py", result[0]["path"])
	})

	t.Run("csv", func(t *testing.T) {
		cfg := outputTo(t, schema.CSVOut, "spots.csv")
		require.NoError(t, WriteHotSpots(spots, cfg, time.Second))
		records := readCSV(t, cfg)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"1", "codemetrics/core.py", "Python", "130.00", "2.00", "1.00", "1.00", "2.00", "Critical"}, records[1])
	})

	t.Run("table", func(t *testing.T) {
		cfg := outputTo(t, schema.TextOut, "spots.txt")
		require.NoError(t, WriteHotSpots(spots, cfg, time.Second))
		out := readOutput(t, cfg)
		assert.Contains(t, out, "Critical")
		assert.Contains(t, out, "Showing 2 hot spots")
	})
}

func TestWriteCoChanges(t *testing.T) {
	pairs := []schema.CoChangeResult{
		{Primary: "codemetrics/svn.py", Secondary: "codemetrics/core.py", CoChanges: 1, Changes: 1, Coupling: 1},
	}
	cfg := outputTo(t, schema.CSVOut, "co.csv")
	require.NoError(t, WriteCoChanges(pairs, cfg, time.Second))
	records := readCSV(t, cfg)
	assert.Equal(t, [][]string{
		{"primary", "secondary", "cochanges", "changes", "coupling"},
		{"codemetrics/svn.py", "codemetrics/core.py", "1", "1", "1.00"},
	}, records)
}

func TestWriteChangesets(t *testing.T) {
	changesets := []schema.MassChangeset{
		{Revision: "b9fe5a6", PathCount: 4, Author: "elmotec", Message: "Added guess_components"},
	}

	cfg := outputTo(t, schema.JSONOut, "mass.json")
	require.NoError(t, WriteChangesets(changesets, cfg, time.Second))
	var result []schema.MassChangeset
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &result))
	assert.Equal(t, changesets, result)

	cfg = outputTo(t, schema.TextOut, "mass.txt")
	require.NoError(t, WriteChangesets(changesets, cfg, time.Second))
	assert.Contains(t, readOutput(t, cfg), "b9fe5a6")
}

func TestWriteLoc(t *testing.T) {
	entries := []schema.ClocEntry{
		{Language: "Python", Path: "codemetrics/core.py", Blank: 55, Comment: 50, Code: 130},
		{Language: "Python", Path: "codemetrics/svn.py", Blank: 29, Comment: 92, Code: 109},
	}

	cfg := outputTo(t, schema.TextOut, "loc.txt")
	require.NoError(t, WriteLoc(entries, cfg, time.Second))
	out := readOutput(t, cfg)
	assert.Contains(t, out, "Total lines of code: 239")
	assert.Contains(t, out, "Showing 2 files")

	cfg = outputTo(t, schema.CSVOut, "loc.csv")
	require.NoError(t, WriteLoc(entries, cfg, time.Second))
	records := readCSV(t, cfg)
	assert.Equal(t, []string{"Python", "codemetrics/core.py", "55", "50", "130"}, records[1])
}

func TestWriteDownloads(t *testing.T) {
	t.Run("single file is written verbatim", func(t *testing.T) {
		cfg := outputTo(t, schema.TextOut, "one.txt")
		results := []schema.DownloadResult{{Revision: "abc", Path: "a.py", Content: "print('a')"}}
		require.NoError(t, WriteDownloads(results, cfg, time.Second))
		assert.Equal(t, "print('a')", readOutput(t, cfg))
	})

	t.Run("several files get headers", func(t *testing.T) {
		cfg := outputTo(t, schema.TextOut, "many.txt")
		results := []schema.DownloadResult{
			{Revision: "abc", Path: "a.py", Content: "a"},
			{Revision: "abc", Path: "b.py", Content: "b\n"},
		}
		require.NoError(t, WriteDownloads(results, cfg, time.Second))
		assert.Equal(t, "==> a.py@abc <==\na\n==> b.py@abc <==\nb\n", readOutput(t, cfg))
	})

	t.Run("json", func(t *testing.T) {
		cfg := outputTo(t, schema.JSONOut, "dl.json")
		results := []schema.DownloadResult{{Revision: "7", Path: "trunk/a.py", Content: "x"}}
		require.NoError(t, WriteDownloads(results, cfg, time.Second))
		var back []schema.DownloadResult
		require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &back))
		assert.Equal(t, results, back)
	})
}

func TestWriteSummaryDefaultsBackend(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, writeSummary(&sb, 3, "rows", &contract.Config{Workers: 1}, 2*time.Second))
	assert.Equal(t, "Showing 3 rows\nCompleted in 2s with 1 workers. Cache backend: none\n", sb.String())
}
