package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codemetrics/codemetrics/internal/contract"
	"github.com/codemetrics/codemetrics/internal/iocache"
	"github.com/codemetrics/codemetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const gitLog = `
[2adcc03] [elmotec] [2018-12-05 23:44:38 -0000] [Fixed Windows specific paths]
1       1       codemetrics/core.py
1       1       requirements.txt

[b9fe5a6] [elmotec] [2018-12-04 21:49:55 -0000] [Added guess_components]
44      0       codemetrics/core.py
1       8       codemetrics/svn.py
1       0       requirements.txt
110     18      tests/test_core.py
`

const clocCSV = `language,filename,blank,comment,code,"http://cloc.sourceforge.net"
Python,codemetrics/core.py,55,50,130
Python,codemetrics/svn.py,29,92,109
Python,tests/test_core.py,4,2,30
SUM,,88,144,269
`

func isCommand(name string) any {
	return mock.MatchedBy(func(argv []string) bool { return len(argv) > 0 && argv[0] == name })
}

func testConfig() *contract.Config {
	return &contract.Config{
		RepoPath:    "/repo",
		Path:        ".",
		Backend:     schema.GitScm,
		GitClient:   "git",
		SvnClient:   "svn",
		ClocClient:  "cloc",
		After:       time.Date(2018, 12, 1, 0, 0, 0, 0, time.UTC),
		Before:      time.Date(2018, 12, 6, 0, 0, 0, 0, time.UTC),
		ResultLimit: 10,
		Workers:     2,
		MinChanges:  2,
	}
}

// testContext wires a mock runner answering git log and cloc requests.
func testContext(t *testing.T) (context.Context, *contract.MockRunner) {
	t.Helper()
	runner := new(contract.MockRunner)
	runner.On("Run", mock.Anything, isCommand("git"), "/repo").Return(gitLog, nil).Maybe()
	runner.On("Run", mock.Anything, isCommand("cloc"), "/repo").Return(clocCSV, nil).Maybe()
	return WithoutProgress(WithRunner(context.Background(), runner)), runner
}

func noCache() *iocache.MockCacheManager {
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetLogStore").Return(nil)
	return mgr
}

func TestGetLogResults(t *testing.T) {
	ctx, runner := testContext(t)
	mgr := noCache()

	table, _, err := GetLogResults(ctx, testConfig(), mgr)
	require.NoError(t, err)
	assert.Equal(t, 6, table.Len())
	assert.Equal(t, "2adcc03", table.Rows[0].Revision)
	assert.Equal(t, schema.ColumnNames()[0], table.Columns[0].Name)

	runner.AssertCalled(t, "Run", mock.Anything, []string{
		"git", "log", `--pretty=format:"[%h] [%an] [%ad] [%s]"`, "--date=iso", "--numstat",
		"--after", "2018-12-01", "--before", "2018-12-06", ".",
	}, "/repo")
	mgr.AssertExpectations(t)
}

func TestGetLogResultsExcludes(t *testing.T) {
	ctx, _ := testContext(t)
	cfg := testConfig()
	cfg.Excludes = []string{"tests/", ".txt"}

	table, _, err := GetLogResults(ctx, cfg, noCache())
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())
	for _, r := range table.Rows {
		assert.Contains(t, r.PathOrEmpty(), "codemetrics/")
	}
}

func TestGetLogResultsWithoutManager(t *testing.T) {
	ctx, _ := testContext(t)
	table, _, err := GetLogResults(ctx, testConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, 6, table.Len())
}

func TestGetLogResultsRunnerError(t *testing.T) {
	runner := new(contract.MockRunner)
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything).Return("", &contract.ProcessError{Argv: []string{"git"}, ExitCode: 128})
	ctx := WithRunner(context.Background(), runner)

	_, _, err := GetLogResults(ctx, testConfig(), noCache())
	var procErr *contract.ProcessError
	assert.ErrorAs(t, err, &procErr)
}

func TestGetAgesResults(t *testing.T) {
	prev := contract.Now
	contract.Now = func() time.Time { return time.Date(2018, 12, 6, 23, 44, 38, 0, time.UTC) }
	defer func() { contract.Now = prev }()

	ctx, _ := testContext(t)
	ages, _, err := GetAgesResults(ctx, testConfig(), noCache())
	require.NoError(t, err)
	require.Len(t, ages, 4)
	assert.Equal(t, "codemetrics/core.py", ages[0].Path)
	assert.InDelta(t, 1.0, ages[0].AgeDays, 1e-9)
}

func TestGetHotSpotsResults(t *testing.T) {
	ctx, runner := testContext(t)
	spots, _, err := GetHotSpotsResults(ctx, testConfig(), noCache())
	require.NoError(t, err)
	require.Len(t, spots, 4)
	assert.Equal(t, "codemetrics/core.py", spots[0].Path, "largest and most changed")
	assert.Equal(t, 2.0, spots[0].Score)
	runner.AssertCalled(t, "Run", mock.Anything, []string{"cloc", "--csv", "--by-file", "."}, "/repo")
}

func TestGetHotSpotsResultsLimit(t *testing.T) {
	ctx, _ := testContext(t)
	cfg := testConfig()
	cfg.ResultLimit = 2
	spots, _, err := GetHotSpotsResults(ctx, cfg, noCache())
	require.NoError(t, err)
	assert.Len(t, spots, 2)
}

func TestGetHotSpotsResultsClocMissing(t *testing.T) {
	runner := new(contract.MockRunner)
	runner.On("Run", mock.Anything, isCommand("git"), mock.Anything).Return(gitLog, nil)
	runner.On("Run", mock.Anything, isCommand("cloc"), mock.Anything).Return("", contract.ErrExecutableNotFound)
	ctx := WithRunner(context.Background(), runner)

	_, _, err := GetHotSpotsResults(ctx, testConfig(), noCache())
	assert.ErrorIs(t, err, contract.ErrExecutableNotFound)
}

func TestGetCoChangesResults(t *testing.T) {
	ctx, _ := testContext(t)
	co, _, err := GetCoChangesResults(ctx, testConfig(), noCache())
	require.NoError(t, err)
	require.NotEmpty(t, co)
	assert.Equal(t, 1.0, co[0].Coupling)
	for i := 1; i < len(co); i++ {
		assert.GreaterOrEqual(t, co[i-1].Coupling, co[i].Coupling)
	}
}

func TestGetMassChangesetsResults(t *testing.T) {
	ctx, _ := testContext(t)
	mass, _, err := GetMassChangesetsResults(ctx, testConfig(), noCache())
	require.NoError(t, err)
	require.Len(t, mass, 1)
	assert.Equal(t, "b9fe5a6", mass[0].Revision)
	assert.Equal(t, 4, mass[0].PathCount)
}

func TestGetLocResultsExcludes(t *testing.T) {
	ctx, _ := testContext(t)
	cfg := testConfig()
	cfg.Excludes = []string{"tests/"}
	loc, _, err := GetLocResults(ctx, cfg)
	require.NoError(t, err)
	assert.Len(t, loc, 2)
}

func TestGetDownloadResults(t *testing.T) {
	runner := new(contract.MockRunner)
	runner.On("Run", mock.Anything, []string{"git", "show", "abc:a.py"}, "/repo").Return("print('a')\n", nil)
	runner.On("Run", mock.Anything, []string{"git", "show", "abc:b.py"}, "/repo").Return("", errors.New("fatal: path 'b.py' does not exist in 'abc'"))
	ctx := WithRunner(context.Background(), runner)

	results, _, err := GetDownloadResults(ctx, testConfig(), "abc", []string{"a.py", "b.py"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, schema.DownloadResult{Revision: "abc", Path: "a.py", Content: "print('a')\n"}, results[0])
	assert.Contains(t, results[1].Content, "does not exist")
}

func TestGetDownloadResultsValidation(t *testing.T) {
	ctx := context.Background()
	_, _, err := GetDownloadResults(ctx, testConfig(), "", []string{"a.py"})
	assert.Error(t, err)
	_, _, err = GetDownloadResults(ctx, testConfig(), "abc", nil)
	assert.Error(t, err)
}

func TestBackendFor(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".svn"), 0o755))

	cfg := testConfig()
	cfg.Backend = schema.AutoScm
	cfg.RepoPath = root
	backend, err := backendFor(cfg)
	require.NoError(t, err)
	assert.Equal(t, schema.SvnScm, backend)

	cfg.Backend = schema.GitScm
	backend, err = backendFor(cfg)
	require.NoError(t, err)
	assert.Equal(t, schema.GitScm, backend, "explicit backends are kept")
}

func TestAutoBackendUsesMatchingClient(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".svn"), 0o755))

	runner := new(contract.MockRunner)
	runner.On("Run", mock.Anything, []string{"svn-1.14", "cat", "-r", "7", "a.py"}, root).Return("content", nil)
	ctx := WithRunner(context.Background(), runner)

	cfg := testConfig()
	cfg.Backend = schema.AutoScm
	cfg.RepoPath = root
	cfg.SvnClient = "svn-1.14"
	results, _, err := GetDownloadResults(ctx, cfg, "7", []string{"a.py"})
	require.NoError(t, err)
	assert.Equal(t, "content", results[0].Content)
	runner.AssertExpectations(t)
}

func TestLimit(t *testing.T) {
	assert.Equal(t, []int{1, 2}, limit([]int{1, 2, 3}, 2))
	assert.Equal(t, []int{1, 2, 3}, limit([]int{1, 2, 3}, 0))
	assert.Equal(t, []int{1}, limit([]int{1}, 5))
}
