package scm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codemetrics/codemetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	content1 = "def main():\n    print('ahah!')\n"
	content2 = "def main():\n    print('ahah!')\n\nif __name__ == '__main__':\n    main()\n"
)

func TestGitDownload(t *testing.T) {
	opts, runner, _ := testOptions(time.Now())
	runner.On("Run", mock.Anything, []string{"git", "show", "abc:file.py"}, "<root>").Return(content1, nil)

	d, err := NewDownloader(schema.GitScm, opts)
	require.NoError(t, err)
	got, err := d.Download(context.Background(), "abc", "file.py")
	require.NoError(t, err)
	assert.Equal(t, schema.DownloadResult{Revision: "abc", Path: "file.py", Content: content1}, got)
}

func TestSvnDownload(t *testing.T) {
	opts, runner, _ := testOptions(time.Now())
	runner.On("Run", mock.Anything, []string{"svn", "cat", "-r", "1", "file.py"}, "<root>").Return(content1, nil)

	d, err := NewDownloader(schema.SvnScm, opts)
	require.NoError(t, err)
	assert.Equal(t, schema.SvnScm, d.Backend())
	got, err := d.Download(context.Background(), "1", "file.py")
	require.NoError(t, err)
	assert.Equal(t, content1, got.Content)
}

func TestDownloadDefaultsPath(t *testing.T) {
	opts, runner, _ := testOptions(time.Now())
	runner.On("Run", mock.Anything, []string{"svn", "cat", "-r", "5", "."}, "<root>").Return("", nil)

	got, err := (&SvnDownloader{opts: opts.withDefaults(schema.SvnScm)}).Download(context.Background(), "5", "")
	require.NoError(t, err)
	assert.Equal(t, ".", got.Path)
}

func TestDownloadAll(t *testing.T) {
	opts, runner, _ := testOptions(time.Now())
	runner.On("Run", mock.Anything, []string{"git", "show", "r1:file.py"}, "<root>").Return(content1, nil)
	runner.On("Run", mock.Anything, []string{"git", "show", "r2:file.py"}, "<root>").Return(content2, nil)
	runner.On("Run", mock.Anything, []string{"git", "show", "r3:file.py"}, "<root>").Return("", errors.New("failed to execute git show ..."))

	d, err := NewDownloader(schema.GitScm, opts)
	require.NoError(t, err)
	path := "file.py"
	rows := []schema.LogRow{
		{Revision: "r1", Path: &path},
		{Revision: "r2", Path: &path},
		{Revision: "r3", Path: &path},
	}

	got, err := DownloadAll(context.Background(), d, rows, 2)
	require.NoError(t, err)
	assert.Equal(t, []schema.DownloadResult{
		{Revision: "r1", Path: "file.py", Content: content1},
		{Revision: "r2", Path: "file.py", Content: content2},
		{Revision: "r3", Path: "file.py", Content: "failed to execute git show ..."},
	}, got, "results keep the order of rows and failures keep their message")
}

func TestDownloadAllCancelled(t *testing.T) {
	opts, runner, _ := testOptions(time.Now())
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything).Return("", context.Canceled)

	d, err := NewDownloader(schema.GitScm, opts)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = DownloadAll(ctx, d, []schema.LogRow{{Revision: "r1"}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewDownloaderUnknownBackend(t *testing.T) {
	_, err := NewDownloader("cvs", Options{})
	assert.ErrorContains(t, err, "unsupported scm backend")
}
