package scm

import (
	"context"
	"fmt"

	"github.com/codemetrics/codemetrics/schema"
	"golang.org/x/sync/errgroup"
)

// Downloader retrieves the content of a path at a given revision.
type Downloader interface {
	Backend() schema.ScmBackend
	Download(ctx context.Context, revision, path string) (schema.DownloadResult, error)
}

// NewDownloader creates the downloader for backend. AutoScm detects the backend from opts.Cwd.
func NewDownloader(backend schema.ScmBackend, opts Options) (Downloader, error) {
	backend, err := resolveBackend(backend, opts.Cwd)
	if err != nil {
		return nil, err
	}
	switch backend {
	case schema.GitScm:
		return &GitDownloader{opts: opts.withDefaults(schema.GitScm)}, nil
	case schema.SvnScm:
		return &SvnDownloader{opts: opts.withDefaults(schema.SvnScm)}, nil
	default:
		return nil, fmt.Errorf("unsupported scm backend: %s", backend)
	}
}

// GitDownloader runs `git show <revision>:<path>`.
type GitDownloader struct {
	opts Options
}

var _ Downloader = &GitDownloader{} // Compile-time check

// Backend implements Downloader.
func (d *GitDownloader) Backend() schema.ScmBackend {
	return schema.GitScm
}

// Download implements Downloader.
func (d *GitDownloader) Download(ctx context.Context, revision, path string) (schema.DownloadResult, error) {
	path = pathOrDot(path)
	argv := []string{d.opts.Client, "show", revision + ":" + path}
	return download(ctx, d.opts, argv, revision, path)
}

// SvnDownloader runs `svn cat -r <revision> <path>`.
type SvnDownloader struct {
	opts Options
}

var _ Downloader = &SvnDownloader{} // Compile-time check

// Backend implements Downloader.
func (d *SvnDownloader) Backend() schema.ScmBackend {
	return schema.SvnScm
}

// Download implements Downloader.
func (d *SvnDownloader) Download(ctx context.Context, revision, path string) (schema.DownloadResult, error) {
	path = pathOrDot(path)
	argv := []string{d.opts.Client, "cat", "-r", revision, path}
	return download(ctx, d.opts, argv, revision, path)
}

func download(ctx context.Context, o Options, argv []string, revision, path string) (schema.DownloadResult, error) {
	content, err := o.Runner.Run(ctx, argv, o.Cwd)
	if err != nil {
		return schema.DownloadResult{}, err
	}
	return schema.DownloadResult{Revision: revision, Path: path, Content: content}, nil
}

// DownloadAll downloads the (revision, path) pair of every row, keeping the
// order of rows. A failed download keeps the error text as its content, which
// is what happens for paths deleted in that revision.
func DownloadAll(ctx context.Context, d Downloader, rows []schema.LogRow, workers int) ([]schema.DownloadResult, error) {
	results := make([]schema.DownloadResult, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for i, row := range rows {
		g.Go(func() error {
			res, err := d.Download(gctx, row.Revision, row.PathOrEmpty())
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				res = schema.DownloadResult{Revision: row.Revision, Path: pathOrDot(row.PathOrEmpty()), Content: err.Error()}
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
