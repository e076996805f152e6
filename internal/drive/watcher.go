package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/workbook"
	"github.com/rs/zerolog/log"
)

// FileSource is the part of the Drive API the downloader needs.
type FileSource interface {
	ListFiles(ctx context.Context, folderID string) ([]*File, error)
	DownloadFile(ctx context.Context, fileID string, w io.Writer) error
	ExportSpreadsheet(ctx context.Context, fileID string, w io.Writer) error
}

// DownloadOptions controls how files are pulled from Google Drive.
type DownloadOptions struct {
	FolderID    string
	DownloadDir string
}

// Downloader pulls workbooks from a specific folder.
type Downloader struct {
	source FileSource
}

// NewDownloader creates a new Downloader.
func NewDownloader(s FileSource) *Downloader {
	return &Downloader{source: s}
}

// DownloadWorkbooks downloads every .xlsx and .xls file in the folder into
// DownloadDir. Native Google Sheets documents are exported as .xlsx.
// Returns the local paths, sorted.
func (d *Downloader) DownloadWorkbooks(ctx context.Context, opts DownloadOptions) ([]string, error) {
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(opts.DownloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := d.source.ListFiles(ctx, opts.FolderID)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, f := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		name := filepath.Base(f.Name)
		fetch := d.source.DownloadFile
		switch {
		case f.IsSpreadsheet():
			name = strings.TrimSuffix(name, filepath.Ext(name)) + ".xlsx"
			fetch = d.source.ExportSpreadsheet
		case !workbook.IsWorkbook(name):
			continue
		}

		localPath := filepath.Join(opts.DownloadDir, name)
		if err := downloadTo(ctx, localPath, f.ID, fetch); err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", f.Name, err)
		}
		log.Info().Str("file", f.Name).Str("path", localPath).Msg("drive: workbook downloaded")
		localPaths = append(localPaths, localPath)
	}

	if len(localPaths) == 0 {
		return nil, fmt.Errorf("%w in drive folder %s", workbook.ErrNoWorkbook, opts.FolderID)
	}

	sort.Strings(localPaths)
	return localPaths, nil
}

func downloadTo(ctx context.Context, path, fileID string, fetch func(context.Context, string, io.Writer) error) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", path, err)
	}
	if err := fetch(ctx, fileID, out); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	return out.Close()
}
