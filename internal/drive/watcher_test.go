package drive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/workbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	files    []*File
	content  map[string]string
	exported []string
}

func (f *fakeSource) ListFiles(_ context.Context, _ string) ([]*File, error) {
	return f.files, nil
}

func (f *fakeSource) DownloadFile(_ context.Context, id string, w io.Writer) error {
	data, ok := f.content[id]
	if !ok {
		return errors.New("not found")
	}
	_, err := io.WriteString(w, data)
	return err
}

func (f *fakeSource) ExportSpreadsheet(_ context.Context, id string, w io.Writer) error {
	f.exported = append(f.exported, id)
	_, err := io.WriteString(w, "exported")
	return err
}

func TestDownloadWorkbooks(t *testing.T) {
	src := &fakeSource{
		files: []*File{
			{ID: "1", Name: "plan.xlsx"},
			{ID: "2", Name: "notes.csv"},
			{ID: "3", Name: "Plan Maestro", MimeType: spreadsheetMimeType},
			{ID: "4", Name: "old.XLS"},
		},
		content: map[string]string{"1": "xlsx", "4": "xls"},
	}
	dir := t.TempDir()

	paths, err := NewDownloader(src).DownloadWorkbooks(context.Background(), DownloadOptions{FolderID: "f", DownloadDir: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "Plan Maestro.xlsx"),
		filepath.Join(dir, "old.XLS"),
		filepath.Join(dir, "plan.xlsx"),
	}, paths)
	assert.Equal(t, []string{"3"}, src.exported)

	data, err := os.ReadFile(filepath.Join(dir, "plan.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "xlsx", string(data))
}

func TestDownloadWorkbooksFailureRemovesPartialFile(t *testing.T) {
	src := &fakeSource{files: []*File{{ID: "9", Name: "gone.xlsx"}}}
	dir := t.TempDir()

	_, err := NewDownloader(src).DownloadWorkbooks(context.Background(), DownloadOptions{DownloadDir: dir})
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "gone.xlsx"))
}

func TestDownloadWorkbooksNothingFound(t *testing.T) {
	src := &fakeSource{files: []*File{{ID: "2", Name: "notes.csv"}}}

	_, err := NewDownloader(src).DownloadWorkbooks(context.Background(), DownloadOptions{DownloadDir: t.TempDir()})
	assert.True(t, errors.Is(err, workbook.ErrNoWorkbook))

	_, err = NewDownloader(src).DownloadWorkbooks(context.Background(), DownloadOptions{})
	assert.Error(t, err)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `O\'Brien`, quote("O'Brien"))
}
