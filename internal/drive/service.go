package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	folderMimeType      = "application/vnd.google-apps.folder"
	spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"
	xlsxMimeType        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Service struct {
	srv *drive.Service
}

// NewService authenticates with a service account key, given either as a
// path to the JSON file or as the JSON itself.
func NewService(ctx context.Context, credentials string) (*Service, error) {
	raw := []byte(credentials)
	if !strings.HasPrefix(strings.TrimSpace(credentials), "{") {
		data, err := os.ReadFile(credentials)
		if err != nil {
			return nil, fmt.Errorf("unable to read credentials file: %w", err)
		}
		raw = data
	}

	// Parse credentials from JSON
	config, err := google.JWTConfigFromJSON(raw, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}

	// Create the Drive service
	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %w", err)
	}

	return &Service{srv: srv}, nil
}

type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
	Size         int64  `json:"size,string,omitempty"`
}

// IsSpreadsheet reports whether the file is a native Google Sheets document.
func (f *File) IsSpreadsheet() bool {
	return f.MimeType == spreadsheetMimeType
}

func (s *Service) ListFiles(ctx context.Context, folderID string) ([]*File, error) {
	var files []*File

	// If no folder ID is provided, use "root"
	if folderID == "" {
		folderID = "root"
	}

	err := s.srv.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed=false", quote(folderID))).
		Fields("nextPageToken, files(id, name, mimeType, modifiedTime, size)").
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				files = append(files, &File{
					ID:           f.Id,
					Name:         f.Name,
					MimeType:     f.MimeType,
					ModifiedTime: f.ModifiedTime,
					Size:         f.Size,
				})
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve files: %w", err)
	}

	return files, nil
}

func (s *Service) DownloadFile(ctx context.Context, fileID string, w io.Writer) error {
	resp, err := s.srv.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return fmt.Errorf("unable to download file: %w", err)
	}
	defer resp.Body.Close()

	_, err = io.Copy(w, resp.Body)
	return err
}

// ExportSpreadsheet writes a Google Sheets document as .xlsx.
func (s *Service) ExportSpreadsheet(ctx context.Context, fileID string, w io.Writer) error {
	resp, err := s.srv.Files.Export(fileID, xlsxMimeType).Context(ctx).Download()
	if err != nil {
		return fmt.Errorf("unable to export spreadsheet: %w", err)
	}
	defer resp.Body.Close()

	_, err = io.Copy(w, resp.Body)
	return err
}

func (s *Service) FindFolderByPath(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "root", nil
	}

	folders := strings.Split(path, "/")
	currentID := "root"

	for _, folder := range folders {
		if folder == "" {
			continue
		}

		result, err := s.srv.Files.List().
			Q(fmt.Sprintf("'%s' in parents and name='%s' and mimeType='%s' and trashed=false",
				quote(currentID), quote(folder), folderMimeType)).
			Fields("files(id, name)").
			Context(ctx).
			Do()
		if err != nil {
			return "", fmt.Errorf("error finding folder %s: %w", folder, err)
		}

		if len(result.Files) == 0 {
			return "", fmt.Errorf("folder not found: %s", folder)
		}

		currentID = result.Files[0].Id
	}

	return currentID, nil
}

// quote escapes a value for use inside a single-quoted Drive query string.
func quote(v string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
}
