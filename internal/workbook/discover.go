package workbook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoWorkbook is returned when a directory holds no spreadsheet.
var ErrNoWorkbook = errors.New("no workbook found")

// Extensions are the file types considered workbooks, in preference order.
var Extensions = []string{".xlsx", ".xls"}

// IsWorkbook reports whether name has a workbook extension.
func IsWorkbook(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Find returns the first workbook in dir: .xlsx files before .xls, each
// group by name. A missing dir is created empty and reported as ErrNoWorkbook.
func Find(dir string) (string, os.FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", nil, fmt.Errorf("failed to create data dir %s: %w", dir, err)
		}
		return "", nil, ErrNoWorkbook
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to read data dir %s: %w", dir, err)
	}

	for _, ext := range Extensions {
		var names []string
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), "~$") {
				continue
			}
			if strings.ToLower(filepath.Ext(e.Name())) == ext {
				names = append(names, e.Name())
			}
		}
		if len(names) == 0 {
			continue
		}

		sort.Strings(names)
		path := filepath.Join(dir, names[0])
		info, err := os.Stat(path)
		if err != nil {
			return "", nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		return path, info, nil
	}

	return "", nil, ErrNoWorkbook
}
