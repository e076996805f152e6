package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/workbook"
	"github.com/rs/zerolog/log"
)

// PullWorkbooks copies workbooks under prefix into destDir, keeping their
// path relative to the prefix. With override set only that object is pulled.
func PullWorkbooks(ctx context.Context, store ObjectStorage, prefix, override, destDir string) ([]string, error) {
	var keys []string

	if override != "" {
		keys = []string{resolveObjectKey(prefix, override)}
	} else {
		listPrefix := strings.TrimSpace(prefix)
		objects, err := store.ListObjects(ctx, listPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects for prefix %s: %w", listPrefix, err)
		}
		for _, obj := range objects {
			if workbook.IsWorkbook(obj.Key) {
				keys = append(keys, obj.Key)
			}
		}
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("%w under prefix %q", workbook.ErrNoWorkbook, prefix)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure download dir %s: %w", destDir, err)
	}

	localPaths := make([]string, 0, len(keys))
	for _, key := range keys {
		localPath := filepath.Join(destDir, filepath.FromSlash(objectRelativePath(prefix, key)))
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to prepare directory for %s: %w", localPath, err)
		}
		if err := store.DownloadObject(ctx, key, localPath); err != nil {
			return nil, err
		}
		log.Info().Str("key", key).Str("path", localPath).Msg("storage: workbook downloaded")
		localPaths = append(localPaths, localPath)
	}

	sort.Strings(localPaths)
	return localPaths, nil
}

// PushWorkbook uploads a local workbook under prefix and returns its key.
func PushWorkbook(ctx context.Context, store ObjectStorage, prefix, localPath string) (string, error) {
	if !workbook.IsWorkbook(localPath) {
		return "", fmt.Errorf("%s is not an .xlsx or .xls file", localPath)
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", localPath, err)
	}

	key := resolveObjectKey(prefix, filepath.Base(localPath))
	if err := store.UploadObject(ctx, key, data); err != nil {
		return "", err
	}
	log.Info().Str("key", key).Int("bytes", len(data)).Msg("storage: workbook uploaded")
	return key, nil
}

func resolveObjectKey(prefix, override string) string {
	if override == "" {
		return strings.TrimSpace(prefix)
	}
	if prefix == "" {
		return strings.TrimPrefix(override, "/")
	}

	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	overrideTrimmed := strings.TrimPrefix(strings.TrimSpace(override), "/")

	if strings.HasPrefix(overrideTrimmed, prefixTrimmed+"/") {
		return overrideTrimmed
	}
	return path.Join(prefixTrimmed, overrideTrimmed)
}

func objectRelativePath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	rel := strings.TrimPrefix(key, prefixTrimmed+"/")
	if rel == "" || rel == key {
		return path.Base(key)
	}
	return rel
}
