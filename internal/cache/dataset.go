package cache

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
)

// FileKey identifies one version of a file on disk.
type FileKey struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// KeyFor builds the key of the file at path as described by info.
func KeyFor(path string, info os.FileInfo) FileKey {
	return FileKey{Path: path, ModTime: info.ModTime(), Size: info.Size()}
}

func (k FileKey) String() string {
	return fmt.Sprintf("%s@%d:%d", k.Path, k.ModTime.UnixNano(), k.Size)
}

// DatasetCache memoizes the dataset loaded from a file. An entry is only
// returned while the file keeps the same modification time and size, so a
// replaced file is re-read on the next lookup.
type DatasetCache struct {
	mu      sync.Mutex
	entries map[string]datasetEntry
}

type datasetEntry struct {
	key     FileKey
	dataset *domain.Dataset
}

func NewDatasetCache() *DatasetCache {
	return &DatasetCache{entries: make(map[string]datasetEntry)}
}

// Get returns the dataset stored for key, or false when nothing is stored
// for key.Path or the stored entry belongs to an older version of the file.
func (c *DatasetCache) Get(key FileKey) (*domain.Dataset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key.Path]
	if !ok || !entry.key.ModTime.Equal(key.ModTime) || entry.key.Size != key.Size {
		return nil, false
	}
	return entry.dataset, true
}

// Put stores ds for key and returns the dataset it replaced for the same
// path, if any.
func (c *DatasetCache) Put(key FileKey, ds *domain.Dataset) *domain.Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous := c.entries[key.Path].dataset
	c.entries[key.Path] = datasetEntry{key: key, dataset: ds}
	if previous == ds {
		return nil
	}
	return previous
}

// Invalidate forgets whatever is stored for path.
func (c *DatasetCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, path)
}

func (c *DatasetCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
