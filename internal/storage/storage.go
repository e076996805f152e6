package storage

import (
	"context"
	"time"
)

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStorage captures the S3-compatible operations used to move workbooks
// in and out of a bucket.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadObject(ctx context.Context, key string, data []byte) error
}
