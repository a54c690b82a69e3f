package storage

import (
	"context"
	"errors"
	"time"
)

// ErrDisabled is returned by the noop storage for reads.
var ErrDisabled = errors.New("object storage is not configured")

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// ObjectStorage captures the S3-compatible operations used to archive and
// re-import spreadsheets.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadObject(ctx context.Context, key string, data []byte, contentType string) error
	Enabled() bool
}

type noopStorage struct{}

// NewNoopStorage accepts uploads silently and fails reads with ErrDisabled.
func NewNoopStorage() ObjectStorage {
	return noopStorage{}
}

func (noopStorage) ListObjects(context.Context, string) ([]ObjectInfo, error) {
	return nil, ErrDisabled
}

func (noopStorage) DownloadObject(context.Context, string, string) error {
	return ErrDisabled
}

func (noopStorage) UploadObject(context.Context, string, []byte, string) error {
	return nil
}

func (noopStorage) Enabled() bool { return false }
