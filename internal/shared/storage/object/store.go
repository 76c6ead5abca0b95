package object

import (
	"context"
	"io"
)

// ObjectStore saves, reads and removes binary objects under an owner namespace.
// The local implementation is the staging slot for uploads; s3 and minio archive source documents.
type ObjectStore interface {
	Save(ctx context.Context, ownerID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}
