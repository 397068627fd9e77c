package receipts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

// uploadTimeout bounds a single object write.
const uploadTimeout = 2 * time.Minute

// GCSObjectStore is the ObjectStore backed by Google Cloud Storage.
type GCSObjectStore struct {
	client *storage.Client
}

// NewGCSObjectStore creates a storage client using Application Default Credentials.
func NewGCSObjectStore(ctx context.Context) (*GCSObjectStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSObjectStore: create storage client: %w", err)
	}
	return &GCSObjectStore{client: client}, nil
}

// Put implements the ObjectStore interface.
func (s *GCSObjectStore) Put(ctx context.Context, bucket, object, contentType string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("Put: copy to GCS writer: %w", err)
	}

	// Close to finalize the upload
	if err := w.Close(); err != nil {
		return fmt.Errorf("Put: finalize upload: %w", err)
	}
	return nil
}

// Delete implements the ObjectStore interface. Deleting a missing object is not an error.
func (s *GCSObjectStore) Delete(ctx context.Context, bucket, object string) error {
	err := s.client.Bucket(bucket).Object(object).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("Delete: delete %s/%s: %w", bucket, object, err)
	}
	return nil
}

// Close releases the storage client.
func (s *GCSObjectStore) Close() error {
	return s.client.Close()
}

// Ensure GCSObjectStore implements ObjectStore interface.
var _ ObjectStore = (*GCSObjectStore)(nil)
