package receipts

import (
	"context"
	"io"
)

// ObjectStore provides an interface for object storage operations.
// This interface enables mocking and testing of storage functionality.
type ObjectStore interface {
	// Put writes the content of r to bucket/object.
	Put(ctx context.Context, bucket, object, contentType string, r io.Reader) error

	// Delete removes bucket/object.
	Delete(ctx context.Context, bucket, object string) error
}
