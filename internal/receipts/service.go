// Package receipts stores receipt images under a per-user prefix and addresses them by
// public URL.
package receipts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const publicHost = "https://storage.googleapis.com/"

var (
	// ErrInvalidReceipt is returned for missing file names or owners.
	ErrInvalidReceipt = errors.New("invalid receipt")
	// ErrForeignReceipt is returned when a URL points outside the caller's receipts.
	ErrForeignReceipt = errors.New("receipt does not belong to caller")
)

// Service uploads and deletes receipt objects in one bucket.
type Service struct {
	store  ObjectStore
	bucket string
	log    zerolog.Logger
	now    func() time.Time
}

// NewService creates a receipt Service.
func NewService(store ObjectStore, bucket string, log zerolog.Logger) *Service {
	return &Service{store: store, bucket: bucket, log: log, now: time.Now}
}

// ObjectName returns receipts/{uid}/{unixMillis}-{basename}.
func ObjectName(uid, filename string, at time.Time) string {
	return fmt.Sprintf("receipts/%s/%d-%s", uid, at.UnixMilli(), path.Base(filename))
}

// PublicURL returns the public URL of bucket/object.
func PublicURL(bucket, object string) string {
	return publicHost + bucket + "/" + object
}

// Upload writes r as a new receipt for uid and returns its public URL.
func (s *Service) Upload(ctx context.Context, uid, filename, contentType string, r io.Reader) (string, error) {
	filename = strings.TrimSpace(strings.ReplaceAll(filename, "\\", "/"))
	if uid == "" || filename == "" || path.Base(filename) == "/" || path.Base(filename) == "." {
		return "", fmt.Errorf("Upload: %w: uid and filename are required", ErrInvalidReceipt)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	object := ObjectName(uid, filename, s.now())
	if err := s.store.Put(ctx, s.bucket, object, contentType, r); err != nil {
		return "", fmt.Errorf("Upload: %w", err)
	}

	s.log.Info().Str("uid", uid).Str("object", object).Msg("receipt uploaded")
	return PublicURL(s.bucket, object), nil
}

// Delete removes the receipt addressed by url. An empty url is a no-op.
func (s *Service) Delete(ctx context.Context, uid, url string) error {
	if strings.TrimSpace(url) == "" {
		return nil
	}

	bucket, object, err := parseObjectURL(url)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if uid == "" || bucket != s.bucket || path.Clean(object) != object || !strings.HasPrefix(object, "receipts/"+uid+"/") {
		return fmt.Errorf("Delete: %w", ErrForeignReceipt)
	}

	if err := s.store.Delete(ctx, bucket, object); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	s.log.Info().Str("uid", uid).Str("object", object).Msg("receipt deleted")
	return nil
}

// parseObjectURL splits a public URL or gs:// URI into bucket and object.
func parseObjectURL(url string) (string, string, error) {
	var trimmed string
	switch {
	case strings.HasPrefix(url, publicHost):
		trimmed = strings.TrimPrefix(url, publicHost)
	case strings.HasPrefix(url, "gs://"):
		trimmed = strings.TrimPrefix(url, "gs://")
	default:
		return "", "", fmt.Errorf("%w: unsupported receipt URL %q", ErrInvalidReceipt, url)
	}

	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: no object path in %q", ErrInvalidReceipt, url)
	}
	return parts[0], parts[1], nil
}
