// Package store defines the persistence ports of the site backend and their
// Firestore and Cloud Storage implementations. In-memory versions used by
// tests and local runs live in store/memory.
package store

import (
	"context"
	"io"

	"github.com/Lllllllleong/consultancysite/internal/models"
)

// ContentRepository persists the single content record of a deployment.
// Get returns apperr.ErrNotFound when the record does not exist and
// apperr.ErrBackend for transport failures. Put overwrites unconditionally.
type ContentRepository interface {
	Get(ctx context.Context) (*models.ContentRecord, error)
	Put(ctx context.Context, rec *models.ContentRecord) error
}

// UploadLog is the upload audit log, one record per object path.
type UploadLog interface {
	// Append writes the uploader's record, replacing a backfilled one for
	// the same path.
	Append(ctx context.Context, rec *models.UploadedImageRecord) error
	// Backfill writes rec only when the path has no record yet and reports
	// whether it did.
	Backfill(ctx context.Context, rec *models.UploadedImageRecord) (bool, error)
	List(ctx context.Context, limit int) ([]models.UploadedImageRecord, error)
}

// ObjectStore holds uploaded files.
type ObjectStore interface {
	// Put writes a new object and returns the number of bytes stored.
	Put(ctx context.Context, name, contentType string, r io.Reader) (int64, error)
	// Open returns a reader over a stored object.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// URL is the public address of an object.
	URL(name string) string
	// URI is the gs:// address of an object, used by model calls.
	URI(name string) string
	// Bucket names the bucket the objects live in.
	Bucket() string
}
