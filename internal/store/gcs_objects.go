package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/consultancysite/internal/apperr"
	"github.com/Lllllllleong/consultancysite/internal/gcp"
)

// Ensure GCSObjects implements the interface.
var _ ObjectStore = (*GCSObjects)(nil)

// GCSObjects stores uploads in one Cloud Storage bucket.
type GCSObjects struct {
	bucket        *storage.BucketHandle
	bucketName    string
	publicBaseURL string
}

func NewGCSObjects(client *storage.Client, bucket, publicBaseURL string) *GCSObjects {
	return &GCSObjects{
		bucket:        client.Bucket(bucket),
		bucketName:    bucket,
		publicBaseURL: publicBaseURL,
	}
}

func (s *GCSObjects) Put(ctx context.Context, name, contentType string, r io.Reader) (int64, error) {
	return gcp.WriteObjectOnce(ctx, s.bucket, name, contentType, r)
}

func (s *GCSObjects) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	rc, err := s.bucket.Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, apperr.NotFound("object %s", name)
		}
		return nil, apperr.Backend("gcs read", err)
	}
	return rc, nil
}

func (s *GCSObjects) URL(name string) string {
	return gcp.PublicURL(s.publicBaseURL, s.bucketName, name)
}

func (s *GCSObjects) URI(name string) string {
	return fmt.Sprintf("gs://%s/%s", s.bucketName, name)
}

func (s *GCSObjects) Bucket() string {
	return s.bucketName
}
