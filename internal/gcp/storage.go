package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// ErrObjectExists is returned when a create-only write hits an existing object.
var ErrObjectExists = errors.New("object already exists")

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// NewStorageClient creates a Cloud Storage client. STORAGE_EMULATOR_HOST is
// honoured by the library itself.
func NewStorageClient(ctx context.Context) (*storage.Client, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

// WriteObjectOnce streams r into a new GCS object. The write is conditional on
// the object not existing yet, so a name collision never overwrites an upload.
func WriteObjectOnce(ctx context.Context, bucket *storage.BucketHandle, objectName, contentType string, r io.Reader) (int64, error) {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	n, err := io.Copy(writer, r)
	if err != nil {
		_ = writer.Close()
		slog.Error("Failed to copy content to GCS object", "gcsObject", objectName, "error", err)
		return n, fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			return n, fmt.Errorf("%s: %w", objectName, ErrObjectExists)
		}
		slog.Error("Failed to close GCS writer", "gcsObject", objectName, "error", err)
		return n, fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return n, nil
}

// PublicURL builds the browser URL for an object in a public bucket.
func PublicURL(baseURL, bucket, objectName string) string {
	segments := strings.Split(objectName, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(baseURL, "/"), bucket, strings.Join(segments, "/"))
}
