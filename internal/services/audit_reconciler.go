package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Lllllllleong/consultancysite/internal/apperr"
	"github.com/Lllllllleong/consultancysite/internal/config"
	"github.com/Lllllllleong/consultancysite/internal/gcp"
	"github.com/Lllllllleong/consultancysite/internal/models"
	"github.com/Lllllllleong/consultancysite/internal/store"
)

// GCSEvent is the payload of a Cloud Storage object.finalized CloudEvent.
// Size arrives as a decimal string.
type GCSEvent struct {
	Bucket      string    `json:"bucket"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        string    `json:"size"`
	TimeCreated time.Time `json:"timeCreated"`
}

// AuditReconciler backfills audit records for objects that reached the
// bucket without one, which happens when the best-effort audit write in
// Uploader.Upload fails. A backfill never replaces an existing record, and
// the uploader's own record replaces a backfill, so an object ends up with
// one record whichever write lands first.
type AuditReconciler struct {
	objects store.ObjectStore
	log     store.UploadLog
}

func NewAuditReconciler(objects store.ObjectStore, log store.UploadLog) *AuditReconciler {
	return &AuditReconciler{objects: objects, log: log}
}

// NewAuditReconcilerFromConfig connects to the upload bucket and audit log.
func NewAuditReconcilerFromConfig(ctx context.Context, cfg *config.Config) (*AuditReconciler, error) {
	if err := cfg.ValidateUploads(); err != nil {
		return nil, err
	}
	storageClient, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return nil, err
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		_ = storageClient.Close()
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	slog.Info("Audit reconciler initialized.", "bucket", cfg.UploadBucket, "collection", cfg.UploadsCollection)
	return NewAuditReconciler(
		store.NewGCSObjects(storageClient, cfg.UploadBucket, cfg.PublicBaseURL),
		store.NewFirestoreUploads(firestoreClient, cfg.UploadsCollection),
	), nil
}

// Process returns true when it wrote a record.
func (r *AuditReconciler) Process(ctx context.Context, e GCSEvent) (bool, error) {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)

	if e.Bucket != r.objects.Bucket() {
		logCtx.Info("Event for another bucket. Skipping.")
		return false, nil
	}
	size, err := strconv.ParseInt(e.Size, 10, 64)
	if err != nil && e.Size != "" {
		logCtx.Warn("Unparseable object size in event", "size", e.Size)
	}
	uploadedAt := e.TimeCreated
	if uploadedAt.IsZero() {
		uploadedAt = time.Now()
	}
	rec := &models.UploadedImageRecord{
		Path:        e.Name,
		URL:         r.objects.URL(e.Name),
		Section:     models.SectionForPath(e.Name),
		ContentType: e.ContentType,
		Size:        size,
		UploadedAt:  uploadedAt.UTC(),
		Source:      models.SourceReconciler,
	}
	created, err := r.log.Backfill(ctx, rec)
	if err != nil {
		logCtx.Error("Failed to backfill upload record", "error", err)
		return false, apperr.Backend("backfill upload record", err)
	}
	if !created {
		logCtx.Info("Upload already recorded. Skipping.")
		return false, nil
	}
	logCtx.Info("Backfilled missing upload record.")
	return true, nil
}
