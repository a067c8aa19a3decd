package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Lllllllleong/consultancysite/internal/apperr"
	"github.com/Lllllllleong/consultancysite/internal/config"
	"github.com/Lllllllleong/consultancysite/internal/gcp"
	"github.com/Lllllllleong/consultancysite/internal/models"
	"github.com/Lllllllleong/consultancysite/internal/store"
)

// Describer suggests alt text for a stored image.
type Describer interface {
	Describe(ctx context.Context, uri, mimeType string) (string, error)
}

// UploadRequest is one file received from the editor.
type UploadRequest struct {
	File        io.Reader
	Filename    string
	ContentType string
	Section     string
}

// UploadResult locates a stored upload.
type UploadResult struct {
	Path string
	URL  string
}

// Uploader stores files in object storage and records them in the audit log.
type Uploader struct {
	objects   store.ObjectStore
	log       store.UploadLog
	describer Describer
	maxBytes  int64
	newName   func() string
	now       func() time.Time
	closers   []io.Closer
}

// UploaderOption configures optional Uploader behaviour.
type UploaderOption func(*Uploader)

// WithDescriber enables alt-text suggestions for image uploads.
func WithDescriber(d Describer) UploaderOption {
	return func(u *Uploader) {
		u.describer = d
	}
}

// WithMaxBytes caps the accepted file size.
func WithMaxBytes(n int64) UploaderOption {
	return func(u *Uploader) {
		u.maxBytes = n
	}
}

// WithNameGenerator replaces the random base name of stored objects.
func WithNameGenerator(f func() string) UploaderOption {
	return func(u *Uploader) {
		u.newName = f
	}
}

func NewUploader(objects store.ObjectStore, log store.UploadLog, opts ...UploaderOption) *Uploader {
	u := &Uploader{
		objects:  objects,
		log:      log,
		maxBytes: config.DefaultMaxUploadBytes,
		newName:  uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// NewUploaderFromConfig connects to Cloud Storage, Firestore and, when
// ALT_TEXT_MODEL is set, Vertex AI.
func NewUploaderFromConfig(ctx context.Context, cfg *config.Config) (*Uploader, error) {
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

	opts := []UploaderOption{WithMaxBytes(cfg.MaxUploadBytes)}
	closers := []io.Closer{storageClient, firestoreClient}
	if cfg.AltTextModel != "" {
		altText, err := gcp.NewAltTextModel(ctx, cfg.ProjectID, cfg.VertexAIRegion, cfg.AltTextModel)
		if err != nil {
			_ = storageClient.Close()
			_ = firestoreClient.Close()
			return nil, fmt.Errorf("failed to create alt text model: %w", err)
		}
		opts = append(opts, WithDescriber(altText))
		closers = append(closers, altText)
	}

	u := NewUploader(
		store.NewGCSObjects(storageClient, cfg.UploadBucket, cfg.PublicBaseURL),
		store.NewFirestoreUploads(firestoreClient, cfg.UploadsCollection),
		opts...,
	)
	u.closers = closers
	slog.Info("Uploader initialized.", "bucket", cfg.UploadBucket, "altTextModel", cfg.AltTextModel)
	return u, nil
}

// Upload stores the file under the folder for its section and appends an
// audit record. The audit write and the alt-text call are best-effort: their
// failures are logged and the upload is still reported as successful.
func (u *Uploader) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if req.File == nil {
		return nil, apperr.BadRequest("no file provided")
	}
	data, err := io.ReadAll(io.LimitReader(req.File, u.maxBytes+1))
	if err != nil {
		return nil, apperr.BadRequest("failed to read file: %v", err)
	}
	if len(data) == 0 {
		return nil, apperr.BadRequest("file is empty")
	}
	if int64(len(data)) > u.maxBytes {
		return nil, apperr.BadRequest("file exceeds %d bytes", u.maxBytes)
	}

	contentType := req.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	var pageCount int
	if strings.HasPrefix(contentType, "application/pdf") {
		pageCount, err = pdfPageCount(data)
		if err != nil {
			return nil, apperr.BadRequest("invalid PDF: %v", err)
		}
	}

	objectName := path.Join(models.FolderForSection(req.Section), u.newName()+path.Ext(path.Base(req.Filename)))
	logCtx := slog.With("gcsObject", objectName, "section", req.Section)

	size, err := u.objects.Put(ctx, objectName, contentType, bytes.NewReader(data))
	if err != nil {
		logCtx.Error("Failed to store upload", "error", err)
		return nil, apperr.Backend("store upload", err)
	}
	url := u.objects.URL(objectName)
	logCtx.Info("Upload stored.", "size", size, "contentType", contentType)

	rec := &models.UploadedImageRecord{
		Path:         objectName,
		URL:          url,
		Section:      req.Section,
		OriginalName: req.Filename,
		ContentType:  contentType,
		Size:         size,
		UploadedAt:   u.now().UTC(),
		PageCount:    pageCount,
		Source:       models.SourceUpload,
	}
	if u.describer != nil && strings.HasPrefix(contentType, "image/") {
		alt, err := u.describer.Describe(ctx, u.objects.URI(objectName), contentType)
		if err != nil {
			logCtx.Warn("Alt text suggestion failed.", "error", err)
		}
		rec.AltText = alt
	}
	if err := u.log.Append(ctx, rec); err != nil {
		logCtx.Warn("Failed to record upload metadata; upload kept.", "error", err)
	}

	return &UploadResult{Path: objectName, URL: url}, nil
}

// List returns the newest audit records first.
func (u *Uploader) List(ctx context.Context, limit int) ([]models.UploadedImageRecord, error) {
	return u.log.List(ctx, limit)
}

// Close releases the clients created by NewUploaderFromConfig.
func (u *Uploader) Close() error {
	var first error
	for _, c := range u.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var disablePDFConfigDir sync.Once

func pdfPageCount(data []byte) (int, error) {
	// pdfcpu writes a config directory under $HOME by default, which is
	// read-only in Cloud Functions.
	disablePDFConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(data), conf)
}
