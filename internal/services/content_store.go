package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Lllllllleong/consultancysite/internal/apperr"
	"github.com/Lllllllleong/consultancysite/internal/config"
	"github.com/Lllllllleong/consultancysite/internal/gcp"
	"github.com/Lllllllleong/consultancysite/internal/models"
	"github.com/Lllllllleong/consultancysite/internal/store"
)

// Publisher is notified after the content document has been written.
type Publisher interface {
	ContentPublished(ctx context.Context, updatedAt time.Time) error
}

// ContentStore reads and writes the single content document.
//
// Writes are last-writer-wins: there is no version token and no merge. A
// section update is a read-modify-write of the whole document and races the
// same way.
type ContentStore struct {
	repo      store.ContentRepository
	publisher Publisher
	now       func() time.Time
	closers   []io.Closer
}

// ContentStoreOption configures optional ContentStore behaviour.
type ContentStoreOption func(*ContentStore)

// WithPublisher installs a best-effort publish hook.
func WithPublisher(p Publisher) ContentStoreOption {
	return func(s *ContentStore) {
		s.publisher = p
	}
}

// WithClock replaces time.Now for write timestamps.
func WithClock(now func() time.Time) ContentStoreOption {
	return func(s *ContentStore) {
		s.now = now
	}
}

// NewContentStore wraps a repository.
func NewContentStore(repo store.ContentRepository, opts ...ContentStoreOption) *ContentStore {
	s := &ContentStore{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewContentStoreFromConfig connects to Firestore and, when configured, the
// publish workflow.
func NewContentStoreFromConfig(ctx context.Context, cfg *config.Config) (*ContentStore, error) {
	if err := cfg.ValidateContent(); err != nil {
		return nil, err
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	s := NewContentStore(store.NewFirestoreContent(firestoreClient, cfg.ContentCollection, cfg.ContentDocID))
	s.closers = append(s.closers, firestoreClient)

	if cfg.PublishWorkflowID != "" {
		publisher, err := gcp.NewWorkflowPublisher(ctx, cfg.ProjectID, cfg.WorkflowLocation, cfg.PublishWorkflowID)
		if err != nil {
			_ = firestoreClient.Close()
			return nil, fmt.Errorf("failed to create publish workflow client: %w", err)
		}
		s.publisher = publisher
		s.closers = append(s.closers, publisher)
	}
	slog.Info("Content store initialized.", "collection", cfg.ContentCollection, "docId", cfg.ContentDocID, "publishWorkflow", cfg.PublishWorkflowID)
	return s, nil
}

// Read returns the stored document as-is. No caching, no retry.
func (s *ContentStore) Read(ctx context.Context) (*models.Document, error) {
	rec, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &rec.Content, nil
}

// Write accepts a raw request body: either a full document or a
// {section, data} update.
func (s *ContentStore) Write(ctx context.Context, raw []byte) (*models.WriteAck, error) {
	doc, upd, err := models.ParseWrite(raw)
	if err != nil {
		return nil, err
	}
	if upd != nil {
		return s.writeSection(ctx, upd)
	}
	return s.Save(ctx, doc)
}

// Save overwrites the stored document with doc.
func (s *ContentStore) Save(ctx context.Context, doc *models.Document) (*models.WriteAck, error) {
	if doc == nil {
		return nil, apperr.Validation("document is required")
	}
	rec := &models.ContentRecord{Content: *doc.Clone(), UpdatedAt: s.now().UTC()}
	if err := s.repo.Put(ctx, rec); err != nil {
		slog.Error("Failed to write content document", "error", err)
		return nil, err
	}
	slog.Info("Content document written.", "updatedAt", rec.UpdatedAt)
	s.publish(ctx, rec.UpdatedAt)
	return &models.WriteAck{Message: "Content updated successfully", UpdatedAt: rec.UpdatedAt}, nil
}

func (s *ContentStore) writeSection(ctx context.Context, upd *models.SectionUpdate) (*models.WriteAck, error) {
	logCtx := slog.With("section", upd.Section)
	doc, err := s.Read(ctx)
	if err != nil {
		return nil, err
	}
	if err := doc.ReplaceSection(upd.Section, upd.Data); err != nil {
		return nil, err
	}
	logCtx.Info("Replacing one section of the content document.")
	return s.Save(ctx, doc)
}

// publish runs the hook. A failure is logged and never fails the write.
func (s *ContentStore) publish(ctx context.Context, updatedAt time.Time) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.ContentPublished(ctx, updatedAt); err != nil {
		slog.Warn("Publish hook failed; content was saved.", "error", err)
	}
}

// Close releases the clients created by NewContentStoreFromConfig.
func (s *ContentStore) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
