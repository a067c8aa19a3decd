// Package memory provides in-memory implementations of the store ports for
// tests and for running the site server without Google Cloud.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"sync"

	"github.com/Lllllllleong/consultancysite/internal/apperr"
	"github.com/Lllllllleong/consultancysite/internal/models"
	"github.com/Lllllllleong/consultancysite/internal/store"
)

// Ensure the in-memory stores implement the interfaces.
var (
	_ store.ContentRepository = (*ContentRepository)(nil)
	_ store.UploadLog         = (*UploadLog)(nil)
	_ store.ObjectStore       = (*ObjectStore)(nil)
)

// ContentRepository is an in-memory content record. Setting GetErr or PutErr
// makes the matching call fail, for exercising error paths.
type ContentRepository struct {
	mu     sync.RWMutex
	rec    *models.ContentRecord
	puts   int
	GetErr error
	PutErr error
}

func NewContentRepository() *ContentRepository {
	return &ContentRepository{}
}

func (s *ContentRepository) Get(_ context.Context) (*models.ContentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	if s.rec == nil {
		return nil, apperr.NotFound("content document")
	}
	return copyRecord(s.rec), nil
}

func (s *ContentRepository) Put(_ context.Context, rec *models.ContentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	s.rec = copyRecord(rec)
	s.puts++
	return nil
}

// Puts reports how many writes succeeded.
func (s *ContentRepository) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}

func copyRecord(rec *models.ContentRecord) *models.ContentRecord {
	return &models.ContentRecord{Content: *rec.Content.Clone(), UpdatedAt: rec.UpdatedAt}
}

// UploadLog is an in-memory audit log. AppendErr makes Append fail.
type UploadLog struct {
	mu        sync.RWMutex
	records   []models.UploadedImageRecord
	byPath    map[string]int
	AppendErr error
}

func NewUploadLog() *UploadLog {
	return &UploadLog{byPath: make(map[string]int)}
}

// Append replaces any record for the same path in place.
func (s *UploadLog) Append(_ context.Context, rec *models.UploadedImageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AppendErr != nil {
		return s.AppendErr
	}
	if i, ok := s.byPath[rec.Path]; ok {
		s.records[i] = *rec
		return nil
	}
	s.byPath[rec.Path] = len(s.records)
	s.records = append(s.records, *rec)
	return nil
}

func (s *UploadLog) Backfill(_ context.Context, rec *models.UploadedImageRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AppendErr != nil {
		return false, s.AppendErr
	}
	if _, ok := s.byPath[rec.Path]; ok {
		return false, nil
	}
	s.byPath[rec.Path] = len(s.records)
	s.records = append(s.records, *rec)
	return true, nil
}

// List returns the newest records first.
func (s *UploadLog) List(_ context.Context, limit int) ([]models.UploadedImageRecord, error) {
	s.mu.RLock()
	out := make([]models.UploadedImageRecord, len(s.records))
	copy(out, s.records)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Records returns every record in insertion order.
func (s *UploadLog) Records() []models.UploadedImageRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.UploadedImageRecord, len(s.records))
	copy(out, s.records)
	return out
}

type object struct {
	contentType string
	data        []byte
}

// ObjectStore is an in-memory bucket. PutErr makes Put fail.
type ObjectStore struct {
	mu      sync.RWMutex
	name    string
	baseURL string
	objects map[string]object
	PutErr  error
}

// NewObjectStore creates an empty bucket whose URLs are rooted at baseURL.
func NewObjectStore(bucket, baseURL string) *ObjectStore {
	return &ObjectStore{
		name:    bucket,
		baseURL: baseURL,
		objects: make(map[string]object),
	}
}

func (s *ObjectStore) Put(_ context.Context, name, contentType string, r io.Reader) (int64, error) {
	if s.PutErr != nil {
		return 0, s.PutErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[name]; exists {
		return 0, fmt.Errorf("%s: object already exists", name)
	}
	s.objects[name] = object{contentType: contentType, data: data}
	return int64(len(data)), nil
}

func (s *ObjectStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[name]
	if !ok {
		return nil, apperr.NotFound("object %s", name)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// ContentType returns the stored content type of an object.
func (s *ObjectStore) ContentType(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[name]
	return obj.contentType, ok
}

// Names lists the stored object names, sorted.
func (s *ObjectStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.objects))
	for n := range s.objects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *ObjectStore) URL(name string) string {
	u, err := url.JoinPath(s.baseURL, name)
	if err != nil {
		return s.baseURL + "/" + name
	}
	return u
}

func (s *ObjectStore) URI(name string) string {
	return fmt.Sprintf("mem://%s/%s", s.name, name)
}

func (s *ObjectStore) Bucket() string {
	return s.name
}
