package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Lllllllleong/consultancysite/internal/config"
	"github.com/Lllllllleong/consultancysite/internal/models"
	"github.com/Lllllllleong/consultancysite/internal/services"
)

var (
	ErrBadPassword      = errors.New("incorrect password")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotReady         = errors.New("editor is not ready")
	ErrNoUploader       = errors.New("image uploads are not configured")
)

// State is the lifecycle position of an editing session.
type State int

const (
	StateUnauthenticated State = iota
	StateLoading
	StateReady
	StateSaving
	StateError
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSaving:
		return "saving"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// SaveStatus is the transient banner shown after a save.
type SaveStatus string

const (
	StatusIdle    SaveStatus = ""
	StatusSuccess SaveStatus = "success"
	StatusError   SaveStatus = "error"
)

// Authenticator checks the admin password. auth.Gate satisfies it.
type Authenticator interface {
	Check(password string) bool
}

// ContentClient reads and saves the whole content document.
type ContentClient interface {
	Read(ctx context.Context) (*models.Document, error)
	Save(ctx context.Context, doc *models.Document) (*models.WriteAck, error)
}

// ImageUploader stores an image for an image field.
type ImageUploader interface {
	Upload(ctx context.Context, req services.UploadRequest) (*services.UploadResult, error)
}

// Snapshot is a consistent view of the session for rendering.
type Snapshot struct {
	State         State
	Dirty         bool
	Status        SaveStatus
	StatusMessage string
	Err           error
}

// Session holds one admin's in-memory copy of the content document.
//
// Edits are applied to a deep copy which then replaces the held document, so
// nothing handed out by Document aliases session state. Saves send the whole
// document; whatever was stored before is overwritten.
type Session struct {
	mu         sync.Mutex
	ID         string
	CreatedAt  time.Time
	LastAccess time.Time

	gate       Authenticator
	client     ContentClient
	uploader   ImageUploader
	clearDelay time.Duration

	state      State
	doc        *models.Document
	dirty      bool
	status     SaveStatus
	statusMsg  string
	err        error
	clearTimer *time.Timer
	statusGen  int
}

// Option configures optional Session behaviour.
type Option func(*Session)

// WithUploader enables UploadImage.
func WithUploader(u ImageUploader) Option {
	return func(s *Session) {
		s.uploader = u
	}
}

// WithStatusClearDelay sets how long a save banner stays up.
func WithStatusClearDelay(d time.Duration) Option {
	return func(s *Session) {
		s.clearDelay = d
	}
}

func NewSession(gate Authenticator, client ContentClient, opts ...Option) *Session {
	now := time.Now()
	s := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		LastAccess: now,
		gate:       gate,
		client:     client,
		clearDelay: config.DefaultStatusClearDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate checks the password and, on success, loads the document.
// A load failure leaves the session authenticated but in StateError. A
// session with a save in flight returns ErrNotReady.
func (s *Session) Authenticate(ctx context.Context, password string) error {
	if !s.gate.Check(password) {
		slog.Warn("Editor login rejected.", "sessionId", s.ID)
		return ErrBadPassword
	}
	s.mu.Lock()
	if s.state == StateSaving {
		s.mu.Unlock()
		return ErrNotReady
	}
	s.state = StateLoading
	s.mu.Unlock()
	return s.Load(ctx)
}

// Load fetches the document. On failure the session moves to StateError and
// has no document to edit.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateUnauthenticated {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	if s.state == StateSaving {
		s.mu.Unlock()
		return ErrNotReady
	}
	s.state = StateLoading
	s.mu.Unlock()

	doc, err := s.client.Read(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoading {
		// Logged out while the read was in flight.
		return ErrNotAuthenticated
	}
	if err != nil {
		slog.Error("Editor failed to load content", "sessionId", s.ID, "error", err)
		s.state = StateError
		s.doc = nil
		s.err = err
		return err
	}
	s.state = StateReady
	s.doc = doc.Clone()
	s.dirty = false
	s.err = nil
	return nil
}

// Set applies one edit addressed by p.
func (s *Session) Set(p Path, value string) error {
	return s.edit(p.String(), func(doc *models.Document) error {
		return apply(doc, p, value)
	})
}

// SetField edits a scalar directly on a section, e.g. ("hero", "title").
func (s *Session) SetField(section, field, value string) error {
	return s.Set(FieldPath(section, field), value)
}

// SetItemField edits a field of one list entry, e.g. ("services", "items", 0, "title").
func (s *Session) SetItemField(section, collection string, index int, subField, value string) error {
	return s.Set(ItemPath(section, collection, index, subField), value)
}

// AddItem appends an empty entry to a collection.
func (s *Session) AddItem(section, collection string) error {
	return s.edit(section+"."+collection, func(doc *models.Document) error {
		if !doc.AppendItem(section, collection) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownPath, section, collection)
		}
		return nil
	})
}

// RemoveItem deletes one entry from a collection.
func (s *Session) RemoveItem(section, collection string, index int) error {
	return s.edit(fmt.Sprintf("%s.%s.%d", section, collection, index), func(doc *models.Document) error {
		if !doc.RemoveItem(section, collection, index) {
			return fmt.Errorf("%w: %s.%s.%d", ErrUnknownPath, section, collection, index)
		}
		return nil
	})
}

// edit runs mutate on a deep copy and swaps the copy in on success. An
// unknown path is logged and leaves the held document as it was.
func (s *Session) edit(target string, mutate func(*models.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return err
	}

	next := s.doc.Clone()
	if err := mutate(next); err != nil {
		slog.Warn("Ignoring edit to a field the document does not have.", "sessionId", s.ID, "path", target, "error", err)
		return err
	}
	s.doc = next
	s.dirty = true
	return nil
}

// Save sends the whole document. Success clears the dirty flag; failure keeps
// the local edits so the user can retry. Either way a status banner is set
// and cleared again after the configured delay. There is no automatic retry.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if err := s.readyLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = StateSaving
	doc := s.doc.Clone()
	s.mu.Unlock()

	_, err := s.client.Save(ctx, doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSaving {
		return ErrNotAuthenticated
	}
	s.state = StateReady
	if err != nil {
		slog.Error("Editor save failed; edits kept locally.", "sessionId", s.ID, "error", err)
		s.setStatusLocked(StatusError, err.Error())
		return err
	}
	s.dirty = false
	s.setStatusLocked(StatusSuccess, "Content saved")
	return nil
}

// UploadImage stores an image and points the field at p to its URL.
func (s *Session) UploadImage(ctx context.Context, p Path, req services.UploadRequest) (*services.UploadResult, error) {
	if s.uploader == nil {
		return nil, ErrNoUploader
	}
	s.mu.Lock()
	err := s.readyLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	res, err := s.uploader.Upload(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.Set(p, res.URL); err != nil {
		return res, err
	}
	return res, nil
}

// Logout discards all local state.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.state = StateUnauthenticated
	s.doc = nil
	s.dirty = false
	s.status = StatusIdle
	s.statusMsg = ""
	s.err = nil
}

// Close stops the pending status timer.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}

// Document returns a copy of the held document, or nil before a load.
func (s *Session) Document() *models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:         s.state,
		Dirty:         s.dirty,
		Status:        s.status,
		StatusMessage: s.statusMsg,
		Err:           s.err,
	}
}

func (s *Session) readyLocked() error {
	switch s.state {
	case StateUnauthenticated:
		return ErrNotAuthenticated
	case StateReady:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrNotReady, s.state)
	}
}

func (s *Session) setStatusLocked(status SaveStatus, msg string) {
	s.stopTimerLocked()
	s.status = status
	s.statusMsg = msg
	s.statusGen++
	gen := s.statusGen
	s.clearTimer = time.AfterFunc(s.clearDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.statusGen == gen {
			s.status = StatusIdle
			s.statusMsg = ""
			s.clearTimer = nil
		}
	})
}

func (s *Session) stopTimerLocked() {
	if s.clearTimer != nil {
		s.clearTimer.Stop()
		s.clearTimer = nil
	}
	s.statusGen++
}
