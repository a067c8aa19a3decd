package site

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Lllllllleong/consultancysite/internal/apperr"
	"github.com/Lllllllleong/consultancysite/internal/models"
)

// loadDocument returns the stored document, or the bundled one when nothing
// has been stored yet. Backend failures are not masked.
func (s *Server) loadDocument(r *http.Request) (*models.Document, error) {
	doc, err := s.content.Read(r.Context())
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	slog.Info("No stored content; rendering the bundled document.")
	return models.DefaultDocument()
}

func (s *Server) pageError(w http.ResponseWriter, err error) {
	slog.Error("Failed to load content for page", "error", err)
	s.render(w, http.StatusInternalServerError, "message", pageData{
		Title: "Unavailable",
		Error: "The site content could not be loaded. Please try again shortly.",
	})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	doc, err := s.loadDocument(r)
	if err != nil {
		s.pageError(w, err)
		return
	}
	s.render(w, http.StatusOK, "home", pageData{Doc: doc})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	doc, err := s.loadDocument(r)
	if err != nil {
		s.pageError(w, err)
		return
	}
	s.render(w, http.StatusOK, "projects", pageData{Title: "Projects", Doc: doc})
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	doc, err := s.loadDocument(r)
	if err != nil {
		s.pageError(w, err)
		return
	}
	p, ok := doc.FindProject(chi.URLParam(r, "slug"))
	if !ok {
		s.render(w, http.StatusNotFound, "message", pageData{Title: "Not found", Doc: doc, Error: "That project does not exist."})
		return
	}
	s.render(w, http.StatusOK, "project", pageData{Title: p.Title, Doc: doc, Project: p})
}

// ObjectOpener reads a stored object. store.ObjectStore satisfies it.
type ObjectOpener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// MediaHandler serves objects by name, for running without a public bucket.
func MediaHandler(objects ObjectOpener) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)[1:]
		rc, err := objects.Open(r.Context(), name)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			slog.Error("Failed to open media object", "object", name, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(data))
	})
}
