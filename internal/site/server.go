// Package site serves the public display pages, the admin editor and the
// JSON API from one chi router. It is what `sitectl serve` runs.
package site

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/Lllllllleong/consultancysite/internal/api"
	"github.com/Lllllllleong/consultancysite/internal/auth"
	"github.com/Lllllllleong/consultancysite/internal/config"
	"github.com/Lllllllleong/consultancysite/internal/editor"
	"github.com/Lllllllleong/consultancysite/internal/models"
)

const (
	sessionCookie      = "site_admin"
	defaultSessionTTL  = 2 * time.Hour
	defaultMaxSessions = 32
)

// ContentBackend is what the pages, the API and the editor need from the
// content store. services.ContentStore satisfies it.
type ContentBackend interface {
	Read(ctx context.Context) (*models.Document, error)
	Write(ctx context.Context, raw []byte) (*models.WriteAck, error)
	Save(ctx context.Context, doc *models.Document) (*models.WriteAck, error)
}

// Option configures optional Server behaviour.
type Option func(*Server)

// WithUploads mounts /api/upload and enables image uploads in the editor.
func WithUploads(u api.UploadService, maxBytes int64) Option {
	return func(s *Server) {
		s.uploads = u
		s.maxUploadBytes = maxBytes
	}
}

// WithMedia serves stored objects under /media/.
func WithMedia(h http.Handler) Option {
	return func(s *Server) {
		s.media = h
	}
}

// WithStatusClearDelay sets how long the editor's save banner stays up.
func WithStatusClearDelay(d time.Duration) Option {
	return func(s *Server) {
		s.statusClearDelay = d
	}
}

// WithLoginLimit overrides the per-address login throttle.
func WithLoginLimit(limit rate.Limit, burst int) Option {
	return func(s *Server) {
		s.limiter = newLoginLimiter(limit, burst)
	}
}

// WithTrustedProxy names the reverse proxy whose X-Forwarded-For header is
// believed when keying the login throttle. Headers from any other peer are
// ignored.
func WithTrustedProxy(host string) Option {
	return func(s *Server) {
		s.trustedProxy = host
	}
}

// WithSiteName sets the name shown in page titles.
func WithSiteName(name string) Option {
	return func(s *Server) {
		s.siteName = name
	}
}

// Server holds the router and the admin editor sessions.
type Server struct {
	router           chi.Router
	content          ContentBackend
	uploads          api.UploadService
	gate             *auth.Gate
	media            http.Handler
	sessions         *editor.Store
	stopCleanup      func()
	limiter          *loginLimiter
	pages            pages
	siteName         string
	trustedProxy     string
	maxUploadBytes   int64
	statusClearDelay time.Duration
}

func NewServer(content ContentBackend, gate *auth.Gate, opts ...Option) *Server {
	s := &Server{
		content:          content,
		gate:             gate,
		limiter:          newLoginLimiter(defaultLoginRate, defaultLoginBurst),
		pages:            parsePages(),
		siteName:         "Consultancy",
		maxUploadBytes:   config.DefaultMaxUploadBytes,
		statusClearDelay: config.DefaultStatusClearDelay,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.sessions = editor.NewStore(defaultMaxSessions, defaultSessionTTL, s.newSession)
	s.stopCleanup = s.sessions.StartCleanup(time.Minute)
	s.router = s.buildRouter()
	return s
}

func (s *Server) newSession() *editor.Session {
	opts := []editor.Option{editor.WithStatusClearDelay(s.statusClearDelay)}
	if s.uploads != nil {
		opts = append(opts, editor.WithUploader(s.uploads))
	}
	return editor.NewSession(s.gate, s.content, opts...)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Get("/", s.handleHome)
	r.Get("/projects", s.handleProjects)
	r.Get("/projects/{slug}", s.handleProject)

	r.Handle("/api/content", api.NewContentHandler(s.content, s.gate))
	if s.uploads != nil {
		r.Handle("/api/upload", api.NewUploadHandler(s.uploads, s.gate, s.maxUploadBytes))
	}
	if s.media != nil {
		r.Handle("/media/*", http.StripPrefix("/media/", s.media))
	}

	r.Route("/admin", func(r chi.Router) {
		r.Get("/login", s.handleLoginPage)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/", s.handleAdmin)
			r.Post("/field", s.handleField)
			r.Post("/items", s.handleItems)
			r.Post("/save", s.handleSave)
			r.Post("/reload", s.handleReload)
			r.Post("/upload", s.handleAdminUpload)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusNotFound, "message", pageData{Title: "Not found", Error: "There is no page at this address."})
	})
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe runs until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Site server listening.", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("Shutting down site server.")
		return srv.Shutdown(shutdownCtx)
	}
}

// Close stops session cleanup and logs every editor out.
func (s *Server) Close() {
	s.stopCleanup()
	s.sessions.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
