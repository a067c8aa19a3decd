package site

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Lllllllleong/consultancysite/internal/apperr"
	"github.com/Lllllllleong/consultancysite/internal/editor"
	"github.com/Lllllllleong/consultancysite/internal/services"
)

type sessionKey struct{}

func sessionFrom(ctx context.Context) *editor.Session {
	sess, _ := ctx.Value(sessionKey{}).(*editor.Session)
	return sess
}

// requireSession resolves the session cookie and sends anyone without an
// authenticated session to the login page.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil {
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}
		sess, ok := s.sessions.Get(c.Value)
		if !ok || sess.Snapshot().State == editor.StateUnauthenticated {
			clearSessionCookie(w, r)
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/admin",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/admin",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "login", pageData{Title: "Sign in"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	remote := clientAddr(r, s.trustedProxy)
	logCtx := slog.With("remote", remote)
	if !s.limiter.Allow(remote) {
		logCtx.Warn("Login throttled.")
		w.Header().Set("Retry-After", "60")
		s.render(w, http.StatusTooManyRequests, "login", pageData{Title: "Sign in", Error: "Too many attempts. Wait a minute and try again."})
		return
	}
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, "login", pageData{Title: "Sign in", Error: "Could not read the form."})
		return
	}

	sess := s.sessions.Create()
	err := sess.Authenticate(r.Context(), r.PostFormValue("password"))
	if errors.Is(err, editor.ErrBadPassword) {
		s.sessions.Delete(sess.ID)
		s.render(w, http.StatusUnauthorized, "login", pageData{Title: "Sign in", Error: "Incorrect password."})
		return
	}
	if err != nil {
		// Authenticated, but the content failed to load. The editor page
		// shows the error and offers a reload.
		logCtx.Error("Editor session opened without content", "sessionId", sess.ID, "error", err)
	}
	logCtx.Info("Editor session opened.", "sessionId", sess.ID)
	setSessionCookie(w, r, sess.ID)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.sessions.Delete(c.Value)
	}
	clearSessionCookie(w, r)
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "admin", pageData{Title: "Editor", Admin: newAdminView(sessionFrom(r.Context()))})
}

// adminResult redirects back to the editor on success and re-renders it with
// the error otherwise.
func (s *Server) adminResult(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	status := apperr.HTTPStatus(err)
	switch {
	case errors.Is(err, editor.ErrNotReady):
		status = http.StatusConflict
	case errors.Is(err, editor.ErrUnknownPath), errors.Is(err, editor.ErrNoUploader):
		status = http.StatusBadRequest
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "The request failed. Please try again."
	}
	s.render(w, status, "admin", pageData{Title: "Editor", Error: msg, Admin: newAdminView(sessionFrom(r.Context()))})
}

func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.adminResult(w, r, apperr.BadRequest("could not read form: %v", err))
		return
	}
	p, err := editor.ParsePath(r.PostFormValue("path"))
	if err != nil {
		s.adminResult(w, r, err)
		return
	}
	s.adminResult(w, r, sessionFrom(r.Context()).Set(p, r.PostFormValue("value")))
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.adminResult(w, r, apperr.BadRequest("could not read form: %v", err))
		return
	}
	sess := sessionFrom(r.Context())
	section, collection := r.PostFormValue("section"), r.PostFormValue("collection")
	switch r.PostFormValue("action") {
	case "add":
		s.adminResult(w, r, sess.AddItem(section, collection))
	case "remove":
		idx, err := strconv.Atoi(r.PostFormValue("index"))
		if err != nil {
			s.adminResult(w, r, apperr.BadRequest("index must be a number"))
			return
		}
		s.adminResult(w, r, sess.RemoveItem(section, collection, idx))
	default:
		s.adminResult(w, r, apperr.BadRequest("action must be add or remove"))
	}
}

// handleSave always returns to the editor: the outcome is shown by the
// session's status banner.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	err := sessionFrom(r.Context()).Save(r.Context())
	if errors.Is(err, editor.ErrNotReady) {
		s.adminResult(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	err := sessionFrom(r.Context()).Load(r.Context())
	if err != nil && !errors.Is(err, editor.ErrNotReady) {
		// The failure is on the session and rendered from there.
		err = nil
	}
	s.adminResult(w, r, err)
}

func (s *Server) handleAdminUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+(64<<10))
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		s.adminResult(w, r, apperr.BadRequest("could not read upload: %v", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	p, err := editor.ParsePath(r.FormValue("path"))
	if err != nil {
		s.adminResult(w, r, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.adminResult(w, r, apperr.BadRequest("no file provided"))
		return
	}
	defer file.Close()

	_, err = sessionFrom(r.Context()).UploadImage(r.Context(), p, services.UploadRequest{
		File:        file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Section:     r.FormValue("section"),
	})
	s.adminResult(w, r, err)
}
