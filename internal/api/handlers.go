// Package api holds the JSON HTTP handlers for /api/content and /api/upload.
// The same handlers back the Cloud Functions entry points and the site server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Lllllllleong/consultancysite/internal/apperr"
	"github.com/Lllllllleong/consultancysite/internal/auth"
	"github.com/Lllllllleong/consultancysite/internal/models"
	"github.com/Lllllllleong/consultancysite/internal/services"
)

// maxContentBody caps POST /api/content bodies.
const maxContentBody = 1 << 20

// multipartOverhead is allowed on top of the file size for form boundaries
// and the other fields.
const multipartOverhead = 64 << 10

// ContentService is the subset of services.ContentStore used by the handler.
type ContentService interface {
	Read(ctx context.Context) (*models.Document, error)
	Write(ctx context.Context, raw []byte) (*models.WriteAck, error)
}

// UploadService is the subset of services.Uploader used by the handler.
type UploadService interface {
	Upload(ctx context.Context, req services.UploadRequest) (*services.UploadResult, error)
}

// ContentHandler serves GET and POST on the content endpoint.
type ContentHandler struct {
	svc  ContentService
	gate *auth.Gate
}

func NewContentHandler(svc ContentService, gate *auth.Gate) *ContentHandler {
	return &ContentHandler{svc: svc, gate: gate}
}

func (h *ContentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPost:
		h.post(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		WriteJSON(w, http.StatusMethodNotAllowed, models.ErrorResponse{Error: "method not allowed"})
	}
}

func (h *ContentHandler) get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Read(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, doc)
}

func (h *ContentHandler) post(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.Authorize(r); err != nil {
		WriteError(w, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxContentBody))
	if err != nil {
		WriteError(w, apperr.Validation("could not read request body: %v", err))
		return
	}
	ack, err := h.svc.Write(r.Context(), body)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ack)
}

// UploadHandler serves POST on the upload endpoint.
type UploadHandler struct {
	svc      UploadService
	gate     *auth.Gate
	maxBytes int64
}

func NewUploadHandler(svc UploadService, gate *auth.Gate, maxBytes int64) *UploadHandler {
	return &UploadHandler{svc: svc, gate: gate, maxBytes: maxBytes}
}

func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		WriteJSON(w, http.StatusMethodNotAllowed, models.ErrorResponse{Error: "method not allowed"})
		return
	}
	if err := h.gate.Authorize(r); err != nil {
		WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, apperr.BadRequest("upload exceeds %d bytes", h.maxBytes))
			return
		}
		WriteError(w, apperr.BadRequest("could not parse multipart form: %v", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			WriteError(w, apperr.BadRequest("no file provided"))
			return
		}
		WriteError(w, apperr.BadRequest("could not read file: %v", err))
		return
	}
	defer file.Close()

	res, err := h.svc.Upload(r.Context(), services.UploadRequest{
		File:        file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Section:     r.FormValue("section"),
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, models.UploadResponse{Success: true, Path: res.Path, URL: res.URL})
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

// WriteError converts err into a {error} body and the matching status.
// Backend details are logged but not echoed to the client.
func WriteError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
		msg = "internal error"
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="site-admin"`)
	}
	WriteJSON(w, status, models.ErrorResponse{Error: msg})
}
