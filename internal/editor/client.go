package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Lllllllleong/consultancysite/internal/apperr"
	"github.com/Lllllllleong/consultancysite/internal/models"
	"github.com/Lllllllleong/consultancysite/internal/services"
)

// HTTPClient talks to a deployed content and upload API. It satisfies
// ContentClient and ImageUploader.
type HTTPClient struct {
	ContentURL string
	UploadURL  string
	Token      string
	HTTP       *http.Client
}

// NewHTTPClient builds a client for a site rooted at baseURL, e.g.
// https://example.com, using the /api/content and /api/upload routes.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	base := strings.TrimRight(baseURL, "/")
	return &HTTPClient{
		ContentURL: base + "/api/content",
		UploadURL:  base + "/api/upload",
		Token:      token,
		HTTP:       &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) Read(ctx context.Context) (*models.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ContentURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	var doc models.Document
	if err := c.do(req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) Save(ctx context.Context, doc *models.Document) (*models.WriteAck, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ContentURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	var ack models.WriteAck
	if err := c.do(req, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

func (c *HTTPClient) Upload(ctx context.Context, up services.UploadRequest) (*services.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if up.Section != "" {
		if err := mw.WriteField("section", up.Section); err != nil {
			return nil, fmt.Errorf("failed to write form: %w", err)
		}
	}
	fw, err := mw.CreateFormFile("file", up.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to write form: %w", err)
	}
	if _, err := io.Copy(fw, up.File); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to write form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.UploadURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var resp models.UploadResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &services.UploadResult{Path: resp.Path, URL: resp.URL}, nil
}

// do sends req and decodes a 200 body into out. Error bodies are mapped back
// onto the apperr kinds by status code.
func (c *HTTPClient) do(req *http.Request, out any) error {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return apperr.Backend(req.Method+" "+req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e models.ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		if e.Error == "" {
			e.Error = resp.Status
		}
		switch resp.StatusCode {
		case http.StatusNotFound:
			return apperr.NotFound("%s", e.Error)
		case http.StatusBadRequest:
			return apperr.Validation("%s", e.Error)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", apperr.ErrUnauthorized, e.Error)
		default:
			return apperr.Backend(req.Method+" "+req.URL.Path, fmt.Errorf("status %d: %s", resp.StatusCode, e.Error))
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Backend("decode response", err)
	}
	return nil
}
