package editor

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/consultancysite/internal/api"
	"github.com/Lllllllleong/consultancysite/internal/apperr"
	"github.com/Lllllllleong/consultancysite/internal/auth"
	"github.com/Lllllllleong/consultancysite/internal/models"
	"github.com/Lllllllleong/consultancysite/internal/services"
	"github.com/Lllllllleong/consultancysite/internal/store/memory"
)

func newAPIServer(t *testing.T, doc *models.Document) (*httptest.Server, *memory.ObjectStore) {
	t.Helper()
	cs, _ := seeded(t, doc)
	gate := auth.NewGate(password)
	objs := memory.NewObjectStore("assets", "https://cdn.example.com")
	up := services.NewUploader(objs, memory.NewUploadLog())

	mux := http.NewServeMux()
	mux.Handle("/api/content", api.NewContentHandler(cs, gate))
	mux.Handle("/api/upload", api.NewUploadHandler(up, gate, 1<<20))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, objs
}

func TestHTTPClient_SessionOverHTTP(t *testing.T) {
	ctx := context.Background()
	srv, _ := newAPIServer(t, &models.Document{Hero: models.Hero{Title: "A", Subtitle: "B"}})
	client := NewHTTPClient(srv.URL+"/", password)
	client.HTTP = srv.Client()
	s := newReadySession(t, client)

	require.NoError(t, s.SetField("hero", "title", "Z"))
	require.NoError(t, s.Save(ctx))

	got, err := client.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Z", got.Hero.Title)
	assert.Equal(t, "B", got.Hero.Subtitle)
}

func TestHTTPClient_ErrorKinds(t *testing.T) {
	ctx := context.Background()
	srv, _ := newAPIServer(t, nil)
	client := NewHTTPClient(srv.URL, "wrong")
	client.HTTP = srv.Client()

	_, err := client.Read(ctx)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = client.Save(ctx, &models.Document{})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestHTTPClient_Upload(t *testing.T) {
	srv, objs := newAPIServer(t, &models.Document{})
	client := NewHTTPClient(srv.URL, password)
	client.HTTP = srv.Client()

	res, err := client.Upload(context.Background(), services.UploadRequest{
		File:     bytes.NewReader([]byte("logo")),
		Filename: "logo.svg",
		Section:  "logos",
	})

	require.NoError(t, err)
	assert.Contains(t, res.Path, "logos/")
	assert.Equal(t, "https://cdn.example.com/"+res.Path, res.URL)
	assert.Equal(t, []string{res.Path}, objs.Names())
}
