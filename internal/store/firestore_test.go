package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/consultancysite/internal/apperr"
	"github.com/Lllllllleong/consultancysite/internal/gcp"
	"github.com/Lllllllleong/consultancysite/internal/models"
)

// These tests talk to the Firestore emulator and are skipped without it.
func newEmulatorClient(t *testing.T) (context.Context, string) {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	return context.Background(), fmt.Sprintf("test-%d", time.Now().UnixNano())
}

func TestFirestoreContent_Emulator(t *testing.T) {
	ctx, suffix := newEmulatorClient(t)
	client, err := gcp.NewFirestoreClient(ctx, "demo-site")
	require.NoError(t, err)
	defer client.Close()
	repo := NewFirestoreContent(client, "site_content_"+suffix, "1")

	_, err = repo.Get(ctx)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	first := &models.ContentRecord{Content: models.Document{Hero: models.Hero{Title: "first"}}, UpdatedAt: time.Now().UTC()}
	second := &models.ContentRecord{Content: models.Document{Hero: models.Hero{Subtitle: "second"}}, UpdatedAt: time.Now().UTC()}
	require.NoError(t, repo.Put(ctx, first))
	require.NoError(t, repo.Put(ctx, second))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", got.Content.Hero.Title, "last write replaces the whole document")
	assert.Equal(t, "second", got.Content.Hero.Subtitle)
}

func TestFirestoreUploads_Emulator(t *testing.T) {
	ctx, suffix := newEmulatorClient(t)
	client, err := gcp.NewFirestoreClient(ctx, "demo-site")
	require.NoError(t, err)
	defer client.Close()
	log := NewFirestoreUploads(client, "uploaded_images_"+suffix)

	now := time.Now().UTC()
	require.NoError(t, log.Append(ctx, &models.UploadedImageRecord{Path: "logos/a.png", UploadedAt: now, Source: models.SourceUpload}))
	require.NoError(t, log.Append(ctx, &models.UploadedImageRecord{Path: "logos/b.png", UploadedAt: now.Add(time.Second), Source: models.SourceUpload}))

	created, err := log.Backfill(ctx, &models.UploadedImageRecord{Path: "logos/a.png", UploadedAt: now, Source: models.SourceReconciler})
	require.NoError(t, err)
	assert.False(t, created, "an uploaded object is not backfilled")

	recs, err := log.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "logos/b.png", recs[0].Path)
	assert.Equal(t, models.SourceUpload, recs[1].Source)
}
