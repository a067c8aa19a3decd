package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/consultancysite/internal/apperr"
	"github.com/Lllllllleong/consultancysite/internal/models"
	"github.com/Lllllllleong/consultancysite/internal/services"
	"github.com/Lllllllleong/consultancysite/internal/store/memory"
)

func TestAuditReconciler_BackfillsMissingRecord(t *testing.T) {
	ctx := context.Background()
	objs := memory.NewObjectStore("site-assets", "http://localhost/media")
	log := memory.NewUploadLog()
	r := services.NewAuditReconciler(objs, log)
	created := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	wrote, err := r.Process(ctx, services.GCSEvent{
		Bucket:      "site-assets",
		Name:        "client-face-pics/abc.png",
		ContentType: "image/png",
		Size:        "2048",
		TimeCreated: created,
	})

	require.NoError(t, err)
	assert.True(t, wrote)
	recs := log.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "client-face-pics/abc.png", recs[0].Path)
	assert.Equal(t, "testimonials", recs[0].Section)
	assert.Equal(t, int64(2048), recs[0].Size)
	assert.Equal(t, created, recs[0].UploadedAt)
	assert.Equal(t, models.SourceReconciler, recs[0].Source)
}

func TestAuditReconciler_SkipsRecordedUpload(t *testing.T) {
	ctx := context.Background()
	objs := memory.NewObjectStore("site-assets", "http://localhost/media")
	log := memory.NewUploadLog()
	u := services.NewUploader(objs, log, services.WithNameGenerator(func() string { return "n" }))
	res, err := u.Upload(ctx, services.UploadRequest{File: strings.NewReader("x"), Filename: "a.png", Section: "logos"})
	require.NoError(t, err)

	wrote, err := services.NewAuditReconciler(objs, log).Process(ctx, services.GCSEvent{Bucket: "site-assets", Name: res.Path, Size: "1"})

	require.NoError(t, err)
	assert.False(t, wrote)
	assert.Len(t, log.Records(), 1)
}

func TestAuditReconciler_AfterFailedAuditWrite(t *testing.T) {
	ctx := context.Background()
	objs := memory.NewObjectStore("site-assets", "http://localhost/media")
	log := memory.NewUploadLog()
	u := services.NewUploader(objs, log)

	log.AppendErr = errors.New("firestore unavailable")
	res, err := u.Upload(ctx, services.UploadRequest{File: strings.NewReader("x"), Filename: "a.png", Section: "projects"})
	require.NoError(t, err)
	require.Empty(t, log.Records())
	log.AppendErr = nil

	wrote, err := services.NewAuditReconciler(objs, log).Process(ctx, services.GCSEvent{Bucket: "site-assets", Name: res.Path, Size: "1"})

	require.NoError(t, err)
	assert.True(t, wrote)
	require.Len(t, log.Records(), 1)
	assert.Equal(t, "projects", log.Records()[0].Section)
}

func TestAuditReconciler_OtherBucket(t *testing.T) {
	objs := memory.NewObjectStore("site-assets", "http://localhost/media")
	log := memory.NewUploadLog()

	wrote, err := services.NewAuditReconciler(objs, log).Process(context.Background(), services.GCSEvent{Bucket: "elsewhere", Name: "logos/a.png"})

	require.NoError(t, err)
	assert.False(t, wrote)
	assert.Empty(t, log.Records())
}

func TestAuditReconciler_AppendFailure(t *testing.T) {
	objs := memory.NewObjectStore("site-assets", "http://localhost/media")
	log := memory.NewUploadLog()
	log.AppendErr = errors.New("permission denied")

	_, err := services.NewAuditReconciler(objs, log).Process(context.Background(), services.GCSEvent{Bucket: "site-assets", Name: "logos/a.png"})

	assert.ErrorIs(t, err, apperr.ErrBackend)
}

// describeFunc lets a test act while the uploader waits on alt text, after
// the object is stored and before its record is written.
type describeFunc func(ctx context.Context, uri string) (string, error)

func (f describeFunc) Describe(ctx context.Context, uri, _ string) (string, error) {
	return f(ctx, uri)
}

func TestAuditReconciler_FinalizeEventDuringUpload(t *testing.T) {
	ctx := context.Background()
	objs := memory.NewObjectStore("site-assets", "http://localhost/media")
	log := memory.NewUploadLog()
	r := services.NewAuditReconciler(objs, log)
	var backfilled bool
	d := describeFunc(func(ctx context.Context, uri string) (string, error) {
		name := strings.TrimPrefix(uri, "mem://site-assets/")
		var err error
		backfilled, err = r.Process(ctx, services.GCSEvent{Bucket: "site-assets", Name: name, Size: "1"})
		require.NoError(t, err)
		return "A crane", nil
	})
	u := services.NewUploader(objs, log, services.WithDescriber(d), services.WithNameGenerator(func() string { return "n" }))

	res, err := u.Upload(ctx, services.UploadRequest{File: strings.NewReader("x"), Filename: "a.png", ContentType: "image/png", Section: "logos"})

	require.NoError(t, err)
	assert.True(t, backfilled)
	recs := log.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, res.Path, recs[0].Path)
	assert.Equal(t, models.SourceUpload, recs[0].Source)
	assert.Equal(t, "A crane", recs[0].AltText)
	assert.Equal(t, "a.png", recs[0].OriginalName)
}

func TestAuditReconciler_RepeatedEvent(t *testing.T) {
	ctx := context.Background()
	objs := memory.NewObjectStore("site-assets", "http://localhost/media")
	log := memory.NewUploadLog()
	r := services.NewAuditReconciler(objs, log)
	e := services.GCSEvent{Bucket: "site-assets", Name: "logos/a.png", Size: "1"}

	first, err := r.Process(ctx, e)
	require.NoError(t, err)
	second, err := r.Process(ctx, e)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	assert.Len(t, log.Records(), 1)
}
