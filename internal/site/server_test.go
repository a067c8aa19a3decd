package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/Lllllllleong/consultancysite/internal/apperr"
	"github.com/Lllllllleong/consultancysite/internal/auth"
	"github.com/Lllllllleong/consultancysite/internal/models"
	"github.com/Lllllllleong/consultancysite/internal/services"
	"github.com/Lllllllleong/consultancysite/internal/store/memory"
)

const adminPassword = "open-sesame"

type fixture struct {
	srv     *Server
	content *services.ContentStore
	repo    *memory.ContentRepository
	objects *memory.ObjectStore
}

func newFixture(t *testing.T, doc *models.Document, opts ...Option) *fixture {
	t.Helper()
	repo := memory.NewContentRepository()
	cs := services.NewContentStore(repo)
	if doc != nil {
		_, err := cs.Save(context.Background(), doc)
		require.NoError(t, err)
	}
	objs := memory.NewObjectStore("assets", "/media")
	up := services.NewUploader(objs, memory.NewUploadLog())
	opts = append([]Option{WithUploads(up, 1<<20), WithMedia(MediaHandler(objs))}, opts...)
	srv := NewServer(cs, auth.NewGate(adminPassword), opts...)
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, content: cs, repo: repo, objects: objs}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	return f.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func formPost(path string, form url.Values, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func (f *fixture) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := f.do(formPost("/admin/login", url.Values{"password": {adminPassword}}, nil))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Equal(t, "/admin", rec.Header().Get("Location"))
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.get("/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHome_RendersStoredContent(t *testing.T) {
	f := newFixture(t, &models.Document{
		Hero:     models.Hero{Title: "Stored title"},
		Services: models.Services{Heading: "Services", Items: []models.ServiceCard{{Title: "Audit", Description: "**fast** <script>alert(1)</script>"}}},
	})

	rec := f.get("/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Stored title")
	assert.Contains(t, body, "<strong>fast</strong>")
	assert.NotContains(t, body, "<script>")
}

func TestHome_FallsBackToBundledContent(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.get("/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Engineering that ships")
}

func TestHome_BackendFailureIsNotMasked(t *testing.T) {
	f := newFixture(t, nil)
	f.repo.GetErr = apperr.Backend("firestore get", errors.New("unavailable"))

	rec := f.get("/")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Engineering that ships")
}

func TestProjectPages(t *testing.T) {
	f := newFixture(t, &models.Document{Projects: models.Projects{Items: []models.Project{
		{Title: "Bridge Works", Description: "first", Challenge: "Tight *deadline*"},
		{Title: "Bridge works", Description: "second"},
	}}})

	rec := f.get("/projects")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/projects/bridge-works"`)

	rec = f.get("/projects/bridge-works")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "first")
	assert.NotContains(t, rec.Body.String(), "second")
	assert.Contains(t, rec.Body.String(), "<em>deadline</em>")

	rec = f.get("/projects/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRouteIs404(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, http.StatusNotFound, f.get("/nowhere").Code)
}

func TestAdmin_RequiresLogin(t *testing.T) {
	f := newFixture(t, &models.Document{})

	rec := f.get("/admin")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "forged"})
	rec = f.do(req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestAdmin_WrongPassword(t *testing.T) {
	f := newFixture(t, &models.Document{})

	rec := f.do(formPost("/admin/login", url.Values{"password": {"nope"}}, nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Incorrect password")
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, 0, f.srv.sessions.Len())
}

func TestAdmin_LoginIsRateLimited(t *testing.T) {
	f := newFixture(t, &models.Document{}, WithLoginLimit(rate.Limit(0), 2))

	for i := 0; i < 2; i++ {
		rec := f.do(formPost("/admin/login", url.Values{"password": {"nope"}}, nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := f.do(formPost("/admin/login", url.Values{"password": {adminPassword}}, nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestAdmin_LoginLimitIgnoresSpoofedHeaders(t *testing.T) {
	f := newFixture(t, &models.Document{}, WithLoginLimit(rate.Limit(0), 2))

	attempt := func(i int) int {
		req := formPost("/admin/login", url.Values{"password": {"nope"}}, nil)
		req.RemoteAddr = "203.0.113.9:4444"
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i))
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		return f.do(req).Code
	}
	require.Equal(t, http.StatusUnauthorized, attempt(1))
	require.Equal(t, http.StatusUnauthorized, attempt(2))
	for i := 3; i < 10; i++ {
		assert.Equal(t, http.StatusTooManyRequests, attempt(i))
	}
}

func TestAdmin_LoginLimitBehindTrustedProxy(t *testing.T) {
	f := newFixture(t, &models.Document{}, WithLoginLimit(rate.Limit(0), 1), WithTrustedProxy("10.0.0.1"))

	viaProxy := func(client string) int {
		req := formPost("/admin/login", url.Values{"password": {"nope"}}, nil)
		req.RemoteAddr = "10.0.0.1:5000"
		req.Header.Set("X-Forwarded-For", "203.0.113.250, "+client)
		return f.do(req).Code
	}
	assert.Equal(t, http.StatusUnauthorized, viaProxy("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, viaProxy("198.51.100.1"))
	assert.Equal(t, http.StatusUnauthorized, viaProxy("198.51.100.2"), "clients behind the proxy are throttled separately")
}

func TestAdmin_EditAndSave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &models.Document{Hero: models.Hero{Title: "A", Subtitle: "B"}})
	cookie := f.login(t)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(cookie)
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hero.title")

	rec = f.do(formPost("/admin/field", url.Values{"path": {"hero.title"}, "value": {"Z"}}, cookie))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	stored, err := f.content.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", stored.Hero.Title, "edits stay local until saved")

	rec = f.do(formPost("/admin/save", nil, cookie))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	stored, err = f.content.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Z", stored.Hero.Title)
	assert.Equal(t, "B", stored.Hero.Subtitle)
}

func TestAdmin_UnknownPath(t *testing.T) {
	f := newFixture(t, &models.Document{})
	cookie := f.login(t)

	rec := f.do(formPost("/admin/field", url.Values{"path": {"hero.colour"}, "value": {"red"}}, cookie))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown field path")
}

func TestAdmin_Items(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &models.Document{Skills: models.Skills{Items: []models.Skill{{Name: "Go"}}}})
	cookie := f.login(t)

	rec := f.do(formPost("/admin/items", url.Values{"section": {"skills"}, "collection": {"items"}, "action": {"add"}}, cookie))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = f.do(formPost("/admin/field", url.Values{"path": {"skills.items.1.name"}, "value": {"Rust"}}, cookie))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = f.do(formPost("/admin/items", url.Values{"section": {"skills"}, "collection": {"items"}, "action": {"remove"}, "index": {"0"}}, cookie))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, http.StatusSeeOther, f.do(formPost("/admin/save", nil, cookie)).Code)

	stored, err := f.content.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Skill{{Name: "Rust"}}, stored.Skills.Items)

	rec = f.do(formPost("/admin/items", url.Values{"section": {"skills"}, "collection": {"items"}, "action": {"explode"}}, cookie))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin_Logout(t *testing.T) {
	f := newFixture(t, &models.Document{})
	cookie := f.login(t)

	rec := f.do(formPost("/admin/logout", nil, cookie))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(cookie)
	rec = f.do(req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 0, f.srv.sessions.Len())
}

func TestAdmin_LoadFailureShowsError(t *testing.T) {
	f := newFixture(t, &models.Document{})
	f.repo.GetErr = apperr.Backend("firestore get", errors.New("unavailable"))
	cookie := f.login(t)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(cookie)
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "could not be loaded")

	f.repo.GetErr = nil
	rec = f.do(formPost("/admin/reload", nil, cookie))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	sess, ok := f.srv.sessions.Get(cookie.Value)
	require.True(t, ok)
	assert.NotNil(t, sess.Document())
}

func TestAdmin_UploadSetsField(t *testing.T) {
	f := newFixture(t, &models.Document{})
	cookie := f.login(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("path", "hero.backgroundImage"))
	fw, err := mw.CreateFormFile("file", "hero.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte{0xff, 0xd8, 0xff})
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/admin/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)

	rec := f.do(req)

	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	names := f.objects.Names()
	require.Len(t, names, 1)
	assert.True(t, strings.HasPrefix(names[0], "uploads/"))
	sess, _ := f.srv.sessions.Get(cookie.Value)
	assert.Equal(t, "/media/"+names[0], sess.Document().Hero.BackgroundImage)

	media := f.get("/media/" + names[0])
	assert.Equal(t, http.StatusOK, media.Code)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, media.Body.Bytes())
	assert.Equal(t, http.StatusNotFound, f.get("/media/uploads/none.jpg").Code)
}

func TestAPIRoutesMounted(t *testing.T) {
	f := newFixture(t, &models.Document{Hero: models.Hero{Title: "api"}})

	rec := f.get("/api/content")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"api"`)

	rec = f.do(httptest.NewRequest(http.MethodPost, "/api/content", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
