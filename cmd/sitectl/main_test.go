package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/consultancysite/internal/config"
	"github.com/Lllllllleong/consultancysite/internal/models"
	"github.com/Lllllllleong/consultancysite/internal/services"
	"github.com/Lllllllleong/consultancysite/internal/store/memory"
)

type testBackend struct {
	content *services.ContentStore
	objects *memory.ObjectStore
	log     *memory.UploadLog
}

// useTestBackend points every command at one set of in-memory stores.
func useTestBackend(t *testing.T) *testBackend {
	t.Helper()
	tb := &testBackend{
		content: services.NewContentStore(memory.NewContentRepository()),
		objects: memory.NewObjectStore("local", "/media"),
		log:     memory.NewUploadLog(),
	}
	up := services.NewUploader(tb.objects, tb.log)
	openBackend = func(context.Context, *config.Config) (*backend, error) {
		return &backend{content: tb.content, store: tb.content, uploader: up, uploads: up}, nil
	}
	t.Setenv("ADMIN_PASSWORD", "pw")
	t.Cleanup(func() { openBackend = defaultOpenBackend })
	return tb
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		getAsYAML, seedForce = false, false
		uploadSection = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "content", "seed", "upload", "uploads"} {
		assert.Contains(t, names, want)
	}
}

func TestSeedThenGet(t *testing.T) {
	useTestBackend(t)

	out, err := execute(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded content")

	out, err = execute(t, "content", "get")
	require.NoError(t, err)
	var doc models.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Engineering that ships", doc.Hero.Title)

	_, err = execute(t, "seed")
	assert.ErrorContains(t, err, "already exists")
	_, err = execute(t, "seed", "--force")
	assert.NoError(t, err)
}

func TestContentPutAndSet(t *testing.T) {
	tb := useTestBackend(t)
	file := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(file, []byte("hero:\n  title: A\n  subtitle: B\n"), 0o600))

	_, err := execute(t, "content", "put", file)
	require.NoError(t, err)
	_, err = execute(t, "content", "set", "hero.title", "Z")
	require.NoError(t, err)

	doc, err := tb.content.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Z", doc.Hero.Title)
	assert.Equal(t, "B", doc.Hero.Subtitle)

	out, err := execute(t, "content", "get", "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "title: Z")
}

func TestContentSet_UnknownPath(t *testing.T) {
	tb := useTestBackend(t)
	_, err := tb.content.Save(context.Background(), &models.Document{Hero: models.Hero{Title: "A"}})
	require.NoError(t, err)

	_, err = execute(t, "content", "set", "hero.colour", "red")

	assert.ErrorContains(t, err, "unknown field path")
	doc, err := tb.content.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A", doc.Hero.Title)
}

func TestContentGet_Missing(t *testing.T) {
	useTestBackend(t)

	_, err := execute(t, "content", "get")

	assert.ErrorContains(t, err, "not found")
}

func TestUploadAndList(t *testing.T) {
	tb := useTestBackend(t)
	dir := t.TempDir()
	var files []string
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte{0x89, 'P', 'N', 'G'}, 0o600))
		files = append(files, p)
	}

	out, err := execute(t, append([]string{"upload", "--section", "logos"}, files...)...)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "/media/logos/"))
	assert.Len(t, tb.objects.Names(), 3)

	out, err = execute(t, "uploads", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "PATH")
	assert.Equal(t, 3, strings.Count(out, "logos/"))
}

func TestUpload_MissingFile(t *testing.T) {
	useTestBackend(t)

	_, err := execute(t, "upload", filepath.Join(t.TempDir(), "nope.png"))

	assert.Error(t, err)
}
