package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/consultancysite/internal/config"
	"github.com/Lllllllleong/consultancysite/internal/editor"
	"github.com/Lllllllleong/consultancysite/internal/models"
	"github.com/Lllllllleong/consultancysite/internal/services"
	"github.com/Lllllllleong/consultancysite/internal/site"
	"github.com/Lllllllleong/consultancysite/internal/store/memory"
)

var (
	configPath string
	useMemory  bool
	remoteURL  string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "sitectl",
	Short:         "Manage the consultancy site content",
	Long:          `Serve the site locally, read and edit the content document, and upload images.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		config.SetupLoggingTo(cmd.ErrOrStderr(), cfg.SlogLevel())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML file overlaid on the environment")
	rootCmd.PersistentFlags().BoolVar(&useMemory, "memory", false, "Use in-memory stores seeded with the bundled content")
	rootCmd.PersistentFlags().StringVar(&remoteURL, "remote", "", "Talk to a deployed site at this base URL instead of the stores")
}

// contentAPI is what the content commands need. Both the in-process store
// and the HTTP client satisfy it.
type contentAPI interface {
	Read(ctx context.Context) (*models.Document, error)
	Save(ctx context.Context, doc *models.Document) (*models.WriteAck, error)
}

// backend bundles the stores a command runs against.
type backend struct {
	content  contentAPI
	store    site.ContentBackend
	uploader editor.ImageUploader
	uploads  *services.Uploader
	media    http.Handler
	closers  []func() error
}

func (b *backend) Close() {
	for _, c := range b.closers {
		_ = c()
	}
}

var errNoUploads = errors.New("uploads are not configured: set UPLOAD_BUCKET or use --memory")

// openBackend is replaced in tests.
var openBackend = defaultOpenBackend

func defaultOpenBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch {
	case remoteURL != "":
		client := editor.NewHTTPClient(remoteURL, cfg.AdminPassword)
		return &backend{content: client, uploader: client}, nil
	case useMemory:
		return memoryBackend(ctx, cfg)
	}

	cs, err := services.NewContentStoreFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	b := &backend{content: cs, store: cs, closers: []func() error{cs.Close}}
	if cfg.UploadBucket != "" {
		up, err := services.NewUploaderFromConfig(ctx, cfg)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.uploader, b.uploads = up, up
		b.closers = append(b.closers, up.Close)
	}
	return b, nil
}

func memoryBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	cs := services.NewContentStore(memory.NewContentRepository())
	doc, err := models.DefaultDocument()
	if err != nil {
		return nil, err
	}
	if _, err := cs.Save(ctx, doc); err != nil {
		return nil, err
	}
	objs := memory.NewObjectStore("local", "/media")
	up := services.NewUploader(objs, memory.NewUploadLog(), services.WithMaxBytes(cfg.MaxUploadBytes))
	return &backend{
		content:  cs,
		store:    cs,
		uploader: up,
		uploads:  up,
		media:    site.MediaHandler(objs),
	}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
