package main

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Lllllllleong/consultancysite/internal/api"
	"github.com/Lllllllleong/consultancysite/internal/auth"
	"github.com/Lllllllleong/consultancysite/internal/config"
	"github.com/Lllllllleong/consultancysite/internal/gcp"
	"github.com/Lllllllleong/consultancysite/internal/models"
	"github.com/Lllllllleong/consultancysite/internal/services"
)

var (
	uploadHandler *api.UploadHandler
	once          sync.Once
	initErr       error
)

func init() {
	config.SetupLogging((&config.Config{LogLevel: gcp.GetEnv("LOG_LEVEL", "info")}).SlogLevel())

	functions.HTTP("HandleUpload", handleUpload)
}

// main is required by the Go Functions Framework.
func main() {}

func setup(ctx context.Context) (*api.UploadHandler, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateAdmin(); err != nil {
		return nil, err
	}
	uploader, err := services.NewUploaderFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return api.NewUploadHandler(uploader, auth.NewGate(cfg.AdminPassword), cfg.MaxUploadBytes), nil
}

// handleUpload serves POST /api/upload.
func handleUpload(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		uploadHandler, initErr = setup(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		api.WriteJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "failed to initialize service"})
		return
	}
	uploadHandler.ServeHTTP(w, r)
}
