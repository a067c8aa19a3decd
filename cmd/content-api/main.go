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
	contentHandler *api.ContentHandler
	once           sync.Once
	initErr        error
)

func init() {
	config.SetupLogging((&config.Config{LogLevel: gcp.GetEnv("LOG_LEVEL", "info")}).SlogLevel())

	// "HandleContent" is the entry point name configured in GCP.
	functions.HTTP("HandleContent", handleContent)
}

// main is required by the Go Functions Framework.
func main() {}

func setup(ctx context.Context) (*api.ContentHandler, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateAdmin(); err != nil {
		// Reads still work; every write will be rejected.
		slog.Warn("Content writes are disabled.", "reason", err)
	}
	store, err := services.NewContentStoreFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return api.NewContentHandler(store, auth.NewGate(cfg.AdminPassword)), nil
}

// handleContent serves GET and POST /api/content.
func handleContent(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		contentHandler, initErr = setup(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		api.WriteJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "failed to initialize service"})
		return
	}
	contentHandler.ServeHTTP(w, r)
}
