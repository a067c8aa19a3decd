package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/consultancysite/internal/config"
	"github.com/Lllllllleong/consultancysite/internal/gcp"
	"github.com/Lllllllleong/consultancysite/internal/services"
)

var (
	reconciler *services.AuditReconciler
	once       sync.Once
	initErr    error
)

func init() {
	config.SetupLogging((&config.Config{LogLevel: gcp.GetEnv("LOG_LEVEL", "info")}).SlogLevel())

	// Triggered by google.cloud.storage.object.v1.finalized on the upload bucket.
	functions.CloudEvent("ReconcileUpload", reconcileUpload)
}

// main is required by the Go Functions Framework.
func main() {}

func reconcileUpload(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		cfg, err := config.FromEnv()
		if err != nil {
			initErr = err
			return
		}
		reconciler, initErr = services.NewAuditReconcilerFromConfig(context.Background(), cfg)
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent services.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	// Already-recorded objects are skipped inside Process.
	_, err := reconciler.Process(ctx, gcsEvent)
	return err
}
