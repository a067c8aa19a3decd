// Package config collects the deployment settings of the site backend.
//
// Settings come from the environment, the same way every Cloud Function reads
// them, and can be overlaid from a TOML file for the sitectl CLI. The
// resulting Config is passed explicitly to the services that need it.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/Lllllllleong/consultancysite/internal/gcp"
)

const (
	DefaultContentCollection = "site_content"
	DefaultContentDocID      = "1"
	DefaultUploadsCollection = "uploaded_images"
	DefaultPublicBaseURL     = "https://storage.googleapis.com"
	DefaultMaxUploadBytes    = 10 << 20
	DefaultStatusClearDelay  = 3 * time.Second
	DefaultWorkflowLocation  = "us-central1"
	DefaultVertexAIRegion    = "us-central1"
	DefaultListenAddr        = ":8080"
)

// Config holds every setting used by the functions and the site server.
type Config struct {
	ProjectID         string
	ContentCollection string
	ContentDocID      string
	UploadsCollection string
	UploadBucket      string
	PublicBaseURL     string
	AdminPassword     string
	MaxUploadBytes    int64
	StatusClearDelay  time.Duration
	VertexAIRegion    string
	AltTextModel      string
	PublishWorkflowID string
	WorkflowLocation  string
	ListenAddr        string
	TrustedProxy      string
	LogLevel          string
}

// fileConfig mirrors Config for TOML decoding. Empty values leave the
// environment setting in place.
type fileConfig struct {
	ProjectID         string `toml:"project_id"`
	ContentCollection string `toml:"content_collection"`
	ContentDocID      string `toml:"content_doc_id"`
	UploadsCollection string `toml:"uploads_collection"`
	UploadBucket      string `toml:"upload_bucket"`
	PublicBaseURL     string `toml:"public_base_url"`
	AdminPassword     string `toml:"admin_password"`
	MaxUploadBytes    int64  `toml:"max_upload_bytes"`
	StatusClearDelay  string `toml:"status_clear_delay"`
	VertexAIRegion    string `toml:"vertex_ai_region"`
	AltTextModel      string `toml:"alt_text_model"`
	PublishWorkflowID string `toml:"publish_workflow_id"`
	WorkflowLocation  string `toml:"workflow_location"`
	ListenAddr        string `toml:"listen_addr"`
	TrustedProxy      string `toml:"trusted_proxy"`
	LogLevel          string `toml:"log_level"`
}

// FromEnv loads the configuration from environment variables.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ProjectID:         gcp.GetEnv("PROJECT_ID", ""),
		ContentCollection: gcp.GetEnv("CONTENT_COLLECTION", DefaultContentCollection),
		ContentDocID:      gcp.GetEnv("CONTENT_DOC_ID", DefaultContentDocID),
		UploadsCollection: gcp.GetEnv("UPLOADS_COLLECTION", DefaultUploadsCollection),
		UploadBucket:      gcp.GetEnv("UPLOAD_BUCKET", ""),
		PublicBaseURL:     gcp.GetEnv("PUBLIC_BASE_URL", DefaultPublicBaseURL),
		AdminPassword:     gcp.GetEnv("ADMIN_PASSWORD", ""),
		MaxUploadBytes:    DefaultMaxUploadBytes,
		StatusClearDelay:  DefaultStatusClearDelay,
		VertexAIRegion:    gcp.GetEnv("VERTEX_AI_REGION", DefaultVertexAIRegion),
		AltTextModel:      gcp.GetEnv("ALT_TEXT_MODEL", ""),
		PublishWorkflowID: gcp.GetEnv("PUBLISH_WORKFLOW_ID", ""),
		WorkflowLocation:  gcp.GetEnv("WORKFLOW_LOCATION", DefaultWorkflowLocation),
		ListenAddr:        gcp.GetEnv("LISTEN_ADDR", DefaultListenAddr),
		TrustedProxy:      gcp.GetEnv("TRUSTED_PROXY", ""),
		LogLevel:          gcp.GetEnv("LOG_LEVEL", "info"),
	}

	if v := gcp.GetEnv("MAX_UPLOAD_BYTES", ""); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be a positive integer, got %q", v)
		}
		cfg.MaxUploadBytes = n
	}
	if v := gcp.GetEnv("STATUS_CLEAR_DELAY", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("STATUS_CLEAR_DELAY: %w", err)
		}
		cfg.StatusClearDelay = d
	}
	return cfg, nil
}

// Load reads the environment and then overlays the TOML file at path, if any.
func Load(path string) (*Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}
	if err := cfg.overlayFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	overlay(&c.ProjectID, fc.ProjectID)
	overlay(&c.ContentCollection, fc.ContentCollection)
	overlay(&c.ContentDocID, fc.ContentDocID)
	overlay(&c.UploadsCollection, fc.UploadsCollection)
	overlay(&c.UploadBucket, fc.UploadBucket)
	overlay(&c.PublicBaseURL, fc.PublicBaseURL)
	overlay(&c.AdminPassword, fc.AdminPassword)
	overlay(&c.VertexAIRegion, fc.VertexAIRegion)
	overlay(&c.AltTextModel, fc.AltTextModel)
	overlay(&c.PublishWorkflowID, fc.PublishWorkflowID)
	overlay(&c.WorkflowLocation, fc.WorkflowLocation)
	overlay(&c.ListenAddr, fc.ListenAddr)
	overlay(&c.TrustedProxy, fc.TrustedProxy)
	overlay(&c.LogLevel, fc.LogLevel)
	if fc.MaxUploadBytes > 0 {
		c.MaxUploadBytes = fc.MaxUploadBytes
	}
	if fc.StatusClearDelay != "" {
		d, err := time.ParseDuration(fc.StatusClearDelay)
		if err != nil {
			return fmt.Errorf("status_clear_delay: %w", err)
		}
		c.StatusClearDelay = d
	}
	return nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ValidateContent checks the settings needed to reach the content document.
func (c *Config) ValidateContent() error {
	if c.ProjectID == "" {
		return fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	if c.ContentCollection == "" || c.ContentDocID == "" {
		return fmt.Errorf("CONTENT_COLLECTION and CONTENT_DOC_ID must not be empty")
	}
	return nil
}

// ValidateUploads checks the settings needed to store uploads.
func (c *Config) ValidateUploads() error {
	if c.ProjectID == "" {
		return fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	if c.UploadBucket == "" {
		return fmt.Errorf("UPLOAD_BUCKET environment variable must be set")
	}
	return nil
}

// ValidateAdmin checks that writes can be authorised.
func (c *Config) ValidateAdmin() error {
	if c.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD environment variable must be set")
	}
	return nil
}

// SlogLevel parses LogLevel, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogging installs the JSON slog handler on stdout as the default logger.
func SetupLogging(level slog.Level) {
	SetupLoggingTo(os.Stdout, level)
}

// SetupLoggingTo is SetupLogging for another writer. The CLI logs to stderr
// so stdout stays clean for command output.
func SetupLoggingTo(w io.Writer, level slog.Level) {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
