package main

import (
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/consultancysite/internal/auth"
	"github.com/Lllllllleong/consultancysite/internal/site"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the site, the admin editor and the API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address (default LISTEN_ADDR or :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if remoteURL != "" {
		return errors.New("serve runs against the stores directly; drop --remote")
	}
	if err := cfg.ValidateAdmin(); err != nil {
		slog.Warn("The admin editor and API writes are disabled.", "reason", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	opts := []site.Option{
		site.WithStatusClearDelay(cfg.StatusClearDelay),
		site.WithTrustedProxy(cfg.TrustedProxy),
	}
	if b.uploader != nil {
		opts = append(opts, site.WithUploads(b.uploader, cfg.MaxUploadBytes))
	}
	if b.media != nil {
		opts = append(opts, site.WithMedia(b.media))
	}
	srv := site.NewServer(b.store, auth.NewGate(cfg.AdminPassword), opts...)
	defer srv.Close()

	addr := cfg.ListenAddr
	if listenAddr != "" {
		addr = listenAddr
	}
	return srv.ListenAndServe(ctx, addr)
}
