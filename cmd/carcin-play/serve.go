package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/michaelbrown/carcin-play/internal/server"
)

var (
	portFlag    int
	docsDirFlag string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a docs directory with live widgets",
	Long: `Start the carcin-play HTTP server.

Pages under the docs directory are served at /docs with their runnable code
blocks replaced by widgets. The widget API lives under /api and metrics under
/metrics.

Examples:
  carcin-play serve
  carcin-play serve --port 9090 --dir site`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&docsDirFlag, "dir", "", "Docs directory to serve (overrides config)")
	serveCmd.Flags().StringVar(&versionsFlag, "versions", "", "versions.json path or URL (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if docsDirFlag != "" {
		cfg.Docs.Dir = docsDirFlag
	}

	manifest, err := loadManifest(cmd.Context(), cfg, versionsFlag)
	if err != nil {
		return fmt.Errorf("loading versions: %w", err)
	}
	if manifest != nil {
		if latest, ok := manifest.Latest(); ok {
			log.Printf("Versions: latest is %s", latest.Version)
		}
	}

	port := cfg.Server.Port
	if portFlag > 0 {
		port = portFlag
	}

	srv := server.New(cfg, newRunner(cfg), manifest)

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		srv.Shutdown(context.Background())
	}()

	log.Printf("Serving docs from %s", cfg.Docs.Dir)
	if err := srv.Start(port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
